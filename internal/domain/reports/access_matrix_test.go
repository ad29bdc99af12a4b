package reports

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"hrportal/internal/domain/access"
)

func TestAccessMatrixPDF(t *testing.T) {
	out, err := AccessMatrixPDF(access.DefaultTable(), MatrixOptions{
		GeneratedBy: "owner@example.com",
		GeneratedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %q", out[:min(len(out), 8)])
	}
}

func TestMatrixRowsOrder(t *testing.T) {
	table := access.Table{
		"zeta":      {Path: "/zeta"},
		"reports":   {Path: "/reports"},
		"alpha":     {Path: "/alpha"},
		"dashboard": {Path: "/"},
	}
	want := []string{"dashboard", "reports", "alpha", "zeta"}
	if got := matrixRows(table); !reflect.DeepEqual(got, want) {
		t.Fatalf("matrixRows = %v, want %v", got, want)
	}
}
