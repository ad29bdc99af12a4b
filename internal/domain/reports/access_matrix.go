package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"hrportal/internal/domain/access"
)

type MatrixOptions struct {
	GeneratedBy string
	GeneratedAt time.Time
}

// AccessMatrixPDF renders one row per page and one column per role. Catalogue
// pages come first in catalogue order, then any other pages by id.
func AccessMatrixPDF(t access.Table, opts MatrixOptions) ([]byte, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}
	roles := access.Roles()

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Page Access Matrix", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Page Access Matrix")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", opts.GeneratedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(6)
	if opts.GeneratedBy != "" {
		pdf.Cell(0, 6, fmt.Sprintf("By: %s", opts.GeneratedBy))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	const (
		pageWidth = 70.0
		pathWidth = 55.0
		roleWidth = 35.0
		rowHeight = 8.0
	)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(pageWidth, rowHeight, "Page", "1", 0, "L", true, 0, "")
	pdf.CellFormat(pathWidth, rowHeight, "Path", "1", 0, "L", true, 0, "")
	for _, role := range roles {
		pdf.CellFormat(roleWidth, rowHeight, access.RoleName(role), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, id := range matrixRows(t) {
		pp := t[id]
		pdf.CellFormat(pageWidth, rowHeight, access.PageTitle(id), "1", 0, "L", false, 0, "")
		pdf.CellFormat(pathWidth, rowHeight, pp.Path, "1", 0, "L", false, 0, "")
		for _, role := range roles {
			mark := ""
			if pp.Has(role) {
				mark = "X"
			}
			pdf.CellFormat(roleWidth, rowHeight, mark, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render access matrix: %w", err)
	}
	return buf.Bytes(), nil
}

func matrixRows(t access.Table) []string {
	seen := make(map[string]bool, len(t))
	rows := make([]string, 0, len(t))
	for _, page := range access.SystemPages() {
		if _, ok := t[page.ID]; ok {
			rows = append(rows, page.ID)
			seen[page.ID] = true
		}
	}
	for _, id := range t.IDs() {
		if !seen[id] {
			rows = append(rows, id)
		}
	}
	return rows
}
