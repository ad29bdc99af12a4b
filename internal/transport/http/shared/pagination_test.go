package shared

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Pagination
	}{
		{name: "defaults", query: "", want: Pagination{Limit: 50}},
		{name: "limit and offset", query: "limit=10&offset=20", want: Pagination{Limit: 10, Offset: 20}},
		{name: "capped", query: "limit=1000", want: Pagination{Limit: 200}},
		{name: "invalid values", query: "limit=-1&offset=abc", want: Pagination{Limit: 50}},
		{name: "page numbers", query: "page=3&pageSize=25", want: Pagination{Limit: 25, Offset: 50}},
		{name: "offset wins over page", query: "page=3&offset=5", want: Pagination{Limit: 50, Offset: 5}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/items?"+tc.query, nil)
			got := ParsePagination(r, 50, 200)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestSetTotal(t *testing.T) {
	rec := httptest.NewRecorder()
	SetTotal(rec, 42)
	if rec.Header().Get(TotalCountHeader) != "42" {
		t.Fatalf("unexpected header %q", rec.Header().Get(TotalCountHeader))
	}
}
