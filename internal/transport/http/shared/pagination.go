package shared

import (
	"net/http"
	"strconv"
)

const TotalCountHeader = "X-Total-Count"

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit/offset, or page/pageSize when limit is absent.
// Invalid values fall back to the defaults and limit is capped at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	q := r.URL.Query()
	p := Pagination{Limit: defaultLimit}

	if v, ok := positiveInt(q.Get("limit")); ok {
		p.Limit = v
	} else if v, ok := positiveInt(q.Get("pageSize")); ok {
		p.Limit = v
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		p.Offset = v
	} else if page, ok := positiveInt(q.Get("page")); ok {
		p.Offset = (page - 1) * p.Limit
	}
	return p
}

// SetTotal reports the unpaginated result size to the client.
func SetTotal(w http.ResponseWriter, total int) {
	w.Header().Set(TotalCountHeader, strconv.Itoa(total))
}

func positiveInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
