package utils

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
)

const MaxLimit = 1000

type PaginationParams struct {
	Page         int `json:"page"`
	Limit        int `json:"limit"`
	Offset       int `json:"offset"`
	TotalRecords int `json:"total_records"`
	TotalPages   int `json:"total_pages"`
}

// ExtractPagination reads ?page and ?limit. ok is false when neither is
// present, in which case callers return everything.
func ExtractPagination(r *http.Request) (params PaginationParams, ok bool, err error) {
	q := r.URL.Query()
	p, l := q.Get("page"), q.Get("limit")
	if p == "" && l == "" {
		return PaginationParams{}, false, nil
	}
	params = PaginationParams{Page: 1, Limit: 100}

	if p != "" {
		val, err := strconv.Atoi(p)
		if err != nil || val <= 0 {
			return PaginationParams{}, true, fmt.Errorf("invalid page parameter: %s", p)
		}
		params.Page = val
	}
	if l != "" {
		val, err := strconv.Atoi(l)
		if err != nil || val <= 0 || val > MaxLimit {
			return PaginationParams{}, true, fmt.Errorf("invalid limit parameter: %s", l)
		}
		params.Limit = val
	}
	params.Offset = (params.Page - 1) * params.Limit
	return params, true, nil
}

func (p *PaginationParams) SetPaginationStats(totalRecords int) {
	p.TotalRecords = totalRecords
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(totalRecords) / float64(p.Limit)))
	}
}

// Window returns the slice bounds of the current page within total items.
func (p PaginationParams) Window(total int) (start, end int) {
	start = p.Offset
	if start > total {
		start = total
	}
	end = start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}
