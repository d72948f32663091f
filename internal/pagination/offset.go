// Package pagination provides offset/limit pagination for list endpoints.
package pagination

import (
	"errors"
	"strconv"
)

var (
	ErrInvalidLimit  = errors.New("pagination: limit must be a positive integer")
	ErrInvalidOffset = errors.New("pagination: offset must be a non-negative integer")
)

// Params is a requested window into an ordered result set
type Params struct {
	Limit  int
	Offset int
}

// Page describes the window that was returned
type Page struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// Parse reads limit and offset from raw query values. Empty values take the
// defaults; limits above maxLimit are clamped.
func Parse(limit, offset string, defaultLimit, maxLimit int) (Params, error) {
	p := Params{Limit: defaultLimit}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return Params{}, ErrInvalidLimit
		}
		p.Limit = n
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return Params{}, ErrInvalidOffset
		}
		p.Offset = n
	}
	return p, nil
}

// Apply slices items to the window and reports the resulting page
func Apply[T any](items []T, p Params) ([]T, Page) {
	total := len(items)
	page := Page{Total: total, Limit: p.Limit, Offset: p.Offset}

	start := min(max(p.Offset, 0), total)
	end := total
	if p.Limit > 0 {
		end = min(start+p.Limit, total)
	}
	page.HasMore = end < total
	return items[start:end], page
}
