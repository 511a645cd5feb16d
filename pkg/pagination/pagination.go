package pagination

import (
	"net/http"
	"strconv"

	apperrors "github.com/hienohelma/storefront/pkg/errors"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 50
)

// Params selects one page of a list.
type Params struct {
	Page    int
	PerPage int
}

// Offset is the index of the first element on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// FromRequest reads page and per_page from the query string. Missing values
// fall back to the first page of DefaultPerPage elements.
func FromRequest(r *http.Request) (Params, error) {
	p := Params{Page: 1, PerPage: DefaultPerPage}
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return Params{}, apperrors.InvalidInput("page must be a positive integer")
		}
		p.Page = v
	}
	if raw := q.Get("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxPerPage {
			return Params{}, apperrors.InvalidInput("per_page must be between 1 and " + strconv.Itoa(MaxPerPage))
		}
		p.PerPage = v
	}
	return p, nil
}

// Page is one window over a list plus the counts a client needs to page on.
type Page[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// Slice cuts the requested page out of an already loaded list. A page past
// the end yields no items.
func Slice[T any](all []T, p Params) Page[T] {
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}

	total := len(all)
	totalPages := (total + p.PerPage - 1) / p.PerPage

	start := min(p.Offset(), total)
	end := min(start+p.PerPage, total)

	items := make([]T, end-start)
	copy(items, all[start:end])

	return Page[T]{
		Items:      items,
		TotalCount: total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
	}
}
