package request

import (
	"net/url"

	"booking-engine/pkg/utils"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// PageRequest selects one window of an operator listing.
type PageRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// PageFromQuery reads ?page= and ?per_page=. Missing or non-positive values
// fall back to the first page of DefaultPerPage.
func PageFromQuery(q url.Values) PageRequest {
	return PageRequest{
		Page:    utils.ParseInt(q.Get("page"), 1),
		PerPage: utils.ParseInt(q.Get("per_page"), DefaultPerPage),
	}
}

// Window returns the row limit and offset, with PerPage clamped to
// [1, MaxPerPage].
func (p PageRequest) Window() (limit, offset int) {
	limit = p.PerPage
	switch {
	case limit < 1:
		limit = DefaultPerPage
	case limit > MaxPerPage:
		limit = MaxPerPage
	}
	return limit, utils.CalculateOffset(p.Page, limit)
}
