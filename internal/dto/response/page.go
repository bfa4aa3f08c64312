package response

import "booking-engine/pkg/utils"

// Page is one window of a listing.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"pagination"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func NewPage[T any](data []T, page, perPage int, total int64) *Page[T] {
	if data == nil {
		data = []T{}
	}
	pages := utils.CalculateTotalPages(total, perPage)
	return &Page[T]{
		Data: data,
		Meta: PageMeta{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: pages,
			HasNext:    page < pages,
		},
	}
}
