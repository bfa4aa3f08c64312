package response

import "testing"

func TestNewPage(t *testing.T) {
	tests := []struct {
		name    string
		page    int
		perPage int
		total   int64
		pages   int
		hasNext bool
	}{
		{"empty", 1, 20, 0, 0, false},
		{"partial last page", 1, 2, 3, 2, true},
		{"on last page", 2, 2, 3, 2, false},
		{"exact fit", 1, 5, 5, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage[BookingResponse](nil, tt.page, tt.perPage, tt.total)
			if p.Data == nil {
				t.Fatalf("data must encode as [] not null")
			}
			if p.Meta.TotalPages != tt.pages || p.Meta.HasNext != tt.hasNext {
				t.Fatalf("unexpected meta %+v", p.Meta)
			}
		})
	}
}
