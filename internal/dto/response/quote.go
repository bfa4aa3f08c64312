package response

import "time"

type QuoteLineResponse struct {
	ItemIndex     int    `json:"item_index"`
	Kind          string `json:"kind"`
	ResourceID    string `json:"resource_id"`
	Description   string `json:"description"`
	Quantity      int    `json:"quantity"`
	Nights        int    `json:"nights"`
	UnitAmount    int64  `json:"unit_amount"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
}

type TaxLineResponse struct {
	Name          string `json:"name"`
	RateBps       int64  `json:"rate_bps"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
}

type PromoResponse struct {
	Code  string `json:"code"`
	Kind  string `json:"kind"`
	Value int64  `json:"value"`
}

type QuoteResponse struct {
	Lines           []QuoteLineResponse `json:"lines"`
	Subtotal        int64               `json:"subtotal"`
	SubtotalDisplay string              `json:"subtotal_display"`
	Promo           *PromoResponse      `json:"promo,omitempty"`
	DiscountTotal   int64               `json:"discount_total"`
	DiscountDisplay string              `json:"discount_total_display"`
	Taxes           []TaxLineResponse   `json:"taxes"`
	TaxTotal        int64               `json:"tax_total"`
	TaxTotalDisplay string              `json:"tax_total_display"`
	GrandTotal      int64               `json:"grand_total"`
	GrandDisplay    string              `json:"grand_total_display"`
	Currency        string              `json:"currency"`
	ValidUntil      time.Time           `json:"valid_until"`
	Warnings        []string            `json:"warnings"`
}

type ConflictResponse struct {
	ItemIndex        int     `json:"item_index"`
	ResourceType     string  `json:"resource_type"`
	ResourceID       string  `json:"resource_id"`
	Start            string  `json:"start"`
	End              string  `json:"end"`
	HoldingBookingID *string `json:"holding_booking_id,omitempty"`
	Reason           string  `json:"reason"`
}

type AvailabilityResponse struct {
	Available bool               `json:"available"`
	Conflicts []ConflictResponse `json:"conflicts"`
	Warnings  []string           `json:"warnings"`
}
