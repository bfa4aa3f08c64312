package request

type AvailabilityRequest struct {
	LineItemsRequest
	// BookingID excludes an existing booking when re-validating an edit.
	BookingID *string `json:"booking_id,omitempty" validate:"omitempty,uuid"`
}

type QuoteRequest struct {
	LineItemsRequest
	PromoCode string `json:"promo_code,omitempty" validate:"omitempty,max=64"`
}
