package response

import "time"

type CheckoutResponse struct {
	CheckoutURL        string    `json:"checkout_url"`
	SessionID          string    `json:"session_id"`
	BookingID          string    `json:"booking_id"`
	BookingReference   string    `json:"booking_reference"`
	ExpiresAt          time.Time `json:"expires_at"`
	AmountTotal        int64     `json:"amount_total"`
	AmountTotalDisplay string    `json:"amount_total_display"`
	Currency           string    `json:"currency"`
	Warnings           []string  `json:"warnings,omitempty"`
}
