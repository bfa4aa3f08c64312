package response

import "time"

type BookingResponse struct {
	ID               string     `json:"id"`
	Reference        string     `json:"reference"`
	CustomerID       string     `json:"customer_id"`
	Status           string     `json:"status"`
	Subtotal         int64      `json:"subtotal"`
	DiscountTotal    int64      `json:"discount_total"`
	TaxTotal         int64      `json:"tax_total"`
	TotalAmount      int64      `json:"total_amount"`
	TotalDisplay     string     `json:"total_amount_display"`
	Currency         string     `json:"currency"`
	CheckIn          *string    `json:"check_in,omitempty"`
	CheckOut         *string    `json:"check_out,omitempty"`
	GatewaySessionID *string    `json:"gateway_session_id,omitempty"`
	SessionExpiresAt *time.Time `json:"session_expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type CustomerResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     *string `json:"phone,omitempty"`
}

type PaymentResponse struct {
	ID               string     `json:"id"`
	Amount           int64      `json:"amount"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	GatewaySessionID *string    `json:"gateway_session_id,omitempty"`
	GatewayTxnID     *string    `json:"gateway_txn_id,omitempty"`
	RefundedAmount   int64      `json:"refunded_amount"`
	FailureReason    *string    `json:"failure_reason,omitempty"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`
	ReviewRequired   bool       `json:"review_required"`
	ReviewReason     *string    `json:"review_reason,omitempty"`
}

type RoomReservationResponse struct {
	ID        string  `json:"id"`
	RoomID    string  `json:"room_id"`
	BedID     *string `json:"bed_id,omitempty"`
	CheckIn   string  `json:"check_in"`
	CheckOut  string  `json:"check_out"`
	Guests    int     `json:"guests"`
	LineTotal int64   `json:"line_total"`
	Active    bool    `json:"active"`
}

type CampRegistrationResponse struct {
	ID            string `json:"id"`
	CampSessionID string `json:"camp_session_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Guests        int    `json:"guests"`
	LineTotal     int64  `json:"line_total"`
	Active        bool   `json:"active"`
}

type AddOnLineResponse struct {
	AddOnID   string `json:"add_on_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

type BookingDetailResponse struct {
	BookingResponse
	Customer *CustomerResponse          `json:"customer,omitempty"`
	Payment  *PaymentResponse          `json:"payment,omitempty"`
	Rooms    []RoomReservationResponse  `json:"rooms"`
	Camps    []CampRegistrationResponse `json:"camps"`
	AddOns   []AddOnLineResponse        `json:"add_ons"`
	Promo    *PromoResponse             `json:"promo,omitempty"`
	Discount int64                      `json:"promo_discount,omitempty"`
}
