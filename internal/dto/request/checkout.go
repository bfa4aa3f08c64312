package request

type CustomerRequest struct {
	Email     string  `json:"email" validate:"required,email,max=254"`
	FirstName string  `json:"first_name" validate:"max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type CheckoutRequest struct {
	LineItemsRequest
	Customer  CustomerRequest `json:"customer"`
	PromoCode string          `json:"promo_code,omitempty" validate:"omitempty,max=64"`
	// ExpectedTotal is the grand total the client displayed, in minor units.
	ExpectedTotal *int64 `json:"expected_total,omitempty" validate:"omitempty,gte=0"`
}
