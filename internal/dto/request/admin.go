package request

type ReconcileRequest struct {
	DateFrom    string `json:"date_from" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	DateTo      string `json:"date_to" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Limit       int    `json:"limit" validate:"gte=0"`
	AutoCorrect bool   `json:"auto_correct"`
}

type LimitRequest struct {
	Limit int `json:"limit" validate:"gte=0,max=1000"`
}

type ListBookingsRequest struct {
	PageRequest
	Status string `json:"status" validate:"omitempty,oneof=draft pending_payment confirmed paid cancelled failed refunded"`
}
