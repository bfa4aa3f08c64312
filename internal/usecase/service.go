package usecase

import (
	"time"

	"booking-engine/internal/data/repository"
	"booking-engine/internal/gateway"
	"booking-engine/pkg/mq"
	"booking-engine/pkg/utils"

	"go.uber.org/zap"
)

// ReferenceSource hands out human-facing booking references.
type ReferenceSource interface {
	Next() string
}

// Deps are the collaborators the services share besides the datastore.
type Deps struct {
	Gateway    gateway.Gateway
	Publisher  mq.EventPublisher
	References ReferenceSource
	Clock      func() time.Time
}

type Service struct {
	Conflict  ConflictService
	Pricing   PricingService
	Checkout  CheckoutService
	Webhook   WebhookService
	Reconcile ReconcileService
	Reaper    ReaperService
	Booking   BookingService
}

func NewService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *Service {
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.Publisher == nil {
		deps.Publisher = mq.NewNopPublisher(log)
	}

	conflict := NewConflictService(repo, config.Conflict, log)
	pricing := NewPricingService(repo, config.Pricing, deps.Clock, log)

	return &Service{
		Conflict:  conflict,
		Pricing:   pricing,
		Checkout:  NewCheckoutService(repo, config.Gateway, conflict, pricing, deps, log),
		Webhook:   NewWebhookService(repo, config.Webhook, config.Gateway.Timeout, deps, log),
		Reconcile: NewReconcileService(repo, config.Reconcile, config.Gateway.Timeout, deps, log),
		Reaper:    NewReaperService(repo, deps, log),
		Booking:   NewBookingService(repo, log),
	}
}
