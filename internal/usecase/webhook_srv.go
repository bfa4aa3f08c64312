package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"booking-engine/internal/data/entity"
	"booking-engine/internal/data/repository"
	"booking-engine/internal/gateway"
	"booking-engine/pkg/apperror"
	"booking-engine/pkg/mq"
	"booking-engine/pkg/obs"
	"booking-engine/pkg/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

//go:generate mockgen -source=webhook_srv.go -destination=mocks/mock_webhook_srv.go -package=mocks

type WebhookOutcome string

const (
	// OutcomeProcessed means the event changed state.
	OutcomeProcessed WebhookOutcome = "processed"
	// OutcomeRejected means the event was recorded but its transition refused.
	OutcomeRejected WebhookOutcome = "rejected"
	// OutcomeIgnored is an acknowledged kind with no side effects.
	OutcomeIgnored   WebhookOutcome = "ignored"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	// OutcomeDeferred means the event could not be correlated yet; it stays
	// unprocessed in the ledger for a later replay.
	OutcomeDeferred WebhookOutcome = "deferred"
)

type WebhookResult struct {
	EventID string         `json:"event_id"`
	Kind    string         `json:"kind"`
	Outcome WebhookOutcome `json:"outcome"`
}

type ReplayReport struct {
	Scanned    int `json:"scanned"`
	Processed  int `json:"processed"`
	Rejected   int `json:"rejected"`
	Ignored    int `json:"ignored"`
	Duplicates int `json:"duplicates"`
	Deferred   int `json:"deferred"`
	Failed     int `json:"failed"`
}

type WebhookService interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error)
	// HandleNotification accepts a provider-native notification, looks the
	// payment up at the provider and applies the resulting event.
	HandleNotification(ctx context.Context, req gateway.NotificationRequest) (*WebhookResult, error)
	// ReplayPending re-drives unprocessed ledger rows from their stored payload.
	ReplayPending(ctx context.Context, limit int) (*ReplayReport, error)
}

var (
	errNotCorrelated = errors.New("event does not match a known booking")
	errLostClaim     = errors.New("event already processed by another delivery")
)

// eventContext carries one event through its handler inside the transaction.
type eventContext struct {
	evt     *gateway.Event
	now     time.Time
	booking *entity.Booking
	payment *entity.Payment

	ignored  bool
	rejected string
	outbox   []outboundEvent
}

type eventHandler func(ctx context.Context, tx *repository.Repository, ec *eventContext) error

type webhookService struct {
	repo     *repository.Repository
	cfg      utils.WebhookConfig
	resolver gateway.NotificationResolver
	timeout  time.Duration
	pub      mq.EventPublisher
	clock    func() time.Time
	handlers map[gateway.EventKind]eventHandler
	log      *zap.Logger
}

func NewWebhookService(repo *repository.Repository, cfg utils.WebhookConfig, lookupTimeout time.Duration, deps Deps, log *zap.Logger) WebhookService {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 5 * time.Minute
	}
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = time.Minute
	}
	if lookupTimeout <= 0 {
		lookupTimeout = 10 * time.Second
	}

	s := &webhookService{
		repo:    repo,
		cfg:     cfg,
		timeout: lookupTimeout,
		pub:     deps.Publisher,
		clock:   deps.Clock,
		log:     log.With(zap.String("service", "webhook")),
	}
	if r, ok := deps.Gateway.(gateway.NotificationResolver); ok {
		s.resolver = r
	}
	s.handlers = map[gateway.EventKind]eventHandler{
		gateway.EventCheckoutCompleted: s.correlated(s.onCheckoutCompleted),
		gateway.EventPaymentSucceeded:  s.correlated(s.onPaymentSucceeded),
		gateway.EventPaymentFailed:     s.correlated(s.onPaymentFailed),
		gateway.EventCheckoutExpired:   s.correlated(s.onCheckoutExpired),
		gateway.EventRefundSucceeded:   s.correlated(s.onRefundSucceeded),
		gateway.EventDisputeCreated:    s.correlated(s.onDisputeCreated),
		gateway.EventInvoice:           s.onInvoice,
		gateway.EventUnhandled:         s.onUnhandled,
	}
	return s
}

func (s *webhookService) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	ctx, span := obs.StartSpan(ctx, "webhook.handle")
	defer span.End()

	now := s.clock()
	if err := gateway.VerifySignature(signature, body, s.cfg.Secret, s.cfg.Tolerance, now); err != nil {
		s.log.Warn("Webhook signature rejected", zap.Error(err))
		return nil, apperror.Signature(err)
	}

	evt, err := gateway.ParseEvent(body)
	if err != nil {
		s.log.Warn("Webhook payload rejected", zap.Error(err))
		return nil, apperror.Validation("invalid event payload", nil)
	}
	span.SetAttributes(attribute.String("webhook.event_id", evt.ID), attribute.String("webhook.type", evt.Type))

	record := &entity.WebhookEvent{
		EventID:   evt.ID,
		EventType: evt.Type,
		Payload:   body,
	}
	return s.claimAndApply(ctx, evt, record, now)
}

func (s *webhookService) HandleNotification(ctx context.Context, req gateway.NotificationRequest) (*WebhookResult, error) {
	ctx, span := obs.StartSpan(ctx, "webhook.notification")
	defer span.End()

	if s.resolver == nil {
		return nil, apperror.NotFound("provider notifications are not enabled")
	}

	now := s.clock()
	n, err := gateway.ParseNotification(req.Body, req.DataID)
	if err != nil {
		s.log.Warn("Notification payload rejected", zap.Error(err))
		return nil, apperror.Validation("invalid notification payload", nil)
	}
	if err := gateway.VerifyNotificationSignature(req.Signature, req.RequestID, n.Data.ID, s.cfg.NotificationSecret, s.cfg.Tolerance, now); err != nil {
		s.log.Warn("Notification signature rejected", zap.Error(err))
		return nil, apperror.Signature(err)
	}
	span.SetAttributes(attribute.String("webhook.notification_type", n.Type), attribute.String("webhook.data_id", n.Data.ID))

	if n.Type != "payment" {
		s.log.Info("Notification topic acknowledged", zap.String("type", n.Type), zap.String("data_id", n.Data.ID))
		return &WebhookResult{EventID: n.Data.ID, Kind: string(gateway.EventUnhandled), Outcome: OutcomeIgnored}, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	evt, err := s.resolver.ResolveNotification(lookupCtx, n)
	cancel()
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidPayload) {
			return nil, apperror.Validation("invalid notification payload", nil)
		}
		// not readable yet or provider down; a non-2xx makes the provider retry
		s.log.Warn("Notification lookup failed", zap.Error(err), zap.String("data_id", n.Data.ID))
		return nil, apperror.Gateway(err)
	}

	// the resolved event is what gets stored, so replay needs no provider call
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, apperror.Server(err)
	}
	record := &entity.WebhookEvent{
		EventID:   evt.ID,
		EventType: evt.Type,
		Payload:   payload,
	}
	return s.claimAndApply(ctx, evt, record, now)
}

func (s *webhookService) ReplayPending(ctx context.Context, limit int) (*ReplayReport, error) {
	if limit <= 0 {
		limit = 100
	}

	now := s.clock()
	rows, err := s.repo.WebhookEvent.FindUnprocessed(ctx, now, limit)
	if err != nil {
		return nil, apperror.Server(err)
	}

	report := &ReplayReport{Scanned: len(rows)}
	for _, row := range rows {
		evt, err := gateway.ParseEvent(row.Payload)
		if err != nil {
			msg := "stored payload is not a valid event"
			if _, markErr := s.repo.WebhookEvent.MarkProcessed(ctx, row.EventID, &msg, now); markErr != nil {
				s.log.Error("Failed to close unparseable event", zap.Error(markErr), zap.String("event_id", row.EventID))
			}
			report.Failed++
			continue
		}

		res, err := s.claimAndApply(ctx, evt, row, now)
		if err != nil {
			report.Failed++
			continue
		}
		switch res.Outcome {
		case OutcomeProcessed:
			report.Processed++
		case OutcomeRejected:
			report.Rejected++
		case OutcomeIgnored:
			report.Ignored++
		case OutcomeDuplicate:
			report.Duplicates++
		case OutcomeDeferred:
			report.Deferred++
		}
	}

	s.log.Info("Webhook replay finished", zap.Any("report", report))
	return report, nil
}

func (s *webhookService) claimAndApply(ctx context.Context, evt *gateway.Event, record *entity.WebhookEvent, now time.Time) (*WebhookResult, error) {
	result := &WebhookResult{EventID: evt.ID, Kind: string(evt.Kind())}

	claim, err := s.repo.WebhookEvent.Claim(ctx, record, now, s.cfg.ClaimLease)
	if err != nil {
		return nil, apperror.Server(err)
	}
	switch claim {
	case repository.ClaimProcessed:
		s.log.Info("Duplicate webhook delivery", zap.String("event_id", evt.ID))
		result.Outcome = OutcomeDuplicate
		return result, nil
	case repository.ClaimInFlight:
		s.log.Info("Webhook event is being processed by another delivery", zap.String("event_id", evt.ID))
		return nil, apperror.Conflict("event is being processed", nil)
	}

	ec := &eventContext{evt: evt, now: now}
	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := s.handlerFor(evt.Kind())(ctx, tx, ec); err != nil {
			return err
		}
		var lastError *string
		if ec.rejected != "" {
			lastError = &ec.rejected
		}
		won, err := tx.WebhookEvent.MarkProcessed(ctx, evt.ID, lastError, now)
		if err != nil {
			return err
		}
		if !won {
			return errLostClaim
		}
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, errLostClaim):
		result.Outcome = OutcomeDuplicate
		return result, nil
	case errors.Is(err, errNotCorrelated):
		s.log.Warn("Webhook event not correlated, leaving for replay",
			zap.String("event_id", evt.ID),
			zap.String("type", evt.Type),
		)
		s.release(ctx, evt.ID, err)
		result.Outcome = OutcomeDeferred
		return result, nil
	default:
		s.log.Error("Failed to apply webhook event", zap.Error(err), zap.String("event_id", evt.ID))
		s.release(ctx, evt.ID, err)
		return nil, apperror.Server(err)
	}

	publishAll(ctx, s.pub, s.log, ec.outbox)

	switch {
	case ec.rejected != "":
		result.Outcome = OutcomeRejected
	case ec.ignored:
		result.Outcome = OutcomeIgnored
	default:
		result.Outcome = OutcomeProcessed
	}
	s.log.Info("Webhook event applied",
		zap.String("event_id", evt.ID),
		zap.String("type", evt.Type),
		zap.String("outcome", string(result.Outcome)),
	)
	return result, nil
}

func (s *webhookService) release(ctx context.Context, eventID string, cause error) {
	msg := cause.Error()
	if err := s.repo.WebhookEvent.Release(context.WithoutCancel(ctx), eventID, &msg); err != nil {
		s.log.Error("Failed to release webhook claim", zap.Error(err), zap.String("event_id", eventID))
	}
}

func (s *webhookService) handlerFor(kind gateway.EventKind) eventHandler {
	if h, ok := s.handlers[kind]; ok {
		return h
	}
	return s.onUnhandled
}

// correlated resolves the booking (row locked) and its payment before fn runs.
// The session id is the strongest key, then the transaction id, then the
// booking id from the session metadata.
func (s *webhookService) correlated(fn eventHandler) eventHandler {
	return func(ctx context.Context, tx *repository.Repository, ec *eventContext) error {
		data := ec.evt.Data

		var (
			payment *entity.Payment
			err     error
		)
		if data.SessionID != "" {
			if payment, err = tx.Payment.FindBySessionID(ctx, data.SessionID); err != nil {
				return err
			}
		}
		if payment == nil && data.TransactionID != "" {
			if payment, err = tx.Payment.FindByTxnID(ctx, data.TransactionID); err != nil {
				return err
			}
		}

		bookingID := data.BookingID
		if payment != nil {
			bookingID = &payment.BookingID
		}
		if bookingID == nil {
			return errNotCorrelated
		}

		booking, err := tx.Booking.LockByID(ctx, *bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return errNotCorrelated
		}
		// anything read before the lock may be stale by now
		if payment == nil {
			if payment, err = tx.Payment.FindByBookingID(ctx, booking.ID); err != nil {
				return err
			}
		}
		if payment != nil {
			if payment, err = tx.Payment.LockByID(ctx, payment.ID); err != nil {
				return err
			}
		}
		if payment == nil {
			return errNotCorrelated
		}

		ec.booking = booking
		ec.payment = payment
		return fn(ctx, tx, ec)
	}
}

// transition moves booking and payment together. A move the state machine
// does not allow is refused: nothing changes, the payment is flagged for
// review and an escalation is queued.
func (s *webhookService) transition(ctx context.Context, tx *repository.Repository, ec *eventContext,
	bookingTo entity.BookingStatus, paymentTo entity.PaymentStatus, mutate func(p *entity.Payment)) error {
	from := ec.booking.Status

	if !entity.CanTransition(from, bookingTo) {
		return s.reject(ctx, tx, ec, fmt.Sprintf("booking %s -> %s not allowed", from, bookingTo))
	}
	if !entity.CanTransitionPayment(ec.payment.Status, paymentTo) {
		return s.reject(ctx, tx, ec, fmt.Sprintf("payment %s -> %s not allowed", ec.payment.Status, paymentTo))
	}

	if from != bookingTo {
		if err := tx.Booking.UpdateStatus(ctx, ec.booking.ID, bookingTo); err != nil {
			return err
		}
		if bookingTo.IsTerminal() {
			if err := tx.Reservation.SetActiveByBooking(ctx, ec.booking.ID, false); err != nil {
				return err
			}
		}
		ec.outbox = append(ec.outbox, outboundEvent{
			key: KeyBookingStatusChanged,
			payload: StatusChangedEvent{
				BookingID:  ec.booking.ID,
				Reference:  ec.booking.Reference,
				From:       from,
				To:         bookingTo,
				Cause:      ec.evt.Type,
				OccurredAt: ec.now,
			},
		})
		ec.booking.Status = bookingTo
	}

	ec.payment.Status = paymentTo
	if mutate != nil {
		mutate(ec.payment)
	}
	ec.payment.UpdatedAt = ec.now
	return tx.Payment.Update(ctx, ec.payment)
}

func (s *webhookService) reject(ctx context.Context, tx *repository.Repository, ec *eventContext, reason string) error {
	s.log.Warn("Webhook transition rejected",
		zap.String("event_id", ec.evt.ID),
		zap.String("booking_id", ec.booking.ID.String()),
		zap.String("reason", reason),
	)

	ec.rejected = reason
	s.flag(ec, fmt.Sprintf("%s: %s", ec.evt.Type, reason))
	ec.outbox = append(ec.outbox, escalation(s.escalationFor(ec, "invalid_transition", reason)))
	return tx.Payment.Update(ctx, ec.payment)
}

func (s *webhookService) flag(ec *eventContext, reason string) {
	ec.payment.ReviewRequired = true
	ec.payment.ReviewReason = &reason
	ec.payment.UpdatedAt = ec.now
}

func (s *webhookService) escalationFor(ec *eventContext, kind, reason string) EscalationEvent {
	bookingID, paymentID := ec.booking.ID, ec.payment.ID
	e := EscalationEvent{
		Kind:       kind,
		BookingID:  &bookingID,
		PaymentID:  &paymentID,
		EventID:    ec.evt.ID,
		Reason:     reason,
		OccurredAt: ec.now,
	}
	if ec.payment.GatewayTxnID != nil {
		e.GatewayTxnID = *ec.payment.GatewayTxnID
	}
	return e
}

func (s *webhookService) paidAt(ec *eventContext) *time.Time {
	at := ec.evt.CreatedAt()
	if at.IsZero() {
		at = ec.now
	}
	return &at
}

func (s *webhookService) onCheckoutCompleted(ctx context.Context, tx *repository.Repository, ec *eventContext) error {
	// payment.succeeded may overtake checkout.completed
	if ec.booking.Status == entity.BookingStatusPaid {
		ec.ignored = true
		return nil
	}
	return s.transition(ctx, tx, ec, entity.BookingStatusConfirmed, entity.PaymentStatusCompleted, func(p *entity.Payment) {
		if p.PaymentDate == nil {
			p.PaymentDate = s.paidAt(ec)
		}
		if p.GatewayTxnID == nil && ec.evt.Data.TransactionID != "" {
			txn := ec.evt.Data.TransactionID
			p.GatewayTxnID = &txn
		}
	})
}

func (s *webhookService) onPaymentSucceeded(ctx context.Context, tx *repository.Repository, ec *eventContext) error {
	data := ec.evt.Data
	return s.transition(ctx, tx, ec, entity.BookingStatusPaid, entity.PaymentStatusCompleted, func(p *entity.Payment) {
		if data.TransactionID != "" {
			txn := data.TransactionID
			p.GatewayTxnID = &txn
		}
		if p.PaymentDate == nil {
			p.PaymentDate = s.paidAt(ec)
		}
		if data.Amount != nil && *data.Amount != p.Amount {
			reason := fmt.Sprintf("gateway amount %d differs from booked amount %d", *data.Amount, p.Amount)
			s.flag(ec, reason)
			ec.outbox = append(ec.outbox, escalation(s.escalationFor(ec, "amount_mismatch", reason)))
		}
	})
}

func (s *webhookService) onPaymentFailed(ctx context.Context, tx *repository.Repository, ec *eventContext) error {
	reason := ec.evt.Data.FailureReason
	if reason == "" {
		reason = "payment failed"
	}
	return s.transition(ctx, tx, ec, entity.BookingStatusCancelled, entity.PaymentStatusFailed, func(p *entity.Payment) {
		p.FailureReason = &reason
	})
}

func (s *webhookService) onCheckoutExpired(ctx context.Context, tx *repository.Repository, ec *eventContext) error {
	reason := reasonSessionExpired
	return s.transition(ctx, tx, ec, entity.BookingStatusCancelled, entity.PaymentStatusFailed, func(p *entity.Payment) {
		p.FailureReason = &reason
	})
}

func (s *webhookService) onRefundSucceeded(ctx context.Context, tx *repository.Repository, ec *eventContext) error {
	refunded := ec.payment.Amount
	if ec.evt.Data.RefundedAmount != nil {
		refunded = *ec.evt.Data.RefundedAmount
	}
	if refunded < ec.payment.Amount {
		return s.onPartialRefund(ctx, tx, ec, refunded)
	}
	return s.transition(ctx, tx, ec, entity.BookingStatusRefunded, entity.PaymentStatusRefunded, func(p *entity.Payment) {
		p.RefundedAmount = refunded
	})
}

// onPartialRefund keeps the booking and records the running refunded total.
// Totals arrive cumulative, so a smaller one is an out-of-order delivery.
func (s *webhookService) onPartialRefund(ctx context.Context, tx *repository.Repository, ec *eventContext, refunded int64) error {
	if ec.payment.Status != entity.PaymentStatusCompleted {
		return s.reject(ctx, tx, ec, fmt.Sprintf("partial refund on %s payment", ec.payment.Status))
	}
	if refunded <= ec.payment.RefundedAmount {
		ec.ignored = true
		return nil
	}
	ec.payment.RefundedAmount = refunded
	ec.payment.UpdatedAt = ec.now
	return tx.Payment.Update(ctx, ec.payment)
}

func (s *webhookService) onDisputeCreated(ctx context.Context, tx *repository.Repository, ec *eventContext) error {
	reason := ec.evt.Data.Reason
	if reason == "" {
		reason = "dispute opened"
	}
	s.flag(ec, "dispute: "+reason)
	ec.outbox = append(ec.outbox, escalation(s.escalationFor(ec, "dispute", reason)))
	return tx.Payment.Update(ctx, ec.payment)
}

func (s *webhookService) onInvoice(_ context.Context, _ *repository.Repository, ec *eventContext) error {
	s.log.Info("Invoice event received", zap.String("event_id", ec.evt.ID), zap.String("type", ec.evt.Type))
	ec.ignored = true
	return nil
}

func (s *webhookService) onUnhandled(_ context.Context, _ *repository.Repository, ec *eventContext) error {
	s.log.Info("Unhandled event type acknowledged", zap.String("event_id", ec.evt.ID), zap.String("type", ec.evt.Type))
	ec.ignored = true
	return nil
}
