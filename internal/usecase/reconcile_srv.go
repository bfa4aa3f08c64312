package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"booking-engine/internal/data/entity"
	"booking-engine/internal/data/repository"
	"booking-engine/internal/gateway"
	"booking-engine/pkg/apperror"
	"booking-engine/pkg/mq"
	"booking-engine/pkg/obs"
	"booking-engine/pkg/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

//go:generate mockgen -source=reconcile_srv.go -destination=mocks/mock_reconcile_srv.go -package=mocks

const AuditActionReconciliation = "reconciliation.run"

type DiscrepancyClass string

const (
	ClassMissingPayment  DiscrepancyClass = "missing_payment"
	ClassAmountMismatch  DiscrepancyClass = "amount_mismatch"
	ClassStatusMismatch  DiscrepancyClass = "status_mismatch"
	ClassRefundMismatch  DiscrepancyClass = "refund_mismatch"
	ClassOrphanedPayment DiscrepancyClass = "orphaned_gateway_payment"
	ClassLookupFailed    DiscrepancyClass = "lookup_failed"
)

type ReconcileParams struct {
	DateFrom    time.Time
	DateTo      time.Time
	Limit       int
	AutoCorrect bool
	Actor       string
}

type Discrepancy struct {
	Class        DiscrepancyClass `json:"class"`
	PaymentID    *uuid.UUID       `json:"payment_id,omitempty"`
	BookingID    *uuid.UUID       `json:"booking_id,omitempty"`
	GatewayTxnID string           `json:"gateway_txn_id,omitempty"`
	Local        string           `json:"local,omitempty"`
	Gateway      string           `json:"gateway,omitempty"`
	Detail       string           `json:"detail,omitempty"`
	Corrected    bool             `json:"corrected"`
	Escalated    bool             `json:"escalated"`
}

type ReconcileReport struct {
	RunID         uuid.UUID     `json:"run_id"`
	DateFrom      time.Time     `json:"date_from"`
	DateTo        time.Time     `json:"date_to"`
	AutoCorrect   bool          `json:"auto_correct"`
	Checked       int           `json:"checked"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	Corrected     int           `json:"corrected"`
	Escalated     int           `json:"escalated"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
}

// Counts tallies discrepancies per class.
func (r *ReconcileReport) Counts() map[DiscrepancyClass]int {
	counts := make(map[DiscrepancyClass]int)
	for _, d := range r.Discrepancies {
		counts[d.Class]++
	}
	return counts
}

type ReconcileService interface {
	Reconcile(ctx context.Context, params ReconcileParams) (*ReconcileReport, error)
}

type reconcileService struct {
	repo    *repository.Repository
	cfg     utils.ReconcileConfig
	timeout time.Duration
	gw      gateway.Gateway
	pub     mq.EventPublisher
	clock   func() time.Time
	log     *zap.Logger
}

func NewReconcileService(repo *repository.Repository, cfg utils.ReconcileConfig, timeout time.Duration, deps Deps, log *zap.Logger) ReconcileService {
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 500
	}
	if cfg.AmountTolerance < 0 {
		cfg.AmountTolerance = 0
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &reconcileService{
		repo:    repo,
		cfg:     cfg,
		timeout: timeout,
		gw:      deps.Gateway,
		pub:     deps.Publisher,
		clock:   deps.Clock,
		log:     log.With(zap.String("service", "reconcile")),
	}
}

func (s *reconcileService) Reconcile(ctx context.Context, params ReconcileParams) (report *ReconcileReport, err error) {
	ctx, span := obs.StartSpan(ctx, "reconcile.run")
	defer span.End()

	if !params.DateTo.After(params.DateFrom) {
		return nil, apperror.Validation("date_to must be after date_from", map[string]string{"date_to": "Must be after date_from"})
	}
	limit := params.Limit
	if limit <= 0 || limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	actor := params.Actor
	if actor == "" {
		actor = "system"
	}

	report = &ReconcileReport{
		RunID:         utils.GenerateUUID(),
		DateFrom:      params.DateFrom,
		DateTo:        params.DateTo,
		AutoCorrect:   params.AutoCorrect,
		Discrepancies: []Discrepancy{},
		StartedAt:     s.clock(),
	}

	// every run is audited, including failed ones
	defer func() {
		report.FinishedAt = s.clock()
		s.audit(ctx, actor, report, err)
	}()

	payments, err := s.repo.Payment.ListForReconciliation(ctx, params.DateFrom, params.DateTo, limit)
	if err != nil {
		s.log.Error("Failed to list payments for reconciliation", zap.Error(err))
		return report, apperror.Server(err)
	}

	var escalations []outboundEvent
	for _, p := range payments {
		report.Checked++
		found := s.compare(ctx, p, params.AutoCorrect)
		for i := range found {
			if found[i].Escalated {
				escalations = append(escalations, escalation(EscalationEvent{
					Kind:         "reconciliation." + string(found[i].Class),
					BookingID:    found[i].BookingID,
					PaymentID:    found[i].PaymentID,
					GatewayTxnID: found[i].GatewayTxnID,
					Reason:       found[i].Detail,
					OccurredAt:   s.clock(),
				}))
			}
		}
		report.Discrepancies = append(report.Discrepancies, found...)
	}

	report.Discrepancies = append(report.Discrepancies, s.orphans(ctx, params.DateFrom, params.DateTo, limit)...)

	for _, d := range report.Discrepancies {
		if d.Corrected {
			report.Corrected++
		}
		if d.Escalated {
			report.Escalated++
		}
	}

	publishAll(ctx, s.pub, s.log, escalations)

	span.SetAttributes(
		attribute.Int("reconcile.checked", report.Checked),
		attribute.Int("reconcile.discrepancies", len(report.Discrepancies)),
	)
	s.log.Info("Reconciliation finished",
		zap.String("run_id", report.RunID.String()),
		zap.Int("checked", report.Checked),
		zap.Int("discrepancies", len(report.Discrepancies)),
		zap.Int("corrected", report.Corrected),
	)
	return report, nil
}

// compare looks one payment up at the gateway. A correction only ever
// touches the payment row.
func (s *reconcileService) compare(ctx context.Context, p *entity.Payment, autoCorrect bool) []Discrepancy {
	paymentID, bookingID := p.ID, p.BookingID
	txnID := *p.GatewayTxnID
	base := Discrepancy{PaymentID: &paymentID, BookingID: &bookingID, GatewayTxnID: txnID}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	info, err := s.gw.GetPayment(lookupCtx, txnID)
	cancel()

	if errors.Is(err, gateway.ErrPaymentNotFound) {
		d := base
		d.Class = ClassMissingPayment
		d.Local = string(p.Status)
		d.Detail = "transaction not found at gateway"
		d.Escalated = true
		return []Discrepancy{d}
	}
	if err != nil {
		s.log.Warn("Gateway lookup failed", zap.Error(err), zap.String("txn_id", txnID))
		d := base
		d.Class = ClassLookupFailed
		d.Detail = err.Error()
		d.Escalated = true
		return []Discrepancy{d}
	}

	seen := repository.PaymentFigures{Amount: p.Amount, Status: p.Status, RefundedAmount: p.RefundedAmount}
	var (
		found   []Discrepancy
		fixed   = seen
		changed bool
	)

	if diff := info.Amount - p.Amount; diff > s.cfg.AmountTolerance || -diff > s.cfg.AmountTolerance {
		d := base
		d.Class = ClassAmountMismatch
		d.Local = strconv.FormatInt(p.Amount, 10)
		d.Gateway = strconv.FormatInt(info.Amount, 10)
		found = append(found, d)
		fixed.Amount = info.Amount
		changed = true
	}

	status, ok := gateway.TranslateStatus(info.Status)
	switch {
	case !ok:
		d := base
		d.Class = ClassStatusMismatch
		d.Local = string(p.Status)
		d.Gateway = info.Status
		d.Detail = fmt.Sprintf("gateway status %q has no local equivalent", info.Status)
		d.Escalated = true
		found = append(found, d)
	case status != p.Status:
		d := base
		d.Class = ClassStatusMismatch
		d.Local = string(p.Status)
		d.Gateway = string(status)
		found = append(found, d)
		fixed.Status = status
		changed = true
	}

	if info.RefundedAmount != p.RefundedAmount {
		d := base
		d.Class = ClassRefundMismatch
		d.Local = strconv.FormatInt(p.RefundedAmount, 10)
		d.Gateway = strconv.FormatInt(info.RefundedAmount, 10)
		found = append(found, d)
		fixed.RefundedAmount = info.RefundedAmount
		changed = true
	}

	if !autoCorrect || !changed {
		return found
	}

	applied, err := s.repo.Payment.ApplyCorrection(ctx, repository.PaymentCorrection{
		PaymentID: p.ID,
		Seen:      seen,
		SeenAt:    p.UpdatedAt,
		Corrected: fixed,
		At:        s.clock(),
	})
	if err != nil {
		s.log.Error("Failed to apply reconciliation correction", zap.Error(err), zap.String("payment_id", p.ID.String()))
		return found
	}
	if !applied {
		// a webhook got there first; the next run compares the new row
		s.log.Info("Payment changed during reconciliation, correction skipped", zap.String("payment_id", p.ID.String()))
		for i := range found {
			if found[i].Detail == "" {
				found[i].Detail = "payment changed during sweep, not corrected"
			}
		}
		return found
	}
	for i := range found {
		if !found[i].Escalated {
			found[i].Corrected = true
		}
	}
	return found
}

// orphans lists gateway transactions in the window that no local payment knows.
func (s *reconcileService) orphans(ctx context.Context, from, to time.Time, limit int) []Discrepancy {
	searchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	remote, err := s.gw.SearchPayments(searchCtx, from, to, limit)
	cancel()
	if err != nil {
		s.log.Warn("Gateway search failed", zap.Error(err))
		return []Discrepancy{{Class: ClassLookupFailed, Detail: "gateway search failed: " + err.Error(), Escalated: true}}
	}
	if len(remote) == 0 {
		return nil
	}

	ids := make([]string, 0, len(remote))
	for _, r := range remote {
		ids = append(ids, r.TxnID)
	}
	known, err := s.repo.Payment.KnownTxnIDs(ctx, ids)
	if err != nil {
		s.log.Error("Failed to match gateway transactions", zap.Error(err))
		return []Discrepancy{{Class: ClassLookupFailed, Detail: "local transaction lookup failed", Escalated: true}}
	}

	var out []Discrepancy
	for _, r := range remote {
		if known[r.TxnID] {
			continue
		}
		out = append(out, Discrepancy{
			Class:        ClassOrphanedPayment,
			GatewayTxnID: r.TxnID,
			Gateway:      fmt.Sprintf("%s %s %s", r.Status, utils.FormatMinor(r.Amount), r.Currency),
			Detail:       "external reference " + r.ExternalReference,
		})
	}
	return out
}

func (s *reconcileService) audit(ctx context.Context, actor string, report *ReconcileReport, runErr error) {
	outcome := entity.AuditOutcomeSuccess
	details := map[string]any{
		"run_id":       report.RunID.String(),
		"date_from":    report.DateFrom,
		"date_to":      report.DateTo,
		"auto_correct": report.AutoCorrect,
		"checked":      report.Checked,
		"corrected":    report.Corrected,
		"escalated":    report.Escalated,
		"counts":       report.Counts(),
	}
	if runErr != nil {
		outcome = entity.AuditOutcomeFailure
		details["error"] = runErr.Error()
	}

	entry := &entity.AuditLog{
		BaseSimple: entity.BaseSimple{ID: utils.GenerateUUID(), CreatedAt: s.clock()},
		Action:     AuditActionReconciliation,
		Actor:      actor,
		Outcome:    outcome,
		Details:    details,
	}
	if err := s.repo.AuditLog.Append(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error("Failed to append reconciliation audit entry", zap.Error(err))
	}
}
