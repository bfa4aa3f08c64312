package repository

import (
	"context"
	"fmt"
	"time"

	"booking-engine/internal/data/entity"
	"booking-engine/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	// FindByBookingID returns the most recent payment of the booking.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	FindBySessionID(ctx context.Context, sessionID string) (*entity.Payment, error)
	FindByTxnID(ctx context.Context, txnID string) (*entity.Payment, error)
	// LockByID reads the payment with a row lock held until the transaction ends.
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	// Update writes every mutable column of the payment.
	Update(ctx context.Context, payment *entity.Payment) error
	// ApplyCorrection overwrites the settlement figures only while the row
	// still matches what was compared. It reports false when the row moved on.
	ApplyCorrection(ctx context.Context, c PaymentCorrection) (bool, error)

	// Reconciliation
	ListForReconciliation(ctx context.Context, from, to time.Time, limit int) ([]*entity.Payment, error)
	KnownTxnIDs(ctx context.Context, txnIDs []string) (map[string]bool, error)
}

// PaymentFigures are the columns reconciliation compares against the gateway.
type PaymentFigures struct {
	Amount         int64
	Status         entity.PaymentStatus
	RefundedAmount int64
}

type PaymentCorrection struct {
	PaymentID uuid.UUID
	// Seen is the row as it was compared; SeenAt its updated_at.
	Seen      PaymentFigures
	SeenAt    time.Time
	Corrected PaymentFigures
	At        time.Time
}

type paymentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentRepository(db database.Querier, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `
	id, booking_id, amount, currency, status, gateway_session_id, gateway_txn_id, refunded_amount,
	failure_reason, payment_date, review_required, review_reason, created_at, updated_at
`

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.GatewaySessionID,
		&p.GatewayTxnID,
		&p.RefundedAmount,
		&p.FailureReason,
		&p.PaymentDate,
		&p.ReviewRequired,
		&p.ReviewReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, amount, currency, status, gateway_session_id, gateway_txn_id,
			refunded_amount, failure_reason, payment_date, review_required, review_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.GatewaySessionID,
		payment.GatewayTxnID,
		payment.RefundedAmount,
		payment.FailureReason,
		payment.PaymentDate,
		payment.ReviewRequired,
		payment.ReviewReason,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return fmt.Errorf("create payment for booking %s: %w", payment.BookingID, err)
	}

	return nil
}

func (r *paymentRepository) findOne(ctx context.Context, op, where string, arg any) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + where + ` ORDER BY created_at DESC LIMIT 1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, arg))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment", zap.String("op", op), zap.Error(err), zap.Any("key", arg))
		return nil, fmt.Errorf("%s %v: %w", op, arg, err)
	}
	return payment, nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return r.findOne(ctx, "find payment by ID", "id = $1", id)
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	return r.findOne(ctx, "find payment by booking ID", "booking_id = $1", bookingID)
}

func (r *paymentRepository) FindBySessionID(ctx context.Context, sessionID string) (*entity.Payment, error) {
	return r.findOne(ctx, "find payment by session ID", "gateway_session_id = $1", sessionID)
}

func (r *paymentRepository) FindByTxnID(ctx context.Context, txnID string) (*entity.Payment, error) {
	return r.findOne(ctx, "find payment by transaction ID", "gateway_txn_id = $1", txnID)
}

func (r *paymentRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to lock payment", zap.Error(err), zap.String("payment_id", id.String()))
		return nil, fmt.Errorf("lock payment %s: %w", id, err)
	}
	return payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	query := `
		UPDATE payments SET
			amount = $1,
			status = $2,
			gateway_txn_id = $3,
			refunded_amount = $4,
			failure_reason = $5,
			payment_date = $6,
			review_required = $7,
			review_reason = $8,
			updated_at = $9
		WHERE id = $10
	`

	tag, err := r.db.Exec(ctx, query,
		payment.Amount,
		payment.Status,
		payment.GatewayTxnID,
		payment.RefundedAmount,
		payment.FailureReason,
		payment.PaymentDate,
		payment.ReviewRequired,
		payment.ReviewReason,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		r.log.Error("Failed to update payment", zap.Error(err), zap.String("payment_id", payment.ID.String()))
		return fmt.Errorf("update payment %s: %w", payment.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update payment %s: %w", payment.ID, pgx.ErrNoRows)
	}

	return nil
}

func (r *paymentRepository) ApplyCorrection(ctx context.Context, c PaymentCorrection) (bool, error) {
	query := `
		UPDATE payments SET
			amount = $1,
			status = $2,
			refunded_amount = $3,
			updated_at = $4
		WHERE id = $5
			AND amount = $6
			AND status = $7
			AND refunded_amount = $8
			AND updated_at = $9
	`

	tag, err := r.db.Exec(ctx, query,
		c.Corrected.Amount,
		c.Corrected.Status,
		c.Corrected.RefundedAmount,
		c.At,
		c.PaymentID,
		c.Seen.Amount,
		c.Seen.Status,
		c.Seen.RefundedAmount,
		c.SeenAt,
	)
	if err != nil {
		r.log.Error("Failed to correct payment", zap.Error(err), zap.String("payment_id", c.PaymentID.String()))
		return false, fmt.Errorf("correct payment %s: %w", c.PaymentID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepository) ListForReconciliation(ctx context.Context, from, to time.Time, limit int) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE created_at >= $1 AND created_at < $2 AND gateway_txn_id IS NOT NULL
		ORDER BY created_at, id
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, from, to, limit)
	if err != nil {
		r.log.Error("Failed to list payments for reconciliation", zap.Error(err))
		return nil, fmt.Errorf("list payments for reconciliation: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment rows: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) KnownTxnIDs(ctx context.Context, txnIDs []string) (map[string]bool, error) {
	known := make(map[string]bool, len(txnIDs))
	if len(txnIDs) == 0 {
		return known, nil
	}

	rows, err := r.db.Query(ctx, `SELECT gateway_txn_id FROM payments WHERE gateway_txn_id = ANY($1)`, txnIDs)
	if err != nil {
		r.log.Error("Failed to look up transaction IDs", zap.Error(err))
		return nil, fmt.Errorf("look up transaction IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan transaction ID: %w", err)
		}
		known[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transaction ID rows: %w", err)
	}
	return known, nil
}
