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

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	// LockByID reads the booking with a row lock held until the transaction ends.
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error
	SetSession(ctx context.Context, id uuid.UUID, sessionID string, expiresAt time.Time) error
	// Delete removes the booking and, by cascade, every child row.
	Delete(ctx context.Context, id uuid.UUID) error

	// Business queries
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
	List(ctx context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error)
	Count(ctx context.Context, status *entity.BookingStatus) (int64, error)
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `
	id, reference, customer_id, status, subtotal, discount_total, tax_total, total_amount, currency,
	check_in, check_out, gateway_session_id, session_expires_at, created_at, updated_at
`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.CustomerID,
		&b.Status,
		&b.Subtotal,
		&b.DiscountTotal,
		&b.TaxTotal,
		&b.TotalAmount,
		&b.Currency,
		&b.CheckIn,
		&b.CheckOut,
		&b.GatewaySessionID,
		&b.SessionExpiresAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, reference, customer_id, status, subtotal, discount_total, tax_total, total_amount,
			currency, check_in, check_out, gateway_session_id, session_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.Reference,
		booking.CustomerID,
		booking.Status,
		booking.Subtotal,
		booking.DiscountTotal,
		booking.TaxTotal,
		booking.TotalAmount,
		booking.Currency,
		booking.CheckIn,
		booking.CheckOut,
		booking.GatewaySessionID,
		booking.SessionExpiresAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("reference", booking.Reference),
			zap.String("customer_id", booking.CustomerID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.Reference, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID", zap.Error(err), zap.String("booking_id", id.String()))
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}

	return booking, nil
}

func (r *bookingRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to lock booking", zap.Error(err), zap.String("booking_id", id.String()))
		return nil, fmt.Errorf("lock booking %s: %w", id, err)
	}

	return booking, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update booking status %s: %w", id, pgx.ErrNoRows)
	}

	return nil
}

func (r *bookingRepository) SetSession(ctx context.Context, id uuid.UUID, sessionID string, expiresAt time.Time) error {
	query := `
		UPDATE bookings
		SET gateway_session_id = $1, session_expires_at = $2, updated_at = now()
		WHERE id = $3
	`

	tag, err := r.db.Exec(ctx, query, sessionID, expiresAt, id)
	if err != nil {
		r.log.Error("Failed to set booking session", zap.Error(err), zap.String("booking_id", id.String()))
		return fmt.Errorf("set session for booking %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set session for booking %s: %w", id, pgx.ErrNoRows)
	}

	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		r.log.Error("Failed to delete booking", zap.Error(err), zap.String("booking_id", id.String()))
		return fmt.Errorf("delete booking %s: %w", id, err)
	}
	return nil
}

func (r *bookingRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status IN ('draft', 'pending_payment') AND session_expires_at < $1
		ORDER BY session_expires_at
		LIMIT $2
	`

	return r.queryList(ctx, "find expired bookings", query, now, limit)
}

func (r *bookingRepository) List(ctx context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryList(ctx, "list bookings", query, status, limit, offset)
}

func (r *bookingRepository) Count(ctx context.Context, status *entity.BookingStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE ($1::text IS NULL OR status = $1)`

	var total int64
	if err := r.db.QueryRow(ctx, query, status).Scan(&total); err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return total, nil
}

func (r *bookingRepository) queryList(ctx context.Context, op, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query bookings", zap.String("op", op), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking", zap.Error(err))
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}

	return bookings, nil
}
