package repository

import (
	"context"
	"fmt"

	"booking-engine/internal/data/entity"
	"booking-engine/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PromoRepository interface {
	FindByCode(ctx context.Context, code string) (*entity.PromoCode, error)
	// IncrementUsage consumes one use; false when the code is inactive or exhausted.
	IncrementUsage(ctx context.Context, code string) (bool, error)
	DecrementUsage(ctx context.Context, code string) error

	Apply(ctx context.Context, app *entity.PromoApplication) error
	FindApplicationByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.PromoApplication, error)
}

type promoRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPromoRepository(db database.Querier, log *zap.Logger) PromoRepository {
	return &promoRepository{
		db:  db,
		log: log.With(zap.String("repository", "promo")),
	}
}

func (r *promoRepository) FindByCode(ctx context.Context, code string) (*entity.PromoCode, error) {
	query := `
		SELECT code, kind, value, valid_from, valid_to, max_uses, used_count, active
		FROM promo_codes
		WHERE code = upper($1)
	`

	var p entity.PromoCode
	err := r.db.QueryRow(ctx, query, code).Scan(
		&p.Code, &p.Kind, &p.Value, &p.ValidFrom, &p.ValidTo, &p.MaxUses, &p.UsedCount, &p.Active,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find promo code", zap.Error(err), zap.String("code", code))
		return nil, fmt.Errorf("find promo code %s: %w", code, err)
	}

	return &p, nil
}

func (r *promoRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	query := `
		UPDATE promo_codes
		SET used_count = used_count + 1
		WHERE code = upper($1) AND active AND (max_uses IS NULL OR used_count < max_uses)
	`

	tag, err := r.db.Exec(ctx, query, code)
	if err != nil {
		r.log.Error("Failed to increment promo usage", zap.Error(err), zap.String("code", code))
		return false, fmt.Errorf("increment promo usage %s: %w", code, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *promoRepository) DecrementUsage(ctx context.Context, code string) error {
	query := `UPDATE promo_codes SET used_count = GREATEST(used_count - 1, 0) WHERE code = upper($1)`

	if _, err := r.db.Exec(ctx, query, code); err != nil {
		r.log.Error("Failed to decrement promo usage", zap.Error(err), zap.String("code", code))
		return fmt.Errorf("decrement promo usage %s: %w", code, err)
	}
	return nil
}

func (r *promoRepository) Apply(ctx context.Context, app *entity.PromoApplication) error {
	query := `
		INSERT INTO promo_applications (id, booking_id, promo_code, kind, value, discount_amount, created_at)
		VALUES ($1, $2, upper($3), $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		app.ID, app.BookingID, app.PromoCode, app.Kind, app.Value, app.DiscountAmount, app.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to apply promo code",
			zap.Error(err),
			zap.String("booking_id", app.BookingID.String()),
			zap.String("code", app.PromoCode),
		)
		return fmt.Errorf("apply promo %s to booking %s: %w", app.PromoCode, app.BookingID, err)
	}
	return nil
}

func (r *promoRepository) FindApplicationByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.PromoApplication, error) {
	query := `
		SELECT id, booking_id, promo_code, kind, value, discount_amount, created_at
		FROM promo_applications
		WHERE booking_id = $1
	`

	var a entity.PromoApplication
	err := r.db.QueryRow(ctx, query, bookingID).Scan(
		&a.ID, &a.BookingID, &a.PromoCode, &a.Kind, &a.Value, &a.DiscountAmount, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find promo application", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, fmt.Errorf("find promo application for booking %s: %w", bookingID, err)
	}

	return &a, nil
}
