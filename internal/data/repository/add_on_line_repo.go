package repository

import (
	"context"
	"fmt"

	"booking-engine/internal/data/entity"
	"booking-engine/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AddOnLineRepository interface {
	CreateBatch(ctx context.Context, lines []*entity.AddOnLine) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.AddOnLine, error)
}

type addOnLineRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewAddOnLineRepository(db database.Querier, log *zap.Logger) AddOnLineRepository {
	return &addOnLineRepository{
		db:  db,
		log: log.With(zap.String("repository", "add_on_line")),
	}
}

func (r *addOnLineRepository) CreateBatch(ctx context.Context, lines []*entity.AddOnLine) error {
	query := `
		INSERT INTO add_on_lines (id, booking_id, add_on_id, quantity, unit_price, line_total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, line := range lines {
		_, err := r.db.Exec(ctx, query,
			line.ID, line.BookingID, line.AddOnID, line.Quantity, line.UnitPrice, line.LineTotal, line.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to create add-on line",
				zap.Error(err),
				zap.String("booking_id", line.BookingID.String()),
				zap.String("add_on_id", line.AddOnID.String()),
			)
			return fmt.Errorf("create add-on line for booking %s: %w", line.BookingID, err)
		}
	}

	return nil
}

func (r *addOnLineRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.AddOnLine, error) {
	query := `
		SELECT id, booking_id, add_on_id, quantity, unit_price, line_total, created_at
		FROM add_on_lines
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find add-on lines", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, fmt.Errorf("find add-on lines for booking %s: %w", bookingID, err)
	}
	defer rows.Close()

	var lines []*entity.AddOnLine
	for rows.Next() {
		var l entity.AddOnLine
		if err := rows.Scan(&l.ID, &l.BookingID, &l.AddOnID, &l.Quantity, &l.UnitPrice, &l.LineTotal, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan add-on line: %w", err)
		}
		lines = append(lines, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("add-on line rows: %w", err)
	}
	return lines, nil
}
