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

// CatalogRepository reads the sellable inventory. The engine never writes it.
type CatalogRepository interface {
	FindRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error)
	FindBed(ctx context.Context, id uuid.UUID) (*entity.Bed, error)
	FindCampSession(ctx context.Context, id uuid.UUID) (*entity.CampSession, error)
	FindAddOn(ctx context.Context, id uuid.UUID) (*entity.AddOn, error)

	// LockRooms takes row locks on the rooms until the transaction ends.
	LockRooms(ctx context.Context, ids []uuid.UUID) error
	// LockCampSessions locks every session of the camps the given sessions belong to.
	LockCampSessions(ctx context.Context, ids []uuid.UUID) error
}

type catalogRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewCatalogRepository(db database.Querier, log *zap.Logger) CatalogRepository {
	return &catalogRepository{
		db:  db,
		log: log.With(zap.String("repository", "catalog")),
	}
}

func (r *catalogRepository) FindRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	query := `
		SELECT id, name, nightly_rate, base_occupancy, max_occupancy, extra_guest_fee, rate_modifier_bps, active
		FROM rooms
		WHERE id = $1
	`

	var room entity.Room
	err := r.db.QueryRow(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.NightlyRate,
		&room.BaseOccupancy,
		&room.MaxOccupancy,
		&room.ExtraGuestFee,
		&room.RateModifierBps,
		&room.Active,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find room", zap.Error(err), zap.String("room_id", id.String()))
		return nil, fmt.Errorf("find room %s: %w", id, err)
	}

	return &room, nil
}

func (r *catalogRepository) FindBed(ctx context.Context, id uuid.UUID) (*entity.Bed, error) {
	query := `SELECT id, room_id, label, nightly_rate FROM beds WHERE id = $1`

	var bed entity.Bed
	err := r.db.QueryRow(ctx, query, id).Scan(&bed.ID, &bed.RoomID, &bed.Label, &bed.NightlyRate)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find bed", zap.Error(err), zap.String("bed_id", id.String()))
		return nil, fmt.Errorf("find bed %s: %w", id, err)
	}

	return &bed, nil
}

func (r *catalogRepository) FindCampSession(ctx context.Context, id uuid.UUID) (*entity.CampSession, error) {
	query := `
		SELECT id, camp_id, name, start_date, end_date, capacity, price_per_guest
		FROM camp_sessions
		WHERE id = $1
	`

	var s entity.CampSession
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CampID, &s.Name, &s.StartDate, &s.EndDate, &s.Capacity, &s.PricePerGuest,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find camp session", zap.Error(err), zap.String("camp_session_id", id.String()))
		return nil, fmt.Errorf("find camp session %s: %w", id, err)
	}

	return &s, nil
}

func (r *catalogRepository) FindAddOn(ctx context.Context, id uuid.UUID) (*entity.AddOn, error) {
	query := `SELECT id, name, unit_price, per_night, active FROM add_ons WHERE id = $1`

	var a entity.AddOn
	err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.UnitPrice, &a.PerNight, &a.Active)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find add-on", zap.Error(err), zap.String("add_on_id", id.String()))
		return nil, fmt.Errorf("find add-on %s: %w", id, err)
	}

	return &a, nil
}

func (r *catalogRepository) LockRooms(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	// fixed lock order keeps concurrent checkouts from deadlocking
	query := `SELECT id FROM rooms WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	return r.lock(ctx, "rooms", query, ids)
}

func (r *catalogRepository) LockCampSessions(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		SELECT id FROM camp_sessions
		WHERE camp_id IN (SELECT camp_id FROM camp_sessions WHERE id = ANY($1))
		ORDER BY id
		FOR UPDATE
	`
	return r.lock(ctx, "camp sessions", query, ids)
}

func (r *catalogRepository) lock(ctx context.Context, what, query string, ids []uuid.UUID) error {
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to lock rows", zap.String("table", what), zap.Error(err))
		return fmt.Errorf("lock %s: %w", what, err)
	}
	defer rows.Close()

	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock %s: %w", what, err)
	}
	return nil
}
