package repository

import (
	"context"
	"fmt"

	"booking-engine/internal/data/entity"
	"booking-engine/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReservationRepository interface {
	CreateRoomReservation(ctx context.Context, res *entity.RoomReservation) error
	CreateCampRegistration(ctx context.Context, reg *entity.CampRegistration) error

	// FindOverlappingRooms returns active reservations in the room (whole-room
	// and bed level) whose range overlaps rng, skipping excludeBooking.
	FindOverlappingRooms(ctx context.Context, roomID uuid.UUID, rng entity.DateRange, excludeBooking *uuid.UUID) ([]*entity.RoomReservation, error)
	// SumCampGuests totals guests of active registrations on sessions of the
	// camp overlapping rng, skipping excludeBooking.
	SumCampGuests(ctx context.Context, campID uuid.UUID, rng entity.DateRange, excludeBooking *uuid.UUID) (int, error)

	FindRoomsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.RoomReservation, error)
	FindCampsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.CampRegistration, error)

	// SetActiveByBooking flips the inventory hold of every child row of the booking.
	SetActiveByBooking(ctx context.Context, bookingID uuid.UUID, active bool) error
}

type reservationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewReservationRepository(db database.Querier, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

func (r *reservationRepository) CreateRoomReservation(ctx context.Context, res *entity.RoomReservation) error {
	query := `
		INSERT INTO room_reservations (id, booking_id, room_id, bed_id, check_in, check_out, guests, line_total, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		res.ID, res.BookingID, res.RoomID, res.BedID, res.CheckIn, res.CheckOut, res.Guests, res.LineTotal, res.Active, res.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create room reservation",
			zap.Error(err),
			zap.String("booking_id", res.BookingID.String()),
			zap.String("room_id", res.RoomID.String()),
		)
		return fmt.Errorf("create room reservation for booking %s: %w", res.BookingID, err)
	}
	return nil
}

func (r *reservationRepository) CreateCampRegistration(ctx context.Context, reg *entity.CampRegistration) error {
	query := `
		INSERT INTO camp_registrations (id, booking_id, camp_session_id, camp_id, start_date, end_date, guests, line_total, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		reg.ID, reg.BookingID, reg.CampSessionID, reg.CampID, reg.StartDate, reg.EndDate, reg.Guests, reg.LineTotal, reg.Active, reg.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create camp registration",
			zap.Error(err),
			zap.String("booking_id", reg.BookingID.String()),
			zap.String("camp_session_id", reg.CampSessionID.String()),
		)
		return fmt.Errorf("create camp registration for booking %s: %w", reg.BookingID, err)
	}
	return nil
}

const roomReservationColumns = `id, booking_id, room_id, bed_id, check_in, check_out, guests, line_total, active, created_at`

func (r *reservationRepository) FindOverlappingRooms(ctx context.Context, roomID uuid.UUID, rng entity.DateRange, excludeBooking *uuid.UUID) ([]*entity.RoomReservation, error) {
	query := `SELECT ` + roomReservationColumns + `
		FROM room_reservations
		WHERE active
		  AND room_id = $1
		  AND check_in < $3 AND $2 < check_out
		  AND ($4::uuid IS NULL OR booking_id <> $4)
	`

	return r.queryRooms(ctx, query, roomID, rng.Start, rng.End, excludeBooking)
}

func (r *reservationRepository) FindRoomsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.RoomReservation, error) {
	query := `SELECT ` + roomReservationColumns + ` FROM room_reservations WHERE booking_id = $1 ORDER BY check_in`
	return r.queryRooms(ctx, query, bookingID)
}

func (r *reservationRepository) queryRooms(ctx context.Context, query string, args ...any) ([]*entity.RoomReservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query room reservations", zap.Error(err))
		return nil, fmt.Errorf("query room reservations: %w", err)
	}
	defer rows.Close()

	var out []*entity.RoomReservation
	for rows.Next() {
		var res entity.RoomReservation
		if err := rows.Scan(
			&res.ID, &res.BookingID, &res.RoomID, &res.BedID, &res.CheckIn, &res.CheckOut,
			&res.Guests, &res.LineTotal, &res.Active, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan room reservation: %w", err)
		}
		out = append(out, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("room reservation rows: %w", err)
	}
	return out, nil
}

func (r *reservationRepository) SumCampGuests(ctx context.Context, campID uuid.UUID, rng entity.DateRange, excludeBooking *uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(SUM(guests), 0)
		FROM camp_registrations
		WHERE active
		  AND camp_id = $1
		  AND start_date < $3 AND $2 < end_date
		  AND ($4::uuid IS NULL OR booking_id <> $4)
	`

	var total int
	if err := r.db.QueryRow(ctx, query, campID, rng.Start, rng.End, excludeBooking).Scan(&total); err != nil {
		r.log.Error("Failed to sum camp guests", zap.Error(err), zap.String("camp_id", campID.String()))
		return 0, fmt.Errorf("sum camp guests %s: %w", campID, err)
	}
	return total, nil
}

func (r *reservationRepository) FindCampsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.CampRegistration, error) {
	query := `
		SELECT id, booking_id, camp_session_id, camp_id, start_date, end_date, guests, line_total, active, created_at
		FROM camp_registrations
		WHERE booking_id = $1
		ORDER BY start_date
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find camp registrations", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, fmt.Errorf("find camp registrations for booking %s: %w", bookingID, err)
	}
	defer rows.Close()

	var out []*entity.CampRegistration
	for rows.Next() {
		var reg entity.CampRegistration
		if err := rows.Scan(
			&reg.ID, &reg.BookingID, &reg.CampSessionID, &reg.CampID, &reg.StartDate, &reg.EndDate,
			&reg.Guests, &reg.LineTotal, &reg.Active, &reg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan camp registration: %w", err)
		}
		out = append(out, &reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("camp registration rows: %w", err)
	}
	return out, nil
}

func (r *reservationRepository) SetActiveByBooking(ctx context.Context, bookingID uuid.UUID, active bool) error {
	statements := []string{
		`UPDATE room_reservations SET active = $1 WHERE booking_id = $2`,
		`UPDATE camp_registrations SET active = $1 WHERE booking_id = $2`,
	}

	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt, active, bookingID); err != nil {
			r.log.Error("Failed to update reservation holds",
				zap.Error(err),
				zap.String("booking_id", bookingID.String()),
				zap.Bool("active", active),
			)
			return fmt.Errorf("set reservations active=%t for booking %s: %w", active, bookingID, err)
		}
	}
	return nil
}
