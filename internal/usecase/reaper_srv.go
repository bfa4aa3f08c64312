package usecase

import (
	"context"
	"time"

	"booking-engine/internal/data/entity"
	"booking-engine/internal/data/repository"
	"booking-engine/pkg/apperror"
	"booking-engine/pkg/mq"

	"go.uber.org/zap"
)

//go:generate mockgen -source=reaper_srv.go -destination=mocks/mock_reaper_srv.go -package=mocks

const reasonSessionExpired = "checkout session expired"

type ReapReport struct {
	Scanned int `json:"scanned"`
	Reaped  int `json:"reaped"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type ReaperService interface {
	// ReapExpiredCheckouts cancels drafts and pending bookings whose checkout
	// session deadline passed before now.
	ReapExpiredCheckouts(ctx context.Context, now time.Time, limit int) (*ReapReport, error)
}

type reaperService struct {
	repo *repository.Repository
	pub  mq.EventPublisher
	log  *zap.Logger
}

func NewReaperService(repo *repository.Repository, deps Deps, log *zap.Logger) ReaperService {
	return &reaperService{
		repo: repo,
		pub:  deps.Publisher,
		log:  log.With(zap.String("service", "reaper")),
	}
}

func (s *reaperService) ReapExpiredCheckouts(ctx context.Context, now time.Time, limit int) (*ReapReport, error) {
	if limit <= 0 {
		limit = 100
	}

	bookings, err := s.repo.Booking.FindExpiredPending(ctx, now, limit)
	if err != nil {
		return nil, apperror.Server(err)
	}

	report := &ReapReport{Scanned: len(bookings)}
	for _, candidate := range bookings {
		var changed *StatusChangedEvent

		err := s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
			booking, err := tx.Booking.LockByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			// a webhook may have settled it since the scan
			if booking == nil || !expired(booking, now) {
				return nil
			}

			if err := tx.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusCancelled); err != nil {
				return err
			}
			if err := tx.Reservation.SetActiveByBooking(ctx, booking.ID, false); err != nil {
				return err
			}

			payment, err := tx.Payment.FindByBookingID(ctx, booking.ID)
			if err != nil {
				return err
			}
			if payment != nil && payment.Status == entity.PaymentStatusPending {
				reason := reasonSessionExpired
				payment.Status = entity.PaymentStatusFailed
				payment.FailureReason = &reason
				payment.UpdatedAt = now
				if err := tx.Payment.Update(ctx, payment); err != nil {
					return err
				}
			}

			changed = &StatusChangedEvent{
				BookingID:  booking.ID,
				Reference:  booking.Reference,
				From:       booking.Status,
				To:         entity.BookingStatusCancelled,
				Cause:      reasonSessionExpired,
				OccurredAt: now,
			}
			return nil
		})
		if err != nil {
			s.log.Error("Failed to reap booking", zap.Error(err), zap.String("booking_id", candidate.ID.String()))
			report.Failed++
			continue
		}
		if changed == nil {
			report.Skipped++
			continue
		}

		report.Reaped++
		publishAll(ctx, s.pub, s.log, []outboundEvent{{key: KeyBookingStatusChanged, payload: *changed}})
	}

	s.log.Info("Expired checkouts reaped",
		zap.Int("scanned", report.Scanned),
		zap.Int("reaped", report.Reaped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func expired(b *entity.Booking, now time.Time) bool {
	if b.Status != entity.BookingStatusDraft && b.Status != entity.BookingStatusPendingPayment {
		return false
	}
	return b.SessionExpiresAt != nil && b.SessionExpiresAt.Before(now)
}
