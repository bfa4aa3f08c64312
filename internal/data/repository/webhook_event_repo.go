package repository

import (
	"context"
	"fmt"
	"time"

	"booking-engine/internal/data/entity"
	"booking-engine/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ClaimOutcome int

const (
	// ClaimWon: this delivery owns the event until the lease expires.
	ClaimWon ClaimOutcome = iota
	// ClaimProcessed: the event was applied before.
	ClaimProcessed
	// ClaimInFlight: another delivery holds an unexpired lease.
	ClaimInFlight
)

type WebhookEventRepository interface {
	// Claim inserts the event or re-claims an unprocessed one whose lease has
	// expired, in a single statement.
	Claim(ctx context.Context, event *entity.WebhookEvent, now time.Time, lease time.Duration) (ClaimOutcome, error)
	// MarkProcessed is conditional on processed = false; false means another
	// delivery already finished the event.
	MarkProcessed(ctx context.Context, eventID string, lastError *string, now time.Time) (bool, error)
	// Release drops the lease without marking the event processed.
	Release(ctx context.Context, eventID string, lastError *string) error
	FindByID(ctx context.Context, eventID string) (*entity.WebhookEvent, error)
	FindUnprocessed(ctx context.Context, now time.Time, limit int) ([]*entity.WebhookEvent, error)
}

type webhookEventRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewWebhookEventRepository(db database.Querier, log *zap.Logger) WebhookEventRepository {
	return &webhookEventRepository{
		db:  db,
		log: log.With(zap.String("repository", "webhook_event")),
	}
}

func (r *webhookEventRepository) Claim(ctx context.Context, event *entity.WebhookEvent, now time.Time, lease time.Duration) (ClaimOutcome, error) {
	query := `
		INSERT INTO webhook_events (event_id, event_type, payload, attempts, claimed_until, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $5, $5)
		ON CONFLICT (event_id) DO UPDATE SET
			attempts = webhook_events.attempts + 1,
			claimed_until = EXCLUDED.claimed_until,
			updated_at = EXCLUDED.updated_at
		WHERE NOT webhook_events.processed
		  AND (webhook_events.claimed_until IS NULL OR webhook_events.claimed_until < $5)
		RETURNING attempts
	`

	var attempts int
	err := r.db.QueryRow(ctx, query, event.EventID, event.EventType, event.Payload, now.Add(lease), now).Scan(&attempts)
	if err == nil {
		event.Attempts = attempts
		return ClaimWon, nil
	}
	if err != pgx.ErrNoRows {
		r.log.Error("Failed to claim webhook event", zap.Error(err), zap.String("event_id", event.EventID))
		return 0, fmt.Errorf("claim webhook event %s: %w", event.EventID, err)
	}

	// row exists and the update was filtered out
	var processed bool
	if err := r.db.QueryRow(ctx, `SELECT processed FROM webhook_events WHERE event_id = $1`, event.EventID).Scan(&processed); err != nil {
		r.log.Error("Failed to read webhook event state", zap.Error(err), zap.String("event_id", event.EventID))
		return 0, fmt.Errorf("read webhook event %s: %w", event.EventID, err)
	}
	if processed {
		return ClaimProcessed, nil
	}
	return ClaimInFlight, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, eventID string, lastError *string, now time.Time) (bool, error) {
	query := `
		UPDATE webhook_events
		SET processed = TRUE, processed_at = $2, last_error = $3, claimed_until = NULL, updated_at = $2
		WHERE event_id = $1 AND NOT processed
	`

	tag, err := r.db.Exec(ctx, query, eventID, now, lastError)
	if err != nil {
		r.log.Error("Failed to mark webhook event processed", zap.Error(err), zap.String("event_id", eventID))
		return false, fmt.Errorf("mark webhook event %s processed: %w", eventID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *webhookEventRepository) Release(ctx context.Context, eventID string, lastError *string) error {
	query := `
		UPDATE webhook_events
		SET claimed_until = NULL, last_error = $2, updated_at = now()
		WHERE event_id = $1 AND NOT processed
	`

	if _, err := r.db.Exec(ctx, query, eventID, lastError); err != nil {
		r.log.Error("Failed to release webhook event", zap.Error(err), zap.String("event_id", eventID))
		return fmt.Errorf("release webhook event %s: %w", eventID, err)
	}
	return nil
}

const webhookEventColumns = `event_id, event_type, payload, processed, attempts, claimed_until, last_error, processed_at, created_at, updated_at`

func scanWebhookEvent(row pgx.Row) (*entity.WebhookEvent, error) {
	var e entity.WebhookEvent
	err := row.Scan(
		&e.EventID, &e.EventType, &e.Payload, &e.Processed, &e.Attempts,
		&e.ClaimedUntil, &e.LastError, &e.ProcessedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *webhookEventRepository) FindByID(ctx context.Context, eventID string) (*entity.WebhookEvent, error) {
	query := `SELECT ` + webhookEventColumns + ` FROM webhook_events WHERE event_id = $1`

	event, err := scanWebhookEvent(r.db.QueryRow(ctx, query, eventID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find webhook event", zap.Error(err), zap.String("event_id", eventID))
		return nil, fmt.Errorf("find webhook event %s: %w", eventID, err)
	}
	return event, nil
}

func (r *webhookEventRepository) FindUnprocessed(ctx context.Context, now time.Time, limit int) ([]*entity.WebhookEvent, error) {
	query := `SELECT ` + webhookEventColumns + `
		FROM webhook_events
		WHERE NOT processed AND (claimed_until IS NULL OR claimed_until < $1)
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		r.log.Error("Failed to find unprocessed webhook events", zap.Error(err))
		return nil, fmt.Errorf("find unprocessed webhook events: %w", err)
	}
	defer rows.Close()

	var events []*entity.WebhookEvent
	for rows.Next() {
		e, err := scanWebhookEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("webhook event rows: %w", err)
	}
	return events, nil
}
