package entity

import "time"

// WebhookEvent is the dedup ledger row for one gateway notification.
type WebhookEvent struct {
	EventID      string     `db:"event_id"`
	EventType    string     `db:"event_type"`
	Payload      []byte     `db:"payload"`
	Processed    bool       `db:"processed"`
	Attempts     int        `db:"attempts"`
	ClaimedUntil *time.Time `db:"claimed_until"`
	LastError    *string    `db:"last_error"`
	ProcessedAt  *time.Time `db:"processed_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}
