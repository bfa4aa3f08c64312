package repository

import (
	"context"
	"fmt"

	"booking-engine/internal/data/entity"
	"booking-engine/pkg/database"

	"go.uber.org/zap"
)

// AuditLogRepository is append-only.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *entity.AuditLog) error
}

type auditLogRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewAuditLogRepository(db database.Querier, log *zap.Logger) AuditLogRepository {
	return &auditLogRepository{
		db:  db,
		log: log.With(zap.String("repository", "audit_log")),
	}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, action, actor, outcome, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query, entry.ID, entry.Action, entry.Actor, entry.Outcome, entry.Details, entry.CreatedAt)
	if err != nil {
		r.log.Error("Failed to append audit log", zap.Error(err), zap.String("action", entry.Action))
		return fmt.Errorf("append audit log %s: %w", entry.Action, err)
	}
	return nil
}
