package entity

type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
)

type AuditLog struct {
	BaseSimple
	Action  string         `db:"action"`
	Actor   string         `db:"actor"`
	Outcome AuditOutcome   `db:"outcome"`
	Details map[string]any `db:"details"`
}
