package entity

import (
	"time"

	"github.com/google/uuid"
)

// Query audit outcomes.
const (
	AuditOutcomeAnswered = "ANSWERED"
	AuditOutcomeBlocked  = "BLOCKED"
	AuditOutcomeDegraded = "DEGRADED"
	AuditOutcomeFallback = "FALLBACK"
)

// QueryAudit is one security-audit record of a processed question.
type QueryAudit struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId     uuid.UUID `gorm:"type:uuid;index"`
	Role       string
	Question   string
	Outcome    string
	Mode       string
	Reason     string
	DurationMs int64
	CreatedAt  time.Time
}
