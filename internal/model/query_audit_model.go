package model

import (
	"time"

	"github.com/google/uuid"
)

type QueryAudit struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     uuid.UUID `gorm:"type:uuid;index"`
	Role       string    `gorm:"type:varchar(64);index"`
	Question   string    `gorm:"type:text"`
	Outcome    string    `gorm:"type:varchar(32);index"`
	Mode       string    `gorm:"type:varchar(16)"`
	Reason     string    `gorm:"type:text"`
	DurationMs int64
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

func (QueryAudit) TableName() string {
	return "query_audits"
}
