package dto

import "time"

type AskQueryRequest struct {
	Question string `json:"question" validate:"required,min=3,max=2000"`
}

type AskQueryResponse struct {
	RequestId    string   `json:"request_id"`
	Answer       string   `json:"answer"`
	Mode         string   `json:"mode"`
	QualityScore float64  `json:"quality_score"`
	Degraded     bool     `json:"degraded"`
	FellBack     bool     `json:"fell_back"`
	Evidence     []string `json:"evidence,omitempty"`
	Cached       bool     `json:"cached"`
}

// QueryAuditMessage is the payload published to the audit topic after
// every request, answered or blocked.
type QueryAuditMessage struct {
	RequestId    string    `json:"request_id"`
	UserId       string    `json:"user_id"`
	Role         string    `json:"role"`
	Question     string    `json:"question"`
	Outcome      string    `json:"outcome"`
	Reason       string    `json:"reason,omitempty"`
	Mode         string    `json:"mode,omitempty"`
	QualityScore float64   `json:"quality_score"`
	Degraded     bool      `json:"degraded"`
	FellBack     bool      `json:"fell_back"`
	DurationMs   int64     `json:"duration_ms"`
	AskedAt      time.Time `json:"asked_at"`
}
