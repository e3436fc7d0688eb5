package dto

import "time"

type ListAuditsRequest struct {
	Role    string `query:"role"`
	Outcome string `query:"outcome"`
	Page    int    `query:"page" validate:"omitempty,min=1"`
	Limit   int    `query:"limit" validate:"omitempty,min=1,max=200"`
}

type AuditRecordResponse struct {
	Id         string    `json:"id"`
	UserId     string    `json:"user_id"`
	Role       string    `json:"role"`
	Question   string    `json:"question"`
	Outcome    string    `json:"outcome"`
	Mode       string    `json:"mode,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListAuditsResponse struct {
	Total   int64                 `json:"total"`
	Page    int                   `json:"page"`
	Limit   int                   `json:"limit"`
	Records []AuditRecordResponse `json:"records"`
}
