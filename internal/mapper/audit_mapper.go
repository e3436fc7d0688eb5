package mapper

import (
	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/model"
)

type AuditMapper struct{}

func NewAuditMapper() *AuditMapper {
	return &AuditMapper{}
}

func (m *AuditMapper) ToEntity(a *model.QueryAudit) *entity.QueryAudit {
	if a == nil {
		return nil
	}
	return &entity.QueryAudit{
		Id:         a.Id,
		UserId:     a.UserId,
		Role:       a.Role,
		Question:   a.Question,
		Outcome:    a.Outcome,
		Mode:       a.Mode,
		Reason:     a.Reason,
		DurationMs: a.DurationMs,
		CreatedAt:  a.CreatedAt,
	}
}

func (m *AuditMapper) ToModel(a *entity.QueryAudit) *model.QueryAudit {
	if a == nil {
		return nil
	}
	return &model.QueryAudit{
		Id:         a.Id,
		UserId:     a.UserId,
		Role:       a.Role,
		Question:   a.Question,
		Outcome:    a.Outcome,
		Mode:       a.Mode,
		Reason:     a.Reason,
		DurationMs: a.DurationMs,
		CreatedAt:  a.CreatedAt,
	}
}
