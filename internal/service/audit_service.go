package service

import (
	"context"

	"agri-assist-be/internal/dto"
	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/repository/specification"
	"agri-assist-be/internal/repository/unitofwork"
)

type IAuditService interface {
	List(ctx context.Context, req *dto.ListAuditsRequest) (*dto.ListAuditsResponse, error)
}

type auditService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewAuditService(uowFactory unitofwork.RepositoryFactory) IAuditService {
	return &auditService{
		uowFactory: uowFactory,
	}
}

func (s *auditService) List(ctx context.Context, req *dto.ListAuditsRequest) (*dto.ListAuditsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 50
	}

	filters := []specification.Specification{}
	if req.Role != "" {
		filters = append(filters, specification.ByRole{Role: req.Role})
	}
	if req.Outcome != "" {
		filters = append(filters, specification.ByOutcome{Outcome: req.Outcome})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	total, err := uow.AuditRepository().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	audits, err := uow.AuditRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	records := make([]dto.AuditRecordResponse, 0, len(audits))
	for _, a := range audits {
		records = append(records, toAuditRecord(a))
	}

	return &dto.ListAuditsResponse{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Records: records,
	}, nil
}

func toAuditRecord(a *entity.QueryAudit) dto.AuditRecordResponse {
	return dto.AuditRecordResponse{
		Id:         a.Id.String(),
		UserId:     a.UserId.String(),
		Role:       a.Role,
		Question:   a.Question,
		Outcome:    a.Outcome,
		Mode:       a.Mode,
		Reason:     a.Reason,
		DurationMs: a.DurationMs,
		CreatedAt:  a.CreatedAt,
	}
}
