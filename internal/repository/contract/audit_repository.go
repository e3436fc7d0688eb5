package contract

import (
	"context"

	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/repository/specification"
)

type AuditRepository interface {
	Create(ctx context.Context, audit *entity.QueryAudit) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueryAudit, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
