package unitofwork

import (
	"context"

	"agri-assist-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChunkRepository() contract.ChunkRepository
	AuditRepository() contract.AuditRepository
	TabularRepository() contract.TabularRepository
}
