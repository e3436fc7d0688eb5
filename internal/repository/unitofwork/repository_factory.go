package unitofwork

import "context"

// RepositoryFactory issues a fresh unit of work per request so the
// pipeline and the audit consumer never share repository state.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
