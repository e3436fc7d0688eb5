package contract

import (
	"context"

	"agri-assist-be/pkg/store"
)

// TabularRepository is the tabular-engine collaborator. It executes only
// read-only statements; its own statement guard is a second line behind
// the pipeline's keyword check, not a replacement for it.
type TabularRepository interface {
	// ExecuteReadOnly runs a SELECT and returns at most rowCap rows,
	// setting Truncated when the cap was hit.
	ExecuteReadOnly(ctx context.Context, sql string, rowCap int) (*store.SQLResult, error)
}
