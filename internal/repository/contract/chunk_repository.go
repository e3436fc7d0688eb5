package contract

import (
	"context"

	"github.com/google/uuid"

	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/repository/specification"
)

// ScoredChunk wraps a DocumentChunk with its cosine similarity score
type ScoredChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

// ChunkRepository is the vector-index collaborator. Ingestion writes are
// exposed only for migration/seeding tooling; the pipeline reads.
type ChunkRepository interface {
	Create(ctx context.Context, chunk *entity.DocumentChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilarWithScore ranks the whole index by cosine similarity,
	// unfiltered. Used for the admin role only.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredChunk, error)

	// SearchSimilarFilteredWithScore ranks only chunks carrying at least one
	// of the given role tags. The tag predicate runs inside the search, so
	// truncation to limit never happens before filtering.
	SearchSimilarFilteredWithScore(ctx context.Context, embedding []float32, limit int, tags []string, threshold float64) ([]*ScoredChunk, error)
}
