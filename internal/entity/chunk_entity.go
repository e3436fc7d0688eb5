package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is one embedded slice of a source document. Chunks are
// immutable after ingestion; the pipeline only reads them. A chunk with no
// role tags is visible to nobody, admin aside.
type DocumentChunk struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Text           string
	SourceDocument string
	RoleTags       []string
	Embedding      []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
