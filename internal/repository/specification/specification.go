package specification

import "gorm.io/gorm"

// Specification is a composable query predicate. Repositories chain the
// given specifications onto a base query, so audit listing and chunk
// lookups share one filtering vocabulary.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
