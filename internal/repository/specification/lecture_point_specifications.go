package specification

import (
	"sort"

	"lecture-rag-be/pkg/vectorstore"

	"gorm.io/gorm"
)

// ByPayload applies every non-empty filter condition as an equality on its column.
type ByPayload struct {
	Filter vectorstore.Filter
}

func (s ByPayload) Apply(db *gorm.DB) *gorm.DB {
	conditions := s.Filter.Conditions()
	fields := make([]string, 0, len(conditions))
	for field := range conditions {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		db = Filter(field, conditions[field]).Apply(db)
	}
	return db
}
