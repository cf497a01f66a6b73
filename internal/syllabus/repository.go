package syllabus

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrSyllabusNotFound is returned when sections are saved for a syllabus
// that does not exist or belongs to another family.
var ErrSyllabusNotFound = errors.New("syllabus not found")

// SectionRepository persists parsed outline sections.
type SectionRepository interface {
	ReplaceSections(ctx context.Context, familyID, syllabusID uuid.UUID, sections []Section) error
}
