package audit

import "context"

// Repository is the persistence interface for audit entries. The write path
// is append-only.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByPatient(ctx context.Context, patientID string, filter TrailFilter) ([]*Entry, int, error)
}
