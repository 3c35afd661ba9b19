package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service wraps the audit store with best-effort semantics: a persistence
// failure degrades to the local structured log and still hands the caller an
// identifier. Audit must never break the clinical request it describes.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates the audit service. repo may be nil when no store is
// configured; every write then lands in the local log.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// LogEvent persists an audit entry and returns its identifier. On any
// failure the entry is written to the local log instead and a synthetic
// local identifier is returned; the error never reaches the caller.
func (s *Service) LogEvent(ctx context.Context, e *Entry) string {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Type == "" || !validEventTypes[e.Type] {
		e.Type = EventValidationRequest
	}

	if s.repo != nil {
		if err := s.repo.Create(ctx, e); err == nil {
			return e.ID.String()
		} else {
			s.logger.Error().Err(err).
				Str("patient_id", e.PatientID).
				Str("event_type", string(e.Type)).
				Msg("audit persistence failed, falling back to local log")
		}
	}

	s.logger.Info().
		Str("patient_id", e.PatientID).
		Str("actor_id", e.ActorID).
		Str("event_type", string(e.Type)).
		Str("request_id", e.RequestID).
		Interface("detail", e.Detail).
		Msg("audit event (local fallback)")
	return fmt.Sprintf("local-%d", e.CreatedAt.UnixNano())
}

// LogEventAsync records the entry without blocking the caller. The write
// runs on a detached context with its own budget so an in-flight request
// finishing first does not cancel it.
func (s *Service) LogEventAsync(e *Entry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.LogEvent(ctx, e)
	}()
}

// GetPatientTrail returns the patient's audit trail, newest first. Query
// failures yield an empty trail, not an error.
func (s *Service) GetPatientTrail(ctx context.Context, patientID string, filter TrailFilter) ([]*Entry, int) {
	if s.repo == nil {
		return []*Entry{}, 0
	}
	items, total, err := s.repo.ListByPatient(ctx, patientID, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", patientID).Msg("audit trail query failed")
		return []*Entry{}, 0
	}
	if items == nil {
		items = []*Entry{}
	}
	return items, total
}
