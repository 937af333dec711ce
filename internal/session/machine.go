// Package session owns the listening-session lifecycle. Every status
// change goes through Machine, which validates the current status before
// writing; callers that lost a race get InvalidTransitionError instead of
// a silent overwrite.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/misty-step/bibliomnomnom/internal/models"
)

// ErrNotFound is returned by Store implementations when no session exists
// for the given id.
var ErrNotFound = errors.New("listening session not found")

// Store is the persistence surface the machine needs. The pgx-backed
// repository implements it in production; tests use an in-memory fake.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*models.ListeningSession, error)
	Create(ctx context.Context, s *models.ListeningSession) error
	Update(ctx context.Context, s *models.ListeningSession) error
}

// NoteCreator persists the raw-transcript note linked to a completed
// session and returns its id.
type NoteCreator interface {
	CreateRawNote(ctx context.Context, s *models.ListeningSession, transcript string) (uuid.UUID, error)
}

// InvalidTransitionError names the attempted from/to status pair.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid listening session transition: %s -> %s", e.From, e.To)
}

type Machine struct {
	store Store
	notes NoteCreator
}

func NewMachine(store Store, notes NoteCreator) *Machine {
	return &Machine{store: store, notes: notes}
}

// Create produces a new session in "recording". The cap is clamped into
// the legal range regardless of caller input; the warning threshold is
// forced below the cap.
func (m *Machine) Create(ctx context.Context, userID, bookID uuid.UUID, capDurationMs, warningDurationMs int64, mimeType *string) (*models.ListeningSession, error) {
	capMs := models.ClampCapDuration(capDurationMs)
	if warningDurationMs <= 0 || warningDurationMs >= capMs {
		warningDurationMs = capMs - 60_000
	}

	now := time.Now().UTC()
	s := &models.ListeningSession{
		ID:                uuid.New(),
		UserID:            userID,
		BookID:            bookID,
		Status:            models.StatusRecording,
		StartedAt:         now,
		CreatedAt:         now,
		UpdatedAt:         now,
		CapDurationMs:     capMs,
		WarningDurationMs: warningDurationMs,
		MimeType:          mimeType,
	}

	if err := m.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create listening session: %w", err)
	}
	return s, nil
}

// MarkTranscribing records the end of recording: audio location, measured
// duration, and whether the hard cap cut the recording short.
func (m *Machine) MarkTranscribing(ctx context.Context, s *models.ListeningSession, audioURL string, durationMs int64, capReached bool) error {
	if s.Status != models.StatusRecording {
		return &InvalidTransitionError{From: s.Status, To: models.StatusTranscribing}
	}
	if audioURL == "" {
		return fmt.Errorf("cannot finish recording without an audio URL")
	}

	s.Status = models.StatusTranscribing
	s.AudioURL = &audioURL
	s.DurationMs = &durationMs
	s.CapReached = capReached
	s.UpdatedAt = time.Now().UTC()
	return m.store.Update(ctx, s)
}

// MarkSynthesizing persists the transcript obtained from the STT gateway
// and advances to "synthesizing". A retry that re-enters after this write
// resumes from the stored transcript instead of re-transcribing.
func (m *Machine) MarkSynthesizing(ctx context.Context, s *models.ListeningSession, transcript, provider string) error {
	if s.Status != models.StatusTranscribing {
		return &InvalidTransitionError{From: s.Status, To: models.StatusSynthesizing}
	}
	if transcript == "" {
		return fmt.Errorf("cannot enter synthesizing without a transcript")
	}

	s.Status = models.StatusSynthesizing
	s.Transcript = transcript
	s.TranscriptProvider = provider
	s.UpdatedAt = time.Now().UTC()
	return m.store.Update(ctx, s)
}

// MarkReview parks a synthesized session for manual review before the
// artifacts are accepted.
func (m *Machine) MarkReview(ctx context.Context, s *models.ListeningSession) error {
	if s.Status != models.StatusSynthesizing {
		return &InvalidTransitionError{From: s.Status, To: models.StatusReview}
	}
	s.Status = models.StatusReview
	s.UpdatedAt = time.Now().UTC()
	return m.store.Update(ctx, s)
}

// Complete finishes the session and creates the raw-transcript note as a
// side effect. An empty transcript argument keeps the one already on the
// session, so a caller that persisted it at the synthesizing boundary can
// pass "" here.
func (m *Machine) Complete(ctx context.Context, s *models.ListeningSession, transcript, provider string, synthesis *models.SynthesisArtifacts) error {
	if s.Status != models.StatusSynthesizing && s.Status != models.StatusReview {
		return &InvalidTransitionError{From: s.Status, To: models.StatusComplete}
	}

	if transcript != "" {
		s.Transcript = transcript
	}
	if provider != "" {
		s.TranscriptProvider = provider
	}
	if s.Transcript == "" {
		return fmt.Errorf("cannot complete a session without a transcript")
	}

	noteID, err := m.notes.CreateRawNote(ctx, s, s.Transcript)
	if err != nil {
		return fmt.Errorf("failed to create raw note: %w", err)
	}

	s.Status = models.StatusComplete
	s.Synthesis = synthesis
	s.RawNoteID = &noteID
	s.UpdatedAt = time.Now().UTC()
	return m.store.Update(ctx, s)
}

// Fail moves any non-terminal session to "failed" with a human-readable
// message. Terminal states cannot be re-entered, so failing an already
// complete or failed session is itself an invalid transition.
func (m *Machine) Fail(ctx context.Context, s *models.ListeningSession, message string, stage *string) error {
	if s.Terminal() {
		return &InvalidTransitionError{From: s.Status, To: models.StatusFailed}
	}

	s.Status = models.StatusFailed
	s.ErrorMessage = &message
	s.FailedStage = stage
	s.UpdatedAt = time.Now().UTC()
	return m.store.Update(ctx, s)
}

// IncrementRetry bumps the attempt counter without changing status.
func (m *Machine) IncrementRetry(ctx context.Context, s *models.ListeningSession) error {
	s.RetryCount++
	s.UpdatedAt = time.Now().UTC()
	return m.store.Update(ctx, s)
}
