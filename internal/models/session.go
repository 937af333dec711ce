package models

import (
	"time"

	"github.com/google/uuid"
)

// Listening session lifecycle statuses. Transitions between them are
// enforced by the session package; nothing else writes status.
const (
	StatusRecording    = "recording"
	StatusTranscribing = "transcribing"
	StatusSynthesizing = "synthesizing"
	StatusReview       = "review"
	StatusComplete     = "complete"
	StatusFailed       = "failed"
)

// Recording cap bounds in milliseconds. Caller-supplied caps outside this
// range are clamped, not rejected.
const (
	MinCapDurationMs = 60_000      // 1 minute
	MaxCapDurationMs = 14_400_000  // 4 hours
)

type ListeningSession struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	BookID uuid.UUID `json:"book_id"`
	Status string    `json:"status"`

	StartedAt  time.Time `json:"started_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	DurationMs *int64    `json:"duration_ms"`

	CapDurationMs     int64 `json:"cap_duration_ms"`
	WarningDurationMs int64 `json:"warning_duration_ms"`
	CapReached        bool  `json:"cap_reached"`

	AudioURL *string `json:"audio_url"`
	MimeType *string `json:"mime_type"`

	Transcript         string `json:"transcript"`
	TranscriptProvider string `json:"transcript_provider"`

	Synthesis *SynthesisArtifacts `json:"synthesis,omitempty"`

	RetryCount   int        `json:"retry_count"`
	ErrorMessage *string    `json:"error_message"`
	FailedStage  *string    `json:"failed_stage"`
	RawNoteID    *uuid.UUID `json:"raw_note_id"`
}

// Terminal reports whether the session can never change status again.
func (s *ListeningSession) Terminal() bool {
	return s.Status == StatusComplete || s.Status == StatusFailed
}

// ClampCapDuration normalizes a requested recording cap into the legal
// range. Zero and negative values land on the floor.
func ClampCapDuration(ms int64) int64 {
	if ms < MinCapDurationMs {
		return MinCapDurationMs
	}
	if ms > MaxCapDurationMs {
		return MaxCapDurationMs
	}
	return ms
}
