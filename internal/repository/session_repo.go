package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/misty-step/bibliomnomnom/internal/models"
	"github.com/misty-step/bibliomnomnom/internal/session"
)

// SessionRepo is the pgx-backed session.Store.
type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

const sessionColumns = `id, user_id, book_id, status, started_at, created_at, updated_at,
	duration_ms, cap_duration_ms, warning_duration_ms, cap_reached,
	audio_url, mime_type, transcript, transcript_provider, synthesis_json,
	retry_count, error_message, failed_stage, raw_note_id`

func (r *SessionRepo) Create(ctx context.Context, s *models.ListeningSession) error {
	query := `INSERT INTO listening_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	synthesisJSON, err := marshalSynthesis(s.Synthesis)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		s.ID, s.UserID, s.BookID, s.Status, s.StartedAt, s.CreatedAt, s.UpdatedAt,
		s.DurationMs, s.CapDurationMs, s.WarningDurationMs, s.CapReached,
		s.AudioURL, s.MimeType, s.Transcript, s.TranscriptProvider, synthesisJSON,
		s.RetryCount, s.ErrorMessage, s.FailedStage, s.RawNoteID,
	)
	return err
}

func (r *SessionRepo) Get(ctx context.Context, id uuid.UUID) (*models.ListeningSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM listening_sessions WHERE id = $1`
	return r.scanSession(r.pool.QueryRow(ctx, query, id))
}

func (r *SessionRepo) Update(ctx context.Context, s *models.ListeningSession) error {
	query := `UPDATE listening_sessions SET
		status = $2, updated_at = $3, duration_ms = $4, cap_reached = $5,
		audio_url = $6, mime_type = $7, transcript = $8, transcript_provider = $9,
		synthesis_json = $10, retry_count = $11, error_message = $12,
		failed_stage = $13, raw_note_id = $14
		WHERE id = $1`

	synthesisJSON, err := marshalSynthesis(s.Synthesis)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, query,
		s.ID, s.Status, s.UpdatedAt, s.DurationMs, s.CapReached,
		s.AudioURL, s.MimeType, s.Transcript, s.TranscriptProvider,
		synthesisJSON, s.RetryCount, s.ErrorMessage, s.FailedStage, s.RawNoteID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ListeningSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM listening_sessions
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.ListeningSession
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SessionRepo) scanSession(row rowScanner) (*models.ListeningSession, error) {
	s := &models.ListeningSession{}
	var synthesisJSON []byte

	err := row.Scan(
		&s.ID, &s.UserID, &s.BookID, &s.Status, &s.StartedAt, &s.CreatedAt, &s.UpdatedAt,
		&s.DurationMs, &s.CapDurationMs, &s.WarningDurationMs, &s.CapReached,
		&s.AudioURL, &s.MimeType, &s.Transcript, &s.TranscriptProvider, &synthesisJSON,
		&s.RetryCount, &s.ErrorMessage, &s.FailedStage, &s.RawNoteID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}

	if len(synthesisJSON) > 0 {
		var artifacts models.SynthesisArtifacts
		if err := json.Unmarshal(synthesisJSON, &artifacts); err != nil {
			return nil, fmt.Errorf("failed to decode stored synthesis: %w", err)
		}
		s.Synthesis = &artifacts
	}

	return s, nil
}

func marshalSynthesis(a *models.SynthesisArtifacts) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode synthesis: %w", err)
	}
	return data, nil
}
