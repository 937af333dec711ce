package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/misty-step/bibliomnomnom/internal/models"
)

type NoteRepo struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

// CreateRawNote stores the session transcript as a note linked back to
// the session. Implements session.NoteCreator.
func (r *NoteRepo) CreateRawNote(ctx context.Context, s *models.ListeningSession, transcript string) (uuid.UUID, error) {
	n := &models.Note{
		ID:        uuid.New(),
		UserID:    s.UserID,
		BookID:    s.BookID,
		Content:   transcript,
		Source:    "listening_session",
		SessionID: &s.ID,
		CreatedAt: time.Now().UTC(),
	}

	query := `INSERT INTO notes (id, user_id, book_id, content, source, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		n.ID, n.UserID, n.BookID, n.Content, n.Source, n.SessionID, n.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, err
	}
	return n.ID, nil
}

// ListRecentForBook returns the newest note bodies for a book, newest
// first, for synthesis context.
func (r *NoteRepo) ListRecentForBook(ctx context.Context, userID, bookID uuid.UUID, limit int) ([]string, error) {
	query := `SELECT content FROM notes
		WHERE user_id = $1 AND book_id = $2
		ORDER BY created_at DESC LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, bookID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		notes = append(notes, content)
	}
	return notes, rows.Err()
}
