package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/misty-step/bibliomnomnom/internal/models"
)

type BookRepo struct {
	pool *pgxpool.Pool
}

func NewBookRepo(pool *pgxpool.Pool) *BookRepo {
	return &BookRepo{pool: pool}
}

func (r *BookRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	b := &models.Book{}
	query := `SELECT id, user_id, title, author, description, shelf, created_at, updated_at
		FROM books WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.UserID, &b.Title, &b.Author, &b.Description, &b.Shelf, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// ListByShelf returns slim book refs for one of the user's shelves,
// newest first, for synthesis context.
func (r *BookRepo) ListByShelf(ctx context.Context, userID uuid.UUID, shelf string, limit int) ([]models.BookRef, error) {
	query := `SELECT title, author FROM books
		WHERE user_id = $1 AND shelf = $2
		ORDER BY updated_at DESC LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, shelf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []models.BookRef
	for rows.Next() {
		var ref models.BookRef
		if err := rows.Scan(&ref.Title, &ref.Author); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
