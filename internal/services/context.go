package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/misty-step/bibliomnomnom/internal/models"
	"github.com/misty-step/bibliomnomnom/internal/repository"
)

// Bounds on the library state included in a synthesis prompt.
const (
	contextBooksPerShelf = 5
	contextRecentNotes   = 5
)

// ContextService assembles the read-only SynthesisContext from the user's
// library: the session's book, bounded shelf lists, and recent notes.
type ContextService struct {
	books *repository.BookRepo
	notes *repository.NoteRepo
}

func NewContextService(books *repository.BookRepo, notes *repository.NoteRepo) *ContextService {
	return &ContextService{books: books, notes: notes}
}

func (s *ContextService) Build(ctx context.Context, userID, bookID uuid.UUID) (*models.SynthesisContext, error) {
	sctx := &models.SynthesisContext{}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	if book != nil {
		sctx.BookTitle = book.Title
		sctx.BookAuthor = book.Author
		if book.Description != nil {
			sctx.BookDescription = *book.Description
		}
	}

	shelves := []struct {
		shelf string
		dest  *[]models.BookRef
	}{
		{models.ShelfReading, &sctx.CurrentlyReading},
		{models.ShelfWantToRead, &sctx.WantToRead},
		{models.ShelfRead, &sctx.Read},
	}
	for _, sh := range shelves {
		refs, err := s.books.ListByShelf(ctx, userID, sh.shelf, contextBooksPerShelf)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s shelf: %w", sh.shelf, err)
		}
		*sh.dest = refs
	}

	notes, err := s.notes.ListRecentForBook(ctx, userID, bookID, contextRecentNotes)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent notes: %w", err)
	}
	sctx.RecentNotes = notes

	return sctx, nil
}
