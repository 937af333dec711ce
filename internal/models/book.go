package models

import (
	"time"

	"github.com/google/uuid"
)

// Shelf values for a tracked book.
const (
	ShelfReading    = "reading"
	ShelfWantToRead = "want_to_read"
	ShelfRead       = "read"
)

type Book struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description *string   `json:"description"`
	Shelf       string    `json:"shelf"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Note struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	BookID    uuid.UUID  `json:"book_id"`
	Content   string     `json:"content"`
	Source    string     `json:"source"` // "manual" | "listening_session"
	SessionID *uuid.UUID `json:"session_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// BookRef is the slim book identity used in synthesis context lists.
type BookRef struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// SynthesisContext is the read-only bundle of library state handed to the
// synthesis engine to enrich its prompt. Assembled outside the engine and
// never mutated by it.
type SynthesisContext struct {
	BookTitle       string
	BookAuthor      string
	BookDescription string

	CurrentlyReading []BookRef
	WantToRead       []BookRef
	Read             []BookRef

	RecentNotes []string
}
