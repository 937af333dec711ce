package synthesis

import (
	"fmt"
	"strings"

	"github.com/misty-step/bibliomnomnom/internal/models"
)

// Bounds on how much context is appended to the prompt.
const (
	maxContextBooks = 5
	maxContextNotes = 5
)

func buildPrompt(transcript string, sctx *models.SynthesisContext) string {
	var b strings.Builder

	// Layer 1 — Role
	b.WriteString("You are a thoughtful reading companion. A reader just finished speaking their reflections about a book they are reading. Extract structured artifacts from their spoken transcript.\n\n")

	// Layer 2 — Grounding rules
	b.WriteString("Rules:\n")
	b.WriteString("- Ground every artifact in what the reader actually said. NEVER fabricate quotes, facts, or opinions.\n")
	b.WriteString("- Prefer fewer, better artifacts over padding. Empty arrays are acceptable.\n")
	b.WriteString(fmt.Sprintf("- At most %d insights, %d open questions, %d quotes, %d follow-up questions, %d context expansions.\n", models.MaxInsights, models.MaxOpenQuestions, models.MaxQuotes, models.MaxFollowUpQuestions, models.MaxContextExpansions))
	b.WriteString("- A quote must be words the reader quoted or read aloud, verbatim from the transcript.\n")
	b.WriteString("- Open questions are questions the reader raised; follow-up questions are ones you suggest they sit with next.\n\n")

	// Layer 3 — Context, only when supplied
	if sctx != nil {
		if sctx.BookTitle != "" {
			b.WriteString("Current book: " + sctx.BookTitle)
			if sctx.BookAuthor != "" {
				b.WriteString(" by " + sctx.BookAuthor)
			}
			b.WriteString("\n")
			if sctx.BookDescription != "" {
				b.WriteString("Description: " + sctx.BookDescription + "\n")
			}
			b.WriteString("\n")
		}

		writeBookList(&b, "Currently reading", sctx.CurrentlyReading)
		writeBookList(&b, "Wants to read", sctx.WantToRead)
		writeBookList(&b, "Recently finished", sctx.Read)

		if len(sctx.RecentNotes) > 0 {
			b.WriteString("Recent notes on this book:\n")
			notes := sctx.RecentNotes
			if len(notes) > maxContextNotes {
				notes = notes[:maxContextNotes]
			}
			for _, note := range notes {
				b.WriteString("- " + note + "\n")
			}
			b.WriteString("\n")
		}
	}

	// Layer 4 — Transcript
	b.WriteString("---TRANSCRIPT START---\n")
	b.WriteString(transcript)
	b.WriteString("\n---TRANSCRIPT END---\n")

	return b.String()
}

func writeBookList(b *strings.Builder, label string, books []models.BookRef) {
	if len(books) == 0 {
		return
	}
	if len(books) > maxContextBooks {
		books = books[:maxContextBooks]
	}
	b.WriteString(label + ":\n")
	for _, book := range books {
		b.WriteString("- " + book.Title)
		if book.Author != "" {
			b.WriteString(" by " + book.Author)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
