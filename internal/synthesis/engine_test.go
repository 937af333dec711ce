package synthesis

import (
	"context"
	"strings"
	"testing"

	"github.com/misty-step/bibliomnomnom/internal/models"
)

func TestNewEngineWithoutAPIKey(t *testing.T) {
	engine, err := NewEngine(context.Background(), Config{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer engine.Close()

	if engine.Configured() {
		t.Error("Engine without an API key should not report the LLM path as configured")
	}
}

func TestSynthesizeUsesHeuristicWhenUnconfigured(t *testing.T) {
	engine, err := NewEngine(context.Background(), Config{Models: []string{"gemini-3-flash-preview"}})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer engine.Close()

	transcript := "The framing device really works. Why does the narrator withhold the letter?"
	artifacts, usedLLM := engine.Synthesize(context.Background(), transcript, nil)

	if usedLLM {
		t.Error("Expected heuristic path, got LLM")
	}
	if artifacts == nil {
		t.Fatal("Synthesize must always return artifacts")
	}
	if len(artifacts.Insights) == 0 {
		t.Error("Heuristic produced no insights from a non-empty transcript")
	}
	if len(artifacts.OpenQuestions) != 1 {
		t.Errorf("Expected 1 open question, got %d", len(artifacts.OpenQuestions))
	}
}

func TestClampTranscript(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"short untouched", "hello", 5},
		{"at budget untouched", strings.Repeat("a", MaxTranscriptChars), MaxTranscriptChars},
		{"over budget cut", strings.Repeat("a", MaxTranscriptChars+5_000), MaxTranscriptChars},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ClampTranscript(tc.input)
			if len([]rune(result)) != tc.expected {
				t.Errorf("Expected %d runes, got %d", tc.expected, len([]rune(result)))
			}
		})
	}
}

func TestClampTranscriptRuneSafe(t *testing.T) {
	input := strings.Repeat("é", MaxTranscriptChars+100)
	result := ClampTranscript(input)
	for _, r := range result {
		if r != 'é' {
			t.Fatalf("Clamp corrupted rune: %q", r)
		}
	}
	if len([]rune(result)) != MaxTranscriptChars {
		t.Errorf("Expected %d runes, got %d", MaxTranscriptChars, len([]rune(result)))
	}
}

func TestBuildPromptIncludesTranscriptAndRules(t *testing.T) {
	prompt := buildPrompt("my spoken reflections", nil)

	for _, want := range []string{
		"---TRANSCRIPT START---",
		"my spoken reflections",
		"---TRANSCRIPT END---",
		"NEVER fabricate",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestBuildPromptContextSections(t *testing.T) {
	sctx := &models.SynthesisContext{
		BookTitle:        "Middlemarch",
		BookAuthor:       "George Eliot",
		BookDescription:  "A study of provincial life.",
		CurrentlyReading: []models.BookRef{{Title: "Bleak House", Author: "Charles Dickens"}},
		RecentNotes:      []string{"Dorothea's idealism is tested early."},
	}

	prompt := buildPrompt("transcript text", sctx)

	for _, want := range []string{
		"Current book: Middlemarch by George Eliot",
		"A study of provincial life.",
		"Currently reading:",
		"Bleak House by Charles Dickens",
		"Recent notes on this book:",
		"Dorothea's idealism is tested early.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestBuildPromptCapsContextLists(t *testing.T) {
	sctx := &models.SynthesisContext{}
	for i := 0; i < 10; i++ {
		sctx.CurrentlyReading = append(sctx.CurrentlyReading, models.BookRef{Title: "Book"})
		sctx.RecentNotes = append(sctx.RecentNotes, "note")
	}

	prompt := buildPrompt("t", sctx)

	if got := strings.Count(prompt, "- Book"); got != maxContextBooks {
		t.Errorf("Expected %d book lines, got %d", maxContextBooks, got)
	}
	if got := strings.Count(prompt, "- note"); got != maxContextNotes {
		t.Errorf("Expected %d note lines, got %d", maxContextNotes, got)
	}
}
