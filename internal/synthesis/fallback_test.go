package synthesis

import (
	"strings"
	"testing"

	"github.com/misty-step/bibliomnomnom/internal/models"
)

func TestHeuristicInsightsFromOpeningSentences(t *testing.T) {
	transcript := "First thought here. Second thought follows! Third one too. Fourth is ignored for insights."

	artifacts := heuristicArtifacts(transcript, nil)

	if len(artifacts.Insights) != fallbackInsightCount {
		t.Fatalf("Expected %d insights, got %d", fallbackInsightCount, len(artifacts.Insights))
	}
	if artifacts.Insights[0].Title != "Reflection 1" {
		t.Errorf("Expected title 'Reflection 1', got %q", artifacts.Insights[0].Title)
	}
	if artifacts.Insights[0].Content != "First thought here." {
		t.Errorf("Expected first sentence as content, got %q", artifacts.Insights[0].Content)
	}
	if artifacts.Insights[2].Content != "Third one too." {
		t.Errorf("Expected third sentence, got %q", artifacts.Insights[2].Content)
	}
}

func TestHeuristicOpenQuestions(t *testing.T) {
	transcript := "I liked this part. But why did the author choose that framing? Also what about the ending?"

	artifacts := heuristicArtifacts(transcript, nil)

	if len(artifacts.OpenQuestions) != 2 {
		t.Fatalf("Expected 2 open questions, got %d: %v", len(artifacts.OpenQuestions), artifacts.OpenQuestions)
	}
	for _, q := range artifacts.OpenQuestions {
		if !strings.Contains(q, "?") {
			t.Errorf("Open question %q has no question mark", q)
		}
	}
}

func TestHeuristicQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			"straight quotes",
			`The author writes "the map is not the territory" early on.`,
			[]string{"the map is not the territory"},
		},
		{
			"curly quotes",
			"She says “we live inside stories we tell ourselves” in chapter two.",
			[]string{"we live inside stories we tell ourselves"},
		},
		{
			"too short ignored",
			`He said "yes" and moved on.`,
			nil,
		},
		{
			"no quotes",
			"Nothing quoted in this one at all.",
			nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			artifacts := heuristicArtifacts(tc.input, nil)
			if len(artifacts.Quotes) != len(tc.expected) {
				t.Fatalf("Expected %d quotes, got %d", len(tc.expected), len(artifacts.Quotes))
			}
			for i, want := range tc.expected {
				if artifacts.Quotes[i].Text != want {
					t.Errorf("Expected quote %q, got %q", want, artifacts.Quotes[i].Text)
				}
			}
		})
	}
}

func TestHeuristicFollowUpUsesBookTitle(t *testing.T) {
	sctx := &models.SynthesisContext{BookTitle: "Middlemarch"}

	artifacts := heuristicArtifacts("Some reflection.", sctx)

	if len(artifacts.FollowUpQuestions) != 1 {
		t.Fatalf("Expected 1 follow-up, got %d", len(artifacts.FollowUpQuestions))
	}
	if !strings.Contains(artifacts.FollowUpQuestions[0], "Middlemarch") {
		t.Errorf("Follow-up does not mention the book: %q", artifacts.FollowUpQuestions[0])
	}
}

func TestHeuristicFollowUpWithoutContext(t *testing.T) {
	artifacts := heuristicArtifacts("Some reflection.", nil)
	if len(artifacts.FollowUpQuestions) != 1 {
		t.Fatalf("Expected a generic follow-up, got %d", len(artifacts.FollowUpQuestions))
	}
}

func TestHeuristicContextExpansionNeedsTitleAndAuthor(t *testing.T) {
	tests := []struct {
		name     string
		sctx     *models.SynthesisContext
		expected int
	}{
		{"nil context", nil, 0},
		{"title only", &models.SynthesisContext{BookTitle: "Middlemarch"}, 0},
		{"title and author", &models.SynthesisContext{BookTitle: "Middlemarch", BookAuthor: "George Eliot"}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			artifacts := heuristicArtifacts("Some reflection.", tc.sctx)
			if len(artifacts.ContextExpansions) != tc.expected {
				t.Errorf("Expected %d context expansions, got %d", tc.expected, len(artifacts.ContextExpansions))
			}
			if tc.expected == 1 && artifacts.ContextExpansions[0].Title != "More from George Eliot" {
				t.Errorf("Unexpected expansion title %q", artifacts.ContextExpansions[0].Title)
			}
		})
	}
}

func TestHeuristicEmptyTranscript(t *testing.T) {
	artifacts := heuristicArtifacts("", nil)
	if len(artifacts.Insights) != 0 || len(artifacts.OpenQuestions) != 0 || len(artifacts.Quotes) != 0 {
		t.Error("Empty transcript should yield no transcript-derived artifacts")
	}
	if len(artifacts.FollowUpQuestions) != 1 {
		t.Error("Even an empty transcript gets a generic follow-up question")
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"terminators kept", "One. Two! Three?", []string{"One.", "Two!", "Three?"}},
		{"trailing fragment kept", "Done. and then some", []string{"Done.", "and then some"}},
		{"whitespace only", "   ", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := splitSentences(tc.input)
			if len(result) != len(tc.expected) {
				t.Fatalf("Expected %d sentences, got %d: %v", len(tc.expected), len(result), result)
			}
			for i, want := range tc.expected {
				if result[i] != want {
					t.Errorf("Sentence %d: expected %q, got %q", i, want, result[i])
				}
			}
		})
	}
}
