package models

import (
	"reflect"
	"strings"
	"testing"
)

func TestClampItemCounts(t *testing.T) {
	a := &SynthesisArtifacts{}
	for i := 0; i < 20; i++ {
		a.Insights = append(a.Insights, Insight{Title: "t", Content: "c"})
		a.OpenQuestions = append(a.OpenQuestions, "q?")
		a.Quotes = append(a.Quotes, Quote{Text: "some quoted text"})
		a.FollowUpQuestions = append(a.FollowUpQuestions, "next?")
		a.ContextExpansions = append(a.ContextExpansions, Insight{Title: "t", Content: "c"})
	}

	a.Clamp()

	if len(a.Insights) != MaxInsights {
		t.Errorf("Expected %d insights, got %d", MaxInsights, len(a.Insights))
	}
	if len(a.OpenQuestions) != MaxOpenQuestions {
		t.Errorf("Expected %d open questions, got %d", MaxOpenQuestions, len(a.OpenQuestions))
	}
	if len(a.Quotes) != MaxQuotes {
		t.Errorf("Expected %d quotes, got %d", MaxQuotes, len(a.Quotes))
	}
	if len(a.FollowUpQuestions) != MaxFollowUpQuestions {
		t.Errorf("Expected %d follow-ups, got %d", MaxFollowUpQuestions, len(a.FollowUpQuestions))
	}
	if len(a.ContextExpansions) != MaxContextExpansions {
		t.Errorf("Expected %d context expansions, got %d", MaxContextExpansions, len(a.ContextExpansions))
	}
}

func TestClampStringLengths(t *testing.T) {
	long := strings.Repeat("x", 2000)
	src := long

	a := &SynthesisArtifacts{
		Insights:          []Insight{{Title: long, Content: long}},
		OpenQuestions:     []string{long},
		Quotes:            []Quote{{Text: long, Source: &src}},
		FollowUpQuestions: []string{long},
		ContextExpansions: []Insight{{Title: long, Content: long}},
	}

	a.Clamp()

	if len(a.Insights[0].Title) != MaxTitleChars {
		t.Errorf("Expected title of %d chars, got %d", MaxTitleChars, len(a.Insights[0].Title))
	}
	if len(a.Insights[0].Content) != MaxContentChars {
		t.Errorf("Expected content of %d chars, got %d", MaxContentChars, len(a.Insights[0].Content))
	}
	if len(a.OpenQuestions[0]) != MaxQuestionChars {
		t.Errorf("Expected question of %d chars, got %d", MaxQuestionChars, len(a.OpenQuestions[0]))
	}
	if len(a.Quotes[0].Text) != MaxQuoteChars {
		t.Errorf("Expected quote of %d chars, got %d", MaxQuoteChars, len(a.Quotes[0].Text))
	}
	if len(*a.Quotes[0].Source) != MaxSourceChars {
		t.Errorf("Expected source of %d chars, got %d", MaxSourceChars, len(*a.Quotes[0].Source))
	}
}

func TestClampIsIdempotent(t *testing.T) {
	long := strings.Repeat("y", 1000)

	a := &SynthesisArtifacts{
		Insights:          []Insight{{Title: long, Content: long}, {Title: "short", Content: "fine"}},
		OpenQuestions:     []string{long, "short?"},
		Quotes:            []Quote{{Text: long}},
		FollowUpQuestions: []string{long},
		ContextExpansions: []Insight{{Title: long, Content: long}},
	}

	a.Clamp()
	first := *a
	firstInsights := append([]Insight(nil), a.Insights...)

	a.Clamp()

	if !reflect.DeepEqual(first.OpenQuestions, a.OpenQuestions) ||
		!reflect.DeepEqual(firstInsights, a.Insights) ||
		!reflect.DeepEqual(first.Quotes, a.Quotes) ||
		!reflect.DeepEqual(first.FollowUpQuestions, a.FollowUpQuestions) ||
		!reflect.DeepEqual(first.ContextExpansions, a.ContextExpansions) {
		t.Error("Clamping an already-clamped bundle changed it")
	}
}

func TestEmptyBundleIsValid(t *testing.T) {
	a := &SynthesisArtifacts{}
	a.Clamp()

	if len(a.Insights) != 0 || len(a.OpenQuestions) != 0 || len(a.Quotes) != 0 ||
		len(a.FollowUpQuestions) != 0 || len(a.ContextExpansions) != 0 {
		t.Error("Clamping an empty bundle should leave it empty")
	}
}

func TestTruncatePreservesRuneBoundaries(t *testing.T) {
	s := strings.Repeat("é", MaxTitleChars+10)
	a := &SynthesisArtifacts{Insights: []Insight{{Title: s, Content: "c"}}}
	a.Clamp()

	got := []rune(a.Insights[0].Title)
	if len(got) != MaxTitleChars {
		t.Errorf("Expected %d runes, got %d", MaxTitleChars, len(got))
	}
	for _, r := range got {
		if r != 'é' {
			t.Fatalf("Truncation corrupted rune: %q", r)
		}
	}
}
