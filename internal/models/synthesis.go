package models

// Per-array item ceilings and per-string character caps for synthesis
// output. Applied to both the LLM path and the heuristic fallback.
const (
	MaxInsights          = 8
	MaxOpenQuestions     = 8
	MaxQuotes            = 8
	MaxFollowUpQuestions = 8
	MaxContextExpansions = 6

	MaxTitleChars    = 140
	MaxContentChars  = 800
	MaxQuestionChars = 320
	MaxQuoteChars    = 500
	MaxSourceChars   = 200
)

type Insight struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Quote struct {
	Text   string  `json:"text"`
	Source *string `json:"source,omitempty"`
}

// SynthesisArtifacts is the structured result of a listening session.
// All five arrays empty is a valid bundle ("nothing extracted").
type SynthesisArtifacts struct {
	Insights          []Insight `json:"insights"`
	OpenQuestions     []string  `json:"openQuestions"`
	Quotes            []Quote   `json:"quotes"`
	FollowUpQuestions []string  `json:"followUpQuestions"`
	ContextExpansions []Insight `json:"contextExpansions"`
}

// Clamp enforces the item and character ceilings on every array.
// Clamping an already-clamped bundle is a no-op.
func (a *SynthesisArtifacts) Clamp() {
	if len(a.Insights) > MaxInsights {
		a.Insights = a.Insights[:MaxInsights]
	}
	for i := range a.Insights {
		a.Insights[i].Title = truncate(a.Insights[i].Title, MaxTitleChars)
		a.Insights[i].Content = truncate(a.Insights[i].Content, MaxContentChars)
	}

	if len(a.OpenQuestions) > MaxOpenQuestions {
		a.OpenQuestions = a.OpenQuestions[:MaxOpenQuestions]
	}
	for i := range a.OpenQuestions {
		a.OpenQuestions[i] = truncate(a.OpenQuestions[i], MaxQuestionChars)
	}

	if len(a.Quotes) > MaxQuotes {
		a.Quotes = a.Quotes[:MaxQuotes]
	}
	for i := range a.Quotes {
		a.Quotes[i].Text = truncate(a.Quotes[i].Text, MaxQuoteChars)
		if a.Quotes[i].Source != nil {
			src := truncate(*a.Quotes[i].Source, MaxSourceChars)
			a.Quotes[i].Source = &src
		}
	}

	if len(a.FollowUpQuestions) > MaxFollowUpQuestions {
		a.FollowUpQuestions = a.FollowUpQuestions[:MaxFollowUpQuestions]
	}
	for i := range a.FollowUpQuestions {
		a.FollowUpQuestions[i] = truncate(a.FollowUpQuestions[i], MaxQuestionChars)
	}

	if len(a.ContextExpansions) > MaxContextExpansions {
		a.ContextExpansions = a.ContextExpansions[:MaxContextExpansions]
	}
	for i := range a.ContextExpansions {
		a.ContextExpansions[i].Title = truncate(a.ContextExpansions[i].Title, MaxTitleChars)
		a.ContextExpansions[i].Content = truncate(a.ContextExpansions[i].Content, MaxContentChars)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
