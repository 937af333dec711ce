package synthesis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/misty-step/bibliomnomnom/internal/models"
)

const fallbackInsightCount = 3

// quotedRegex matches straight or curly quoted spans of 12-200 characters.
var quotedRegex = regexp.MustCompile(`"([^"\n]{12,200})"|“([^”\n]{12,200})”`)

// heuristicArtifacts derives artifacts from the raw transcript with no
// network calls. It is the floor the engine can always stand on.
func heuristicArtifacts(transcript string, sctx *models.SynthesisContext) *models.SynthesisArtifacts {
	artifacts := &models.SynthesisArtifacts{}
	sentences := splitSentences(transcript)

	// The opening sentences become insights with generic titles.
	for i, sentence := range sentences {
		if i >= fallbackInsightCount {
			break
		}
		artifacts.Insights = append(artifacts.Insights, models.Insight{
			Title:   fmt.Sprintf("Reflection %d", i+1),
			Content: sentence,
		})
	}

	// Anything the reader phrased as a question.
	for _, sentence := range sentences {
		if strings.Contains(sentence, "?") {
			artifacts.OpenQuestions = append(artifacts.OpenQuestions, sentence)
		}
	}

	// Quoted spans are treated as passages read aloud.
	for _, match := range quotedRegex.FindAllStringSubmatch(transcript, -1) {
		text := match[1]
		if text == "" {
			text = match[2]
		}
		artifacts.Quotes = append(artifacts.Quotes, models.Quote{Text: text})
	}

	if sctx != nil && sctx.BookTitle != "" {
		artifacts.FollowUpQuestions = append(artifacts.FollowUpQuestions,
			fmt.Sprintf("How does this session change how you read the rest of %q?", sctx.BookTitle))
	} else {
		artifacts.FollowUpQuestions = append(artifacts.FollowUpQuestions,
			"Which idea from this session do you want to sit with before your next reading?")
	}

	if sctx != nil && sctx.BookTitle != "" && sctx.BookAuthor != "" {
		artifacts.ContextExpansions = append(artifacts.ContextExpansions, models.Insight{
			Title:   fmt.Sprintf("More from %s", sctx.BookAuthor),
			Content: fmt.Sprintf("Your reflections on %q may deepen by exploring how %s develops these themes elsewhere in their work.", sctx.BookTitle, sctx.BookAuthor),
		})
	}

	return artifacts
}

// splitSentences breaks text on sentence terminators, keeping the
// terminator with its sentence. Good enough for fallback segmentation.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
