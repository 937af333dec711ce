// Package synthesis turns a session transcript into structured reading
// artifacts. The engine never fails: when the LLM path is unavailable or
// misbehaves it degrades to a deterministic heuristic built from the raw
// transcript.
package synthesis

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/misty-step/bibliomnomnom/internal/models"
)

// MaxTranscriptChars is the character budget for transcript text sent to
// the LLM. Longer transcripts are cut here before prompting.
const MaxTranscriptChars = 24_000

// Config is the explicit provider configuration for the engine. An empty
// APIKey disables the LLM path entirely; the engine then always answers
// from the heuristic.
type Config struct {
	APIKey string
	// Models is tried in order; later entries are fallbacks for the
	// preferred model.
	Models []string
}

type Engine struct {
	client *genai.Client
	models []string
}

// NewEngine builds the engine. Construction only fails on client setup;
// a missing credential is not an error, just a disabled LLM path.
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	names := cfg.Models
	if len(names) == 0 {
		names = []string{"gemini-3-flash-preview"}
	}

	if cfg.APIKey == "" {
		return &Engine{models: names}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Engine{client: client, models: names}, nil
}

func (e *Engine) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

// Configured reports whether the LLM path is available.
func (e *Engine) Configured() bool { return e.client != nil }

// Synthesize produces artifacts from a transcript. The second return
// value reports whether the LLM path produced the result; it exists for
// telemetry only — both paths are acceptable completions.
func (e *Engine) Synthesize(ctx context.Context, transcript string, sctx *models.SynthesisContext) (*models.SynthesisArtifacts, bool) {
	transcript = ClampTranscript(transcript)

	if e.client != nil {
		artifacts, err := e.generate(ctx, transcript, sctx)
		if err == nil {
			artifacts.Clamp()
			return artifacts, true
		}
		log.Printf("LLM synthesis failed, using heuristic fallback: %v", err)
	}

	artifacts := heuristicArtifacts(transcript, sctx)
	artifacts.Clamp()
	return artifacts, false
}

// generate is the fallible LLM unit: prompt, call, parse, validate. Any
// error from any stage means "fall back".
func (e *Engine) generate(ctx context.Context, transcript string, sctx *models.SynthesisContext) (*models.SynthesisArtifacts, error) {
	prompt := buildPrompt(transcript, sctx)

	var lastErr error
	for _, name := range e.models {
		model := e.client.GenerativeModel(name)
		model.SetTemperature(0.3)
		model.SetTopP(0.95)
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = artifactsSchema

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			lastErr = fmt.Errorf("model %s: %w", name, err)
			continue
		}

		raw := extractText(resp)
		artifacts, err := parseArtifacts(raw)
		if err != nil {
			lastErr = fmt.Errorf("model %s: %w", name, err)
			continue
		}
		return artifacts, nil
	}

	return nil, lastErr
}

// ClampTranscript cuts a transcript to the synthesis character budget.
func ClampTranscript(transcript string) string {
	if len(transcript) <= MaxTranscriptChars {
		return transcript
	}
	r := []rune(transcript)
	if len(r) <= MaxTranscriptChars {
		return transcript
	}
	return string(r[:MaxTranscriptChars])
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
