// Package stt abstracts batch speech-to-text providers behind a single
// transcribe contract. The gateway tries configured adapters in order and
// succeeds on the first non-empty transcript.
package stt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrNoProviderConfigured is returned when the gateway holds no adapters,
// before any network call is made.
var ErrNoProviderConfigured = errors.New("no speech-to-text provider configured")

// Transcription is the normalized per-adapter result. Confidence is 0 when
// the provider does not report one; no threshold is applied either way.
type Transcription struct {
	Text       string
	Confidence float64
}

// Adapter is one speech-to-text backend. Each adapter owns its request
// shaping (auth header, multipart vs. raw body, model selection) but must
// return normalized results and errors the gateway can aggregate.
type Adapter interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, mimeType string) (Transcription, error)
}

// Result is the gateway's output: the cleaned transcript plus which
// provider produced it.
type Result struct {
	Transcript string
	Provider   string
	Confidence float64
}

type Gateway struct {
	adapters []Adapter
}

// NewGateway builds a gateway over the given adapters, in fallback order.
// Only adapters with credentials configured should be passed in.
func NewGateway(adapters ...Adapter) *Gateway {
	return &Gateway{adapters: adapters}
}

// Providers returns the configured adapter names in order.
func (g *Gateway) Providers() []string {
	names := make([]string, len(g.adapters))
	for i, a := range g.adapters {
		names[i] = a.Name()
	}
	return names
}

// Transcribe runs the adapters in order and returns the first non-empty
// transcript. When every adapter fails, the returned error carries each
// provider's failure reason, not just the last one.
func (g *Gateway) Transcribe(ctx context.Context, audio []byte, mimeType string) (*Result, error) {
	if len(g.adapters) == 0 {
		return nil, ErrNoProviderConfigured
	}

	var failures []string
	for _, adapter := range g.adapters {
		t, err := adapter.Transcribe(ctx, audio, mimeType)
		if err != nil {
			log.Printf("STT provider %s failed: %v", adapter.Name(), err)
			failures = append(failures, fmt.Sprintf("%s: %v", adapter.Name(), err))
			continue
		}

		cleaned := CleanTranscript(t.Text)
		if cleaned == "" {
			failures = append(failures, fmt.Sprintf("%s: returned empty transcript", adapter.Name()))
			continue
		}

		return &Result{
			Transcript: cleaned,
			Provider:   adapter.Name(),
			Confidence: t.Confidence,
		}, nil
	}

	return nil, fmt.Errorf("all speech-to-text providers failed: %s", strings.Join(failures, "; "))
}

// CleanTranscript trims trailing whitespace from each line, collapses runs
// of blank lines to a single blank line, and trims the result.
func CleanTranscript(text string) string {
	lines := strings.Split(text, "\n")

	var out []string
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
