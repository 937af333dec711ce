package stt

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubAdapter struct {
	name   string
	result Transcription
	err    error
	calls  int
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Transcribe(_ context.Context, _ []byte, _ string) (Transcription, error) {
	s.calls++
	return s.result, s.err
}

func TestTranscribeNoProviderConfigured(t *testing.T) {
	g := NewGateway()
	_, err := g.Transcribe(context.Background(), []byte("audio"), "audio/webm")
	if !errors.Is(err, ErrNoProviderConfigured) {
		t.Errorf("Expected ErrNoProviderConfigured, got %v", err)
	}
}

func TestTranscribeUsesPrimaryFirst(t *testing.T) {
	primary := &stubAdapter{name: "elevenlabs", result: Transcription{Text: "from primary", Confidence: 0.92}}
	secondary := &stubAdapter{name: "deepgram", result: Transcription{Text: "from secondary"}}
	g := NewGateway(primary, secondary)

	result, err := g.Transcribe(context.Background(), []byte("audio"), "audio/webm")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Provider != "elevenlabs" {
		t.Errorf("Expected provider elevenlabs, got %s", result.Provider)
	}
	if result.Transcript != "from primary" {
		t.Errorf("Expected primary transcript, got %q", result.Transcript)
	}
	if result.Confidence != 0.92 {
		t.Errorf("Expected confidence 0.92, got %f", result.Confidence)
	}
	if secondary.calls != 0 {
		t.Errorf("Secondary called %d times despite primary success", secondary.calls)
	}
}

func TestTranscribeFallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		primary *stubAdapter
	}{
		{"primary errors", &stubAdapter{name: "elevenlabs", err: errors.New("HTTP 503")}},
		{"primary returns empty", &stubAdapter{name: "elevenlabs", result: Transcription{Text: "  \n \n "}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			secondary := &stubAdapter{name: "deepgram", result: Transcription{Text: "fallback transcript", Confidence: 0.8}}
			g := NewGateway(tc.primary, secondary)

			result, err := g.Transcribe(context.Background(), []byte("audio"), "audio/webm")
			if err != nil {
				t.Fatalf("Transcribe failed: %v", err)
			}
			if result.Provider != "deepgram" {
				t.Errorf("Expected provider deepgram, got %s", result.Provider)
			}
			if result.Transcript != "fallback transcript" {
				t.Errorf("Expected fallback transcript, got %q", result.Transcript)
			}
		})
	}
}

func TestTranscribeAggregatesAllFailures(t *testing.T) {
	g := NewGateway(
		&stubAdapter{name: "elevenlabs", err: errors.New("HTTP 401")},
		&stubAdapter{name: "deepgram", err: errors.New("connection refused")},
	)

	_, err := g.Transcribe(context.Background(), []byte("audio"), "audio/webm")
	if err == nil {
		t.Fatal("Expected an aggregate error")
	}
	for _, want := range []string{"elevenlabs: HTTP 401", "deepgram: connection refused"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Aggregate error %q missing %q", err.Error(), want)
		}
	}
}

func TestProviders(t *testing.T) {
	g := NewGateway(&stubAdapter{name: "elevenlabs"}, &stubAdapter{name: "deepgram"})
	names := g.Providers()
	if len(names) != 2 || names[0] != "elevenlabs" || names[1] != "deepgram" {
		t.Errorf("Unexpected provider order: %v", names)
	}
}

func TestCleanTranscript(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"trailing spaces trimmed", "hello   \nworld\t", "hello\nworld"},
		{"carriage returns trimmed", "hello\r\nworld\r", "hello\nworld"},
		{"blank runs collapsed", "a\n\n\n\nb", "a\n\nb"},
		{"leading and trailing blanks removed", "\n\n a \n\n", "a"},
		{"only whitespace becomes empty", "  \n\t\n ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := CleanTranscript(tc.input)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}
