package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestElevenLabsTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("Expected xi-api-key header, got %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Expected multipart body: %v", err)
		}
		if got := r.FormValue("model_id"); got != "scribe_v2" {
			t.Errorf("Expected model_id scribe_v2, got %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("Expected file part: %v", err)
		}
		defer file.Close()
		if got := header.Header.Get("Content-Type"); got != "audio/webm" {
			t.Errorf("Expected file part content type audio/webm, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "hello from scribe", "language_probability": 0.97}`))
	}))
	defer srv.Close()

	a := NewElevenLabsAdapter("test-key", 5*time.Second)
	a.endpoint = srv.URL

	result, err := a.Transcribe(context.Background(), []byte("audio bytes"), "audio/webm")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "hello from scribe" {
		t.Errorf("Expected transcript, got %q", result.Text)
	}
	if result.Confidence != 0.97 {
		t.Errorf("Expected confidence 0.97, got %f", result.Confidence)
	}
}

func TestElevenLabsTranscribeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	a := NewElevenLabsAdapter("test-key", 5*time.Second)
	a.endpoint = srv.URL

	_, err := a.Transcribe(context.Background(), []byte("audio"), "audio/webm")
	if err == nil {
		t.Fatal("Expected an error for HTTP 429")
	}
}

func TestDeepgramTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("Expected Token auth, got %q", got)
		}
		q := r.URL.Query()
		if q.Get("model") != "nova-3" || q.Get("punctuate") != "true" || q.Get("smart_format") != "true" {
			t.Errorf("Unexpected query parameters: %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Content-Type"); got != "audio/mpeg" {
			t.Errorf("Expected raw body content type audio/mpeg, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": {"channels": [{"alternatives": [
				{"transcript": "hello from nova", "confidence": 0.91}
			]}]}
		}`))
	}))
	defer srv.Close()

	a := NewDeepgramAdapter("test-key", 5*time.Second)
	a.endpoint = srv.URL

	result, err := a.Transcribe(context.Background(), []byte("audio bytes"), "audio/mpeg")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "hello from nova" {
		t.Errorf("Expected transcript, got %q", result.Text)
	}
	if result.Confidence != 0.91 {
		t.Errorf("Expected confidence 0.91, got %f", result.Confidence)
	}
}

func TestDeepgramTranscribeEmptyAlternatives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": {"channels": []}}`))
	}))
	defer srv.Close()

	a := NewDeepgramAdapter("test-key", 5*time.Second)
	a.endpoint = srv.URL

	_, err := a.Transcribe(context.Background(), []byte("audio"), "audio/webm")
	if err == nil {
		t.Fatal("Expected an error for a response with no alternatives")
	}
}
