package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

const (
	elevenLabsEndpoint = "https://api.elevenlabs.io/v1/speech-to-text"
	elevenLabsModel    = "scribe_v2"
)

// ElevenLabsAdapter speaks the ElevenLabs Scribe batch API: multipart
// upload with an xi-api-key header.
type ElevenLabsAdapter struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewElevenLabsAdapter(apiKey string, timeout time.Duration) *ElevenLabsAdapter {
	return &ElevenLabsAdapter{
		apiKey:   apiKey,
		endpoint: elevenLabsEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (a *ElevenLabsAdapter) Name() string { return "elevenlabs" }

func (a *ElevenLabsAdapter) Transcribe(ctx context.Context, audio []byte, mimeType string) (Transcription, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("model_id", elevenLabsModel); err != nil {
		return Transcription{}, fmt.Errorf("failed to build multipart request: %w", err)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="audio"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return Transcription{}, fmt.Errorf("failed to build multipart request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return Transcription{}, fmt.Errorf("failed to build multipart request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Transcription{}, fmt.Errorf("failed to build multipart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, &body)
	if err != nil {
		return Transcription{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("xi-api-key", a.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.client.Do(req)
	if err != nil {
		return Transcription{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return Transcription{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet)
	}

	var parsed struct {
		Text                string  `json:"text"`
		LanguageProbability float64 `json:"language_probability"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Transcription{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return Transcription{Text: parsed.Text, Confidence: parsed.LanguageProbability}, nil
}
