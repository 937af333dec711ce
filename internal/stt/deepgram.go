package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	deepgramEndpoint = "https://api.deepgram.com/v1/listen"
	deepgramModel    = "nova-3"
)

// DeepgramAdapter speaks the Deepgram pre-recorded API: raw audio body
// with Token auth and model options as query parameters.
type DeepgramAdapter struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewDeepgramAdapter(apiKey string, timeout time.Duration) *DeepgramAdapter {
	return &DeepgramAdapter{
		apiKey:   apiKey,
		endpoint: deepgramEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (a *DeepgramAdapter) Name() string { return "deepgram" }

func (a *DeepgramAdapter) Transcribe(ctx context.Context, audio []byte, mimeType string) (Transcription, error) {
	params := url.Values{
		"model":        {deepgramModel},
		"punctuate":    {"true"},
		"smart_format": {"true"},
		"diarize":      {"false"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"?"+params.Encode(), bytes.NewReader(audio))
	if err != nil {
		return Transcription{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+a.apiKey)
	req.Header.Set("Content-Type", mimeType)

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
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string  `json:"transcript"`
					Confidence float64 `json:"confidence"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Transcription{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return Transcription{}, fmt.Errorf("unexpected response shape: no alternatives")
	}

	alt := parsed.Results.Channels[0].Alternatives[0]
	return Transcription{Text: alt.Transcript, Confidence: alt.Confidence}, nil
}
