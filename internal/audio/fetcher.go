// Package audio retrieves recorded session audio from the trusted storage
// origin. It performs network I/O only; nothing here persists state.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUntrustedSource is returned for non-http(s) URLs and for hosts
	// outside the configured storage origin.
	ErrUntrustedSource = errors.New("audio URL is not from the trusted storage origin")

	// ErrPayloadTooLarge is returned as soon as either the declared
	// Content-Length or the running byte count exceeds the ceiling.
	ErrPayloadTooLarge = errors.New("audio payload exceeds the size ceiling")

	// ErrEmptyPayload is returned when the origin serves zero bytes.
	ErrEmptyPayload = errors.New("audio payload is empty")
)

// FallbackMimeType is used when the origin's content-type is absent or not
// a recognized audio type. Browser MediaRecorder uploads default to webm.
const FallbackMimeType = "audio/webm"

// knownAudioTypes maps recognized content types to their canonical form.
var knownAudioTypes = map[string]string{
	"audio/webm":   "audio/webm",
	"audio/mpeg":   "audio/mpeg",
	"audio/mp3":    "audio/mpeg",
	"audio/mp4":    "audio/mp4",
	"audio/m4a":    "audio/mp4",
	"audio/x-m4a":  "audio/mp4",
	"audio/aac":    "audio/aac",
	"audio/wav":    "audio/wav",
	"audio/x-wav":  "audio/wav",
	"audio/wave":   "audio/wav",
	"audio/ogg":    "audio/ogg",
	"audio/opus":   "audio/ogg",
	"audio/flac":   "audio/flac",
	"audio/x-flac": "audio/flac",
}

type Fetcher struct {
	client   *http.Client
	origin   string // storage host; subdomains allowed
	maxBytes int64
}

func NewFetcher(origin string, maxBytes int64, timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		origin:   strings.ToLower(origin),
		maxBytes: maxBytes,
	}
}

// Fetch downloads the audio at rawURL and returns its bytes and normalized
// MIME type. The body is streamed against the byte ceiling rather than
// buffered first, so an oversized payload aborts early.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := f.checkOrigin(rawURL); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build audio request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("audio fetch returned HTTP %d", resp.StatusCode)
	}

	if resp.ContentLength > f.maxBytes {
		return nil, "", fmt.Errorf("declared length %d bytes: %w", resp.ContentLength, ErrPayloadTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read audio body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", fmt.Errorf("body exceeded %d bytes: %w", f.maxBytes, ErrPayloadTooLarge)
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyPayload
	}

	return data, NormalizeMimeType(resp.Header.Get("Content-Type")), nil
}

func (f *Fetcher) checkOrigin(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s: %w", rawURL, ErrUntrustedSource)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q: %w", u.Scheme, ErrUntrustedSource)
	}

	host := strings.ToLower(u.Hostname())
	if host != f.origin && !strings.HasSuffix(host, "."+f.origin) {
		return fmt.Errorf("host %q: %w", host, ErrUntrustedSource)
	}
	return nil
}

// NormalizeMimeType reduces a content-type header to a canonical audio
// MIME type, falling back to FallbackMimeType for anything unrecognized.
func NormalizeMimeType(contentType string) string {
	if contentType == "" {
		return FallbackMimeType
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FallbackMimeType
	}
	if canonical, ok := knownAudioTypes[strings.ToLower(mediaType)]; ok {
		return canonical
	}
	return FallbackMimeType
}
