// Package worker runs the listening-session processing pipeline: fetch
// audio, transcribe, synthesize, complete — with bounded scheduled retries
// on transient failures.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/misty-step/bibliomnomnom/internal/audio"
	"github.com/misty-step/bibliomnomnom/internal/models"
	"github.com/misty-step/bibliomnomnom/internal/session"
	"github.com/misty-step/bibliomnomnom/internal/stt"
	"github.com/misty-step/bibliomnomnom/internal/synthesis"
)

// MaxAttempts is the retry ceiling. Once retryCount reaches it the
// session is forced to failed and never re-enters an in-progress status.
const MaxAttempts = 3

// backoffSchedule is the delay before each scheduled retry. Attempts past
// the end of the schedule use the last entry.
var backoffSchedule = []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}

// Failure messages persisted on the session.
const (
	msgNoEntitlement = "Subscription required for voice session processing"
	msgRetryExceeded = "Listening session exceeded retry limit"
	msgNoAudio       = "Listening session has no audio recording"
)

// Pipeline stage names recorded on failure.
const (
	stageTranscription = "transcription"
	stageSynthesis     = "synthesis"
	stageCompletion    = "completion"
)

// Narrow collaborator interfaces so tests can substitute in-memory fakes.

type AudioFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (*stt.Result, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, transcript string, sctx *models.SynthesisContext) (*models.SynthesisArtifacts, bool)
}

type EntitlementChecker interface {
	HasAccess(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Scheduler interface {
	RunAfter(ctx context.Context, delay time.Duration, sessionID uuid.UUID, attempt int) error
}

type ContextBuilder interface {
	Build(ctx context.Context, userID, bookID uuid.UUID) (*models.SynthesisContext, error)
}

type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

// Processor is the orchestrator invoked with {sessionID, attempt}. All
// session mutation goes through the state machine; the guards there make
// duplicate or stale invocations harmless.
type Processor struct {
	store     session.Store
	machine   *session.Machine
	entitle   EntitlementChecker
	fetcher   AudioFetcher
	gateway   Transcriber
	engine    Synthesizer
	contexts  ContextBuilder
	scheduler Scheduler
	publisher Publisher // optional
}

func NewProcessor(
	store session.Store,
	machine *session.Machine,
	entitle EntitlementChecker,
	fetcher AudioFetcher,
	gateway Transcriber,
	engine Synthesizer,
	contexts ContextBuilder,
	scheduler Scheduler,
	publisher Publisher,
) *Processor {
	return &Processor{
		store:     store,
		machine:   machine,
		entitle:   entitle,
		fetcher:   fetcher,
		gateway:   gateway,
		engine:    engine,
		contexts:  contexts,
		scheduler: scheduler,
		publisher: publisher,
	}
}

// Process drives one session through transcription and synthesis. It is
// safe to invoke more than once for the same session: finished or
// not-yet-ready sessions exit as a no-op.
func (p *Processor) Process(ctx context.Context, sessionID uuid.UUID, attempt int) error {
	s, err := p.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			log.Printf("Session %s not found, skipping", sessionID)
			return nil
		}
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	if s.Status != models.StatusTranscribing && s.Status != models.StatusSynthesizing {
		log.Printf("Session %s is %s, nothing to process", s.ID, s.Status)
		return nil
	}

	stage := stageTranscription
	if s.Status == models.StatusSynthesizing {
		stage = stageSynthesis
	}

	entitled, err := p.entitle.HasAccess(ctx, s.UserID)
	if err != nil {
		return p.retryOrFail(ctx, s, attempt, stage, fmt.Errorf("entitlement check failed: %w", err))
	}
	if !entitled {
		p.failSession(ctx, s, msgNoEntitlement, nil)
		return nil
	}

	if s.RetryCount >= MaxAttempts {
		p.failSession(ctx, s, msgRetryExceeded, nil)
		return nil
	}

	// Transcription. A retry that already persisted a transcript resumes
	// past this block instead of re-transcribing.
	if s.Transcript == "" {
		if s.AudioURL == nil || *s.AudioURL == "" {
			p.failSession(ctx, s, msgNoAudio, strPtr(stageTranscription))
			return nil
		}

		p.publishStatus(ctx, s, 1, "Transcribing audio")

		result, err := p.transcribe(ctx, s)
		if err != nil {
			if !retryable(err) {
				p.failSession(ctx, s, err.Error(), strPtr(stageTranscription))
				return nil
			}
			return p.retryOrFail(ctx, s, attempt, stageTranscription, err)
		}

		if err := p.machine.MarkSynthesizing(ctx, s, result.Transcript, result.Provider); err != nil {
			var invalid *session.InvalidTransitionError
			if errors.As(err, &invalid) {
				// Session moved under us; discard this result.
				log.Printf("Session %s: %v, discarding transcript", s.ID, err)
				return nil
			}
			return p.retryOrFail(ctx, s, attempt, stageTranscription, err)
		}
	}

	// Synthesis never fails; the engine degrades to its heuristic path.
	p.publishStatus(ctx, s, 2, "Synthesizing insights")

	sctx := p.buildContext(ctx, s)
	artifacts, usedLLM := p.engine.Synthesize(ctx, synthesis.ClampTranscript(s.Transcript), sctx)
	if usedLLM {
		log.Printf("Session %s synthesized via LLM", s.ID)
	} else {
		log.Printf("Session %s synthesized via heuristic fallback", s.ID)
	}

	if err := p.machine.Complete(ctx, s, "", "", artifacts); err != nil {
		var invalid *session.InvalidTransitionError
		if errors.As(err, &invalid) {
			log.Printf("Session %s: %v, discarding synthesis", s.ID, err)
			return nil
		}
		return p.retryOrFail(ctx, s, attempt, stageCompletion, err)
	}

	if p.publisher != nil && s.RawNoteID != nil {
		p.publisher.Publish(ctx, s.UserID, models.WSMessage{
			Type: models.EventCompleted,
			Payload: models.CompletedEvent{
				SessionID: s.ID,
				RawNoteID: *s.RawNoteID,
				UsedLLM:   usedLLM,
			},
		})
	}

	log.Printf("Session %s completed (provider: %s)", s.ID, s.TranscriptProvider)
	return nil
}

func (p *Processor) transcribe(ctx context.Context, s *models.ListeningSession) (*stt.Result, error) {
	data, fetchedMime, err := p.fetcher.Fetch(ctx, *s.AudioURL)
	if err != nil {
		return nil, err
	}

	mimeType := fetchedMime
	if s.MimeType != nil && *s.MimeType != "" {
		mimeType = audio.NormalizeMimeType(*s.MimeType)
	}

	return p.gateway.Transcribe(ctx, data, mimeType)
}

func (p *Processor) buildContext(ctx context.Context, s *models.ListeningSession) *models.SynthesisContext {
	if p.contexts == nil {
		return nil
	}
	sctx, err := p.contexts.Build(ctx, s.UserID, s.BookID)
	if err != nil {
		// Context only enriches the prompt; synthesis proceeds without it.
		log.Printf("Session %s: failed to build synthesis context: %v", s.ID, err)
		return nil
	}
	return sctx
}

// retryOrFail is the single policy for transient failures: bump the retry
// counter, then either schedule a future re-invocation or, at the
// ceiling, fail the session synchronously.
func (p *Processor) retryOrFail(ctx context.Context, s *models.ListeningSession, attempt int, stage string, cause error) error {
	if err := p.machine.IncrementRetry(ctx, s); err != nil {
		log.Printf("Session %s: failed to record retry: %v", s.ID, err)
	}

	if s.RetryCount >= MaxAttempts {
		log.Printf("Session %s failed permanently after %d attempts: %v", s.ID, s.RetryCount, cause)
		p.failSession(ctx, s, cause.Error(), strPtr(stage))
		return nil
	}

	delay := backoffSchedule[len(backoffSchedule)-1]
	if idx := s.RetryCount - 1; idx >= 0 && idx < len(backoffSchedule) {
		delay = backoffSchedule[idx]
	}

	if err := p.scheduler.RunAfter(ctx, delay, s.ID, attempt+1); err != nil {
		return fmt.Errorf("failed to schedule retry for session %s: %w", s.ID, err)
	}

	log.Printf("Session %s failed (attempt %d): %v, retrying in %s", s.ID, attempt, cause, delay)
	if p.publisher != nil {
		p.publisher.Publish(ctx, s.UserID, models.WSMessage{
			Type: models.EventError,
			Payload: models.ErrorEvent{
				SessionID:    s.ID,
				ErrorCode:    "PROCESSING_RETRY",
				ErrorMessage: cause.Error(),
				WillRetry:    true,
			},
		})
	}
	return nil
}

func (p *Processor) failSession(ctx context.Context, s *models.ListeningSession, message string, stage *string) {
	if err := p.machine.Fail(ctx, s, message, stage); err != nil {
		log.Printf("Session %s: failed to mark failed: %v", s.ID, err)
		return
	}
	if p.publisher != nil {
		p.publisher.Publish(ctx, s.UserID, models.WSMessage{
			Type: models.EventError,
			Payload: models.ErrorEvent{
				SessionID:    s.ID,
				ErrorCode:    "PROCESSING_FAILED",
				ErrorMessage: message,
				WillRetry:    false,
			},
		})
	}
}

func (p *Processor) publishStatus(ctx context.Context, s *models.ListeningSession, step int, name string) {
	if p.publisher == nil {
		return
	}
	p.publisher.Publish(ctx, s.UserID, models.WSMessage{
		Type: models.EventStatusUpdate,
		Payload: models.StatusUpdate{
			SessionID: s.ID,
			Status:    s.Status,
			Step:      step,
			StepName:  name,
		},
	})
}

// retryable classifies failures. Configuration and input errors cannot be
// fixed by retrying; everything else is assumed transient.
func retryable(err error) bool {
	switch {
	case errors.Is(err, audio.ErrUntrustedSource),
		errors.Is(err, audio.ErrPayloadTooLarge),
		errors.Is(err, audio.ErrEmptyPayload),
		errors.Is(err, stt.ErrNoProviderConfigured):
		return false
	}
	return true
}

func strPtr(s string) *string { return &s }
