package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/misty-step/bibliomnomnom/internal/middleware"
	"github.com/misty-step/bibliomnomnom/internal/models"
	"github.com/misty-step/bibliomnomnom/internal/session"
	"github.com/misty-step/bibliomnomnom/internal/worker"
)

const maxSessionsPerPage = 50

// SessionHandler is the trigger surface of the processing pipeline:
// creating a session, finishing its recording (which enqueues the first
// processing attempt), and inspecting status.
type SessionHandler struct {
	machine *session.Machine
	store   session.Store
	lister  SessionLister
	queue   Enqueuer
}

// SessionLister is the list query the handler needs beyond session.Store.
type SessionLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ListeningSession, error)
}

// Enqueuer hands a finished session to the worker pool.
type Enqueuer interface {
	Enqueue(ctx context.Context, job worker.Job) error
}

func NewSessionHandler(machine *session.Machine, store session.Store, lister SessionLister, queue Enqueuer) *SessionHandler {
	return &SessionHandler{machine: machine, store: store, lister: lister, queue: queue}
}

type CreateSessionRequest struct {
	BookID            uuid.UUID `json:"book_id"`
	CapDurationMs     int64     `json:"cap_duration_ms"`
	WarningDurationMs int64     `json:"warning_duration_ms"`
	MimeType          *string   `json:"mime_type"`
}

type FinishSessionRequest struct {
	AudioURL   string `json:"audio_url"`
	DurationMs int64  `json:"duration_ms"`
	CapReached bool   `json:"cap_reached"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.BookID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "book_id is required", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	s, err := h.machine.Create(r.Context(), userID, req.BookID, req.CapDurationMs, req.WarningDurationMs, req.MimeType)
	if err != nil {
		log.Printf("Failed to create listening session: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create listening session", r))
		return
	}

	writeJSON(w, http.StatusCreated, s)
}

func (h *SessionHandler) Finish(w http.ResponseWriter, r *http.Request) {
	var req FinishSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.AudioURL == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "audio_url is required", r))
		return
	}

	s, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.machine.MarkTranscribing(r.Context(), s, req.AudioURL, req.DurationMs, req.CapReached); err != nil {
		var invalid *session.InvalidTransitionError
		if errors.As(err, &invalid) {
			// Already transcribing means an earlier finish recorded the
			// audio but its enqueue may have been lost; queue it again.
			if s.Status != models.StatusTranscribing {
				writeJSON(w, http.StatusConflict, errorResp("INVALID_TRANSITION", err.Error(), r))
				return
			}
		} else {
			log.Printf("Failed to finish session %s: %v", s.ID, err)
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to finish recording", r))
			return
		}
	}

	if err := h.queue.Enqueue(r.Context(), worker.Job{SessionID: s.ID, Attempt: 0}); err != nil {
		log.Printf("Failed to enqueue session %s: %v", s.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue processing", r))
		return
	}

	writeJSON(w, http.StatusAccepted, s)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessions, err := h.lister.ListByUser(r.Context(), userID, maxSessionsPerPage)
	if err != nil {
		log.Printf("Failed to list sessions for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list sessions", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// loadOwned loads the session from the URL and enforces ownership.
func (h *SessionHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.ListeningSession, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session id", r))
		return nil, false
	}

	s, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Listening session not found", r))
			return nil, false
		}
		log.Printf("Failed to load session %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return nil, false
	}

	if s.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Listening session not found", r))
		return nil, false
	}

	return s, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}
