package models

import "github.com/google/uuid"

// Event types carried in WSMessage.Type. The hub drops anything else
// before relaying to clients.
const (
	EventStatusUpdate = "status_update"
	EventCompleted    = "completed"
	EventError        = "error"
)

// WSMessage is the envelope published per user for pipeline events.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatusUpdate struct {
	SessionID uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
	Step      int       `json:"step"`
	StepName  string    `json:"step_name"`
}

type CompletedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	RawNoteID uuid.UUID `json:"raw_note_id"`
	UsedLLM   bool      `json:"used_llm"`
}

type ErrorEvent struct {
	SessionID    uuid.UUID `json:"session_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
	WillRetry    bool      `json:"will_retry"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
