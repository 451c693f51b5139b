package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title" validate:"max=200"`
}

type SendMessageRequest struct {
	SessionId string `json:"session_id" validate:"required,uuid"`
	Message   string `json:"message" validate:"required,min=1,max=4000"`
}

type SessionResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

type CitationResponse struct {
	Ordinal    int       `json:"ordinal"`
	DocumentId uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	Url        string    `json:"url"`
}

type MessageResponse struct {
	Id        uuid.UUID          `json:"id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Language  string             `json:"language"`
	CreatedAt time.Time          `json:"created_at"`
	Citations []CitationResponse `json:"citations,omitempty"`
}

type HistoryResponse struct {
	Session  SessionResponse   `json:"session"`
	Messages []MessageResponse `json:"messages"`
}

// StreamEvent is one SSE frame of a streamed answer.
// Type is "token", "citations", "done" or "error".
type StreamEvent struct {
	Type      string             `json:"type"`
	Token     string             `json:"token,omitempty"`
	Citations []CitationResponse `json:"citations,omitempty"`
	Language  string             `json:"language,omitempty"`
	Error     string             `json:"error,omitempty"`
}
