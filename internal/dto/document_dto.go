package dto

import (
	"time"

	"github.com/google/uuid"
)

type IngestDocumentRequest struct {
	Url      string                 `json:"url" validate:"required,url"`
	Title    string                 `json:"title" validate:"max=500"`
	Language string                 `json:"language" validate:"omitempty,oneof=de en"`
	Content  string                 `json:"content" validate:"required,min=1"`
	Metadata map[string]interface{} `json:"metadata"`
}

type DocumentResponse struct {
	Id        uuid.UUID `json:"id"`
	Url       string    `json:"url"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	Chunks    int64     `json:"chunks,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	CreatedAt time.Time `json:"created_at"`
}

// PublishEmbedDocumentMessage is the embed-job payload placed on the
// in-process queue after a document write.
type PublishEmbedDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
