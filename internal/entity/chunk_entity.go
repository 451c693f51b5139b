package entity

import (
	"time"

	"github.com/google/uuid"
)

type Chunk struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentId uuid.UUID `gorm:"type:uuid;index"`
	ChunkIndex int
	Text       string
	Language   string
	CreatedAt  time.Time
}

// ScoredChunk is a chunk with its similarity score and the parent document's
// display fields, as returned by the vector and lexical searches.
type ScoredChunk struct {
	Chunk
	Url        string
	Title      string
	Similarity float64
}
