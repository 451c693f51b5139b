package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatCitation struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatMessageId uuid.UUID `gorm:"type:uuid;not null;index"`
	DocumentId    uuid.UUID `gorm:"type:uuid;not null;index"`
	ChunkId       uuid.UUID `gorm:"type:uuid"`
	Ordinal       int
	Title         string
	Url           string
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}
