package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Url         string    `gorm:"type:text;not null;uniqueIndex"`
	Title       string    `gorm:"type:text"`
	Language    string    `gorm:"type:varchar(8);index"`
	Content     string    `gorm:"type:text"`
	ContentHash string    `gorm:"type:varchar(64);index"`
	// Crawl metadata (HTTP status, content type, fetch duration)
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	FetchedAt time.Time
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
