package mapper

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/mbuchwa/rag-urz-ollama/internal/entity"
	"github.com/mbuchwa/rag-urz-ollama/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(d.Metadata) > 0 {
		// Invalid JSON in the column is dropped rather than failing the read
		_ = json.Unmarshal(d.Metadata, &metadata)
	}

	return &entity.Document{
		Id:          d.Id,
		Url:         d.Url,
		Title:       d.Title,
		Language:    d.Language,
		Content:     d.Content,
		ContentHash: d.ContentHash,
		Metadata:    metadata,
		FetchedAt:   d.FetchedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	var metadata []byte
	if d.Metadata != nil {
		metadata, _ = json.Marshal(d.Metadata)
	}

	return &model.Document{
		Id:          d.Id,
		Url:         d.Url,
		Title:       d.Title,
		Language:    d.Language,
		Content:     d.Content,
		ContentHash: d.ContentHash,
		Metadata:    metadata,
		FetchedAt:   d.FetchedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
