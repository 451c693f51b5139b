package contract

import (
	"context"

	"github.com/google/uuid"

	"github.com/mbuchwa/rag-urz-ollama/internal/entity"
)

type ChatCitationRepository interface {
	CreateBulk(ctx context.Context, citations []*entity.ChatCitation) error
	FindAllByMessageIds(ctx context.Context, messageIds []uuid.UUID) ([]*entity.ChatCitation, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
}
