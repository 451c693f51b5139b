package contract

import (
	"context"

	"github.com/google/uuid"

	"github.com/mbuchwa/rag-urz-ollama/internal/entity"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/specification"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	FindAllBySessionId(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatMessage, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
}
