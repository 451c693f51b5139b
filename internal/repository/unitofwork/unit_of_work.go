package unitofwork

import (
	"context"

	"github.com/mbuchwa/rag-urz-ollama/internal/repository/contract"
)

// RepositoryFactory hands out a fresh unit of work per request or consumed
// message.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

// UnitOfWork groups repository access with an optional shared transaction.
// Repositories obtained before Begin run on the bare connection; after
// Begin they share the transaction until Commit or Rollback.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	ChunkRepository() contract.ChunkRepository

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	ChatCitationRepository() contract.ChatCitationRepository
}
