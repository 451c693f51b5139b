package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/mbuchwa/rag-urz-ollama/internal/repository/contract"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/memory"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/unitofwork"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/rerank"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/retrieve"
)

// Stubs cover only the calls DeleteSession makes; anything else panics via
// the embedded nil interface.
type stubSessionRepo struct{ contract.ChatSessionRepository }

func (stubSessionRepo) Delete(context.Context, uuid.UUID) error { return nil }

type stubMessageRepo struct{ contract.ChatMessageRepository }

func (stubMessageRepo) DeleteBySessionId(context.Context, uuid.UUID) error { return nil }

type stubCitationRepo struct{ contract.ChatCitationRepository }

func (stubCitationRepo) DeleteBySessionId(context.Context, uuid.UUID) error { return nil }

type stubUow struct{}

func (stubUow) Begin(context.Context) error { return nil }
func (stubUow) Commit() error               { return nil }
func (stubUow) Rollback() error             { return nil }

func (stubUow) DocumentRepository() contract.DocumentRepository { return nil }
func (stubUow) ChunkRepository() contract.ChunkRepository       { return nil }

func (stubUow) ChatSessionRepository() contract.ChatSessionRepository {
	return stubSessionRepo{}
}

func (stubUow) ChatMessageRepository() contract.ChatMessageRepository {
	return stubMessageRepo{}
}

func (stubUow) ChatCitationRepository() contract.ChatCitationRepository {
	return stubCitationRepo{}
}

type stubFactory struct{}

func (stubFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return stubUow{} }

func TestDeleteSessionDropsTurnLock(t *testing.T) {
	engine := rag.NewEngine(memory.NewHistoryStore(0), retrieve.New(nil, nil), rerank.NewAdapter(nil), rag.DefaultConfig(), nil)
	svc := NewChatService(stubFactory{}, engine, nil, nil, nil, nopLogger{}).(*chatService)

	sessionId := uuid.New()
	svc.sessionTurnLock(sessionId.String())
	if _, ok := svc.turnLocks.Load(sessionId.String()); !ok {
		t.Fatal("expected a turn lock entry for the session")
	}

	if err := svc.DeleteSession(context.Background(), sessionId); err != nil {
		t.Fatalf("DeleteSession returned error: %v", err)
	}
	if _, ok := svc.turnLocks.Load(sessionId.String()); ok {
		t.Error("turn lock entry must be dropped with the session")
	}
}
