package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mbuchwa/rag-urz-ollama/internal/constant"
	"github.com/mbuchwa/rag-urz-ollama/internal/dto"
	"github.com/mbuchwa/rag-urz-ollama/internal/entity"
	"github.com/mbuchwa/rag-urz-ollama/internal/pkg/logger"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/specification"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/unitofwork"
	"github.com/mbuchwa/rag-urz-ollama/pkg/events"
	"github.com/mbuchwa/rag-urz-ollama/pkg/llm"
	natsbus "github.com/mbuchwa/rag-urz-ollama/pkg/nats"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/language"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/retrieve"
	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

var ErrSessionNotFound = errors.New("chat session not found")

type IChatService interface {
	CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context) ([]*dto.SessionResponse, error)
	GetHistory(ctx context.Context, sessionId uuid.UUID) (*dto.HistoryResponse, error)
	DeleteSession(ctx context.Context, sessionId uuid.UUID) error
	ClearSession(ctx context.Context, sessionId uuid.UUID) error

	// SendMessage runs one turn end to end. Tokens of the generated answer
	// (and the sources footer) are delivered through onToken as they
	// arrive; the returned message is the persisted assistant message.
	SendMessage(ctx context.Context, req *dto.SendMessageRequest, onToken func(token string) error) (*dto.MessageResponse, error)
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	engine         *rag.Engine
	llmProvider    llm.LLMProvider
	docService     IDocumentService
	eventPublisher *natsbus.Publisher
	log            logger.ILogger

	// one mutex per session so concurrent sends cannot interleave their
	// history appends; entries are dropped when the session is deleted
	turnLocks sync.Map
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	engine *rag.Engine,
	llmProvider llm.LLMProvider,
	docService IDocumentService,
	eventPublisher *natsbus.Publisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		engine:         engine,
		llmProvider:    llmProvider,
		docService:     docService,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *chatService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New conversation"
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	return toSessionResponse(session), nil
}

func (s *chatService) ListSessions(ctx context.Context) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.SessionResponse, len(sessions))
	for i, sess := range sessions {
		out[i] = toSessionResponse(sess)
	}
	return out, nil
}

func (s *chatService) GetHistory(ctx context.Context, sessionId uuid.UUID) (*dto.HistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	messages, err := uow.ChatMessageRepository().FindAllBySessionId(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	messageIds := make([]uuid.UUID, len(messages))
	for i, m := range messages {
		messageIds[i] = m.Id
	}
	citations, err := uow.ChatCitationRepository().FindAllByMessageIds(ctx, messageIds)
	if err != nil {
		return nil, err
	}
	citationsByMessage := make(map[uuid.UUID][]dto.CitationResponse)
	for _, c := range citations {
		citationsByMessage[c.ChatMessageId] = append(citationsByMessage[c.ChatMessageId], toCitationResponse(c))
	}

	out := &dto.HistoryResponse{Session: *toSessionResponse(session)}
	out.Messages = make([]dto.MessageResponse, len(messages))
	for i, m := range messages {
		out.Messages[i] = dto.MessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			Language:  m.Language,
			CreatedAt: m.CreatedAt,
			Citations: citationsByMessage[m.Id],
		}
	}
	return out, nil
}

func (s *chatService) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatCitationRepository().DeleteBySessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteBySessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.engine.ClearSession(sessionId.String())
	s.turnLocks.Delete(sessionId.String())
	return nil
}

// ClearSession drops the in-memory conversation window but keeps the
// persisted transcript. The next turn starts topic-fresh.
func (s *chatService) ClearSession(ctx context.Context, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	s.engine.ClearSession(sessionId.String())
	return nil
}

func (s *chatService) SendMessage(ctx context.Context, req *dto.SendMessageRequest, onToken func(token string) error) (*dto.MessageResponse, error) {
	sessionId, err := uuid.Parse(req.SessionId)
	if err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	lock := s.sessionTurnLock(sessionId.String())
	lock.Lock()
	defer lock.Unlock()

	// With an empty library every retrieval would come back blank; answer
	// with a fixed notice instead of letting the model improvise.
	chunkCount, err := s.docService.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if chunkCount == 0 {
		return s.respondFixed(ctx, session, req.Message, pickByText(req.Message,
			constant.EmptyLibraryMessageDE, constant.EmptyLibraryMessageEN), onToken)
	}

	result, err := s.engine.ProcessTurn(ctx, sessionId.String(), req.Message)
	if err != nil {
		if errors.Is(err, retrieve.ErrRetrievalUnavailable) {
			s.log.Error("chat", "retrieval unavailable", map[string]interface{}{
				"session_id": sessionId.String(),
			})
			return s.respondFixed(ctx, session, req.Message, pickByText(req.Message,
				constant.RetrievalUnavailableMessageDE, constant.RetrievalUnavailableMessageEN), onToken)
		}
		return nil, err
	}

	answer, err := s.llmProvider.ChatStream(ctx, s.buildPrompt(result), onToken)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	if footer := s.buildSourcesFooter(result); footer != "" {
		if err := onToken(footer); err != nil {
			return nil, err
		}
		answer += footer
	}

	s.engine.RecordAssistantTurn(sessionId.String(), answer, result.Language)

	assistantMsg, err := s.persistTurn(ctx, session, req.Message, answer, result)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		event := events.NewChatTurnCompleted(sessionId.String(), string(result.Language), len(result.Citations), result.RerankDegraded)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.log.Warn("chat", "failed to publish turn event", map[string]interface{}{"error": err.Error()})
		}
	}

	return assistantMsg, nil
}

// buildPrompt assembles the model input: language-matched system prompt
// with the retrieved excerpts, then the conversation window. The window
// already contains the current user turn.
func (s *chatService) buildPrompt(result *rag.TurnResult) []llm.Message {
	systemPrompt := constant.SystemPromptEN
	if result.Language == store.LanguageGerman {
		systemPrompt = constant.SystemPromptDE
	}

	messages := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: systemPrompt + result.Assembly.Context},
	}
	for _, turn := range result.Window {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Text})
	}
	return messages
}

func (s *chatService) buildSourcesFooter(result *rag.TurnResult) string {
	if !result.Gate.ShowCitations || len(result.Citations) == 0 {
		return ""
	}

	header := constant.SourcesHeaderEN
	if result.Language == store.LanguageGerman {
		header = constant.SourcesHeaderDE
	}

	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(header)
	for i, c := range result.Citations {
		title := c.Title
		if title == "" {
			title = c.URL
		}
		b.WriteString(fmt.Sprintf("\n[%d] %s (%s)", i+1, title, c.URL))
	}
	return b.String()
}

func (s *chatService) persistTurn(ctx context.Context, session *entity.ChatSession, userText, answer string, result *rag.TurnResult) (*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	userMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleUser,
		Content:       userText,
		Language:      string(result.Language),
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMsg); err != nil {
		return nil, err
	}

	assistantMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       answer,
		Language:      string(result.Language),
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMsg); err != nil {
		return nil, err
	}

	citationEntities := make([]*entity.ChatCitation, 0, len(result.Citations))
	citationResponses := make([]dto.CitationResponse, 0, len(result.Citations))
	for _, c := range result.Citations {
		docId, err := uuid.Parse(c.DocID)
		if err != nil {
			continue
		}
		chunkId, _ := uuid.Parse(c.ChunkID)
		citation := &entity.ChatCitation{
			Id:            uuid.New(),
			ChatMessageId: assistantMsg.Id,
			DocumentId:    docId,
			ChunkId:       chunkId,
			Ordinal:       c.Ordinal,
			Title:         c.Title,
			Url:           c.URL,
			CreatedAt:     time.Now(),
		}
		citationEntities = append(citationEntities, citation)
		citationResponses = append(citationResponses, toCitationResponse(citation))
	}
	if err := uow.ChatCitationRepository().CreateBulk(ctx, citationEntities); err != nil {
		return nil, err
	}

	// The session language sticks to the first detected one
	if session.Language == "" && result.Language != store.LanguageUnknown {
		session.Language = string(result.Language)
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.MessageResponse{
		Id:        assistantMsg.Id,
		Role:      assistantMsg.Role,
		Content:   assistantMsg.Content,
		Language:  assistantMsg.Language,
		CreatedAt: assistantMsg.CreatedAt,
		Citations: citationResponses,
	}, nil
}

// respondFixed streams and persists a canned message without touching the
// retrieval pipeline or the in-memory window.
func (s *chatService) respondFixed(ctx context.Context, session *entity.ChatSession, userText, answer string, onToken func(token string) error) (*dto.MessageResponse, error) {
	if err := onToken(answer); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	userMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleUser,
		Content:       userText,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMsg); err != nil {
		return nil, err
	}

	assistantMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       answer,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMsg); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.MessageResponse{
		Id:        assistantMsg.Id,
		Role:      assistantMsg.Role,
		Content:   assistantMsg.Content,
		CreatedAt: assistantMsg.CreatedAt,
	}, nil
}

func (s *chatService) sessionTurnLock(sessionId string) *sync.Mutex {
	lock, _ := s.turnLocks.LoadOrStore(sessionId, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// pickByText chooses the German or English variant of a fixed message
// based on the detected language of the user's text.
func pickByText(text, de, en string) string {
	if language.Detect(text) == store.LanguageGerman {
		return de
	}
	return en
}

func toSessionResponse(s *entity.ChatSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:        s.Id,
		Title:     s.Title,
		Language:  s.Language,
		CreatedAt: s.CreatedAt,
	}
}

func toCitationResponse(c *entity.ChatCitation) dto.CitationResponse {
	return dto.CitationResponse{
		Ordinal:    c.Ordinal,
		DocumentId: c.DocumentId,
		Title:      c.Title,
		Url:        c.Url,
	}
}
