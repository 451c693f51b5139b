// Package rag wires the per-turn retrieval pipeline: detect language, read
// the session window, reformulate, retrieve, rerank, gate, assemble.
package rag

import (
	"context"
	"time"

	"github.com/mbuchwa/rag-urz-ollama/internal/pkg/logger"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/assemble"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/gate"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/language"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/reformulate"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/rerank"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/retrieve"
	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

// HistoryStore is the per-session bounded turn log. Append is the sole
// writer operation and is never concurrent with itself for one session;
// the service layer serializes turns per session.
type HistoryStore interface {
	Window(sessionID string) []store.Turn
	Append(sessionID string, turn store.Turn)
	Clear(sessionID string)
}

type Config struct {
	Reformulate reformulate.Config
	Retrieve    retrieve.Config
	Rerank      rerank.Config
	Gate        gate.Config
	Assemble    assemble.Config
	Debug       bool
}

func DefaultConfig() Config {
	return Config{
		Reformulate: reformulate.DefaultConfig(),
		Retrieve:    retrieve.DefaultConfig(),
		Rerank:      rerank.DefaultConfig(),
		Gate:        gate.DefaultConfig(),
		Assemble:    assemble.DefaultConfig(),
	}
}

// Engine runs the retrieval context pipeline for one chat turn.
type Engine struct {
	history   HistoryStore
	retriever *retrieve.Retriever
	reranker  *rerank.Adapter
	cfg       Config
	log       logger.ILogger
}

func NewEngine(history HistoryStore, retriever *retrieve.Retriever, reranker *rerank.Adapter, cfg Config, log logger.ILogger) *Engine {
	return &Engine{
		history:   history,
		retriever: retriever,
		reranker:  reranker,
		cfg:       cfg,
		log:       log,
	}
}

// TurnResult is everything a turn's generation stage needs: the assembled
// context, the citation list, and the degradation flags for logging.
type TurnResult struct {
	Language store.Language
	Query    reformulate.Decision

	// Window is the conversation window for prompting, current user turn
	// included.
	Window []store.Turn

	Candidates        []store.Passage
	Ranked            []store.Passage
	RetrievalDegraded bool
	RerankDegraded    bool
	Gate              gate.Decision
	Assembly          assemble.Assembly
	Citations         []store.Citation
	Trace             *Trace
}

// ProcessTurn runs the full pipeline for one user turn. The turn is
// appended to history right after the reformulator has read the window, so
// a later cancellation of generation cannot corrupt the session log.
//
// Returns retrieve.ErrRetrievalUnavailable when both backends fail; every
// other failure degrades quality instead of failing the turn.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	lang := language.Detect(text)
	window := e.history.Window(sessionID)
	if lang == store.LanguageUnknown {
		lang = lastKnownLanguage(window)
	}

	query := reformulate.Reformulate(text, lang, window, e.cfg.Reformulate)

	userTurn := store.Turn{
		Role:      store.RoleUser,
		Text:      text,
		Language:  lang,
		Timestamp: time.Now(),
	}
	e.history.Append(sessionID, userTurn)

	retrieved, err := e.retriever.Retrieve(ctx, query.Text, lang, e.cfg.Retrieve)
	if err != nil {
		return nil, err
	}

	// The reranker scores against the raw turn text: topic hints help
	// recall but would drag the cross-encoder toward the old topic.
	reranked := e.reranker.Rerank(ctx, text, retrieved.Candidates, e.cfg.Rerank)

	assembly := assemble.Select(reranked.Ranked, e.cfg.Assemble)
	decision := gate.Evaluate(text, assembly.Included, e.cfg.Gate)
	citations := assemble.Citations(text, assembly.Included, decision, e.cfg.Gate)

	result := &TurnResult{
		Language:          lang,
		Query:             query,
		Window:            append(window, userTurn),
		Candidates:        retrieved.Candidates,
		Ranked:            reranked.Ranked,
		RetrievalDegraded: retrieved.Degraded(),
		RerankDegraded:    reranked.Degraded,
		Gate:              decision,
		Assembly:          assembly,
		Citations:         citations,
	}

	if reranked.Degraded && e.log != nil {
		e.log.Warn("rag", "rerank degraded, dense-order fallback used", map[string]interface{}{
			"session_id": sessionID,
			"candidates": len(retrieved.Candidates),
		})
	}

	if e.cfg.Debug {
		result.Trace = buildTrace(sessionID, text, window, result)
		if e.log != nil {
			e.log.Debug("rag", "turn trace", result.Trace.Fields())
		}
	}

	return result, nil
}

// RecordAssistantTurn appends the generated answer to the session history.
func (e *Engine) RecordAssistantTurn(sessionID, text string, lang store.Language) {
	e.history.Append(sessionID, store.Turn{
		Role:      store.RoleAssistant,
		Text:      text,
		Language:  lang,
		Timestamp: time.Now(),
	})
}

// ClearSession drops the session's history window.
func (e *Engine) ClearSession(sessionID string) {
	e.history.Clear(sessionID)
}

func lastKnownLanguage(window []store.Turn) store.Language {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Language != store.LanguageUnknown {
			return window[i].Language
		}
	}
	return store.LanguageEnglish
}
