package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/gate"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/rerank"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/retrieve"
	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

type fakeHistory struct {
	windows map[string][]store.Turn
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{windows: make(map[string][]store.Turn)}
}

func (f *fakeHistory) Window(sessionID string) []store.Turn {
	return append([]store.Turn(nil), f.windows[sessionID]...)
}

func (f *fakeHistory) Append(sessionID string, turn store.Turn) {
	f.windows[sessionID] = append(f.windows[sessionID], turn)
}

func (f *fakeHistory) Clear(sessionID string) {
	delete(f.windows, sessionID)
}

type fakeDense struct {
	passages []store.Passage
	err      error
}

func (f *fakeDense) Search(context.Context, string, store.Language, int) ([]store.Passage, error) {
	return f.passages, f.err
}

type fakeLexical struct {
	passages []store.Passage
	err      error
}

func (f *fakeLexical) Search(context.Context, []string, store.Language, int) ([]store.Passage, error) {
	return f.passages, f.err
}

type fakeScorer struct {
	scores     []float64
	err        error
	gotQueries []string
}

func (f *fakeScorer) Score(_ context.Context, query string, passages []string) ([]float64, error) {
	f.gotQueries = append(f.gotQueries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.scores[:len(passages)], nil
}

func newTestEngine(dense *fakeDense, lexical *fakeLexical, scorer *fakeScorer) (*Engine, *fakeHistory) {
	history := newFakeHistory()
	engine := NewEngine(
		history,
		retrieve.New(dense, lexical),
		rerank.NewAdapter(scorer),
		DefaultConfig(),
		nil,
	)
	return engine, history
}

func kbPassage(source, url, text string, dense float64) store.Passage {
	return store.Passage{
		SourceID:   source,
		URL:        url,
		Title:      "Seite " + source,
		Text:       text,
		Language:   store.LanguageGerman,
		DenseScore: store.Float(dense),
	}
}

func TestProcessTurnGermanFirstTurn(t *testing.T) {
	dense := &fakeDense{passages: []store.Passage{
		kbPassage("doc-1", "https://kb.example.org/matlab", "Die Lizenz für MATLAB beantragen Sie im Softwareportal.", 0.84),
		kbPassage("doc-2", "https://kb.example.org/software", "Der Softwarekatalog listet alle Programme.", 0.41),
	}}
	lexical := &fakeLexical{}
	scorer := &fakeScorer{scores: []float64{0.88, 0.22}}

	engine, history := newTestEngine(dense, lexical, scorer)

	result, err := engine.ProcessTurn(context.Background(), "s1", "Wie erhalte ich eine Lizenz?")
	require.NoError(t, err)

	assert.Equal(t, store.LanguageGerman, result.Language)
	assert.Equal(t, "Wie erhalte ich eine Lizenz?", result.Query.Text)
	assert.False(t, result.Query.UsedHistory)
	assert.False(t, result.Query.ResetApplied)

	require.Len(t, result.Ranked, 2)
	assert.Equal(t, "doc-1", result.Ranked[0].SourceID)
	assert.False(t, result.RetrievalDegraded)
	assert.False(t, result.RerankDegraded)

	// Top rerank score clears the absolute floor, so citations are on
	// with 0-based ordinals in rank order.
	assert.True(t, result.Gate.ShowCitations)
	assert.Equal(t, gate.ReasonRelativeScore, result.Gate.Reason)
	require.Len(t, result.Citations, 2)
	assert.Equal(t, 0, result.Citations[0].Ordinal)
	assert.Equal(t, 1, result.Citations[1].Ordinal)
	assert.Equal(t, "doc-1", result.Citations[0].DocID)

	// The user turn is already in the history and in the prompt window.
	window := history.Window("s1")
	require.Len(t, window, 1)
	assert.Equal(t, store.RoleUser, window[0].Role)
	assert.Equal(t, store.LanguageGerman, window[0].Language)
	require.Len(t, result.Window, 1)
	assert.Equal(t, "Wie erhalte ich eine Lizenz?", result.Window[0].Text)
}

func TestProcessTurnRerankerScoresRawTurnText(t *testing.T) {
	dense := &fakeDense{passages: []store.Passage{
		kbPassage("doc-1", "https://kb.example.org/matlab", "MATLAB Lizenz verlängern", 0.7),
	}}
	scorer := &fakeScorer{scores: []float64{0.9}}
	engine, _ := newTestEngine(dense, &fakeLexical{}, scorer)

	_, err := engine.ProcessTurn(context.Background(), "s1", "Wie erhalte ich eine Lizenz für MATLAB?")
	require.NoError(t, err)

	followUp := "Und wie bekomme ich sie?"
	result, err := engine.ProcessTurn(context.Background(), "s1", followUp)
	require.NoError(t, err)

	// Retrieval sees the hint-augmented query, the cross-encoder the
	// raw turn.
	assert.True(t, result.Query.UsedHistory)
	assert.Contains(t, result.Query.Text, "topic:")
	require.Len(t, scorer.gotQueries, 2)
	assert.Equal(t, followUp, scorer.gotQueries[1])
}

func TestProcessTurnUnknownLanguageInheritsSession(t *testing.T) {
	dense := &fakeDense{passages: []store.Passage{
		kbPassage("doc-1", "https://kb.example.org/matlab", "MATLAB Lizenz", 0.7),
	}}
	engine, history := newTestEngine(dense, &fakeLexical{}, &fakeScorer{scores: []float64{0.9}})

	history.Append("s1", store.Turn{Role: store.RoleUser, Text: "Wie erhalte ich eine Lizenz?", Language: store.LanguageGerman})

	// Whitespace-only text is the one input the detector cannot classify.
	result, err := engine.ProcessTurn(context.Background(), "s1", "   ")
	require.NoError(t, err)
	assert.Equal(t, store.LanguageGerman, result.Language)
}

func TestProcessTurnUnknownLanguageEmptySessionDefaultsEnglish(t *testing.T) {
	dense := &fakeDense{passages: []store.Passage{
		kbPassage("doc-1", "https://kb.example.org/matlab", "MATLAB license", 0.7),
	}}
	engine, _ := newTestEngine(dense, &fakeLexical{}, &fakeScorer{scores: []float64{0.9}})

	result, err := engine.ProcessTurn(context.Background(), "s1", "   ")
	require.NoError(t, err)
	assert.Equal(t, store.LanguageEnglish, result.Language)
}

func TestProcessTurnRetrievalUnavailable(t *testing.T) {
	engine, history := newTestEngine(
		&fakeDense{err: errors.New("embeddings down")},
		&fakeLexical{err: errors.New("db down")},
		&fakeScorer{},
	)

	_, err := engine.ProcessTurn(context.Background(), "s1", "Wie erhalte ich eine Lizenz?")
	require.ErrorIs(t, err, retrieve.ErrRetrievalUnavailable)

	// The user turn was already appended; the session log stays intact.
	assert.Len(t, history.Window("s1"), 1)
}

func TestProcessTurnRerankDegradedStillAnswers(t *testing.T) {
	dense := &fakeDense{passages: []store.Passage{
		kbPassage("doc-1", "https://kb.example.org/matlab", "Die Lizenz für MATLAB beantragen Sie im Portal.", 0.84),
		kbPassage("doc-2", "https://kb.example.org/software", "Softwarekatalog", 0.41),
	}}
	scorer := &fakeScorer{err: errors.New("cross-encoder timeout")}
	engine, _ := newTestEngine(dense, &fakeLexical{}, scorer)

	result, err := engine.ProcessTurn(context.Background(), "s1", "Wie erhalte ich eine Lizenz für MATLAB?")
	require.NoError(t, err)

	assert.True(t, result.RerankDegraded)
	require.NotEmpty(t, result.Ranked)
	// Dense-order fallback keeps the strongest embedding match on top.
	assert.Equal(t, "doc-1", result.Ranked[0].SourceID)
	assert.NotEmpty(t, result.Assembly.Context)
}

func TestProcessTurnSingleBackendFailureDegrades(t *testing.T) {
	lexical := &fakeLexical{passages: []store.Passage{
		{SourceID: "doc-1", URL: "https://kb.example.org/matlab", Text: "MATLAB Lizenz", LexicalScore: store.Float(2)},
	}}
	engine, _ := newTestEngine(&fakeDense{err: errors.New("embeddings down")}, lexical, &fakeScorer{scores: []float64{0.9}})

	result, err := engine.ProcessTurn(context.Background(), "s1", "MATLAB Lizenz")
	require.NoError(t, err)
	assert.True(t, result.RetrievalDegraded)
	assert.Len(t, result.Candidates, 1)
}

func TestRecordAssistantTurnAndClear(t *testing.T) {
	engine, history := newTestEngine(&fakeDense{}, &fakeLexical{}, &fakeScorer{})

	engine.RecordAssistantTurn("s1", "Die Lizenz gibt es im Portal.", store.LanguageGerman)

	window := history.Window("s1")
	if assert.Len(t, window, 1) {
		assert.Equal(t, store.RoleAssistant, window[0].Role)
	}

	engine.ClearSession("s1")
	assert.Empty(t, history.Window("s1"))
}

func TestProcessTurnDebugTrace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Debug = true

	dense := &fakeDense{passages: []store.Passage{
		kbPassage("doc-1", "https://kb.example.org/matlab", "MATLAB Lizenz", 0.7),
	}}
	engine := NewEngine(newFakeHistory(), retrieve.New(dense, &fakeLexical{}), rerank.NewAdapter(&fakeScorer{scores: []float64{0.9}}), cfg, nil)

	result, err := engine.ProcessTurn(context.Background(), "s1", "Wie erhalte ich eine Lizenz?")
	require.NoError(t, err)
	require.NotNil(t, result.Trace)
	assert.Equal(t, "s1", result.Trace.SessionID)
	assert.Equal(t, 1, result.Trace.Retrieved)

	require.Len(t, result.Trace.Candidates, 1)
	cand := result.Trace.Candidates[0]
	assert.Equal(t, "https://kb.example.org/matlab", cand.URL)
	require.NotNil(t, cand.DenseScore)
	assert.Equal(t, 0.7, *cand.DenseScore)
	require.NotNil(t, cand.RerankScore)
	assert.Equal(t, 0.9, *cand.RerankScore)
	assert.Nil(t, cand.LexicalScore)

	require.Len(t, result.Trace.Citations, 1)
	assert.Equal(t, "doc-1", result.Trace.Citations[0].DocID)
	assert.Equal(t, 0, result.Trace.Citations[0].Ordinal)
	assert.Empty(t, result.Trace.Window, "first turn reads an empty window")

	// The follow-up's trace carries the same-language window it read
	result, err = engine.ProcessTurn(context.Background(), "s1", "Und wie bekomme ich sie?")
	require.NoError(t, err)
	require.NotNil(t, result.Trace)
	require.Len(t, result.Trace.Window, 1)
	assert.Equal(t, "Wie erhalte ich eine Lizenz?", result.Trace.Window[0].Text)
}
