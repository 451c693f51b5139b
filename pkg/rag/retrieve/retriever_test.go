package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

type fakeDense struct {
	passages []store.Passage
	err      error
	gotQuery string
	gotK     int
}

func (f *fakeDense) Search(_ context.Context, query string, _ store.Language, k int) ([]store.Passage, error) {
	f.gotQuery = query
	f.gotK = k
	return f.passages, f.err
}

type fakeLexical struct {
	passages  []store.Passage
	err       error
	gotTokens []string
}

func (f *fakeLexical) Search(_ context.Context, tokens []string, _ store.Language, _ int) ([]store.Passage, error) {
	f.gotTokens = tokens
	return f.passages, f.err
}

func densePassage(url string, score float64) store.Passage {
	return store.Passage{SourceID: "doc-" + url, URL: url, Text: "text " + url, DenseScore: store.Float(score)}
}

func lexicalPassage(url string, score float64) store.Passage {
	return store.Passage{SourceID: "doc-" + url, URL: url, Text: "text " + url, LexicalScore: store.Float(score)}
}

func TestRetrieveMergesSharedURL(t *testing.T) {
	dense := &fakeDense{passages: []store.Passage{
		densePassage("https://kb.example.org/matlab", 0.81),
		densePassage("https://kb.example.org/vpn", 0.55),
	}}
	lexical := &fakeLexical{passages: []store.Passage{
		lexicalPassage("https://kb.example.org/matlab/", 3),
	}}

	r := New(dense, lexical)
	res, err := r.Retrieve(context.Background(), "MATLAB Lizenz", store.LanguageGerman, DefaultConfig())
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if res.Degraded() {
		t.Error("no backend failed, result must not be degraded")
	}

	if len(res.Candidates) != 2 {
		t.Fatalf("Candidates = %d, want 2 (shared URL must merge)", len(res.Candidates))
	}

	merged := res.Candidates[0]
	if merged.URL != "https://kb.example.org/matlab" {
		t.Errorf("merged URL = %q, want trailing slash normalized away", merged.URL)
	}
	if merged.DenseScore == nil || *merged.DenseScore != 0.81 {
		t.Errorf("merged DenseScore = %v, want 0.81", merged.DenseScore)
	}
	if merged.LexicalScore == nil || *merged.LexicalScore != 3 {
		t.Errorf("merged LexicalScore = %v, want 3", merged.LexicalScore)
	}
	if merged.DenseRank != 1 || merged.LexicalRank != 1 {
		t.Errorf("merged ranks = (%d, %d), want (1, 1)", merged.DenseRank, merged.LexicalRank)
	}

	vpn := res.Candidates[1]
	if vpn.LexicalScore != nil {
		t.Errorf("dense-only candidate must keep a nil LexicalScore, got %v", *vpn.LexicalScore)
	}
}

func TestRetrieveSameURLWithinBackendKeepsBestChunk(t *testing.T) {
	dense := &fakeDense{passages: []store.Passage{
		densePassage("https://kb.example.org/matlab", 0.81),
		densePassage("https://kb.example.org/matlab", 0.90),
	}}
	lexical := &fakeLexical{}

	r := New(dense, lexical)
	res, err := r.Retrieve(context.Background(), "MATLAB", store.LanguageGerman, DefaultConfig())
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if len(res.Candidates) != 1 {
		t.Fatalf("Candidates = %d, want 1", len(res.Candidates))
	}
	got := res.Candidates[0]
	if *got.DenseScore != 0.90 {
		t.Errorf("DenseScore = %v, want the higher chunk score 0.90", *got.DenseScore)
	}
	if got.DenseRank != 1 {
		t.Errorf("DenseRank = %d, want the first-seen rank 1", got.DenseRank)
	}
}

func TestRetrieveSingleBackendFailureDegrades(t *testing.T) {
	dense := &fakeDense{err: errors.New("embedding service down")}
	lexical := &fakeLexical{passages: []store.Passage{
		lexicalPassage("https://kb.example.org/matlab", 2),
	}}

	r := New(dense, lexical)
	res, err := r.Retrieve(context.Background(), "MATLAB Lizenz", store.LanguageGerman, DefaultConfig())
	if err != nil {
		t.Fatalf("single backend failure must not fail the turn, got %v", err)
	}
	if !res.DenseFailed || res.LexicalFailed {
		t.Errorf("failure flags = (%v, %v), want (true, false)", res.DenseFailed, res.LexicalFailed)
	}
	if !res.Degraded() {
		t.Error("Degraded() = false, want true")
	}
	if len(res.Candidates) != 1 {
		t.Errorf("Candidates = %d, want the lexical results alone", len(res.Candidates))
	}
}

func TestRetrieveBothBackendsFailing(t *testing.T) {
	r := New(
		&fakeDense{err: errors.New("dense down")},
		&fakeLexical{err: errors.New("db down")},
	)

	_, err := r.Retrieve(context.Background(), "MATLAB", store.LanguageGerman, DefaultConfig())
	if !errors.Is(err, ErrRetrievalUnavailable) {
		t.Fatalf("error = %v, want ErrRetrievalUnavailable", err)
	}
}

func TestRetrievePassesTokenizedQueryToLexical(t *testing.T) {
	dense := &fakeDense{}
	lexical := &fakeLexical{}
	r := New(dense, lexical)

	_, err := r.Retrieve(context.Background(), "Wie erhalte ich eine Lizenz für MATLAB?", store.LanguageGerman, DefaultConfig())
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if dense.gotQuery != "Wie erhalte ich eine Lizenz für MATLAB?" {
		t.Errorf("dense query = %q, want the full query string", dense.gotQuery)
	}
	if dense.gotK != DefaultConfig().DenseK {
		t.Errorf("dense k = %d, want %d", dense.gotK, DefaultConfig().DenseK)
	}
	want := []string{"erhalte", "lizenz", "matlab"}
	if len(lexical.gotTokens) != len(want) {
		t.Fatalf("lexical tokens = %v, want %v", lexical.gotTokens, want)
	}
	for i, tok := range want {
		if lexical.gotTokens[i] != tok {
			t.Errorf("lexical token[%d] = %q, want %q", i, lexical.gotTokens[i], tok)
		}
	}
}
