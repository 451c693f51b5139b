package gate

import (
	"testing"

	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

func passage(source, text string, score float64) store.Passage {
	return store.Passage{SourceID: source, Text: text, RerankScore: store.Float(score)}
}

func TestEvaluate(t *testing.T) {
	cfg := DefaultConfig()
	query := "Wie erhalte ich eine Lizenz für MATLAB?"

	tests := []struct {
		name       string
		included   []store.Passage
		wantShow   bool
		wantReason Reason
	}{
		{
			name: "top score above absolute floor",
			included: []store.Passage{
				passage("a", "MATLAB Lizenz beantragen", 0.82),
				passage("b", "Softwarekatalog", 0.30),
			},
			wantShow:   true,
			wantReason: ReasonRelativeScore,
		},
		{
			name: "weak top but clear margin over next source",
			included: []store.Passage{
				passage("a", "irrelevant wording", 0.19),
				passage("b", "other page", 0.01),
			},
			wantShow:   true,
			wantReason: ReasonRelativeScore,
		},
		{
			name: "weak top, thin margin, no lexical hits",
			included: []store.Passage{
				passage("a", "unrelated text entirely", 0.12),
				passage("b", "different unrelated page", 0.08),
			},
			wantShow:   false,
			wantReason: ReasonNone,
		},
		{
			name: "weak scores rescued by lexical overlap",
			included: []store.Passage{
				passage("a", "Die Lizenz für MATLAB erhalten Sie im Portal", 0.12),
				passage("b", "Unrelated page", 0.11),
			},
			wantShow:   true,
			wantReason: ReasonLexicalFallback,
		},
		{
			name: "same-source runner-up is skipped for the margin",
			included: []store.Passage{
				passage("a", "unrelated chunk one", 0.18),
				passage("a", "unrelated chunk two", 0.17),
				passage("b", "unrelated other page", 0.01),
			},
			wantShow:   true,
			wantReason: ReasonRelativeScore,
		},
		{
			name: "single weak source has no margin to lean on",
			included: []store.Passage{
				passage("a", "unrelated text", 0.10),
			},
			wantShow:   false,
			wantReason: ReasonNone,
		},
		{
			name:       "empty context",
			included:   nil,
			wantShow:   false,
			wantReason: ReasonNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(query, tt.included, cfg)
			if d.ShowCitations != tt.wantShow {
				t.Errorf("ShowCitations = %v, want %v", d.ShowCitations, tt.wantShow)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Reason = %v, want %v", d.Reason, tt.wantReason)
			}
		})
	}
}

func TestEvaluateQualifyingCount(t *testing.T) {
	cfg := DefaultConfig()

	included := []store.Passage{
		passage("a", "MATLAB Lizenz", 0.82),
		passage("b", "Softwarekatalog", 0.40),
		passage("c", "Randnotiz", 0.05), // below QualifyFloor
	}

	d := Evaluate("MATLAB Lizenz", included, cfg)
	if !d.ShowCitations {
		t.Fatal("expected citations")
	}
	if d.QualifyingCount != 2 {
		t.Errorf("QualifyingCount = %d, want 2", d.QualifyingCount)
	}
}

func TestEvaluateMaxCitationsCapsQualifying(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCitations = 2

	included := []store.Passage{
		passage("a", "one", 0.9),
		passage("b", "two", 0.8),
		passage("c", "three", 0.7),
	}

	d := Evaluate("query", included, cfg)
	if d.QualifyingCount != 2 {
		t.Errorf("QualifyingCount = %d, want capped at 2", d.QualifyingCount)
	}
}

func TestQualifies(t *testing.T) {
	cfg := DefaultConfig()
	query := "MATLAB Lizenz"

	strong := passage("a", "MATLAB Lizenz Portal", 0.5)
	weak := passage("b", "nothing relevant here", 0.02)

	scoreDecision := Decision{ShowCitations: true, Reason: ReasonRelativeScore}
	if !Qualifies(query, strong, scoreDecision, cfg) {
		t.Error("strong passage must qualify under a score decision")
	}
	if Qualifies(query, weak, scoreDecision, cfg) {
		t.Error("passage below QualifyFloor must not qualify under a score decision")
	}

	lexicalDecision := Decision{ShowCitations: true, Reason: ReasonLexicalFallback}
	if !Qualifies(query, passage("a", "Die Lizenz für MATLAB", 0.02), lexicalDecision, cfg) {
		t.Error("lexically matching passage must qualify under a fallback decision")
	}
	if Qualifies(query, weak, lexicalDecision, cfg) {
		t.Error("lexically empty passage must not qualify under a fallback decision")
	}

	hidden := Decision{ShowCitations: false, Reason: ReasonNone}
	if Qualifies(query, strong, hidden, cfg) {
		t.Error("nothing qualifies when citations are suppressed")
	}
}
