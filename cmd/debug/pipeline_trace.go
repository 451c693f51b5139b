package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/gate"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/language"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/reformulate"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/token"
	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

// Offline walkthrough of the query-side pipeline stages. Useful for
// checking detector, reformulator and gate behavior without a database,
// reranker or Ollama running.
func main() {
	header := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	turns := []string{
		"Wie erhalte ich eine Lizenz für MATLAB?",
		"Und wie bekomme ich sie?",
		"Wie richte ich VPN ein?",
	}

	var window []store.Turn
	cfg := reformulate.DefaultConfig()

	for i, text := range turns {
		header.Printf("\n=== Turn %d: %q\n", i+1, text)

		lang := language.Detect(text)
		fmt.Printf("language:   %s\n", lang)
		fmt.Printf("tokens:     %v\n", token.Content(text))

		decision := reformulate.Reformulate(text, lang, window, cfg)
		fmt.Printf("query:      %q\n", decision.Text)
		fmt.Printf("pronoun:    %v  overlap: %.2f\n", decision.PronounLike, decision.Overlap)
		if decision.ResetApplied {
			warn.Println("reset:      topic switch, history dropped")
		}
		if decision.UsedHistory {
			ok.Printf("hints:      %v\n", decision.HintTerms)
		}

		window = append(window, store.Turn{
			Role:      store.RoleUser,
			Text:      text,
			Language:  lang,
			Timestamp: time.Now(),
		})
	}

	header.Println("\n=== Citation gate samples")
	samples := []struct {
		name     string
		passages []store.Passage
	}{
		{
			name: "strong top score",
			passages: []store.Passage{
				{SourceID: "a", Text: "MATLAB Lizenz beantragen", RerankScore: store.Float(0.82)},
				{SourceID: "b", Text: "Softwarekatalog", RerankScore: store.Float(0.30)},
			},
		},
		{
			name: "weak scores, lexical rescue",
			passages: []store.Passage{
				{SourceID: "a", Text: "Die Lizenz für MATLAB erhalten Sie im Portal", RerankScore: store.Float(0.12)},
				{SourceID: "b", Text: "Unrelated page", RerankScore: store.Float(0.11)},
			},
		},
	}

	gateCfg := gate.DefaultConfig()
	for _, s := range samples {
		d := gate.Evaluate("Wie erhalte ich eine Lizenz für MATLAB?", s.passages, gateCfg)
		if d.ShowCitations {
			ok.Printf("%-28s show=%v reason=%s qualifying=%d\n", s.name, d.ShowCitations, d.Reason, d.QualifyingCount)
		} else {
			warn.Printf("%-28s show=%v reason=%s\n", s.name, d.ShowCitations, d.Reason)
		}
	}
}
