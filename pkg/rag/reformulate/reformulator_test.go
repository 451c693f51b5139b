package reformulate

import (
	"strings"
	"testing"
	"time"

	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

func userTurn(text string, lang store.Language) store.Turn {
	return store.Turn{Role: store.RoleUser, Text: text, Language: lang, Timestamp: time.Now()}
}

func assistantTurn(text string, lang store.Language) store.Turn {
	return store.Turn{Role: store.RoleAssistant, Text: text, Language: lang, Timestamp: time.Now()}
}

func TestReformulateFirstTurnPassesThrough(t *testing.T) {
	d := Reformulate("Wie erhalte ich eine Lizenz für MATLAB?", store.LanguageGerman, nil, DefaultConfig())

	if d.Text != "Wie erhalte ich eine Lizenz für MATLAB?" {
		t.Errorf("Text = %q, want the raw turn", d.Text)
	}
	if d.UsedHistory || d.ResetApplied {
		t.Errorf("first turn must not touch history, got UsedHistory=%v ResetApplied=%v", d.UsedHistory, d.ResetApplied)
	}
}

func TestReformulatePronounFollowUpGetsHints(t *testing.T) {
	window := []store.Turn{
		userTurn("Wie erhalte ich eine Lizenz für MATLAB?", store.LanguageGerman),
		assistantTurn("Die Lizenz beantragen Sie im Softwareportal.", store.LanguageGerman),
	}

	d := Reformulate("Und wie bekomme ich sie?", store.LanguageGerman, window, DefaultConfig())

	if !d.PronounLike {
		t.Fatal("expected the follow-up to be classified pronoun-like")
	}
	if !d.UsedHistory {
		t.Fatal("expected topic hints from the previous user turn")
	}
	if !strings.Contains(d.Text, "topic:") {
		t.Errorf("Text = %q, want appended topic hints", d.Text)
	}
	if !strings.Contains(d.Text, "matlab") || !strings.Contains(d.Text, "lizenz") {
		t.Errorf("Text = %q, want hints carrying matlab and lizenz", d.Text)
	}
	if !strings.HasPrefix(d.Text, "Und wie bekomme ich sie?") {
		t.Errorf("Text = %q, original turn must stay the prefix", d.Text)
	}
}

func TestReformulateTopicSwitchResetsHistory(t *testing.T) {
	window := []store.Turn{
		userTurn("Wie erhalte ich eine Lizenz für MATLAB?", store.LanguageGerman),
		assistantTurn("Die Lizenz beantragen Sie im Softwareportal.", store.LanguageGerman),
	}

	d := Reformulate("Wie richte ich einen Drucker im Pool ein?", store.LanguageGerman, window, DefaultConfig())

	if !d.ResetApplied {
		t.Fatalf("expected topic switch reset, overlap was %v", d.Overlap)
	}
	if d.UsedHistory {
		t.Error("reset turn must not carry hints from the dropped topic")
	}
	if d.Text != "Wie richte ich einen Drucker im Pool ein?" {
		t.Errorf("Text = %q, want the raw turn after reset", d.Text)
	}
}

func TestReformulateOverlapAtThresholdIsNotASwitch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TopicSwitchThreshold = 0.25

	window := []store.Turn{
		userTurn("MATLAB Lizenz verlängern", store.LanguageGerman),
	}

	// Shares exactly one of four distinct content tokens: overlap 0.25.
	d := Reformulate("MATLAB installieren", store.LanguageGerman, window, cfg)

	if d.Overlap != 0.25 {
		t.Fatalf("Overlap = %v, want 0.25", d.Overlap)
	}
	if d.ResetApplied {
		t.Error("overlap exactly at the threshold must favor continuity")
	}
}

func TestReformulateHistoryPoolFiltersLanguageAndRole(t *testing.T) {
	window := []store.Turn{
		userTurn("How do I get a MATLAB license?", store.LanguageEnglish),
		assistantTurn("Apply through the software portal.", store.LanguageEnglish),
	}

	// German pronoun follow-up against an English-only history: no
	// same-language pool, so no hints and no reset.
	d := Reformulate("Und wie verlängere ich sie?", store.LanguageGerman, window, DefaultConfig())

	if d.UsedHistory {
		t.Error("cross-language history must not feed hints")
	}
	if d.ResetApplied {
		t.Error("no same-language pool means no topic comparison at all")
	}
	if d.Text != "Und wie verlängere ich sie?" {
		t.Errorf("Text = %q, want passthrough", d.Text)
	}
}

func TestReformulateHintCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHintTerms = 2

	window := []store.Turn{
		userTurn("MATLAB Lizenz Portal Antrag Formular Studierende", store.LanguageGerman),
	}

	d := Reformulate("Und das?", store.LanguageGerman, window, cfg)

	if !d.UsedHistory {
		t.Fatal("expected hints")
	}
	if len(d.HintTerms) != 2 {
		t.Errorf("HintTerms = %v, want exactly 2", d.HintTerms)
	}
}

func TestPronounLike(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"german pronoun follow-up", "Und wie bekomme ich das?", true},
		{"english pronoun follow-up", "How can I get it?", true},
		{"noun content present", "Wie verlängere ich die Lizenz?", false},
		{"long turn never pronoun-like", "Und wie kann ich das dann später noch einmal ganz genau machen?", false},
		{"stopwords only", "Wie bitte?", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pronounLike(tt.text, DefaultConfig().PronounMaxTokens); got != tt.want {
				t.Errorf("pronounLike(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
