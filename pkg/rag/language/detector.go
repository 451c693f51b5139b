package language

import (
	"strings"
	"unicode"

	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

// German function words that are safe classification cues. The list is
// deliberately disjoint from the English one so a turn built entirely from
// shared stopwords cannot flip class between turns.
var germanCues = map[string]bool{
	"der": true, "die": true, "das": true, "und": true, "ist": true,
	"nicht": true, "wie": true, "wo": true, "sie": true, "ich": true,
	"ein": true, "eine": true, "für": true, "mit": true, "kann": true,
	"wann": true, "warum": true, "erhalte": true, "bitte": true,
	"danke": true, "oder": true, "auch": true, "dass": true,
}

var englishCues = map[string]bool{
	"the": true, "and": true, "is": true, "are": true, "how": true,
	"what": true, "where": true, "why": true, "when": true, "can": true,
	"i": true, "you": true, "a": true, "an": true, "to": true,
	"of": true, "do": true, "does": true, "please": true, "get": true,
	"thanks": true, "or": true, "this": true, "that": true,
}

// Detect classifies short text as German or English. It is deterministic,
// stateless, and never fails: any non-empty input yields one of the two
// classes, empty or whitespace-only input yields LanguageUnknown (callers
// fall back to the session's last known language).
func Detect(text string) store.Language {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return store.LanguageUnknown
	}

	for _, r := range trimmed {
		switch r {
		case 'ä', 'ö', 'ü', 'ß', 'Ä', 'Ö', 'Ü':
			return store.LanguageGerman
		}
	}

	germanHits, englishHits := 0, 0
	for _, word := range strings.FieldsFunc(strings.ToLower(trimmed), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if germanCues[word] {
			germanHits++
		}
		if englishCues[word] {
			englishHits++
		}
	}

	if germanHits > englishHits {
		return store.LanguageGerman
	}
	return store.LanguageEnglish
}
