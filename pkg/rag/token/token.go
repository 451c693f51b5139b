// Package token holds the shared tokenization used by the reformulator and
// the citation gate: content tokens are lowercased words of three letters or
// more (umlauts included) with German/English stopwords removed.
package token

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[A-Za-zÄÖÜäöüß\-]{3,}`)

// Shared German + English stopword list. Kept small on purpose: it only has
// to strip filler from short chat turns, not index a corpus.
var stopwords = map[string]bool{
	"der": true, "die": true, "das": true, "und": true, "ist": true,
	"nicht": true, "sie": true, "ich": true, "du": true, "wir": true,
	"ihr": true, "ein": true, "eine": true, "den": true, "dem": true,
	"des": true, "wie": true, "was": true, "wo": true, "warum": true,
	"wann": true, "zum": true, "zur": true, "für": true, "mit": true,
	"ohne": true, "auf": true, "im": true, "in": true, "an": true,
	"am": true, "oder": true, "auch": true, "dass": true, "so": true,
	"nur": true, "bitte": true, "noch": true, "danke": true, "frage": true,
	"the": true, "and": true, "is": true, "are": true,
	"were": true, "be": true, "to": true, "of": true, "on": true,
	"for": true, "it": true, "this": true, "that": true,
	"how": true, "what": true, "why": true, "when": true, "or": true,
	"also": true, "please": true, "thanks": true, "thank": true,
	"you": true, "your": true, "my": true, "our": true, "their": true,
}

// Pronouns and anaphora in both working languages. A turn whose content
// tokens all come from this set carries no standalone noun content.
var pronouns = map[string]bool{
	"it": true, "this": true, "that": true, "these": true, "those": true,
	"they": true, "them": true, "one": true,
	"es": true, "das": true, "dies": true, "diese": true, "dieses": true,
	"diesen": true, "jenes": true, "sie": true, "ihn": true,
}

// Auxiliary and light verbs plus hedges that carry no topic content of
// their own. Kept separate from the stopword list: they still count as
// content for overlap scoring ("kann ich drucken" should overlap with a
// printing page), but a turn made only of fillers and pronouns is an
// anaphoric follow-up.
var fillers = map[string]bool{
	"can": true, "could": true, "will": true, "would": true,
	"should": true, "get": true, "got": true, "have": true, "has": true,
	"make": true, "want": true, "need": true, "then": true, "again": true,
	"kann": true, "können": true, "könnte": true, "muss": true,
	"müssen": true, "soll": true, "sollte": true, "möchte": true,
	"geht": true, "gibt": true, "gerne": true,
	"bekomme": true, "bekommen": true, "machen": true, "mache": true,
	"dann": true, "jetzt": true, "wieder": true, "mal": true,
}

// IsStopword reports whether the lowercased token is filler.
func IsStopword(tok string) bool { return stopwords[strings.ToLower(tok)] }

// IsFiller reports whether the lowercased token is an auxiliary or hedge
// word with no standalone topic content.
func IsFiller(tok string) bool { return fillers[strings.ToLower(tok)] }

// IsPronoun reports whether the lowercased token is a pronoun/anaphor.
func IsPronoun(tok string) bool { return pronouns[strings.ToLower(tok)] }

// Words returns every raw word-like token of the text, lowercased, in order.
func Words(text string) []string {
	raw := wordPattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, w := range raw {
		out = append(out, strings.ToLower(w))
	}
	return out
}

// Content returns the deduplicated content tokens of the text in first-seen
// order (lowercased, stopwords removed).
func Content(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range Words(text) {
		if stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// ContentSet returns the content tokens of the text as a set.
func ContentSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range Content(text) {
		set[w] = true
	}
	return set
}

// Overlap computes the Jaccard ratio of content tokens between two texts.
// Either side being empty yields 0.
func Overlap(a, b string) float64 {
	sa, sb := ContentSet(a), ContentSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for w := range sa {
		if sb[w] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// Hints extracts up to limit salient content tokens from the text,
// first-seen order, for use as compact topic hints.
func Hints(text string, limit int) []string {
	content := Content(text)
	if len(content) > limit {
		content = content[:limit]
	}
	return content
}

// HitRatio is the fraction of the query's content tokens that occur as
// substrings of the passage text. This is the lexical rescue signal for the
// citation gate: exact product names and error codes score high here even
// when embedding similarity is flat.
func HitRatio(query, passage string) float64 {
	tokens := Content(query)
	if len(tokens) == 0 {
		return 0
	}
	haystack := strings.ToLower(passage)
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}
