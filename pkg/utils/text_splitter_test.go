package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInputSingleChunk(t *testing.T) {
	chunks := SplitText("short text", 100, 20)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("chunks = %v, want the unchanged input", chunks)
	}
}

func TestSplitTextChunkSizes(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := SplitText(text, 100, 20)

	if len(chunks) < 3 {
		t.Fatalf("chunks = %d, want at least 3 for 250 runes at step 80", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Errorf("chunk %d has %d runes, want at most 100", i, len([]rune(c)))
		}
	}
}

func TestSplitTextPrefersSentenceBoundary(t *testing.T) {
	// The sentence break sits inside the final fifth of the first chunk.
	text := strings.Repeat("x", 85) + ". " + strings.Repeat("y", 120)
	chunks := SplitText(text, 100, 10)

	if !strings.HasSuffix(chunks[0], ".") {
		t.Errorf("chunk[0] = %q, want a cut at the sentence boundary", chunks[0])
	}
}

func TestSplitTextOverlapCoversWholeInput(t *testing.T) {
	text := strings.Repeat("abcde ", 100) // 600 runes
	chunks := SplitText(text, 150, 30)

	joined := strings.Join(chunks, "")
	for _, part := range []string{"abcde"} {
		if !strings.Contains(joined, part) {
			t.Errorf("joined chunks missing %q", part)
		}
	}
	// The tail of the input must land in the final chunk.
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(strings.TrimSpace(text), strings.TrimSpace(last[len(last)-5:])) {
		t.Errorf("final chunk %q does not cover the input tail", last)
	}
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	// Overlap >= chunk size must not loop forever; the step falls back
	// to the chunk size.
	text := strings.Repeat("z", 300)
	chunks := SplitText(text, 100, 100)

	if len(chunks) != 3 {
		t.Errorf("chunks = %d, want 3 non-overlapping chunks", len(chunks))
	}
}

func TestSplitTextUmlautsNotSplitMidRune(t *testing.T) {
	text := strings.Repeat("ä", 250)
	chunks := SplitText(text, 100, 20)

	for i, c := range chunks {
		if strings.ContainsRune(c, '�') {
			t.Errorf("chunk %d contains a broken rune", i)
		}
	}
}
