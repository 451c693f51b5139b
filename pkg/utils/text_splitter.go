package utils

import "strings"

// SplitText splits text into chunks of roughly chunkSize runes with the
// given overlap between neighbors. Boundaries prefer the last sentence or
// whitespace break inside the final fifth of the chunk so passages stay
// readable when surfaced as citations.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		cut := end
		if idx := lastBreak(runes[start:end]); idx > chunkSize*4/5 {
			cut = start + idx
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[start:cut])))
	}

	return chunks
}

func lastBreak(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		switch window[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == ' ' || window[i] == '\t' {
			return i + 1
		}
	}
	return len(window)
}
