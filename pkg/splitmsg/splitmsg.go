// Package splitmsg cuts long chat messages into chunks that fit a transport's
// hard length limit. Cut points prefer line breaks, then word breaks, and only
// fall back to a hard cut when a single word exceeds the limit. Chunks are raw
// slices of the input, so concatenating them reproduces the original text.
package splitmsg

import "strings"

// Split returns text cut into chunks of at most limit bytes. An empty input
// yields no chunks; an input within the limit yields a single chunk equal to
// the input. limit must be positive.
func Split(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		limit = 1
	}

	var chunks []string
	for len(text) > limit {
		cut := cutPoint(text, limit)
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	chunks = append(chunks, text)
	return chunks
}

// cutPoint picks where to cut the next chunk: after the last newline in the
// window if one exists past the halfway mark, otherwise after the last space,
// otherwise exactly at the limit.
func cutPoint(text string, limit int) int {
	window := text[:limit]
	if idx := strings.LastIndexByte(window, '\n'); idx > limit/2 {
		return idx + 1
	}
	if idx := strings.LastIndexByte(window, ' '); idx > limit/2 {
		return idx + 1
	}
	return limit
}
