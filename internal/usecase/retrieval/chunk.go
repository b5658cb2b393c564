package retrieval

import "strings"

// chunkQuery splits a retrieval query into independently searchable chunks.
// The query is split into lines; any line whose whitespace token count
// exceeds tokenLimit is further split at sentence boundaries, packing
// sentences back together up to the limit.
func chunkQuery(query string, tokenLimit int) []string {
	var chunks []string
	for _, line := range strings.Split(query, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if tokenCount(line) <= tokenLimit {
			chunks = append(chunks, line)
			continue
		}
		chunks = append(chunks, packSentences(splitSentences(line), tokenLimit)...)
	}
	return chunks
}

func tokenCount(s string) int {
	return len(strings.Fields(s))
}

// splitSentences splits text after ., ! or ? followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && (text[i+1] == ' ' || text[i+1] == '\t') {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// packSentences greedily groups sentences into chunks of at most tokenLimit
// tokens. A single oversized sentence becomes its own chunk.
func packSentences(sentences []string, tokenLimit int) []string {
	var chunks []string
	var current []string
	currentTokens := 0

	for _, s := range sentences {
		n := tokenCount(s)
		if currentTokens > 0 && currentTokens+n > tokenLimit {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			currentTokens = 0
		}
		current = append(current, s)
		currentTokens += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
