package rerank

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// wrapperKeys are the recognized object keys a model may nest its retained
// candidate list under, tried in order.
var wrapperKeys = []string{
	"documents",
	"results",
	"filtered_results",
	"insights",
	"selected_insights",
	"reranked_results",
	"reranked_documents",
	"reranked",
}

// idKeys are the exact id-like object fields tried before the *_id suffix scan.
var idKeys = []string{"id", "insight_id"}

var integerPattern = regexp.MustCompile(`\d+`)

// parsePositions extracts retained candidate positions from a model response
// whose shape is not guaranteed. Parsers are tried in priority order; each
// either yields a non-empty position list or falls through:
//
//  1. bare JSON array of integers (or numeric strings)
//  2. JSON array of objects carrying an id-like field
//  3. JSON object wrapping such an array under a recognized key
//  4. integer-token scan over non-JSON text
//
// Returns nil when no parser yields positions; callers treat nil as the
// fail-open signal.
func parsePositions(raw string) []int {
	text := stripCodeFence(raw)

	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return scanIntegers(text)
	}

	switch v := value.(type) {
	case []any:
		return parseArray(v)
	case map[string]any:
		return parseWrapped(v)
	case float64:
		// A single bare number is a one-element retained set.
		if pos, ok := asPosition(v); ok {
			return []int{pos}
		}
	}
	return nil
}

// parseArray handles shapes 1 and 2: plain positions or id-carrying objects.
func parseArray(items []any) []int {
	var positions []int
	for _, item := range items {
		switch it := item.(type) {
		case map[string]any:
			if pos, ok := idFromObject(it); ok {
				positions = append(positions, pos)
			}
		default:
			if pos, ok := asPosition(it); ok {
				positions = append(positions, pos)
			}
		}
	}
	return positions
}

// parseWrapped handles shape 3: an object nesting the array under a
// recognized key, recursing into the array parsers.
func parseWrapped(obj map[string]any) []int {
	for _, key := range wrapperKeys {
		nested, ok := obj[key].([]any)
		if !ok {
			continue
		}
		if positions := parseArray(nested); len(positions) > 0 {
			return positions
		}
	}
	return nil
}

// idFromObject extracts a position from an id-like field: "id",
// "insight_id", or any key ending in "_id".
func idFromObject(obj map[string]any) (int, bool) {
	for _, key := range idKeys {
		if v, ok := obj[key]; ok {
			return asPosition(v)
		}
	}
	for key, v := range obj {
		if strings.HasSuffix(key, "_id") {
			if pos, ok := asPosition(v); ok {
				return pos, true
			}
		}
	}
	return 0, false
}

// asPosition coerces a JSON value into a positive integer position.
func asPosition(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n == float64(int(n)) && int(n) > 0 {
			return int(n), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && i > 0 {
			return i, true
		}
	}
	return 0, false
}

// scanIntegers is the last-resort parser for non-JSON text: every integer
// token is treated as a position.
func scanIntegers(text string) []int {
	var positions []int
	for _, tok := range integerPattern.FindAllString(text, -1) {
		if i, err := strconv.Atoi(tok); err == nil && i > 0 {
			positions = append(positions, i)
		}
	}
	return positions
}

// stripCodeFence removes a surrounding markdown code fence, if present.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.Index(text, "\n"); i >= 0 {
		text = text[i+1:] // drop the language tag line
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
