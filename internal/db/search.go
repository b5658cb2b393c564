package db

import (
	"encoding/binary"
	"math"
	"sort"
	"strings"
)

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	TagFilters   map[string]string // exact-match TAG conditions, AND-combined
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// EncodeVector serializes a float32 vector to the little-endian byte string
// stored in hash vector fields and passed as the KNN BLOB parameter.
func EncodeVector(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return string(buf)
}

// DecodeVector deserializes a vector stored via EncodeVector.
func DecodeVector(s string) []float32 {
	vec := make([]float32, len(s)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(s[i*4 : i*4+4])))
	}
	return vec
}

// BuildTagFilter renders TAG conditions as an FT.SEARCH filter expression.
// Keys are emitted in lexicographic order for deterministic queries.
// Returns "" when there are no conditions.
func BuildTagFilter(filters map[string]string) string {
	if len(filters) == 0 {
		return ""
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		if filters[k] != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('@')
		sb.WriteString(k)
		sb.WriteString(":{")
		sb.WriteString(EscapeTag(filters[k]))
		sb.WriteByte('}')
	}
	return sb.String()
}

// EscapeTag escapes characters with query syntax meaning inside TAG values.
func EscapeTag(v string) string {
	var sb strings.Builder
	for _, r := range v {
		switch r {
		case ',', '.', '<', '>', '{', '}', '[', ']', '"', '\'', ':', ';',
			'!', '@', '#', '$', '%', '^', '&', '*', '(', ')', '-', '+',
			'=', '~', '|', ' ', '/', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
