package rerank

import (
	"testing"
)

func assertPositions(t *testing.T, raw string, want []int) {
	t.Helper()
	got := parsePositions(raw)
	if len(got) != len(want) {
		t.Fatalf("parsePositions(%q) = %v, want %v", raw, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parsePositions(%q)[%d] = %d, want %d", raw, i, got[i], want[i])
		}
	}
}

func TestParsePositions_EquivalentShapes(t *testing.T) {
	// The same retained set expressed in every tolerated response shape.
	shapes := map[string]string{
		"bare array":        `[1, 3]`,
		"id objects":        `[{"id": 1}, {"id": 3}]`,
		"wrapped array":     `{"results": [1, 3]}`,
		"wrapped objects":   `{"documents": [{"id": 1}, {"id": 3}]}`,
		"insight ids":       `[{"insight_id": 1}, {"insight_id": 3}]`,
		"plain text":        `The best candidates are 1 and 3.`,
		"numeric strings":   `["1", "3"]`,
		"fenced json":       "```json\n[1, 3]\n```",
		"reranked wrapper":  `{"reranked": [1, 3]}`,
		"selected insights": `{"selected_insights": [{"id": 1}, {"id": 3}]}`,
	}
	for name, raw := range shapes {
		t.Run(name, func(t *testing.T) {
			assertPositions(t, raw, []int{1, 3})
		})
	}
}

func TestParsePositions_CustomIDSuffix(t *testing.T) {
	assertPositions(t, `[{"doc_id": 2}, {"doc_id": 5}]`, []int{2, 5})
}

func TestParsePositions_SingleNumber(t *testing.T) {
	assertPositions(t, `4`, []int{4})
}

func TestParsePositions_Unparseable(t *testing.T) {
	inputs := []string{
		"",
		"none of the candidates are relevant",
		`{"unknown_key": [1, 2]}`,
		`[true, false]`,
		`[{"name": "x"}]`,
		`[0, -1]`,
	}
	for _, raw := range inputs {
		if got := parsePositions(raw); got != nil {
			t.Errorf("parsePositions(%q) = %v, want nil", raw, got)
		}
	}
}

func TestParsePositions_MixedArraySkipsJunk(t *testing.T) {
	assertPositions(t, `[1, "x", 3, null]`, []int{1, 3})
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct{ in, want string }{
		{"[1]", "[1]"},
		{"```json\n[1]\n```", "[1]"},
		{"```\n[1]\n```", "[1]"},
		{"  ```json\n[1, 2]\n```  ", "[1, 2]"},
	}
	for _, tc := range tests {
		if got := stripCodeFence(tc.in); got != tc.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
