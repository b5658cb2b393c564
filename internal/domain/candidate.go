package domain

// Candidate is a position-tagged, field-reduced projection of a SourceDocument
// used during reranking. The tag is the only way to map the reranker's output
// back to the source document; it stays dense and contiguous (1..N) for the
// lifetime of one rerank call.
type Candidate struct {
	Tag               int      `json:"id"`
	Title             string   `json:"title,omitempty"`
	Citation          string   `json:"citation,omitempty"`
	KeyIssues         []string `json:"key_issues,omitempty"`
	PainPhrases       []string `json:"pain_phrases,omitempty"`
	EmotionalTriggers []string `json:"emotional_triggers,omitempty"`
	BuyerLanguage     []string `json:"buyer_language,omitempty"`
	ImplicitRisks     []string `json:"implicit_risks,omitempty"`
	Score             float64  `json:"score"`
}
