package domain

// RetrievalQuery is the optimized query one pipeline run searches with.
// Immutable after creation.
type RetrievalQuery struct {
	Text    string
	Company string       // optional per-company filter
	Sources []SourceType // empty means all source types
}

// NewRetrievalQuery creates a retrieval query over the given sources.
func NewRetrievalQuery(text, company string, sources ...SourceType) RetrievalQuery {
	if len(sources) == 0 {
		sources = AllSourceTypes()
	}
	return RetrievalQuery{Text: text, Company: company, Sources: sources}
}
