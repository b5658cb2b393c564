package retrieval

import "github.com/draftforge/draftforge/internal/domain"

// Clean projects documents down to the minimal field set the reranker
// consumes, assigning dense 1-based tags in input order. The projection is
// lossless for the fields it keeps and never alters scores; everything else
// (URLs, channel names, author identifiers) is dropped purely to reduce the
// volume of text sent to the rerank model.
func Clean(docs []domain.SourceDocument) []domain.Candidate {
	cands := make([]domain.Candidate, len(docs))
	for i := range docs {
		d := &docs[i]
		cands[i] = domain.Candidate{
			Tag:               i + 1,
			Title:             d.Title,
			Citation:          d.Citation,
			KeyIssues:         d.KeyIssues,
			PainPhrases:       d.PainPhrases,
			EmotionalTriggers: d.EmotionalTriggers,
			BuyerLanguage:     d.BuyerLanguage,
			ImplicitRisks:     d.ImplicitRisks,
			Score:             d.Score,
		}
	}
	return cands
}
