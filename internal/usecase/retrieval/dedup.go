package retrieval

import "github.com/draftforge/draftforge/internal/domain"

// dedupeBy collapses documents sharing a key, keeping the highest-scoring
// copy. On equal scores the first-seen copy wins. First-seen positions are
// preserved, which makes the pass idempotent.
func dedupeBy(docs []domain.SourceDocument, key func(*domain.SourceDocument) string) []domain.SourceDocument {
	if len(docs) < 2 {
		return docs
	}

	kept := make([]domain.SourceDocument, 0, len(docs))
	at := make(map[string]int, len(docs))

	for i := range docs {
		k := key(&docs[i])
		if j, ok := at[k]; ok {
			if docs[i].Score > kept[j].Score {
				kept[j] = docs[i]
			}
			continue
		}
		at[k] = len(kept)
		kept = append(kept, docs[i])
	}
	return kept
}

// dedupeByIdentity removes duplicates within one source type's pool using
// the type-specific identity key.
func dedupeByIdentity(docs []domain.SourceDocument) []domain.SourceDocument {
	return dedupeBy(docs, func(d *domain.SourceDocument) string { return d.IdentityKey() })
}

// DedupeByTitle is the global second dedup pass: different source types can
// describe the same underlying discussion, so documents are collapsed by
// normalized title across all pools. Untitled documents fall back to a
// content hash and are never merged with unrelated untitled documents.
func DedupeByTitle(docs []domain.SourceDocument) []domain.SourceDocument {
	return dedupeBy(docs, func(d *domain.SourceDocument) string { return d.TitleKey() })
}
