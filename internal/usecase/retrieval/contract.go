package retrieval

import (
	"context"

	"github.com/draftforge/draftforge/internal/domain"
)

// VectorIndex runs a similarity search for one query chunk against one
// source type. An empty result is not an error.
type VectorIndex interface {
	Search(
		ctx context.Context, source domain.SourceType, query string,
		k int, collection string, filters map[string]string,
	) ([]domain.SourceDocument, error)
}
