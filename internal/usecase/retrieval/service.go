package retrieval

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/draftforge/draftforge/internal/domain"
	"github.com/draftforge/draftforge/internal/metrics"
)

// Limits holds retrieval fan-out and pooling settings.
type Limits struct {
	KPerSource      int                       // KNN k per (chunk, source type)
	ChunkTokenLimit int                       // lines above this are re-chunked by sentence
	MaxConcurrent   int                       // parallel (chunk, source) searches
	SourceCaps      map[domain.SourceType]int // per-source-type pool cap after dedup
}

// DefaultSourceCap applies when a source type has no configured cap.
const DefaultSourceCap = 15

// Service fans a retrieval query out across the per-source-type vector
// indexes and pools the results. Retrieval is best-effort: individual
// search failures degrade to empty results for that (chunk, source) pair
// and a stage-wide problem yields an empty set, never an error.
type Service struct {
	index  VectorIndex
	limits Limits
	logger *zap.Logger
}

// New creates a retriever.
func New(index VectorIndex, limits Limits, logger *zap.Logger) *Service {
	if limits.KPerSource <= 0 {
		limits.KPerSource = 10
	}
	if limits.ChunkTokenLimit <= 0 {
		limits.ChunkTokenLimit = 100
	}
	if limits.MaxConcurrent <= 0 {
		limits.MaxConcurrent = 8
	}
	return &Service{index: index, limits: limits, logger: logger}
}

// Retrieve searches every (chunk, source type) pair, pools per source type,
// deduplicates by identity key, caps each pool, and returns the
// concatenation sorted by score descending.
func (s *Service) Retrieve(
	ctx context.Context, query domain.RetrievalQuery, collection string, filters map[string]string,
) []domain.SourceDocument {
	chunks := chunkQuery(query.Text, s.limits.ChunkTokenLimit)
	if len(chunks) == 0 {
		return nil
	}

	sources := query.Sources
	if len(sources) == 0 {
		sources = domain.AllSourceTypes()
	}

	if query.Company != "" {
		merged := map[string]string{"company": query.Company}
		for k, v := range filters {
			merged[k] = v
		}
		filters = merged
	}

	// Fan out per (chunk, source) pair; pools are merged under the mutex
	// and the Wait below is the barrier before pooling and sorting.
	pools := make(map[domain.SourceType][]domain.SourceDocument, len(sources))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limits.MaxConcurrent)

	for _, source := range sources {
		for _, chunk := range chunks {
			source, chunk := source, chunk
			g.Go(func() error {
				docs, err := s.index.Search(gctx, source, chunk, s.limits.KPerSource, collection, filters)
				if err != nil {
					metrics.RetrievalSearchesTotal.WithLabelValues(string(source), "error").Inc()
					s.logger.Warn("vector search failed",
						zap.String("source", string(source)),
						zap.Int("chunk_len", len(chunk)),
						zap.Error(err),
					)
					return nil // best-effort: a failed pair contributes nothing
				}
				metrics.RetrievalSearchesTotal.WithLabelValues(string(source), "success").Inc()

				mu.Lock()
				pools[source] = append(pools[source], docs...)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	var pooled []domain.SourceDocument
	for _, source := range sources {
		pool := dedupeByIdentity(pools[source])
		sortByScore(pool)
		if limit := s.sourceCap(source); len(pool) > limit {
			pool = pool[:limit]
		}
		pooled = append(pooled, pool...)
	}

	sortByScore(pooled)

	s.logger.Debug("retrieval pooled",
		zap.Int("chunks", len(chunks)),
		zap.Int("documents", len(pooled)),
	)
	return pooled
}

func (s *Service) sourceCap(source domain.SourceType) int {
	if limit, ok := s.limits.SourceCaps[source]; ok && limit > 0 {
		return limit
	}
	return DefaultSourceCap
}

// sortByScore sorts documents by score descending, stably so equal scores
// keep their first-seen order.
func sortByScore(docs []domain.SourceDocument) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})
}
