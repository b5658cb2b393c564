package index

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/draftforge/draftforge/internal/db"
	"github.com/draftforge/draftforge/internal/domain"
)

// Store is the storage surface the vector index needs.
type Store interface {
	db.Searcher
	db.HashStore
	db.IndexManager
}

// HNSWConfig holds index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo is the per-source-type vector index over community documents.
// Each source type gets its own FT index so retrieval caps and identity
// rules stay type-specific.
type Repo struct {
	store  Store
	embed  domain.Embedder
	prefix string
	dims   int
	hnsw   HNSWConfig
}

// New creates a vector index repository.
func New(store Store, embed domain.Embedder, prefix string, dims int) *Repo {
	return &Repo{store: store, embed: embed, prefix: prefix, dims: dims}
}

// WithHNSW overrides HNSW index build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

func (r *Repo) indexName(collection string, source domain.SourceType) string {
	return r.prefix + "idx:" + collection + ":" + string(source)
}

func (r *Repo) docPrefix(collection string, source domain.SourceType) string {
	return r.prefix + "doc:" + collection + ":" + string(source) + ":"
}

func (r *Repo) docKey(collection string, doc *domain.SourceDocument) string {
	return r.docPrefix(collection, doc.Source) + domain.ContentHash(doc.IdentityKey())
}

// EnsureIndexes creates the per-source-type FT indexes if absent.
func (r *Repo) EnsureIndexes(ctx context.Context, collection string) error {
	for _, source := range domain.AllSourceTypes() {
		name := r.indexName(collection, source)

		exists, err := r.store.IndexExists(ctx, name)
		if err != nil {
			return fmt.Errorf("check index %s: %w", name, err)
		}
		if exists {
			continue
		}

		def := &db.IndexDefinition{
			Name:     name,
			Prefixes: []string{r.docPrefix(collection, source)},
			Fields: []db.IndexField{
				{Name: "company", Type: db.IndexFieldTag},
				{Name: "title", Type: db.IndexFieldText},
				{
					Name:              "vector",
					Type:              db.IndexFieldVector,
					VectorAlgo:        db.VectorHNSW,
					VectorDim:         r.dims,
					VectorDistance:    db.DistanceCosine,
					VectorM:           r.hnsw.M,
					VectorEFConstruct: r.hnsw.EFConstruct,
				},
			},
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
		if err := r.store.CreateIndex(ctx, def); err != nil && err != db.ErrIndexExists {
			return fmt.Errorf("create index %s: %w", name, err)
		}
	}
	return nil
}

// Upsert embeds and stores one source document.
func (r *Repo) Upsert(ctx context.Context, collection string, doc *domain.SourceDocument) error {
	if _, err := domain.ParseSourceType(string(doc.Source)); err != nil {
		return err
	}

	emb, err := r.embed.Embed(ctx, doc.Title+"\n"+doc.Citation)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}

	attrs, err := json.Marshal(doc.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}

	fields := map[string]string{
		"source":   string(doc.Source),
		"post_id":  doc.PostID,
		"url":      doc.URL,
		"title":    doc.Title,
		"citation": doc.Citation,
		"channel":  doc.Channel,
		"company":  doc.Company,
		"attrs":    string(attrs),
		"vector":   db.EncodeVector(emb.Embedding),
	}

	if err := r.store.HSet(ctx, r.docKey(collection, doc), fields); err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	return nil
}

// returnFields is everything Search projects back out of the index. With a
// RETURN clause present the server sends only the listed attributes, so the
// KNN distance field must be requested explicitly or every hit comes back
// unscored.
var returnFields = []string{"source", "post_id", "url", "title", "citation", "channel", "company", "attrs", "__vector_score"}

// Search embeds the query chunk and runs a KNN search against the index for
// one source type. An empty result is not an error.
func (r *Repo) Search(
	ctx context.Context, source domain.SourceType, query string,
	k int, collection string, filters map[string]string,
) ([]domain.SourceDocument, error) {
	emb, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(collection, source),
		Vector:       emb.Embedding,
		K:            k,
		TagFilters:   filters,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	docs := make([]domain.SourceDocument, 0, len(res.Entries))
	for _, entry := range res.Entries {
		docs = append(docs, entryToDocument(source, entry))
	}
	return docs, nil
}

func entryToDocument(source domain.SourceType, entry db.SearchEntry) domain.SourceDocument {
	doc := domain.SourceDocument{
		Source:   source,
		PostID:   entry.Fields["post_id"],
		URL:      entry.Fields["url"],
		Title:    entry.Fields["title"],
		Citation: entry.Fields["citation"],
		Channel:  entry.Fields["channel"],
		Company:  entry.Fields["company"],
		Score:    entry.Score,
	}
	if attrs := entry.Fields["attrs"]; attrs != "" {
		// Malformed attribute bags are dropped, not fatal: attributes are
		// display-only and never used for identity.
		_ = json.Unmarshal([]byte(attrs), &doc.Attributes)
	}
	return doc
}
