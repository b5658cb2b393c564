package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/draftforge/draftforge/internal/db"
	"github.com/draftforge/draftforge/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	created  []*db.IndexDefinition
	existing map[string]bool

	hashes map[string]map[string]string

	searchResult *db.SearchResult
	searchErr    error
	lastQuery    *db.KNNQuery
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastQuery = q
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResult == nil {
		return &db.SearchResult{}, nil
	}
	return m.searchResult, nil
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hashes == nil {
		m.hashes = make(map[string]map[string]string)
	}
	m.hashes[key] = fields
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	return m.hashes[key], nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.hashes, key)
	return nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.hashes[key]
	return ok, nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.created = append(m.created, def)
	return nil
}

func (m *mockStore) DropIndex(_ context.Context, _ string) error { return nil }

func (m *mockStore) IndexExists(_ context.Context, name string) (bool, error) {
	return m.existing[name], nil
}

// returningStore serves search results the way the server does when a RETURN
// clause is present: only the requested attributes come back, and the KNN
// distance (hence the score) only when __vector_score is among them.
type returningStore struct {
	mockStore
	entries []db.SearchEntry
}

func (m *returningStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastQuery = q
	requested := make(map[string]bool, len(q.ReturnFields))
	for _, f := range q.ReturnFields {
		requested[f] = true
	}
	out := make([]db.SearchEntry, 0, len(m.entries))
	for _, e := range m.entries {
		projected := db.SearchEntry{Key: e.Key, Fields: map[string]string{}}
		for k, v := range e.Fields {
			if requested[k] {
				projected.Fields[k] = v
			}
		}
		if requested["__vector_score"] {
			projected.Score = e.Score
		}
		out = append(out, projected)
	}
	return &db.SearchResult{Total: len(out), Entries: out}, nil
}

type mockEmbedder struct {
	vec  []float32
	err  error
	text string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.text = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func newRepo(store *mockStore, embed *mockEmbedder) *Repo {
	return New(store, embed, "draftforge:", 4).WithHNSW(HNSWConfig{M: 32, EFConstruct: 400})
}

// --- Tests ---

func TestEnsureIndexes_CreatesPerSourceType(t *testing.T) {
	store := &mockStore{}
	repo := newRepo(store, &mockEmbedder{vec: []float32{1, 2, 3, 4}})

	if err := repo.EnsureIndexes(context.Background(), "community"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 3 {
		t.Fatalf("created %d indexes, want 3", len(store.created))
	}

	names := map[string]bool{}
	for _, def := range store.created {
		names[def.Name] = true
		if len(def.Prefixes) != 1 || !strings.HasPrefix(def.Prefixes[0], "draftforge:doc:community:") {
			t.Errorf("index %s prefixes = %v", def.Name, def.Prefixes)
		}
		vec := def.Fields[len(def.Fields)-1]
		if vec.Type != db.IndexFieldVector || vec.VectorDim != 4 || vec.VectorM != 32 {
			t.Errorf("index %s vector field = %+v", def.Name, vec)
		}
	}
	for _, source := range domain.AllSourceTypes() {
		if !names["draftforge:idx:community:"+string(source)] {
			t.Errorf("missing index for source %s: %v", source, names)
		}
	}
}

func TestEnsureIndexes_SkipsExisting(t *testing.T) {
	store := &mockStore{existing: map[string]bool{
		"draftforge:idx:community:thread": true,
	}}
	repo := newRepo(store, &mockEmbedder{})

	if err := repo.EnsureIndexes(context.Background(), "community"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 2 {
		t.Errorf("created %d indexes, want 2", len(store.created))
	}
}

func TestUpsert(t *testing.T) {
	store := &mockStore{}
	embed := &mockEmbedder{vec: []float32{1, 2, 3, 4}}
	repo := newRepo(store, embed)

	doc := domain.SourceDocument{
		Source:   domain.SourceThread,
		PostID:   "p1",
		URL:      "https://x/1",
		Title:    "Churn thread",
		Citation: "we keep losing users",
		Company:  "acme",
		Attributes: domain.Attributes{
			KeyIssues: []string{"churn"},
		},
	}
	if err := repo.Upsert(context.Background(), "community", &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if embed.text != "Churn thread\nwe keep losing users" {
		t.Errorf("embedded text = %q", embed.text)
	}
	if len(store.hashes) != 1 {
		t.Fatalf("stored %d hashes, want 1", len(store.hashes))
	}
	for key, fields := range store.hashes {
		if !strings.HasPrefix(key, "draftforge:doc:community:thread:") {
			t.Errorf("key = %q", key)
		}
		if fields["title"] != "Churn thread" || fields["company"] != "acme" {
			t.Errorf("fields = %v", fields)
		}
		if fields["vector"] != db.EncodeVector([]float32{1, 2, 3, 4}) {
			t.Error("vector not encoded")
		}
		if !strings.Contains(fields["attrs"], "churn") {
			t.Errorf("attrs = %q", fields["attrs"])
		}
	}
}

func TestUpsert_SameIdentitySameKey(t *testing.T) {
	store := &mockStore{}
	repo := newRepo(store, &mockEmbedder{vec: []float32{1, 2, 3, 4}})

	a := domain.SourceDocument{Source: domain.SourceThread, PostID: "p1", Citation: "v1"}
	b := domain.SourceDocument{Source: domain.SourceThread, PostID: "p1", Citation: "v2"}
	_ = repo.Upsert(context.Background(), "community", &a)
	_ = repo.Upsert(context.Background(), "community", &b)

	if len(store.hashes) != 1 {
		t.Errorf("re-ingesting the same identity must overwrite, got %d keys", len(store.hashes))
	}
}

func TestUpsert_InvalidSource(t *testing.T) {
	repo := newRepo(&mockStore{}, &mockEmbedder{})

	doc := domain.SourceDocument{Source: "forum", Citation: "x"}
	if err := repo.Upsert(context.Background(), "community", &doc); !errors.Is(err, domain.ErrUnknownSourceType) {
		t.Fatalf("err = %v, want ErrUnknownSourceType", err)
	}
}

func TestUpsert_EmbedFailure(t *testing.T) {
	store := &mockStore{}
	repo := newRepo(store, &mockEmbedder{err: errors.New("quota exceeded")})

	doc := domain.SourceDocument{Source: domain.SourceThread, Citation: "x"}
	if err := repo.Upsert(context.Background(), "community", &doc); err == nil {
		t.Fatal("expected error")
	}
	if len(store.hashes) != 0 {
		t.Error("nothing must be stored when embedding fails")
	}
}

func TestSearch(t *testing.T) {
	store := &mockStore{searchResult: &db.SearchResult{
		Total: 1,
		Entries: []db.SearchEntry{{
			Key:   "draftforge:doc:community:thread:abc",
			Score: 0.83,
			Fields: map[string]string{
				"post_id":  "p1",
				"url":      "https://x/1",
				"title":    "Churn thread",
				"citation": "quote",
				"attrs":    `{"key_issues":["churn"]}`,
			},
		}},
	}}
	embed := &mockEmbedder{vec: []float32{1, 2, 3, 4}}
	repo := newRepo(store, embed)

	docs, err := repo.Search(context.Background(), domain.SourceThread, "churn", 5, "community",
		map[string]string{"company": "acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}

	d := docs[0]
	if d.Source != domain.SourceThread || d.PostID != "p1" || d.Score != 0.83 {
		t.Errorf("unexpected doc: %+v", d)
	}
	if len(d.KeyIssues) != 1 || d.KeyIssues[0] != "churn" {
		t.Errorf("attrs not decoded: %+v", d.Attributes)
	}

	q := store.lastQuery
	if q.IndexName != "draftforge:idx:community:thread" || q.K != 5 {
		t.Errorf("unexpected query: %+v", q)
	}
	if q.TagFilters["company"] != "acme" {
		t.Errorf("filters = %v", q.TagFilters)
	}
}

func TestSearch_ScoreSurvivesReturnProjection(t *testing.T) {
	store := &returningStore{entries: []db.SearchEntry{{
		Key:   "draftforge:doc:community:thread:abc",
		Score: 0.91,
		Fields: map[string]string{
			"title":    "Churn thread",
			"citation": "quote",
		},
	}}}
	repo := New(store, &mockEmbedder{vec: []float32{1, 2, 3, 4}}, "draftforge:", 4)

	docs, err := repo.Search(context.Background(), domain.SourceThread, "churn", 5, "community", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	if docs[0].Score != 0.91 {
		t.Errorf("score = %v, want 0.91 (distance field must be in the RETURN list)", docs[0].Score)
	}
	if docs[0].Title != "Churn thread" || docs[0].Citation != "quote" {
		t.Errorf("attributes lost: %+v", docs[0])
	}
}

func TestSearch_MalformedAttrsDropped(t *testing.T) {
	store := &mockStore{searchResult: &db.SearchResult{
		Total: 1,
		Entries: []db.SearchEntry{{
			Key:    "k",
			Fields: map[string]string{"title": "t", "attrs": "{not json"},
		}},
	}}
	repo := newRepo(store, &mockEmbedder{vec: []float32{1}})

	docs, err := repo.Search(context.Background(), domain.SourceThread, "q", 1, "community", nil)
	if err != nil {
		t.Fatalf("malformed attrs must not fail the search: %v", err)
	}
	if docs[0].Title != "t" {
		t.Errorf("doc fields lost: %+v", docs[0])
	}
}

func TestSearch_EmbedFailure(t *testing.T) {
	repo := newRepo(&mockStore{}, &mockEmbedder{err: errors.New("down")})

	if _, err := repo.Search(context.Background(), domain.SourceThread, "q", 1, "community", nil); err == nil {
		t.Fatal("expected error")
	}
}
