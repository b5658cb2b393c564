package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/domain"
)

// --- Mocks ---

type mockIndex struct {
	mu      sync.Mutex
	docs    map[domain.SourceType][]domain.SourceDocument
	failFor map[domain.SourceType]error
	calls   []searchCall
}

type searchCall struct {
	source  domain.SourceType
	query   string
	filters map[string]string
}

func (m *mockIndex) Search(
	_ context.Context, source domain.SourceType, query string,
	_ int, _ string, filters map[string]string,
) ([]domain.SourceDocument, error) {
	m.mu.Lock()
	m.calls = append(m.calls, searchCall{source: source, query: query, filters: filters})
	m.mu.Unlock()

	if err := m.failFor[source]; err != nil {
		return nil, err
	}
	return m.docs[source], nil
}

func threadDoc(id string, score float64) domain.SourceDocument {
	return domain.SourceDocument{
		Source: domain.SourceThread, PostID: id, Title: "t-" + id, Score: score,
	}
}

// --- Tests ---

func TestRetrieve_FansOutPerSourceAndChunk(t *testing.T) {
	idx := &mockIndex{}
	svc := New(idx, Limits{}, zap.NewNop())

	q := domain.NewRetrievalQuery("chunk one\nchunk two", "")
	svc.Retrieve(context.Background(), q, "community", nil)

	// 3 source types x 2 chunks
	if len(idx.calls) != 6 {
		t.Fatalf("got %d searches, want 6", len(idx.calls))
	}
	perSource := map[domain.SourceType]int{}
	for _, c := range idx.calls {
		perSource[c.source]++
	}
	for _, st := range domain.AllSourceTypes() {
		if perSource[st] != 2 {
			t.Errorf("source %s searched %d times, want 2", st, perSource[st])
		}
	}
}

func TestRetrieve_CompanyFilterApplied(t *testing.T) {
	idx := &mockIndex{}
	svc := New(idx, Limits{}, zap.NewNop())

	q := domain.NewRetrievalQuery("query", "acme")
	svc.Retrieve(context.Background(), q, "community", nil)

	for _, c := range idx.calls {
		if c.filters["company"] != "acme" {
			t.Fatalf("expected company filter on every search, got %v", c.filters)
		}
	}
}

func TestRetrieve_FailedSourceContributesNothing(t *testing.T) {
	idx := &mockIndex{
		docs: map[domain.SourceType][]domain.SourceDocument{
			domain.SourceThread: {threadDoc("p1", 0.9)},
		},
		failFor: map[domain.SourceType]error{
			domain.SourceVideo: errors.New("index down"),
		},
	}
	svc := New(idx, Limits{}, zap.NewNop())

	docs := svc.Retrieve(context.Background(), domain.NewRetrievalQuery("q", ""), "community", nil)
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	if docs[0].PostID != "p1" {
		t.Errorf("unexpected doc: %+v", docs[0])
	}
}

func TestRetrieve_AllSourcesFailReturnsEmpty(t *testing.T) {
	idx := &mockIndex{failFor: map[domain.SourceType]error{
		domain.SourceThread: errors.New("down"),
		domain.SourceVideo:  errors.New("down"),
		domain.SourceAudio:  errors.New("down"),
	}}
	svc := New(idx, Limits{}, zap.NewNop())

	docs := svc.Retrieve(context.Background(), domain.NewRetrievalQuery("q", ""), "community", nil)
	if len(docs) != 0 {
		t.Errorf("expected empty result, got %d docs", len(docs))
	}
}

func TestRetrieve_EmptyQueryReturnsNil(t *testing.T) {
	idx := &mockIndex{}
	svc := New(idx, Limits{}, zap.NewNop())

	docs := svc.Retrieve(context.Background(), domain.NewRetrievalQuery("  \n ", ""), "community", nil)
	if docs != nil {
		t.Errorf("expected nil, got %v", docs)
	}
	if len(idx.calls) != 0 {
		t.Errorf("no searches expected for an empty query")
	}
}

func TestRetrieve_DedupsAcrossChunks(t *testing.T) {
	// The same doc comes back for both chunks; the pool must hold it once.
	idx := &mockIndex{docs: map[domain.SourceType][]domain.SourceDocument{
		domain.SourceThread: {threadDoc("p1", 0.9)},
	}}
	svc := New(idx, Limits{}, zap.NewNop())

	q := domain.RetrievalQuery{
		Text:    "chunk one\nchunk two",
		Sources: []domain.SourceType{domain.SourceThread},
	}
	docs := svc.Retrieve(context.Background(), q, "community", nil)
	if len(docs) != 1 {
		t.Errorf("got %d docs, want 1 after dedup", len(docs))
	}
}

func TestRetrieve_SourceCapApplied(t *testing.T) {
	pool := make([]domain.SourceDocument, 10)
	for i := range pool {
		pool[i] = threadDoc(fmt.Sprintf("p%d", i), float64(i)/10)
	}
	idx := &mockIndex{docs: map[domain.SourceType][]domain.SourceDocument{
		domain.SourceThread: pool,
	}}
	svc := New(idx, Limits{
		SourceCaps: map[domain.SourceType]int{domain.SourceThread: 3},
	}, zap.NewNop())

	q := domain.RetrievalQuery{Text: "q", Sources: []domain.SourceType{domain.SourceThread}}
	docs := svc.Retrieve(context.Background(), q, "community", nil)
	if len(docs) != 3 {
		t.Fatalf("got %d docs, want capped 3", len(docs))
	}
	// Cap keeps the highest-scoring documents.
	if docs[0].Score != 0.9 || docs[2].Score != 0.7 {
		t.Errorf("cap must keep top scores: %+v", docs)
	}
}

func TestRetrieve_SortedByScoreDescending(t *testing.T) {
	idx := &mockIndex{docs: map[domain.SourceType][]domain.SourceDocument{
		domain.SourceThread: {threadDoc("p1", 0.2)},
		domain.SourceVideo:  {{Source: domain.SourceVideo, URL: "u1", Title: "v", Score: 0.8}},
		domain.SourceAudio:  {{Source: domain.SourceAudio, URL: "u2", Title: "a", Score: 0.5}},
	}}
	svc := New(idx, Limits{}, zap.NewNop())

	docs := svc.Retrieve(context.Background(), domain.NewRetrievalQuery("q", ""), "community", nil)
	for i := 1; i < len(docs); i++ {
		if docs[i].Score > docs[i-1].Score {
			t.Fatalf("not sorted descending: %+v", docs)
		}
	}
}
