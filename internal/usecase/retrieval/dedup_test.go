package retrieval

import (
	"testing"

	"github.com/draftforge/draftforge/internal/domain"
)

func TestDedupeByIdentity_KeepsHighestScore(t *testing.T) {
	docs := []domain.SourceDocument{
		{Source: domain.SourceThread, PostID: "p1", Title: "low", Score: 0.4},
		{Source: domain.SourceThread, PostID: "p2", Score: 0.9},
		{Source: domain.SourceThread, PostID: "p1", Title: "high", Score: 0.8},
	}
	got := dedupeByIdentity(docs)
	if len(got) != 2 {
		t.Fatalf("got %d docs, want 2", len(got))
	}
	// The winner replaces the loser in place, first-seen position preserved.
	if got[0].Title != "high" || got[0].Score != 0.8 {
		t.Errorf("expected higher-scoring duplicate to win: %+v", got[0])
	}
	if got[1].PostID != "p2" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestDedupeByIdentity_TieKeepsFirstSeen(t *testing.T) {
	docs := []domain.SourceDocument{
		{Source: domain.SourceVideo, URL: "u1", Title: "first", Score: 0.5},
		{Source: domain.SourceVideo, URL: "u1", Title: "second", Score: 0.5},
	}
	got := dedupeByIdentity(docs)
	if len(got) != 1 || got[0].Title != "first" {
		t.Errorf("equal scores must keep the first-seen copy: %+v", got)
	}
}

func TestDedupeByIdentity_DifferentSourcesNeverMerge(t *testing.T) {
	docs := []domain.SourceDocument{
		{Source: domain.SourceVideo, URL: "same", Score: 0.5},
		{Source: domain.SourceAudio, URL: "same", Score: 0.6},
	}
	if got := dedupeByIdentity(docs); len(got) != 2 {
		t.Errorf("identity is namespaced per source type: %+v", got)
	}
}

func TestDedupeByTitle_MergesAcrossSources(t *testing.T) {
	docs := []domain.SourceDocument{
		{Source: domain.SourceThread, PostID: "p1", Title: "Churn Spike", Score: 0.7},
		{Source: domain.SourceVideo, URL: "u1", Title: "churn spike ", Score: 0.9},
	}
	got := DedupeByTitle(docs)
	if len(got) != 1 {
		t.Fatalf("got %d docs, want 1", len(got))
	}
	if got[0].Source != domain.SourceVideo {
		t.Errorf("higher-scoring copy must survive: %+v", got[0])
	}
}

func TestDedupeByTitle_UntitledNeverMerge(t *testing.T) {
	docs := []domain.SourceDocument{
		{Source: domain.SourceAudio, Citation: "c1", Score: 0.5},
		{Source: domain.SourceAudio, Citation: "c2", Score: 0.6},
	}
	if got := DedupeByTitle(docs); len(got) != 2 {
		t.Errorf("untitled documents must not collapse: %+v", got)
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	docs := []domain.SourceDocument{
		{Source: domain.SourceThread, PostID: "p1", Title: "a", Score: 0.4},
		{Source: domain.SourceThread, PostID: "p2", Title: "b", Score: 0.9},
		{Source: domain.SourceThread, PostID: "p1", Title: "a", Score: 0.8},
		{Source: domain.SourceVideo, URL: "u1", Title: "c", Score: 0.3},
	}
	once := dedupeByIdentity(docs)
	twice := dedupeByIdentity(once)
	if len(once) != len(twice) {
		t.Fatalf("second pass changed length: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].IdentityKey() != twice[i].IdentityKey() || once[i].Score != twice[i].Score {
			t.Errorf("doc %d changed on second pass: %+v vs %+v", i, once[i], twice[i])
		}
	}
}
