package pipeline

import (
	"context"

	"github.com/draftforge/draftforge/internal/domain"
	"github.com/draftforge/draftforge/internal/usecase/assemble"
	"github.com/draftforge/draftforge/internal/usecase/rerank"
)

// QueryBuilder optimizes the retrieval query; best-effort, never fails.
type QueryBuilder interface {
	Build(ctx context.Context, campaignText string, topics []string, company *domain.CompanyContext) (query, prompt string)
}

// Retriever fans the query out across source types; best-effort, never fails.
type Retriever interface {
	Retrieve(ctx context.Context, query domain.RetrievalQuery, collection string, filters map[string]string) []domain.SourceDocument
}

// Reranker filters candidates; fail-open, never fails.
type Reranker interface {
	Rerank(ctx context.Context, cands []domain.Candidate, rc rerank.Context) []domain.Candidate
}

// Assembler builds the final generation prompt.
type Assembler interface {
	Assemble(ctx context.Context, in assemble.Input) (prompt string, unresolved []string)
}

// Completer executes the final generation call.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompanyProvider reads stored company contexts; absence is normal.
type CompanyProvider interface {
	Get(ctx context.Context, name string) (domain.CompanyContext, error)
}
