package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/domain"
	"github.com/draftforge/draftforge/internal/metrics"
	"github.com/draftforge/draftforge/internal/usecase/assemble"
	"github.com/draftforge/draftforge/internal/usecase/rerank"
	"github.com/draftforge/draftforge/internal/usecase/retrieval"
)

// Service orchestrates one draft generation run: query building, retrieval,
// cleaning, reranking, prompt assembly and generation, strictly in sequence.
// Optional stages degrade fail-open inside their packages and report that
// through their return values; only duplicate execution, input validation
// and generation failure reach the caller.
type Service struct {
	guard      *Guard
	queries    QueryBuilder
	retriever  Retriever
	reranker   Reranker
	assembler  Assembler
	llm        Completer
	companies  CompanyProvider
	collection string
	logger     *zap.Logger
}

// New creates the pipeline orchestrator. The guard's lifecycle is tied to
// the orchestrator: each instance owns its own fingerprint registry.
func New(
	guard *Guard,
	queries QueryBuilder,
	retriever Retriever,
	reranker Reranker,
	assembler Assembler,
	llm Completer,
	companies CompanyProvider,
	collection string,
	logger *zap.Logger,
) *Service {
	return &Service{
		guard:      guard,
		queries:    queries,
		retriever:  retriever,
		reranker:   reranker,
		assembler:  assembler,
		llm:        llm,
		companies:  companies,
		collection: collection,
		logger:     logger,
	}
}

// Run executes the whole pipeline for one request. It returns a complete
// result or a single error; partial results are never exposed.
func (s *Service) Run(ctx context.Context, req domain.DraftRequest) (domain.DraftResult, error) {
	if err := req.Validate(); err != nil {
		return domain.DraftResult{}, err
	}

	fingerprint := req.Fingerprint()
	if err := s.guard.Acquire(fingerprint); err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("rejected").Inc()
		return domain.DraftResult{}, fmt.Errorf("request %s: %w", req.RequestID, err)
	}
	// Released on every exit path, success or failure.
	defer s.guard.Release(fingerprint)

	result, err := s.run(ctx, req)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		return domain.DraftResult{}, err
	}
	metrics.PipelineRunsTotal.WithLabelValues("completed").Inc()
	return result, nil
}

func (s *Service) run(ctx context.Context, req domain.DraftRequest) (domain.DraftResult, error) {
	log := s.logger.With(
		zap.String("request_id", req.RequestID),
		zap.String("user_id", req.UserID),
		zap.String("asset_type", req.AssetType),
	)

	company := s.resolveCompany(ctx, req)

	// BuildingQuery
	query, queryPrompt := s.timedQuery(ctx, req, company)
	log.Debug("retrieval query built",
		zap.String("query", query.Text),
		zap.String("query_prompt", queryPrompt),
	)

	// Retrieving — best-effort; an empty pool is a valid outcome.
	docs := s.timedRetrieve(ctx, query)
	docs = retrieval.DedupeByTitle(docs)

	// Cleaning
	cands := retrieval.Clean(docs)

	// Reranking — fail-open inside the reranker.
	start := time.Now()
	retained := s.reranker.Rerank(ctx, cands, rerank.Context{
		Query:            query.Text,
		CompanyName:      companyName(company, req.CompanyName),
		CompanyDomain:    companyDomain(company),
		Competitors:      companyCompetitors(company),
		TargetCompetitor: req.TargetCompetitor,
		ICP:              req.ICP,
	})
	metrics.PipelineStageDuration.WithLabelValues("rerank").Observe(time.Since(start).Seconds())

	filteredDocs := resolveDocs(docs, retained)

	// AssemblingPrompt
	start = time.Now()
	prompt, _ := s.assembler.Assemble(ctx, assemble.Input{
		AssetType:        req.AssetType,
		TemplateOverride: req.TemplateOverride,
		Topics:           req.Topics,
		CampaignText:     req.CampaignText,
		Documents:        serializeDocs(filteredDocs),
		ICP:              req.ICP,
		Company:          company,
	})
	metrics.PipelineStageDuration.WithLabelValues("assemble").Observe(time.Since(start).Seconds())

	// Generating — the only stage whose failure reaches the caller.
	start = time.Now()
	text, err := s.llm.Complete(ctx, prompt)
	metrics.PipelineStageDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error("generation failed",
			zap.Int("prompt_len", len(prompt)),
			zap.Error(err),
		)
		return domain.DraftResult{}, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	log.Info("draft generated",
		zap.Int("retrieved_docs", len(docs)),
		zap.Int("grounded_docs", len(filteredDocs)),
		zap.Int("generated_len", len(text)),
	)

	return domain.DraftResult{
		GeneratedText: text,
		Sources:       sourceList(filteredDocs),
		RetrievedDocs: docs,
		FinalPrompt:   prompt,
	}, nil
}

func (s *Service) timedQuery(
	ctx context.Context, req domain.DraftRequest, company *domain.CompanyContext,
) (domain.RetrievalQuery, string) {
	start := time.Now()
	text, prompt := s.queries.Build(ctx, req.CampaignText, req.Topics, company)
	metrics.PipelineStageDuration.WithLabelValues("query_build").Observe(time.Since(start).Seconds())
	return domain.NewRetrievalQuery(text, req.CompanyName), prompt
}

func (s *Service) timedRetrieve(ctx context.Context, query domain.RetrievalQuery) []domain.SourceDocument {
	start := time.Now()
	docs := s.retriever.Retrieve(ctx, query, s.collection, nil)
	metrics.PipelineStageDuration.WithLabelValues("retrieve").Observe(time.Since(start).Seconds())
	return docs
}

// resolveCompany prefers an inline context over the stored one; absence of
// either is a normal outcome.
func (s *Service) resolveCompany(ctx context.Context, req domain.DraftRequest) *domain.CompanyContext {
	if !req.Company.IsZero() {
		return req.Company
	}
	if req.CompanyName == "" || s.companies == nil {
		return nil
	}
	cc, err := s.companies.Get(ctx, req.CompanyName)
	if err != nil {
		s.logger.Debug("no stored company context",
			zap.String("company", req.CompanyName),
			zap.Error(err),
		)
		return nil
	}
	return &cc
}

// resolveDocs maps retained candidate tags back to their source documents.
// Tags are 1-based positions into the cleaned slice, which mirrors docs.
func resolveDocs(docs []domain.SourceDocument, retained []domain.Candidate) []domain.SourceDocument {
	out := make([]domain.SourceDocument, 0, len(retained))
	for _, c := range retained {
		if c.Tag >= 1 && c.Tag <= len(docs) {
			out = append(out, docs[c.Tag-1])
		}
	}
	return out
}

// sourceList derives the user-facing source list from retrieved documents
// only, never from internal working state.
func sourceList(docs []domain.SourceDocument) []string {
	sources := make([]string, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for i := range docs {
		src := docs[i].URL
		if src == "" {
			src = docs[i].Title
		}
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}
	return sources
}

// serializeDocs renders the grounding documents as the JSON context block
// embedded in the final prompt.
func serializeDocs(docs []domain.SourceDocument) string {
	if len(docs) == 0 {
		return "[]"
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

func companyName(c *domain.CompanyContext, fallback string) string {
	if c != nil && c.Name != "" {
		return c.Name
	}
	return fallback
}

func companyDomain(c *domain.CompanyContext) string {
	if c != nil {
		return c.Domain
	}
	return ""
}

func companyCompetitors(c *domain.CompanyContext) []string {
	if c != nil {
		return c.Competitors
	}
	return nil
}
