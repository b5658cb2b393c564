package rerank

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/domain"
	"github.com/draftforge/draftforge/internal/metrics"
)

// Template names for the standard and competitor-targeted variants.
const (
	templateName           = "rerank"
	competitorTemplateName = "rerank_competitor"
)

// Context is the free-text context the rerank prompt is built from.
type Context struct {
	Query            string
	CompanyName      string
	CompanyDomain    string
	Competitors      []string
	TargetCompetitor string // non-empty selects the competitor variant
	ICP              string
}

// Service filters retrieval candidates with a second completion call.
// Reranking is an optimization, not a gate: on any failure — missing
// template, failed call, unparseable output, zero resolvable positions —
// the full input candidate set is returned unfiltered.
type Service struct {
	templates TemplateSource
	llm       Completer
	logger    *zap.Logger
}

// New creates a reranker.
func New(templates TemplateSource, llm Completer, logger *zap.Logger) *Service {
	return &Service{templates: templates, llm: llm, logger: logger}
}

// Rerank returns the retained subset of cands in the order the model chose,
// or cands itself on any fail-open path.
func (s *Service) Rerank(ctx context.Context, cands []domain.Candidate, rc Context) []domain.Candidate {
	if len(cands) == 0 {
		return cands
	}

	name := templateName
	if rc.TargetCompetitor != "" {
		name = competitorTemplateName
	}

	tpl, err := s.templates.GetLatest(ctx, name)
	if err != nil {
		return s.failOpen(cands, "template_unavailable", err)
	}

	prompt, err := buildPrompt(tpl.Body, cands, rc)
	if err != nil {
		return s.failOpen(cands, "prompt_build_failed", err)
	}

	out, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return s.failOpen(cands, "completion_failed", err)
	}

	positions := parsePositions(out)
	if len(positions) == 0 {
		return s.failOpen(cands, "unparseable_response", nil)
	}

	// Positions that do not resolve to an input candidate are silently
	// ignored; the tag is the sole mapping back to candidates.
	byTag := make(map[int]domain.Candidate, len(cands))
	for _, c := range cands {
		byTag[c.Tag] = c
	}

	retained := make([]domain.Candidate, 0, len(positions))
	seen := make(map[int]bool, len(positions))
	for _, pos := range positions {
		c, ok := byTag[pos]
		if !ok || seen[pos] {
			continue
		}
		seen[pos] = true
		retained = append(retained, c)
	}

	if len(retained) == 0 {
		return s.failOpen(cands, "no_resolvable_positions", nil)
	}

	s.logger.Debug("reranked candidates",
		zap.Int("in", len(cands)),
		zap.Int("out", len(retained)),
	)
	return retained
}

func (s *Service) failOpen(cands []domain.Candidate, reason string, err error) []domain.Candidate {
	metrics.PipelineFallbacksTotal.WithLabelValues("rerank", reason).Inc()
	s.logger.Warn("rerank fell open to unfiltered candidate set",
		zap.String("reason", reason),
		zap.Int("candidates", len(cands)),
		zap.Error(err),
	)
	return cands
}

func buildPrompt(body string, cands []domain.Candidate, rc Context) (string, error) {
	docs, err := json.MarshalIndent(cands, "", "  ")
	if err != nil {
		return "", err
	}

	replacer := strings.NewReplacer(
		"{documents}", string(docs),
		"{query}", rc.Query,
		"{company_name}", rc.CompanyName,
		"{company_domain}", rc.CompanyDomain,
		"{competitors}", strings.Join(rc.Competitors, ", "),
		"{target_competitor}", rc.TargetCompetitor,
		"{icp}", rc.ICP,
	)
	return replacer.Replace(body), nil
}
