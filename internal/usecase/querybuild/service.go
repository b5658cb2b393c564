package querybuild

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/domain"
	"github.com/draftforge/draftforge/internal/metrics"
)

// templateName is the prompt template used to optimize retrieval queries.
const templateName = "retrieval_query"

// Service turns a campaign brief into an optimized retrieval query via one
// completion call. Query building is best-effort: on any failure it falls
// back to the raw campaign text and never returns an error.
type Service struct {
	templates TemplateSource
	llm       Completer
	logger    *zap.Logger
}

// New creates a query builder.
func New(templates TemplateSource, llm Completer, logger *zap.Logger) *Service {
	return &Service{templates: templates, llm: llm, logger: logger}
}

// Build returns the retrieval query and the exact prompt used to produce it.
// The fallback path returns the campaign text verbatim with the prompt that
// was attempted (empty if the template was unavailable).
func (s *Service) Build(
	ctx context.Context, campaignText string, topics []string, company *domain.CompanyContext,
) (query, prompt string) {
	tpl, err := s.templates.GetLatest(ctx, templateName)
	if err != nil {
		s.fallback("template_unavailable", err, campaignText)
		return campaignText, ""
	}

	prompt = formatPrompt(tpl.Body, campaignText, topics, company)

	out, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		s.fallback("completion_failed", err, campaignText)
		return campaignText, prompt
	}

	out = strings.TrimSpace(out)
	if out == "" {
		s.fallback("empty_completion", nil, campaignText)
		return campaignText, prompt
	}

	s.logger.Debug("built retrieval query",
		zap.Int("query_len", len(out)),
		zap.Int("topics", len(topics)),
	)
	return out, prompt
}

func (s *Service) fallback(reason string, err error, campaignText string) {
	metrics.PipelineFallbacksTotal.WithLabelValues("query_build", reason).Inc()
	s.logger.Warn("query build fell back to raw campaign text",
		zap.String("reason", reason),
		zap.Int("campaign_text_len", len(campaignText)),
		zap.Error(err),
	)
}

func formatPrompt(body, campaignText string, topics []string, company *domain.CompanyContext) string {
	positioning := ""
	if !company.IsZero() {
		positioning = company.Positioning
		if positioning == "" {
			positioning = company.Domain
		}
	}

	replacer := strings.NewReplacer(
		"{campaign_text}", campaignText,
		"{topics}", strings.Join(topics, ", "),
		"{company_positioning}", positioning,
	)
	return replacer.Replace(body)
}
