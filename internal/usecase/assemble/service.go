package assemble

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/domain"
	"github.com/draftforge/draftforge/internal/metrics"
)

// Input carries everything the final generation prompt is built from.
type Input struct {
	AssetType        string
	TemplateOverride string
	Topics           []string
	CampaignText     string
	Documents        string // serialized reranked document context
	ICP              string
	Company          *domain.CompanyContext
}

// TemplateSource supplies named prompt templates.
type TemplateSource interface {
	GetLatest(ctx context.Context, name string) (domain.Template, error)
}

// Service merges the asset-type template, company context and document
// context into the final generation prompt. A missing template degrades to
// a literal instruction naming the asset type; unresolved placeholders are
// flagged inline rather than failing, so a partially broken template still
// produces reviewable output.
type Service struct {
	templates TemplateSource
	logger    *zap.Logger
}

// New creates a prompt assembler.
func New(templates TemplateSource, logger *zap.Logger) *Service {
	return &Service{templates: templates, logger: logger}
}

// placeholderPattern matches template variables like {target_audience}.
// The leading letter requirement keeps JSON braces in the document context
// out of the scan.
var placeholderPattern = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// Assemble returns the final prompt and the names of any placeholders that
// stayed unresolved after substitution.
func (s *Service) Assemble(ctx context.Context, in Input) (string, []string) {
	body := s.templateBody(ctx, in.AssetType, in.TemplateOverride)

	values := s.substitutions(in)

	prompt := placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})

	var unresolved []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(prompt, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			unresolved = append(unresolved, m[1])
		}
	}

	if len(unresolved) > 0 {
		metrics.PipelineFallbacksTotal.WithLabelValues("assemble", "unresolved_placeholders").Inc()
		s.logger.Warn("prompt contains unresolved placeholders",
			zap.Strings("placeholders", unresolved),
			zap.String("asset_type", in.AssetType),
		)
		prompt = placeholderPattern.ReplaceAllString(prompt, "[unresolved: $1]")
	}

	return prompt, unresolved
}

// templateBody looks the asset template up under its historical name
// aliases, degrading to a literal fallback instruction.
func (s *Service) templateBody(ctx context.Context, assetType, override string) string {
	for _, name := range templateNameCandidates(assetType, override) {
		tpl, err := s.templates.GetLatest(ctx, name)
		if err == nil {
			return tpl.Body
		}
	}

	metrics.PipelineFallbacksTotal.WithLabelValues("assemble", "template_unavailable").Inc()
	s.logger.Warn("asset template unavailable, using literal fallback",
		zap.String("asset_type", assetType),
	)
	return fallbackBody(assetType)
}

// fallbackBody is the literal instruction used when no template exists for
// the asset type.
func fallbackBody(assetType string) string {
	return fmt.Sprintf(`Write a %s for the target audience {target_audience}.

Topics: {topics}

Campaign brief:
{campaign_text}

Company positioning:
{company_positioning}

Ground the copy in these community discussions:
{documents}`, assetType)
}

// substitutions expands the canonical values through the alias table into
// a flat placeholder → value map.
func (s *Service) substitutions(in Input) map[string]string {
	company := in.Company
	if company == nil {
		// Absent context substitutes as empty, it is not a template defect.
		company = &domain.CompanyContext{}
	}
	canonical := map[string]string{
		"campaign_text":       in.CampaignText,
		"icp":                 in.ICP,
		"topics":              strings.Join(in.Topics, ", "),
		"documents":           in.Documents,
		"asset_type":          in.AssetType,
		"company_name":        company.Name,
		"company_domain":      company.Domain,
		"company_positioning": company.Positioning,
		"competitors":         strings.Join(company.Competitors, ", "),
		"audiences":           strings.Join(company.Audiences, ", "),
		"pains":               strings.Join(company.Pains, ", "),
		"usage_rules":         strings.Join(company.UsageRules, "\n"),
	}

	values := make(map[string]string, len(canonical)*2)
	for key, value := range canonical {
		for _, alias := range placeholderAliases[key] {
			values[alias] = value
		}
	}
	return values
}
