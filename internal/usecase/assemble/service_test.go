package assemble

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/domain"
)

// --- Mocks ---

type mockTemplates struct {
	bodies map[string]string
	asked  []string
}

func (m *mockTemplates) GetLatest(_ context.Context, name string) (domain.Template, error) {
	m.asked = append(m.asked, name)
	if body, ok := m.bodies[name]; ok {
		return domain.Template{Name: name, Body: body}, nil
	}
	return domain.Template{}, domain.ErrTemplateNotFound
}

func newService(bodies map[string]string) (*Service, *mockTemplates) {
	tpls := &mockTemplates{bodies: bodies}
	return New(tpls, zap.NewNop()), tpls
}

// --- Tests ---

func TestAssemble_Substitutes(t *testing.T) {
	svc, _ := newService(map[string]string{
		"asset_email": "Write an email about {campaign_text} for {icp}.\n{documents}",
	})

	prompt, unresolved := svc.Assemble(context.Background(), Input{
		AssetType:    "email",
		CampaignText: "spring launch",
		ICP:          "devops leads",
		Documents:    `[{"id":1}]`,
	})
	if len(unresolved) != 0 {
		t.Fatalf("unexpected unresolved placeholders: %v", unresolved)
	}
	want := "Write an email about spring launch for devops leads.\n[{\"id\":1}]"
	if prompt != want {
		t.Errorf("prompt = %q, want %q", prompt, want)
	}
}

func TestAssemble_AliasEquivalence(t *testing.T) {
	// Templates written against any historical naming scheme produce the
	// same prompt.
	in := Input{
		AssetType:    "email",
		CampaignText: "launch",
		ICP:          "founders",
		Documents:    "docs",
	}
	bodies := []string{
		"{campaign_text}|{icp}|{documents}",
		"{marketing_text}|{target_audience}|{insights}",
		"{context}|{audience}|{community_insights}",
	}
	var prompts []string
	for _, body := range bodies {
		svc, _ := newService(map[string]string{"asset_email": body})
		p, unresolved := svc.Assemble(context.Background(), in)
		if len(unresolved) != 0 {
			t.Fatalf("template %q left unresolved: %v", body, unresolved)
		}
		prompts = append(prompts, p)
	}
	for i := 1; i < len(prompts); i++ {
		if prompts[i] != prompts[0] {
			t.Errorf("alias template %d produced %q, want %q", i, prompts[i], prompts[0])
		}
	}
}

func TestAssemble_TemplateNameCandidates(t *testing.T) {
	svc, tpls := newService(map[string]string{
		"generate_one_pager": "found it: {campaign_text}",
	})

	prompt, _ := svc.Assemble(context.Background(), Input{
		AssetType:    "one_pager",
		CampaignText: "x",
	})
	if !strings.HasPrefix(prompt, "found it:") {
		t.Errorf("expected generate_ variant to resolve, got %q", prompt)
	}

	want := []string{"asset_one_pager", "one_pager", "generate_one_pager"}
	if len(tpls.asked) != len(want) {
		t.Fatalf("asked %v, want %v", tpls.asked, want)
	}
	for i := range want {
		if tpls.asked[i] != want[i] {
			t.Errorf("lookup %d: got %q, want %q", i, tpls.asked[i], want[i])
		}
	}
}

func TestAssemble_OverrideTriedFirst(t *testing.T) {
	svc, tpls := newService(map[string]string{
		"my_custom":   "custom {campaign_text}",
		"asset_email": "standard {campaign_text}",
	})

	prompt, _ := svc.Assemble(context.Background(), Input{
		AssetType:        "email",
		TemplateOverride: "my_custom",
		CampaignText:     "x",
	})
	if prompt != "custom x" {
		t.Errorf("prompt = %q, want override template output", prompt)
	}
	if tpls.asked[0] != "my_custom" {
		t.Errorf("override must be tried first, asked %v", tpls.asked)
	}
}

func TestAssemble_MissingTemplateFallsBack(t *testing.T) {
	svc, _ := newService(nil)

	prompt, unresolved := svc.Assemble(context.Background(), Input{
		AssetType:    "webinar_abstract",
		CampaignText: "launch",
		ICP:          "founders",
		Topics:       []string{"churn"},
		Documents:    "docs",
	})
	if !strings.Contains(prompt, "Write a webinar_abstract") {
		t.Errorf("fallback must name the asset type literally: %q", prompt)
	}
	if len(unresolved) != 0 {
		t.Errorf("fallback placeholders must all resolve: %v", unresolved)
	}
	if !strings.Contains(prompt, "launch") || !strings.Contains(prompt, "docs") {
		t.Errorf("fallback prompt missing content: %q", prompt)
	}
}

func TestAssemble_UnresolvedPlaceholdersFlaggedInline(t *testing.T) {
	svc, _ := newService(map[string]string{
		"asset_email": "{campaign_text} and {made_up_field} plus {another_one}",
	})

	prompt, unresolved := svc.Assemble(context.Background(), Input{
		AssetType:    "email",
		CampaignText: "x",
	})
	if len(unresolved) != 2 {
		t.Fatalf("unresolved = %v, want 2 names", unresolved)
	}
	if unresolved[0] != "made_up_field" || unresolved[1] != "another_one" {
		t.Errorf("unexpected unresolved names: %v", unresolved)
	}
	if !strings.Contains(prompt, "[unresolved: made_up_field]") ||
		!strings.Contains(prompt, "[unresolved: another_one]") {
		t.Errorf("markers missing from prompt: %q", prompt)
	}
}

func TestAssemble_AbsentCompanySubstitutesEmpty(t *testing.T) {
	svc, _ := newService(map[string]string{
		"asset_email": "from {company_name}: {campaign_text}",
	})

	prompt, unresolved := svc.Assemble(context.Background(), Input{
		AssetType:    "email",
		CampaignText: "x",
	})
	if len(unresolved) != 0 {
		t.Errorf("absent company must not count as unresolved: %v", unresolved)
	}
	if prompt != "from : x" {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestAssemble_JSONBracesNotTreatedAsPlaceholders(t *testing.T) {
	svc, _ := newService(map[string]string{
		"asset_email": "{documents}",
	})

	prompt, unresolved := svc.Assemble(context.Background(), Input{
		AssetType: "email",
		Documents: `[{"id": 1, "title": "x"}]`,
	})
	if len(unresolved) != 0 {
		t.Errorf("JSON keys must not scan as placeholders: %v", unresolved)
	}
	if !strings.Contains(prompt, `"id": 1`) {
		t.Errorf("document context lost: %q", prompt)
	}
}

func TestAssemble_CompanyContextFields(t *testing.T) {
	svc, _ := newService(map[string]string{
		"asset_email": "{company_name}|{positioning}|{competitors}|{usage_rules}",
	})

	prompt, _ := svc.Assemble(context.Background(), Input{
		AssetType: "email",
		Company: &domain.CompanyContext{
			Name:        "acme",
			Positioning: "retention platform",
			Competitors: []string{"a", "b"},
			UsageRules:  []string{"no superlatives", "cite sources"},
		},
	})
	want := "acme|retention platform|a, b|no superlatives\ncite sources"
	if prompt != want {
		t.Errorf("prompt = %q, want %q", prompt, want)
	}
}
