package assemble

// placeholderAliases maps each canonical substitution key to the template
// variable names that resolve to it. Templates have drifted over time, so
// many semantically identical placeholders stay accepted; adding a name
// here is always safe, renaming canonical keys is not.
var placeholderAliases = map[string][]string{
	"campaign_text":       {"campaign_text", "marketing_text", "context", "campaign_context"},
	"icp":                 {"icp", "target_audience", "audience"},
	"topics":              {"topics", "background", "tags"},
	"documents":           {"documents", "insights", "community_insights", "context_documents"},
	"asset_type":          {"asset_type", "content_type"},
	"company_name":        {"company_name", "company"},
	"company_domain":      {"company_domain", "domain"},
	"company_positioning": {"company_positioning", "positioning"},
	"competitors":         {"competitors", "competitor_list"},
	"audiences":           {"audiences", "target_audiences"},
	"pains":               {"pains", "operational_pains"},
	"usage_rules":         {"usage_rules", "brand_rules"},
}

// templateNameCandidates returns the asset-template names to try, in order.
// Historical template sets used several naming schemes.
func templateNameCandidates(assetType, override string) []string {
	var names []string
	if override != "" {
		names = append(names, override)
	}
	return append(names,
		"asset_"+assetType,
		assetType,
		"generate_"+assetType,
	)
}
