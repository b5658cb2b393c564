package domain

// CompanyContext carries the positioning material a company has on file.
// Optional everywhere: an absent context is a normal outcome.
type CompanyContext struct {
	Name        string   `json:"name,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	Positioning string   `json:"positioning,omitempty"`
	Competitors []string `json:"competitors,omitempty"`
	Audiences   []string `json:"audiences,omitempty"`
	Pains       []string `json:"pains,omitempty"`
	UsageRules  []string `json:"usage_rules,omitempty"`
}

// IsZero reports whether the context carries no usable material.
func (c *CompanyContext) IsZero() bool {
	return c == nil || (c.Name == "" && c.Domain == "" && c.Positioning == "" &&
		len(c.Competitors) == 0 && len(c.Audiences) == 0 &&
		len(c.Pains) == 0 && len(c.UsageRules) == 0)
}
