package company

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/draftforge/draftforge/internal/db"
	"github.com/draftforge/draftforge/internal/domain"
)

// Provider reads and writes company contexts stored as JSON values.
type Provider struct {
	kv     db.KVStore
	prefix string
}

// New creates a company context provider.
func New(kv db.KVStore, prefix string) *Provider {
	return &Provider{kv: kv, prefix: prefix}
}

func (p *Provider) key(name string) string {
	return p.prefix + "company:" + slug(name)
}

// Get fetches the context for a company by name.
// Returns domain.ErrCompanyContextNotFound when absent; callers treat
// absence as a normal outcome.
func (p *Provider) Get(ctx context.Context, name string) (domain.CompanyContext, error) {
	if strings.TrimSpace(name) == "" {
		return domain.CompanyContext{}, domain.ErrCompanyContextNotFound
	}

	data, err := p.kv.Get(ctx, p.key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.CompanyContext{}, domain.ErrCompanyContextNotFound
		}
		return domain.CompanyContext{}, fmt.Errorf("get company context %q: %w", name, err)
	}

	var cc domain.CompanyContext
	if err := json.Unmarshal(data, &cc); err != nil {
		return domain.CompanyContext{}, fmt.Errorf("decode company context %q: %w", name, err)
	}
	if cc.Name == "" {
		cc.Name = name
	}
	return cc, nil
}

// Put stores the context for a company.
func (p *Provider) Put(ctx context.Context, cc domain.CompanyContext) error {
	if strings.TrimSpace(cc.Name) == "" {
		return fmt.Errorf("company name is required")
	}
	data, err := json.Marshal(cc)
	if err != nil {
		return fmt.Errorf("encode company context: %w", err)
	}
	if err := p.kv.Set(ctx, p.key(cc.Name), data); err != nil {
		return fmt.Errorf("put company context %q: %w", cc.Name, err)
	}
	return nil
}

// slug normalizes a company name into a stable key segment.
func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
