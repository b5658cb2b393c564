package templates

import (
	"context"
	"fmt"
	"time"

	"github.com/draftforge/draftforge/internal/db"
	"github.com/draftforge/draftforge/internal/domain"
)

// Store persists named prompt templates as Redis hashes.
// When a template is not stored, the compiled-in fallback set is consulted
// before reporting absence; callers still apply their own fail-open policy
// on domain.ErrTemplateNotFound.
type Store struct {
	hashes db.HashStore
	prefix string
}

// New creates a template store. prefix is the global key prefix (e.g. "draftforge:").
func New(hashes db.HashStore, prefix string) *Store {
	return &Store{hashes: hashes, prefix: prefix}
}

func (s *Store) key(name string) string {
	return s.prefix + "tpl:" + name
}

// GetLatest fetches the latest version of a named template.
// Returns domain.ErrTemplateNotFound when neither a stored template nor a
// fallback exists.
func (s *Store) GetLatest(ctx context.Context, name string) (domain.Template, error) {
	fields, err := s.hashes.HGetAll(ctx, s.key(name))
	if err != nil {
		return domain.Template{}, fmt.Errorf("get template %q: %w", name, err)
	}

	if body, ok := fields["body"]; ok && body != "" {
		tpl := domain.Template{
			Name:     name,
			Body:     body,
			EditedBy: fields["edited_by"],
		}
		if at := fields["edited_at"]; at != "" {
			if ts, err := time.Parse(time.RFC3339, at); err == nil {
				tpl.EditedAt = ts
			}
		}
		return tpl, nil
	}

	if body, ok := fallbackTemplates[name]; ok {
		return domain.Template{Name: name, Body: body, EditedBy: "builtin"}, nil
	}

	return domain.Template{}, fmt.Errorf("template %q: %w", name, domain.ErrTemplateNotFound)
}

// Put stores a template version.
func (s *Store) Put(ctx context.Context, tpl domain.Template) error {
	if tpl.Name == "" {
		return fmt.Errorf("template name is required")
	}
	editedAt := tpl.EditedAt
	if editedAt.IsZero() {
		editedAt = time.Now().UTC()
	}
	err := s.hashes.HSet(ctx, s.key(tpl.Name), map[string]string{
		"body":      tpl.Body,
		"edited_by": tpl.EditedBy,
		"edited_at": editedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("put template %q: %w", tpl.Name, err)
	}
	return nil
}

// Delete removes a stored template. Fallbacks are unaffected.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.hashes.Del(ctx, s.key(name)); err != nil {
		return fmt.Errorf("delete template %q: %w", name, err)
	}
	return nil
}
