package querybuild

import (
	"context"

	"github.com/draftforge/draftforge/internal/domain"
)

// Completer executes a single-turn text completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TemplateSource supplies named prompt templates.
type TemplateSource interface {
	GetLatest(ctx context.Context, name string) (domain.Template, error)
}
