package domain

import "errors"

var (
	// ErrNoTopics signals a draft request without any topics.
	ErrNoTopics = errors.New("at least one topic is required")
	// ErrDuplicateExecution signals a concurrent run with the same fingerprint.
	ErrDuplicateExecution = errors.New("identical draft generation already in progress")
	// ErrTemplateNotFound signals a missing prompt template.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrCompanyContextNotFound signals a missing company context.
	ErrCompanyContextNotFound = errors.New("company context not found")
	// ErrGenerationFailed signals a failed final generation call.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrCompletionProviderError signals a completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrUnknownSourceType signals an unrecognized document source type.
	ErrUnknownSourceType = errors.New("unknown source type")
)
