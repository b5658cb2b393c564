package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SourceType identifies the kind of community discussion a document came from.
type SourceType string

const (
	// SourceThread is a forum thread post.
	SourceThread SourceType = "thread"
	// SourceVideo is a video transcript summary.
	SourceVideo SourceType = "video"
	// SourceAudio is a podcast episode summary.
	SourceAudio SourceType = "audio"
)

// AllSourceTypes lists every searchable source type.
func AllSourceTypes() []SourceType {
	return []SourceType{SourceThread, SourceVideo, SourceAudio}
}

// ParseSourceType validates a source type string.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceThread, SourceVideo, SourceAudio:
		return SourceType(s), nil
	default:
		return "", ErrUnknownSourceType
	}
}

// Attributes is the extensible attribute bag carried by a source document.
// Used only for display and prompt context, never for identity.
type Attributes struct {
	KeyIssues         []string `json:"key_issues,omitempty"`
	PainPhrases       []string `json:"pain_phrases,omitempty"`
	BuyerLanguage     []string `json:"buyer_language,omitempty"`
	EmotionalTriggers []string `json:"emotional_triggers,omitempty"`
	ImplicitRisks     []string `json:"implicit_risks,omitempty"`
	RoleHints         []string `json:"role_hints,omitempty"`
}

// SourceDocument is a scored community discussion snippet returned by retrieval.
type SourceDocument struct {
	Source   SourceType `json:"source"`
	PostID   string     `json:"post_id,omitempty"` // thread posts only
	URL      string     `json:"url,omitempty"`
	Title    string     `json:"title,omitempty"`
	Citation string     `json:"citation,omitempty"`
	Channel  string     `json:"channel,omitempty"`
	Company  string     `json:"company,omitempty"`
	Score    float64    `json:"score"`

	Attributes
}

// IdentityKey returns the type-specific deduplication key.
// Thread posts prefer the stable post id and fall back to the URL;
// video and audio summaries key on the URL. A document with neither
// gets a content hash so it never merges with an unrelated document.
func (d *SourceDocument) IdentityKey() string {
	if d.Source == SourceThread && d.PostID != "" {
		return string(d.Source) + ":" + d.PostID
	}
	if d.URL != "" {
		return string(d.Source) + ":" + d.URL
	}
	return string(d.Source) + ":" + ContentHash(d.Citation)
}

// TitleKey returns the key for the global title-based dedup pass.
// Untitled documents get a content hash (authoritative fallback).
func (d *SourceDocument) TitleKey() string {
	title := strings.ToLower(strings.TrimSpace(d.Title))
	if title != "" {
		return title
	}
	return "sha256:" + ContentHash(d.Citation+d.URL)
}

// ContentHash returns the hex SHA-256 of s.
func ContentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
