package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// DraftRequest is one request to generate a grounded marketing draft.
type DraftRequest struct {
	RequestID        string
	UserID           string
	Topics           []string
	CampaignText     string
	AssetType        string
	ICP              string
	TargetCompetitor string
	TemplateOverride string
	CompanyName      string
	Company          *CompanyContext // inline context wins over the stored one
}

// Validate checks the request for unresolvable input errors.
func (r *DraftRequest) Validate() error {
	topics := 0
	for _, t := range r.Topics {
		if strings.TrimSpace(t) != "" {
			topics++
		}
	}
	if topics == 0 {
		return ErrNoTopics
	}
	return nil
}

// Fingerprint derives the run identity used for duplicate-execution detection.
// Topic order does not matter; the original request slice is left untouched.
func (r *DraftRequest) Fingerprint() string {
	topics := make([]string, len(r.Topics))
	copy(topics, r.Topics)
	sort.Strings(topics)

	h := sha256.New()
	for _, part := range []string{r.RequestID, r.UserID, strings.Join(topics, "\x1f"), r.CampaignText} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DraftResult is the complete outcome of one pipeline run.
// Partial results are never exposed. RetrievedDocs is the full deduplicated
// retrieval pool; Sources cite only the documents that survived reranking.
type DraftResult struct {
	GeneratedText string
	Sources       []string
	RetrievedDocs []SourceDocument
	FinalPrompt   string
}
