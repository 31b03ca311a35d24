package ports

import (
	"context"

	"github.com/beaufnet/quotes-api/internal/core/policy"
)

// CreateQuoteInput carries a public quote submission.
type CreateQuoteInput struct {
	Text    string
	Source  string
	Author  string
	Captcha string
}

// QuotePatch is a partial update applied by moderators. Nil fields are left
// untouched.
type QuotePatch struct {
	Text   *string
	Source *string
	Author *string
}

// QuotePage is one page of quote views.
type QuotePage struct {
	Page    int                `json:"page"`
	PerPage int                `json:"per_page"`
	Total   int64              `json:"total"`
	Data    []policy.QuoteView `json:"data"`
}

// QuoteService defines use-case operations over quotes.
type QuoteService interface {
	// Create verifies the captcha and stores the quote unvalidated.
	Create(ctx context.Context, input CreateQuoteInput) (policy.QuoteView, error)
	// ListValidated is the public feed: validated quotes, newest first.
	ListValidated(ctx context.Context, page, perPage int) (*QuotePage, error)
	// ListUnvalidated is the moderation queue: admin-only, oldest first.
	ListUnvalidated(ctx context.Context, identity *policy.Identity, page, perPage int) (*QuotePage, error)
	// Get returns the view chosen by policy. An unvalidated quote read by a
	// non-admin fails with domain.ErrQuoteNotValidated, never with not-found.
	Get(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error)
	// GetPrivate returns the private view regardless of moderation state;
	// admin-only.
	GetPrivate(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error)
	Patch(ctx context.Context, identity *policy.Identity, quoteID string, patch QuotePatch) (policy.QuoteView, error)
	Delete(ctx context.Context, identity *policy.Identity, quoteID string) error
	Validate(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error)
	Unvalidate(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error)
}
