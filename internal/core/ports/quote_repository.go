package ports

import (
	"context"

	"github.com/beaufnet/quotes-api/internal/core/domain"
)

// ListQuotesFilter carries the query parameters for listing quotes.
type ListQuotesFilter struct {
	Validated   bool // which side of the moderation queue to list
	OldestFirst bool // true = created_at asc (moderation queue), false = desc (public feed)
	Page        int  // 1-based
	PerPage     int  // capped at 50 by the service
}

// QuoteRepository defines persistence operations for quotes.
type QuoteRepository interface {
	Create(ctx context.Context, quote *domain.Quote) (*domain.Quote, error)
	FindByID(ctx context.Context, id string) (*domain.Quote, error)
	// List returns a page of quotes matching filter and the total count.
	List(ctx context.Context, filter ListQuotesFilter) ([]*domain.Quote, int64, error)
	Update(ctx context.Context, quote *domain.Quote) (*domain.Quote, error)
	Delete(ctx context.Context, id string) error
	// SetValidated overwrites the validated flag unconditionally and returns
	// the updated quote. Writing the current value again is a no-op success.
	SetValidated(ctx context.Context, id string, validated bool) (*domain.Quote, error)
}
