package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/beaufnet/quotes-api/internal/api/metrics"
	"github.com/beaufnet/quotes-api/internal/core/domain"
	"github.com/beaufnet/quotes-api/internal/core/policy"
	"github.com/beaufnet/quotes-api/internal/core/ports"
)

// CaptchaVerifier abstracts the reCAPTCHA siteverify call.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

type quoteService struct {
	repo    ports.QuoteRepository
	captcha CaptchaVerifier
	log     zerolog.Logger
}

// NewQuoteService returns a QuoteService implementation.
func NewQuoteService(repo ports.QuoteRepository, captcha CaptchaVerifier, log zerolog.Logger) ports.QuoteService {
	return &quoteService{repo: repo, captcha: captcha, log: log}
}

// Create stores a new quote, unvalidated, after the captcha check.
func (s *quoteService) Create(ctx context.Context, input ports.CreateQuoteInput) (policy.QuoteView, error) {
	ok, err := s.captcha.Verify(ctx, input.Captcha)
	if err != nil {
		return policy.QuoteView{}, fmt.Errorf("create quote: verify captcha: %w", err)
	}
	if !ok {
		metrics.CaptchaChecksTotal.WithLabelValues("rejected").Inc()
		return policy.QuoteView{}, domain.ErrInvalidCaptcha
	}
	metrics.CaptchaChecksTotal.WithLabelValues("passed").Inc()

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Quote{
		Text:      input.Text,
		Source:    input.Source,
		Author:    input.Author,
		Validated: false,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create quote")
		return policy.QuoteView{}, err
	}

	metrics.QuotesCreatedTotal.Inc()
	s.log.Info().Str("quote_id", created.ID).Msg("quote submitted")

	return policy.ProjectQuote(created, policy.Public), nil
}

// ListValidated is the public feed: validated quotes, newest first.
func (s *quoteService) ListValidated(ctx context.Context, page, perPage int) (*ports.QuotePage, error) {
	page, perPage = clampPage(page, perPage)

	quotes, total, err := s.repo.List(ctx, ports.ListQuotesFilter{
		Validated: true,
		Page:      page,
		PerPage:   perPage,
	})
	if err != nil {
		return nil, err
	}

	return &ports.QuotePage{Page: page, PerPage: perPage, Total: total, Data: project(quotes, policy.Public)}, nil
}

// ListUnvalidated is the moderation queue: oldest submissions first so they
// are reviewed in order.
func (s *quoteService) ListUnvalidated(ctx context.Context, identity *policy.Identity, page, perPage int) (*ports.QuotePage, error) {
	if !policy.CanListUnvalidatedQuotes(identity) {
		return nil, fmt.Errorf("list unvalidated quotes: %w", domain.ErrForbidden)
	}

	page, perPage = clampPage(page, perPage)

	quotes, total, err := s.repo.List(ctx, ports.ListQuotesFilter{
		Validated:   false,
		OldestFirst: true,
		Page:        page,
		PerPage:     perPage,
	})
	if err != nil {
		return nil, err
	}

	return &ports.QuotePage{Page: page, PerPage: perPage, Total: total, Data: project(quotes, policy.Private)}, nil
}

// Get returns the view selected by policy. The quote's existence is not
// hidden: an unvalidated quote read by a non-admin fails with
// ErrQuoteNotValidated (an authorization error), never with not-found.
func (s *quoteService) Get(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error) {
	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return policy.QuoteView{}, err
	}

	decision := policy.CanReadQuote(identity, quote)
	if !decision.Allowed {
		return policy.QuoteView{}, domain.ErrQuoteNotValidated
	}

	return policy.ProjectQuote(quote, decision.Visibility), nil
}

// GetPrivate returns the private view regardless of moderation state.
func (s *quoteService) GetPrivate(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error) {
	if !identity.IsAdmin() {
		return policy.QuoteView{}, fmt.Errorf("get private quote: %w", domain.ErrForbidden)
	}

	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return policy.QuoteView{}, err
	}

	return policy.ProjectQuote(quote, policy.Private), nil
}

// Patch applies a moderator edit over the whitelisted fields.
func (s *quoteService) Patch(ctx context.Context, identity *policy.Identity, quoteID string, patch ports.QuotePatch) (policy.QuoteView, error) {
	if !policy.CanWriteQuote(identity) {
		return policy.QuoteView{}, fmt.Errorf("patch quote: %w", domain.ErrForbidden)
	}

	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return policy.QuoteView{}, err
	}

	if patch.Text != nil {
		quote.Text = *patch.Text
	}
	if patch.Source != nil {
		quote.Source = *patch.Source
	}
	if patch.Author != nil {
		quote.Author = *patch.Author
	}
	quote.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, quote)
	if err != nil {
		return policy.QuoteView{}, err
	}

	s.log.Info().Str("quote_id", updated.ID).Msg("quote patched")
	return policy.ProjectQuote(updated, policy.Private), nil
}

// Delete removes a quote; admin-only.
func (s *quoteService) Delete(ctx context.Context, identity *policy.Identity, quoteID string) error {
	if !policy.CanDeleteQuote(identity) {
		return fmt.Errorf("delete quote: %w", domain.ErrForbidden)
	}

	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, quote.ID); err != nil {
		return err
	}

	s.log.Info().Str("quote_id", quote.ID).Msg("quote deleted")
	return nil
}

// Validate publishes a quote. The flag is overwritten unconditionally, so
// validating an already-validated quote is an idempotent success.
func (s *quoteService) Validate(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error) {
	return s.setValidated(ctx, identity, quoteID, true)
}

// Unvalidate sends a quote back to the moderation queue; same idempotent
// overwrite semantics as Validate.
func (s *quoteService) Unvalidate(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error) {
	return s.setValidated(ctx, identity, quoteID, false)
}

func (s *quoteService) setValidated(ctx context.Context, identity *policy.Identity, quoteID string, validated bool) (policy.QuoteView, error) {
	if !policy.CanValidateQuote(identity) {
		return policy.QuoteView{}, fmt.Errorf("moderate quote: %w", domain.ErrForbidden)
	}

	updated, err := s.repo.SetValidated(ctx, quoteID, validated)
	if err != nil {
		return policy.QuoteView{}, err
	}

	action := "unvalidate"
	if validated {
		action = "validate"
	}
	metrics.QuotesModeratedTotal.WithLabelValues(action).Inc()
	s.log.Info().Str("quote_id", updated.ID).Bool("validated", validated).Msg("quote moderated")

	return policy.ProjectQuote(updated, policy.Private), nil
}

func project(quotes []*domain.Quote, v policy.Visibility) []policy.QuoteView {
	views := make([]policy.QuoteView, 0, len(quotes))
	for _, q := range quotes {
		views = append(views, policy.ProjectQuote(q, v))
	}
	return views
}
