package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/beaufnet/quotes-api/internal/api/middleware"
	"github.com/beaufnet/quotes-api/internal/core/domain"
	"github.com/beaufnet/quotes-api/internal/core/policy"
	"github.com/beaufnet/quotes-api/internal/core/ports"
)

type stubQuoteService struct {
	createFn          func(ctx context.Context, input ports.CreateQuoteInput) (policy.QuoteView, error)
	listValidatedFn   func(ctx context.Context, page, perPage int) (*ports.QuotePage, error)
	listUnvalidatedFn func(ctx context.Context, identity *policy.Identity, page, perPage int) (*ports.QuotePage, error)
	getFn             func(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error)
	getPrivateFn      func(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error)
	patchFn           func(ctx context.Context, identity *policy.Identity, quoteID string, patch ports.QuotePatch) (policy.QuoteView, error)
	deleteFn          func(ctx context.Context, identity *policy.Identity, quoteID string) error
	validateFn        func(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error)
	unvalidateFn      func(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error)
}

func (s *stubQuoteService) Create(ctx context.Context, input ports.CreateQuoteInput) (policy.QuoteView, error) {
	return s.createFn(ctx, input)
}

func (s *stubQuoteService) ListValidated(ctx context.Context, page, perPage int) (*ports.QuotePage, error) {
	return s.listValidatedFn(ctx, page, perPage)
}

func (s *stubQuoteService) ListUnvalidated(ctx context.Context, identity *policy.Identity, page, perPage int) (*ports.QuotePage, error) {
	return s.listUnvalidatedFn(ctx, identity, page, perPage)
}

func (s *stubQuoteService) Get(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error) {
	return s.getFn(ctx, identity, quoteID)
}

func (s *stubQuoteService) GetPrivate(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error) {
	return s.getPrivateFn(ctx, identity, quoteID)
}

func (s *stubQuoteService) Patch(ctx context.Context, identity *policy.Identity, quoteID string, patch ports.QuotePatch) (policy.QuoteView, error) {
	return s.patchFn(ctx, identity, quoteID, patch)
}

func (s *stubQuoteService) Delete(ctx context.Context, identity *policy.Identity, quoteID string) error {
	return s.deleteFn(ctx, identity, quoteID)
}

func (s *stubQuoteService) Validate(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error) {
	return s.validateFn(ctx, identity, quoteID)
}

func (s *stubQuoteService) Unvalidate(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error) {
	return s.unvalidateFn(ctx, identity, quoteID)
}

func TestQuoteHandler_Get_Anonymous(t *testing.T) {
	stub := &stubQuoteService{
		getFn: func(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error) {
			if identity != nil {
				t.Fatalf("anonymous request must pass a nil identity, got %+v", identity)
			}
			if quoteID != "q1" {
				t.Fatalf("unexpected quote id: %s", quoteID)
			}
			return policy.QuoteView{ID: quoteID, Text: "hello"}, nil
		},
	}
	handler := NewQuoteHandler(stub)

	c, rec := newTestContext(t, http.MethodGet, "/quotes/q1", "")
	c.SetParamNames("id")
	c.SetParamValues("q1")

	if err := handler.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestQuoteHandler_Get_WithClaims(t *testing.T) {
	stub := &stubQuoteService{
		getFn: func(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error) {
			if identity == nil || identity.SubjectID != "a1" || identity.Role != domain.RoleAdmin {
				t.Fatalf("claims not forwarded: %+v", identity)
			}
			return policy.QuoteView{ID: quoteID}, nil
		},
	}
	handler := NewQuoteHandler(stub)

	c, _ := newTestContext(t, http.MethodGet, "/quotes/q1", "")
	c.SetParamNames("id")
	c.SetParamValues("q1")
	c.Set(middleware.CtxUserID, "a1")
	c.Set(middleware.CtxRole, "admin")

	if err := handler.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestQuoteHandler_Get_ErrorPassthrough(t *testing.T) {
	stub := &stubQuoteService{
		getFn: func(ctx context.Context, identity *policy.Identity, quoteID string) (policy.QuoteView, error) {
			return policy.QuoteView{}, domain.ErrQuoteNotValidated
		},
	}
	handler := NewQuoteHandler(stub)

	c, _ := newTestContext(t, http.MethodGet, "/quotes/q1", "")
	c.SetParamNames("id")
	c.SetParamValues("q1")

	if err := handler.Get(c); !errors.Is(err, domain.ErrQuoteNotValidated) {
		t.Fatalf("expected ErrQuoteNotValidated to pass through, got %v", err)
	}
}

func TestQuoteHandler_Create_Success(t *testing.T) {
	stub := &stubQuoteService{
		createFn: func(ctx context.Context, input ports.CreateQuoteInput) (policy.QuoteView, error) {
			if input.Text != "hello" || input.Captcha != "tok" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return policy.QuoteView{ID: "q1", Text: input.Text}, nil
		},
	}
	handler := NewQuoteHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/quotes", `{"text":"hello","captcha":"tok"}`)
	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestQuoteHandler_Create_MissingCaptcha(t *testing.T) {
	stub := &stubQuoteService{
		createFn: func(ctx context.Context, input ports.CreateQuoteInput) (policy.QuoteView, error) {
			t.Fatalf("should not be called")
			return policy.QuoteView{}, nil
		},
	}
	handler := NewQuoteHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/quotes", `{"text":"hello"}`)
	err := handler.Create(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestQuoteHandler_ListUnvalidated_RequiresClaims(t *testing.T) {
	stub := &stubQuoteService{
		listUnvalidatedFn: func(ctx context.Context, identity *policy.Identity, page, perPage int) (*ports.QuotePage, error) {
			t.Fatalf("should not be called without claims")
			return nil, nil
		},
	}
	handler := NewQuoteHandler(stub)

	c, _ := newTestContext(t, http.MethodGet, "/quotes/unvalidated", "")
	err := handler.ListUnvalidated(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestQuoteHandler_List_PageParams(t *testing.T) {
	stub := &stubQuoteService{
		listValidatedFn: func(ctx context.Context, page, perPage int) (*ports.QuotePage, error) {
			if page != 2 || perPage != 10 {
				t.Fatalf("page params not forwarded: %d %d", page, perPage)
			}
			return &ports.QuotePage{Page: page, PerPage: perPage}, nil
		},
	}
	handler := NewQuoteHandler(stub)

	c, rec := newTestContext(t, http.MethodGet, "/quotes?page=2&perPage=10", "")
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
