package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beaufnet/quotes-api/internal/core/ports"
)

// QuoteHandler handles HTTP requests for quotes.
type QuoteHandler struct {
	service ports.QuoteService
}

func NewQuoteHandler(service ports.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

type createQuoteRequest struct {
	Text    string `json:"text" validate:"required"`
	Source  string `json:"source"`
	Author  string `json:"author"`
	Captcha string `json:"captcha" validate:"required"`
}

type patchQuoteRequest struct {
	Text   *string `json:"text"`
	Source *string `json:"source"`
	Author *string `json:"author"`
}

// List returns the public feed of validated quotes, newest first.
//
// @Summary      List validated quotes
// @Tags         quotes
// @Produce      json
// @Param        page     query     int  false  "Page (1-based)"
// @Param        perPage  query     int  false  "Page size (max 50)"
// @Success      200      {object}  ports.QuotePage
// @Router       /quotes [get]
func (h *QuoteHandler) List(c echo.Context) error {
	page, perPage := pageParams(c)

	result, err := h.service.ListValidated(c.Request().Context(), page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ListUnvalidated returns the moderation queue, oldest first.
//
// @Summary      List unvalidated quotes (admin)
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        page     query     int  false  "Page (1-based)"
// @Param        perPage  query     int  false  "Page size (max 50)"
// @Success      200      {object}  ports.QuotePage
// @Failure      403      {object}  map[string]string
// @Router       /quotes/unvalidated [get]
func (h *QuoteHandler) ListUnvalidated(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	page, perPage := pageParams(c)

	result, err := h.service.ListUnvalidated(c.Request().Context(), identity, page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Get returns a single quote. Anonymous and regular callers only see
// validated quotes; admins get the private view of any quote.
//
// @Summary      Get a quote by id
// @Tags         quotes
// @Produce      json
// @Param        id  path      string  true  "Quote id"
// @Success      200  {object}  policy.QuoteView
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /quotes/{id} [get]
func (h *QuoteHandler) Get(c echo.Context) error {
	view, err := h.service.Get(c.Request().Context(), ctxOptionalIdentity(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// GetUnvalidated returns the private view of a quote regardless of its
// moderation state.
//
// @Summary      Get a quote for moderation (admin)
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Quote id"
// @Success      200  {object}  policy.QuoteView
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /quotes/unvalidated/{id} [get]
func (h *QuoteHandler) GetUnvalidated(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	view, err := h.service.GetPrivate(c.Request().Context(), identity, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Create submits a new quote; public but captcha-gated.
//
// @Summary      Submit a quote
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        body  body      createQuoteRequest  true  "Quote details"
// @Success      201   {object}  policy.QuoteView
// @Failure      400   {object}  map[string]string
// @Router       /quotes [post]
func (h *QuoteHandler) Create(c echo.Context) error {
	var req createQuoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	view, err := h.service.Create(c.Request().Context(), ports.CreateQuoteInput{
		Text:    req.Text,
		Source:  req.Source,
		Author:  req.Author,
		Captcha: req.Captcha,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, view)
}

// Patch edits a quote's whitelisted fields.
//
// @Summary      Patch a quote (admin)
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Quote id"
// @Param        body  body      patchQuoteRequest  true  "Fields to update"
// @Success      200   {object}  policy.QuoteView
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /quotes/{id} [patch]
func (h *QuoteHandler) Patch(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req patchQuoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	view, err := h.service.Patch(c.Request().Context(), identity, c.Param("id"), ports.QuotePatch{
		Text:   req.Text,
		Source: req.Source,
		Author: req.Author,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Delete removes a quote.
//
// @Summary      Delete a quote (admin)
// @Tags         quotes
// @Security     BearerAuth
// @Param        id  path  string  true  "Quote id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /quotes/{id} [delete]
func (h *QuoteHandler) Delete(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), identity, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Validate publishes a quote. Idempotent: re-validating succeeds.
//
// @Summary      Validate a quote (admin)
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Quote id"
// @Success      200  {object}  policy.QuoteView
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /quotes/{id}/validate [post]
func (h *QuoteHandler) Validate(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	view, err := h.service.Validate(c.Request().Context(), identity, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Unvalidate sends a quote back to the moderation queue.
//
// @Summary      Unvalidate a quote (admin)
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Quote id"
// @Success      200  {object}  policy.QuoteView
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /quotes/{id}/unvalidate [post]
func (h *QuoteHandler) Unvalidate(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	view, err := h.service.Unvalidate(c.Request().Context(), identity, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
