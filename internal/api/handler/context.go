package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beaufnet/quotes-api/internal/api/middleware"
	"github.com/beaufnet/quotes-api/internal/core/domain"
	"github.com/beaufnet/quotes-api/internal/core/policy"
)

// ctxIdentity extracts the identity injected by the Auth middleware and
// fast-fails before any service call: a missing subject id means the
// middleware did not run or the token carried no usable claims.
func ctxIdentity(c echo.Context) (*policy.Identity, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	role, _ := c.Get(middleware.CtxRole).(string)
	return &policy.Identity{SubjectID: userID, Role: domain.Role(role)}, nil
}

// ctxOptionalIdentity returns the identity when present and nil for anonymous
// requests. Used on routes behind OptionalAuth.
func ctxOptionalIdentity(c echo.Context) *policy.Identity {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return nil
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	return &policy.Identity{SubjectID: userID, Role: domain.Role(role)}
}
