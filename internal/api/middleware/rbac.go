package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beaufnet/quotes-api/internal/core/domain"
)

// RBAC rejects requests whose token role is not in the allowed set. It is an
// HTTP-layer fast-fail for admin-only route groups; the service layer's
// policy checks remain authoritative.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
