package ports

import (
	"context"

	"github.com/beaufnet/quotes-api/internal/core/policy"
)

// AuthService authenticates users and issues JWTs.
type AuthService interface {
	// Login accepts a username or an email as identifier and returns a signed
	// token plus the private view of the authenticated account.
	Login(ctx context.Context, identifier, password string) (string, policy.UserView, error)
}
