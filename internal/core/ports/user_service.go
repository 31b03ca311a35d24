package ports

import (
	"context"

	"github.com/beaufnet/quotes-api/internal/core/domain"
	"github.com/beaufnet/quotes-api/internal/core/policy"
)

// SignupInput carries the self-service registration payload. The role is not
// part of the input: signups always become regular users.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Captcha  string
}

// CreateUserInput carries the admin account-creation payload.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// UserPatch is a partial update. Nil fields are left untouched. Role is only
// honored for admin callers; for everyone else it is silently ignored.
type UserPatch struct {
	Username *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// UserPage is one page of public user views.
type UserPage struct {
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
	Total   int64             `json:"total"`
	Data    []policy.UserView `json:"data"`
}

// UserService defines use-case operations over user accounts.
type UserService interface {
	// Signup registers a new account after verifying the captcha, and kicks
	// off the email confirmation flow. The returned view is private (it is
	// the caller's own account).
	Signup(ctx context.Context, input SignupInput) (policy.UserView, error)
	// Confirm consumes a single-use confirmation token and marks the
	// corresponding account as confirmed.
	Confirm(ctx context.Context, token string) error
	// EnsureAdmin creates the bootstrap admin account if it does not exist.
	EnsureAdmin(ctx context.Context) error
	Get(ctx context.Context, identity *policy.Identity, userID string) (policy.UserView, error)
	List(ctx context.Context, page, perPage int) (*UserPage, error)
	Create(ctx context.Context, identity *policy.Identity, input CreateUserInput) (policy.UserView, error)
	Patch(ctx context.Context, identity *policy.Identity, userID string, patch UserPatch) (policy.UserView, error)
	Delete(ctx context.Context, identity *policy.Identity, userID string) error
}
