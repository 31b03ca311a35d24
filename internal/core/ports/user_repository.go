package ports

import (
	"context"

	"github.com/beaufnet/quotes-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
// Uniqueness of username and email is enforced by the storage layer; Create
// and Update surface violations as domain.ErrUsernameTaken / domain.ErrEmailTaken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns a page of users ordered by creation time and the total count.
	List(ctx context.Context, page, perPage int) ([]*domain.User, int64, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	// SetConfirmed flips the confirmed flag to true for the given user.
	SetConfirmed(ctx context.Context, id string) error
}
