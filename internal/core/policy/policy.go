// Package policy centralizes every authorization and visibility decision for
// users and quotes. Services call these functions instead of re-deriving
// role/ownership checks per method.
//
// All functions are pure: they depend only on their inputs, never touch
// storage, and return decision values rather than errors. Callers translate a
// deny into the appropriate domain error, and must resolve NotFound before
// evaluating policy (except the unvalidated-quote case, which is deliberately
// a deny, not a not-found).
package policy

import (
	"github.com/beaufnet/quotes-api/internal/core/domain"
)

// Visibility selects which projection of an entity is returned.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// Identity is the authenticated caller for the current request: the subject id
// from the verified token plus the role carried in its claims. A nil *Identity
// means the request is anonymous.
type Identity struct {
	SubjectID string
	Role      domain.Role
}

// IsAdmin reports whether the identity is present and has the admin role.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == domain.RoleAdmin
}

// Decision is the outcome of a read check: whether the action is allowed and,
// when it is, which projection to use.
type Decision struct {
	Allowed    bool
	Visibility Visibility
}

func allow(v Visibility) Decision { return Decision{Allowed: true, Visibility: v} }

func deny() Decision { return Decision{} }

// CanReadUser decides the projection for reading a single user. Reads are
// never denied: the caller sees the private view of their own account, admins
// see every account's private view, and everyone else falls back to the
// public view.
func CanReadUser(id *Identity, targetUserID string) Decision {
	if id != nil && (id.SubjectID == targetUserID || id.Role == domain.RoleAdmin) {
		return allow(Private)
	}
	return allow(Public)
}

// CanWriteUser reports whether the identity may patch the target user.
// Allowed for the account owner and for admins.
func CanWriteUser(id *Identity, targetUserID string) bool {
	return id != nil && (id.SubjectID == targetUserID || id.Role == domain.RoleAdmin)
}

// CanDeleteUser reports whether the identity may delete the target user.
// Same predicate as CanWriteUser.
func CanDeleteUser(id *Identity, targetUserID string) bool {
	return CanWriteUser(id, targetUserID)
}

// CanSetRole reports whether a role field in a patch payload is honored.
// Non-admin patches keep the existing role silently; this is not a deny.
func CanSetRole(id *Identity) bool {
	return id.IsAdmin()
}

// SignupRole returns the role assigned to a self-service signup. The
// requested role is ignored: there is no caller-supplied-role path for
// anonymous registration.
func SignupRole() domain.Role {
	return domain.RoleUser
}

// CanCreateUser reports whether the identity may create accounts directly
// (with an arbitrary role), as opposed to the public signup flow.
func CanCreateUser(id *Identity) bool {
	return id.IsAdmin()
}

// CanReadQuote decides access to a single quote. Admins always get the
// private view regardless of moderation state. Everyone else may only read
// validated quotes, as the public view; an unvalidated quote is denied, which
// callers must surface as an authorization error and never as not-found.
func CanReadQuote(id *Identity, quote *domain.Quote) Decision {
	if id.IsAdmin() {
		return allow(Private)
	}
	if quote.Validated {
		return allow(Public)
	}
	return deny()
}

// CanListUnvalidatedQuotes reports whether the identity may list the
// moderation queue.
func CanListUnvalidatedQuotes(id *Identity) bool {
	return id.IsAdmin()
}

// CanWriteQuote reports whether the identity may patch quotes. Quotes have no
// owner; mutation is admin-only.
func CanWriteQuote(id *Identity) bool {
	return id.IsAdmin()
}

// CanDeleteQuote reports whether the identity may delete quotes.
func CanDeleteQuote(id *Identity) bool {
	return id.IsAdmin()
}

// CanValidateQuote reports whether the identity may flip the validated flag,
// in either direction.
func CanValidateQuote(id *Identity) bool {
	return id.IsAdmin()
}
