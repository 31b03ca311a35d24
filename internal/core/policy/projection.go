package policy

import (
	"time"

	"github.com/beaufnet/quotes-api/internal/core/domain"
)

// UserView is the external representation of a user. The public view carries
// id, username, role and confirmed; the private view adds email and the
// timestamps. The password hash is excluded unconditionally: it is not a field
// of this struct, so no visibility level can ever expose it.
type UserView struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     *string     `json:"email,omitempty"`
	Role      domain.Role `json:"role"`
	Confirmed bool        `json:"confirmed"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

// ProjectUser renders the field subset of u for the given visibility.
func ProjectUser(u *domain.User, v Visibility) UserView {
	view := UserView{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Confirmed: u.Confirmed,
	}
	if v == Private {
		email := u.Email
		createdAt := u.CreatedAt
		updatedAt := u.UpdatedAt
		view.Email = &email
		view.CreatedAt = &createdAt
		view.UpdatedAt = &updatedAt
	}
	return view
}

// QuoteView is the external representation of a quote. The public view carries
// id, text, source and created_at; the private view adds author and
// updated_at. The validated flag is internal moderation state and appears in
// neither view.
type QuoteView struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Source    string     `json:"source,omitempty"`
	Author    *string    `json:"author,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ProjectQuote renders the field subset of q for the given visibility.
func ProjectQuote(q *domain.Quote, v Visibility) QuoteView {
	view := QuoteView{
		ID:        q.ID,
		Text:      q.Text,
		Source:    q.Source,
		CreatedAt: q.CreatedAt,
	}
	if v == Private {
		author := q.Author
		updatedAt := q.UpdatedAt
		view.Author = &author
		view.UpdatedAt = &updatedAt
	}
	return view
}
