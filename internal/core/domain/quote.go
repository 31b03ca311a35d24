package domain

import (
	"errors"
	"time"
)

var ErrQuoteNotFound = errors.New("quote not found")
var ErrQuoteNotValidated = errors.New("quote is not validated")
var ErrInvalidCaptcha = errors.New("invalid captcha")

// Quote is a submitted quote. Quotes have no owner: access is governed only by
// the validated flag and the caller's role. Validated starts false and is
// flipped by admins in both directions.
type Quote struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Text      string    `json:"text" bson:"text"`
	Source    string    `json:"source,omitempty" bson:"source,omitempty"`
	Author    string    `json:"author,omitempty" bson:"author,omitempty"`
	Validated bool      `json:"validated" bson:"validated"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
