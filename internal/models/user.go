package models

import (
	"fmt"
	"time"
)

// User mirrors an account at the identity provider. Rows are written by the
// provider webhook, never by sign-in itself.
type User struct {
	ID        string     `json:"id"`
	Sequence  int        `json:"-"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

func (u *User) Key() string { return u.ID }

func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if u.Email == "" {
		return fmt.Errorf("user email is required")
	}
	return nil
}

// Summary returns the projection nested in message payloads.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
