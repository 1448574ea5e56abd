package user

import "time"

// User is the identity record. The password hash is excluded from JSON so
// the credential never leaves the process in any response.
type User struct {
	ID           int64     `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Team         bool      `json:"team"`
	CreatedAt    time.Time `json:"created_at"`
}

// UpdatePatch carries a partial identity update. Nil fields are left
// untouched; uniqueness is re-checked only for the fields that are set.
type UpdatePatch struct {
	Username *string
	Email    *string
	Team     *bool
}
