package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the bun model for the users table. Uniqueness of username and
// email is enforced by the users_username_key and users_email_key
// constraints; the repository maps violations of either to domain errors.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,notnull"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Team         bool      `bun:"team,notnull,default:false"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
