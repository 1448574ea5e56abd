package auth

import (
	"context"
	"time"

	"storefront-api/internal/user"
)

// TokenService issues and validates session tokens.
// The production implementation is PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID int64, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserRepository is the identity storage consumed by the account service.
// The production implementation is user.Repository backed by Postgres.
type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string, team bool) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	Update(ctx context.Context, id int64, patch user.UpdatePatch) (*user.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}
