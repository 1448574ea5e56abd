package user

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/database"
	"storefront-api/internal/migrations"
)

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	err := errors.New(`pq: duplicate key value violates unique constraint "users_username_key"`)
	assert.ErrorIs(t, mapUniqueViolation(err), ErrDuplicateUsername)

	err = errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`)
	assert.ErrorIs(t, mapUniqueViolation(err), ErrDuplicateEmail)

	assert.NoError(t, mapUniqueViolation(errors.New("connection refused")))
}

// newIntegrationRepo opens the database named by TEST_DATABASE_DSN and
// applies the embedded migrations. Skipped when the variable is unset.
func newIntegrationRepo(t *testing.T) *Repository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping Postgres integration test")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, sqlDB.Ping())

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(sqlDB, "."))

	db := database.NewBunDB(sqlDB)
	_, err = db.Exec("TRUNCATE users CASCADE")
	require.NoError(t, err)

	return NewRepository(db)
}

func TestRepository_Integration(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "alice@x.com", "hash", false)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	// Duplicate username before duplicate email
	_, err = repo.Create(ctx, "alice", "other@x.com", "hash", false)
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	_, err = repo.Create(ctx, "other", "alice@x.com", "hash", false)
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byEmail, err := repo.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	// Partial update leaves other fields alone
	team := true
	updated, err := repo.Update(ctx, created.ID, UpdatePatch{Team: &team})
	require.NoError(t, err)
	assert.True(t, updated.Team)
	assert.Equal(t, "alice", updated.Username)

	// Updating to your own current value is not a conflict
	own := "alice"
	_, err = repo.Update(ctx, created.ID, UpdatePatch{Username: &own})
	require.NoError(t, err)

	second, err := repo.Create(ctx, "bob", "bob@x.com", "hash", false)
	require.NoError(t, err)

	taken := "alice"
	_, err = repo.Update(ctx, second.ID, UpdatePatch{Username: &taken})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	require.NoError(t, repo.UpdatePassword(ctx, created.ID, "newhash"))
	refetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", refetched.PasswordHash)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrNotFound)
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Integration_CascadeDelete(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "carol", "carol@x.com", "hash", false)
	require.NoError(t, err)

	// Dependent storefront rows must go with the account
	_, err = repo.db.Exec("INSERT INTO carts (user_id) VALUES (?)", created.ID)
	require.NoError(t, err)
	_, err = repo.db.Exec(
		"INSERT INTO addresses (user_id, line1, city, postal_code, country) VALUES (?, '1 Main St', 'Springfield', '12345', 'US')",
		created.ID,
	)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	var count int
	require.NoError(t, repo.db.NewRaw("SELECT count(*) FROM carts WHERE user_id = ?", created.ID).Scan(ctx, &count))
	assert.Zero(t, count)
	require.NoError(t, repo.db.NewRaw("SELECT count(*) FROM addresses WHERE user_id = ?", created.ID).Scan(ctx, &count))
	assert.Zero(t, count)
}
