package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/logging"
	"storefront-api/internal/ratelimit"
)

// newTestRouter wires handler, middleware and routes the way the real
// router does. The rate limiter points at an unreachable Redis; limiter
// failures are fail-open by design, so no Redis is needed here.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	tokenService, err := NewPasetoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	logger := logging.NewLogger(true)
	svc := NewService(newFakeUserRepo(), tokenService, logger, time.Minute)
	limiter := ratelimit.NewLimiter(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), 10, time.Minute)
	handler := NewHandler(svc, limiter, logger)
	mw := NewMiddleware(tokenService)

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Get("/profile", handler.GetProfile)
			r.Put("/profile", handler.UpdateProfile)
			r.Post("/change-password", handler.ChangePassword)
			r.Delete("/delete", handler.DeleteAccount)
		})
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAccountFlow(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	// Register
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "alice", "email": "alice@x.com", "password": "pw12345678",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	// Login with wrong password
	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "alice@x.com", "password": "wrongpw",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Login with the right password
	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "alice@x.com", "password": "pw12345678",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)
	token := loginResp.Token

	// Profile shows the registered username
	rec = doJSON(t, router, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	// Rename alice to bob
	rec = doJSON(t, router, http.MethodPut, "/api/auth/profile", token, map[string]any{
		"username": "bob",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"bob"`)

	// Registering the now-taken username conflicts even with a fresh email
	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "bob", "email": "bob2@x.com", "password": "pw",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "USERNAME_TAKEN")
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "a@x.com", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "a", "email": "not-an-email", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_EMAIL_FORMAT")
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "a@x.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfile_RequiresToken(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePassword_Lengths(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "carol", "email": "carol@x.com", "password": "oldpassword",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "carol@x.com", "password": "oldpassword",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var loginResp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	token := loginResp.Token

	rec = doJSON(t, router, http.MethodPost, "/api/auth/change-password", token, map[string]any{
		"current_password": "oldpassword", "new_password": "1234567",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PASSWORD_TOO_SHORT")

	rec = doJSON(t, router, http.MethodPost, "/api/auth/change-password", token, map[string]any{
		"current_password": "oldpassword", "new_password": "12345678",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/change-password", token, map[string]any{
		"current_password": "oldpassword", "new_password": "12345678"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "CURRENT_PASSWORD_WRONG")
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "dave", "email": "dave@x.com", "password": "pw12345678",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "dave@x.com", "password": "pw12345678",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var loginResp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	token := loginResp.Token

	// Missing confirmation
	rec = doJSON(t, router, http.MethodDelete, "/api/auth/delete", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong confirmation
	rec = doJSON(t, router, http.MethodDelete, "/api/auth/delete", token, map[string]any{
		"password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct confirmation
	rec = doJSON(t, router, http.MethodDelete, "/api/auth/delete", token, map[string]any{
		"password": "pw12345678",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Token still validates, but the subject is gone
	rec = doJSON(t, router, http.MethodGet, "/api/auth/profile", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
