package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"storefront-api/internal/logging"
	"storefront-api/internal/user"
)

var (
	ErrUsernameRequired     = errors.New("username is required")
	ErrEmailRequired        = errors.New("email is required")
	ErrPasswordRequired     = errors.New("password is required")
	ErrCredentialsRequired  = errors.New("email and password are required")
	ErrPasswordsRequired    = errors.New("current and new password are required")
	ErrInvalidEmailFormat   = errors.New("invalid email format")
	ErrUsernameTooLong      = errors.New("username must be at most 50 characters")
	ErrEmailTooLong         = errors.New("email must be at most 100 characters")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("new password must be at least 8 characters")
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
	ErrPasswordConfirmation = errors.New("password confirmation required")
)

const (
	maxUsernameLen = 50
	maxEmailLen    = 100
	minPasswordLen = 8
)

// Service orchestrates the account flows: it validates input shape,
// delegates lookups and writes to the identity repository, hashing to the
// credential store, and token minting to the token service.
type Service struct {
	userRepo      UserRepository
	tokenService  TokenService
	logger        *logging.Logger
	tokenDuration time.Duration
}

func NewService(
	userRepo UserRepository,
	tokenService TokenService,
	logger *logging.Logger,
	tokenDuration time.Duration,
) *Service {
	return &Service{
		userRepo:      userRepo,
		tokenService:  tokenService,
		logger:        logger,
		tokenDuration: tokenDuration,
	}
}

// normalizeEmail lower-cases and trims. Email uniqueness is
// case-insensitive; canonicalizing at the edge keeps the plain unique
// constraint authoritative.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > maxEmailLen {
		return ErrEmailTooLong
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if len(username) > maxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}

// Register creates a new identity. There is no minimum password length at
// registration; only ChangePassword enforces one. Duplicate username is
// reported before duplicate email.
func (s *Service) Register(ctx context.Context, username, email, password string, team bool) (*user.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, username, email, passwordHash, team)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateUsername) || errors.Is(err, user.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login authenticates by email and password and mints a session token.
// Unknown email and wrong password return the same error so accounts
// cannot be enumerated.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", nil, ErrCredentialsRequired
	}
	email = normalizeEmail(email)

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(existingUser.ID, s.tokenDuration)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create token: %w", err)
	}

	return token, existingUser, nil
}

// Profile returns the identity for an authenticated subject
func (s *Service) Profile(ctx context.Context, userID int64) (*user.User, error) {
	existingUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return existingUser, nil
}

// UpdateProfile applies only the supplied fields, re-validating each one
func (s *Service) UpdateProfile(ctx context.Context, userID int64, patch user.UpdatePatch) (*user.User, error) {
	if patch.Username != nil {
		trimmed := strings.TrimSpace(*patch.Username)
		if err := validateUsername(trimmed); err != nil {
			return nil, err
		}
		patch.Username = &trimmed
	}

	if patch.Email != nil {
		normalized := normalizeEmail(*patch.Email)
		if err := validateEmail(normalized); err != nil {
			return nil, err
		}
		patch.Email = &normalized
	}

	updatedUser, err := s.userRepo.Update(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) ||
			errors.Is(err, user.ErrDuplicateUsername) ||
			errors.Is(err, user.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return updatedUser, nil
}

// ChangePassword replaces the credential after confirming the current one.
// The minimum length rule applies to the new password only.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrPasswordsRequired
	}

	existingUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, currentPassword) {
		return ErrCurrentPasswordWrong
	}

	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("password changed", "user_id", userID)

	return nil
}

// DeleteAccount permanently removes the identity after password
// confirmation. There is no soft delete; dependent storefront rows go with
// the user via the schema's cascade rules.
func (s *Service) DeleteAccount(ctx context.Context, userID int64, password string) error {
	existingUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if password == "" || !VerifyPassword(existingUser.PasswordHash, password) {
		return ErrPasswordConfirmation
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("account deleted", "user_id", userID)

	return nil
}
