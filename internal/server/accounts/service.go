package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avolkovs/runbase/internal/common"
	"github.com/avolkovs/runbase/internal/security"
	"github.com/avolkovs/runbase/internal/server/auth"
	"github.com/avolkovs/runbase/internal/server/authtokens"
	"github.com/avolkovs/runbase/internal/server/config"
	"github.com/avolkovs/runbase/internal/server/mail"
)

// Service implements the account operations exposed by the HTTP API and
// the deployment CLI.
type Service struct {
	repo               Repository
	tokens             authtokens.Repository
	mailer             mail.Sender
	secretKey          []byte
	resetTokenValidity time.Duration
}

func NewService(repo Repository, tokens authtokens.Repository, mailer mail.Sender, cfg *config.Config) *Service {
	return &Service{
		repo:               repo,
		tokens:             tokens,
		mailer:             mailer,
		secretKey:          []byte(cfg.SecretKey),
		resetTokenValidity: cfg.ResetTokenValidityDuration,
	}
}

// Register creates an active user and returns it with a fresh auth token.
// The optional full name is split into first/last the way the original
// registration form did: first word, then everything else.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*User, string, error) {

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("password hash error: %w", err)
	}

	first, last := splitName(fullName)

	user, err := s.repo.Create(ctx, &User{
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		FirstName:    first,
		LastName:     last,
		FullName:     strings.TrimSpace(fullName),
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorEmailTaken) {
			return nil, "", common.ErrorEmailTaken
		}
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.tokens.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("token issue error: %w", err)
	}

	return user, token.Key, nil
}

// Login verifies credentials, stamps last_login and returns the user's
// token, creating one if necessary. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {

	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorInvalidCredentials
		}
		return nil, "", common.ErrorInternal
	}

	if ok, err := security.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, "", common.ErrorInternal
	} else if !ok {
		return nil, "", common.ErrorInvalidCredentials
	}

	if !user.IsActive {
		return nil, "", common.ErrorInactiveUser
	}

	now := time.Now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, "", common.ErrorInternal
	}
	user.LastLogin = &now

	token, err := s.tokens.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	return user, token.Key, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, key string) error {
	if err := s.tokens.Delete(ctx, key); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return err
	}
	return nil
}

// Authenticate resolves an opaque token key to its user. Inactive users
// are rejected the same way unknown keys are.
func (s *Service) Authenticate(ctx context.Context, key string) (*User, error) {

	token, err := s.tokens.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, common.ErrInvalidToken
	}

	return user, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateUser applies a partial profile update. Email changes are checked
// for uniqueness excluding the user themselves.
func (s *Service) UpdateUser(ctx context.Context, userID string, params UpdateParams) (*User, error) {

	if params.Email != nil {
		email := normalizeEmail(*params.Email)
		params.Email = &email

		taken, err := s.repo.EmailTaken(ctx, email, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, common.ErrorEmailTaken
		}
	}

	return s.repo.Update(ctx, userID, params)
}

// ChangePassword verifies the old password before replacing it.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if ok, err := security.VerifyPassword(oldPassword, user.PasswordHash); err != nil {
		return err
	} else if !ok {
		return common.ErrorPasswordMismatch
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// RequestPasswordReset mails a reset token to the given address. Unknown
// emails succeed silently so the endpoint cannot be used to enumerate
// accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {

	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	token, err := auth.GenerateResetToken(user.ID, s.secretKey, s.resetTokenValidity)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"You're receiving this email because you requested a password reset.\n\n"+
			"Use the following token to set a new password:\n\n%s\n\n"+
			"If you didn't request this, you can ignore this email.", token)

	return s.mailer.Send([]string{user.Email}, "Password reset", body)
}

// ConfirmPasswordReset sets a new password for the user named in a valid
// reset token.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {

	userID, err := auth.GetUserIDFromResetToken(token, s.secretKey)
	if err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// CreateSuperuser creates an active staff+superuser account. Used by the
// createsuperuser entrypoint that runctl triggers on Cloud Build.
func (s *Service) CreateSuperuser(ctx context.Context, email, password string) (*User, error) {

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &User{
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// splitName splits a free-form full name into first and last parts.
func splitName(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
