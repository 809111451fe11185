package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nuvoor/careadmin/internal/metrics"
	"github.com/nuvoor/careadmin/internal/model"
	"github.com/nuvoor/careadmin/internal/repository"
	"github.com/nuvoor/careadmin/internal/validation"
)

// resetTokenBytes is the entropy of a password reset token (hex encoded to 40 chars).
const resetTokenBytes = 20

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidOrExpiredToken = errors.New("password reset token is invalid or has expired")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUnauthorized          = errors.New("token is not valid")
)

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

type AuthService struct {
	userRepository           repository.UserRepository
	emailService             *EmailService
	hasher                   *PasswordHasher
	sessions                 *SessionIssuer
	metrics                  *metrics.Auth
	tokenPasswordResetExpiry time.Duration
	now                      func() time.Time
}

func NewAuthService(
	userRepository repository.UserRepository,
	emailService *EmailService,
	hasher *PasswordHasher,
	sessions *SessionIssuer,
	m *metrics.Auth,
	tokenPasswordResetExpiry time.Duration,
	now func() time.Time,
) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		userRepository:           userRepository,
		emailService:             emailService,
		hasher:                   hasher,
		sessions:                 sessions,
		metrics:                  m,
		tokenPasswordResetExpiry: tokenPasswordResetExpiry,
		now:                      now,
	}
}

// Login checks email and password and issues a session token. Unknown
// emails and wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.VerifyDummy(password)
			s.metrics.Login(metrics.OutcomeRejected)
			return nil, ErrInvalidCredentials
		}
		s.metrics.Login(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.Login(metrics.OutcomeRejected)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.sessions.Issue(user.ID)
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	s.metrics.Login(metrics.OutcomeSuccess)
	slog.Info("user logged in", "user_id", user.ID)
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a session token to its account. The returned user
// never carries the password hash.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.sessions.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.PasswordHash = ""
	user.ClearResetToken()
	return user, nil
}

// GenerateToken returns a random hex token for password resets.
func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, resetTokenBytes)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// RequestPasswordReset stores a fresh reset token on the account and emails
// the reset link. Unknown emails return ErrUserNotFound. If delivery fails
// the stored token stays valid and the error is returned.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Info("forgot password requested for non-existent email", "email", email)
			s.metrics.ResetRequest(metrics.OutcomeNotFound)
			return ErrUserNotFound
		}
		s.metrics.ResetRequest(metrics.OutcomeError)
		return fmt.Errorf("failed to get user: %w", err)
	}

	resetToken, err := s.GenerateToken()
	if err != nil {
		s.metrics.ResetRequest(metrics.OutcomeError)
		return fmt.Errorf("failed to generate token: %w", err)
	}

	// Replaces any earlier outstanding token
	user.SetResetToken(resetToken, s.now().Add(s.tokenPasswordResetExpiry))
	err = s.userRepository.Update(ctx, user)
	if err != nil {
		s.metrics.ResetRequest(metrics.OutcomeError)
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	err = s.emailService.SendPasswordResetEmail(ctx, user.Email, resetToken, s.tokenPasswordResetExpiry)
	if err != nil {
		slog.Error("failed to send password reset email", "error", err, "user_id", user.ID)
		s.metrics.ResetRequest(metrics.OutcomeError)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.metrics.ResetRequest(metrics.OutcomeSuccess)
	slog.Info("password reset link sent", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token and replaces the password. Wrong,
// expired and already used tokens all return ErrInvalidOrExpiredToken.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		s.metrics.ResetConsume(metrics.OutcomeRejected)
		return ErrInvalidOrExpiredToken
	}

	// Cheap rejection before spending bcrypt work on the new password
	user, err := s.userRepository.ByValidResetToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.ResetConsume(metrics.OutcomeRejected)
			return ErrInvalidOrExpiredToken
		}
		s.metrics.ResetConsume(metrics.OutcomeError)
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		s.metrics.ResetConsume(metrics.OutcomeRejected)
		return fmt.Errorf("%w: %w", ErrInvalidPassword, err)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.metrics.ResetConsume(metrics.OutcomeError)
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Authoritative check: the token may have been used or expired meanwhile
	err = s.userRepository.ConsumeResetToken(ctx, token, passwordHash, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenInvalid) {
			s.metrics.ResetConsume(metrics.OutcomeRejected)
			return ErrInvalidOrExpiredToken
		}
		s.metrics.ResetConsume(metrics.OutcomeError)
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.metrics.ResetConsume(metrics.OutcomeSuccess)
	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// CreateAccount adds an account with a hashed password. Used by the admin
// seeding command; there is no public sign-up.
func (s *AuthService) CreateAccount(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}

	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPassword, err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.userRepository.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("account created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// PruneExpiredResetTokens clears reset tokens whose window has closed.
func (s *AuthService) PruneExpiredResetTokens(ctx context.Context) (int64, error) {
	cleared, err := s.userRepository.ClearExpiredResetTokens(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", err)
	}
	slog.Info("expired reset tokens cleared", "count", cleared)
	return cleared, nil
}
