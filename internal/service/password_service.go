package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/repository/ports"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

const (
	defaultResetCodeTTL    = 15 * time.Minute
	defaultResetCodeLength = 6
	maxResetAttempts       = 5
)

type PasswordMailer interface {
	SendPasswordResetCode(ctx context.Context, email, code string, ttl time.Duration) error
	SendPasswordChanged(ctx context.Context, email string) error
}

// SessionTerminator ends a user's sessions after a credential change.
type SessionTerminator interface {
	TerminateUserSessions(ctx context.Context, userID uuid.UUID, except *uuid.UUID, reason string) (int64, error)
}

type PasswordServiceConfig struct {
	CodeTTL    time.Duration
	CodeLength int
}

type PasswordService struct {
	users    ports.UserRepository
	resets   ports.PasswordResetRepository
	tokens   *util.JWTManager
	sessions SessionTerminator
	mailer   PasswordMailer

	codeTTL    time.Duration
	codeLength int
	now        func() time.Time
}

func NewPasswordService(users ports.UserRepository, resets ports.PasswordResetRepository, tokens *util.JWTManager, sessions SessionTerminator, mailer PasswordMailer, cfg PasswordServiceConfig) *PasswordService {
	ttl := cfg.CodeTTL
	if ttl <= 0 {
		ttl = defaultResetCodeTTL
	}
	length := cfg.CodeLength
	if length <= 0 {
		length = defaultResetCodeLength
	}
	return &PasswordService{
		users:      users,
		resets:     resets,
		tokens:     tokens,
		sessions:   sessions,
		mailer:     mailer,
		codeTTL:    ttl,
		codeLength: length,
		now:        time.Now,
	}
}

// RequestReset mails a one-time code to the account owner. Unknown and
// inactive addresses succeed silently.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrUserValidation)
	}
	if s.mailer == nil {
		return errors.New("password reset mailer not configured")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	if err := s.resets.ConsumeByUser(ctx, user.ID); err != nil {
		return err
	}
	code, err := util.GenerateNumericOTP(s.codeLength)
	if err != nil {
		return err
	}
	hash, salt, err := util.DerivePassword(code)
	if err != nil {
		return err
	}
	if _, err := s.resets.Create(ctx, user.ID, hash, salt, s.now().Add(s.codeTTL)); err != nil {
		return err
	}
	return s.mailer.SendPasswordResetCode(ctx, user.Email, code, s.codeTTL)
}

// VerifyReset exchanges a valid code for a password_reset token pair.
func (s *PasswordService) VerifyReset(ctx context.Context, email, code string) (util.TokenPair, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || code == "" {
		return util.TokenPair{}, ErrInvalidResetCode
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return util.TokenPair{}, ErrInvalidResetCode
		}
		return util.TokenPair{}, err
	}
	reset, err := s.resets.FindActiveByUser(ctx, user.ID, s.now())
	if err != nil {
		if isNotFound(err) {
			return util.TokenPair{}, ErrInvalidResetCode
		}
		return util.TokenPair{}, err
	}
	if reset.Attempts >= maxResetAttempts {
		if err := s.resets.MarkConsumed(ctx, reset.ID); err != nil {
			return util.TokenPair{}, err
		}
		return util.TokenPair{}, ErrInvalidResetCode
	}
	if !util.VerifyPassword(code, reset.CodeSalt, reset.CodeHash) {
		if err := s.resets.IncrementAttempts(ctx, reset.ID); err != nil {
			return util.TokenPair{}, err
		}
		return util.TokenPair{}, ErrInvalidResetCode
	}
	if err := s.resets.MarkConsumed(ctx, reset.ID); err != nil {
		return util.TokenPair{}, err
	}
	return s.tokens.IssueUser(user.ID, util.ScopePasswordReset)
}

// ConfirmReset sets a new password and terminates every session of the user.
func (s *PasswordService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	user, err := s.userForToken(ctx, token, util.ScopePasswordReset)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}
	if _, err := s.sessions.TerminateUserSessions(ctx, user.ID, nil, "password_reset"); err != nil {
		return err
	}
	s.notifyChanged(ctx, user)
	return nil
}

// IssueChangeToken re-checks the current password and returns a
// password_change token pair.
func (s *PasswordService) IssueChangeToken(ctx context.Context, user *domain.User, currentPassword string) (util.TokenPair, error) {
	if user == nil {
		return util.TokenPair{}, ErrUserNotFound
	}
	if !user.HasPassword() {
		return util.TokenPair{}, ErrPasswordNotSet
	}
	if !util.VerifyPassword(currentPassword, user.PasswordSalt, user.PasswordHash) {
		return util.TokenPair{}, ErrInvalidCredentials
	}
	return s.tokens.IssueUser(user.ID, util.ScopePasswordChange)
}

// ConfirmChange sets a new password and terminates the user's other
// sessions. keep, when it belongs to the same user, stays active.
func (s *PasswordService) ConfirmChange(ctx context.Context, token, newPassword string, keep *domain.Session) error {
	user, err := s.userForToken(ctx, token, util.ScopePasswordChange)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}
	var except *uuid.UUID
	if keep != nil && keep.UserID == user.ID {
		id := keep.ID
		except = &id
	}
	if _, err := s.sessions.TerminateUserSessions(ctx, user.ID, except, "password_change"); err != nil {
		return err
	}
	s.notifyChanged(ctx, user)
	return nil
}

func (s *PasswordService) userForToken(ctx context.Context, token string, scope util.TokenScope) (*domain.User, error) {
	claims, err := s.tokens.DecodeAs(token, util.TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPasswordToken, err)
	}
	uc, ok := claims.(util.UserClaims)
	if !ok || uc.Scope != scope {
		return nil, ErrInvalidPasswordToken
	}
	user, err := s.users.FindByID(ctx, uc.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidPasswordToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	// A password flow token is spent once the password changes after it
	// was issued.
	if changed := user.PasswordChangedAt; changed != nil && !uc.IssuedAt.After(changed.Truncate(time.Second)) {
		return nil, ErrInvalidPasswordToken
	}
	return user, nil
}

func (s *PasswordService) setPassword(ctx context.Context, user *domain.User, password string) error {
	if err := util.ValidatePassword(password, user.Email, user.FirstName, user.LastName); err != nil {
		return fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}
	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash, salt)
}

func (s *PasswordService) notifyChanged(ctx context.Context, user *domain.User) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendPasswordChanged(ctx, user.Email); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to send password changed notice")
	}
}
