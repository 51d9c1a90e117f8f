package service

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrTooManyAttempts     = errors.New("too many failed login attempts")
	ErrGoogleLoginDisabled = errors.New("google login is not configured")
	ErrInvalidGoogleToken  = errors.New("invalid google token")
	ErrEmailExists         = errors.New("email already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserValidation      = errors.New("user validation failed")
	ErrWeakPassword        = errors.New("password does not meet requirements")
	ErrPasswordNotSet      = errors.New("account has no password")

	ErrInvalidResetCode     = errors.New("invalid or expired reset code")
	ErrInvalidPasswordToken = errors.New("invalid or expired password token")

	ErrMediaNotFound   = errors.New("media not found")
	ErrMediaValidation = errors.New("media validation failed")
	ErrMediaTooLarge   = errors.New("media exceeds maximum size")
	ErrMediaNotAnImage = errors.New("media is not an image")
	ErrMediaInUse      = errors.New("media is already assigned to another user")
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key")
}

func normalizeString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
