package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

// Authentication failures. Resolver errors wrap ErrAuthenticationFailed
// together with the specific reason so callers can match either.
var (
	ErrInvalidToken         = errors.New("token contained no recognizable user identification")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrSessionNotFound      = errors.New("session not found")
	ErrUserInactive         = errors.New("user is inactive")
	ErrSessionTerminated    = errors.New("session is expired")
	ErrRefreshUnavailable   = errors.New("refresh token is missing or invalid")
)

func authFailure(reason error) error {
	return fmt.Errorf("%w: %w", ErrAuthenticationFailed, reason)
}

// ThrottledError is returned while a login key is locked out.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s, retry in %s", ErrTooManyAttempts, e.RetryAfter.Round(time.Second))
}

func (e *ThrottledError) Unwrap() error { return ErrTooManyAttempts }

var authMessages = []struct {
	err     error
	message string
}{
	{ErrRefreshUnavailable, "Refresh token is missing or invalid"},
	{util.ErrTokenExpired, "Token is expired"},
	{util.ErrTokenMalformed, "Token is invalid"},
	{ErrInvalidToken, "Token contained no recognizable user identification"},
	{ErrSessionNotFound, "User not found"},
	{ErrUserInactive, "User is inactive"},
	{ErrSessionTerminated, "Session is expired"},
	{ErrAuthenticationFailed, "Authentication failed"},
}

// AuthErrorMessage returns the client facing message for an authentication
// error. ok is false when err is not an authentication failure, for
// example a storage outage.
func AuthErrorMessage(err error) (message string, ok bool) {
	if err == nil {
		return "", false
	}
	for _, m := range authMessages {
		if errors.Is(err, m.err) {
			return m.message, true
		}
	}
	return "", false
}
