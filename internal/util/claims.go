package util

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

func (t TokenType) Valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// TokenScope names the single password flow a user-bound token authorizes.
type TokenScope string

const (
	ScopePasswordReset  TokenScope = "password_reset"
	ScopePasswordChange TokenScope = "password_change"
)

func (s TokenScope) Valid() bool {
	return s == ScopePasswordReset || s == ScopePasswordChange
}

type StandardClaims struct {
	TokenType TokenType
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c StandardClaims) Standard() StandardClaims { return c }

// TokenClaims is implemented only by SessionClaims and UserClaims.
type TokenClaims interface {
	Standard() StandardClaims
	tokenClaims()
}

// SessionClaims are carried by login tokens and identify a UserSession.
type SessionClaims struct {
	StandardClaims
	SessionID uuid.UUID
}

// UserClaims are carried by password reset/change tokens. They bypass the
// session mechanism entirely.
type UserClaims struct {
	StandardClaims
	UserID uuid.UUID
	Scope  TokenScope
}

func (SessionClaims) tokenClaims() {}
func (UserClaims) tokenClaims()    {}
