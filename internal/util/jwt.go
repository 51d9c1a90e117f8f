package util

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenMalformed = errors.New("token is invalid")
	ErrTokenExpired   = errors.New("token has expired")
)

const (
	claimTokenType = "token_type"
	claimScope     = "scope"
)

// TokenSettings is the raw input for NewTokenConfig.
type TokenSettings struct {
	Algorithm    string
	SigningKey   string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	SessionClaim string
	UserClaim    string
}

// TokenConfig is the validated signing configuration. It is built once at
// startup and never mutated; all fields are read through accessors.
type TokenConfig struct {
	method       jwt.SigningMethod
	key          []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	sessionClaim string
	userClaim    string
}

func NewTokenConfig(s TokenSettings) (TokenConfig, error) {
	alg := strings.ToUpper(strings.TrimSpace(s.Algorithm))
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	var method jwt.SigningMethod
	switch alg {
	case jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return TokenConfig{}, fmt.Errorf("jwt: unsupported algorithm %q", s.Algorithm)
	}
	if s.SigningKey == "" {
		return TokenConfig{}, errors.New("jwt: signing key is required")
	}
	if s.AccessTTL <= 0 {
		return TokenConfig{}, errors.New("jwt: access token lifetime must be positive")
	}
	if s.RefreshTTL <= s.AccessTTL {
		return TokenConfig{}, errors.New("jwt: refresh token lifetime must exceed access token lifetime")
	}

	sessionClaim := strings.TrimSpace(s.SessionClaim)
	if sessionClaim == "" {
		sessionClaim = "session_id"
	}
	userClaim := strings.TrimSpace(s.UserClaim)
	if userClaim == "" {
		userClaim = "user_id"
	}
	if sessionClaim == userClaim {
		return TokenConfig{}, errors.New("jwt: session and user claim names must differ")
	}
	for _, name := range []string{sessionClaim, userClaim} {
		if isReservedClaim(name) {
			return TokenConfig{}, fmt.Errorf("jwt: claim name %q is reserved", name)
		}
	}

	return TokenConfig{
		method:       method,
		key:          []byte(s.SigningKey),
		accessTTL:    s.AccessTTL,
		refreshTTL:   s.RefreshTTL,
		sessionClaim: sessionClaim,
		userClaim:    userClaim,
	}, nil
}

func (c TokenConfig) Algorithm() string         { return c.method.Alg() }
func (c TokenConfig) AccessTTL() time.Duration  { return c.accessTTL }
func (c TokenConfig) RefreshTTL() time.Duration { return c.refreshTTL }
func (c TokenConfig) SessionClaim() string      { return c.sessionClaim }
func (c TokenConfig) UserClaim() string         { return c.userClaim }

func isReservedClaim(name string) bool {
	switch name {
	case "exp", "iat", "nbf", "jti", "iss", "aud", "sub", claimTokenType, claimScope:
		return true
	}
	return false
}

// TokenPair is an access/refresh pair minted from the same claim variant.
type TokenPair struct {
	Access           string
	AccessExpiresAt  time.Time
	Refresh          string
	RefreshExpiresAt time.Time
}

type JWTManager struct {
	cfg TokenConfig
	now func() time.Time
}

type JWTOption func(*JWTManager)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) JWTOption {
	return func(m *JWTManager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewJWTManager(cfg TokenConfig, opts ...JWTOption) *JWTManager {
	m := &JWTManager{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IssueSession mints a session-bound access/refresh pair.
func (m *JWTManager) IssueSession(sessionID uuid.UUID) (TokenPair, error) {
	if sessionID == uuid.Nil {
		return TokenPair{}, errors.New("jwt: session id is required")
	}
	return m.issuePair(func(t TokenType) TokenClaims {
		return SessionClaims{StandardClaims: StandardClaims{TokenType: t}, SessionID: sessionID}
	})
}

// IssueUser mints a pair bound directly to a user for a single password flow.
// The result never carries a session claim.
func (m *JWTManager) IssueUser(userID uuid.UUID, scope TokenScope) (TokenPair, error) {
	if userID == uuid.Nil {
		return TokenPair{}, errors.New("jwt: user id is required")
	}
	if !scope.Valid() {
		return TokenPair{}, fmt.Errorf("jwt: unknown scope %q", scope)
	}
	return m.issuePair(func(t TokenType) TokenClaims {
		return UserClaims{StandardClaims: StandardClaims{TokenType: t}, UserID: userID, Scope: scope}
	})
}

// IssueAccess mints a single access token for an existing session.
func (m *JWTManager) IssueAccess(sessionID uuid.UUID) (string, time.Time, error) {
	if sessionID == uuid.Nil {
		return "", time.Time{}, errors.New("jwt: session id is required")
	}
	issuedAt := m.now().Truncate(time.Second)
	claims := SessionClaims{StandardClaims: StandardClaims{TokenType: TokenTypeAccess}, SessionID: sessionID}
	return m.sign(claims, issuedAt, m.cfg.accessTTL)
}

func (m *JWTManager) issuePair(build func(TokenType) TokenClaims) (TokenPair, error) {
	issuedAt := m.now().Truncate(time.Second)
	access, accessExp, err := m.sign(build(TokenTypeAccess), issuedAt, m.cfg.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := m.sign(build(TokenTypeRefresh), issuedAt, m.cfg.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		Access:           access,
		AccessExpiresAt:  accessExp,
		Refresh:          refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *JWTManager) sign(claims TokenClaims, issuedAt time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := issuedAt.Add(ttl)
	std := claims.Standard()
	mc := jwt.MapClaims{
		claimTokenType: string(std.TokenType),
		"iat":          jwt.NewNumericDate(issuedAt),
		"exp":          jwt.NewNumericDate(expiresAt),
		"jti":          uuid.NewString(),
	}
	switch c := claims.(type) {
	case SessionClaims:
		mc[m.cfg.sessionClaim] = c.SessionID.String()
	case UserClaims:
		mc[m.cfg.userClaim] = c.UserID.String()
		mc[claimScope] = string(c.Scope)
	}

	signed, err := jwt.NewWithClaims(m.cfg.method, mc).SignedString(m.cfg.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Decode validates signature, algorithm and expiry and returns the typed claims.
func (m *JWTManager) Decode(tokenString string) (TokenClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrTokenMalformed
	}

	mc := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, mc, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.cfg.key, nil
	},
		jwt.WithValidMethods([]string{m.cfg.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	return m.claimsFromMap(mc)
}

// DecodeAs is Decode plus a token_type check.
func (m *JWTManager) DecodeAs(tokenString string, want TokenType) (TokenClaims, error) {
	claims, err := m.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if got := claims.Standard().TokenType; got != want {
		return nil, fmt.Errorf("%w: expected %s token, got %s", ErrTokenMalformed, want, got)
	}
	return claims, nil
}

func (m *JWTManager) claimsFromMap(mc jwt.MapClaims) (TokenClaims, error) {
	rawType, _ := mc[claimTokenType].(string)
	tokenType := TokenType(rawType)
	if !tokenType.Valid() {
		return nil, fmt.Errorf("%w: unknown token_type %q", ErrTokenMalformed, rawType)
	}
	jti, _ := mc["jti"].(string)
	if jti == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrTokenMalformed)
	}
	iat, err := mc.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, fmt.Errorf("%w: missing iat", ErrTokenMalformed)
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrTokenMalformed)
	}
	std := StandardClaims{
		TokenType: tokenType,
		JTI:       jti,
		IssuedAt:  iat.Time,
		ExpiresAt: exp.Time,
	}

	rawSession, hasSession := mc[m.cfg.sessionClaim]
	rawUser, hasUser := mc[m.cfg.userClaim]
	switch {
	case hasSession && hasUser:
		return nil, fmt.Errorf("%w: token carries both %s and %s", ErrTokenMalformed, m.cfg.sessionClaim, m.cfg.userClaim)
	case hasSession:
		id, err := parseUUIDClaim(rawSession)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTokenMalformed, m.cfg.sessionClaim, err)
		}
		return SessionClaims{StandardClaims: std, SessionID: id}, nil
	case hasUser:
		id, err := parseUUIDClaim(rawUser)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTokenMalformed, m.cfg.userClaim, err)
		}
		rawScope, _ := mc[claimScope].(string)
		scope := TokenScope(rawScope)
		if !scope.Valid() {
			return nil, fmt.Errorf("%w: unknown scope %q", ErrTokenMalformed, rawScope)
		}
		return UserClaims{StandardClaims: std, UserID: id, Scope: scope}, nil
	default:
		return nil, fmt.Errorf("%w: no identity claim", ErrTokenMalformed)
	}
}

func parseUUIDClaim(v interface{}) (uuid.UUID, error) {
	s, ok := v.(string)
	if !ok {
		return uuid.Nil, errors.New("not a string")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, errors.New("nil uuid")
	}
	return id, nil
}
