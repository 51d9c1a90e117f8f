package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/idtoken"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/observability"
	"github.com/njprem/Session_Auth_BackEnd/internal/repository/ports"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

const (
	providerPassword = "password"
	providerGoogle   = "google"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	User    *domain.User
	Session *domain.Session
}

type LoginResult struct {
	User    *domain.User
	Session *domain.Session
	Tokens  util.TokenPair
}

// Reissued carries a fresh access token minted from a refresh token.
type Reissued struct {
	Principal   *Principal
	AccessToken string
	ExpiresAt   time.Time
}

type SessionList struct {
	Sessions []domain.Session
	Total    int
	Page     util.Page
}

type googleValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	tokens   *util.JWTManager
	throttle ports.LoginThrottle
	metrics  *observability.Metrics

	googleAudience string
	validateGoogle googleValidator
	pageSize       int
}

type AuthServiceConfig struct {
	GoogleAudience string
	PageSize       int
	Throttle       ports.LoginThrottle
	Metrics        *observability.Metrics
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionRepository, tokens *util.JWTManager, cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		users:          users,
		sessions:       sessions,
		tokens:         tokens,
		throttle:       cfg.Throttle,
		metrics:        cfg.Metrics,
		googleAudience: strings.TrimSpace(cfg.GoogleAudience),
		validateGoogle: idtoken.Validate,
		pageSize:       cfg.PageSize,
	}
}

func (s *AuthService) Tokens() *util.JWTManager {
	return s.tokens
}

// Resolve maps decoded claims to the user and session behind them. Only
// session-bound claims authenticate a request; user-bound tokens are
// reserved for the password flows.
func (s *AuthService) Resolve(ctx context.Context, claims util.TokenClaims) (*Principal, error) {
	sc, ok := claims.(util.SessionClaims)
	if !ok || sc.SessionID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	session, err := s.sessions.Get(ctx, sc.SessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, authFailure(ErrSessionNotFound)
		}
		return nil, err
	}
	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, authFailure(ErrSessionNotFound)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, authFailure(ErrUserInactive)
	}
	if !session.Active() {
		return nil, authFailure(ErrSessionTerminated)
	}
	return &Principal{User: user, Session: session}, nil
}

// Authenticate validates an access token and resolves its principal.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.tokens.DecodeAs(accessToken, util.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return s.Resolve(ctx, claims)
}

// Refresh mints a new access token for the session behind refreshToken.
// The refresh token itself is left untouched.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Reissued, error) {
	if strings.TrimSpace(refreshToken) == "" {
		s.metrics.RecordRefresh(ctx, "missing")
		return nil, ErrRefreshUnavailable
	}
	claims, err := s.tokens.DecodeAs(refreshToken, util.TokenTypeRefresh)
	if err != nil {
		s.metrics.RecordRefresh(ctx, "invalid")
		return nil, fmt.Errorf("%w: %w", ErrRefreshUnavailable, err)
	}
	principal, err := s.Resolve(ctx, claims)
	if err != nil {
		s.metrics.RecordRefresh(ctx, "rejected")
		return nil, err
	}
	access, expiresAt, err := s.tokens.IssueAccess(principal.Session.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRefresh(ctx, "reissued")
	return &Reissued{Principal: principal, AccessToken: access, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, client domain.ClientInfo) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	throttleKey := email + "|" + client.IPAddress
	if wait := s.checkThrottle(ctx, throttleKey); wait > 0 {
		s.metrics.RecordLogin(ctx, providerPassword, "throttled")
		return nil, &ThrottledError{RetryAfter: wait}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if user == nil || !user.HasPassword() || !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		s.metrics.RecordLogin(ctx, providerPassword, "failed")
		if wait := s.registerFailure(ctx, throttleKey); wait > 0 {
			return nil, &ThrottledError{RetryAfter: wait}
		}
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.metrics.RecordLogin(ctx, providerPassword, "inactive")
		return nil, ErrUserInactive
	}
	s.resetThrottle(ctx, throttleKey)

	result, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin(ctx, providerPassword, "success")
	return result, nil
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string, client domain.ClientInfo) (*LoginResult, error) {
	if s.googleAudience == "" {
		return nil, ErrGoogleLoginDisabled
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, ErrInvalidGoogleToken
	}
	payload, err := s.validateGoogle(ctx, idToken, s.googleAudience)
	if err != nil {
		s.metrics.RecordLogin(ctx, providerGoogle, "failed")
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}

	email, _ := payload.Claims["email"].(string)
	email = domain.NormalizeEmail(email)
	verified, _ := payload.Claims["email_verified"].(bool)
	if email == "" || !verified {
		s.metrics.RecordLogin(ctx, providerGoogle, "failed")
		return nil, fmt.Errorf("%w: email missing or unverified", ErrInvalidGoogleToken)
	}
	firstName, _ := payload.Claims["given_name"].(string)
	lastName, _ := payload.Claims["family_name"].(string)

	user, err := s.users.UpsertGoogleUser(ctx, email, strings.TrimSpace(firstName), strings.TrimSpace(lastName))
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		s.metrics.RecordLogin(ctx, providerGoogle, "inactive")
		return nil, ErrUserInactive
	}

	result, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin(ctx, providerGoogle, "success")
	return result, nil
}

// Logout terminates the caller's session. Terminating an already
// terminated session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.SoftDelete(ctx, sessionID); err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	s.metrics.RecordRevocation(ctx, "logout", 1)
	return nil
}

func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID, pageNumber, limit int) (*SessionList, error) {
	page := util.NormalizePage(pageNumber, limit, s.pageSize)
	sessions, err := s.sessions.ListByUser(ctx, userID, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.sessions.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SessionList{Sessions: sessions, Total: total, Page: page}, nil
}

// RevokeSession terminates one of the owner's sessions. Sessions owned by
// another user are reported as not found.
func (s *AuthService) RevokeSession(ctx context.Context, ownerID, sessionID uuid.UUID) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return ErrSessionNotFound
		}
		return err
	}
	if session.UserID != ownerID {
		return ErrSessionNotFound
	}
	if !session.Active() {
		return nil
	}
	if err := s.sessions.SoftDelete(ctx, sessionID); err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	s.metrics.RecordRevocation(ctx, "revoked", 1)
	return nil
}

// RevokeSessions terminates every listed session regardless of owner and
// returns how many were still active.
func (s *AuthService) RevokeSessions(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.sessions.SoftDeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordRevocation(ctx, "admin", n)
	return n, nil
}

// TerminateUserSessions soft-deletes all active sessions of userID except
// the one given.
func (s *AuthService) TerminateUserSessions(ctx context.Context, userID uuid.UUID, except *uuid.UUID, reason string) (int64, error) {
	n, err := s.sessions.SoftDeleteByUser(ctx, userID, except)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordRevocation(ctx, reason, n)
	return n, nil
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User, client domain.ClientInfo) (*LoginResult, error) {
	agent, err := agentJSON(client)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Create(ctx, user.ID, clientIP(client.IPAddress), agent)
	if err != nil {
		return nil, err
	}
	tokens, err := s.tokens.IssueSession(session.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to update last login")
	}
	return &LoginResult{User: user, Session: session, Tokens: tokens}, nil
}

func (s *AuthService) checkThrottle(ctx context.Context, key string) time.Duration {
	if s.throttle == nil {
		return 0
	}
	wait, err := s.throttle.Check(ctx, key)
	if err != nil {
		logrus.WithError(err).Warn("login throttle unavailable")
		return 0
	}
	return wait
}

func (s *AuthService) registerFailure(ctx context.Context, key string) time.Duration {
	if s.throttle == nil {
		return 0
	}
	wait, err := s.throttle.RegisterFailure(ctx, key)
	if err != nil {
		logrus.WithError(err).Warn("login throttle unavailable")
		return 0
	}
	return wait
}

func (s *AuthService) resetThrottle(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, key); err != nil {
		logrus.WithError(err).Warn("login throttle unavailable")
	}
}

func agentJSON(client domain.ClientInfo) ([]byte, error) {
	agent := make(map[string]any, len(client.Agent)+1)
	for k, v := range client.Agent {
		agent[k] = v
	}
	if ua := strings.TrimSpace(client.UserAgent); ua != "" {
		agent["user_agent"] = ua
	}
	if len(agent) == 0 {
		return nil, nil
	}
	return json.Marshal(agent)
}

func clientIP(raw string) *string {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return nil
	}
	s := ip.String()
	return &s
}
