package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/observability"
	"github.com/njprem/Session_Auth_BackEnd/internal/service"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

const (
	contextPrincipalKey = "auth.principal"

	DefaultRefreshHeader = "x-refresh"
	DefaultAccessHeader  = "x-access"
	defaultLookupTimeout = 3 * time.Second
)

// Authenticator is the part of service.AuthService the middleware needs.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*service.Principal, error)
	Refresh(ctx context.Context, refreshToken string) (*service.Reissued, error)
}

type SessionAuthConfig struct {
	RefreshHeader string
	AccessHeader  string
	LookupTimeout time.Duration
	Metrics       *observability.Metrics
}

// SessionAuth authenticates every request carrying a bearer token. When the
// access token has expired and a valid refresh token accompanies it, a new
// access token is minted once and returned in the access header. Requests
// without an Authorization header pass through anonymously.
func SessionAuth(auth Authenticator, cfg SessionAuthConfig) echo.MiddlewareFunc {
	refreshHeader := strings.TrimSpace(cfg.RefreshHeader)
	if refreshHeader == "" {
		refreshHeader = DefaultRefreshHeader
	}
	accessHeader := strings.TrimSpace(cfg.AccessHeader)
	if accessHeader == "" {
		accessHeader = DefaultAccessHeader
	}
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	metrics := cfg.Metrics

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			authHeader := strings.TrimSpace(req.Header.Get(echo.HeaderAuthorization))
			if authHeader == "" {
				metrics.RecordAuthOutcome(req.Context(), "anonymous")
				return next(c)
			}
			token, ok := bearerToken(authHeader)
			if !ok {
				metrics.RecordAuthOutcome(req.Context(), "rejected")
				return unauthorized(c, "Authorization header must contain a bearer token")
			}

			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()

			outcome := "authenticated"
			principal, err := auth.Authenticate(ctx, token)
			if errors.Is(err, util.ErrTokenExpired) {
				reissued, refreshErr := auth.Refresh(ctx, req.Header.Get(refreshHeader))
				if refreshErr != nil {
					err = refreshErr
				} else {
					err = nil
					principal = reissued.Principal
					c.Response().Header().Set(accessHeader, reissued.AccessToken)
					outcome = "refreshed"
				}
			}
			if err != nil {
				message, isAuthErr := service.AuthErrorMessage(err)
				if !isAuthErr {
					metrics.RecordAuthOutcome(req.Context(), "error")
					logrus.WithError(err).WithField("uri", req.RequestURI).Error("session lookup failed")
					return c.JSON(http.StatusInternalServerError, util.Error("unable to authenticate request"))
				}
				metrics.RecordAuthOutcome(req.Context(), "rejected")
				logrus.WithError(err).WithField("uri", req.RequestURI).Debug("request authentication rejected")
				return unauthorized(c, message)
			}

			metrics.RecordAuthOutcome(req.Context(), outcome)
			c.Set(contextPrincipalKey, principal)
			return next(c)
		}
	}
}

// RequireAuth rejects requests SessionAuth did not authenticate.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentPrincipal(c); !ok {
				return unauthorized(c, "Authentication credentials were not provided")
			}
			return next(c)
		}
	}
}

func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := CurrentPrincipal(c)
			if !ok {
				return unauthorized(c, "Authentication credentials were not provided")
			}
			if !principal.User.IsStaff {
				return c.JSON(http.StatusForbidden, util.Error("staff privileges required"))
			}
			return next(c)
		}
	}
}

func CurrentPrincipal(c echo.Context) (*service.Principal, bool) {
	principal, ok := c.Get(contextPrincipalKey).(*service.Principal)
	if !ok || principal == nil || principal.User == nil || principal.Session == nil {
		return nil, false
	}
	return principal, true
}

func CurrentUser(c echo.Context) (*domain.User, bool) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return nil, false
	}
	return principal.User, true
}

func CurrentSession(c echo.Context) (*domain.Session, bool) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return nil, false
	}
	return principal.Session, true
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" || strings.Contains(token, " ") {
		return "", false
	}
	return token, true
}

func unauthorized(c echo.Context, message string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="api"`)
	return c.JSON(http.StatusUnauthorized, util.Error(message))
}
