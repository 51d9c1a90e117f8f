package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	AllowOrigins  []string
	RefreshHeader string
	AccessHeader  string
	// SessionAuth runs after logging and CORS so rejected requests are still
	// logged and carry CORS headers.
	SessionAuth  echo.MiddlewareFunc
	HealthChecks map[string]HealthCheck
}

func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range allowOrigins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	refreshHeader := cfg.RefreshHeader
	if refreshHeader == "" {
		refreshHeader = DefaultRefreshHeader
	}
	accessHeader := cfg.AccessHeader
	if accessHeader == "" {
		accessHeader = DefaultAccessHeader
	}

	registerLogging(e)

	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderAuthorization,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderOrigin,
			echo.HeaderXRequestedWith,
			refreshHeader,
		},
		ExposeHeaders:    []string{accessHeader, "Retry-After"},
		AllowCredentials: allowCredentials,
	}))
	if cfg.SessionAuth != nil {
		e.Use(cfg.SessionAuth)
	}

	e.GET("/health", healthHandler(cfg.HealthChecks))
	return e
}

func healthHandler(checks map[string]HealthCheck) echo.HandlerFunc {
	return func(c echo.Context) error {
		if len(checks) == 0 {
			return c.JSON(http.StatusOK, util.Data("ok", true))
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logrus.WithError(err).WithField("dependency", name).Warn("health check failed")
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		if status != http.StatusOK {
			body := util.Error("dependency unavailable")
			body["checks"] = results
			return c.JSON(status, body)
		}
		return c.JSON(status, echo.Map{"ok": true, "checks": results})
	}
}
