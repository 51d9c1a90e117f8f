package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/njprem/Session_Auth_BackEnd/internal/media"
	"github.com/njprem/Session_Auth_BackEnd/internal/service"
	"github.com/njprem/Session_Auth_BackEnd/internal/transport/mail"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

// writeServiceError maps service errors onto HTTP responses. Unknown errors
// are logged and answered with 500.
func writeServiceError(c echo.Context, err error) error {
	var throttled *service.ThrottledError
	if errors.As(err, &throttled) {
		seconds := int(throttled.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
		return c.JSON(http.StatusTooManyRequests, util.Error(service.ErrTooManyAttempts.Error()))
	}

	// Token and session failures answer 401 even when the reason would map
	// elsewhere on its own.
	if isTokenFailure(err) {
		message, _ := service.AuthErrorMessage(err)
		return unauthorized(c, message)
	}

	switch {
	case errors.Is(err, service.ErrUserValidation),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrMediaValidation),
		errors.Is(err, service.ErrMediaNotAnImage),
		errors.Is(err, service.ErrInvalidResetCode),
		errors.Is(err, service.ErrInvalidPasswordToken),
		errors.Is(err, service.ErrPasswordNotSet),
		errors.Is(err, media.ErrUnsupportedImage):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidGoogleToken):
		return unauthorized(c, err.Error())
	case errors.Is(err, service.ErrUserInactive):
		return c.JSON(http.StatusForbidden, util.Error("User is inactive"))
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrMediaNotFound):
		return c.JSON(http.StatusNotFound, util.Error(err.Error()))
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrMediaInUse):
		return c.JSON(http.StatusConflict, util.Error(err.Error()))
	case errors.Is(err, service.ErrMediaTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, util.Error(err.Error()))
	case errors.Is(err, service.ErrGoogleLoginDisabled),
		errors.Is(err, mail.ErrNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, util.Error(err.Error()))
	}

	if message, ok := service.AuthErrorMessage(err); ok {
		return unauthorized(c, message)
	}

	logrus.WithError(err).WithField("uri", c.Request().RequestURI).Error("request failed")
	return c.JSON(http.StatusInternalServerError, util.Error("internal server error"))
}

func isTokenFailure(err error) bool {
	if errors.Is(err, service.ErrInvalidPasswordToken) {
		return false
	}
	return errors.Is(err, service.ErrAuthenticationFailed) ||
		errors.Is(err, service.ErrRefreshUnavailable) ||
		errors.Is(err, service.ErrInvalidToken) ||
		errors.Is(err, util.ErrTokenExpired) ||
		errors.Is(err, util.ErrTokenMalformed)
}
