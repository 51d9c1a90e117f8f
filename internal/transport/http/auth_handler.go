package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/service"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

// AuthManager is implemented by service.AuthService.
type AuthManager interface {
	Authenticator
	Login(ctx context.Context, email, password string, client domain.ClientInfo) (*service.LoginResult, error)
	LoginWithGoogle(ctx context.Context, idToken string, client domain.ClientInfo) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	ListSessions(ctx context.Context, userID uuid.UUID, page, limit int) (*service.SessionList, error)
	RevokeSession(ctx context.Context, ownerID, sessionID uuid.UUID) error
	RevokeSessions(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// PasswordManager is implemented by service.PasswordService.
type PasswordManager interface {
	RequestReset(ctx context.Context, email string) error
	VerifyReset(ctx context.Context, email, code string) (util.TokenPair, error)
	ConfirmReset(ctx context.Context, token, newPassword string) error
	IssueChangeToken(ctx context.Context, user *domain.User, currentPassword string) (util.TokenPair, error)
	ConfirmChange(ctx context.Context, token, newPassword string, keep *domain.Session) error
}

type AuthHandler struct {
	auth      AuthManager
	passwords PasswordManager
}

func RegisterAuth(e *echo.Echo, auth AuthManager, passwords PasswordManager) {
	h := &AuthHandler{auth: auth, passwords: passwords}

	g := e.Group("/api/v1/auth")
	g.POST("/login", h.login)
	g.POST("/google", h.loginWithGoogle)
	g.POST("/token/refresh", h.refresh)
	g.POST("/password/reset", h.requestPasswordReset)
	g.POST("/password/reset/verify", h.verifyPasswordReset)
	g.POST("/password/reset/confirm", h.confirmPasswordReset)
	g.POST("/password/change/confirm", h.confirmPasswordChange)

	protected := e.Group("/api/v1/auth", RequireAuth())
	protected.POST("/logout", h.logout)
	protected.POST("/password/change", h.requestPasswordChange)
}

// login handles POST /api/v1/auth/login
func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, util.Error("email and password are required"))
	}

	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password, clientInfo(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toLoginResponse(result))
}

// loginWithGoogle handles POST /api/v1/auth/google
func (h *AuthHandler) loginWithGoogle(c echo.Context) error {
	var req GoogleLoginRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		return c.JSON(http.StatusBadRequest, util.Error("id_token is required"))
	}

	result, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken, clientInfo(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toLoginResponse(result))
}

// logout handles POST /api/v1/auth/logout
func (h *AuthHandler) logout(c echo.Context) error {
	session, _ := CurrentSession(c)
	if err := h.auth.Logout(c.Request().Context(), session.ID); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// refresh handles POST /api/v1/auth/token/refresh
func (h *AuthHandler) refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	reissued, err := h.auth.Refresh(c.Request().Context(), strings.TrimSpace(req.Refresh))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, AccessTokenResponse{
		Access:          reissued.AccessToken,
		AccessExpiresAt: reissued.ExpiresAt,
	})
}

// requestPasswordReset handles POST /api/v1/auth/password/reset. The answer
// does not reveal whether the address belongs to an account.
func (h *AuthHandler) requestPasswordReset(c echo.Context) error {
	var req PasswordResetRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, util.Error("email is required"))
	}
	if err := h.passwords.RequestReset(c.Request().Context(), req.Email); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusAccepted, SuccessResponse{Success: true})
}

// verifyPasswordReset handles POST /api/v1/auth/password/reset/verify
func (h *AuthHandler) verifyPasswordReset(c echo.Context) error {
	var req PasswordResetVerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusBadRequest, util.Error("email and code are required"))
	}

	pair, err := h.passwords.VerifyReset(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toTokenPairResponse(pair))
}

// confirmPasswordReset handles POST /api/v1/auth/password/reset/confirm
func (h *AuthHandler) confirmPasswordReset(c echo.Context) error {
	req, ok := bindPasswordConfirm(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, util.Error("token and new_password are required"))
	}
	if err := h.passwords.ConfirmReset(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// requestPasswordChange handles POST /api/v1/auth/password/change
func (h *AuthHandler) requestPasswordChange(c echo.Context) error {
	user, _ := CurrentUser(c)
	var req PasswordChangeRequest
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" {
		return c.JSON(http.StatusBadRequest, util.Error("current_password is required"))
	}

	pair, err := h.passwords.IssueChangeToken(c.Request().Context(), user, req.CurrentPassword)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toTokenPairResponse(pair))
}

// confirmPasswordChange handles POST /api/v1/auth/password/change/confirm.
// When the caller is authenticated its own session survives the change.
func (h *AuthHandler) confirmPasswordChange(c echo.Context) error {
	req, ok := bindPasswordConfirm(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, util.Error("token and new_password are required"))
	}
	keep, _ := CurrentSession(c)
	if err := h.passwords.ConfirmChange(c.Request().Context(), req.Token, req.NewPassword, keep); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func bindPasswordConfirm(c echo.Context) (PasswordConfirmRequest, bool) {
	var req PasswordConfirmRequest
	if err := c.Bind(&req); err != nil {
		return req, false
	}
	req.Token = strings.TrimSpace(req.Token)
	return req, req.Token != "" && req.NewPassword != ""
}

func clientInfo(c echo.Context) domain.ClientInfo {
	req := c.Request()
	agent := map[string]any{}
	if platform := strings.Trim(req.Header.Get("Sec-CH-UA-Platform"), `" `); platform != "" {
		agent["platform"] = platform
	}
	if lang := strings.TrimSpace(req.Header.Get("Accept-Language")); lang != "" {
		agent["accept_language"] = lang
	}
	return domain.ClientInfo{
		IPAddress: c.RealIP(),
		UserAgent: req.UserAgent(),
		Agent:     agent,
	}
}

func toLoginResponse(result *service.LoginResult) LoginResponse {
	return LoginResponse{
		TokenPairResponse: toTokenPairResponse(result.Tokens),
		SessionID:         result.Session.ID,
		User:              toUserResponse(result.User),
	}
}
