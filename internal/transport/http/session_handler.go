package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

type SessionHandler struct {
	auth AuthManager
}

func RegisterSessions(e *echo.Echo, auth AuthManager) {
	h := &SessionHandler{auth: auth}

	own := e.Group("/api/v1/sessions", RequireAuth())
	own.GET("", h.listSessions)
	own.DELETE("/:id", h.revokeSession)

	staff := e.Group("/api/v1/admin/sessions", RequireStaff())
	staff.POST("/revoke", h.revokeSessions)
}

// listSessions handles GET /api/v1/sessions
func (h *SessionHandler) listSessions(c echo.Context) error {
	principal, _ := CurrentPrincipal(c)
	page, limit := parsePage(c)

	list, err := h.auth.ListSessions(c.Request().Context(), principal.User.ID, page, limit)
	if err != nil {
		return writeServiceError(c, err)
	}

	results := make([]SessionResponse, 0, len(list.Sessions))
	for _, s := range list.Sessions {
		results = append(results, toSessionResponse(s, principal.Session.ID))
	}
	return c.JSON(http.StatusOK, newPageResponse(results, list.Total, list.Page))
}

// revokeSession handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) revokeSession(c echo.Context) error {
	user, _ := CurrentUser(c)
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid session id"))
	}

	if err := h.auth.RevokeSession(c.Request().Context(), user.ID, sessionID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// revokeSessions handles POST /api/v1/admin/sessions/revoke
func (h *SessionHandler) revokeSessions(c echo.Context) error {
	var req RevokeSessionsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if len(req.IDs) == 0 {
		return c.JSON(http.StatusBadRequest, util.Error("ids must not be empty"))
	}

	revoked, err := h.auth.RevokeSessions(c.Request().Context(), req.IDs)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, RevokeSessionsResponse{Revoked: revoked})
}
