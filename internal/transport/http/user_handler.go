package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/service"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

// UserManager is implemented by service.UserService.
type UserManager interface {
	Register(ctx context.Context, input service.RegisterInput) (*domain.User, error)
	List(ctx context.Context, page, limit int) (*service.UserList, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input service.ProfileInput) (*domain.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.User, error)
	SetImage(ctx context.Context, id uuid.UUID, mediaID *uuid.UUID) (*domain.User, error)
}

type UserHandler struct {
	users UserManager
}

func RegisterUsers(e *echo.Echo, users UserManager) {
	h := &UserHandler{users: users}

	e.POST("/api/v1/auth/register", h.register)

	me := e.Group("/api/v1/users/me", RequireAuth())
	me.GET("", h.getMe)
	me.PATCH("", h.updateMe)
	me.PUT("/image", h.setMyImage)

	staff := e.Group("/api/v1/users", RequireStaff())
	staff.GET("", h.listUsers)
	staff.GET("/:id", h.getUser)
	staff.PATCH("/:id/active", h.setActive)
}

// register handles POST /api/v1/auth/register
func (h *UserHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	user, err := h.users.Register(c.Request().Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CountryCode: req.CountryCode,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// getMe handles GET /api/v1/users/me
func (h *UserHandler) getMe(c echo.Context) error {
	user, _ := CurrentUser(c)
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// updateMe handles PATCH /api/v1/users/me
func (h *UserHandler) updateMe(c echo.Context) error {
	current, _ := CurrentUser(c)
	var req ProfileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), current.ID, service.ProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CountryCode: req.CountryCode,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// setMyImage handles PUT /api/v1/users/me/image
func (h *UserHandler) setMyImage(c echo.Context) error {
	current, _ := CurrentUser(c)
	var req UserImageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	user, err := h.users.SetImage(c.Request().Context(), current.ID, req.MediaID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// listUsers handles GET /api/v1/users
func (h *UserHandler) listUsers(c echo.Context) error {
	page, limit := parsePage(c)
	list, err := h.users.List(c.Request().Context(), page, limit)
	if err != nil {
		return writeServiceError(c, err)
	}

	results := make([]UserResponse, 0, len(list.Users))
	for i := range list.Users {
		results = append(results, toUserResponse(&list.Users[i]))
	}
	return c.JSON(http.StatusOK, newPageResponse(results, list.Total, list.Page))
}

// getUser handles GET /api/v1/users/{id}
func (h *UserHandler) getUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid user id"))
	}
	user, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// setActive handles PATCH /api/v1/users/{id}/active
func (h *UserHandler) setActive(c echo.Context) error {
	current, _ := CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid user id"))
	}
	var req UserActiveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if id == current.ID && !req.IsActive {
		return c.JSON(http.StatusBadRequest, util.Error("cannot deactivate your own account"))
	}

	user, err := h.users.SetActive(c.Request().Context(), id, req.IsActive)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}
