package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/Session_Auth_BackEnd/internal/service"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

// MediaManager is implemented by service.MediaService.
type MediaManager interface {
	Upload(ctx context.Context, upload service.MediaUpload) (*service.StoredMedia, error)
	Get(ctx context.Context, id uuid.UUID) (*service.StoredMedia, error)
}

type MediaHandler struct {
	media MediaManager
}

func RegisterMedia(e *echo.Echo, media MediaManager) {
	h := &MediaHandler{media: media}

	g := e.Group("/api/v1/media", RequireAuth())
	g.POST("", h.upload)
	g.GET("/:id", h.get)
}

// upload handles POST /api/v1/media (multipart field "file", optional "title")
func (h *MediaHandler) upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("unable to read uploaded file"))
	}
	defer file.Close()

	var title *string
	if v := strings.TrimSpace(c.FormValue("title")); v != "" {
		title = &v
	}

	stored, err := h.media.Upload(c.Request().Context(), service.MediaUpload{
		Title:       title,
		Reader:      file,
		Size:        fileHeader.Size,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toMediaResponse(stored))
}

// get handles GET /api/v1/media/{id}
func (h *MediaHandler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid media id"))
	}
	stored, err := h.media.Get(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toMediaResponse(stored))
}

func toMediaResponse(stored *service.StoredMedia) MediaResponse {
	return MediaResponse{
		ID:        stored.Media.ID,
		Title:     stored.Media.Title,
		FilePath:  stored.Media.FilePath,
		MediaType: stored.Media.MediaType,
		URL:       stored.URL,
		CreatedAt: stored.Media.CreatedAt,
	}
}
