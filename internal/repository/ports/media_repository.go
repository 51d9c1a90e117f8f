package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
)

type MediaRepository interface {
	Create(ctx context.Context, title *string, filePath string, mediaType domain.MediaType) (*domain.Media, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
