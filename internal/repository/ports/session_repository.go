package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
)

// SessionRepository persists UserSession rows. Get and SoftDelete return
// sql.ErrNoRows when no matching row exists.
type SessionRepository interface {
	Create(ctx context.Context, userID uuid.UUID, ipAddress *string, agent []byte) (*domain.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	SoftDeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
	SoftDeleteByUser(ctx context.Context, userID uuid.UUID, except *uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Session, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}
