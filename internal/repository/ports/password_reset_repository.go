package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, userID uuid.UUID, codeHash, codeSalt []byte, expiresAt time.Time) (*domain.PasswordReset, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.PasswordReset, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	MarkConsumed(ctx context.Context, id uuid.UUID) error
	ConsumeByUser(ctx context.Context, userID uuid.UUID) error
}
