package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
)

type NewUser struct {
	Email        string
	FirstName    string
	LastName     string
	CountryCode  *string
	PasswordHash []byte
	PasswordSalt []byte
	IsStaff      bool
	IsSuperuser  bool
}

type UserProfileUpdate struct {
	FirstName   *string
	LastName    *string
	CountryCode *string
}

type UserRepository interface {
	Create(ctx context.Context, user NewUser) (*domain.User, error)
	UpsertGoogleUser(ctx context.Context, email, firstName, lastName string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update UserProfileUpdate) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error
	SetImage(ctx context.Context, id uuid.UUID, mediaID *uuid.UUID) (*domain.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}
