package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/repository/ports"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	CountryCode *string
}

type ProfileInput struct {
	FirstName   *string
	LastName    *string
	CountryCode *string
}

type UserList struct {
	Users []domain.User
	Total int
	Page  util.Page
}

type UserService struct {
	users    ports.UserRepository
	media    ports.MediaRepository
	sessions SessionTerminator
	pageSize int
}

func NewUserService(users ports.UserRepository, mediaRepo ports.MediaRepository, sessions SessionTerminator, pageSize int) *UserService {
	return &UserService{users: users, media: mediaRepo, sessions: sessions, pageSize: pageSize}
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	return s.create(ctx, input, false)
}

// CreateSuperuser creates an active staff account with every permission.
func (s *UserService) CreateSuperuser(ctx context.Context, input RegisterInput) (*domain.User, error) {
	return s.create(ctx, input, true)
}

func (s *UserService) create(ctx context.Context, input RegisterInput, superuser bool) (*domain.User, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrUserValidation)
	}
	countryCode := normalizeString(input.CountryCode)
	if countryCode != nil && !domain.ValidCountryCode(*countryCode) {
		return nil, fmt.Errorf("%w: country code must look like +66", ErrUserValidation)
	}
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if err := util.ValidatePassword(input.Password, email, firstName, lastName); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}
	hash, salt, err := util.DerivePassword(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, ports.NewUser{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		CountryCode:  countryCode,
		PasswordHash: hash,
		PasswordSalt: salt,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, pageNumber, limit int) (*UserList, error) {
	page := util.NormalizePage(pageNumber, limit, s.pageSize)
	users, err := s.users.List(ctx, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &UserList{Users: users, Total: total, Page: page}, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, input ProfileInput) (*domain.User, error) {
	update := ports.UserProfileUpdate{
		FirstName: trimmedPtr(input.FirstName),
		LastName:  trimmedPtr(input.LastName),
	}
	if input.CountryCode != nil {
		code := strings.TrimSpace(*input.CountryCode)
		if code != "" && !domain.ValidCountryCode(code) {
			return nil, fmt.Errorf("%w: country code must look like +66", ErrUserValidation)
		}
		update.CountryCode = &code
	}
	user, err := s.users.UpdateProfile(ctx, id, update)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// SetActive toggles the account. Deactivation ends all of its sessions.
func (s *UserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.User, error) {
	user, err := s.users.SetActive(ctx, id, active)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !active && s.sessions != nil {
		if _, err := s.sessions.TerminateUserSessions(ctx, id, nil, "deactivated"); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// SetImage points the user's avatar at an uploaded image. A nil mediaID
// clears it.
func (s *UserService) SetImage(ctx context.Context, id uuid.UUID, mediaID *uuid.UUID) (*domain.User, error) {
	if mediaID != nil {
		m, err := s.media.FindByID(ctx, *mediaID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrMediaNotFound
			}
			return nil, err
		}
		if m.MediaType != domain.MediaTypeImage {
			return nil, ErrMediaNotAnImage
		}
	}
	user, err := s.users.SetImage(ctx, id, mediaID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrMediaInUse
		}
		return nil, err
	}
	return user, nil
}

// trimmedPtr trims the value but keeps an explicit empty string, which
// clears the field.
func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
