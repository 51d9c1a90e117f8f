package http

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error" example:"Session is expired"`
}

// SuccessResponse denotes a simple success flag.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// UserResponse is the public representation of an account.
type UserResponse struct {
	ID          uuid.UUID  `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email       string     `json:"email" example:"user@example.com"`
	FirstName   string     `json:"first_name" example:"Ada"`
	LastName    string     `json:"last_name" example:"Lovelace"`
	CountryCode *string    `json:"country_code,omitempty" example:"+66"`
	ImageID     *uuid.UUID `json:"image_id,omitempty"`
	IsActive    bool       `json:"is_active" example:"true"`
	IsStaff     bool       `json:"is_staff" example:"false"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt   time.Time  `json:"updated_at" example:"2024-01-02T09:30:00Z"`
}

// SessionResponse describes one login session.
type SessionResponse struct {
	ID        uuid.UUID       `json:"id" example:"1b4e28ba-2fa1-11d2-883f-0016d3cca427"`
	IPAddress *string         `json:"ip_address,omitempty" example:"203.0.113.7"`
	Agent     json.RawMessage `json:"agent,omitempty" swaggertype:"object"`
	Active    bool            `json:"active" example:"true"`
	Current   bool            `json:"current" example:"false"`
	ExpireAt  *time.Time      `json:"expire_at,omitempty"`
	CreatedAt time.Time       `json:"created_at" example:"2024-01-01T12:00:00Z"`
}

// TokenPairResponse is returned by endpoints that issue an access/refresh pair.
type TokenPairResponse struct {
	Access           string    `json:"access" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	AccessExpiresAt  time.Time `json:"access_expires_at" example:"2024-01-02T09:35:00Z"`
	Refresh          string    `json:"refresh" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshExpiresAt time.Time `json:"refresh_expires_at" example:"2024-01-05T09:30:00Z"`
}

// LoginResponse is returned by the login endpoints.
type LoginResponse struct {
	TokenPairResponse
	SessionID uuid.UUID    `json:"session_id"`
	User      UserResponse `json:"user"`
}

// AccessTokenResponse is returned by the explicit refresh endpoint.
type AccessTokenResponse struct {
	Access          string    `json:"access" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	AccessExpiresAt time.Time `json:"access_expires_at" example:"2024-01-02T09:35:00Z"`
}

// PageResponse wraps one page of a listing.
type PageResponse[T any] struct {
	Count      int `json:"count" example:"42"`
	Page       int `json:"page" example:"1"`
	PageSize   int `json:"page_size" example:"10"`
	TotalPages int `json:"total_pages" example:"5"`
	Results    []T `json:"results"`
}

// MediaResponse describes an uploaded file.
type MediaResponse struct {
	ID        uuid.UUID        `json:"id"`
	Title     *string          `json:"title,omitempty" example:"Profile picture"`
	FilePath  string           `json:"file_path" example:"2024-05-01/avatar/avatar.png"`
	MediaType domain.MediaType `json:"media_type" example:"image"`
	URL       string           `json:"url" example:"https://cdn.example.com/media/2024-05-01/avatar/avatar.png"`
	CreatedAt time.Time        `json:"created_at"`
}

// RegisterRequest carries email registration fields.
type RegisterRequest struct {
	Email       string  `json:"email" example:"user@example.com"`
	Password    string  `json:"password" example:"StrongPass!23"`
	FirstName   string  `json:"first_name" example:"Ada"`
	LastName    string  `json:"last_name" example:"Lovelace"`
	CountryCode *string `json:"country_code,omitempty" example:"+66"`
}

// LoginRequest carries email login fields.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"StrongPass!23"`
}

// GoogleLoginRequest carries the Google ID token for login.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// RefreshRequest carries a refresh token for the explicit exchange.
type RefreshRequest struct {
	Refresh string `json:"refresh" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// PasswordResetRequest starts the reset flow.
type PasswordResetRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

// PasswordResetVerifyRequest exchanges the mailed code for a reset token.
type PasswordResetVerifyRequest struct {
	Email string `json:"email" example:"user@example.com"`
	Code  string `json:"code" example:"482913"`
}

// PasswordConfirmRequest completes a reset or change.
type PasswordConfirmRequest struct {
	Token       string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	NewPassword string `json:"new_password" example:"N3wStrongPass!"`
}

// PasswordChangeRequest re-authenticates before a password change.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" example:"StrongPass!23"`
}

// ProfileUpdateRequest carries optional profile fields.
type ProfileUpdateRequest struct {
	FirstName   *string `json:"first_name,omitempty" example:"Ada"`
	LastName    *string `json:"last_name,omitempty" example:"Lovelace"`
	CountryCode *string `json:"country_code,omitempty" example:"+44"`
}

// UserImageRequest selects an uploaded image as avatar. A null media_id clears it.
type UserImageRequest struct {
	MediaID *uuid.UUID `json:"media_id"`
}

// UserActiveRequest toggles an account.
type UserActiveRequest struct {
	IsActive bool `json:"is_active" example:"false"`
}

// RevokeSessionsRequest lists sessions to terminate.
type RevokeSessionsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// RevokeSessionsResponse reports how many sessions were still active.
type RevokeSessionsResponse struct {
	Revoked int64 `json:"revoked" example:"2"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		CountryCode: u.CountryCode,
		ImageID:     u.ImageID,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toSessionResponse(s domain.Session, current uuid.UUID) SessionResponse {
	resp := SessionResponse{
		ID:        s.ID,
		IPAddress: s.IPAddress,
		Active:    s.Active(),
		Current:   s.ID == current,
		ExpireAt:  s.ExpireAt,
		CreatedAt: s.CreatedAt,
	}
	if s.Agent.Valid && len(s.Agent.JSONText) > 0 {
		resp.Agent = json.RawMessage(s.Agent.JSONText)
	}
	return resp
}

func toTokenPairResponse(p util.TokenPair) TokenPairResponse {
	return TokenPairResponse{
		Access:           p.Access,
		AccessExpiresAt:  p.AccessExpiresAt,
		Refresh:          p.Refresh,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

func newPageResponse[T any](results []T, total int, page util.Page) PageResponse[T] {
	if results == nil {
		results = []T{}
	}
	return PageResponse[T]{
		Count:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
		Results:    results,
	}
}
