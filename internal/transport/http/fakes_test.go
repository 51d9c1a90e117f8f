package http

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/service"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

func newPrincipal(staff bool) *service.Principal {
	user := &domain.User{
		ID:        uuid.New(),
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		IsActive:  true,
		IsStaff:   staff,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	session := &domain.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		CreatedAt: user.CreatedAt,
	}
	return &service.Principal{User: user, Session: session}
}

// fakeAuth resolves access tokens from a map. Tokens missing from the map
// fail with authErr, or util.ErrTokenMalformed when that is nil.
type fakeAuth struct {
	principals map[string]*service.Principal
	authErr    error

	refreshes  map[string]*service.Reissued
	refreshErr error

	refreshCalls []string
	loggedOut    []uuid.UUID
	revoked      []uuid.UUID

	loginResult *service.LoginResult
	loginErr    error
	lastClient  domain.ClientInfo

	sessions   *service.SessionList
	revokeErr  error
	bulkResult int64
}

func (f *fakeAuth) Authenticate(ctx context.Context, accessToken string) (*service.Principal, error) {
	if p, ok := f.principals[accessToken]; ok {
		return p, nil
	}
	if f.authErr != nil {
		return nil, f.authErr
	}
	return nil, util.ErrTokenMalformed
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*service.Reissued, error) {
	f.refreshCalls = append(f.refreshCalls, refreshToken)
	if r, ok := f.refreshes[refreshToken]; ok {
		return r, nil
	}
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return nil, service.ErrRefreshUnavailable
}

func (f *fakeAuth) Login(ctx context.Context, email, password string, client domain.ClientInfo) (*service.LoginResult, error) {
	f.lastClient = client
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) LoginWithGoogle(ctx context.Context, idToken string, client domain.ClientInfo) (*service.LoginResult, error) {
	f.lastClient = client
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) Logout(ctx context.Context, sessionID uuid.UUID) error {
	f.loggedOut = append(f.loggedOut, sessionID)
	return nil
}

func (f *fakeAuth) ListSessions(ctx context.Context, userID uuid.UUID, page, limit int) (*service.SessionList, error) {
	return f.sessions, nil
}

func (f *fakeAuth) RevokeSession(ctx context.Context, ownerID, sessionID uuid.UUID) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, sessionID)
	return nil
}

func (f *fakeAuth) RevokeSessions(ctx context.Context, ids []uuid.UUID) (int64, error) {
	f.revoked = append(f.revoked, ids...)
	return f.bulkResult, nil
}

type fakePasswords struct {
	requested []string
	pair      util.TokenPair
	err       error
	kept      *domain.Session
}

func (f *fakePasswords) RequestReset(ctx context.Context, email string) error {
	f.requested = append(f.requested, email)
	return nil
}

func (f *fakePasswords) VerifyReset(ctx context.Context, email, code string) (util.TokenPair, error) {
	return f.pair, f.err
}

func (f *fakePasswords) ConfirmReset(ctx context.Context, token, newPassword string) error {
	return f.err
}

func (f *fakePasswords) IssueChangeToken(ctx context.Context, user *domain.User, currentPassword string) (util.TokenPair, error) {
	return f.pair, f.err
}

func (f *fakePasswords) ConfirmChange(ctx context.Context, token, newPassword string, keep *domain.Session) error {
	f.kept = keep
	return f.err
}

type fakeUsers struct {
	user       *domain.User
	err        error
	list       *service.UserList
	registered service.RegisterInput
	activeSet  *bool
}

func (f *fakeUsers) Register(ctx context.Context, input service.RegisterInput) (*domain.User, error) {
	f.registered = input
	return f.user, f.err
}

func (f *fakeUsers) List(ctx context.Context, page, limit int) (*service.UserList, error) {
	return f.list, f.err
}

func (f *fakeUsers) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return f.user, f.err
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, id uuid.UUID, input service.ProfileInput) (*domain.User, error) {
	return f.user, f.err
}

func (f *fakeUsers) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.User, error) {
	f.activeSet = &active
	return f.user, f.err
}

func (f *fakeUsers) SetImage(ctx context.Context, id uuid.UUID, mediaID *uuid.UUID) (*domain.User, error) {
	return f.user, f.err
}

type fakeMedia struct {
	last   service.MediaUpload
	body   []byte
	stored *service.StoredMedia
	err    error
}

func (f *fakeMedia) Upload(ctx context.Context, upload service.MediaUpload) (*service.StoredMedia, error) {
	f.last = upload
	body, err := io.ReadAll(upload.Reader)
	if err != nil {
		return nil, err
	}
	f.body = body
	return f.stored, f.err
}

func (f *fakeMedia) Get(ctx context.Context, id uuid.UUID) (*service.StoredMedia, error) {
	return f.stored, f.err
}
