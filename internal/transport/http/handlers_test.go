package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/service"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

type testAPI struct {
	e         *echo.Echo
	auth      *fakeAuth
	passwords *fakePasswords
	users     *fakeUsers
	media     *fakeMedia
	member    *service.Principal
	staff     *service.Principal
}

func newTestAPI() *testAPI {
	api := &testAPI{
		passwords: &fakePasswords{},
		users:     &fakeUsers{},
		media:     &fakeMedia{},
		member:    newPrincipal(false),
		staff:     newPrincipal(true),
	}
	api.auth = &fakeAuth{principals: map[string]*service.Principal{
		"member": api.member,
		"staff":  api.staff,
	}}
	api.e = NewRouter(RouterConfig{SessionAuth: SessionAuth(api.auth, SessionAuthConfig{})})
	RegisterAuth(api.e, api.auth, api.passwords)
	RegisterSessions(api.e, api.auth)
	RegisterUsers(api.e, api.users)
	RegisterMedia(api.e, api.media)
	return api
}

func (api *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
	req.Header.Set("User-Agent", "test-agent/1.0")
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
}

func TestLoginReturnsTokensAndClientInfo(t *testing.T) {
	api := newTestAPI()
	expires := time.Date(2024, 5, 1, 12, 5, 0, 0, time.UTC)
	api.auth.loginResult = &service.LoginResult{
		User:    api.member.User,
		Session: api.member.Session,
		Tokens:  util.TokenPair{Access: "a", Refresh: "r", AccessExpiresAt: expires, RefreshExpiresAt: expires.Add(72 * time.Hour)},
	}

	rec := api.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "ada@example.com", Password: "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	decodeBody(t, rec, &resp)
	if resp.Access != "a" || resp.Refresh != "r" {
		t.Fatalf("unexpected tokens %+v", resp.TokenPairResponse)
	}
	if resp.SessionID != api.member.Session.ID || resp.User.Email != "ada@example.com" {
		t.Fatalf("unexpected login payload %+v", resp)
	}
	if api.auth.lastClient.IPAddress != "203.0.113.7" || api.auth.lastClient.UserAgent != "test-agent/1.0" {
		t.Fatalf("unexpected client info %+v", api.auth.lastClient)
	}
}

func TestLoginErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		body       LoginRequest
		wantStatus int
	}{
		{"missing fields", nil, LoginRequest{}, http.StatusBadRequest},
		{"bad credentials", service.ErrInvalidCredentials, LoginRequest{Email: "a@b.c", Password: "x"}, http.StatusUnauthorized},
		{"inactive", service.ErrUserInactive, LoginRequest{Email: "a@b.c", Password: "x"}, http.StatusForbidden},
		{"throttled", &service.ThrottledError{RetryAfter: 90 * time.Second}, LoginRequest{Email: "a@b.c", Password: "x"}, http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI()
			api.auth.loginErr = tc.err
			rec := api.do(http.MethodPost, "/api/v1/auth/login", "", tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
			if tc.wantStatus == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "90" {
				t.Fatalf("expected Retry-After 90, got %q", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestLogoutEndsCurrentSession(t *testing.T) {
	api := newTestAPI()

	if rec := api.do(http.MethodPost, "/api/v1/auth/logout", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous logout: expected 401, got %d", rec.Code)
	}
	rec := api.do(http.MethodPost, "/api/v1/auth/logout", "member", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(api.auth.loggedOut) != 1 || api.auth.loggedOut[0] != api.member.Session.ID {
		t.Fatalf("expected current session to be ended, got %v", api.auth.loggedOut)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	api := newTestAPI()
	api.auth.refreshes = map[string]*service.Reissued{
		"good": {Principal: api.member, AccessToken: "new-access"},
	}

	rec := api.do(http.MethodPost, "/api/v1/auth/token/refresh", "", RefreshRequest{Refresh: "good"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp AccessTokenResponse
	decodeBody(t, rec, &resp)
	if resp.Access != "new-access" {
		t.Fatalf("unexpected access token %q", resp.Access)
	}

	api.auth.refreshErr = wrapAuthFailure(service.ErrSessionNotFound)
	rec = api.do(http.MethodPost, "/api/v1/auth/token/refresh", "", RefreshRequest{Refresh: "gone"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for rejected refresh, got %d", rec.Code)
	}
}

func TestPasswordResetRequestDoesNotLeakAccounts(t *testing.T) {
	api := newTestAPI()
	rec := api.do(http.MethodPost, "/api/v1/auth/password/reset", "", PasswordResetRequest{Email: "nobody@example.com"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(api.passwords.requested) != 1 {
		t.Fatalf("expected reset to be requested")
	}
}

func TestPasswordConfirmErrors(t *testing.T) {
	api := newTestAPI()

	rec := api.do(http.MethodPost, "/api/v1/auth/password/reset/confirm", "", PasswordConfirmRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", rec.Code)
	}

	api.passwords.err = wrapPasswordTokenError(util.ErrTokenExpired)
	rec = api.do(http.MethodPost, "/api/v1/auth/password/reset/confirm", "", PasswordConfirmRequest{Token: "t", NewPassword: "N3wStrongPass!"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for spent token, got %d", rec.Code)
	}
}

func TestPasswordChangeConfirmKeepsCallerSession(t *testing.T) {
	api := newTestAPI()
	rec := api.do(http.MethodPost, "/api/v1/auth/password/change/confirm", "member", PasswordConfirmRequest{Token: "t", NewPassword: "N3wStrongPass!"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if api.passwords.kept == nil || api.passwords.kept.ID != api.member.Session.ID {
		t.Fatalf("expected caller session to be kept")
	}

	api.passwords.kept = nil
	rec = api.do(http.MethodPost, "/api/v1/auth/password/change/confirm", "", PasswordConfirmRequest{Token: "t", NewPassword: "N3wStrongPass!"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if api.passwords.kept != nil {
		t.Fatalf("anonymous confirm must not keep a session")
	}
}

func TestListSessionsMarksCurrent(t *testing.T) {
	api := newTestAPI()
	now := time.Now()
	other := domain.Session{ID: uuid.New(), UserID: api.member.User.ID, ExpireAt: &now}
	api.auth.sessions = &service.SessionList{
		Sessions: []domain.Session{*api.member.Session, other},
		Total:    12,
		Page:     util.Page{Number: 1, Size: 10},
	}

	rec := api.do(http.MethodGet, "/api/v1/sessions?page=1", "member", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp PageResponse[SessionResponse]
	decodeBody(t, rec, &resp)
	if resp.Count != 12 || resp.TotalPages != 2 || len(resp.Results) != 2 {
		t.Fatalf("unexpected page %+v", resp)
	}
	if !resp.Results[0].Current || !resp.Results[0].Active {
		t.Fatalf("expected first session to be current and active")
	}
	if resp.Results[1].Current || resp.Results[1].Active {
		t.Fatalf("expected second session to be inactive")
	}
}

func TestRevokeSession(t *testing.T) {
	api := newTestAPI()
	if rec := api.do(http.MethodDelete, "/api/v1/sessions/not-a-uuid", "member", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	target := uuid.New()
	if rec := api.do(http.MethodDelete, "/api/v1/sessions/"+target.String(), "member", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(api.auth.revoked) != 1 || api.auth.revoked[0] != target {
		t.Fatalf("expected session %s revoked, got %v", target, api.auth.revoked)
	}

	api.auth.revokeErr = service.ErrSessionNotFound
	if rec := api.do(http.MethodDelete, "/api/v1/sessions/"+uuid.NewString(), "member", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestBulkRevokeRequiresStaff(t *testing.T) {
	api := newTestAPI()
	api.auth.bulkResult = 2
	body := RevokeSessionsRequest{IDs: []uuid.UUID{uuid.New(), uuid.New()}}

	if rec := api.do(http.MethodPost, "/api/v1/admin/sessions/revoke", "member", body); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	rec := api.do(http.MethodPost, "/api/v1/admin/sessions/revoke", "staff", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp RevokeSessionsResponse
	decodeBody(t, rec, &resp)
	if resp.Revoked != 2 {
		t.Fatalf("expected 2 revoked, got %d", resp.Revoked)
	}
}

func TestRegister(t *testing.T) {
	api := newTestAPI()
	api.users.user = &domain.User{ID: uuid.New(), Email: "new@example.com", IsActive: true}

	rec := api.do(http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Email: "new@example.com", Password: "StrongPass!23", FirstName: "New", LastName: "User"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if api.users.registered.FirstName != "New" {
		t.Fatalf("unexpected input %+v", api.users.registered)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response must not include password material: %s", rec.Body.String())
	}

	api.users.err = service.ErrEmailExists
	if rec := api.do(http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Email: "new@example.com"}); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestUserEndpointsAccess(t *testing.T) {
	api := newTestAPI()
	api.users.list = &service.UserList{Users: []domain.User{*api.member.User}, Total: 1, Page: util.Page{Number: 1, Size: 10}}

	if rec := api.do(http.MethodGet, "/api/v1/users/me", "member", nil); rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	if rec := api.do(http.MethodGet, "/api/v1/users", "member", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("list as member: expected 403, got %d", rec.Code)
	}
	rec := api.do(http.MethodGet, "/api/v1/users", "staff", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list as staff: expected 200, got %d", rec.Code)
	}
	var page PageResponse[UserResponse]
	decodeBody(t, rec, &page)
	if page.Count != 1 || len(page.Results) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestSetActive(t *testing.T) {
	api := newTestAPI()
	api.users.user = api.member.User

	rec := api.do(http.MethodPatch, "/api/v1/users/"+api.staff.User.ID.String()+"/active", "staff", UserActiveRequest{IsActive: false})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self deactivation: expected 400, got %d", rec.Code)
	}

	rec = api.do(http.MethodPatch, "/api/v1/users/"+api.member.User.ID.String()+"/active", "staff", UserActiveRequest{IsActive: false})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if api.users.activeSet == nil || *api.users.activeSet {
		t.Fatalf("expected account to be deactivated")
	}
}

func TestMediaUpload(t *testing.T) {
	api := newTestAPI()
	api.media.stored = &service.StoredMedia{
		Media: &domain.Media{ID: uuid.New(), FilePath: "2024-05-01/report/report.pdf", MediaType: domain.MediaTypeDocument},
		URL:   "http://cdn.local/media/2024-05-01/report/report.pdf",
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("title", "Quarterly report")
	part, err := writer.CreateFormFile("file", "report.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("%PDF-1.4 test"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer member")
	rec := httptest.NewRecorder()
	api.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if api.media.last.FileName != "report.pdf" || api.media.last.Title == nil || *api.media.last.Title != "Quarterly report" {
		t.Fatalf("unexpected upload %+v", api.media.last)
	}
	if string(api.media.body) != "%PDF-1.4 test" {
		t.Fatalf("unexpected body %q", api.media.body)
	}
	var resp MediaResponse
	decodeBody(t, rec, &resp)
	if resp.URL != api.media.stored.URL {
		t.Fatalf("unexpected url %q", resp.URL)
	}
}

func TestMediaUploadRequiresFile(t *testing.T) {
	api := newTestAPI()
	rec := api.do(http.MethodPost, "/api/v1/media", "member", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
