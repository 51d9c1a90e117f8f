package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx/types"

	"github.com/njprem/Session_Auth_BackEnd/internal/domain"
	"github.com/njprem/Session_Auth_BackEnd/internal/repository/ports"
	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestTokens(t *testing.T, clock *testClock) *util.JWTManager {
	t.Helper()
	cfg, err := util.NewTokenConfig(util.TokenSettings{
		Algorithm:  "HS256",
		SigningKey: "test-secret",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: 72 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenConfig returned error: %v", err)
	}
	return util.NewJWTManager(cfg, util.WithClock(clock.Now))
}

func newPasswordUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		t.Fatalf("DerivePassword returned error: %v", err)
	}
	return &domain.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		PasswordHash: hash,
		PasswordSalt: salt,
		IsActive:     true,
	}
}

type fakeUserRepo struct {
	clock *testClock
	users map[uuid.UUID]*domain.User

	createInputs []ports.NewUser
	createErr    error

	upsertGoogleInputs []string
	findErr            error
	setImageErr        error

	touched         []uuid.UUID
	passwordUpdates []uuid.UUID
}

func newFakeUserRepo(clock *testClock, users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{clock: clock, users: map[uuid.UUID]*domain.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, user ports.NewUser) (*domain.User, error) {
	f.createInputs = append(f.createInputs, user)
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	created := &domain.User{
		ID:           uuid.New(),
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		CountryCode:  user.CountryCode,
		PasswordHash: user.PasswordHash,
		PasswordSalt: user.PasswordSalt,
		IsActive:     true,
		IsStaff:      user.IsStaff,
		IsSuperuser:  user.IsSuperuser,
	}
	f.users[created.ID] = created
	return created, nil
}

func (f *fakeUserRepo) UpsertGoogleUser(ctx context.Context, email, firstName, lastName string) (*domain.User, error) {
	f.upsertGoogleInputs = append(f.upsertGoogleInputs, email)
	for _, existing := range f.users {
		if existing.Email == email {
			return existing, nil
		}
	}
	created := &domain.User{ID: uuid.New(), Email: email, FirstName: firstName, LastName: lastName, IsActive: true}
	f.users[created.ID] = created
	return created, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	if offset >= len(out) {
		return []domain.User{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int, error) {
	return len(f.users), nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, update ports.UserProfileUpdate) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.CountryCode != nil {
		if *update.CountryCode == "" {
			u.CountryCode = nil
		} else {
			code := *update.CountryCode
			u.CountryCode = &code
		}
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	f.passwordUpdates = append(f.passwordUpdates, id)
	u.PasswordHash = append([]byte(nil), passwordHash...)
	u.PasswordSalt = append([]byte(nil), passwordSalt...)
	changed := f.clock.Now()
	u.PasswordChangedAt = &changed
	return nil
}

func (f *fakeUserRepo) SetImage(ctx context.Context, id uuid.UUID, mediaID *uuid.UUID) (*domain.User, error) {
	if f.setImageErr != nil {
		return nil, f.setImageErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.ImageID = mediaID
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.IsActive = active
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeSessionRepo struct {
	clock    *testClock
	sessions map[uuid.UUID]*domain.Session

	createErr error
	getErr    error

	createdAgents [][]byte
	byUserCalls   []*uuid.UUID
}

func newFakeSessionRepo(clock *testClock) *fakeSessionRepo {
	return &fakeSessionRepo{clock: clock, sessions: map[uuid.UUID]*domain.Session{}}
}

func (f *fakeSessionRepo) add(userID uuid.UUID) *domain.Session {
	s := &domain.Session{ID: uuid.New(), UserID: userID, CreatedAt: f.clock.Now()}
	f.sessions[s.ID] = s
	return s
}

func (f *fakeSessionRepo) Create(ctx context.Context, userID uuid.UUID, ipAddress *string, agent []byte) (*domain.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdAgents = append(f.createdAgents, agent)
	s := &domain.Session{ID: uuid.New(), UserID: userID, IPAddress: ipAddress, CreatedAt: f.clock.Now()}
	if agent != nil {
		s.Agent = types.NullJSONText{JSONText: types.JSONText(agent), Valid: true}
	}
	f.sessions[s.ID] = s
	clone := *s
	return &clone, nil
}

func (f *fakeSessionRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSessionRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	s, ok := f.sessions[id]
	if !ok || !s.Active() {
		return sql.ErrNoRows
	}
	now := f.clock.Now()
	s.ExpireAt = &now
	return nil
}

func (f *fakeSessionRepo) SoftDeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		if err := f.SoftDelete(ctx, id); err == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionRepo) SoftDeleteByUser(ctx context.Context, userID uuid.UUID, except *uuid.UUID) (int64, error) {
	f.byUserCalls = append(f.byUserCalls, except)
	var n int64
	for id, s := range f.sessions {
		if s.UserID != userID || (except != nil && id == *except) {
			continue
		}
		if err := f.SoftDelete(ctx, id); err == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Session, error) {
	out := []domain.Session{}
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	if offset >= len(out) {
		return []domain.Session{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (f *fakeSessionRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, s := range f.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeThrottle struct {
	max      int
	lockout  time.Duration
	failures map[string]int
	locked   map[string]bool
	resets   []string
	checkErr error
}

func newFakeThrottle(max int, lockout time.Duration) *fakeThrottle {
	return &fakeThrottle{max: max, lockout: lockout, failures: map[string]int{}, locked: map[string]bool{}}
}

func (f *fakeThrottle) Check(ctx context.Context, key string) (time.Duration, error) {
	if f.checkErr != nil {
		return 0, f.checkErr
	}
	if f.locked[key] {
		return f.lockout, nil
	}
	return 0, nil
}

func (f *fakeThrottle) RegisterFailure(ctx context.Context, key string) (time.Duration, error) {
	f.failures[key]++
	if f.failures[key] >= f.max {
		f.locked[key] = true
		f.failures[key] = 0
		return f.lockout, nil
	}
	return 0, nil
}

func (f *fakeThrottle) Reset(ctx context.Context, key string) error {
	f.resets = append(f.resets, key)
	delete(f.failures, key)
	return nil
}

type fakePasswordResetRepo struct {
	resets map[uuid.UUID]*domain.PasswordReset

	consumeCalls   []uuid.UUID
	markCalls      []uuid.UUID
	incrementCalls []uuid.UUID
}

func newFakePasswordResetRepo() *fakePasswordResetRepo {
	return &fakePasswordResetRepo{resets: map[uuid.UUID]*domain.PasswordReset{}}
}

func (f *fakePasswordResetRepo) Create(ctx context.Context, userID uuid.UUID, codeHash, codeSalt []byte, expiresAt time.Time) (*domain.PasswordReset, error) {
	r := &domain.PasswordReset{
		ID:        uuid.New(),
		UserID:    userID,
		CodeHash:  append([]byte(nil), codeHash...),
		CodeSalt:  append([]byte(nil), codeSalt...),
		ExpiresAt: expiresAt,
	}
	f.resets[r.ID] = r
	clone := *r
	return &clone, nil
}

func (f *fakePasswordResetRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.PasswordReset, error) {
	for _, r := range f.resets {
		if r.UserID == userID && r.ConsumedAt == nil && r.ExpiresAt.After(now) {
			clone := *r
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakePasswordResetRepo) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	f.incrementCalls = append(f.incrementCalls, id)
	f.resets[id].Attempts++
	return nil
}

func (f *fakePasswordResetRepo) MarkConsumed(ctx context.Context, id uuid.UUID) error {
	f.markCalls = append(f.markCalls, id)
	now := time.Now()
	f.resets[id].ConsumedAt = &now
	return nil
}

func (f *fakePasswordResetRepo) ConsumeByUser(ctx context.Context, userID uuid.UUID) error {
	f.consumeCalls = append(f.consumeCalls, userID)
	now := time.Now()
	for _, r := range f.resets {
		if r.UserID == userID && r.ConsumedAt == nil {
			r.ConsumedAt = &now
		}
	}
	return nil
}

type fakeMailer struct {
	codes   map[string]string
	changed []string
	err     error
}

func (f *fakeMailer) SendPasswordResetCode(ctx context.Context, email, code string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if f.codes == nil {
		f.codes = map[string]string{}
	}
	f.codes[email] = code
	return nil
}

func (f *fakeMailer) SendPasswordChanged(ctx context.Context, email string) error {
	f.changed = append(f.changed, email)
	return f.err
}

type fakeMediaRepo struct {
	items map[uuid.UUID]*domain.Media

	createPaths []string
	conflicts   int
	deleted     []uuid.UUID
}

func newFakeMediaRepo(items ...*domain.Media) *fakeMediaRepo {
	f := &fakeMediaRepo{items: map[uuid.UUID]*domain.Media{}}
	for _, m := range items {
		f.items[m.ID] = m
	}
	return f
}

func (f *fakeMediaRepo) Create(ctx context.Context, title *string, filePath string, mediaType domain.MediaType) (*domain.Media, error) {
	f.createPaths = append(f.createPaths, filePath)
	if f.conflicts > 0 {
		f.conflicts--
		return nil, &pgconn.PgError{Code: "23505"}
	}
	m := &domain.Media{ID: uuid.New(), Title: title, FilePath: filePath, MediaType: mediaType}
	f.items[m.ID] = m
	clone := *m
	return &clone, nil
}

func (f *fakeMediaRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	m, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *m
	return &clone, nil
}

func (f *fakeMediaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	delete(f.items, id)
	return nil
}

type fakeStorage struct {
	uploaded []struct {
		bucket      string
		objectName  string
		contentType string
		body        []byte
	}
	err error
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, struct {
		bucket      string
		objectName  string
		contentType string
		body        []byte
	}{bucket: bucket, objectName: objectName, contentType: contentType, body: buf.Bytes()})
	return f.URL(bucket, objectName), nil
}

func (f *fakeStorage) URL(bucket, objectName string) string {
	return "https://storage/" + bucket + "/" + objectName
}
