// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/shelflife/internal/config"
	"github.com/carterperez-dev/shelflife/internal/core"
	"github.com/carterperez-dev/shelflife/internal/notify"
)

type fakeUsers struct {
	byEmail   map[string]*UserInfo
	createErr error
	passwords map[string]string
	bumped    []string
}

func newFakeUsers(users ...*UserInfo) *fakeUsers {
	f := &fakeUsers{byEmail: map[string]*UserInfo{}, passwords: map[string]string{}}
	for _, u := range users {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	if u, ok := f.byEmail[strings.ToLower(email)]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, email, hash, fullName, franchiseID string) (*UserInfo, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u := &UserInfo{
		ID:           "new-user",
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         "store_user",
		Status:       "pending",
		FranchiseID:  franchiseID,
	}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUsers) IncrementTokenVersion(_ context.Context, userID string) error {
	f.bumped = append(f.bumped, userID)
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	f.passwords[userID] = hash
	return nil
}

type fakeMailer struct {
	sent []notify.Message
}

func (f *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type fixture struct {
	svc    *Service
	mock   sqlmock.Sqlmock
	users  *fakeUsers
	mailer *fakeMailer
	redis  *miniredis.Miniredis
	jwt    *JWTManager
}

func newTestJWT(t *testing.T) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	m, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     priv,
		PublicKeyPath:      pub,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "shelflife",
		Audience:           "shelflife-api",
	})
	require.NoError(t, err)
	return m
}

func newFixture(t *testing.T, users *fakeUsers) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{mock: mock, users: users, mailer: &fakeMailer{}, redis: mr, jwt: newTestJWT(t)}
	f.svc = NewService(ServiceConfig{
		Repo:   NewRepository(sqlx.NewDb(db, "sqlmock")),
		JWT:    f.jwt,
		Users:  users,
		Redis:  rdb,
		Mailer: f.mailer,
		Templates: notify.NewTemplates(config.MailConfig{
			ResetURL: "https://app.example.com/reset",
		}),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return f
}

func (f *fixture) expectTokenInsert() {
	f.mock.ExpectQuery("INSERT INTO refresh_tokens").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
}

func resetToken(t *testing.T, msg notify.Message) string {
	t.Helper()

	for _, line := range strings.Split(msg.Text, "\n") {
		if strings.HasPrefix(line, "https://") {
			u, err := url.Parse(line)
			require.NoError(t, err)
			return u.Query().Get("token")
		}
	}
	t.Fatal("no reset link in message")
	return ""
}

func TestSignupIssuesTokensForPendingProfile(t *testing.T) {
	f := newFixture(t, newFakeUsers())
	f.expectTokenInsert()

	resp, err := f.svc.Signup(context.Background(), SignupRequest{
		Email:       "nova@loja.com",
		Password:    "segredo1",
		FullName:    "Nova",
		FranchiseID: "f-a",
	}, "test", "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.User.Status)
	assert.Equal(t, "f-a", resp.User.FranchiseID)
	assert.Equal(t, msgSignupPending, resp.Message)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.Equal(t, 900, resp.Tokens.ExpiresIn)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSignupErrors(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		want      error
	}{
		{"duplicate email", core.ErrDuplicateKey, ErrEmailExists},
		{"unknown franchise", core.ErrInvalidInput, ErrUnknownFranchise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newFakeUsers()
			users.createErr = tt.createErr
			f := newFixture(t, users)

			_, err := f.svc.Signup(context.Background(), SignupRequest{
				Email:       "x@loja.com",
				Password:    "segredo1",
				FullName:    "X",
				FranchiseID: "f-a",
			}, "", "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	hash, err := core.HashPassword("correta123")
	require.NoError(t, err)

	f := newFixture(t, newFakeUsers(&UserInfo{ID: "u1", Email: "ana@loja.com", PasswordHash: hash}))

	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "ana@loja.com", Password: "errada123"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "ninguem@loja.com", Password: "x"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	f.expectTokenInsert()
	resp, err := f.svc.Login(context.Background(), LoginRequest{Email: "ana@loja.com", Password: "correta123"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)
}

func TestPasswordResetTokenIsSingleUse(t *testing.T) {
	users := newFakeUsers(&UserInfo{ID: "u1", Email: "ana@loja.com"})
	f := newFixture(t, users)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "ana@loja.com"))
	require.Len(t, f.mailer.sent, 1)
	token := resetToken(t, f.mailer.sent[0])
	require.NotEmpty(t, token)

	keys := f.redis.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], resetPrefix))
	assert.NotContains(t, keys[0], token)
	assert.InDelta(t, time.Hour.Seconds(), f.redis.TTL(keys[0]).Seconds(), 1)

	f.mock.ExpectExec("UPDATE refresh_tokens").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, f.svc.UpdatePasswordWithToken(ctx, token, "nova-senha"))
	assert.NotEmpty(t, users.passwords["u1"])
	assert.Equal(t, []string{"u1"}, users.bumped)

	err := f.svc.UpdatePasswordWithToken(ctx, token, "outra-senha")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t, newFakeUsers())

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "ninguem@loja.com"))
	assert.Empty(t, f.mailer.sent)
	assert.Empty(t, f.redis.Keys())
}

func TestResetTokenExpires(t *testing.T) {
	f := newFixture(t, newFakeUsers(&UserInfo{ID: "u1", Email: "ana@loja.com"}))
	ctx := context.Background()

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "ana@loja.com"))
	token := resetToken(t, f.mailer.sent[0])

	f.redis.FastForward(time.Hour + time.Second)

	err := f.svc.UpdatePasswordWithToken(ctx, token, "nova-senha")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestAccessTokenBlacklist(t *testing.T) {
	f := newFixture(t, newFakeUsers())
	ctx := context.Background()

	require.NoError(t, f.svc.RevokeAccessToken(ctx, "jti-1", time.Now().Add(time.Minute)))
	require.NoError(t, f.svc.RevokeAccessToken(ctx, "jti-old", time.Now().Add(-time.Minute)))

	revoked, err := f.svc.IsAccessTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = f.svc.IsAccessTokenBlacklisted(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRefreshReuseRevokesFamily(t *testing.T) {
	f := newFixture(t, newFakeUsers())

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "token_hash", "family_id", "expires_at", "created_at",
		"is_used", "used_at", "revoked_at", "replaced_by_id", "user_agent", "ip_address",
	}).AddRow("t1", "u1", core.HashToken("old"), "fam-1", time.Now().Add(time.Hour), time.Now(),
		true, time.Now(), nil, "t2", "", "")

	f.mock.ExpectQuery("FROM refresh_tokens WHERE token_hash").
		WithArgs(core.HashToken("old")).
		WillReturnRows(rows)
	f.mock.ExpectExec("WHERE family_id").
		WithArgs("fam-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	_, err := f.svc.Refresh(context.Background(), "old", "", "")
	assert.ErrorIs(t, err, ErrTokenReuse)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWT(t)

	token, err := m.CreateAccessToken(AccessTokenClaims{
		UserID:       "u1",
		Role:         "manager",
		Status:       "approved",
		FranchiseID:  "f1",
		TokenVersion: 3,
	})
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "approved", claims.Status)
	assert.Equal(t, "f1", claims.FranchiseID)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.NotEmpty(t, claims.JTI)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, 5*time.Second)

	_, err = m.VerifyAccessToken(context.Background(), token+"x")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestKeyIDIsStableForSameKey(t *testing.T) {
	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath:    filepath.Join(dir, "private.pem"),
		PublicKeyPath:     filepath.Join(dir, "public.pem"),
		AccessTokenExpire: time.Minute,
		Issuer:            "shelflife",
		Audience:          "shelflife-api",
	}
	require.NoError(t, GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath))

	first, err := NewJWTManager(cfg)
	require.NoError(t, err)
	second, err := NewJWTManager(cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, first.GetKeyID())
	assert.Equal(t, first.GetKeyID(), second.GetKeyID())

	token, err := first.CreateAccessToken(AccessTokenClaims{UserID: "u1", Role: "store_user"})
	require.NoError(t, err)
	_, err = second.VerifyAccessToken(context.Background(), token)
	assert.NoError(t, err)
}
