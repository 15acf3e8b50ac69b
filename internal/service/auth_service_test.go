package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/config"
	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/testutil"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testJWTConfig = config.JWTConfig{
	Secret:     "test-secret-that-is-at-least-32-bytes-long",
	Issuer:     "planner-api",
	Audience:   "planner-client",
	AccessTTL:  15 * time.Minute,
	RefreshTTL: 7 * 24 * time.Hour,
}

type authFixture struct {
	store   *testutil.MockStore
	tokens  *testutil.MockRefreshTokenRepository
	issuer  *TokenIssuer
	service *AuthService
}

func newAuthFixture() *authFixture {
	store := testutil.NewMockStore()
	tokens := testutil.NewMockRefreshTokenRepository(store)
	issuer := NewTokenIssuer(testJWTConfig)
	svc := NewAuthService(testutil.NewMockUserRepository(store), tokens, issuer)
	svc.bcryptCost = bcrypt.MinCost
	return &authFixture{store: store, tokens: tokens, issuer: issuer, service: svc}
}

func (f *authFixture) register(t *testing.T, email string) *AuthResult {
	t.Helper()
	result, err := f.service.Register(context.Background(), RegisterInput{
		Name:            "Ana Pérez",
		Email:           email,
		Password:        "s3cretpass",
		ConfirmPassword: "s3cretpass",
	})
	require.NoError(t, err)
	return result
}

func TestTokenIssuer_AccessTokenClaims(t *testing.T) {
	issuer := NewTokenIssuer(testJWTConfig)
	user := &domain.User{ID: 42, Name: "Ana", Email: "ana@example.com"}

	signed, expiresAt, err := issuer.IssueAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims := &AccessClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTConfig.Secret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "planner-api", claims.Issuer)
	assert.Equal(t, "planner-client", claims.Audience)
	assert.NotEmpty(t, claims.Id)
}

func TestTokenIssuer_SubjectOfIgnoresExpiry(t *testing.T) {
	issuer := NewTokenIssuer(testJWTConfig)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	signed, _, err := issuer.IssueAccessToken(&domain.User{ID: 9})
	require.NoError(t, err)

	id, err := issuer.SubjectOf(signed)
	require.NoError(t, err)
	assert.Equal(t, int32(9), id)
}

func TestTokenIssuer_SubjectOfRejectsForeignTokens(t *testing.T) {
	issuer := NewTokenIssuer(testJWTConfig)

	other := testJWTConfig
	other.Secret = "another-secret-that-is-at-least-32-bytes"
	forged, _, err := NewTokenIssuer(other).IssueAccessToken(&domain.User{ID: 9})
	require.NoError(t, err)
	_, err = issuer.SubjectOf(forged)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	wrongAudience := testJWTConfig
	wrongAudience.Audience = "someone-else"
	token, _, err := NewTokenIssuer(wrongAudience).IssueAccessToken(&domain.User{ID: 9})
	require.NoError(t, err)
	_, err = issuer.SubjectOf(token)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	_, err = issuer.SubjectOf("not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestNewRefreshToken(t *testing.T) {
	plain, hash, err := NewRefreshToken()
	require.NoError(t, err)
	assert.Len(t, plain, 43)
	assert.Equal(t, HashRefreshToken(plain), hash)
	assert.Len(t, hash, 64)

	again, _, err := NewRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, plain, again)
}

func TestRegister_CreatesUserAndTokens(t *testing.T) {
	f := newAuthFixture()

	result := f.register(t, "  Ana@Example.com ")
	assert.Equal(t, "ana@example.com", result.User.Email)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	stored := f.store.Users[result.User.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "s3cretpass", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cretpass")))
	assert.Len(t, f.store.RefreshTokens, 1)
}

func TestRegister_Validation(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	valid := RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "s3cretpass", ConfirmPassword: "s3cretpass"}

	tests := []struct {
		name    string
		mutate  func(in *RegisterInput)
		wantErr error
	}{
		{"short name", func(in *RegisterInput) { in.Name = " A " }, domain.ErrNameLength},
		{"long name", func(in *RegisterInput) { in.Name = strings.Repeat("n", 101) }, domain.ErrNameLength},
		{"bad email", func(in *RegisterInput) { in.Email = "ana.example.com" }, domain.ErrInvalidEmail},
		{"short password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "short", "short" }, domain.ErrWeakPassword},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "different1" }, domain.ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := f.service.Register(ctx, in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
	assert.Empty(t, f.store.Users)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	f.register(t, "ana@example.com")

	_, err := f.service.Register(context.Background(), RegisterInput{
		Name: "Other", Email: "ANA@example.com", Password: "s3cretpass", ConfirmPassword: "s3cretpass",
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyRegistered)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	registered := f.register(t, "ana@example.com")

	result, err := f.service.Login(ctx, "ANA@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)
	assert.NotNil(t, f.store.Users[result.User.ID].LastLoginAt)

	_, err = f.service.Login(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, "nobody@example.com", "s3cretpass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestLogin_PrunesInactiveTokens(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	registered := f.register(t, "ana@example.com")
	require.NoError(t, f.service.Revoke(ctx, registered.User.ID, registered.RefreshToken))

	_, err := f.service.Login(ctx, "ana@example.com", "s3cretpass")
	require.NoError(t, err)

	assert.Len(t, f.store.RefreshTokens, 1)
	for _, token := range f.store.RefreshTokens {
		assert.Nil(t, token.RevokedAt)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	first := f.register(t, "ana@example.com")

	second, err := f.service.Refresh(ctx, first.AccessToken, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	old, err := f.tokens.GetByHash(ctx, HashRefreshToken(first.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, old.RevokedAt)
	require.NotNil(t, old.ReplacedByHash)
	assert.Equal(t, HashRefreshToken(second.RefreshToken), *old.ReplacedByHash)

	// A rotated token cannot be used again
	_, err = f.service.Refresh(ctx, second.AccessToken, first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestRefresh_RejectsMismatchedOrExpired(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	ana := f.register(t, "ana@example.com")
	bob := f.register(t, "bob@example.com")

	_, err := f.service.Refresh(ctx, bob.AccessToken, ana.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	_, err = f.service.Refresh(ctx, ana.AccessToken, "unknown-token")
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	f.service.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	_, err = f.service.Refresh(ctx, ana.AccessToken, ana.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestRevoke(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	ana := f.register(t, "ana@example.com")
	bob := f.register(t, "bob@example.com")

	assert.ErrorIs(t, f.service.Revoke(ctx, bob.User.ID, ana.RefreshToken), domain.ErrInvalidRefreshToken)

	require.NoError(t, f.service.Revoke(ctx, ana.User.ID, ana.RefreshToken))
	assert.NoError(t, f.service.Revoke(ctx, ana.User.ID, ana.RefreshToken))

	_, err := f.service.Refresh(ctx, ana.AccessToken, ana.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestMe(t *testing.T) {
	f := newAuthFixture()
	ana := f.register(t, "ana@example.com")

	user, err := f.service.Me(context.Background(), ana.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", user.Name)

	_, err = f.service.Me(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
