package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/config"
	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const refreshTokenBytes = 32

// AccessClaims are the claims carried by an access token
type AccessClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.StandardClaims
}

// TokenIssuer signs HS256 access tokens and mints opaque refresh tokens
type TokenIssuer struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates a TokenIssuer from the JWT settings
func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

// RefreshTTL returns the lifetime of refresh tokens
func (t *TokenIssuer) RefreshTTL() time.Duration {
	return t.refreshTTL
}

// IssueAccessToken signs an access token for user and returns its expiry
func (t *TokenIssuer) IssueAccessToken(user *domain.User) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.accessTTL)
	claims := &AccessClaims{
		Email: user.Email,
		Name:  user.Name,
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(int64(user.ID), 10),
			Issuer:    t.issuer,
			Audience:  t.audience,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
			Id:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// SubjectOf verifies an access token's signature, issuer and audience while
// ignoring its expiry, and returns the user id it names. Refresh uses it to
// bind a refresh token to the session that owns it.
func (t *TokenIssuer) SubjectOf(accessToken string) (int32, error) {
	parser := &jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	token, err := parser.ParseWithClaims(accessToken, &AccessClaims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return 0, domain.ErrInvalidRefreshToken
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !claims.VerifyIssuer(t.issuer, true) || !claims.VerifyAudience(t.audience, true) {
		return 0, domain.ErrInvalidRefreshToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 32)
	if err != nil {
		return 0, domain.ErrInvalidRefreshToken
	}
	return int32(id), nil
}

// NewRefreshToken returns a random refresh token and the hash to store for it
func NewRefreshToken() (string, string, error) {
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, HashRefreshToken(plain), nil
}

// HashRefreshToken returns the hex SHA-256 of a refresh token
func HashRefreshToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
