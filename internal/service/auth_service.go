package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/badoux/checkmail"
	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and token rotation
type AuthService struct {
	userRepo   domain.UserRepository
	tokenRepo  domain.RefreshTokenRepository
	issuer     *TokenIssuer
	bcryptCost int
	now        func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, tokenRepo domain.RefreshTokenRepository, issuer *TokenIssuer) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		issuer:     issuer,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// RegisterInput holds the fields of a registration request
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// AuthResult is a freshly issued token pair
type AuthResult struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	User         *domain.User `json:"user"`
}

// Register creates an account and signs it in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	if n := utf8.RuneCountInString(name); n < domain.MinNameLength || n > domain.MaxUserNameLength {
		return nil, domain.ErrNameLength
	}

	email := normalizeEmail(input.Email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if utf8.RuneCountInString(input.Password) < domain.MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	if input.Password != input.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int32("user_id", user.ID).Msg("User registered")

	return s.issue(ctx, user)
}

// Login checks credentials and issues a token pair. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		log.Debug().Int32("user_id", user.ID).Msg("Password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	if err := s.tokenRepo.DeleteInactive(ctx, user.ID, now); err != nil {
		log.Warn().Err(err).Int32("user_id", user.ID).Msg("Failed to prune refresh tokens")
	}

	return s.issue(ctx, user)
}

// Refresh exchanges an active refresh token for a new pair. The access token
// may be expired but must be genuine and belong to the same user. The used
// refresh token is revoked and linked to its replacement.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	userID, err := s.issuer.SubjectOf(accessToken)
	if err != nil {
		return nil, err
	}

	stored, err := s.tokenRepo.GetByHash(ctx, HashRefreshToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if stored.UserID != userID || !stored.IsActive(s.now()) {
		log.Warn().Int32("user_id", userID).Int32("token_id", stored.ID).Msg("Rejected refresh token")
		return nil, domain.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, err
	}

	result, newHash, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.tokenRepo.Revoke(ctx, stored.ID, &newHash); err != nil {
		return nil, err
	}
	return result, nil
}

// Revoke invalidates one of the user's refresh tokens
func (s *AuthService) Revoke(ctx context.Context, userID int32, refreshToken string) error {
	stored, err := s.tokenRepo.GetByHash(ctx, HashRefreshToken(refreshToken))
	if err != nil {
		return err
	}
	if stored.UserID != userID {
		return domain.ErrInvalidRefreshToken
	}
	if stored.RevokedAt != nil {
		return nil
	}
	if err := s.tokenRepo.Revoke(ctx, stored.ID, nil); err != nil {
		return err
	}
	log.Info().Int32("user_id", userID).Msg("Refresh token revoked")
	return nil
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, userID int32) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) issue(ctx context.Context, user *domain.User) (*AuthResult, error) {
	result, _, err := s.issuePair(ctx, user)
	return result, err
}

func (s *AuthService) issuePair(ctx context.Context, user *domain.User) (*AuthResult, string, error) {
	access, expiresAt, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, "", err
	}
	plain, hash, err := NewRefreshToken()
	if err != nil {
		return nil, "", err
	}
	if err := s.tokenRepo.Create(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.issuer.RefreshTTL()),
	}); err != nil {
		return nil, "", err
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: plain,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
		User:         user,
	}, hash, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
