// Package services contains server-side business logic. This file implements
// UserService, which handles registration, password and OAuth sign-in, and
// issuing/refreshing session JWTs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/dmitrijs2005/jumptrack/internal/server/auth"
	"github.com/dmitrijs2005/jumptrack/internal/server/config"
	"github.com/dmitrijs2005/jumptrack/internal/server/models"
	"github.com/dmitrijs2005/jumptrack/internal/server/oauth"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// AuthResult bundles a freshly minted session token with the authenticated
// user. IsNewUser is true when the sign-in created the account.
type AuthResult struct {
	Token     string
	User      *models.User
	IsNewUser bool
}

// UserService provides authentication and profile operations:
//   - Register/Login: email+password accounts
//   - OAuthLogin: Google/Apple ID-token sign-in with account linking
//   - Refresh: re-issue a session token before it expires
type UserService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	verifier       *oauth.Verifier
	jwtSecret      []byte
	tokenValidity  time.Duration
	googleClientID string
	appleBundleID  string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, verifier *oauth.Verifier, cfg *config.Config) *UserService {
	return &UserService{
		db:             db,
		repomanager:    m,
		verifier:       verifier,
		jwtSecret:      []byte(cfg.SecretKey),
		tokenValidity:  cfg.TokenValidity,
		googleClientID: cfg.GoogleClientID,
		appleBundleID:  cfg.AppleBundleID,
	}
}

func (s *UserService) issueToken(user *models.User) (string, error) {
	return auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenValidity)
}

const maxNicknameLen = 20

func normalizeNickname(nickname string) string {
	nickname = strings.TrimSpace(nickname)
	if len(nickname) > maxNicknameLen {
		nickname = nickname[:maxNicknameLen]
	}
	return nickname
}

// Register creates a password-based account and returns a session token.
// A duplicate email yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password, nickname string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", common.ErrorValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", common.ErrorValidation)
	}

	nickname = normalizeNickname(nickname)
	if nickname == "" {
		nickname, _, _ = strings.Cut(email, "@")
		nickname = normalizeNickname(nickname)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Nickname:     nickname,
		PasswordHash: auth.HashPassword(password),
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: email already registered", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("error creating user: %v", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &AuthResult{Token: token, User: user, IsNewUser: true}, nil
}

// Login verifies an email+password pair. Missing accounts and accounts
// without a password burn the same KDF cost as a real check so response
// timing does not reveal which case occurred.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.DeriveDummy(password)
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if user.PasswordHash == "" {
		// OAuth-only account
		auth.DeriveDummy(password)
		return nil, common.ErrorUnauthorized
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &AuthResult{Token: token, User: user}, nil
}

// OAuthLogin verifies a provider ID token and signs the holder in, creating
// or linking the account as needed. displayName is a client-supplied fallback
// for providers that omit the name from the token (Apple sends it only on the
// device, only once).
func (s *UserService) OAuthLogin(ctx context.Context, provider models.Provider, idToken, displayName string) (*AuthResult, error) {
	var p oauth.Provider
	var audience string
	switch provider {
	case models.ProviderGoogle:
		p, audience = oauth.Google, s.googleClientID
	case models.ProviderApple:
		p, audience = oauth.Apple, s.appleBundleID
	default:
		return nil, fmt.Errorf("%w: unsupported provider", common.ErrorValidation)
	}

	ident, err := s.verifier.Verify(ctx, idToken, audience, p)
	if err != nil {
		return nil, err
	}

	if ident.Name == "" {
		ident.Name = displayName
	}

	user, created, err := s.resolveExternal(ctx, ident)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &AuthResult{Token: token, User: user, IsNewUser: created}, nil
}

// Refresh re-issues a session token for the holder of a still-valid one.
func (s *UserService) Refresh(ctx context.Context, token string) (*AuthResult, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	fresh, err := s.issueToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &AuthResult{Token: fresh, User: user}, nil
}

// GetProfile returns a user's record together with aggregated jump stats.
// Which fields are exposed to whom is decided at the transport layer.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, *models.UserStats, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.repomanager.Sessions(s.db).GetUserStats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, stats, nil
}

// UpdateProfile applies partial profile changes and returns the updated user.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, nickname *string, avatarIndex *int) (*models.User, error) {
	if nickname == nil && avatarIndex == nil {
		return nil, fmt.Errorf("%w: no fields to update", common.ErrorValidation)
	}
	if nickname != nil {
		n := normalizeNickname(*nickname)
		if n == "" {
			return nil, fmt.Errorf("%w: nickname must be at least 1 character", common.ErrorValidation)
		}
		nickname = &n
	}
	if avatarIndex != nil && (*avatarIndex < 0 || *avatarIndex > 95) {
		return nil, fmt.Errorf("%w: invalid avatar index", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.UpdateProfile(ctx, userID, nickname, avatarIndex); err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, userID)
}
