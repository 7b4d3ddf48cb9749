package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kaleidoscope/internal/auth"
	"kaleidoscope/internal/domain"
	"kaleidoscope/internal/ports"
)

// handlePattern restricts handles to URL-safe characters, since handles are
// path segments on the public profile endpoint.
var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// AuthService implements registration, login, and session management.
// Refresh tokens rotate on every use: a refresh both revokes the presented
// session and opens a new one.
type AuthService struct {
	users    ports.UserStore
	profiles ports.ProfileStore
	sessions ports.SessionStore
	tokens   *auth.Manager
	log      *zap.Logger
}

// NewAuthService creates the account service.
func NewAuthService(users ports.UserStore, profiles ports.ProfileStore, sessions ports.SessionStore, tokens *auth.Manager, log *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		profiles: profiles,
		sessions: sessions,
		tokens:   tokens,
		log:      log,
	}
}

// Register creates an account with its starter profile and opens the first
// session. The initial display name is the email's local part.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest, userAgent string) (*domain.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	handle := strings.ToLower(strings.TrimSpace(req.Handle))

	if !handlePattern.MatchString(handle) {
		return nil, domain.ErrInvalidHandle
	}

	if _, err := s.users.ByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.profiles.ByHandle(ctx, handle); err == nil {
		return nil, domain.ErrHandleTaken
	} else if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	displayName := email
	if at := strings.Index(email, "@"); at > 0 {
		displayName = email[:at]
	}
	profile := &domain.Profile{
		UserID:      user.ID,
		Handle:      handle,
		DisplayName: displayName,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}

	s.log.Info("account registered", zap.String("userId", user.ID), zap.String("handle", handle))
	return s.openSession(ctx, user.ID, userAgent)
}

// Login verifies credentials and opens a session. Wrong email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest, userAgent string) (*domain.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.openSession(ctx, user.ID, userAgent)
}

// Refresh rotates a session: the presented refresh token must be valid and
// backed by a live session, which is revoked and replaced.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, userAgent string) (*domain.TokenPair, error) {
	userID, err := s.tokens.Verify(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	session, err := s.sessions.FindByRefreshToken(ctx, userID, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	if err := s.sessions.Delete(ctx, userID, session.SessionID); err != nil {
		return nil, err
	}
	return s.openSession(ctx, userID, userAgent)
}

// Logout revokes the session behind a refresh token. Revoking a session that
// is already gone succeeds; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	userID, err := s.tokens.Verify(refreshToken, auth.TokenRefresh)
	if err != nil {
		return domain.ErrInvalidToken
	}

	session, err := s.sessions.FindByRefreshToken(ctx, userID, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	return s.sessions.Delete(ctx, userID, session.SessionID)
}

func (s *AuthService) openSession(ctx context.Context, userID, userAgent string) (*domain.TokenPair, error) {
	access, err := s.tokens.Issue(userID, auth.TokenAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(userID, auth.TokenRefresh)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		RefreshToken: refresh,
		UserAgent:    userAgent,
		ExpiresAt:    time.Now().Add(auth.RefreshTokenTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}
