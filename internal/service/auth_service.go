package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// AuthService handles account registration, login and profile updates.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.Store) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
	}
}

// Register creates a new user account and returns it with a session token.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*models.User, string, error) {
	slog.Info("Register request", "email", email)

	if email == "" || displayName == "" {
		return nil, "", fmt.Errorf("%w: email and display name required", models.ErrInvalidArgument)
	}

	user, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		slog.Warn("Registration failed", "email", email, "error", err)
		return nil, "", err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}

	slog.Info("User registered", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	slog.Info("Login request", "email", email)

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		slog.Warn("Login failed", "email", email, "error", err)
		return nil, "", err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}
	return user, token, nil
}

// GetProfile returns the caller's own account.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// UpdateProfile changes the caller's display name, timezone or notification
// channel. The timezone must be a valid IANA zone name.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, displayName, timezone string, telegramChatID int64) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if displayName != "" {
		user.DisplayName = displayName
	}
	if timezone != "" {
		if err := models.ValidateTimezone(timezone); err != nil {
			return nil, err
		}
		user.Timezone = timezone
	}
	if telegramChatID != 0 {
		user.TelegramChatID = telegramChatID
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("Profile updated", "user_id", user.ID)
	return user, nil
}
