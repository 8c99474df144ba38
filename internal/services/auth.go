package services

import (
	"context"
	"errors"

	"github.com/gw-labs/gw-messenger/internal/logger"
	"github.com/gw-labs/gw-messenger/internal/models"
	"github.com/gw-labs/gw-messenger/internal/storage"
)

// Error variables
var (
	ErrUserAlreadyExists  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserCreator defines write operations for users.
type UserCreator interface {
	CreateUser(ctx context.Context, username, authToken string) (int64, error)
}

// UserReader defines read-only operations for users.
type UserReader interface {
	UserByCredentials(ctx context.Context, username, authToken string) (*models.UserDB, error)
}

// TokenDeriver derives auth tokens from passwords. The derivation must be
// deterministic so login can reproduce the token stored at registration.
type TokenDeriver interface {
	Derive(password string) string
}

// AuthService handles registration and login.
type AuthService struct {
	creator UserCreator
	reader  UserReader
	deriver TokenDeriver
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(creator UserCreator, reader UserReader, deriver TokenDeriver) *AuthService {
	return &AuthService{
		creator: creator,
		reader:  reader,
		deriver: deriver,
	}
}

// Register creates a new user and returns the assigned id.
func (svc *AuthService) Register(ctx context.Context, username, password string) (int64, error) {
	authToken := svc.deriver.Derive(password)

	userID, err := svc.creator.CreateUser(ctx, username, authToken)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateUser) {
			logger.Log.Errorw("user already exists", "username", username)
			return 0, ErrUserAlreadyExists
		}
		logger.Log.Errorw("failed to create user", "err", err)
		return 0, err
	}

	return userID, nil
}

// Login authenticates a user and returns the assigned id and auth token.
func (svc *AuthService) Login(ctx context.Context, username, password string) (int64, string, error) {
	authToken := svc.deriver.Derive(password)

	user, err := svc.reader.UserByCredentials(ctx, username, authToken)
	if err != nil {
		logger.Log.Errorw("failed to look up user", "err", err)
		return 0, "", err
	}
	if user == nil {
		logger.Log.Errorw("invalid credentials", "username", username)
		return 0, "", ErrInvalidCredentials
	}

	return user.UserID, user.AuthToken, nil
}
