package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"draughts_arena/internal/domain/user"
	"draughts_arena/internal/errors"
	"draughts_arena/internal/random"
)

type PlayerStorage interface {
	GetByUsername(ctx context.Context, username string) (user.Player, error)
	GetByID(ctx context.Context, id string) (user.Player, error)
	Create(ctx context.Context, newPlayer user.Player) error
}

type SessionStorage interface {
	GetPlayerIDBySession(ctx context.Context, sessionID string) (string, bool)
	StoreSession(ctx context.Context, sessionID string, playerID string)
	DeleteSession(ctx context.Context, sessionID string) bool
}

type AuthUsecaseHandler struct {
	playerStorage   PlayerStorage
	sessionStorage  SessionStorage
	startingBalance float64
}

func NewAuthUsecaseHandler(p PlayerStorage, s SessionStorage, startingBalance float64) *AuthUsecaseHandler {
	return &AuthUsecaseHandler{
		playerStorage:   p,
		sessionStorage:  s,
		startingBalance: startingBalance,
	}
}

// RegisterUser creates a player seeded with the starting token balance and
// opens a session for it.
func (a *AuthUsecaseHandler) RegisterUser(ctx context.Context, username, email, password string) (sessionID string, err error) {
	if _, err := a.playerStorage.GetByUsername(ctx, username); err == nil {
		return "", errors.ErrUserExists
	}

	newPlayer := user.Player{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		Role:         user.RoleUser,
		TokenBalance: a.startingBalance,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		PasswordHash: hashPassword(password),
	}
	if err := a.playerStorage.Create(ctx, newPlayer); err != nil {
		return "", errors.ErrInternal
	}

	sessionID = random.RandString(64)
	a.sessionStorage.StoreSession(ctx, sessionID, newPlayer.ID)
	return sessionID, nil
}

func (a *AuthUsecaseHandler) LoginUser(ctx context.Context, username, password string) (sessionID string, err error) {
	playerFromDb, err := a.playerStorage.GetByUsername(ctx, username)
	if err != nil {
		return "", errors.ErrUserNotFound
	}
	if hashPassword(password) != playerFromDb.PasswordHash {
		return "", errors.ErrWrongPassword
	}

	sessionID = random.RandString(64)
	a.sessionStorage.StoreSession(ctx, sessionID, playerFromDb.ID)
	return sessionID, nil
}

// returns nil or ErrSessionNotFound
func (a *AuthUsecaseHandler) LogoutUser(ctx context.Context, sessionID string) error {
	if _, ok := a.sessionStorage.GetPlayerIDBySession(ctx, sessionID); !ok {
		return errors.ErrSessionNotFound
	}
	if ok := a.sessionStorage.DeleteSession(ctx, sessionID); !ok {
		return errors.ErrSessionNotFound
	}
	return nil
}

func (a *AuthUsecaseHandler) GetPlayerIDFromSession(ctx context.Context, sessionID string) (string, error) {
	playerID, ok := a.sessionStorage.GetPlayerIDBySession(ctx, sessionID)
	if !ok {
		return "", errors.ErrSessionNotFound
	}
	return playerID, nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
