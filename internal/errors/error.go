package errors

import "errors"

var (
	ErrUserNotFound       = errors.New("user with provided username was not found")
	ErrWrongPassword      = errors.New("wrong password")
	ErrSessionNotFound    = errors.New("session was not found")
	ErrUserExists         = errors.New("user already exists")
	ErrMatchNotFound      = errors.New("match not found")
	ErrBadMatchSetup      = errors.New("exactly one of opponent or ai level must be set")
	ErrOpponentNotFound   = errors.New("opponent was not found")
	ErrInsufficientTokens = errors.New("insufficient token balance")
	ErrNotParticipant     = errors.New("player is not a participant of this match")
	ErrMatchNotInProgress = errors.New("match is not in progress")
	ErrNotYourTurn        = errors.New("it is not this player's turn")
	ErrIllegalMove        = errors.New("move is not legal for the current board")
	ErrRepeatedMove       = errors.New("move repeats the previous one")
	ErrCorruptBoard       = errors.New("persisted board state is corrupt")
	ErrNoLegalMoves       = errors.New("no legal moves available")
	ErrSearchTimeout      = errors.New("move search timed out")
	ErrNotAdmin           = errors.New("admin role required")
	ErrInternal           = errors.New("internal error")
)
