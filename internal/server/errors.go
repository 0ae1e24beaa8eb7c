package server

import "errors"

// Precondition violations reject a single operation before any mutation.
var (
	ErrGameNotActive       = errors.New("game is not active")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrInvalidCard         = errors.New("invalid card")
	ErrCardNotFlippable    = errors.New("card is already face up or matched")
	ErrTurnViolation       = errors.New("turn already has two picks")
	ErrInsufficientContent = errors.New("not enough questions with two answers")
	ErrNoGuessPending      = errors.New("no author guess pending")
)

// Fatal invariant breaks indicate inconsistent room/game state upstream.
var (
	ErrNoPlayers             = errors.New("no players in room")
	ErrCurrentPlayerNotFound = errors.New("current player not found in room")
)

var (
	errRoomNotFound   = errors.New("room not found")
	errNotHost        = errors.New("only the host can do that")
	errMemberNotFound = errors.New("member not found")
)
