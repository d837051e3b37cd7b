package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrAlreadyInRoom      = errors.New("already in this room")
	ErrNotInRoom          = errors.New("not in this room")
	ErrGameNotFound       = errors.New("game not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerDead         = errors.New("player is not alive")
	ErrInvalidPhase       = errors.New("invalid action for current phase")
	ErrNotActiveRole      = errors.New("role has no night action")
	ErrInvalidTransition  = errors.New("invalid phase transition")
	ErrInvalidNickname    = errors.New("invalid nickname")
	ErrInvalidRoomConfig  = errors.New("invalid room configuration")
)
