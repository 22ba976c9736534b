package models

import "errors"

var (
	// ErrNotFound is returned when a required record (a singleton row, a
	// question, a player) does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a nickname is already taken at join.
	ErrConflict = errors.New("nickname already taken")

	// ErrInvalidTransition is returned on a game control transition that is
	// not legal from the current state.
	ErrInvalidTransition = errors.New("invalid game control transition")

	// ErrEmptyPool is returned when the roulette is spun with no questions.
	ErrEmptyPool = errors.New("question pool is empty")

	// ErrStaleIdentity is returned when a persisted player id no longer
	// exists server-side; the holder must log out.
	ErrStaleIdentity = errors.New("player identity no longer exists")
)
