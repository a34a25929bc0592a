package model

import "errors"

// Common errors used across the application
var (
	// Game errors
	ErrGameNotFound  = errors.New("game not found")
	ErrInvalidGameID = errors.New("invalid game id")

	// Player errors
	ErrInvalidPlayerIndex = errors.New("invalid player index")

	// Hand errors
	ErrHandNotFound = errors.New("hand not found")
	ErrInvalidWord  = errors.New("invalid 256-bit word")
)
