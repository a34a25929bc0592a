package model

import (
	"time"

	"github.com/holiman/uint256"
)

// Hand is a player's hand after its ciphertext words were decrypted elsewhere
type Hand struct {
	GameID      uint256.Int `json:"game_id"`
	PlayerIndex int         `json:"player_index"`
	Cards       []Card      `json:"cards"`
	RevealedAt  time.Time   `json:"revealed_at"`
}
