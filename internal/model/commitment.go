package model

import "github.com/ethereum/go-ethereum/common"

// Commitment is the move commitment slot of a game
type Commitment struct {
	Hash common.Hash `json:"hash"`
	// Pending is true while the current player has an unexecuted move
	Pending bool `json:"pending"`
}
