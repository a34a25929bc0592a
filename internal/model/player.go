package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PlayerRecord is a read-only projection of one seat within a game
type PlayerRecord struct {
	Index          int            `json:"index"`
	Address        common.Address `json:"address"`
	DeckMap        DeckMap        `json:"deck_map"`
	PendingActions uint8          `json:"pending_actions"`
	Score          uint16         `json:"score"`
	Forfeited      bool           `json:"forfeited"`

	// Ciphertext handles; only meaningful after off-chain decryption
	EncryptedHand0 uint256.Int `json:"encrypted_hand0"`
	EncryptedHand1 uint256.Int `json:"encrypted_hand1"`

	// Derived on decode
	HandSize int `json:"hand_size"`
}

// Empty reports whether nobody occupies this seat
func (p *PlayerRecord) Empty() bool {
	return p.Address == (common.Address{})
}
