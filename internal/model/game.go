package model

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// GameStatus is the lifecycle stage recorded on-chain
type GameStatus uint8

const (
	GameStatusOpen    GameStatus = 0
	GameStatusStarted GameStatus = 1
	GameStatusEnded   GameStatus = 2
)

func (s GameStatus) String() string {
	switch s {
	case GameStatusOpen:
		return "open"
	case GameStatusStarted:
		return "started"
	case GameStatusEnded:
		return "ended"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Known reports whether the status is one the contract actually writes
func (s GameStatus) Known() bool {
	return s <= GameStatusEnded
}

// GameRecord is a read-only projection of one game's on-chain storage
type GameRecord struct {
	Creator          common.Address `json:"creator"`
	CallCard         Card           `json:"call_card"`
	CurrentTurnIndex uint8          `json:"current_turn_index"`
	Status           GameStatus     `json:"status"`
	LastMoveAt       uint64         `json:"last_move_at"` // Unix seconds, 40 bits on-chain
	NumProposed      uint8          `json:"num_proposed"`
	HookPermissions  uint8          `json:"hook_permissions"`
	SeatOccupancy    uint16         `json:"seat_occupancy"`
	Ruleset          common.Address `json:"ruleset"`
	MarketDeckMap    DeckMap        `json:"market_deck_map"`
	InitialHandSize  uint8          `json:"initial_hand_size"`
	PlayersLeft      uint8          `json:"players_left"`

	// Derived on decode
	PlayersJoined int `json:"players_joined"`
	MaxPlayers    int `json:"max_players"`
	MarketSize    int `json:"market_size"`
}

// Exists reports whether the record came from a created game.
// Storage for an unknown id reads as all zero, so the creator is the sentinel.
func (g *GameRecord) Exists() bool {
	return g.Creator != (common.Address{})
}

// LastMoveTime returns the last move timestamp as a time.Time
func (g *GameRecord) LastMoveTime() time.Time {
	return time.Unix(int64(g.LastMoveAt), 0).UTC()
}

// SeatTaken reports whether the given seat bit is set (seat 0 is the sentinel bit)
func (g *GameRecord) SeatTaken(seat int) bool {
	if seat <= 0 || seat >= 16 {
		return false
	}
	return g.SeatOccupancy&(1<<seat) != 0
}

// GameSnapshot is a decoded game together with when it was read
type GameSnapshot struct {
	ID        uint256.Int `json:"id"`
	Game      GameRecord  `json:"game"`
	FetchedAt time.Time   `json:"fetched_at"`
}
