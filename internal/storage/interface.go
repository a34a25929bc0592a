package storage

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/mcoot/whotscan/internal/model"
)

// Storage caches decoded chain reads. Nothing here is canonical: the
// contract owns the state and every entry can be rebuilt from a fresh read.
type Storage interface {
	// Game snapshot operations
	SaveGame(ctx context.Context, snapshot *model.GameSnapshot) error
	GetGame(ctx context.Context, id *uint256.Int) (*model.GameSnapshot, error)
	DeleteGame(ctx context.Context, id *uint256.Int) error

	// Revealed hand operations
	SaveHand(ctx context.Context, hand *model.Hand) error
	GetHand(ctx context.Context, gameID *uint256.Int, playerIndex int) (*model.Hand, error)
	GetHandsForGame(ctx context.Context, gameID *uint256.Int) ([]*model.Hand, error)
	DeleteHandsForGame(ctx context.Context, gameID *uint256.Int) error
}
