package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/mcoot/whotscan/internal/dependencies/clock"
	"github.com/mcoot/whotscan/internal/model"
	"github.com/mcoot/whotscan/internal/storage"
)

// Config holds expiry settings for the in-memory cache
type Config struct {
	// Zero means entries never expire
	SnapshotTTL time.Duration
	HandTTL     time.Duration
}

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu    sync.RWMutex
	clock clock.Clock
	cfg   Config

	games map[uint256.Int]entry[model.GameSnapshot]
	hands map[handKey]entry[model.Hand]
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

type handKey struct {
	gameID      uint256.Int
	playerIndex int
}

// New creates a new in-memory storage instance
func New(clk clock.Clock, cfg Config) *Storage {
	return &Storage{
		clock: clk,
		cfg:   cfg,
		games: make(map[uint256.Int]entry[model.GameSnapshot]),
		hands: make(map[handKey]entry[model.Hand]),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.clock.Now().Add(ttl)
}

func (s *Storage) expired(expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !s.clock.Now().Before(expiresAt)
}

// Game snapshot operations

func (s *Storage) SaveGame(ctx context.Context, snapshot *model.GameSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[snapshot.ID] = entry[model.GameSnapshot]{
		value:     *snapshot,
		expiresAt: s.expiry(s.cfg.SnapshotTTL),
	}
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id *uint256.Int) (*model.GameSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.games[*id]
	if !ok || s.expired(e.expiresAt) {
		return nil, model.ErrGameNotFound
	}
	snapshot := e.value
	return &snapshot, nil
}

func (s *Storage) DeleteGame(ctx context.Context, id *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, *id)
	return nil
}

// Revealed hand operations

func (s *Storage) SaveHand(ctx context.Context, hand *model.Hand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := *hand
	h.Cards = append([]model.Card(nil), hand.Cards...)
	s.hands[handKey{hand.GameID, hand.PlayerIndex}] = entry[model.Hand]{
		value:     h,
		expiresAt: s.expiry(s.cfg.HandTTL),
	}
	return nil
}

func (s *Storage) GetHand(ctx context.Context, gameID *uint256.Int, playerIndex int) (*model.Hand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.hands[handKey{*gameID, playerIndex}]
	if !ok || s.expired(e.expiresAt) {
		return nil, model.ErrHandNotFound
	}
	hand := e.value
	return &hand, nil
}

func (s *Storage) GetHandsForGame(ctx context.Context, gameID *uint256.Int) ([]*model.Hand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hands := make([]*model.Hand, 0)
	for key, e := range s.hands {
		if key.gameID == *gameID && !s.expired(e.expiresAt) {
			hand := e.value
			hands = append(hands, &hand)
		}
	}
	sort.Slice(hands, func(i, j int) bool {
		return hands[i].PlayerIndex < hands[j].PlayerIndex
	})
	return hands, nil
}

func (s *Storage) DeleteHandsForGame(ctx context.Context, gameID *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.hands {
		if key.gameID == *gameID {
			delete(s.hands, key)
		}
	}
	return nil
}
