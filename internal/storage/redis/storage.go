package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/holiman/uint256"
	"github.com/redis/go-redis/v9"

	"github.com/mcoot/whotscan/internal/model"
	"github.com/mcoot/whotscan/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keyspace
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   newKeyspace(cfg.Namespace),
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game snapshot operations

func (s *Storage) SaveGame(ctx context.Context, snapshot *model.GameSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.keys.game(&snapshot.ID), data, s.cfg.SnapshotTTL).Err()
}

func (s *Storage) GetGame(ctx context.Context, id *uint256.Int) (*model.GameSnapshot, error) {
	data, err := s.client.Get(ctx, s.keys.game(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var snapshot model.GameSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *Storage) DeleteGame(ctx context.Context, id *uint256.Int) error {
	return s.client.Del(ctx, s.keys.game(id)).Err()
}

// Revealed hand operations

func (s *Storage) SaveHand(ctx context.Context, hand *model.Hand) error {
	data, err := json.Marshal(hand)
	if err != nil {
		return err
	}

	hKey := s.keys.hand(&hand.GameID, hand.PlayerIndex)
	indexKey := s.keys.handsForGame(&hand.GameID)

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, hKey, data, s.cfg.HandTTL)
	pipe.SAdd(ctx, indexKey, hKey)
	if s.cfg.HandTTL > 0 {
		pipe.Expire(ctx, indexKey, s.cfg.HandTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetHand(ctx context.Context, gameID *uint256.Int, playerIndex int) (*model.Hand, error) {
	data, err := s.client.Get(ctx, s.keys.hand(gameID, playerIndex)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrHandNotFound
		}
		return nil, err
	}

	var hand model.Hand
	if err := json.Unmarshal(data, &hand); err != nil {
		return nil, err
	}
	return &hand, nil
}

func (s *Storage) GetHandsForGame(ctx context.Context, gameID *uint256.Int) ([]*model.Hand, error) {
	handKeys, err := s.client.SMembers(ctx, s.keys.handsForGame(gameID)).Result()
	if err != nil {
		return nil, err
	}

	if len(handKeys) == 0 {
		return []*model.Hand{}, nil
	}

	values, err := s.client.MGet(ctx, handKeys...).Result()
	if err != nil {
		return nil, err
	}

	hands := make([]*model.Hand, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Hand may have expired
		}
		var hand model.Hand
		if err := json.Unmarshal([]byte(val.(string)), &hand); err != nil {
			continue
		}
		hands = append(hands, &hand)
	}

	sort.Slice(hands, func(i, j int) bool {
		return hands[i].PlayerIndex < hands[j].PlayerIndex
	})
	return hands, nil
}

func (s *Storage) DeleteHandsForGame(ctx context.Context, gameID *uint256.Int) error {
	indexKey := s.keys.handsForGame(gameID)

	handKeys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	if len(handKeys) == 0 {
		return nil
	}

	// Delete all hands and the index in one pipeline
	pipe := s.client.Pipeline()
	for _, key := range handKeys {
		pipe.Del(ctx, key)
	}
	pipe.Del(ctx, indexKey)
	_, err = pipe.Exec(ctx)
	return err
}
