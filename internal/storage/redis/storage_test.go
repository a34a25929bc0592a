package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/whotscan/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.SnapshotTTL = 10 * time.Second
	cfg.HandTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Game snapshot tests

func (s *StorageSuite) TestSaveAndGetGame() {
	id := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	snapshot := &model.GameSnapshot{
		ID: *id,
		Game: model.GameRecord{
			Creator:       common.HexToAddress("0x00000000000000000000000000000000000000aa"),
			Status:        model.GameStatusEnded,
			SeatOccupancy: 0b110,
			PlayersJoined: 2,
		},
		FetchedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	err := s.storage.SaveGame(s.ctx, snapshot)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetGame(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id.Dec(), retrieved.ID.Dec())
	s.Equal(snapshot.Game.Creator, retrieved.Game.Creator)
	s.Equal(model.GameStatusEnded, retrieved.Game.Status)
	s.Equal(2, retrieved.Game.PlayersJoined)
	s.True(snapshot.FetchedAt.Equal(retrieved.FetchedAt))
}

func (s *StorageSuite) TestGetGameNotFound() {
	_, err := s.storage.GetGame(s.ctx, uint256.NewInt(404))
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *StorageSuite) TestDeleteGame() {
	_ = s.storage.SaveGame(s.ctx, &model.GameSnapshot{ID: *uint256.NewInt(1)})

	err := s.storage.DeleteGame(s.ctx, uint256.NewInt(1))
	s.Require().NoError(err)

	_, err = s.storage.GetGame(s.ctx, uint256.NewInt(1))
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *StorageSuite) TestGameSnapshotTTL() {
	_ = s.storage.SaveGame(s.ctx, &model.GameSnapshot{ID: *uint256.NewInt(7)})

	s.Equal(10*time.Second, s.mini.TTL("whot:game:7"))

	s.mini.FastForward(11 * time.Second)
	_, err := s.storage.GetGame(s.ctx, uint256.NewInt(7))
	s.ErrorIs(err, model.ErrGameNotFound)
}

// Hand tests

func (s *StorageSuite) TestSaveAndGetHand() {
	hand := &model.Hand{
		GameID:      *uint256.NewInt(3),
		PlayerIndex: 1,
		Cards: []model.Card{
			model.NewCard(model.ShapeCircle, 1),
			model.NewCard(model.ShapeWhot, 20),
		},
	}

	err := s.storage.SaveHand(s.ctx, hand)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetHand(s.ctx, uint256.NewInt(3), 1)
	s.Require().NoError(err)
	s.Equal(hand.Cards, retrieved.Cards)
	s.Equal(1, retrieved.PlayerIndex)
}

func (s *StorageSuite) TestGetHandNotFound() {
	_, err := s.storage.GetHand(s.ctx, uint256.NewInt(3), 0)
	s.ErrorIs(err, model.ErrHandNotFound)
}

func (s *StorageSuite) TestGetHandsForGame() {
	gameID := uint256.NewInt(3)
	for _, idx := range []int{2, 0, 1} {
		_ = s.storage.SaveHand(s.ctx, &model.Hand{GameID: *gameID, PlayerIndex: idx})
	}
	_ = s.storage.SaveHand(s.ctx, &model.Hand{GameID: *uint256.NewInt(4), PlayerIndex: 0})

	hands, err := s.storage.GetHandsForGame(s.ctx, gameID)
	s.Require().NoError(err)
	s.Require().Len(hands, 3)
	for i, h := range hands {
		s.Equal(i, h.PlayerIndex)
	}
}

func (s *StorageSuite) TestGetHandsForGameEmpty() {
	hands, err := s.storage.GetHandsForGame(s.ctx, uint256.NewInt(99))
	s.Require().NoError(err)
	s.Empty(hands)
}

func (s *StorageSuite) TestGetHandsForGameSkipsExpired() {
	gameID := uint256.NewInt(3)
	_ = s.storage.SaveHand(s.ctx, &model.Hand{GameID: *gameID, PlayerIndex: 0})
	_ = s.storage.SaveHand(s.ctx, &model.Hand{GameID: *gameID, PlayerIndex: 1})

	// Drop one hand but leave its index entry behind
	s.mini.Del("whot:hand:3:0")

	hands, err := s.storage.GetHandsForGame(s.ctx, gameID)
	s.Require().NoError(err)
	s.Require().Len(hands, 1)
	s.Equal(1, hands[0].PlayerIndex)
}

func (s *StorageSuite) TestDeleteHandsForGame() {
	gameID := uint256.NewInt(3)
	_ = s.storage.SaveHand(s.ctx, &model.Hand{GameID: *gameID, PlayerIndex: 0})
	_ = s.storage.SaveHand(s.ctx, &model.Hand{GameID: *gameID, PlayerIndex: 1})

	err := s.storage.DeleteHandsForGame(s.ctx, gameID)
	s.Require().NoError(err)

	hands, err := s.storage.GetHandsForGame(s.ctx, gameID)
	s.Require().NoError(err)
	s.Empty(hands)
	s.False(s.mini.Exists("whot:idx:hands_for_game:3"))
}

func (s *StorageSuite) TestHandIndexTTLSynced() {
	_ = s.storage.SaveHand(s.ctx, &model.Hand{GameID: *uint256.NewInt(3), PlayerIndex: 0})

	s.Equal(time.Hour, s.mini.TTL("whot:hand:3:0"))
	s.Equal(time.Hour, s.mini.TTL("whot:idx:hands_for_game:3"))
}

func (s *StorageSuite) TestNamespacesAreIsolated() {
	cfg := DefaultConfig()
	cfg.Namespace = "0xAbC"
	other := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), cfg)
	defer func() { _ = other.Close() }()

	snapshot := &model.GameSnapshot{ID: *uint256.NewInt(4), Game: model.GameRecord{Status: model.GameStatusOpen}}
	s.Require().NoError(other.SaveGame(s.ctx, snapshot))

	s.True(s.mini.Exists("whot:0xabc:game:4"))
	_, err := s.storage.GetGame(s.ctx, uint256.NewInt(4))
	s.ErrorIs(err, model.ErrGameNotFound)

	got, err := other.GetGame(s.ctx, uint256.NewInt(4))
	s.Require().NoError(err)
	s.Equal(model.GameStatusOpen, got.Game.Status)
}
