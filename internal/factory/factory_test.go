package factory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/whotscan/internal/config"
	"github.com/mcoot/whotscan/internal/model"
	"github.com/mcoot/whotscan/internal/services/reader"
	"github.com/mcoot/whotscan/internal/testutil"
)

var creator = common.HexToAddress("0x000000000000000000000000000000000000a11c")

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.app.Close()
}

// Test: a game is created, filled and played, observed through the wired services
func (s *IntegrationSuite) TestGameLifecycle() {
	s.app.SetNextGameID(2)
	s.app.PutGame(1, testutil.Game{
		Creator:       creator,
		Status:        model.GameStatusOpen,
		SeatOccupancy: 0b11,
		PlayersLeft:   1,
	})

	snapshot, err := s.app.GameService.GetGame(s.ctx, uint256.NewInt(1))
	s.Require().NoError(err)
	s.Equal(model.GameStatusOpen, snapshot.Game.Status)
	s.Equal(2, snapshot.Game.MaxPlayers)

	// Second player joins and the game starts
	s.app.PutGame(1, testutil.Game{
		Creator:         creator,
		Status:          model.GameStatusStarted,
		SeatOccupancy:   0b111,
		InitialHandSize: 5,
		MarketDeckMap:   testutil.DeckMap(8, 10, 11, 12),
	})
	s.app.PutPlayer(1, 0, testutil.Player{Address: creator, DeckMap: testutil.DeckMap(8, 0, 1)})

	recent, err := s.app.GameService.RecentGames(s.ctx, 5)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal(model.GameStatusStarted, recent[0].Game.Status)
	s.Equal(3, recent[0].Game.MarketSize)

	players, err := s.app.GameService.GetPlayers(s.ctx, uint256.NewInt(1))
	s.Require().NoError(err)
	s.Len(players, 2)
	s.Equal(2, players[0].HandSize)

	// The node lacks extsload: reads still succeed through the fallback
	s.app.MockBackend.ExtsloadErr = errors.New("execution reverted")
	snapshot, err = s.app.GameService.GetGame(s.ctx, uint256.NewInt(1))
	s.Require().NoError(err)
	s.Equal(model.GameStatusStarted, snapshot.Game.Status)
	s.Positive(s.app.MockBackend.StorageAtCalls())

	// And both paths failing surfaces a ReadError
	s.app.MockBackend.StorageAtErr = errors.New("connection refused")
	_, err = s.app.GameService.GetGame(s.ctx, uint256.NewInt(1))
	var readErr *reader.ReadError
	s.ErrorAs(err, &readErr)
}

func (s *IntegrationSuite) TestConfigFromRedis() {
	cfg := &config.Config{
		RPCURL:         "http://node",
		Contract:       TestContract,
		StorageType:    config.StorageTypeRedis,
		RedisURL:       "redis://cache:6379",
		SnapshotTTL:    time.Second,
		HandTTL:        time.Minute,
		ChunkSize:      10,
		MaxConcurrency: 3,
		PollInterval:   time.Second,
	}

	fc := ConfigFrom(cfg, nil)
	s.Require().NotNil(fc.RedisConfig)
	s.Equal("redis://cache:6379", fc.RedisConfig.URL)
	s.Equal(time.Second, fc.RedisConfig.SnapshotTTL)
	s.Equal(time.Minute, fc.RedisConfig.HandTTL)
	s.Equal(TestContract.Hex(), fc.RedisConfig.Namespace)
	s.Equal(10, fc.ChunkSize)
}

func (s *IntegrationSuite) TestConfigFromMemory() {
	fc := ConfigFrom(&config.Config{StorageType: config.StorageTypeMemory}, nil)
	s.Nil(fc.RedisConfig)
}

func (s *IntegrationSuite) TestNewRejectsUnknownStorage() {
	_, err := New(s.ctx, Config{StorageType: "postgres"})
	s.Error(err)

	_, err = New(s.ctx, Config{StorageType: config.StorageTypeRedis})
	s.Error(err)
}
