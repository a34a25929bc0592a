package factory

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mcoot/whotscan/internal/dependencies/mocks"
	"github.com/mcoot/whotscan/internal/storage/memory"
	"github.com/mcoot/whotscan/internal/testutil"
)

// TestContract is the contract address test apps read from
var TestContract = common.HexToAddress("0x00000000000000000000000000000000000c0ffe")

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock   *mocks.MockClock
	MockBackend *mocks.MockBackend
}

// NewTestApp creates an App backed by in-memory contract storage
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockBackend := mocks.NewMockBackend()
	store := memory.New(mockClock, memory.Config{HandTTL: time.Hour})

	app := newWithDependencies(mockBackend, store, mockClock, Config{
		Contract:     TestContract,
		PollInterval: 10 * time.Millisecond,
	}, nil)

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockBackend: mockBackend,
	}
}

// SetNextGameID writes the game counter
func (t *TestApp) SetNextGameID(next uint64) {
	t.MockBackend.SetWord(t.SlotService.NextGameIDSlot(), uint256.NewInt(next))
}

// PutGame writes a game record the way the contract lays it out
func (t *TestApp) PutGame(id uint64, g testutil.Game) {
	t.MockBackend.SetWords(t.SlotService.GameBase(uint256.NewInt(id)), testutil.GameWords(t.Layout, g)...)
}

// PutPlayer writes one player record of a game
func (t *TestApp) PutPlayer(id uint64, index int, p testutil.Player) {
	t.MockBackend.SetWords(t.SlotService.PlayerBase(uint256.NewInt(id), index), testutil.PlayerWords(t.Layout, p)...)
}

// PutCommitment writes a game's commitment slot
func (t *TestApp) PutCommitment(id uint64, value *uint256.Int) {
	t.MockBackend.SetWord(t.SlotService.CommitmentBase(uint256.NewInt(id)), value)
}
