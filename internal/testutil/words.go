package testutil

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mcoot/whotscan/internal/layout"
	"github.com/mcoot/whotscan/internal/model"
)

// Game describes the stored fields of a game for packing into words
type Game struct {
	Creator          common.Address
	CallCard         model.Card
	CurrentTurnIndex uint8
	Status           model.GameStatus
	LastMoveAt       uint64
	NumProposed      uint8
	HookPermissions  uint8
	SeatOccupancy    uint16
	Ruleset          common.Address
	MarketDeckMap    uint64
	InitialHandSize  uint8
	PlayersLeft      uint8
}

// Player describes the stored fields of a player for packing into words
type Player struct {
	Address        common.Address
	DeckMap        uint64
	PendingActions uint8
	Score          uint16
	Forfeited      bool
	EncryptedHand0 *uint256.Int
	EncryptedHand1 *uint256.Int
}

// GameWords packs a game the way the contract stores it
func GameWords(l layout.Layout, g Game) []*uint256.Int {
	words := newWords(l.GameWordCount)
	f := l.Game
	putAddress(words, f.Creator, g.Creator)
	putUint(words, f.CallCard, uint64(g.CallCard))
	putUint(words, f.CurrentTurnIndex, uint64(g.CurrentTurnIndex))
	putUint(words, f.Status, uint64(g.Status))
	putUint(words, f.LastMoveAt, g.LastMoveAt)
	putUint(words, f.NumProposed, uint64(g.NumProposed))
	putUint(words, f.HookPermissions, uint64(g.HookPermissions))
	putUint(words, f.SeatOccupancy, uint64(g.SeatOccupancy))
	putAddress(words, f.Ruleset, g.Ruleset)
	putUint(words, f.MarketDeckMap, g.MarketDeckMap)
	putUint(words, f.InitialHandSize, uint64(g.InitialHandSize))
	putUint(words, f.PlayersLeft, uint64(g.PlayersLeft))
	return words
}

// PlayerWords packs a player the way the contract stores it
func PlayerWords(l layout.Layout, p Player) []*uint256.Int {
	words := newWords(l.PlayerWordCount)
	f := l.Player
	putAddress(words, f.Address, p.Address)
	putUint(words, f.DeckMap, p.DeckMap)
	putUint(words, f.PendingActions, uint64(p.PendingActions))
	putUint(words, f.Score, uint64(p.Score))
	if p.Forfeited {
		putUint(words, f.Forfeited, 1)
	}
	if p.EncryptedHand0 != nil {
		put(words, f.EncryptedHand0, p.EncryptedHand0)
	}
	if p.EncryptedHand1 != nil {
		put(words, f.EncryptedHand1, p.EncryptedHand1)
	}
	return words
}

// DeckMap builds a raw deck map from a card width and the set slot indices
func DeckMap(cardBitSize int, indices ...int) uint64 {
	var bits uint64
	for _, i := range indices {
		bits |= 1 << i
	}
	return bits<<2 | uint64(8-cardBitSize)&0b11
}

// HandWords packs clear card values at the given slot indices
func HandWords(cardBitSize int, cards map[int]model.Card) (*uint256.Int, *uint256.Int) {
	perWord := 256 / cardBitSize
	w0, w1 := new(uint256.Int), new(uint256.Int)
	for idx, card := range cards {
		word := w0
		if idx >= perWord {
			word = w1
		}
		shifted := new(uint256.Int).Lsh(uint256.NewInt(uint64(card)), uint((idx%perWord)*cardBitSize))
		word.Or(word, shifted)
	}
	return w0, w1
}

func newWords(n int) []*uint256.Int {
	words := make([]*uint256.Int, n)
	for i := range words {
		words[i] = new(uint256.Int)
	}
	return words
}

func put(words []*uint256.Int, f layout.Field, value *uint256.Int) {
	shifted := new(uint256.Int).Lsh(value, f.Offset)
	words[f.Word].Or(words[f.Word], shifted)
}

func putUint(words []*uint256.Int, f layout.Field, value uint64) {
	put(words, f, uint256.NewInt(value))
}

func putAddress(words []*uint256.Int, f layout.Field, addr common.Address) {
	put(words, f, new(uint256.Int).SetBytes20(addr.Bytes()))
}
