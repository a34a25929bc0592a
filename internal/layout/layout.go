package layout

import (
	"errors"
	"fmt"
)

// Field locates a packed value inside a 256-bit storage word
type Field struct {
	Word   int // Index of the word within the record
	Offset uint
	Width  uint
}

// GameFields holds the packed positions of every GameRecord field
type GameFields struct {
	Creator          Field
	CallCard         Field
	CurrentTurnIndex Field
	Status           Field
	LastMoveAt       Field
	NumProposed      Field
	HookPermissions  Field
	SeatOccupancy    Field
	Ruleset          Field
	MarketDeckMap    Field
	InitialHandSize  Field
	PlayersLeft      Field
}

// PlayerFields holds the packed positions of every PlayerRecord field
type PlayerFields struct {
	Address        Field
	DeckMap        Field
	PendingActions Field
	Score          Field
	Forfeited      Field
	EncryptedHand0 Field
	EncryptedHand1 Field
}

// DeckMapEncoding describes how a deck map packs its card width next to its bitmask
type DeckMapEncoding struct {
	// SizeBits is the number of low bits holding the card-width subtrahend
	SizeBits uint
	// MaxCardBits is the width the subtrahend is taken from
	MaxCardBits int
}

// Layout is the storage layout of a deployed game contract.
// It must match the contract's compiler-generated layout exactly.
type Layout struct {
	Version string

	NextGameIDSlot        uint64
	GameMappingSlot       uint64
	CommitmentMappingSlot uint64

	// PlayersOffset is the struct slot of the players array inside a game
	PlayersOffset   uint64
	GameWordCount   int
	PlayerWordCount int

	ReferenceDeckSize int
	DeckMap           DeckMapEncoding

	Game   GameFields
	Player PlayerFields
}

// Default returns the layout of the current game contract deployment
func Default() Layout {
	return Layout{
		Version:               "v1",
		NextGameIDSlot:        0,
		GameMappingSlot:       1,
		CommitmentMappingSlot: 2,
		PlayersOffset:         2,
		GameWordCount:         2,
		PlayerWordCount:       3,
		ReferenceDeckSize:     54,
		DeckMap: DeckMapEncoding{
			SizeBits:    2,
			MaxCardBits: 8,
		},
		Game: GameFields{
			Creator:          Field{Word: 0, Offset: 0, Width: 160},
			CallCard:         Field{Word: 0, Offset: 160, Width: 8},
			CurrentTurnIndex: Field{Word: 0, Offset: 168, Width: 8},
			Status:           Field{Word: 0, Offset: 176, Width: 8},
			LastMoveAt:       Field{Word: 0, Offset: 184, Width: 40},
			NumProposed:      Field{Word: 0, Offset: 224, Width: 8},
			HookPermissions:  Field{Word: 0, Offset: 232, Width: 8},
			SeatOccupancy:    Field{Word: 0, Offset: 240, Width: 16},
			Ruleset:          Field{Word: 1, Offset: 0, Width: 160},
			MarketDeckMap:    Field{Word: 1, Offset: 160, Width: 64},
			InitialHandSize:  Field{Word: 1, Offset: 224, Width: 8},
			PlayersLeft:      Field{Word: 1, Offset: 232, Width: 8},
		},
		Player: PlayerFields{
			Address:        Field{Word: 0, Offset: 0, Width: 160},
			DeckMap:        Field{Word: 0, Offset: 160, Width: 64},
			PendingActions: Field{Word: 0, Offset: 224, Width: 8},
			Score:          Field{Word: 0, Offset: 232, Width: 16},
			Forfeited:      Field{Word: 0, Offset: 248, Width: 8},
			EncryptedHand0: Field{Word: 1, Offset: 0, Width: 256},
			EncryptedHand1: Field{Word: 2, Offset: 0, Width: 256},
		},
	}
}

// Validate checks that every field fits its record and the Go type it decodes into
func (l Layout) Validate() error {
	if l.GameWordCount <= 0 || l.PlayerWordCount <= 0 {
		return errors.New("layout: record word counts must be positive")
	}
	if l.ReferenceDeckSize <= 0 || l.ReferenceDeckSize > 256 {
		return fmt.Errorf("layout: reference deck size %d out of range", l.ReferenceDeckSize)
	}
	if l.DeckMap.SizeBits == 0 || l.DeckMap.SizeBits > 8 {
		return fmt.Errorf("layout: deck map size bits %d out of range", l.DeckMap.SizeBits)
	}

	game := []struct {
		name  string
		field Field
		max   uint
	}{
		{"game.creator", l.Game.Creator, 160},
		{"game.call_card", l.Game.CallCard, 8},
		{"game.current_turn_index", l.Game.CurrentTurnIndex, 8},
		{"game.status", l.Game.Status, 8},
		{"game.last_move_at", l.Game.LastMoveAt, 64},
		{"game.num_proposed", l.Game.NumProposed, 8},
		{"game.hook_permissions", l.Game.HookPermissions, 8},
		{"game.seat_occupancy", l.Game.SeatOccupancy, 16},
		{"game.ruleset", l.Game.Ruleset, 160},
		{"game.market_deck_map", l.Game.MarketDeckMap, 256},
		{"game.initial_hand_size", l.Game.InitialHandSize, 8},
		{"game.players_left", l.Game.PlayersLeft, 8},
	}
	for _, f := range game {
		if err := checkField(f.name, f.field, l.GameWordCount, f.max); err != nil {
			return err
		}
	}

	player := []struct {
		name  string
		field Field
		max   uint
	}{
		{"player.address", l.Player.Address, 160},
		{"player.deck_map", l.Player.DeckMap, 256},
		{"player.pending_actions", l.Player.PendingActions, 8},
		{"player.score", l.Player.Score, 16},
		{"player.forfeited", l.Player.Forfeited, 8},
		{"player.encrypted_hand0", l.Player.EncryptedHand0, 256},
		{"player.encrypted_hand1", l.Player.EncryptedHand1, 256},
	}
	for _, f := range player {
		if err := checkField(f.name, f.field, l.PlayerWordCount, f.max); err != nil {
			return err
		}
	}

	return nil
}

func checkField(name string, f Field, words int, maxWidth uint) error {
	if f.Word < 0 || f.Word >= words {
		return fmt.Errorf("layout: %s word %d outside record of %d words", name, f.Word, words)
	}
	if f.Width == 0 || f.Width > maxWidth {
		return fmt.Errorf("layout: %s width %d exceeds %d bits", name, f.Width, maxWidth)
	}
	if f.Offset+f.Width > 256 {
		return fmt.Errorf("layout: %s overflows its word (offset %d, width %d)", name, f.Offset, f.Width)
	}
	return nil
}
