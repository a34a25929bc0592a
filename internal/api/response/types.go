package response

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/mcoot/whotscan/internal/model"
)

// Numbers that can exceed 2^53 are rendered as decimal strings so that
// JavaScript clients do not lose precision.

// Card represents a single Whot card
type Card struct {
	Value  uint32 `json:"value"`
	Shape  string `json:"shape"`
	Number uint8  `json:"number"`
}

// CardFromModel converts a model.Card
func CardFromModel(c model.Card) Card {
	return Card{
		Value:  uint32(c),
		Shape:  c.Shape().String(),
		Number: c.Number(),
	}
}

// CardsFromModel converts a slice of cards, never returning nil
func CardsFromModel(cards []model.Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = CardFromModel(c)
	}
	return out
}

// DeckMap represents a packed deck map
type DeckMap struct {
	Raw         string `json:"raw"`
	CardBitSize int    `json:"card_bit_size"`
	Indices     []int  `json:"indices"`
}

// DeckMapFromModel converts a model.DeckMap with its already decoded indices
func DeckMapFromModel(dm model.DeckMap, indices []int) DeckMap {
	if indices == nil {
		indices = []int{}
	}
	return DeckMap{
		Raw:         dm.Raw.Dec(),
		CardBitSize: dm.CardBitSize,
		Indices:     indices,
	}
}

// Game represents a decoded game record
type Game struct {
	ID               string    `json:"id"`
	Creator          string    `json:"creator"`
	Status           string    `json:"status"`
	StatusCode       uint8     `json:"status_code"`
	CallCard         *Card     `json:"call_card"`
	CurrentTurnIndex uint8     `json:"current_turn_index"`
	LastMoveAt       time.Time `json:"last_move_at"`
	NumProposed      uint8     `json:"num_proposed"`
	HookPermissions  uint8     `json:"hook_permissions"`
	SeatOccupancy    uint16    `json:"seat_occupancy"`
	Ruleset          string    `json:"ruleset"`
	MarketDeckMap    DeckMap   `json:"market_deck_map"`
	MarketSize       int       `json:"market_size"`
	MarketCards      []Card    `json:"market_cards"`
	InitialHandSize  uint8     `json:"initial_hand_size"`
	PlayersJoined    int       `json:"players_joined"`
	PlayersLeft      uint8     `json:"players_left_to_join"`
	MaxPlayers       int       `json:"max_players"`
	FetchedAt        time.Time `json:"fetched_at,omitzero"`
}

// GameFromModel converts a game record together with the decoded market
func GameFromModel(id *uint256.Int, g *model.GameRecord, marketIndices []int, marketCards []model.Card, fetchedAt time.Time) Game {
	var callCard *Card
	if !g.CallCard.IsNone() {
		c := CardFromModel(g.CallCard)
		callCard = &c
	}
	return Game{
		ID:               id.Dec(),
		Creator:          g.Creator.Hex(),
		Status:           g.Status.String(),
		StatusCode:       uint8(g.Status),
		CallCard:         callCard,
		CurrentTurnIndex: g.CurrentTurnIndex,
		LastMoveAt:       g.LastMoveTime(),
		NumProposed:      g.NumProposed,
		HookPermissions:  g.HookPermissions,
		SeatOccupancy:    g.SeatOccupancy,
		Ruleset:          g.Ruleset.Hex(),
		MarketDeckMap:    DeckMapFromModel(g.MarketDeckMap, marketIndices),
		MarketSize:       g.MarketSize,
		MarketCards:      CardsFromModel(marketCards),
		InitialHandSize:  g.InitialHandSize,
		PlayersJoined:    g.PlayersJoined,
		PlayersLeft:      g.PlayersLeft,
		MaxPlayers:       g.MaxPlayers,
		FetchedAt:        fetchedAt,
	}
}

// GameList wraps a list of games
type GameList struct {
	Games []Game `json:"games"`
}

// NextGameID is the response of the game counter endpoint
type NextGameID struct {
	NextGameID string `json:"next_game_id"`
}

// NextGameIDFromValue renders the counter
func NextGameIDFromValue(v *uint256.Int) NextGameID {
	return NextGameID{NextGameID: v.Dec()}
}

// Player represents a decoded player record
type Player struct {
	Index          int     `json:"index"`
	Address        string  `json:"address"`
	Empty          bool    `json:"empty"`
	DeckMap        DeckMap `json:"deck_map"`
	HandSize       int     `json:"hand_size"`
	PendingActions uint8   `json:"pending_actions"`
	Score          uint16  `json:"score"`
	Forfeited      bool    `json:"forfeited"`
	EncryptedHand0 string  `json:"encrypted_hand0"`
	EncryptedHand1 string  `json:"encrypted_hand1"`
}

// PlayerFromModel converts a player record. handIndices are the decoded
// positions of the player's deck map.
func PlayerFromModel(p *model.PlayerRecord, handIndices []int) Player {
	return Player{
		Index:          p.Index,
		Address:        p.Address.Hex(),
		Empty:          p.Empty(),
		DeckMap:        DeckMapFromModel(p.DeckMap, handIndices),
		HandSize:       p.HandSize,
		PendingActions: p.PendingActions,
		Score:          p.Score,
		Forfeited:      p.Forfeited,
		EncryptedHand0: p.EncryptedHand0.Hex(),
		EncryptedHand1: p.EncryptedHand1.Hex(),
	}
}

// PlayerList wraps the players of a game
type PlayerList struct {
	GameID  string   `json:"game_id"`
	Players []Player `json:"players"`
}

// Commitment represents the move commitment of a game
type Commitment struct {
	GameID  string `json:"game_id"`
	Hash    string `json:"hash"`
	Pending bool   `json:"pending"`
}

// CommitmentFromModel converts a commitment
func CommitmentFromModel(id *uint256.Int, c *model.Commitment) Commitment {
	return Commitment{
		GameID:  id.Dec(),
		Hash:    c.Hash.Hex(),
		Pending: c.Pending,
	}
}

// Hand represents a revealed hand
type Hand struct {
	GameID      string    `json:"game_id"`
	PlayerIndex int       `json:"player_index"`
	Cards       []Card    `json:"cards"`
	RevealedAt  time.Time `json:"revealed_at"`
}

// HandFromModel converts a revealed hand
func HandFromModel(h *model.Hand) Hand {
	return Hand{
		GameID:      h.GameID.Dec(),
		PlayerIndex: h.PlayerIndex,
		Cards:       CardsFromModel(h.Cards),
		RevealedAt:  h.RevealedAt,
	}
}

// HandList wraps the revealed hands of a game
type HandList struct {
	GameID string `json:"game_id"`
	Hands  []Hand `json:"hands"`
}

// HandListFromModel converts the revealed hands of a game, never returning nil
func HandListFromModel(id *uint256.Int, hands []*model.Hand) HandList {
	out := make([]Hand, len(hands))
	for i, h := range hands {
		out[i] = HandFromModel(h)
	}
	return HandList{GameID: id.Dec(), Hands: out}
}

// Health is the health check response
type Health struct {
	Status   string `json:"status"`
	Contract string `json:"contract,omitempty"`
}
