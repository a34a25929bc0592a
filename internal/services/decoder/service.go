package decoder

import (
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mcoot/whotscan/internal/layout"
	"github.com/mcoot/whotscan/internal/model"
)

// Service unpacks raw storage words into typed records.
// Every decode is total: garbage in yields a garbage record, never an error.
type Service struct {
	layout    layout.Layout
	reference []model.Card
}

// New creates a decoder bound to a storage layout
func New(l layout.Layout) *Service {
	return &Service{
		layout:    l,
		reference: model.ReferenceDeck(),
	}
}

// Layout returns the layout the decoder was built with
func (s *Service) Layout() layout.Layout {
	return s.layout
}

// Field extracts (word >> offset) & ((1 << width) - 1)
func Field(word *uint256.Int, offset, width uint) *uint256.Int {
	out := new(uint256.Int)
	if word == nil {
		return out
	}
	out.Rsh(word, offset)
	return out.And(out, Mask(width))
}

// Mask returns (1 << width) - 1; a width of 256 or more yields all ones
func Mask(width uint) *uint256.Int {
	m := new(uint256.Int)
	if width >= 256 {
		return m.SetAllOne()
	}
	m.Lsh(uint256.NewInt(1), width)
	return m.SubUint64(m, 1)
}

// PopCount returns the number of set bits in v
func PopCount(v *uint256.Int) int {
	n := 0
	for i := 0; i < 4; i++ {
		n += bits.OnesCount64(v[i])
	}
	return n
}

// DecodeGame unpacks the two words of a game record
func (s *Service) DecodeGame(w0, w1 *uint256.Int) model.GameRecord {
	words := []*uint256.Int{w0, w1}
	f := s.layout.Game

	g := model.GameRecord{
		Creator:          s.address(words, f.Creator),
		CallCard:         model.Card(s.uintField(words, f.CallCard)),
		CurrentTurnIndex: uint8(s.uintField(words, f.CurrentTurnIndex)),
		Status:           model.GameStatus(s.uintField(words, f.Status)),
		LastMoveAt:       s.uintField(words, f.LastMoveAt),
		NumProposed:      uint8(s.uintField(words, f.NumProposed)),
		HookPermissions:  uint8(s.uintField(words, f.HookPermissions)),
		SeatOccupancy:    uint16(s.uintField(words, f.SeatOccupancy)),
		Ruleset:          s.address(words, f.Ruleset),
		MarketDeckMap:    s.DecodeDeckMap(s.field(words, f.MarketDeckMap)),
		InitialHandSize:  uint8(s.uintField(words, f.InitialHandSize)),
		PlayersLeft:      uint8(s.uintField(words, f.PlayersLeft)),
	}

	g.PlayersJoined = PlayersJoined(g.SeatOccupancy)
	g.MaxPlayers = g.PlayersJoined + int(g.PlayersLeft)
	g.MarketSize = len(s.Indices(g.MarketDeckMap, s.layout.ReferenceDeckSize))
	return g
}

// PlayersJoined counts occupied seats, ignoring the sentinel bit 0
func PlayersJoined(seats uint16) int {
	return bits.OnesCount16(seats &^ 1)
}

// DecodePlayer unpacks the three words of the player record at index
func (s *Service) DecodePlayer(index int, w0, w1, w2 *uint256.Int) model.PlayerRecord {
	words := []*uint256.Int{w0, w1, w2}
	f := s.layout.Player

	p := model.PlayerRecord{
		Index:          index,
		Address:        s.address(words, f.Address),
		DeckMap:        s.DecodeDeckMap(s.field(words, f.DeckMap)),
		PendingActions: uint8(s.uintField(words, f.PendingActions)),
		Score:          uint16(s.uintField(words, f.Score)),
		Forfeited:      !s.field(words, f.Forfeited).IsZero(),
		EncryptedHand0: *s.field(words, f.EncryptedHand0),
		EncryptedHand1: *s.field(words, f.EncryptedHand1),
	}
	p.HandSize = len(s.Indices(p.DeckMap, s.layout.ReferenceDeckSize))
	return p
}

// DecodeCommitment interprets a commitment slot word
func (s *Service) DecodeCommitment(w *uint256.Int) model.Commitment {
	if w == nil {
		return model.Commitment{}
	}
	return model.Commitment{
		Hash:    common.Hash(w.Bytes32()),
		Pending: !w.IsZero(),
	}
}

// DecodeDeckMap splits a raw deck map into its card width and presence bits
func (s *Service) DecodeDeckMap(raw *uint256.Int) model.DeckMap {
	enc := s.layout.DeckMap
	dm := model.DeckMap{}
	if raw == nil {
		raw = new(uint256.Int)
	}
	dm.Raw = *raw
	dm.CardBitSize = enc.MaxCardBits - int(Field(raw, 0, enc.SizeBits).Uint64())
	dm.MapBits.Rsh(raw, enc.SizeBits)
	return dm
}

// DeckMapIndices returns the set positions of a raw deck map below maxCards
func (s *Service) DeckMapIndices(raw *uint256.Int, maxCards int) []int {
	return s.Indices(s.DecodeDeckMap(raw), maxCards)
}

// Indices walks the presence bits from 0 upward, stopping at maxCards or
// once no set bits remain above the cursor.
func (s *Service) Indices(dm model.DeckMap, maxCards int) []int {
	out := make([]int, 0)
	if maxCards > 256 {
		maxCards = 256
	}
	limit := dm.MapBits.BitLen()
	for i := 0; i < maxCards && i < limit; i++ {
		if dm.MapBits[i/64]&(1<<(uint(i)%64)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

// DecodeHandCards extracts card values from decrypted hand words.
// Index i lives in word0 while i < 256/cardBitSize and in word1 after that.
// A card width of zero or above 32 means nothing was dealt yet, so the
// result is empty.
func (s *Service) DecodeHandCards(dm model.DeckMap, clear0, clear1 *uint256.Int) []model.Card {
	cards := make([]model.Card, 0)
	size := dm.CardBitSize
	if size <= 0 || size > 32 {
		return cards
	}

	perWord := 256 / size
	for _, idx := range s.Indices(dm, s.layout.ReferenceDeckSize) {
		word := clear0
		if idx >= perWord {
			word = clear1
		}
		offset := uint((idx % perWord) * size)
		cards = append(cards, model.Card(Field(word, offset, uint(size)).Uint64()))
	}
	return cards
}

// MarketCards maps market deck map indices onto the reference deck
func (s *Service) MarketCards(dm model.DeckMap) []model.Card {
	indices := s.Indices(dm, len(s.reference))
	cards := make([]model.Card, 0, len(indices))
	for _, idx := range indices {
		cards = append(cards, s.reference[idx])
	}
	return cards
}

func (s *Service) field(words []*uint256.Int, f layout.Field) *uint256.Int {
	if f.Word < 0 || f.Word >= len(words) {
		return new(uint256.Int)
	}
	return Field(words[f.Word], f.Offset, f.Width)
}

// uintField narrows a field that layout.Validate has checked fits in 64 bits
func (s *Service) uintField(words []*uint256.Int, f layout.Field) uint64 {
	return s.field(words, f).Uint64()
}

func (s *Service) address(words []*uint256.Int, f layout.Field) common.Address {
	return common.Address(s.field(words, f).Bytes20())
}
