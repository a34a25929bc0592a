package slots

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/mcoot/whotscan/internal/layout"
)

// Service derives storage slot keys for the game contract's records
type Service struct {
	layout layout.Layout
}

// New creates a slot Service bound to a storage layout
func New(l layout.Layout) *Service {
	return &Service{layout: l}
}

// NextGameIDSlot returns the slot of the game id counter (a plain variable, not hashed)
func (s *Service) NextGameIDSlot() common.Hash {
	return common.Hash(new(uint256.Int).SetUint64(s.layout.NextGameIDSlot).Bytes32())
}

// GameBase returns the first slot of the game struct stored under gameID
func (s *Service) GameBase(gameID *uint256.Int) common.Hash {
	return mappingSlot(gameID, s.layout.GameMappingSlot)
}

// CommitmentBase returns the commitment hash slot of a game
func (s *Service) CommitmentBase(gameID *uint256.Int) common.Hash {
	return mappingSlot(gameID, s.layout.CommitmentMappingSlot)
}

// PlayerBase returns the first slot of a player record.
// The index is not checked against the game's player count; slots past the
// end of the array read as zero.
func (s *Service) PlayerBase(gameID *uint256.Int, index int) common.Hash {
	// Dynamic array inside the game struct: data lives at keccak(slot of the array)
	arraySlot := Offset(s.GameBase(gameID), s.layout.PlayersOffset)
	data := keccak(arraySlot[:])

	stride := new(uint256.Int).SetUint64(uint64(s.layout.PlayerWordCount))
	delta := new(uint256.Int).Mul(new(uint256.Int).SetUint64(uint64(index)), stride)

	start := new(uint256.Int).SetBytes32(data[:])
	start.Add(start, delta)
	return common.Hash(start.Bytes32())
}

// GameSlots returns the consecutive slots holding a game record
func (s *Service) GameSlots(gameID *uint256.Int) []common.Hash {
	return Range(s.GameBase(gameID), s.layout.GameWordCount)
}

// PlayerSlots returns the consecutive slots holding one player record
func (s *Service) PlayerSlots(gameID *uint256.Int, index int) []common.Hash {
	return Range(s.PlayerBase(gameID, index), s.layout.PlayerWordCount)
}

// Offset returns slot + n, wrapping at 2^256 like the EVM
func Offset(slot common.Hash, n uint64) common.Hash {
	v := new(uint256.Int).SetBytes32(slot[:])
	v.AddUint64(v, n)
	return common.Hash(v.Bytes32())
}

// Range returns count consecutive slots starting at start
func Range(start common.Hash, count int) []common.Hash {
	out := make([]common.Hash, count)
	for i := range out {
		out[i] = Offset(start, uint64(i))
	}
	return out
}

// mappingSlot computes keccak256(abi.encode(key, slot))
func mappingSlot(key *uint256.Int, slot uint64) common.Hash {
	k := key.Bytes32()
	p := new(uint256.Int).SetUint64(slot).Bytes32()

	buf := make([]byte, 0, 64)
	buf = append(buf, k[:]...)
	buf = append(buf, p[:]...)
	return keccak(buf)
}

func keccak(data []byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	var out common.Hash
	h.Sum(out[:0])
	return out
}
