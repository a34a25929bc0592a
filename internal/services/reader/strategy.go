package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/whotscan/internal/services/slots"
)

// ErrLengthMismatch is returned when a batched read answers with more words than requested
var ErrLengthMismatch = errors.New("result length does not match requested slots")

// Backend is raw access to contract storage
type Backend interface {
	Extsload(ctx context.Context, contract common.Address, slots []common.Hash) ([]common.Hash, error)
	ExtsloadRange(ctx context.Context, contract common.Address, start common.Hash, count uint64) ([]common.Hash, error)
	StorageAt(ctx context.Context, contract common.Address, slot common.Hash) (common.Hash, error)
}

// Strategy is one way of turning slot keys into words.
// Results are positional: one word per requested slot.
type Strategy interface {
	Name() string
	Load(ctx context.Context, contract common.Address, slots []common.Hash) ([]uint256.Int, error)
	LoadRange(ctx context.Context, contract common.Address, start common.Hash, count int) ([]uint256.Int, error)
}

// BatchStrategy reads every slot in a single extsload call
type BatchStrategy struct {
	backend Backend
}

// NewBatchStrategy creates the batched extsload strategy
func NewBatchStrategy(backend Backend) *BatchStrategy {
	return &BatchStrategy{backend: backend}
}

func (s *BatchStrategy) Name() string {
	return "extsload"
}

func (s *BatchStrategy) Load(ctx context.Context, contract common.Address, keys []common.Hash) ([]uint256.Int, error) {
	hashes, err := s.backend.Extsload(ctx, contract, keys)
	if err != nil {
		return nil, err
	}
	return toWords(hashes, len(keys))
}

func (s *BatchStrategy) LoadRange(ctx context.Context, contract common.Address, start common.Hash, count int) ([]uint256.Int, error) {
	hashes, err := s.backend.ExtsloadRange(ctx, contract, start, uint64(count))
	if err != nil {
		return nil, err
	}
	return toWords(hashes, count)
}

// SlotStrategy reads each slot with its own eth_getStorageAt call
type SlotStrategy struct {
	backend        Backend
	maxConcurrency int
}

// NewSlotStrategy creates the per-slot strategy.
// maxConcurrency bounds in-flight calls; zero or less means unbounded.
func NewSlotStrategy(backend Backend, maxConcurrency int) *SlotStrategy {
	return &SlotStrategy{backend: backend, maxConcurrency: maxConcurrency}
}

func (s *SlotStrategy) Name() string {
	return "getStorageAt"
}

func (s *SlotStrategy) Load(ctx context.Context, contract common.Address, keys []common.Hash) ([]uint256.Int, error) {
	words := make([]uint256.Int, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}
	for i, key := range keys {
		g.Go(func() error {
			h, err := s.backend.StorageAt(gctx, contract, key)
			if err != nil {
				return err
			}
			words[i].SetBytes32(h[:])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return words, nil
}

func (s *SlotStrategy) LoadRange(ctx context.Context, contract common.Address, start common.Hash, count int) ([]uint256.Int, error) {
	return s.Load(ctx, contract, slots.Range(start, count))
}

// toWords converts a batched answer into one word per requested slot.
// Absent trailing values read as zero.
func toWords(hashes []common.Hash, want int) ([]uint256.Int, error) {
	if len(hashes) > want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(hashes), want)
	}
	words := make([]uint256.Int, want)
	for i, h := range hashes {
		words[i].SetBytes32(h[:])
	}
	return words, nil
}
