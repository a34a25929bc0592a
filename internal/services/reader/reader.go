package reader

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Config holds reader settings
type Config struct {
	// MaxConcurrency bounds parallel eth_getStorageAt calls on the fallback path
	MaxConcurrency int
}

// DefaultConfig returns sensible defaults for the reader
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 8,
	}
}

// ReadError reports that both the primary and the fallback strategy failed
type ReadError struct {
	PrimaryStrategy  string
	FallbackStrategy string
	Primary          error
	Fallback         error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("storage read failed: %s: %v (after %s: %v)",
		e.FallbackStrategy, e.Fallback, e.PrimaryStrategy, e.Primary)
}

// Unwrap exposes both underlying errors to errors.Is and errors.As
func (e *ReadError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}

// Reader fetches storage words, trying the primary strategy once and the
// fallback strategy once if the primary fails. It never retries or caches.
type Reader struct {
	primary  Strategy
	fallback Strategy
	logger   *slog.Logger
}

// New creates a Reader from two strategies
func New(primary, fallback Strategy, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Reader{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With(slog.String("component", "reader")),
	}
}

// NewWithBackend creates a Reader using extsload with a getStorageAt fallback
func NewWithBackend(backend Backend, cfg Config, logger *slog.Logger) *Reader {
	return New(NewBatchStrategy(backend), NewSlotStrategy(backend, cfg.MaxConcurrency), logger)
}

// ReadWords returns one word per slot, in order
func (r *Reader) ReadWords(ctx context.Context, contract common.Address, keys []common.Hash) ([]uint256.Int, error) {
	if len(keys) == 0 {
		return []uint256.Int{}, nil
	}
	return r.read(len(keys), func(s Strategy) ([]uint256.Int, error) {
		return s.Load(ctx, contract, keys)
	})
}

// ReadRange returns count consecutive words starting at start
func (r *Reader) ReadRange(ctx context.Context, contract common.Address, start common.Hash, count int) ([]uint256.Int, error) {
	if count <= 0 {
		return []uint256.Int{}, nil
	}
	return r.read(count, func(s Strategy) ([]uint256.Int, error) {
		return s.LoadRange(ctx, contract, start, count)
	})
}

func (r *Reader) read(n int, load func(Strategy) ([]uint256.Int, error)) ([]uint256.Int, error) {
	words, err := load(r.primary)
	if err == nil {
		return words, nil
	}

	r.logger.Warn("primary storage read failed, using fallback",
		slog.String("primary", r.primary.Name()),
		slog.String("fallback", r.fallback.Name()),
		slog.Int("slots", n),
		slog.String("error", err.Error()),
	)

	words, fallbackErr := load(r.fallback)
	if fallbackErr != nil {
		r.logger.Error("fallback storage read failed",
			slog.String("fallback", r.fallback.Name()),
			slog.Int("slots", n),
			slog.String("error", fallbackErr.Error()),
		)
		return nil, &ReadError{
			PrimaryStrategy:  r.primary.Name(),
			FallbackStrategy: r.fallback.Name(),
			Primary:          err,
			Fallback:         fallbackErr,
		}
	}
	return words, nil
}
