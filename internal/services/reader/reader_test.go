package reader_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/whotscan/internal/dependencies/mocks"
	"github.com/mcoot/whotscan/internal/services/reader"
	"github.com/mcoot/whotscan/internal/testutil"
)

var contract = common.HexToAddress("0x00000000000000000000000000000000000c0ffe")

// stubStrategy returns canned results and counts invocations
type stubStrategy struct {
	name   string
	words  []uint256.Int
	err    error
	loads  int
	ranges int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Load(_ context.Context, _ common.Address, _ []common.Hash) ([]uint256.Int, error) {
	s.loads++
	return s.words, s.err
}

func (s *stubStrategy) LoadRange(_ context.Context, _ common.Address, _ common.Hash, _ int) ([]uint256.Int, error) {
	s.ranges++
	return s.words, s.err
}

func keys(n int) []common.Hash {
	out := make([]common.Hash, n)
	for i := range out {
		out[i] = common.BigToHash(uint256.NewInt(uint64(100 + i)).ToBig())
	}
	return out
}

func TestFallbackRunsOncePerCallWhenPrimaryFails(t *testing.T) {
	primary := &stubStrategy{name: "primary", err: errors.New("no extsload")}
	fallback := &stubStrategy{name: "fallback", words: []uint256.Int{*uint256.NewInt(1), *uint256.NewInt(2)}}
	r := reader.New(primary, fallback, testutil.NopLogger())

	for call := 1; call <= 3; call++ {
		words, err := r.ReadWords(t.Context(), contract, keys(2))
		require.NoError(t, err)
		assert.Equal(t, fallback.words, words)
		assert.Equal(t, call, primary.loads)
		assert.Equal(t, call, fallback.loads)
	}
}

func TestFallbackNeverRunsWhenPrimarySucceeds(t *testing.T) {
	primary := &stubStrategy{name: "primary", words: []uint256.Int{*uint256.NewInt(9)}}
	fallback := &stubStrategy{name: "fallback"}
	r := reader.New(primary, fallback, testutil.NopLogger())

	words, err := r.ReadWords(t.Context(), contract, keys(1))
	require.NoError(t, err)
	assert.Equal(t, primary.words, words)

	_, err = r.ReadRange(t.Context(), contract, common.Hash{}, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, primary.loads)
	assert.Equal(t, 1, primary.ranges)
	assert.Zero(t, fallback.loads)
	assert.Zero(t, fallback.ranges)
}

func TestBothStrategiesFail(t *testing.T) {
	primaryErr := errors.New("extsload reverted")
	fallbackErr := errors.New("connection refused")
	primary := &stubStrategy{name: "extsload", err: primaryErr}
	fallback := &stubStrategy{name: "getStorageAt", err: fallbackErr}
	r := reader.New(primary, fallback, testutil.NopLogger())

	_, err := r.ReadWords(t.Context(), contract, keys(3))
	require.Error(t, err)

	var readErr *reader.ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "extsload", readErr.PrimaryStrategy)
	assert.Equal(t, "getStorageAt", readErr.FallbackStrategy)
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, fallbackErr)
	assert.Contains(t, err.Error(), "connection refused")

	// single attempt each, no retry loop
	assert.Equal(t, 1, primary.loads)
	assert.Equal(t, 1, fallback.loads)
}

func TestEmptyReadsMakeNoCalls(t *testing.T) {
	primary := &stubStrategy{name: "primary"}
	fallback := &stubStrategy{name: "fallback"}
	r := reader.New(primary, fallback, nil)

	words, err := r.ReadWords(t.Context(), contract, nil)
	require.NoError(t, err)
	assert.Empty(t, words)

	words, err = r.ReadRange(t.Context(), contract, common.Hash{}, 0)
	require.NoError(t, err)
	assert.Empty(t, words)

	assert.Zero(t, primary.loads+primary.ranges+fallback.loads+fallback.ranges)
}

func TestBackendBatchPath(t *testing.T) {
	backend := mocks.NewMockBackend()
	ks := keys(3)
	backend.SetWord(ks[0], uint256.NewInt(11))
	backend.SetWord(ks[2], uint256.NewInt(33))

	r := reader.NewWithBackend(backend, reader.DefaultConfig(), testutil.NopLogger())
	words, err := r.ReadWords(t.Context(), contract, ks)
	require.NoError(t, err)

	// the missing middle slot reads as zero
	assert.Equal(t, []uint256.Int{*uint256.NewInt(11), {}, *uint256.NewInt(33)}, words)
	assert.Equal(t, 1, backend.ExtsloadCalls())
	assert.Zero(t, backend.StorageAtCalls())
}

func TestBackendFallbackPath(t *testing.T) {
	backend := mocks.NewMockBackend()
	backend.ExtsloadErr = errors.New("function selector was not recognized")
	ks := keys(5)
	for i, k := range ks {
		backend.SetWord(k, uint256.NewInt(uint64(i+1)))
	}

	r := reader.NewWithBackend(backend, reader.Config{MaxConcurrency: 2}, testutil.NopLogger())
	words, err := r.ReadWords(t.Context(), contract, ks)
	require.NoError(t, err)

	require.Len(t, words, 5)
	for i := range words {
		assert.Equal(t, uint64(i+1), words[i].Uint64(), "position %d", i)
	}
	assert.Equal(t, 1, backend.ExtsloadCalls())
	assert.Equal(t, 5, backend.StorageAtCalls())
}

func TestBackendShortBatchPadsWithZero(t *testing.T) {
	backend := mocks.NewMockBackend()
	backend.DropLastWord = true
	backend.StorageAtErr = errors.New("rpc down")
	ks := keys(2)
	backend.SetWord(ks[0], uint256.NewInt(5))
	backend.SetWord(ks[1], uint256.NewInt(7))

	r := reader.NewWithBackend(backend, reader.DefaultConfig(), testutil.NopLogger())
	words, err := r.ReadWords(t.Context(), contract, ks)
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, uint64(5), words[0].Uint64())
	assert.True(t, words[1].IsZero())
	assert.Equal(t, 1, backend.ExtsloadCalls())
	assert.Equal(t, 0, backend.StorageAtCalls())
}

func TestBackendShortRangePadsWithZero(t *testing.T) {
	backend := mocks.NewMockBackend()
	backend.DropLastWord = true
	backend.StorageAtErr = errors.New("rpc down")
	start := common.HexToHash("0x40")
	backend.SetWords(start, uint256.NewInt(1), uint256.NewInt(2), uint256.NewInt(3))

	r := reader.NewWithBackend(backend, reader.DefaultConfig(), testutil.NopLogger())
	words, err := r.ReadRange(t.Context(), contract, start, 3)
	require.NoError(t, err)
	require.Len(t, words, 3)
	assert.Equal(t, uint64(1), words[0].Uint64())
	assert.Equal(t, uint64(2), words[1].Uint64())
	assert.True(t, words[2].IsZero())
	assert.Equal(t, 0, backend.StorageAtCalls())
}

func TestBackendRangeFallback(t *testing.T) {
	backend := mocks.NewMockBackend()
	start := common.HexToHash("0x40")
	backend.SetWords(start, uint256.NewInt(1), uint256.NewInt(2), uint256.NewInt(3))

	r := reader.NewWithBackend(backend, reader.DefaultConfig(), testutil.NopLogger())

	words, err := r.ReadRange(t.Context(), contract, start, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), words[2].Uint64())
	assert.Equal(t, 1, backend.ExtsloadRangeCalls())

	backend.ResetCalls()
	backend.ExtsloadErr = errors.New("boom")
	words, err = r.ReadRange(t.Context(), contract, start, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), words[1].Uint64())
	assert.Equal(t, 3, backend.StorageAtCalls())
}

func TestBackendBothPathsFail(t *testing.T) {
	backend := mocks.NewMockBackend()
	backend.ExtsloadErr = errors.New("boom")
	backend.StorageAtErr = errors.New("rpc down")

	r := reader.NewWithBackend(backend, reader.DefaultConfig(), testutil.NopLogger())
	_, err := r.ReadWords(t.Context(), contract, keys(4))

	var readErr *reader.ReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, backend.StorageAtErr)
	assert.Equal(t, 1, backend.ExtsloadCalls())
}
