package chain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// extsloadABI is the storage accessor exposed by the game contract
const extsloadABI = `[
	{"type":"function","name":"extsload","stateMutability":"view",
	 "inputs":[{"name":"slot","type":"bytes32"}],
	 "outputs":[{"name":"value","type":"bytes32"}]},
	{"type":"function","name":"extsload","stateMutability":"view",
	 "inputs":[{"name":"startSlot","type":"bytes32"},{"name":"nSlots","type":"uint256"}],
	 "outputs":[{"name":"values","type":"bytes32[]"}]},
	{"type":"function","name":"extsload","stateMutability":"view",
	 "inputs":[{"name":"slots","type":"bytes32[]"}],
	 "outputs":[{"name":"values","type":"bytes32[]"}]}
]`

const (
	sigExtsloadRange = "extsload(bytes32,uint256)"
	sigExtsloadSlots = "extsload(bytes32[])"
)

// Caller is the subset of an Ethereum RPC client the reader needs.
// *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

// Client reads raw contract storage over JSON-RPC
type Client struct {
	caller      Caller
	logger      *slog.Logger
	rangeMethod abi.Method
	slotsMethod abi.Method
	close       func()
}

// New creates a Client on top of an existing Caller
func New(caller Caller, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	parsed, err := abi.JSON(strings.NewReader(extsloadABI))
	if err != nil {
		return nil, fmt.Errorf("parse extsload abi: %w", err)
	}

	c := &Client{
		caller: caller,
		logger: logger.With(slog.String("component", "chain")),
		close:  func() {},
	}
	for _, m := range parsed.Methods {
		switch m.Sig {
		case sigExtsloadRange:
			c.rangeMethod = m
		case sigExtsloadSlots:
			c.slotsMethod = m
		}
	}
	return c, nil
}

// Dial connects to an Ethereum JSON-RPC endpoint
func Dial(ctx context.Context, rpcURL string, logger *slog.Logger) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	c, err := New(ec, logger)
	if err != nil {
		ec.Close()
		return nil, err
	}
	c.close = ec.Close
	return c, nil
}

// Close releases the underlying RPC connection
func (c *Client) Close() {
	c.close()
}

// Extsload reads many slots in one extsload(bytes32[]) call
func (c *Client) Extsload(ctx context.Context, contract common.Address, slots []common.Hash) ([]common.Hash, error) {
	if len(slots) == 0 {
		return []common.Hash{}, nil
	}

	keys := make([][32]byte, len(slots))
	for i, s := range slots {
		keys[i] = s
	}

	return c.callWords(ctx, contract, c.slotsMethod, keys)
}

// ExtsloadRange reads count consecutive slots starting at start
func (c *Client) ExtsloadRange(ctx context.Context, contract common.Address, start common.Hash, count uint64) ([]common.Hash, error) {
	if count == 0 {
		return []common.Hash{}, nil
	}
	return c.callWords(ctx, contract, c.rangeMethod, [32]byte(start), new(big.Int).SetUint64(count))
}

// StorageAt reads a single slot with eth_getStorageAt
func (c *Client) StorageAt(ctx context.Context, contract common.Address, slot common.Hash) (common.Hash, error) {
	raw, err := c.caller.StorageAt(ctx, contract, slot, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("eth_getStorageAt %s: %w", slot.Hex(), err)
	}
	// Short or empty results are uninitialised storage
	return common.BytesToHash(raw), nil
}

func (c *Client) callWords(ctx context.Context, contract common.Address, method abi.Method, args ...any) ([]common.Hash, error) {
	packed, err := method.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method.Sig, err)
	}

	data := append(append([]byte{}, method.ID...), packed...)
	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method.Sig, err)
	}

	values, err := method.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method.Sig, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: expected 1 output, got %d", method.Sig, len(values))
	}
	words, ok := values[0].([][32]byte)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected output type %T", method.Sig, values[0])
	}

	result := make([]common.Hash, len(words))
	for i, w := range words {
		result[i] = w
	}

	c.logger.Debug("extsload",
		slog.String("method", method.Sig),
		slog.String("contract", contract.Hex()),
		slog.Int("words", len(result)),
	)
	return result, nil
}
