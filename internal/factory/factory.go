package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mcoot/whotscan/internal/chain"
	"github.com/mcoot/whotscan/internal/config"
	"github.com/mcoot/whotscan/internal/dependencies/clock"
	"github.com/mcoot/whotscan/internal/layout"
	"github.com/mcoot/whotscan/internal/services/decoder"
	"github.com/mcoot/whotscan/internal/services/games"
	"github.com/mcoot/whotscan/internal/services/reader"
	"github.com/mcoot/whotscan/internal/services/slots"
	"github.com/mcoot/whotscan/internal/sse"
	"github.com/mcoot/whotscan/internal/storage"
	"github.com/mcoot/whotscan/internal/storage/memory"
	redisstorage "github.com/mcoot/whotscan/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock   clock.Clock
	Backend reader.Backend

	// Services
	Layout      layout.Layout
	SlotService *slots.Service
	Decoder     *decoder.Service
	Reader      *reader.Reader
	GameService *games.Service
	HubManager  *sse.HubManager

	closers []func()
}

// Config holds configuration for the application factory
type Config struct {
	// RPCURL is the JSON-RPC endpoint of the chain
	RPCURL string
	// Contract is the game contract address
	Contract common.Address
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the cache backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SnapshotTTL and HandTTL configure the memory cache; redis reads its own config
	SnapshotTTL time.Duration
	HandTTL     time.Duration
	// ChunkSize and MaxConcurrency bound chain reads (optional)
	ChunkSize      int
	MaxConcurrency int
	// PollInterval is how often watched games are re-read
	PollInterval time.Duration
}

// ConfigFrom converts loaded server configuration into factory configuration
func ConfigFrom(cfg *config.Config, logger *slog.Logger) Config {
	fc := Config{
		RPCURL:         cfg.RPCURL,
		Contract:       cfg.Contract,
		Logger:         logger,
		StorageType:    cfg.StorageType,
		SnapshotTTL:    cfg.SnapshotTTL,
		HandTTL:        cfg.HandTTL,
		ChunkSize:      cfg.ChunkSize,
		MaxConcurrency: cfg.MaxConcurrency,
		PollInterval:   cfg.PollInterval,
	}
	if cfg.StorageType == config.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.Namespace = cfg.Contract.Hex()
		redisCfg.SnapshotTTL = cfg.SnapshotTTL
		redisCfg.HandTTL = cfg.HandTTL
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// New dials the chain and creates an application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()

	// Create storage based on type
	var (
		store   storage.Storage
		closers []func()
	)
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageTypeMemory
	}

	switch storageType {
	case config.StorageTypeMemory:
		store = memory.New(clk, memory.Config{SnapshotTTL: cfg.SnapshotTTL, HandTTL: cfg.HandTTL})
	case config.StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, func() { _ = redisStore.Close() })
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	client, err := chain.Dial(ctx, cfg.RPCURL, logger)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, err
	}
	closers = append(closers, client.Close)

	app := newWithDependencies(client, store, clk, cfg, logger)
	app.closers = append(closers, app.closers...)
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(backend reader.Backend, store storage.Storage, clk clock.Clock, cfg Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	readerCfg := reader.DefaultConfig()
	if cfg.MaxConcurrency > 0 {
		readerCfg.MaxConcurrency = cfg.MaxConcurrency
	}
	gamesCfg := games.DefaultConfig()
	gamesCfg.Contract = cfg.Contract
	gamesCfg.SnapshotTTL = cfg.SnapshotTTL
	if cfg.ChunkSize > 0 {
		gamesCfg.ChunkSize = cfg.ChunkSize
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	l := layout.Default()
	slotService := slots.New(l)
	dec := decoder.New(l)
	rd := reader.NewWithBackend(backend, readerCfg, logger)
	gameService := games.NewService(gamesCfg, slotService, rd, dec, store, clk, logger)
	hubManager := sse.NewHubManager(gameService, clk, pollInterval, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Backend:     backend,
		Layout:      l,
		SlotService: slotService,
		Decoder:     dec,
		Reader:      rd,
		GameService: gameService,
		HubManager:  hubManager,
		closers:     []func(){hubManager.Close},
	}
}

// Close stops watchers and releases chain and storage connections
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
