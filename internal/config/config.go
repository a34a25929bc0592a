package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. WHOTSCAN_RPC_URL
const EnvPrefix = "WHOTSCAN"

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Config is the server configuration after defaults, file and environment
type Config struct {
	RPCURL   string
	Contract common.Address

	StorageType string
	RedisURL    string
	SnapshotTTL time.Duration
	HandTTL     time.Duration

	ChunkSize      int
	MaxConcurrency int
	PollInterval   time.Duration

	Host     string
	Port     int
	LogLevel string
}

// Keys understood by Load. Environment variables use the upper-cased key.
const (
	keyRPCURL         = "rpc_url"
	keyContract       = "contract"
	keyStorageType    = "storage_type"
	keyRedisURL       = "redis_url"
	keySnapshotTTL    = "snapshot_ttl"
	keyHandTTL        = "hand_ttl"
	keyChunkSize      = "chunk_size"
	keyMaxConcurrency = "max_concurrency"
	keyPollInterval   = "poll_interval"
	keyHost           = "host"
	keyPort           = "port"
	keyLogLevel       = "log_level"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyRPCURL, "http://localhost:8545")
	v.SetDefault(keyContract, "")
	v.SetDefault(keyStorageType, StorageTypeMemory)
	v.SetDefault(keyRedisURL, "redis://localhost:6379")
	v.SetDefault(keySnapshotTTL, 2*time.Second)
	v.SetDefault(keyHandTTL, 24*time.Hour)
	v.SetDefault(keyChunkSize, 50)
	v.SetDefault(keyMaxConcurrency, 8)
	v.SetDefault(keyPollInterval, 3*time.Second)
	v.SetDefault(keyHost, "")
	v.SetDefault(keyPort, 8080)
	v.SetDefault(keyLogLevel, "info")
}

// Load reads configuration from defaults, an optional config file and the
// environment, in increasing precedence. An empty path falls back to
// WHOTSCAN_CONFIG; with neither set no file is read.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		RPCURL:         v.GetString(keyRPCURL),
		StorageType:    strings.ToLower(v.GetString(keyStorageType)),
		RedisURL:       v.GetString(keyRedisURL),
		SnapshotTTL:    v.GetDuration(keySnapshotTTL),
		HandTTL:        v.GetDuration(keyHandTTL),
		ChunkSize:      v.GetInt(keyChunkSize),
		MaxConcurrency: v.GetInt(keyMaxConcurrency),
		PollInterval:   v.GetDuration(keyPollInterval),
		Host:           v.GetString(keyHost),
		Port:           v.GetInt(keyPort),
		LogLevel:       v.GetString(keyLogLevel),
	}

	contract := v.GetString(keyContract)
	if contract == "" {
		return nil, errors.New("contract address is required (set WHOTSCAN_CONTRACT)")
	}
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid contract address %q", contract)
	}
	cfg.Contract = common.HexToAddress(contract)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that viper cannot express
func (c *Config) Validate() error {
	switch c.StorageType {
	case StorageTypeMemory, StorageTypeRedis:
	default:
		return fmt.Errorf("invalid storage type %q: must be %q or %q", c.StorageType, StorageTypeMemory, StorageTypeRedis)
	}
	if c.RPCURL == "" {
		return errors.New("rpc url is required")
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.SnapshotTTL < 0 || c.HandTTL < 0 {
		return errors.New("ttls must not be negative")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}
