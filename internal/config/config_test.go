package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContract = "0x00000000000000000000000000000000000c0ffe"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WHOTSCAN_CONTRACT", testContract)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress(testContract), cfg.Contract)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, StorageTypeMemory, cfg.StorageType)
	assert.Equal(t, 50, cfg.ChunkSize)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WHOTSCAN_CONTRACT", testContract)
	t.Setenv("WHOTSCAN_RPC_URL", "https://rpc.example")
	t.Setenv("WHOTSCAN_STORAGE_TYPE", "REDIS")
	t.Setenv("WHOTSCAN_CHUNK_SIZE", "10")
	t.Setenv("WHOTSCAN_SNAPSHOT_TTL", "500ms")
	t.Setenv("WHOTSCAN_PORT", "9000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://rpc.example", cfg.RPCURL)
	assert.Equal(t, StorageTypeRedis, cfg.StorageType)
	assert.Equal(t, 10, cfg.ChunkSize)
	assert.Equal(t, 500*time.Millisecond, cfg.SnapshotTTL)
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whotscan.yaml")
	content := "contract: " + testContract + "\npoll_interval: 1s\nmax_concurrency: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Environment beats the file
	t.Setenv("WHOTSCAN_MAX_CONCURRENCY", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 4, cfg.MaxConcurrency)
}

func TestLoadFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whotscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contract: "+testContract+"\nport: 7000\n"), 0o600))
	t.Setenv("WHOTSCAN_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing contract", map[string]string{}},
		{"bad contract", map[string]string{"WHOTSCAN_CONTRACT": "0x123"}},
		{"bad storage", map[string]string{"WHOTSCAN_CONTRACT": testContract, "WHOTSCAN_STORAGE_TYPE": "postgres"}},
		{"zero chunk", map[string]string{"WHOTSCAN_CONTRACT": testContract, "WHOTSCAN_CHUNK_SIZE": "0"}},
		{"bad port", map[string]string{"WHOTSCAN_CONTRACT": testContract, "WHOTSCAN_PORT": "70000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WHOTSCAN_CONTRACT", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("WHOTSCAN_CONTRACT", testContract)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
