package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
log_level: debug
metrics_addr: ":9191"
pools_file: /var/lib/cycles/pools.json
reload_interval: 30s
reference_amount: "1000000000000000"
compaction_threshold: 64
scan:
  interval: 500ms
  timeout: 250ms
  workers: 4
  max_iterations: 5000
  max_queue_size: 20000
  sources:
    - "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
    - "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9191", cfg.MetricsAddr)
	assert.Equal(t, 30*time.Second, cfg.ReloadInterval)
	assert.Equal(t, 64, cfg.CompactionThreshold)
	assert.Equal(t, 500*time.Millisecond, cfg.Scan.Interval)
	assert.Equal(t, 250*time.Millisecond, cfg.Scan.Timeout)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 5000, cfg.Scan.MaxIterations)
	assert.Equal(t, 20000, cfg.Scan.MaxQueueSize)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	ref, err := cfg.Reference()
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000", ref.Dec())

	sources, err := cfg.Scan.SourceTokens()
	require.NoError(t, err)
	assert.Equal(t, []common.Address{
		common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"),
		common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"),
	}, sources)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "scan:\n  sources: [\"0x0000000000000000000000000000000000000001\"]\n"))
	require.NoError(t, err)

	def := defaultConfig()
	assert.Equal(t, def.MetricsAddr, cfg.MetricsAddr)
	assert.Equal(t, def.Scan.Interval, cfg.Scan.Interval)
	assert.Equal(t, def.Scan.SearchBudget, cfg.Scan.SearchBudget)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CYCLES_LOG_LEVEL", "warn")
	t.Setenv("CYCLES_METRICS_ADDR", ":1234")

	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":1234", cfg.MetricsAddr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"malformed yaml", "scan: ["},
		{"no sources", "log_level: info\n"},
		{"bad source", "scan:\n  sources: [\"not-an-address\"]\n"},
		{"bad level", "log_level: loud\nscan:\n  sources: [\"0x0000000000000000000000000000000000000001\"]\n"},
		{"zero reference", "reference_amount: \"0\"\nscan:\n  sources: [\"0x0000000000000000000000000000000000000001\"]\n"},
		{"bad reference", "reference_amount: \"ten\"\nscan:\n  sources: [\"0x0000000000000000000000000000000000000001\"]\n"},
		{"zero interval", "scan:\n  interval: 0s\n  sources: [\"0x0000000000000000000000000000000000000001\"]\n"},
		{"negative workers", "scan:\n  workers: -1\n  sources: [\"0x0000000000000000000000000000000000000001\"]\n"},
		{"negative budget", "scan:\n  max_iterations: -5\n  sources: [\"0x0000000000000000000000000000000000000001\"]\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
