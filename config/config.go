// Package config loads the cycle scanner's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/defistate/defistate-cycles-go/graph"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`

	// PoolsFile is a JSON pool set, re-read every ReloadInterval (never if zero).
	PoolsFile      string        `yaml:"pools_file"`
	ReloadInterval time.Duration `yaml:"reload_interval"`

	// ReferenceAmount is the decimal input size every pool is quoted at.
	ReferenceAmount     string `yaml:"reference_amount"`
	CompactionThreshold int    `yaml:"compaction_threshold"`

	Scan ScanConfig `yaml:"scan"`
}

// ScanConfig controls the periodic cycle search.
type ScanConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Workers  int           `yaml:"workers"`
	// Sources are the hex addresses of the tokens every scan starts from.
	Sources []string `yaml:"sources"`

	graph.SearchBudget `yaml:",inline"`
}

func defaultConfig() Config {
	var c Config
	c.LogLevel = "info"
	c.MetricsAddr = ":9090"
	c.PoolsFile = "pools.json"
	c.ReloadInterval = 0
	c.ReferenceAmount = "1000000000000000000"
	c.CompactionThreshold = 1000
	c.Scan.Interval = 2 * time.Second
	c.Scan.Timeout = time.Second
	c.Scan.SearchBudget = graph.DefaultBudget()
	return c
}

// LoadConfig reads the YAML file at path over the defaults, then applies
// CYCLES_LOG_LEVEL and CYCLES_METRICS_ADDR from the environment.
func LoadConfig(path string) (*Config, error) {
	c := defaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if v := os.Getenv("CYCLES_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CYCLES_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.PoolsFile == "" {
		return errors.New("config: pools_file cannot be empty")
	}
	if c.ReloadInterval < 0 {
		return errors.New("config: reload_interval cannot be negative")
	}
	if _, err := c.Reference(); err != nil {
		return err
	}
	if c.Scan.Interval <= 0 {
		return errors.New("config: scan.interval must be positive")
	}
	if c.Scan.Timeout < 0 {
		return errors.New("config: scan.timeout cannot be negative")
	}
	if c.Scan.Workers < 0 {
		return errors.New("config: scan.workers cannot be negative")
	}
	if c.Scan.MaxIterations < 0 || c.Scan.MaxQueueSize < 0 {
		return errors.New("config: scan budget limits cannot be negative")
	}
	if _, err := c.Scan.SourceTokens(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel as a slog level name.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Reference parses ReferenceAmount.
func (c *Config) Reference() (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(c.ReferenceAmount)
	if err != nil {
		return nil, fmt.Errorf("config: invalid reference_amount %q: %w", c.ReferenceAmount, err)
	}
	if amount.IsZero() {
		return nil, errors.New("config: reference_amount must be greater than zero")
	}
	return amount, nil
}

// SourceTokens parses Sources as token addresses.
func (s *ScanConfig) SourceTokens() ([]graph.TokenKey, error) {
	if len(s.Sources) == 0 {
		return nil, errors.New("config: scan.sources cannot be empty")
	}
	tokens := make([]graph.TokenKey, 0, len(s.Sources))
	for _, src := range s.Sources {
		if !common.IsHexAddress(src) {
			return nil, fmt.Errorf("config: invalid source token %q", src)
		}
		tokens = append(tokens, common.HexToAddress(src))
	}
	return tokens, nil
}
