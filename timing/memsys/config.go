package memsys

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the parameters of the memory side of the store path: the
// data cache geometry and the write-port latencies.
type Config struct {
	// HitLatency is the number of cycles between a drain request first
	// appearing at the write port and its grant when the target line is
	// resident. Default: 1 cycle.
	HitLatency uint64 `json:"hit_latency"`

	// MissLatency is the cycles to grant when the target line must be
	// allocated first. Default: 12 cycles.
	MissLatency uint64 `json:"miss_latency"`

	// CacheSize is the data cache capacity in bytes.
	// Default: 128KB.
	CacheSize int `json:"cache_size"`

	// Associativity is the number of ways per set.
	// Default: 8-way.
	Associativity int `json:"associativity"`

	// BlockSize is the cache line size in bytes. Must be a multiple of 8
	// so every 64-bit store lane falls inside one line. Default: 64B.
	BlockSize int `json:"block_size"`
}

// DefaultConfig returns a Config with L1-data-cache-like defaults.
func DefaultConfig() *Config {
	return &Config{
		HitLatency:    1,
		MissLatency:   12,
		CacheSize:     128 * 1024,
		Associativity: 8,
		BlockSize:     64,
	}
}

// SlowMemoryConfig returns a Config with a long miss latency, useful for
// stressing drain backpressure.
func SlowMemoryConfig() *Config {
	config := DefaultConfig()
	config.MissLatency = 40
	return config
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse memory config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize memory config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write memory config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a usable memory system.
func (c *Config) Validate() error {
	if c.HitLatency == 0 {
		return fmt.Errorf("hit_latency must be > 0")
	}
	if c.MissLatency < c.HitLatency {
		return fmt.Errorf("miss_latency must be >= hit_latency")
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	if c.BlockSize <= 0 || c.BlockSize%8 != 0 {
		return fmt.Errorf("block_size must be a positive multiple of 8")
	}
	setBytes := c.Associativity * c.BlockSize
	if c.CacheSize < setBytes || c.CacheSize%setBytes != 0 {
		return fmt.Errorf("cache_size must be a multiple of associativity*block_size")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	return &Config{
		HitLatency:    c.HitLatency,
		MissLatency:   c.MissLatency,
		CacheSize:     c.CacheSize,
		Associativity: c.Associativity,
		BlockSize:     c.BlockSize,
	}
}
