package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rf24mesh/mesh-go/pkg/radio"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// Config collects the tunables a mesh.Mesh is started and operated
// with: the radio parameters Begin takes positionally, plus the
// protocol timing constants a deployment may want to adjust without
// recompiling.
type Config struct {
	Channel     uint8  `yaml:"channel"`
	DataRateStr string `yaml:"data_rate"`
	Power       string `yaml:"power"`
	BeginTimeoutMs uint32 `yaml:"begin_timeout_ms"`
	MaxChildren int    `yaml:"max_children"`

	LookupTimeoutMs  uint32 `yaml:"lookup_timeout_ms"`
	RenewalTimeoutMs uint32 `yaml:"renewal_timeout_ms"`
	PollTimeoutMs    uint32 `yaml:"poll_timeout_ms"`
	MaxPolls         int    `yaml:"max_polls"`
}

// DefaultConfig returns the protocol's stock timing and radio defaults.
func DefaultConfig() Config {
	return Config{
		Channel:          97,
		DataRateStr:      "1mbps",
		Power:            "high",
		BeginTimeoutMs:   60000,
		MaxChildren:      wire.DefaultMaxChildren,
		LookupTimeoutMs:  3000,
		RenewalTimeoutMs: 60000,
		PollTimeoutMs:    55,
		MaxPolls:         4,
	}
}

// Load reads and validates a Config from a YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the radio or protocol layer cannot
// accept, returning a *wire.Error with kind InvalidParam.
func (c Config) Validate() error {
	if c.Channel > 125 {
		return wire.NewError("Validate", wire.InvalidParam, fmt.Errorf("channel must be 0-125, got %d", c.Channel))
	}
	if _, err := c.dataRate(); err != nil {
		return wire.NewError("Validate", wire.InvalidParam, err)
	}
	if _, err := c.power(); err != nil {
		return wire.NewError("Validate", wire.InvalidParam, err)
	}
	if c.MaxChildren < 1 || c.MaxChildren > wire.HardMaxChildren {
		return wire.NewError("Validate", wire.InvalidParam, fmt.Errorf("max_children must be 1-%d, got %d", wire.HardMaxChildren, c.MaxChildren))
	}
	return nil
}

// DataRate resolves the configured data rate string, defaulting to
// DataRate1Mbps if unset.
func (c Config) DataRate() radio.DataRate {
	rate, _ := c.dataRate()
	return rate
}

// PowerLevel resolves the configured power string, defaulting to
// PowerHigh if unset.
func (c Config) PowerLevel() radio.PowerLevel {
	power, _ := c.power()
	return power
}

func (c Config) dataRate() (radio.DataRate, error) {
	switch c.DataRateStr {
	case "", "1mbps":
		return radio.DataRate1Mbps, nil
	case "2mbps":
		return radio.DataRate2Mbps, nil
	case "250kbps":
		return radio.DataRate250Kbps, nil
	default:
		return 0, fmt.Errorf("unknown data_rate %q", c.DataRateStr)
	}
}

func (c Config) power() (radio.PowerLevel, error) {
	switch c.Power {
	case "min":
		return radio.PowerMin, nil
	case "low":
		return radio.PowerLow, nil
	case "", "high":
		return radio.PowerHigh, nil
	case "max":
		return radio.PowerMax, nil
	default:
		return 0, fmt.Errorf("unknown power %q", c.Power)
	}
}
