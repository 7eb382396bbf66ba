package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rf24mesh/mesh-go/pkg/config"
	"github.com/rf24mesh/mesh-go/pkg/radio"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, config.DefaultConfig().Validate())
}

func TestDefaultConfigResolvesRadioKnobs(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, radio.DataRate1Mbps, cfg.DataRate())
	assert.Equal(t, radio.PowerHigh, cfg.PowerLevel())
}

func TestValidateRejectsBadMaxChildren(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxChildren = wire.HardMaxChildren + 1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, wire.InvalidParam, wire.KindOf(err))
}

func TestValidateRejectsUnknownDataRate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataRateStr = "9mbps"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, wire.InvalidParam, wire.KindOf(err))
}

func TestLoadParsesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.yaml")
	contents := "channel: 40\nmax_children: 3\npower: low\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(40), cfg.Channel)
	assert.Equal(t, 3, cfg.MaxChildren)
	assert.Equal(t, radio.PowerLow, cfg.PowerLevel())
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
