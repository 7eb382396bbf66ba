// Command mesh-node joins a simulated mesh as a single non-master node
// and opens an interactive console for issuing join, lookup, and write
// operations by hand.
//
// This exercise has no physical radio, so mesh-node carries its own
// embedded master on a private in-memory medium (internal/meshtest)
// rather than attaching to a separately running mesh-master process -
// there is no real transport between two OS processes for a simulated
// radio to ride on. The embedded master is otherwise identical to the
// one cmd/mesh-master runs, just hidden behind this node's join.
//
// Usage:
//
//	mesh-node [flags]
//
// Flags:
//
//	-id uint             Node id, 1-255 (default 7)
//	-channel int          Radio channel (default 97)
//	-config string        YAML config file overriding channel/max-children/power
//	-timeout uint         Join timeout in milliseconds (default 2000)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-log-file string      CBOR protocol event log path (disabled if empty)
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/rf24mesh/mesh-go/cmd/mesh-node/interactive"
	"github.com/rf24mesh/mesh-go/internal/meshtest"
	meshconfig "github.com/rf24mesh/mesh-go/pkg/config"
	meshlog "github.com/rf24mesh/mesh-go/pkg/log"
	"github.com/rf24mesh/mesh-go/pkg/mesh"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// cliConfig holds the node's command-line configuration. Radio and
// protocol knobs fall back to meshconfig.DefaultConfig() unless
// ConfigFile points at a YAML override.
type cliConfig struct {
	ID         uint
	Channel    uint
	ConfigFile string
	TimeoutMs  uint
	LogLevel   string
	LogFile    string
}

var cli cliConfig

func init() {
	flag.UintVar(&cli.ID, "id", 7, "Node id, 1-255")
	flag.UintVar(&cli.Channel, "channel", mesh.DefaultChannel, "Radio channel")
	flag.StringVar(&cli.ConfigFile, "config", "", "YAML config file overriding channel/max-children/power")
	flag.UintVar(&cli.TimeoutMs, "timeout", 2000, "Join timeout in milliseconds")
	flag.StringVar(&cli.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&cli.LogFile, "log-file", "", "CBOR protocol event log path (disabled if empty)")
}

func main() {
	flag.Parse()

	if err := validateConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	meshCfg, err := loadMeshConfig()
	if err != nil {
		log.Fatalf("Invalid mesh config: %v", err)
	}

	logger, closeLogger, err := buildLogger()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLogger()

	medium := meshtest.NewMedium()
	opts := []mesh.Option{mesh.WithLogger(logger), mesh.WithMaxChildren(meshCfg.MaxChildren)}

	master := mesh.New(wire.MasterNodeId, meshtest.NewRadio(), medium.NewNetwork(meshCfg.MaxChildren), opts...)
	if err := master.Begin(meshCfg.Channel, meshCfg.DataRate(), meshCfg.PowerLevel(), 0); err != nil {
		log.Fatalf("Failed to start embedded master: %v", err)
	}
	masterStop := make(chan struct{})
	go meshtest.Pump(master, masterStop)
	defer close(masterStop)

	node := mesh.New(wire.NodeId(cli.ID), meshtest.NewRadio(), medium.NewNetwork(meshCfg.MaxChildren), opts...)
	if err := node.Begin(meshCfg.Channel, meshCfg.DataRate(), meshCfg.PowerLevel(), uint32(cli.TimeoutMs)); err != nil {
		log.Fatalf("Failed to join mesh: %v", err)
	}
	log.Printf("Node %d joined the mesh", cli.ID)

	console, err := interactive.New(node)
	if err != nil {
		log.Fatalf("Failed to start console: %v", err)
	}
	console.Run(nil)
}

func validateConfig() error {
	if cli.ID < 1 || cli.ID > 255 {
		return fmt.Errorf("id must be 1-255, got %d", cli.ID)
	}
	if cli.Channel > 125 {
		return fmt.Errorf("channel must be 0-125, got %d", cli.Channel)
	}
	return nil
}

// loadMeshConfig resolves the radio/timing config: from -config's YAML
// file when given, otherwise from the -channel flag atop
// meshconfig.DefaultConfig()'s remaining fields.
func loadMeshConfig() (meshconfig.Config, error) {
	if cli.ConfigFile != "" {
		return meshconfig.Load(cli.ConfigFile)
	}
	cfg := meshconfig.DefaultConfig()
	cfg.Channel = uint8(cli.Channel)
	if err := cfg.Validate(); err != nil {
		return meshconfig.Config{}, err
	}
	return cfg, nil
}

func buildLogger() (meshlog.Logger, func(), error) {
	var level slog.Level
	switch cli.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	loggers := []meshlog.Logger{meshlog.NewSlogAdapter(slog.New(handler))}
	closeFn := func() {}

	if cli.LogFile != "" {
		fileLogger, err := meshlog.NewFileLogger(cli.LogFile)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fileLogger)
		closeFn = func() { _ = fileLogger.Close() }
	}

	return meshlog.NewMultiLogger(loggers...), closeFn, nil
}
