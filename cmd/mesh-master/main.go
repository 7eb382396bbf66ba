// Command mesh-master runs the address-assignment master of a simulated
// mesh: it owns node id 0, accepts joins from the simulated nodes it
// starts in its own process (-nodes), and periodically reports its
// binding table.
//
// This exercise has no physical radio, so the master is wired to an
// in-memory simulated medium (internal/meshtest) rather than a real
// transceiver. A master and however many nodes the demo wants are all
// started in the same process, joined to the same medium, so the pair
// of binaries can still be run and inspected as distinct commands.
//
// Usage:
//
//	mesh-master [flags]
//
// Flags:
//
//	-channel int        Radio channel (default 97)
//	-max-children int    Child slots per node, 1-5 (default 4)
//	-config string       YAML config file overriding channel/max-children/power (§12)
//	-nodes int           Simulated child nodes to join at startup (default 0)
//	-store string        Binding snapshot file path (disabled if empty)
//	-log-level string    Log level: debug, info, warn, error (default "info")
//	-log-file string     CBOR protocol event log path (disabled if empty)
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rf24mesh/mesh-go/internal/meshtest"
	meshconfig "github.com/rf24mesh/mesh-go/pkg/config"
	meshlog "github.com/rf24mesh/mesh-go/pkg/log"
	"github.com/rf24mesh/mesh-go/pkg/mesh"
	"github.com/rf24mesh/mesh-go/pkg/persistence"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// cliConfig holds the master's command-line configuration. Radio and
// protocol knobs fall back to meshconfig.DefaultConfig() unless
// ConfigFile points at a YAML override.
type cliConfig struct {
	Channel     uint
	MaxChildren int
	ConfigFile  string
	SimNodes    int
	StorePath   string
	LogLevel    string
	LogFile     string
}

var cli cliConfig

func init() {
	flag.UintVar(&cli.Channel, "channel", mesh.DefaultChannel, "Radio channel")
	flag.IntVar(&cli.MaxChildren, "max-children", wire.DefaultMaxChildren, "Child slots per node, 1-5")
	flag.StringVar(&cli.ConfigFile, "config", "", "YAML config file overriding channel/max-children/power")
	flag.IntVar(&cli.SimNodes, "nodes", 0, "Simulated child nodes to join at startup")
	flag.StringVar(&cli.StorePath, "store", "", "Binding snapshot file path (disabled if empty)")
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

	opts := []mesh.Option{
		mesh.WithLogger(logger),
		mesh.WithMaxChildren(meshCfg.MaxChildren),
	}
	if cli.StorePath != "" {
		opts = append(opts, mesh.WithSnapshotStore(persistence.NewFileStore(cli.StorePath)))
	}

	medium := meshtest.NewMedium()
	master := mesh.New(wire.MasterNodeId, meshtest.NewRadio(), medium.NewNetwork(meshCfg.MaxChildren), opts...)

	if cli.StorePath != "" {
		if err := master.LoadDHCP(); err != nil {
			log.Printf("No prior snapshot loaded: %v", err)
		}
	}

	if err := master.Begin(meshCfg.Channel, meshCfg.DataRate(), meshCfg.PowerLevel(), 0); err != nil {
		log.Fatalf("Failed to start master: %v", err)
	}
	log.Printf("Mesh master running (channel %d, max-children %d)", meshCfg.Channel, meshCfg.MaxChildren)

	stop := make(chan struct{})
	go meshtest.Pump(master, stop)
	simIDs := runSimulatedNodes(medium, cli.SimNodes, meshCfg, opts)
	go reportBindings(master, simIDs, stop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal: %v, shutting down", sig)
	close(stop)

	if cli.StorePath != "" {
		if err := master.SaveDHCP(); err != nil {
			log.Printf("Failed to save binding snapshot: %v", err)
		}
	}
}

func validateConfig() error {
	if cli.Channel > 125 {
		return fmt.Errorf("channel must be 0-125, got %d", cli.Channel)
	}
	if cli.MaxChildren < 1 || cli.MaxChildren > wire.HardMaxChildren {
		return fmt.Errorf("max-children must be 1-%d, got %d", wire.HardMaxChildren, cli.MaxChildren)
	}
	if cli.SimNodes < 0 {
		return fmt.Errorf("nodes must be >= 0, got %d", cli.SimNodes)
	}
	return nil
}

// loadMeshConfig resolves the radio/timing config: from -config's YAML
// file when given, otherwise from the -channel/-max-children flags atop
// meshconfig.DefaultConfig()'s remaining fields.
func loadMeshConfig() (meshconfig.Config, error) {
	if cli.ConfigFile != "" {
		return meshconfig.Load(cli.ConfigFile)
	}
	cfg := meshconfig.DefaultConfig()
	cfg.Channel = uint8(cli.Channel)
	cfg.MaxChildren = cli.MaxChildren
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

// runSimulatedNodes joins n throwaway nodes to the master's medium so a
// freshly started mesh-master has something populating its binding
// table for demo purposes, and returns their ids for reportBindings.
func runSimulatedNodes(medium *meshtest.Medium, n int, meshCfg meshconfig.Config, opts []mesh.Option) []wire.NodeId {
	ids := make([]wire.NodeId, 0, n)
	for i := 0; i < n; i++ {
		id := wire.NodeId(i + 1)
		node := mesh.New(id, meshtest.NewRadio(), medium.NewNetwork(wire.DefaultMaxChildren), opts...)
		if err := node.Begin(meshCfg.Channel, meshCfg.DataRate(), meshCfg.PowerLevel(), 2000); err != nil {
			log.Printf("Simulated node %d failed to join: %v", id, err)
			continue
		}
		log.Printf("Simulated node %d joined", id)
		ids = append(ids, id)
	}
	return ids
}

// reportBindings periodically logs the addresses the master resolved
// for each simulated node, as a visible heartbeat of the binding table.
func reportBindings(m *mesh.Mesh, ids []wire.NodeId, stop <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, id := range ids {
				if addr, err := m.GetAddress(id); err == nil {
					log.Printf("binding: id %d -> addr %s", id, addr)
				}
			}
		}
	}
}
