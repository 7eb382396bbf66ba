// Package interactive provides the interactive command-line console for
// mesh-node, letting an operator drive a running node's join, lookup,
// and write operations by hand.
package interactive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/rf24mesh/mesh-go/pkg/mesh"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// Node drives the interactive console for one running mesh.Mesh.
type Node struct {
	m  *mesh.Mesh
	rl *readline.Instance
}

// New creates a console bound to m.
func New(m *mesh.Mesh) (*Node, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "node> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Node{m: m, rl: rl}, nil
}

// Run starts the interactive command loop. It returns when the user
// exits, the input stream is closed, or stop is closed.
func (n *Node) Run(stop <-chan struct{}) {
	defer n.rl.Close()
	n.printHelp()

	for {
		select {
		case <-stop:
			return
		default:
		}

		line, err := n.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(n.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			n.printHelp()
		case "renew":
			n.cmdRenew(args)
		case "release":
			n.cmdRelease()
		case "getaddress", "ga":
			n.cmdGetAddress(args)
		case "getnodeid", "gid":
			n.cmdGetNodeID(args)
		case "write", "w":
			n.cmdWrite(args)
		case "check":
			n.cmdCheck()
		case "quit", "exit", "q":
			fmt.Fprintln(n.rl.Stdout(), "Exiting...")
			return
		default:
			fmt.Fprintf(n.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (n *Node) printHelp() {
	fmt.Fprintln(n.rl.Stdout(), `
Mesh Node Commands:
  renew <timeoutMs>        - Re-run the join/renew state machine
  release                  - Release this node's address
  getaddress <nodeId>       - Resolve a node id to its address
  getnodeid <addr>          - Resolve an address to its node id (octal)
  write <nodeId> <text>     - Send a NETWORK_PING payload to nodeId
  check                     - Ping the master and report liveness
  help                      - Show this help
  quit                      - Exit the console`)
}

func (n *Node) cmdRenew(args []string) {
	timeout := uint32(60000)
	if len(args) > 0 {
		if v, err := strconv.ParseUint(args[0], 10, 32); err == nil {
			timeout = uint32(v)
		}
	}
	addr, err := n.m.RenewAddress(timeout)
	if err != nil {
		fmt.Fprintf(n.rl.Stdout(), "renew failed: %v\n", err)
		return
	}
	fmt.Fprintf(n.rl.Stdout(), "joined at address %s\n", addr)
}

func (n *Node) cmdRelease() {
	if err := n.m.ReleaseAddress(); err != nil {
		fmt.Fprintf(n.rl.Stdout(), "release failed: %v\n", err)
		return
	}
	fmt.Fprintln(n.rl.Stdout(), "released")
}

func (n *Node) cmdGetAddress(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(n.rl.Stdout(), "usage: getaddress <nodeId>")
		return
	}
	id, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		fmt.Fprintf(n.rl.Stdout(), "invalid node id: %v\n", err)
		return
	}
	addr, err := n.m.GetAddress(wire.NodeId(id))
	if err != nil {
		fmt.Fprintf(n.rl.Stdout(), "lookup failed: %v\n", err)
		return
	}
	fmt.Fprintf(n.rl.Stdout(), "id %d -> addr %s\n", id, addr)
}

func (n *Node) cmdGetNodeID(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(n.rl.Stdout(), "usage: getnodeid <addrOctal>")
		return
	}
	v, err := strconv.ParseUint(args[0], 8, 16)
	if err != nil {
		fmt.Fprintf(n.rl.Stdout(), "invalid address: %v\n", err)
		return
	}
	id, err := n.m.GetNodeID(wire.Addr(v))
	if err != nil {
		fmt.Fprintf(n.rl.Stdout(), "lookup failed: %v\n", err)
		return
	}
	fmt.Fprintf(n.rl.Stdout(), "addr %s -> id %d\n", wire.Addr(v), id)
}

func (n *Node) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(n.rl.Stdout(), "usage: write <nodeId> <text>")
		return
	}
	id, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		fmt.Fprintf(n.rl.Stdout(), "invalid node id: %v\n", err)
		return
	}
	payload := strings.Join(args[1:], " ")
	if err := n.m.Write(wire.NetworkPing, []byte(payload), wire.NodeId(id)); err != nil {
		fmt.Fprintf(n.rl.Stdout(), "write failed: %v\n", err)
		return
	}
	fmt.Fprintln(n.rl.Stdout(), "sent")
}

func (n *Node) cmdCheck() {
	if n.m.CheckConnection() {
		fmt.Fprintln(n.rl.Stdout(), "master reachable")
	} else {
		fmt.Fprintln(n.rl.Stdout(), "master unreachable")
	}
}
