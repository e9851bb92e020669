// Package interactive provides the interactive command shell of the
// opclink client.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/opclink/opclink-go/pkg/access"
	"github.com/opclink/opclink-go/pkg/discovery"
	"github.com/opclink/opclink-go/pkg/session"
)

// discoverWindow bounds the mDNS browse started by the discover command.
const discoverWindow = 5 * time.Second

// Shell handles the interactive CLI for the opclink client.
type Shell struct {
	mgr *session.Manager
	svc *access.Service
	rl  *readline.Instance
}

// New creates an interactive shell on top of the session manager and
// access service.
func New(mgr *session.Manager, svc *access.Service) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "opclink> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &Shell{
		mgr: mgr,
		svc: svc,
		rl:  rl,
	}, nil
}

// Stdout returns a writer that cooperates with the readline prompt.
// Log output should be redirected here while the shell runs.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run processes commands until the context is cancelled or the user
// exits.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err != nil {
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		cmd := strings.ToLower(fields[0])
		args := fields[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()
		case "connect", "c":
			s.cmdConnect(ctx)
		case "disconnect", "d":
			s.cmdDisconnect()
		case "read", "r":
			s.cmdRead(ctx, args)
		case "write", "w":
			s.cmdWrite(ctx, args)
		case "readmany", "rm":
			s.cmdReadMany(ctx, args)
		case "aliases", "a":
			s.cmdAliases()
		case "status", "diag":
			s.cmdStatus()
		case "discover":
			s.cmdDiscover(ctx)
		case "exit", "quit", "q":
			cancel()
			return
		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.rl.Stdout(), `Commands:
  connect, c               Connect to the configured endpoint
  disconnect, d            Close the session
  read, r <name>           Read a node by alias or node ID
  write, w <name> <value>  Write a node by alias or node ID
  readmany, rm <name...>   Read several nodes in one go
  aliases, a               List the registered aliases
  status, diag             Show the client state
  discover                 Browse for OPC UA servers via mDNS
  help, ?                  Show this help
  exit, quit, q            Exit the client
`)
}

func (s *Shell) cmdConnect(ctx context.Context) {
	if s.mgr.IsConnected() {
		fmt.Fprintf(s.rl.Stdout(), "Already connected (session %s)\n", s.mgr.SessionID())
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "Connecting to %s...\n", s.mgr.Endpoint())
	if err := s.mgr.Connect(ctx); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Connected (session %s)\n", s.mgr.SessionID())
}

func (s *Shell) cmdDisconnect() {
	if !s.mgr.IsConnected() {
		fmt.Fprintln(s.rl.Stdout(), "Not connected")
		return
	}

	s.mgr.Disconnect()
	fmt.Fprintln(s.rl.Stdout(), "Disconnected")
}

func (s *Shell) cmdRead(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: read <name>")
		return
	}

	val, err := s.svc.Read(ctx, args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %v\n", args[0], val.Raw)
	if !val.SourceTime.IsZero() {
		fmt.Fprintf(s.rl.Stdout(), "  source time: %s\n", val.SourceTime.Format(time.RFC3339))
	}
}

func (s *Shell) cmdWrite(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: write <name> <value>")
		return
	}

	name := args[0]
	valueStr := strings.Join(args[1:], " ")

	// Parse value: try int, float, bool, string in order.
	var value interface{}
	if i, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		value = i
	} else if f, err := strconv.ParseFloat(valueStr, 64); err == nil {
		value = f
	} else if b, err := strconv.ParseBool(valueStr); err == nil {
		value = b
	} else {
		value = strings.Trim(valueStr, "\"'")
	}

	if err := s.svc.Write(ctx, name, value); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Wrote %s = %v\n", name, value)
}

func (s *Shell) cmdReadMany(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: readmany <name> [name ...]")
		return
	}

	results := s.svc.ReadMany(ctx, args)
	for _, name := range args {
		res := results[name]
		if res.Err != nil {
			fmt.Fprintf(s.rl.Stdout(), "%s: error: %v\n", name, res.Err)
			continue
		}
		fmt.Fprintf(s.rl.Stdout(), "%s = %v\n", name, res.Value.Raw)
	}
}

func (s *Shell) cmdAliases() {
	reg := s.svc.Registry()
	if reg == nil || reg.Len() == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No aliases registered")
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "Aliases (%d):\n", reg.Len())
	for _, name := range reg.Aliases() {
		id, err := reg.Resolve(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(s.rl.Stdout(), "  %-24s %s\n", name, id)
	}
}

func (s *Shell) cmdStatus() {
	snap := s.svc.Diagnostics()

	fmt.Fprintf(s.rl.Stdout(), "Endpoint:     %s\n", snap.Endpoint)
	fmt.Fprintf(s.rl.Stdout(), "State:        %s\n", snap.State)
	if snap.SessionID != "" {
		fmt.Fprintf(s.rl.Stdout(), "Session:      %s\n", snap.SessionID)
	}
	fmt.Fprintf(s.rl.Stdout(), "Cached nodes: %d\n", snap.CachedNodes)
	fmt.Fprintf(s.rl.Stdout(), "Last read:    %s\n", formatTime(snap.LastRead))
	fmt.Fprintf(s.rl.Stdout(), "Last write:   %s\n", formatTime(snap.LastWrite))
}

func (s *Shell) cmdDiscover(ctx context.Context) {
	fmt.Fprintf(s.rl.Stdout(), "Browsing for OPC UA servers (%s)...\n", discoverWindow)

	browser := discovery.NewBrowser(discovery.BrowserConfig{Timeout: discoverWindow})
	defer browser.Stop()

	services, err := browser.Browse(ctx)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if len(services) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No servers found")
		return
	}

	for _, svc := range services {
		fmt.Fprintf(s.rl.Stdout(), "  %-24s %s\n", svc.InstanceName, svc.URL())
		if len(svc.Capabilities) > 0 {
			fmt.Fprintf(s.rl.Stdout(), "  %-24s caps: %s\n", "", strings.Join(svc.Capabilities, ","))
		}
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
