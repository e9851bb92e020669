// opclink is an OPC UA client with a resilient session manager, an
// alias registry and an interactive shell.
//
// Usage:
//
//	opclink [flags]
//
// Flags:
//
//	-config <path>      YAML configuration file
//	-endpoint <url>     Server endpoint URL (overrides the config file)
//	-aliases <path>     Alias registry file (.json or .csv)
//	-log-level <level>  Console log level (debug, info, warn, error)
//	-log-file <path>    Capture all diagnostic events to a CBOR file
//	-interactive        Run the interactive shell (default true)
//	-read <name>        Read one node and exit
//	-write <name=value> Write one node and exit
//
// Examples:
//
//	# Interactive shell against a live server
//	opclink -endpoint opc.tcp://192.168.0.5:4840
//
//	# One-shot read through an alias file
//	opclink -endpoint opc.tcp://192.168.0.5:4840 -aliases tags.json -read Tank.Level
//
//	# Write then read back against the in-process simulator
//	opclink -endpoint sim://testdata/nodes.csv -write Pump.Running=true -read Pump.Running
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/opclink/opclink-go/cmd/opclink/interactive"
	"github.com/opclink/opclink-go/pkg/access"
	"github.com/opclink/opclink-go/pkg/alias"
	"github.com/opclink/opclink-go/pkg/config"
	"github.com/opclink/opclink-go/pkg/diag"
	"github.com/opclink/opclink-go/pkg/driver"
	"github.com/opclink/opclink-go/pkg/driver/gopcua"
	"github.com/opclink/opclink-go/pkg/session"
	"github.com/opclink/opclink-go/pkg/sim"
)

// simNamespace is the namespace index the in-process simulator assigns
// its variables.
const simNamespace = 2

var opts struct {
	configPath  string
	endpoint    string
	aliasFile   string
	logLevel    string
	logFile     string
	interactive bool
	read        string
	write       string
}

func init() {
	flag.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flag.StringVar(&opts.endpoint, "endpoint", "", "Server endpoint URL, e.g. opc.tcp://192.168.0.5:4840")
	flag.StringVar(&opts.aliasFile, "aliases", "", "Alias registry file (.json or .csv)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Console log level (debug, info, warn, error)")
	flag.StringVar(&opts.logFile, "log-file", "", "Capture all diagnostic events to a CBOR file")
	flag.BoolVar(&opts.interactive, "interactive", true, "Run the interactive shell")
	flag.StringVar(&opts.read, "read", "", "Read one node by alias or node ID and exit")
	flag.StringVar(&opts.write, "write", "", "Write one node (name=value) and exit")
}

func main() {
	flag.Parse()

	setupLogging(opts.logLevel)

	fileCfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	reg, err := loadAliases(fileCfg.AliasFile)
	if err != nil {
		log.Fatalf("Failed to load aliases: %v", err)
	}

	recorder, cleanup, err := newRecorder(fileCfg.Diagnostics)
	if err != nil {
		log.Fatalf("Failed to set up diagnostics: %v", err)
	}
	defer cleanup()

	drv, err := newDriver(fileCfg.Endpoint.URL)
	if err != nil {
		log.Fatalf("Failed to set up driver: %v", err)
	}

	sessionCfg, err := fileCfg.SessionConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	sessionCfg.Recorder = recorder

	mgr, err := session.NewManager(drv, sessionCfg)
	if err != nil {
		log.Fatalf("Failed to create session manager: %v", err)
	}
	svc := access.New(mgr, reg, recorder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if opts.read != "" || opts.write != "" {
		if err := runOneShot(ctx, mgr, svc); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	if !opts.interactive {
		if err := runProbe(ctx, mgr, svc); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	ic, err := interactive.New(mgr, svc)
	if err != nil {
		log.Fatalf("Failed to create interactive console: %v", err)
	}

	// Route log output through the console so it doesn't clobber the
	// prompt.
	log.SetOutput(ic.Stdout())
	go ic.Run(ctx, cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	case <-ctx.Done():
	}

	mgr.Disconnect()
	fmt.Println("Goodbye!")
}

// loadConfig builds the effective configuration: the config file (or
// defaults) with command-line overrides applied on top.
func loadConfig() (config.Config, error) {
	fileCfg := config.Default()
	if opts.configPath != "" {
		var err error
		fileCfg, err = config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
	}

	if opts.endpoint != "" {
		fileCfg.Endpoint.URL = opts.endpoint
	}
	if opts.aliasFile != "" {
		fileCfg.AliasFile = opts.aliasFile
	}
	if opts.logLevel != "" {
		fileCfg.Diagnostics.Level = opts.logLevel
	}
	if opts.logFile != "" {
		fileCfg.Diagnostics.File = opts.logFile
	}

	if fileCfg.Endpoint.URL == "" {
		return config.Config{}, fmt.Errorf("no endpoint configured (use -endpoint or a config file)")
	}
	return fileCfg, nil
}

// loadAliases loads the registry at path, picking the decoder from the
// file extension. An empty path yields an empty registry.
func loadAliases(path string) (*alias.Registry, error) {
	if path == "" {
		return alias.Empty(), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return alias.LoadJSON(path)
	case ".csv":
		return alias.LoadCSV(path)
	default:
		return nil, fmt.Errorf("alias file %s: unsupported extension (want .json or .csv)", path)
	}
}

// newRecorder builds the diagnostics stack: console events through the
// standard log writer, plus an optional CBOR capture file.
func newRecorder(dc config.Diagnostics) (diag.Recorder, func(), error) {
	handler := slog.NewTextHandler(logWriter{}, &slog.HandlerOptions{
		Level: consoleLevel(dc.Level),
	})
	console := diag.NewSlogRecorder(slog.New(handler))

	if dc.File == "" {
		return console, func() {}, nil
	}

	file, err := diag.NewFileRecorder(dc.File)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := file.Close(); err != nil {
			log.Printf("Failed to close diagnostics file: %v", err)
		}
	}
	return diag.NewMultiRecorder(console, file), cleanup, nil
}

// newDriver selects the session driver from the endpoint URL scheme.
// The sim scheme serves an in-process address space, optionally loaded
// from a node definition CSV: sim://nodes.csv.
func newDriver(url string) (driver.Driver, error) {
	if path, ok := strings.CutPrefix(url, "sim://"); ok {
		space := sim.New(simNamespace)
		if path != "" {
			if err := space.LoadCSV(path); err != nil {
				return nil, err
			}
		}
		return space.Driver(), nil
	}
	return gopcua.New(), nil
}

// runOneShot performs the -read/-write operations inside a scoped
// session and exits.
func runOneShot(ctx context.Context, mgr *session.Manager, svc *access.Service) error {
	return mgr.With(ctx, func(ctx context.Context) error {
		if opts.write != "" {
			name, valueStr, ok := strings.Cut(opts.write, "=")
			if !ok {
				return fmt.Errorf("invalid -write %q, want name=value", opts.write)
			}
			if err := svc.Write(ctx, name, parseValue(valueStr)); err != nil {
				return err
			}
			fmt.Printf("Wrote %s = %s\n", name, valueStr)
		}
		if opts.read != "" {
			val, err := svc.Read(ctx, opts.read)
			if err != nil {
				return err
			}
			fmt.Printf("%s = %v\n", opts.read, val.Raw)
		}
		return nil
	})
}

// runProbe connects once, prints the client state and disconnects.
func runProbe(ctx context.Context, mgr *session.Manager, svc *access.Service) error {
	return mgr.With(ctx, func(context.Context) error {
		snap := svc.Diagnostics()
		fmt.Printf("Endpoint: %s\n", snap.Endpoint)
		fmt.Printf("State:    %s\n", snap.State)
		fmt.Printf("Session:  %s\n", snap.SessionID)
		return nil
	})
}

// parseValue decodes a write value: int, float, bool, then quoted or
// bare string.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return strings.Trim(s, "\"'")
}

// logWriter forwards to the standard log writer at call time, so
// diagnostic output follows log.SetOutput redirections.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	return log.Writer().Write(p)
}

func setupLogging(level string) {
	switch strings.ToLower(level) {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	default:
		log.SetFlags(log.Ltime | log.Lmicroseconds)
	}
}

func consoleLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
