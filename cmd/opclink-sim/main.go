// Command opclink-sim serves a simulated OPC UA address space for
// development and demos.
//
// The simulator loads variable nodes from a CSV definition file (or
// falls back to a small built-in plant), exports the alias map clients
// consume, and can announce itself over mDNS so opclink's discover
// command finds it.
//
// Usage:
//
//	opclink-sim [flags]
//
// Flags:
//
//	-nodes string      Node definition CSV (name,type,initial)
//	-export string     Write the alias map to this JSON file
//	-ns uint           Namespace index for the variables (default 2)
//	-name string       Announced instance name (default "opclink-sim")
//	-port int          Announced port (default 4840)
//	-path string       Announced endpoint path
//	-listen            Announce over mDNS and serve until interrupted
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Print the built-in address space and exit
//	opclink-sim
//
//	# Load a plant definition and export the alias map
//	opclink-sim -nodes plant.csv -export tags.json
//
//	# Announce on the local network until Ctrl-C
//	opclink-sim -nodes plant.csv -listen
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/opclink/opclink-go/pkg/discovery"
	"github.com/opclink/opclink-go/pkg/driver"
	"github.com/opclink/opclink-go/pkg/sim"
)

// Config holds the simulator configuration.
type Config struct {
	NodesFile  string
	ExportFile string
	Namespace  uint
	Name       string
	Port       int
	Path       string
	Listen     bool
	LogLevel   string
}

var config Config

func init() {
	flag.StringVar(&config.NodesFile, "nodes", "", "Node definition CSV (name,type,initial)")
	flag.StringVar(&config.ExportFile, "export", "", "Write the alias map to this JSON file")
	flag.UintVar(&config.Namespace, "ns", 2, "Namespace index for the variables")
	flag.StringVar(&config.Name, "name", "opclink-sim", "Announced instance name")
	flag.IntVar(&config.Port, "port", discovery.DefaultPort, "Announced port")
	flag.StringVar(&config.Path, "path", "", "Announced endpoint path")
	flag.BoolVar(&config.Listen, "listen", false, "Announce over mDNS and serve until interrupted")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	setupLogging(config.LogLevel)

	log.Println("opclink simulator")
	log.Println("=================")

	space, err := buildSpace()
	if err != nil {
		log.Fatalf("Failed to build address space: %v", err)
	}
	printSpace(space)

	if config.ExportFile != "" {
		if err := space.ExportAliases(config.ExportFile); err != nil {
			log.Fatalf("Failed to export aliases: %v", err)
		}
		log.Printf("Exported %d aliases to %s", space.Len(), config.ExportFile)
	}

	if !config.Listen {
		return
	}

	announcer := discovery.NewAnnouncer(discovery.AnnouncerConfig{})
	if err := announcer.Announce(config.Name, config.Port, config.Path, []string{"DA"}); err != nil {
		log.Fatalf("Failed to announce: %v", err)
	}
	log.Printf("Announcing %q on port %d, press Ctrl-C to stop", config.Name, config.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("Received signal: %v", sig)
	log.Println("Shutting down...")

	announcer.Stop()
	log.Println("Goodbye!")
}

// buildSpace loads the node file, or falls back to a small built-in
// plant when none is given.
func buildSpace() (*sim.AddressSpace, error) {
	space := sim.New(uint16(config.Namespace))

	if config.NodesFile != "" {
		if err := space.LoadCSV(config.NodesFile); err != nil {
			return nil, err
		}
		return space, nil
	}

	demo := []struct {
		name    string
		kind    driver.ValueKind
		initial any
	}{
		{"Tank.Level", driver.ValueKindFloat, 12.5},
		{"Tank.Capacity", driver.ValueKindFloat, 100.0},
		{"Pump.Running", driver.ValueKindBoolean, false},
		{"Batch.Counter", driver.ValueKindInteger, int32(0)},
		{"Batch.Recipe", driver.ValueKindString, "standard"},
	}
	for _, d := range demo {
		if _, err := space.AddVariable(d.name, d.kind, d.initial); err != nil {
			return nil, err
		}
	}
	return space, nil
}

func printSpace(space *sim.AddressSpace) {
	log.Printf("Address space: %d variables in namespace %d", space.Len(), space.Namespace())
	for _, v := range space.Variables() {
		log.Printf("  %-24s %-8s %-12v %s", v.Name(), v.Kind(), v.Value(), v.ID())
	}
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}
