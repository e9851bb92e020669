package discovery

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AnnouncerConfig configures announcement behavior.
type AnnouncerConfig struct {
	// TTL for the announced records. Zero keeps the zeroconf default.
	TTL time.Duration

	// Interface selects one network interface by name.
	// Empty string means all interfaces.
	Interface string
}

// Announcer advertises an OPC UA server over mDNS so browsers can find
// it. The simulator uses it; a real server announces itself.
type Announcer struct {
	config AnnouncerConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAnnouncer creates an announcer.
func NewAnnouncer(config AnnouncerConfig) *Announcer {
	return &Announcer{config: config}
}

// Announce registers the instance under the OPC UA service type. An
// existing announcement is replaced. Instance names longer than the
// DNS label limit are truncated.
func (a *Announcer) Announce(instance string, port int, path string, caps []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	if len(instance) > MaxInstanceNameLen {
		instance = instance[:MaxInstanceNameLen]
	}
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		instance,
		ServiceType,
		Domain,
		port,
		encodeTXT(path, caps),
		a.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	a.server = server
	return nil
}

// Stop withdraws the announcement.
func (a *Announcer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// interfaces returns the network interfaces to announce on.
// Returns nil to use all interfaces.
func (a *Announcer) interfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
