package discovery

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD service type OPC UA servers announce
	// (OPC UA Part 12 multicast extension).
	ServiceType = "_opcua-tcp._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the registered OPC UA TCP port.
	DefaultPort = 4840
)

// TXT record key constants.
const (
	// TXTKeyPath is the endpoint path on the server, e.g. "/freeopcua/server".
	TXTKeyPath = "path"

	// TXTKeyCaps lists server capabilities, comma separated (e.g. "LDS,DA").
	TXTKeyCaps = "caps"
)

// Timing and limit constants.
const (
	// BrowseTimeout is the default window for a one-shot Browse.
	BrowseTimeout = 10 * time.Second

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// ErrNotFound is returned when a browse completes without a match.
var ErrNotFound = errors.New("service not found")

// Service is one discovered OPC UA server.
type Service struct {
	// InstanceName is the announced server name.
	InstanceName string

	// Host is the SRV target host name, usually with a trailing dot.
	Host string

	// Port is the server's TCP port.
	Port uint16

	// Addresses holds the resolved IPv4/IPv6 addresses, aggregated
	// across interfaces.
	Addresses []string

	// Path is the endpoint path from the TXT record, if announced.
	Path string

	// Capabilities is the announced capability list, if any.
	Capabilities []string
}

// URL builds the opc.tcp endpoint URL for the service. It prefers the
// first resolved address over the mDNS host name; IPv6 literals are
// bracketed and a trailing dot on the host name is stripped.
func (s *Service) URL() string {
	host := strings.TrimSuffix(s.Host, ".")
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	port := s.Port
	if port == 0 {
		port = DefaultPort
	}

	url := fmt.Sprintf("opc.tcp://%s:%d", host, port)
	if s.Path != "" && s.Path != "/" {
		path := s.Path
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		url += path
	}
	return url
}

// decodeTXT extracts the endpoint path and capability list from raw
// TXT strings. Unknown keys and malformed pairs are ignored.
func decodeTXT(txt []string) (path string, caps []string) {
	for _, record := range txt {
		key, value, ok := strings.Cut(record, "=")
		if !ok {
			continue
		}
		switch key {
		case TXTKeyPath:
			path = value
		case TXTKeyCaps:
			if value != "" {
				caps = strings.Split(value, ",")
			}
		}
	}
	return path, caps
}

// encodeTXT builds the TXT strings for an announcement.
func encodeTXT(path string, caps []string) []string {
	var txt []string
	if path != "" {
		txt = append(txt, TXTKeyPath+"="+path)
	}
	if len(caps) > 0 {
		txt = append(txt, TXTKeyCaps+"="+strings.Join(caps, ","))
	}
	return txt
}
