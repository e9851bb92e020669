package gopcua

import (
	"context"
	"fmt"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/opclink/opclink-go/pkg/driver"
)

// Driver opens sessions over the OPC UA binary protocol using the
// gopcua client.
type Driver struct{}

// New creates a gopcua-backed driver.
func New() *Driver {
	return &Driver{}
}

// Open implements driver.Driver. It dials the endpoint and activates a
// session; the returned session is safe for concurrent use.
func (d *Driver) Open(ctx context.Context, ep driver.Endpoint) (driver.Session, error) {
	client, err := opcua.NewClient(ep.URL, clientOptions(ep)...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return &Session{client: client}, nil
}

// clientOptions maps the endpoint description to gopcua options.
func clientOptions(ep driver.Endpoint) []opcua.Option {
	var opts []opcua.Option

	name := ep.ApplicationName
	if name == "" {
		name = "opclink"
	}
	opts = append(opts, opcua.ApplicationName(name))

	if ep.SecurityPolicy != "" {
		opts = append(opts, opcua.SecurityPolicy(ep.SecurityPolicy))
	}
	if ep.SecurityMode != "" {
		opts = append(opts, opcua.SecurityModeString(ep.SecurityMode))
	}

	if ep.Username != "" {
		opts = append(opts, opcua.AuthUsername(ep.Username, ep.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}

	if ep.ConnectTimeout > 0 {
		opts = append(opts, opcua.DialTimeout(ep.ConnectTimeout))
	}
	if ep.RequestTimeout > 0 {
		opts = append(opts, opcua.RequestTimeout(ep.RequestTimeout))
	}

	return opts
}

// Session wraps one connected gopcua client.
type Session struct {
	client *opcua.Client
}

// Resolve implements driver.Session. Identifier syntax is checked
// here; whether the node exists surfaces on the first read or write,
// as the binary protocol has no separate resolution step.
func (s *Session) Resolve(ctx context.Context, id string) (driver.Node, error) {
	parsed, err := ua.ParseNodeID(id)
	if err != nil {
		return nil, fmt.Errorf("parse node id %q: %w", id, err)
	}
	return &Node{client: s.client, id: id, nodeID: parsed}, nil
}

// Close implements driver.Session.
func (s *Session) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// Node is a live handle to one server variable.
type Node struct {
	client *opcua.Client
	id     string
	nodeID *ua.NodeID
}

// ID implements driver.Node.
func (n *Node) ID() string { return n.id }

// Read implements driver.Node.
func (n *Node) Read(ctx context.Context) (driver.Value, error) {
	req := &ua.ReadRequest{
		NodesToRead: []*ua.ReadValueID{
			{NodeID: n.nodeID, AttributeID: ua.AttributeIDValue},
		},
		TimestampsToReturn: ua.TimestampsToReturnBoth,
	}

	resp, err := n.client.Read(ctx, req)
	if err != nil {
		return driver.Value{}, err
	}
	if len(resp.Results) == 0 {
		return driver.Value{}, fmt.Errorf("empty read response for %s", n.id)
	}

	dv := resp.Results[0]
	if dv.Status != ua.StatusOK {
		return driver.Value{}, dv.Status
	}

	var raw any
	var sourceTime time.Time
	if dv.Value != nil {
		raw = dv.Value.Value()
	}
	sourceTime = dv.SourceTimestamp

	return driver.Value{Raw: raw, Status: uint32(dv.Status), SourceTime: sourceTime}, nil
}

// Write implements driver.Node.
func (n *Node) Write(ctx context.Context, value any) error {
	variant, err := ua.NewVariant(value)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}

	req := &ua.WriteRequest{
		NodesToWrite: []*ua.WriteValue{
			{
				NodeID:      n.nodeID,
				AttributeID: ua.AttributeIDValue,
				Value: &ua.DataValue{
					EncodingMask: ua.DataValueValue,
					Value:        variant,
				},
			},
		},
	}

	resp, err := n.client.Write(ctx, req)
	if err != nil {
		return err
	}
	if len(resp.Results) == 0 {
		return fmt.Errorf("empty write response for %s", n.id)
	}
	if resp.Results[0] != ua.StatusOK {
		return resp.Results[0]
	}
	return nil
}

// Kind implements driver.Node. The kind is derived from the node's
// current value; nodes holding null report ValueKindUnknown.
func (n *Node) Kind(ctx context.Context) (driver.ValueKind, error) {
	val, err := n.Read(ctx)
	if err != nil {
		return driver.ValueKindUnknown, err
	}
	return kindOf(val.Raw), nil
}

// kindOf maps a decoded variant value to its basic kind.
func kindOf(raw any) driver.ValueKind {
	switch raw.(type) {
	case bool:
		return driver.ValueKindBoolean
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return driver.ValueKindInteger
	case float32, float64:
		return driver.ValueKindFloat
	case string:
		return driver.ValueKindString
	default:
		return driver.ValueKindUnknown
	}
}

var (
	_ driver.Driver  = (*Driver)(nil)
	_ driver.Session = (*Session)(nil)
	_ driver.Node    = (*Node)(nil)
)
