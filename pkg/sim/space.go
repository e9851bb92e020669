package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/opclink/opclink-go/pkg/driver"
	"github.com/opclink/opclink-go/pkg/nodeid"
)

// Variable is one node in a simulated address space. Its value is
// typed: writes must match the declared kind.
type Variable struct {
	name string
	id   string
	kind driver.ValueKind

	mu         sync.RWMutex
	value      any
	sourceTime time.Time
}

// Name returns the browse name.
func (v *Variable) Name() string { return v.name }

// ID returns the string-form node identifier.
func (v *Variable) ID() string { return v.id }

// Kind returns the declared value kind.
func (v *Variable) Kind() driver.ValueKind { return v.kind }

// Value returns the current value.
func (v *Variable) Value() any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set stores value after coercing it to the declared kind. A value of
// another kind is rejected with ErrTypeMismatch.
func (v *Variable) Set(value any) error {
	coerced, err := coerce(v.kind, value)
	if err != nil {
		return fmt.Errorf("variable %s: %w", v.name, err)
	}
	v.mu.Lock()
	v.value = coerced
	v.sourceTime = time.Now()
	v.mu.Unlock()
	return nil
}

func (v *Variable) snapshot() driver.Value {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return driver.Value{Raw: v.value, Status: driver.StatusGood, SourceTime: v.sourceTime}
}

// AddressSpace is a flat set of variable nodes under one namespace
// index. Browse names may be dotted paths ("Tank.Level"); every
// variable's node ID is the string form ns=<idx>;s=<browse name>.
type AddressSpace struct {
	ns uint16

	mu     sync.RWMutex
	byID   map[string]*Variable
	byName map[string]*Variable
}

// New returns an empty address space under the given namespace index.
func New(ns uint16) *AddressSpace {
	return &AddressSpace{
		ns:     ns,
		byID:   make(map[string]*Variable),
		byName: make(map[string]*Variable),
	}
}

// Namespace returns the space's namespace index.
func (s *AddressSpace) Namespace() uint16 { return s.ns }

// Len returns the number of variables.
func (s *AddressSpace) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName)
}

// AddVariable creates a variable node. The initial value must match
// kind; nil selects the kind's zero value.
func (s *AddressSpace) AddVariable(name string, kind driver.ValueKind, initial any) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("empty browse name")
	}
	value, err := coerce(kind, initial)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}

	v := &Variable{
		name:       name,
		id:         nodeid.NewString(s.ns, name).String(),
		kind:       kind,
		value:      value,
		sourceTime: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byName[name]; dup {
		return nil, fmt.Errorf("duplicate variable %q", name)
	}
	s.byID[v.id] = v
	s.byName[name] = v
	return v, nil
}

// Browse returns the browse-name to node-ID map of every variable,
// the shape clients load as an alias file.
func (s *AddressSpace) Browse() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := make(map[string]string, len(s.byName))
	for name, v := range s.byName {
		nodes[name] = v.id
	}
	return nodes
}

// Variables returns the space's variables sorted by browse name.
func (s *AddressSpace) Variables() []*Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vars := make([]*Variable, 0, len(s.byName))
	for _, v := range s.byName {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].name < vars[j].name })
	return vars
}

// ExportAliases writes the Browse map as indented JSON, ready for
// alias.LoadJSON on the client side.
func (s *AddressSpace) ExportAliases(path string) error {
	data, err := json.MarshalIndent(s.Browse(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode aliases: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write alias file: %w", err)
	}
	return nil
}

func (s *AddressSpace) lookup(id string) (*Variable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byID[id]
	return v, ok
}
