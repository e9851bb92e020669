package alias

import (
	"fmt"
	"sort"

	"github.com/opclink/opclink-go/pkg/uaerrors"
)

// Registry is an immutable mapping from human-readable aliases to node
// identifier strings. Once built it is never mutated, so concurrent
// reads need no locking.
type Registry struct {
	entries map[string]string
}

// New builds a registry from entries. Empty aliases and empty
// identifiers are rejected.
func New(entries map[string]string) (*Registry, error) {
	m := make(map[string]string, len(entries))
	for name, id := range entries {
		if name == "" {
			return nil, fmt.Errorf("empty alias for identifier %q", id)
		}
		if id == "" {
			return nil, fmt.Errorf("alias %q has an empty identifier", name)
		}
		m[name] = id
	}
	return &Registry{entries: m}, nil
}

// Empty returns a registry with no entries.
func Empty() *Registry {
	return &Registry{entries: map[string]string{}}
}

// Resolve returns the node identifier registered under name.
// Unknown aliases fail with uaerrors.KindUnknownAlias.
func (r *Registry) Resolve(name string) (string, error) {
	id, ok := r.entries[name]
	if !ok {
		return "", uaerrors.UnknownAlias(name)
	}
	return id, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Aliases returns all registered aliases in sorted order.
func (r *Registry) Aliases() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered aliases.
func (r *Registry) Len() int {
	return len(r.entries)
}
