package session

import (
	"time"

	"github.com/opclink/opclink-go/pkg/driver"
)

// cachedNode is one resolved handle with its resolution time.
type cachedNode struct {
	node      driver.Node
	createdAt time.Time
}

// nodeCache holds resolved node handles for the current session.
// It has no lock of its own: all access is guarded by Manager.mu.
// Entries live until the session disconnects; there is no per-entry
// eviction because the node set per session is small and finite.
type nodeCache struct {
	entries map[string]cachedNode
}

func newNodeCache() nodeCache {
	return nodeCache{entries: make(map[string]cachedNode)}
}

// get returns the cached handle for id, if any.
func (c *nodeCache) get(id string) (driver.Node, bool) {
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.node, true
}

// put stores a resolved handle.
func (c *nodeCache) put(id string, n driver.Node) {
	c.entries[id] = cachedNode{node: n, createdAt: time.Now()}
}

// clear drops all entries and returns how many were dropped.
func (c *nodeCache) clear() int {
	dropped := len(c.entries)
	if dropped > 0 {
		c.entries = make(map[string]cachedNode)
	}
	return dropped
}

// len returns the number of cached handles.
func (c *nodeCache) len() int {
	return len(c.entries)
}
