package flow

import (
	"sync"

	"github.com/Allchin/Sentinel/base"
)

// ClusterBuilderRegistry supplies the statistics node consulted under
// Strategy=RELATE (§4.B): a node keyed by resource rather than by the
// resource currently being entered. True cluster-mode aggregation
// (cross-process token-server coordination) is out of scope (spec.md
// §1's non-goals); this registry is the in-process stand-in the
// selector needs to have *something* to consult for a ref resource, and
// is the supplemented feature named in the cluster non-goal's place.
type ClusterBuilderRegistry struct {
	mu    sync.RWMutex
	nodes map[string]base.StatNode
}

// NewClusterBuilderRegistry constructs an empty registry.
func NewClusterBuilderRegistry() *ClusterBuilderRegistry {
	return &ClusterBuilderRegistry{nodes: make(map[string]base.StatNode)}
}

// Register associates node with resource, overwriting any previous
// association. Typically called once per resource at setup time.
func (c *ClusterBuilderRegistry) Register(resource string, node base.StatNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes[resource] = node
}

// GetClusterNode returns the node registered for resource, or nil if
// none has been registered.
func (c *ClusterBuilderRegistry) GetClusterNode(resource string) base.StatNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nodes[resource]
}
