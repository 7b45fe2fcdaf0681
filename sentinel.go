// Package sentinel is the process-wide facade: a single initialize-once
// engine bundling the slot-chain registry, the rule manager, and the
// cluster-builder registry, exposed as top-level Entry/LoadRules/
// SetGlobalSwitch functions; an admitted call is completed through the
// returned entry's Exit method (spec.md §9 "Global mutable state"). Embedding processes that want
// more than one independent engine can construct an *Engine directly
// instead of using the package-level default.
package sentinel

import (
	"sync"

	"github.com/Allchin/Sentinel/base"
	"github.com/Allchin/Sentinel/base/stat"
	"github.com/Allchin/Sentinel/flow"
)

// Engine bundles the collaborators an Entry call needs: the slot-chain
// registry (§4.C), the rule manager and cluster registry the flow slot
// consults (§4.B), and a per-resource statistics node factory.
type Engine struct {
	Registry *base.ChainRegistry
	Rules    *flow.RuleManager
	Clusters *flow.ClusterBuilderRegistry

	mu    sync.Mutex
	nodes map[base.ResourceWrapper]base.StatNode
}

// NewEngine constructs an engine with its own chain registry (built via
// a single FlowSlot consulting rules and clusters), rule manager, and
// cluster registry, plus a default sliding-window statistics node per
// resource (spec.md's supplemented bundled StatNode feature).
func NewEngine() *Engine {
	e := &Engine{
		Rules:    flow.NewRuleManager(),
		Clusters: flow.NewClusterBuilderRegistry(),
		nodes:    make(map[base.ResourceWrapper]base.StatNode),
	}
	e.Registry = base.NewChainRegistry(func(resource base.ResourceWrapper) *base.SlotChain {
		return base.NewSlotChain(&flow.FlowSlot{
			Rules:    e.Rules,
			Clusters: e.Clusters,
			NodeFor:  e.nodeFor,
		})
	})
	return e
}

// nodeFor returns the shared statistics node for resource, creating one
// on first use. This is the engine's bundled default (spec.md's
// supplemented feature 1); callers needing a different StatNode
// implementation should build their own ChainBuilder instead of using
// the package-level default engine.
func (e *Engine) nodeFor(resource base.ResourceWrapper) base.StatNode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n, ok := e.nodes[resource]; ok {
		return n
	}
	n := stat.NewSlidingWindowNode()
	e.nodes[resource] = n
	e.Clusters.Register(resource.Name(), n)
	return n
}

// LoadRules replaces the rule set for resource (spec.md §6 "Rule manager
// (external)").
func (e *Engine) LoadRules(resource string, rules []*flow.FlowRule) {
	e.Rules.LoadRules(resource, rules)
}

// Entry obtains an admission record for resource in ctx (spec.md §4.D).
// See base.Entry for the full contract.
func (e *Engine) Entry(ctx *base.Context, resource base.ResourceWrapper, count int64, args ...any) (*base.SentinelEntry, error) {
	return base.Entry(ctx, e.Registry, resource, count, args...)
}

var defaultEngine = NewEngine()

// Default returns the process-wide default engine.
func Default() *Engine { return defaultEngine }

// LoadRules replaces the rule set for resource on the default engine.
func LoadRules(resource string, rules []*flow.FlowRule) {
	defaultEngine.LoadRules(resource, rules)
}

// Entry obtains an admission record for resource on the default engine,
// in ctx (spec.md §4.D). A nil ctx auto-creates a default context; see
// base.Entry for the full contract.
func Entry(ctx *base.Context, resource base.ResourceWrapper, count int64, args ...any) (*base.SentinelEntry, error) {
	return defaultEngine.Entry(ctx, resource, count, args...)
}

// SetGlobalSwitch turns rule checking on or off process-wide (spec.md §6).
func SetGlobalSwitch(on bool) { base.SetGlobalSwitch(on) }
