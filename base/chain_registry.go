package base

import (
	"sync"
	"sync/atomic"
)

// MaxSlotChainSize is the hard cap on distinct resources under rule
// checking (§6). Once reached, new resources bypass rule checking and
// are admitted unconditionally — a documented safety valve, not an
// error condition.
const MaxSlotChainSize = 6000

// ChainBuilder produces a fresh chain for a resource seen for the first
// time. It is pluggable so callers can assemble whatever slot pipeline
// they need (§6 "Slot-chain builder (external)").
type ChainBuilder func(resource ResourceWrapper) *SlotChain

// ChainRegistry interns a shared SlotChain per resource, bounded by
// MaxSlotChainSize (§4.C). Reads are lock-free: every lookup loads an
// immutable map snapshot via atomic.Pointer. The only writers are
// first-time resource insertions, serialized by mu; a writer publishes a
// freshly copied map so concurrent readers never observe a partial
// update. The mapping is append-only — no entry is ever removed or
// rebound, matching the corpus's copy-on-write registries (see
// giantswarm/k8senv's bounded Pool for the same "cap once, then
// degrade gracefully" shape, applied here to lock-free reads instead of
// blocking acquisition).
type ChainRegistry struct {
	chains  atomic.Pointer[map[ResourceWrapper]*SlotChain]
	mu      sync.Mutex
	builder ChainBuilder
}

// NewChainRegistry constructs an empty registry using builder to
// construct chains on first use of a resource.
func NewChainRegistry(builder ChainBuilder) *ChainRegistry {
	r := &ChainRegistry{builder: builder}
	empty := make(map[ResourceWrapper]*SlotChain)
	r.chains.Store(&empty)
	return r
}

// LookChain returns the chain bound to resource, building and interning
// one on first use. Returns nil if the registry is at capacity, meaning
// the caller must admit the call without evaluating rules (§4.C, §4.D).
func (r *ChainRegistry) LookChain(resource ResourceWrapper) *SlotChain {
	if chain, ok := (*r.chains.Load())[resource]; ok {
		return chain
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m := *r.chains.Load()
	if chain, ok := m[resource]; ok {
		// lost the race to another goroutine building the same resource
		return chain
	}
	if len(m) >= MaxSlotChainSize {
		return nil
	}

	chain := r.builder(resource)

	next := make(map[ResourceWrapper]*SlotChain, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	next[resource] = chain
	r.chains.Store(&next)

	return chain
}

// Size returns the current number of distinct resources bound to a
// chain. It never decreases and never exceeds MaxSlotChainSize.
func (r *ChainRegistry) Size() int {
	return len(*r.chains.Load())
}
