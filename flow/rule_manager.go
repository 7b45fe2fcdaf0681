package flow

import (
	"sync"

	"golang.org/x/exp/slices"
)

// RuleManager holds the current rule list per resource (§6 "Rule manager
// (external)"). Dynamic reconfiguration proper (hot reload from a remote
// source, persistence) is out of scope (spec.md §1); LoadRules exists so
// the selector has a concrete, coherent view of "all rules on a
// resource" to test against, and so IsOtherOrigin has something to
// consult.
type RuleManager struct {
	mu    sync.RWMutex
	rules map[string][]*FlowRule
}

// NewRuleManager constructs an empty rule manager.
func NewRuleManager() *RuleManager {
	return &RuleManager{rules: make(map[string][]*FlowRule)}
}

// LoadRules replaces the entire rule set for resource. Rules are sorted
// by LimitApp for deterministic iteration (matters for logs/diagnostics,
// not for correctness, since DIRECT/RELATE/CHAIN evaluation is
// independent per rule, §4.E "Rules on the same resource are
// independent").
func (m *RuleManager) LoadRules(resource string, rules []*FlowRule) {
	sorted := append([]*FlowRule(nil), rules...)
	slices.SortStableFunc(sorted, func(a, b *FlowRule) int {
		switch {
		case a.LimitApp < b.LimitApp:
			return -1
		case a.LimitApp > b.LimitApp:
			return 1
		default:
			return 0
		}
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[resource] = sorted
}

// RulesFor returns the rules currently loaded for resource, or nil.
func (m *RuleManager) RulesFor(resource string) []*FlowRule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rules[resource]
}

// IsOtherOrigin reports whether origin falls into the catch-all "other"
// bucket for resource — i.e. no loaded rule specifically targets this
// origin (LimitApp == origin) on this resource (§4.B "Matched by any
// other rule"). A limitApp=="other" rule only applies when this returns
// true.
func (m *RuleManager) IsOtherOrigin(origin, resource string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules[resource] {
		if r.LimitApp == origin {
			return false
		}
	}
	return true
}
