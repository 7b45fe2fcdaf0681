package flow

import "github.com/Allchin/Sentinel/base"

// FlowSlot is the flow slot of spec.md §4.E: on entry, it retrieves the
// rules loaded for the resource and checks each in turn via passCheck;
// the first rule to deny raises a *base.BlockError naming it. All rules
// on a resource are independent, so every one of them must pass.
type FlowSlot struct {
	Rules    *RuleManager
	Clusters *ClusterBuilderRegistry

	// NodeFor returns the statistics node tracking traffic for resource
	// itself (consulted as "node" in the DIRECT/limitApp==default and
	// CHAIN cases, and incremented on a full pass). Required.
	NodeFor func(resource base.ResourceWrapper) base.StatNode
}

var _ base.Slot = (*FlowSlot)(nil)

// Entry implements base.Slot.
func (s *FlowSlot) Entry(ctx *base.Context, resource base.ResourceWrapper, count int64, args ...any) error {
	rules := s.Rules.RulesFor(resource.Name())
	if len(rules) == 0 {
		return nil
	}

	node := s.NodeFor(resource)
	for _, r := range rules {
		if !passCheck(ctx, node, r, count, s.Rules, s.Clusters) {
			return &base.BlockError{Resource: resource, Rule: r, Reason: r.String()}
		}
	}

	if node != nil {
		node.IncreasePass(count)
	}
	return nil
}

// Exit implements base.Slot. The flow slot carries no per-entry state to
// tear down; statistics are recorded eagerly at Entry time (spec.md §4.E
// describes the flow slot purely as an admission gate).
func (s *FlowSlot) Exit(ctx *base.Context, resource base.ResourceWrapper, count int64, args ...any) {
}
