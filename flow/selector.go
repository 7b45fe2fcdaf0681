package flow

import "github.com/Allchin/Sentinel/base"

// selectNode implements the node-selection matrix of spec.md §4.B:
// given a rule and the context/node it is being evaluated against, it
// picks which statistics node the rule's controller should consult, or
// nil if the rule does not apply at all.
func selectNode(ctx *base.Context, node base.StatNode, rule *FlowRule, rules *RuleManager, clusters *ClusterBuilderRegistry) base.StatNode {
	switch {
	case rule.LimitApp == ctx.Origin() && rule.LimitApp != ``:
		return strategyNode(ctx, node, rule, clusters)
	case rule.LimitApp == LimitAppDefault:
		return strategyNodeDefault(ctx, node, rule, clusters)
	case rule.LimitApp == LimitAppOther && rules.IsOtherOrigin(ctx.Origin(), rule.Resource.Name()):
		return strategyNode(ctx, node, rule, clusters)
	default:
		return nil
	}
}

// strategyNode resolves DIRECT/RELATE/CHAIN for the limitApp==origin and
// limitApp=="other" cases, both of which consult context.originNode for
// DIRECT (spec.md §4.B).
func strategyNode(ctx *base.Context, node base.StatNode, rule *FlowRule, clusters *ClusterBuilderRegistry) base.StatNode {
	switch rule.Strategy {
	case StrategyDirect:
		return ctx.OriginNode()
	case StrategyRelate:
		return relateNode(rule, clusters)
	case StrategyChain:
		return chainNode(ctx, node, rule)
	default:
		return nil
	}
}

// strategyNodeDefault resolves DIRECT/RELATE/CHAIN for the
// limitApp=="default" case, where DIRECT consults the resource's cluster
// node rather than the origin's (spec.md §4.B).
func strategyNodeDefault(ctx *base.Context, node base.StatNode, rule *FlowRule, clusters *ClusterBuilderRegistry) base.StatNode {
	switch rule.Strategy {
	case StrategyDirect:
		if node == nil {
			return nil
		}
		return node.ClusterNode()
	case StrategyRelate:
		return relateNode(rule, clusters)
	case StrategyChain:
		return chainNode(ctx, node, rule)
	default:
		return nil
	}
}

func relateNode(rule *FlowRule, clusters *ClusterBuilderRegistry) base.StatNode {
	if rule.RefResource == `` {
		return nil
	}
	return clusters.GetClusterNode(rule.RefResource)
}

func chainNode(ctx *base.Context, node base.StatNode, rule *FlowRule) base.StatNode {
	if rule.RefResource != ctx.Name() {
		return nil
	}
	return node
}

// passCheck is the rule-level public contract of spec.md §4.B: select a
// node, then delegate to the rule's controller. A nil-selected node
// means the rule does not apply, so the call is admitted.
func passCheck(ctx *base.Context, node base.StatNode, rule *FlowRule, acquireCount int64, rules *RuleManager, clusters *ClusterBuilderRegistry) bool {
	selected := selectNode(ctx, node, rule, rules, clusters)
	if selected == nil {
		return true
	}
	return rule.Controller.CanPass(selected, acquireCount)
}
