// Package flow implements the rule & node selector (§4.B) and the rule
// data model (§3): given a flow rule, it picks which statistics node to
// consult, then delegates the admission decision to that rule's
// controller.
package flow

import (
	"fmt"

	"github.com/Allchin/Sentinel/base"
	"github.com/Allchin/Sentinel/flow/warmup"
)

// Grade is the metric a rule is expressed in (§3, wire-compatible, §6).
type Grade int32

const (
	GradeThread Grade = 0
	GradeQPS    Grade = 1
)

// Strategy selects which statistics node a rule consults (§4.B).
type Strategy int32

const (
	StrategyDirect Strategy = 0
	StrategyRelate Strategy = 1
	StrategyChain  Strategy = 2
)

// ControlBehavior selects the admission algorithm materialized into a
// rule's Controller at load time (§3, §9 "Polymorphic controller").
type ControlBehavior int32

const (
	ControlBehaviorDefault     ControlBehavior = 0
	ControlBehaviorWarmUp      ControlBehavior = 1
	ControlBehaviorRateLimiter ControlBehavior = 2
)

// reserved limitApp values (§6)
const (
	LimitAppDefault = `default`
	LimitAppOther   = `other`
)

const (
	defaultWarmUpPeriodSec   = 10
	defaultMaxQueueingTimeMs = 500
	defaultColdFactor        = 3
)

// FlowRule is the declarative admission condition of §3. Controller is
// materialized from ControlBehavior by NewFlowRule / WithWarmUpPeriodSec —
// it is never nil on a rule that has passed validation.
type FlowRule struct {
	Resource          base.ResourceWrapper
	LimitApp          string
	Grade             Grade
	Count             float64
	Strategy          Strategy
	RefResource       string
	ControlBehavior   ControlBehavior
	WarmUpPeriodSec   int
	MaxQueueingTimeMs int

	Controller Controller
}

// NewFlowRule constructs and validates a FlowRule, materializing its
// Controller from ControlBehavior (§3). Defaults are applied for
// WarmUpPeriodSec (10) and MaxQueueingTimeMs (500) when zero (§6).
//
// Returns a *base.ConfigError for invalid parameters (§7.4), e.g. a
// warm-up rule whose count (truncated to an integer) or warm-up period
// is not positive.
func NewFlowRule(resource base.ResourceWrapper, limitApp string, grade Grade, count float64, strategy Strategy, refResource string, behavior ControlBehavior) (*FlowRule, error) {
	r := &FlowRule{
		Resource:          resource,
		LimitApp:          limitApp,
		Grade:             grade,
		Count:             count,
		Strategy:          strategy,
		RefResource:       refResource,
		ControlBehavior:   behavior,
		WarmUpPeriodSec:   defaultWarmUpPeriodSec,
		MaxQueueingTimeMs: defaultMaxQueueingTimeMs,
	}
	if err := r.materialize(); err != nil {
		return nil, err
	}
	return r, nil
}

// WithWarmUpPeriodSec overrides the default warm-up period, re-materializing
// the controller if ControlBehavior is WARM_UP.
func (r *FlowRule) WithWarmUpPeriodSec(sec int) (*FlowRule, error) {
	r.WarmUpPeriodSec = sec
	if err := r.materialize(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FlowRule) materialize() error {
	switch r.ControlBehavior {
	case ControlBehaviorWarmUp:
		c, err := warmup.New(int64(r.Count), r.WarmUpPeriodSec, defaultColdFactor)
		if err != nil {
			return &base.ConfigError{Field: `warmUpPeriodSec`, Reason: err.Error()}
		}
		r.Controller = warmUpController{c}
	case ControlBehaviorRateLimiter:
		// Queueing/delay is out of scope (spec.md §1): this controller
		// only ever decides admit/deny, the same as the default
		// controller, for wire-compatibility of the controlBehavior
		// field (§6). Real queueing belongs to a separate component.
		r.Controller = defaultController{grade: r.Grade, count: r.Count}
	default:
		r.Controller = defaultController{grade: r.Grade, count: r.Count}
	}
	return nil
}

func (r *FlowRule) String() string {
	return fmt.Sprintf(`FlowRule{resource=%s limitApp=%s grade=%d strategy=%d count=%v}`, r.Resource, r.LimitApp, r.Grade, r.Strategy, r.Count)
}

// warmUpController adapts *warmup.Controller (which only knows about
// PassQPS/PreviousPassQPS) to the flow.Controller interface.
type warmUpController struct {
	c *warmup.Controller
}

func (w warmUpController) CanPass(node base.StatNode, acquireCount int64) bool {
	return w.c.CanPass(node, acquireCount)
}
