// Package warmup implements the warm-up (cold-start) admission controller
// (spec.md §4.A): a token bucket, refilled while the system is idle, that
// throttles admitted QPS below the stable count until the stored tokens
// drain back below a warning threshold. It is a structurally leaf
// package — it depends on nothing under this module's base/ package, so
// it takes any node satisfying StatSource rather than importing
// base.StatNode directly, mirroring how the corpus's rate limiter
// (catrate) keeps its hot-path types free of unrelated imports.
package warmup

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// StatSource is the subset of base.StatNode the controller consults.
// Any base.StatNode value satisfies this structurally.
type StatSource interface {
	PassQPS() int64
	PreviousPassQPS() int64
}

// for testing purposes
var timeNow = time.Now

// Controller is the warm-up token bucket described in spec.md §4.A.
// storedTokens and lastFilledTimeMs are packed for independent atomic
// access, following the corpus's pattern (catrate's categoryData) of
// keeping hot-path mutable state in plain atomic cells rather than
// behind a mutex.
type Controller struct {
	count      float64
	coldFactor float64

	warningToken int64
	maxToken     int64
	slope        float64

	storedTokens     atomic.Int64
	lastFilledTimeMs atomic.Int64
}

// New constructs a warm-up controller for the given stable count,
// warm-up period, and cold factor, starting fully cold (storedTokens ==
// maxToken) per the reference implementation's initial state.
//
// Returns an error — to be surfaced as a *base.ConfigError by the caller
// — if coldFactor <= 1 (spec.md §4.A "Error conditions").
func New(count int64, warmUpPeriodSec int, coldFactor int) (*Controller, error) {
	if coldFactor <= 1 {
		return nil, fmt.Errorf(`warmup: coldFactor must be > 1, got %d`, coldFactor)
	}
	if count <= 0 {
		return nil, fmt.Errorf(`warmup: count must be > 0, got %d`, count)
	}
	if warmUpPeriodSec <= 0 {
		return nil, fmt.Errorf(`warmup: warmUpPeriodSec must be > 0, got %d`, warmUpPeriodSec)
	}

	cf := float64(coldFactor)
	c := float64(count)

	warningToken := int64(float64(warmUpPeriodSec) * c / (cf - 1))
	maxToken := warningToken + int64(2*float64(warmUpPeriodSec)*c/(1+cf))
	slope := (cf - 1) / (c * float64(maxToken-warningToken))

	ctrl := &Controller{
		count:        c,
		coldFactor:   cf,
		warningToken: warningToken,
		maxToken:     maxToken,
		slope:        slope,
	}
	ctrl.storedTokens.Store(maxToken)
	ctrl.lastFilledTimeMs.Store(nowSecAlignedMs())
	return ctrl, nil
}

func nowSecAlignedMs() int64 {
	return timeNow().UnixMilli() / 1000 * 1000
}

// CanPass reports whether acquireCount further units of capacity are
// admitted right now, against node's observed traffic (spec.md §4.A
// steps 2-3).
func (c *Controller) CanPass(node StatSource, acquireCount int64) bool {
	c.syncToken(node.PreviousPassQPS())

	rest := c.storedTokens.Load()
	if rest >= c.warningToken {
		above := float64(rest - c.warningToken)
		warningQps := nextUp(1 / (above*c.slope + 1/c.count))
		return float64(node.PassQPS()+acquireCount) <= warningQps
	}
	return float64(node.PassQPS()+acquireCount) <= c.count
}

// syncToken performs the per-second refill (spec.md §4.A step 2). Using
// previousQps as the refill's decrement input and as the coolDown
// "is the system idle" test.
func (c *Controller) syncToken(previousQps int64) {
	nowSec := nowSecAlignedMs()
	lastFilled := c.lastFilledTimeMs.Load()
	if nowSec <= lastFilled {
		return
	}

	old := c.storedTokens.Load()
	refilled := c.coolDown(old, nowSec, lastFilled, previousQps)

	// Single-CAS variant (spec.md §9 "Atomic token update"): publish
	// refilled-minus-previousQps, clamped to zero, in one compare-and-
	// swap against the observed old value, rather than two sequential
	// atomic updates. A losing racer simply skips this tick's refill,
	// which is safe since refill is idempotent up to at-most-once per
	// second.
	next := refilled - previousQps
	if next < 0 {
		next = 0
	}
	if c.storedTokens.CompareAndSwap(old, next) {
		c.lastFilledTimeMs.Store(nowSec)
	}
}

// coolDown computes the refilled token count before the per-tick
// decrement (spec.md §4.A "coolDown(old, nowSec, prevQps)").
func (c *Controller) coolDown(old, nowSec, lastFilled int64, prevQps int64) int64 {
	var next int64
	switch {
	case old < c.warningToken:
		next = old + (nowSec-lastFilled)*int64(c.count)/1000
	case old > c.warningToken:
		if prevQps < int64(c.count/c.coldFactor) {
			next = old + (nowSec-lastFilled)*int64(c.count)/1000
		} else {
			next = old
		}
	default:
		// old == warningToken: no-op, preserved exactly per the
		// reference implementation's (possibly unintentional)
		// hysteresis at this boundary.
		next = old
	}
	if next > c.maxToken {
		next = c.maxToken
	}
	return next
}

// nextUp returns the next representable float64 strictly greater than
// x, matching the reference implementation's boundary handling for the
// warming-regime admission test (spec.md §4.A, §9 "nextUp boundary").
func nextUp(x float64) float64 {
	return math.Nextafter(x, math.Inf(1))
}
