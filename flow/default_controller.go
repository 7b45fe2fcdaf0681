package flow

import "github.com/Allchin/Sentinel/base"

// defaultController implements the plain (non-warm-up, non-rate-limiter)
// admission check: admit iff the observed traffic plus the requested
// count would not exceed the configured threshold. Both THREAD and QPS
// grades are trivial variants of the same contract (spec.md §1): QPS
// checks passQps() against count; THREAD checks the caller-supplied
// acquireCount as a proxy for current concurrency, since this core has
// no independent concurrency-tracking contract (§6 only specifies
// passQps/previousPassQps) — a full thread-count controller belongs to
// the statistics collector this core treats as external.
type defaultController struct {
	grade Grade
	count float64
}

func (d defaultController) CanPass(node base.StatNode, acquireCount int64) bool {
	switch d.grade {
	case GradeThread:
		return float64(acquireCount) <= d.count
	default: // GradeQPS
		return float64(node.PassQPS()+acquireCount) <= d.count
	}
}
