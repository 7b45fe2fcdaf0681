// Package stat provides a concrete StatNode (base.StatNode/ClusterNode)
// implementation: a rolling pair of one-second pass counters. It exists
// because spec.md treats statistics as an external collaborator and
// gives only the passQps()/previousPassQps() contract — every embedding
// process needs *some* concrete node, and the controllers in flow/ and
// flow/warmup need one to exercise in tests.
package stat

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Allchin/Sentinel/base"
)

var _ base.StatNode = (*SlidingWindowNode)(nil)

// SlidingWindowNode tracks admitted calls in two rolling one-second
// buckets (the current second and the one before it), each stamped with
// the wall-clock second it belongs to. Rather than store and re-scan
// individual event timestamps, a bucket is simply reset and reclaimed
// for a new second the first time it's touched after rolling over.
//
// Reads (PassQPS/PreviousPassQPS) are lock-free, reading the bucket's
// atomic fields directly; the reset-and-increment in IncreasePass is a
// compound read-modify-write, so it is serialized per bucket by a
// mutex — the same hybrid catrate's categoryData uses (atomic fields
// for cheap reads, a mutex guarding the compound update sequence).
type SlidingWindowNode struct {
	buckets [2]secondBucket
	nowFn   func() time.Time
}

// secondBucket holds the pass count accumulated for one wall-clock
// second (sec), identified by time.Time.Unix(). A bucket whose sec
// field does not match the second being queried is treated as empty.
type secondBucket struct {
	mu    sync.Mutex
	sec   atomic.Int64
	count atomic.Int64
}

// NewSlidingWindowNode constructs an empty node.
func NewSlidingWindowNode() *SlidingWindowNode {
	return &SlidingWindowNode{nowFn: time.Now}
}

// IncreasePass records count additional admitted calls at the current time.
func (n *SlidingWindowNode) IncreasePass(count int64) {
	if count <= 0 {
		return
	}
	sec := n.nowFn().Unix()
	n.bucketFor(sec).add(sec, count)
}

// PassQPS returns the number of calls admitted in the current second.
func (n *SlidingWindowNode) PassQPS() int64 {
	sec := n.nowFn().Unix()
	return n.bucketFor(sec).get(sec)
}

// PreviousPassQPS returns the number of calls admitted in the previous
// (just-elapsed) second.
func (n *SlidingWindowNode) PreviousPassQPS() int64 {
	sec := n.nowFn().Unix() - 1
	return n.bucketFor(sec).get(sec)
}

// ClusterNode returns the aggregated node for this resource. This bundled
// implementation doesn't distinguish per-context from cluster-wide
// aggregation (true cluster aggregation is out of scope, spec.md §1), so
// it returns itself.
func (n *SlidingWindowNode) ClusterNode() base.StatNode { return n }

// CurNode returns the per-context node. As above, this bundled
// implementation returns itself.
func (n *SlidingWindowNode) CurNode() base.StatNode { return n }

// bucketFor returns the bucket slot assigned to wall-clock second sec.
// Since only two consecutive seconds are ever live at once (current and
// previous), parity of sec is enough to pick a slot.
func (n *SlidingWindowNode) bucketFor(sec int64) *secondBucket {
	return &n.buckets[sec&1]
}

// get returns the bucket's count if it still belongs to sec, or 0 if
// the bucket has rolled over to a different second (or was never used).
func (b *secondBucket) get(sec int64) int64 {
	if b.sec.Load() != sec {
		return 0
	}
	return b.count.Load()
}

// add records count against sec, reclaiming the bucket for sec first if
// it currently belongs to an older second. The reclaim-then-increment
// sequence is serialized by mu so concurrent callers can never
// interleave a reset between each other's increments. Readers stay
// lock-free; a reader of the bucket's old second that races a reclaim
// can see its count as already reset to 0.
func (b *secondBucket) add(sec int64, count int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sec.Load() != sec {
		b.count.Store(0)
		b.sec.Store(sec)
	}
	b.count.Add(count)
}
