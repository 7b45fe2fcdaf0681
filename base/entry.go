package base

import (
	"errors"
	"sync/atomic"

	"github.com/Allchin/Sentinel/internal/xlog"
)

// globalSwitch is the global on/off switch (§6), default on.
var globalSwitch atomic.Bool

func init() {
	globalSwitch.Store(true)
}

// SetGlobalSwitch turns rule checking on or off process-wide. When off,
// Entry always returns a chain-less entry (§4.D step 3).
func SetGlobalSwitch(on bool) {
	globalSwitch.Store(on)
}

// GlobalSwitch reports the current state of the global on/off switch.
func GlobalSwitch() bool {
	return globalSwitch.Load()
}

// SentinelEntry is the admission record for one in-flight invocation of a
// resource in a specific context (§3 "Entry"). It holds the resource, the
// chain it was checked against (nil for a chain-less entry), the owning
// context, and parent/child links forming that context's call stack.
type SentinelEntry struct {
	resource ResourceWrapper
	chain    *SlotChain
	ctx      *Context
	parent   *SentinelEntry
	child    *SentinelEntry
}

// Resource returns the resource this entry was obtained for.
func (e *SentinelEntry) Resource() ResourceWrapper { return e.resource }

// Context returns the context that owns this entry, or nil after Exit
// has completed (exit clears it to make a repeated Exit a no-op).
func (e *SentinelEntry) Context() *Context { return e.ctx }

// Parent returns the entry that was current when this one was pushed, or
// nil if this was the outermost entry in its context.
func (e *SentinelEntry) Parent() *SentinelEntry { return e.parent }

// Entry obtains an admission record for resource in ctx, requesting count
// units of capacity, evaluated against any applicable rules (§4.D).
//
// If ctx is nil, a default context is auto-created (step 2). If the
// global switch is off or the slot-chain registry is at its hard cap, a
// chain-less entry is returned: no rule checking occurs and the call is
// unconditionally admitted, but the entry still participates in its
// context's call stack so pairing is enforced the same as a checked
// entry. If ctx is the null-context sentinel, no rule checking occurs
// either, but the returned entry is standalone: it is never linked into
// the shared sentinel's call stack (see the null-context branch below).
//
// A non-nil error is always a *BlockError: a rule denied the call, and
// the entry has already been unwound (its Exit has been called on the
// caller's behalf). Internal faults encountered while evaluating slots
// are logged and swallowed — the call is admitted (§7.3) — so callers
// never need to distinguish "denied" from "slot chain broke".
func Entry(ctx *Context, registry *ChainRegistry, resource ResourceWrapper, count int64, args ...any) (*SentinelEntry, error) {
	if ctx == nil {
		ctx = NewDefaultContext()
	}

	// NullContext is a single, shared, immutable sentinel value that any
	// number of unrelated call sites may pass concurrently (§3
	// "Context"). It must never be spliced into a real call stack: no
	// parent/child linkage is formed, and ctx.cur is left untouched, so
	// concurrent callers obtaining a null-context entry never race on
	// (or corrupt) each other's state. The returned entry still carries
	// ctx so a subsequent Exit is a well-formed no-op (§4.D step 1, §8
	// scenario 6).
	if ctx.IsNull() {
		return &SentinelEntry{resource: resource, ctx: ctx}, nil
	}

	e := &SentinelEntry{
		resource: resource,
		ctx:      ctx,
		parent:   ctx.cur,
	}
	if ctx.cur != nil {
		ctx.cur.child = e
	}
	ctx.cur = e

	if !GlobalSwitch() {
		return e, nil
	}

	chain := registry.LookChain(resource)
	if chain == nil {
		// at capacity: documented safety valve, admit unconditionally
		return e, nil
	}
	e.chain = chain

	if err := chain.Entry(ctx, resource, count, args...); err != nil {
		var blockErr *BlockError
		if errors.As(err, &blockErr) {
			_ = e.Exit(count, args...)
			return e, blockErr
		}
		// internal fault: fail open, per §7.3
		xlog.Fault(resource.Name(), `internal fault evaluating slot chain, admitting call`, err)
		return e, nil
	}

	return e, nil
}

// Exit completes this entry, popping it from its context's call stack.
//
// If this entry is not the context's current (top of stack) entry, the
// pairing invariant has been violated: every intervening entry is
// force-exited (in LIFO order) before this one is, and a *PairingError
// is returned once the library's internal state has been restored. The
// caller's call graph is still considered corrupt in that case (§4.D,
// §7.2).
//
// A second call to Exit on the same entry is a no-op (returns nil):
// exiting clears the entry's context pointer.
func (e *SentinelEntry) Exit(count int64, args ...any) error {
	if e == nil || e.ctx == nil {
		return nil
	}
	ctx := e.ctx

	// A null-context entry was never linked into ctx.cur (Entry never
	// touches the shared NullContext singleton's state), so there is no
	// stack to pop and nothing to check for pairing: just clear the
	// entry's context pointer, matching the no-op exit of §8 scenario 6.
	if ctx.IsNull() {
		e.ctx = nil
		return nil
	}

	if ctx.cur != e {
		var forced []*SentinelEntry
		for cur := ctx.cur; cur != nil && cur != e; cur = cur.parent {
			forced = append(forced, cur)
		}
		for _, f := range forced {
			f.popLocked(count, args...)
		}
		if ctx.cur == e {
			e.popLocked(count, args...)
		}
		pairingErr := &PairingError{Resource: e.resource, Context: ctx.name}
		xlog.Warn(e.resource.Name(), `entry pairing violated, forced unwind of intervening entries`, pairingErr)
		return pairingErr
	}

	e.popLocked(count, args...)
	return nil
}

// popLocked performs the actual pop: runs the chain's Exit (if any),
// relinks the context's current entry to this entry's parent, and
// clears e.ctx so a repeated call is a no-op. It performs no pairing
// check; callers (Exit, and the forced-unwind path) are responsible for
// only calling it on the entry that is, or is being forced to become,
// the context's current entry.
func (e *SentinelEntry) popLocked(count int64, args ...any) {
	if e.ctx == nil {
		return
	}
	ctx := e.ctx

	if e.chain != nil {
		e.chain.Exit(ctx, e.resource, count, args...)
	}

	ctx.cur = e.parent
	if e.parent != nil {
		e.parent.child = nil
	}

	e.chain = nil
	e.ctx = nil
}
