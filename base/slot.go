package base

// Slot is the pipeline abstraction a SlotChain executes in order on
// entry, and in reverse order on exit (§4.E). The only slot this
// specification's core concerns itself with is the flow slot
// (flow.FlowSlot), but the interface is kept open so other processors
// (e.g. system load shedding, not covered here) can share the chain.
type Slot interface {
	// Entry runs this slot's admission check. A non-nil error returned
	// here is either a *BlockError (the rule denied the call, §7.1) or
	// an internal fault (§7.3); SlotChain returns either one unchanged
	// and base.Entry distinguishes the two.
	Entry(ctx *Context, resource ResourceWrapper, count int64, args ...any) error
	// Exit runs this slot's symmetric teardown. When a slot's Entry
	// fails, SlotChain.Entry calls Exit on the slots before it that
	// entered successfully; SlotChain.Exit calls it on every slot,
	// including any whose Entry failed or was never reached.
	Exit(ctx *Context, resource ResourceWrapper, count int64, args ...any)
}
