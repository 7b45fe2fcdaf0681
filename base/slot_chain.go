package base

// SlotChain is an ordered, immutable-after-construction sequence of
// slots, built once per unique resource and shared for its lifetime
// (§3 "Processor slot chain").
type SlotChain struct {
	slots []Slot
}

// NewSlotChain builds a chain from the given slots, in entry order.
func NewSlotChain(slots ...Slot) *SlotChain {
	return &SlotChain{slots: slots}
}

// Entry runs each slot's Entry in order. On the first slot that returns
// an error, already-entered slots are unwound (their Exit called, in
// reverse order) before the error is returned to the caller (§4.E).
func (c *SlotChain) Entry(ctx *Context, resource ResourceWrapper, count int64, args ...any) error {
	entered := 0
	var failure error
	for _, s := range c.slots {
		if err := s.Entry(ctx, resource, count, args...); err != nil {
			failure = err
			break
		}
		entered++
	}
	if failure != nil {
		for i := entered - 1; i >= 0; i-- {
			c.slots[i].Exit(ctx, resource, count, args...)
		}
		return failure
	}
	return nil
}

// Exit runs every slot's Exit in reverse order.
func (c *SlotChain) Exit(ctx *Context, resource ResourceWrapper, count int64, args ...any) {
	for i := len(c.slots) - 1; i >= 0; i-- {
		c.slots[i].Exit(ctx, resource, count, args...)
	}
}
