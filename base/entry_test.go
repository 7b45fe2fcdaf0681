package base

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRegistry(slots ...Slot) *ChainRegistry {
	return NewChainRegistry(func(resource ResourceWrapper) *SlotChain {
		return NewSlotChain(slots...)
	})
}

type recordingSlot struct {
	entryErr error
	entered  *[]string
	exited   *[]string
	name     string
}

func (s *recordingSlot) Entry(ctx *Context, resource ResourceWrapper, count int64, args ...any) error {
	*s.entered = append(*s.entered, s.name)
	return s.entryErr
}

func (s *recordingSlot) Exit(ctx *Context, resource ResourceWrapper, count int64, args ...any) {
	*s.exited = append(*s.exited, s.name)
}

func TestEntry_DefaultContextAutoCreated(t *testing.T) {
	reg := newTestRegistry()
	resource := NewResource(`svc`, Outbound)

	e, err := Entry(nil, reg, resource, 1)
	require.NoError(t, err)
	require.NotNil(t, e)
	require.Equal(t, ContextDefaultName, e.Context().Name())
}

func TestEntry_NullContextShortCircuits(t *testing.T) {
	var entered, exited []string
	reg := newTestRegistry(&recordingSlot{entered: &entered, exited: &exited, name: `flow`})
	resource := NewResource(`svc`, Outbound)

	e, err := Entry(NullContext, reg, resource, 1)
	require.NoError(t, err)
	require.NotNil(t, e)
	require.Empty(t, entered, "rule checking must not run under the null context")

	require.NoError(t, e.Exit(1))
}

func TestEntry_NullContextDoesNotLinkIntoSharedState(t *testing.T) {
	reg := newTestRegistry()
	resource := NewResource(`svc`, Outbound)

	a, err := Entry(NullContext, reg, resource, 1)
	require.NoError(t, err)
	b, err := Entry(NullContext, reg, resource, 1)
	require.NoError(t, err)

	// neither entry was spliced into the shared sentinel's call stack
	require.Nil(t, NullContext.CurEntry())
	require.Nil(t, a.Parent())
	require.Nil(t, b.Parent())

	// exit in the "wrong" order: a well-formed pairing error must not
	// be raised, since there is no stack linkage to violate
	require.NoError(t, a.Exit(1))
	require.NoError(t, b.Exit(1))
}

func TestEntry_NullContextConcurrentUseDoesNotRace(t *testing.T) {
	reg := newTestRegistry()
	resource := NewResource(`svc`, Outbound)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := Entry(NullContext, reg, resource, 1)
			require.NoError(t, err)
			require.NoError(t, e.Exit(1))
		}()
	}
	wg.Wait()

	require.Nil(t, NullContext.CurEntry())
}

func TestEntry_GlobalSwitchOff(t *testing.T) {
	var entered []string
	exited := []string{}
	reg := newTestRegistry(&recordingSlot{entered: &entered, exited: &exited, name: `flow`})
	resource := NewResource(`svc`, Outbound)

	SetGlobalSwitch(false)
	defer SetGlobalSwitch(true)

	e, err := Entry(NewDefaultContext(), reg, resource, 1)
	require.NoError(t, err)
	require.Empty(t, entered)
	require.NoError(t, e.Exit(1))
}

func TestEntry_BlockedRuleUnwindsAndReturnsBlockError(t *testing.T) {
	var entered, exited []string
	blocking := &recordingSlot{entered: &entered, exited: &exited, name: `flow`, entryErr: &BlockError{Reason: `qps exceeded`}}
	reg := newTestRegistry(blocking)
	resource := NewResource(`svc`, Outbound)
	ctx := NewDefaultContext()

	e, err := Entry(ctx, reg, resource, 1)
	require.Error(t, err)

	var blockErr *BlockError
	require.ErrorAs(t, err, &blockErr)
	require.Equal(t, `qps exceeded`, blockErr.Reason)

	// the entry was already unwound on the caller's behalf
	require.Nil(t, ctx.CurEntry())
	require.Contains(t, exited, `flow`)
	_ = e
}

func TestEntry_PairingViolation_ForcesUnwindAndReturnsPairingError(t *testing.T) {
	reg := newTestRegistry()
	ctx := NewDefaultContext()

	a, err := Entry(ctx, reg, NewResource(`A`, Outbound), 1)
	require.NoError(t, err)
	b, err := Entry(ctx, reg, NewResource(`B`, Outbound), 1)
	require.NoError(t, err)

	// exit A first, while B is still open: violates LIFO pairing
	err = a.Exit(1)
	require.Error(t, err)

	var pairingErr *PairingError
	require.ErrorAs(t, err, &pairingErr)

	// both A and B have been unwound; the context's stack is empty
	require.Nil(t, ctx.CurEntry())

	// double-exit of either is a no-op
	require.NoError(t, a.Exit(1))
	require.NoError(t, b.Exit(1))
}

func TestEntry_WellFormedLIFOExit(t *testing.T) {
	reg := newTestRegistry()
	ctx := NewDefaultContext()

	a, err := Entry(ctx, reg, NewResource(`A`, Outbound), 1)
	require.NoError(t, err)
	b, err := Entry(ctx, reg, NewResource(`B`, Outbound), 1)
	require.NoError(t, err)

	require.Same(t, b, ctx.CurEntry())
	require.NoError(t, b.Exit(1))
	require.Same(t, a, ctx.CurEntry())
	require.NoError(t, a.Exit(1))
	require.Nil(t, ctx.CurEntry())
}

func TestEntry_ChainCapacityBypassesChecking(t *testing.T) {
	var entered []string
	exited := []string{}
	reg := newTestRegistry(&recordingSlot{entered: &entered, exited: &exited, name: `flow`})

	full := make(map[ResourceWrapper]*SlotChain, MaxSlotChainSize)
	for i := 0; i < MaxSlotChainSize; i++ {
		full[NewResource(string(rune(i)), Outbound)] = NewSlotChain()
	}
	reg.chains.Store(&full)

	e, err := Entry(NewDefaultContext(), reg, NewResource(`overflow`, Outbound), 1)
	require.NoError(t, err)
	require.Empty(t, entered)
	require.Nil(t, e.chain)
}
