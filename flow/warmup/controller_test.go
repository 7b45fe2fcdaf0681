package warmup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode is a minimal StatSource double with independently settable
// pass/previous-pass counters, avoiding any real-time dependency.
type fakeNode struct {
	pass     int64
	prevPass int64
}

func (f *fakeNode) PassQPS() int64         { return f.pass }
func (f *fakeNode) PreviousPassQPS() int64 { return f.prevPass }

func TestNew_rejectsInvalidParameters(t *testing.T) {
	_, err := New(100, 10, 1)
	assert.Error(t, err, `coldFactor <= 1 must be rejected`)

	_, err = New(0, 10, 3)
	assert.Error(t, err, `count <= 0 must be rejected`)

	_, err = New(100, 0, 3)
	assert.Error(t, err, `warmUpPeriodSec <= 0 must be rejected`)
}

func TestNew_derivations(t *testing.T) {
	c, err := New(100, 10, 3)
	require.NoError(t, err)

	assert.EqualValues(t, 500, c.warningToken)
	assert.EqualValues(t, 1000, c.maxToken)
	assert.InDelta(t, 4e-5, c.slope, 1e-12)
}

func TestController_coldStartRamp(t *testing.T) {
	defer func(orig func() time.Time) { timeNow = orig }(timeNow)
	now := time.Unix(1_700_000_000, 0)
	timeNow = func() time.Time { return now }

	c, err := New(100, 10, 3)
	require.NoError(t, err)
	c.storedTokens.Store(1000)
	c.lastFilledTimeMs.Store(nowSecAlignedMs())

	node := &fakeNode{}
	admitted := 0
	for i := 0; i < 40; i++ {
		if c.CanPass(node, 1) {
			admitted++
			node.pass++
		}
	}
	// warningQps = nextUp(1/(500*4e-5 + 1/100)) = nextUp(1/0.03) ~= 33.33
	assert.InDelta(t, 33, admitted, 2, `cold-start ramp should admit ~33 calls in the first second`)
}

func TestController_hotSteadyState(t *testing.T) {
	defer func(orig func() time.Time) { timeNow = orig }(timeNow)
	now := time.Unix(1_700_000_000, 0)
	timeNow = func() time.Time { return now }

	c, err := New(100, 10, 3)
	require.NoError(t, err)
	c.storedTokens.Store(0)
	c.lastFilledTimeMs.Store(nowSecAlignedMs())

	node := &fakeNode{pass: 99}
	assert.True(t, c.CanPass(node, 1), `99+1 <= 100 must be admitted in stable regime`)

	node2 := &fakeNode{pass: 100}
	assert.False(t, c.CanPass(node2, 1), `100+1 > 100 must be denied in stable regime`)
}

func TestController_reCoolingClampsAtMaxToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	defer func(orig func() time.Time) { timeNow = orig }(timeNow)
	timeNow = func() time.Time { return now }

	c, err := New(100, 10, 3)
	require.NoError(t, err)
	c.storedTokens.Store(c.maxToken)
	c.lastFilledTimeMs.Store(nowSecAlignedMs())

	// Advance two seconds with prevQps below count/coldFactor (33): each
	// refill is clamped at maxToken before prevQps (10) is subtracted, so
	// tokens settle at maxToken-10 and never exceed maxToken.
	for i := 0; i < 2; i++ {
		now = now.Add(time.Second)
		timeNow = func() time.Time { return now }
		node := &fakeNode{prevPass: 10}
		c.CanPass(node, 0)
		assert.LessOrEqual(t, c.storedTokens.Load(), c.maxToken)
	}
}

func TestController_reCoolingDecrementsUnderHighTraffic(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	defer func(orig func() time.Time) { timeNow = orig }(timeNow)
	timeNow = func() time.Time { return now }

	c, err := New(100, 10, 3)
	require.NoError(t, err)
	c.storedTokens.Store(c.maxToken)
	c.lastFilledTimeMs.Store(nowSecAlignedMs())

	before := c.storedTokens.Load()
	now = now.Add(time.Second)
	timeNow = func() time.Time { return now }
	node := &fakeNode{prevPass: 50}
	c.CanPass(node, 0)
	assert.Less(t, c.storedTokens.Load(), before, `tokens must decrement under traffic above the idle threshold`)
}

func TestCoolDown_warningTokenIsNoOp(t *testing.T) {
	c, err := New(100, 10, 3)
	require.NoError(t, err)

	got := c.coolDown(c.warningToken, c.lastFilledTimeMs.Load()+5000, c.lastFilledTimeMs.Load(), 0)
	assert.Equal(t, c.warningToken, got, `old == warningToken must be preserved as a no-op`)
}

func TestNextUp_isStrictlyGreater(t *testing.T) {
	x := 1.0 / 0.03
	assert.Greater(t, nextUp(x), x)
}
