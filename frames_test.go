package evdvk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameRingAdvance(t *testing.T) {
	ring := newFrameRing([]*CoreFrame{{Index: 0}, {Index: 1}, {Index: 2}})
	seen := []int{}
	for i := 0; i < 7; i++ {
		assert.Equal(t, ring.Index(), ring.Current().Index)
		seen = append(seen, ring.Index())
		ring.Advance()
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0}, seen)
	assert.Equal(t, 3, ring.Depth())
}

func TestFrameRingInFlight(t *testing.T) {
	ring := newFrameRing([]*CoreFrame{
		{Index: 0, state: SlotSubmitted},
		{Index: 1, state: SlotPresentRequested},
		{Index: 2, state: SlotRecording},
	})
	assert.Equal(t, 2, ring.inFlight())
}

func TestSlotStateString(t *testing.T) {
	assert.Equal(t, "present-requested", SlotPresentRequested.String())
	assert.Equal(t, "SlotState(9)", SlotState(9).String())
}
