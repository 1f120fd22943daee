package evdvk

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// SlotState is where a frame slot is in its per-frame cycle:
// Idle, Acquiring, Recording, Submitted, PresentRequested, then Idle again
// once its fence has signaled.
type SlotState int

const (
	SlotIdle SlotState = iota
	SlotAcquiring
	SlotRecording
	SlotSubmitted
	SlotPresentRequested
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotAcquiring:
		return "acquiring"
	case SlotRecording:
		return "recording"
	case SlotSubmitted:
		return "submitted"
	case SlotPresentRequested:
		return "present-requested"
	}
	return fmt.Sprintf("SlotState(%d)", int(s))
}

// CoreFrame is one frame slot: command buffer, acquire and finished
// semaphores, completion fence and the uniform buffer holding the frame's
// combined transform. Its resources are touched only after its fence has
// signaled for the previous use.
type CoreFrame struct {
	Index int

	state    SlotState
	image    uint32
	recorded bool

	command  vk.CommandBuffer
	acquired vk.Semaphore
	finished vk.Semaphore
	fence    vk.Fence
	uniform  *CoreBuffer
}

func (f *CoreFrame) State() SlotState { return f.state }

// Image is the swapchain image acquired for the frame in flight.
func (f *CoreFrame) Image() uint32 { return f.image }

// frameRing is the bounded frame pipeline. Its depth is the number of
// slots; the slot after current is only reused once its fence signals,
// so the CPU can never be more than depth-1 frames ahead of the GPU.
type frameRing struct {
	slots   []*CoreFrame
	current int
}

func newFrameRing(slots []*CoreFrame) *frameRing {
	return &frameRing{slots: slots}
}

func (r *frameRing) Depth() int { return len(r.slots) }

func (r *frameRing) Index() int { return r.current }

func (r *frameRing) Current() *CoreFrame { return r.slots[r.current] }

// Advance moves to the next slot, wrapping at depth.
func (r *frameRing) Advance() {
	r.current = (r.current + 1) % len(r.slots)
}

// inFlight counts slots the GPU may still be consuming.
func (r *frameRing) inFlight() int {
	n := 0
	for _, f := range r.slots {
		if f.state == SlotSubmitted || f.state == SlotPresentRequested {
			n++
		}
	}
	return n
}
