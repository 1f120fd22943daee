package evdvk

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Backend is the rendering contract the event display front end drives:
// Init, then per frame PrepareDraw, SetMatrices, FinishDraw, with Resize
// and LoadVertexData between frames, then Shutdown.
type Backend interface {
	Init(display Drawable) error
	Shutdown() error

	// LegacyProfile reports whether a compatibility rendering mode exists.
	LegacyProfile() bool
	// DepthBits is the depth buffer precision, zero when there is none.
	DepthBits() int

	PrepareDraw() error
	SetMatrices(projection, view mgl32.Mat4) error
	FinishDraw() error

	Resize(width, height int) error
	LoadVertexData(partitions [][]float32) error

	// ReadPixels and MixImages are accepted and do nothing.
	ReadPixels(x, y, width, height int, out []byte)
	MixImages(weight float32)

	Stats() Stats
}

// Stats is a snapshot of backend counters.
type Stats struct {
	Frames   uint64
	Rebuilds int
	Vertices int
	Buffers  int
	Slot     int
	Width    uint32
	Height   uint32
}

var _ Backend = (*CoreBackend)(nil)

// CoreBackend is the Vulkan rendering backend. It is driven from a single
// goroutine; none of its methods may be called concurrently.
type CoreBackend struct {
	cfg  Config
	log  Logger
	open openFunc

	drv     driver
	display Drawable
	ring    *frameRing
	chain   *CoreChain
	verts   *vertexSet

	// stale is set when acquire or present reported the chain out of date
	// and a rebuild could not happen on the spot.
	stale         bool
	resizePending bool
	pending       vk.Extent2D

	lastTransform mgl32.Mat4
	frames        uint64
	rebuilds      int
}

// NewCoreBackend returns an uninitialized backend. A nil log discards
// diagnostics.
func NewCoreBackend(cfg Config, log Logger) *CoreBackend {
	if log == nil {
		log = NopLogger()
	}
	return &CoreBackend{cfg: cfg, log: log, open: openVulkan, lastTransform: mgl32.Ident4()}
}

func (b *CoreBackend) Config() Config { return b.cfg }

func (b *CoreBackend) LegacyProfile() bool { return false }

func (b *CoreBackend) DepthBits() int { return 0 }

// Init brings up device, frame slots and the first surface chain sized to
// the display. On failure everything created so far is released.
func (b *CoreBackend) Init(display Drawable) (err error) {
	if b.drv != nil {
		return configErrorf("init: backend already initialized")
	}
	if err := b.cfg.Validate(); err != nil {
		return err
	}
	drv, err := b.open(b.cfg, display, b.log)
	if err != nil {
		return err
	}
	b.drv = drv
	b.display = display
	b.ring = newFrameRing(nil)
	b.stale, b.resizePending = false, false
	b.frames, b.rebuilds = 0, 0
	b.lastTransform = mgl32.Ident4()
	defer func() {
		if err != nil {
			b.teardown()
		}
	}()

	for i := 0; i < FramesInFlight; i++ {
		f, err := drv.CreateFrame(i)
		if err != nil {
			return err
		}
		b.ring.slots = append(b.ring.slots, f)
		f.uniform, err = drv.CreateBuffer(vk.BufferUsageUniformBufferBit, uniformSize, matrixBytes(b.lastTransform))
		if err != nil {
			return err
		}
	}

	if b.chain, err = drv.BuildChain(b.drawableExtent(), b.ring.slots); err != nil {
		return err
	}
	b.log.Infof("vulkan: backend ready, %d frame slots", b.ring.Depth())
	return nil
}

// Shutdown waits for the device to go idle and releases everything in
// reverse creation order. Calling it again is a no-op.
func (b *CoreBackend) Shutdown() error {
	if b.drv == nil {
		return nil
	}
	return b.teardown()
}

func (b *CoreBackend) teardown() error {
	err := b.drv.WaitIdle()
	if err != nil {
		b.log.Errorf("vulkan: idle wait before shutdown: %v", err)
	}
	b.releaseVertices()
	b.drv.DestroyChain(b.chain)
	b.chain = nil
	if b.ring != nil {
		for i := len(b.ring.slots) - 1; i >= 0; i-- {
			f := b.ring.slots[i]
			if f.uniform != nil {
				b.drv.ClearBuffer(f.uniform)
				f.uniform = nil
			}
			b.drv.DestroyFrame(f)
		}
	}
	b.ring = nil
	b.drv.Destroy()
	b.drv = nil
	b.display = nil
	return err
}

func (b *CoreBackend) ready(op string) error {
	if b.drv == nil {
		return errors.Wrap(ErrNotInitialized, op)
	}
	return nil
}

func (b *CoreBackend) drawableExtent() vk.Extent2D {
	w, h := b.display.DrawableSize()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return vk.Extent2D{Width: uint32(w), Height: uint32(h)}
}

func sameExtent(a, b vk.Extent2D) bool {
	return a.Width == b.Width && a.Height == b.Height
}

// recreatePipeline waits for the device to go idle, drops the whole
// surface chain and builds a fresh one from current surface capabilities.
func (b *CoreBackend) recreatePipeline() error {
	if err := b.drv.WaitIdle(); err != nil {
		return err
	}
	b.drv.DestroyChain(b.chain)
	b.chain = nil
	for _, f := range b.ring.slots {
		if err := b.drv.RenewFrame(f); err != nil {
			return err
		}
	}

	target := b.drawableExtent()
	if b.resizePending {
		target = b.pending
	}
	chain, err := b.drv.BuildChain(target, b.ring.slots)
	if err != nil {
		return err
	}
	b.chain = chain
	b.rebuilds++
	b.stale = false
	b.resizePending = false
	return nil
}

// PrepareDraw waits on the current slot's fence, rebuilds the chain if it
// went stale or a resize is pending, and acquires the next image. A stale
// acquire is rebuilt and retried once.
func (b *CoreBackend) PrepareDraw() error {
	if err := b.ready("prepare draw"); err != nil {
		return err
	}
	f := b.ring.Current()
	if f.state != SlotIdle && f.state != SlotPresentRequested {
		return sequenceErrorf("prepare draw: slot %d is %s", f.Index, f.state)
	}
	if err := b.drv.WaitFrame(f); err != nil {
		return err
	}
	f.state = SlotIdle

	if b.stale || b.resizePending || b.chain == nil {
		if err := b.recreatePipeline(); err != nil {
			return err
		}
	}

	f.state = SlotAcquiring
	image, err := b.drv.Acquire(b.chain, f)
	if errors.Is(err, ErrTransientSurface) {
		b.log.Infof("vulkan: %v, rebuilding surface chain", err)
		if err = b.recreatePipeline(); err != nil {
			f.state = SlotIdle
			return err
		}
		image, err = b.drv.Acquire(b.chain, f)
		if errors.Is(err, errSuboptimal) {
			// The image is usable; rebuild again at the next frame.
			b.stale = true
			err = nil
		}
	}
	if err != nil {
		if errors.Is(err, ErrTransientSurface) {
			b.stale = true
		}
		f.state = SlotIdle
		return err
	}

	if err := b.drv.ResetFrame(f); err != nil {
		f.state = SlotIdle
		return err
	}
	f.image = image
	f.recorded = false
	f.state = SlotRecording
	return nil
}

// SetMatrices writes projection*view into the slot's uniform buffer and
// records the slot's command buffer against it.
func (b *CoreBackend) SetMatrices(projection, view mgl32.Mat4) error {
	if err := b.ready("set matrices"); err != nil {
		return err
	}
	f := b.ring.Current()
	if f.state != SlotRecording {
		return sequenceErrorf("set matrices: slot %d is %s", f.Index, f.state)
	}
	return b.record(f, combinedTransform(projection, view))
}

func (b *CoreBackend) record(f *CoreFrame, transform mgl32.Mat4) error {
	if err := b.drv.WriteBuffer(f.uniform, matrixBytes(transform)); err != nil {
		return err
	}
	if err := b.drv.Record(b.chain, f, b.verts.draws()); err != nil {
		return err
	}
	f.recorded = true
	b.lastTransform = transform
	return nil
}

// FinishDraw submits the slot, presents its image and rotates to the next
// slot. A frame with no SetMatrices call is recorded with the last
// transform.
func (b *CoreBackend) FinishDraw() error {
	if err := b.ready("finish draw"); err != nil {
		return err
	}
	f := b.ring.Current()
	if f.state != SlotRecording {
		return sequenceErrorf("finish draw: slot %d is %s", f.Index, f.state)
	}
	if !f.recorded {
		if err := b.record(f, b.lastTransform); err != nil {
			return err
		}
	}
	if err := b.drv.Submit(f); err != nil {
		return err
	}
	f.state = SlotSubmitted

	err := b.drv.Present(b.chain, f)
	f.state = SlotPresentRequested
	b.ring.Advance()
	b.frames++
	if errors.Is(err, ErrTransientSurface) {
		b.log.Infof("vulkan: %v, surface chain marked stale", err)
		b.stale = true
		return nil
	}
	return err
}

// Resize records the new drawable size. The rebuild happens at the next
// PrepareDraw, so several resizes between frames cost one rebuild. A size
// matching the active chain cancels any pending rebuild.
func (b *CoreBackend) Resize(width, height int) error {
	if err := b.ready("resize"); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		b.log.Infof("vulkan: ignoring resize to %dx%d", width, height)
		return nil
	}
	want := vk.Extent2D{Width: uint32(width), Height: uint32(height)}
	if b.chain != nil && (sameExtent(want, b.chain.Extent) || sameExtent(want, b.chain.Drawable)) {
		b.resizePending = false
		return nil
	}
	b.pending = want
	b.resizePending = true
	return nil
}

// ReadPixels is not supported by this backend. It returns without
// touching out.
func (b *CoreBackend) ReadPixels(x, y, width, height int, out []byte) {}

// MixImages is not supported by this backend.
func (b *CoreBackend) MixImages(weight float32) {
	b.log.Warnf("vulkan: image mixing is not supported, ignoring weight %.2f", weight)
}

func (b *CoreBackend) Stats() Stats {
	s := Stats{Frames: b.frames, Rebuilds: b.rebuilds}
	if b.verts != nil {
		s.Vertices = b.verts.vertices()
		s.Buffers = len(b.verts.buffers)
	}
	if b.ring != nil {
		s.Slot = b.ring.Index()
	}
	if b.chain != nil {
		s.Width, s.Height = b.chain.Extent.Width, b.chain.Extent.Height
	}
	return s
}
