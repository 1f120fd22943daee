package evdvk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

// fakeDriver records every call and tracks which frames the "GPU" is still
// working on, so the backend's barriers can be checked without a device.
type fakeDriver struct {
	calls      []string
	violations []string

	// busy holds frames submitted and not yet waited on.
	busy map[*CoreFrame]bool

	live     map[*CoreBuffer]bool
	contents map[*CoreBuffer][]byte
	records  [][]drawCall
	chains   []*CoreChain

	// currentExtent, when non-zero, is what every chain gets regardless of
	// the drawable size asked for.
	currentExtent vk.Extent2D
	acquireErrs   []error
	presentErrs   []error
	failBuffer    int // fail the n-th CreateBuffer, counted from 1
	buffersMade   int
	failBuild     error
	nextImage     uint32
	destroyed     bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		busy:     make(map[*CoreFrame]bool),
		live:     make(map[*CoreBuffer]bool),
		contents: make(map[*CoreBuffer][]byte),
	}
}

func (d *fakeDriver) call(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDriver) destructive(op string) {
	if len(d.busy) > 0 {
		d.violations = append(d.violations, fmt.Sprintf("%s with %d frames in flight", op, len(d.busy)))
	}
}

func (d *fakeDriver) WaitIdle() error {
	d.call("WaitIdle")
	d.busy = make(map[*CoreFrame]bool)
	return nil
}

func (d *fakeDriver) CreateBuffer(usage vk.BufferUsageFlagBits, size int, data []byte) (*CoreBuffer, error) {
	d.call("CreateBuffer %d", size)
	d.buffersMade++
	if d.failBuffer > 0 && d.buffersMade == d.failBuffer {
		return nil, errors.Wrap(ErrAllocation, "fake create buffer")
	}
	b := &CoreBuffer{Size: size, Usage: usage}
	d.live[b] = true
	d.contents[b] = append([]byte(nil), data...)
	return b, nil
}

func (d *fakeDriver) WriteBuffer(b *CoreBuffer, data []byte) error {
	d.call("WriteBuffer %d", len(data))
	if b.released {
		return errors.Wrap(ErrAllocation, "write to released buffer")
	}
	d.contents[b] = append([]byte(nil), data...)
	return nil
}

func (d *fakeDriver) ClearBuffer(b *CoreBuffer) {
	d.call("ClearBuffer")
	d.destructive("ClearBuffer")
	if b.released {
		d.violations = append(d.violations, "ClearBuffer twice")
	}
	b.released = true
	delete(d.live, b)
}

func (d *fakeDriver) CreateFrame(index int) (*CoreFrame, error) {
	d.call("CreateFrame %d", index)
	return &CoreFrame{Index: index}, nil
}

func (d *fakeDriver) RenewFrame(f *CoreFrame) error {
	d.call("RenewFrame %d", f.Index)
	return nil
}

func (d *fakeDriver) DestroyFrame(f *CoreFrame) {
	d.call("DestroyFrame %d", f.Index)
	d.destructive("DestroyFrame")
}

func (d *fakeDriver) BuildChain(drawable vk.Extent2D, frames []*CoreFrame) (*CoreChain, error) {
	d.call("BuildChain %dx%d", drawable.Width, drawable.Height)
	if d.failBuild != nil {
		return nil, d.failBuild
	}
	extent := drawable
	if d.currentExtent.Width != 0 {
		extent = d.currentExtent
	}
	c := &CoreChain{
		Format:      vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		PresentMode: vk.PresentModeFifo,
		Extent:      extent,
		Drawable:    drawable,
		ImageCount:  3,
	}
	d.chains = append(d.chains, c)
	return c, nil
}

func (d *fakeDriver) DestroyChain(c *CoreChain) {
	if c == nil || c.released {
		return
	}
	d.call("DestroyChain")
	d.destructive("DestroyChain")
	c.released = true
}

func (d *fakeDriver) WaitFrame(f *CoreFrame) error {
	d.call("WaitFrame %d", f.Index)
	delete(d.busy, f)
	return nil
}

func (d *fakeDriver) ResetFrame(f *CoreFrame) error {
	d.call("ResetFrame %d", f.Index)
	return nil
}

func (d *fakeDriver) Acquire(c *CoreChain, f *CoreFrame) (uint32, error) {
	d.call("Acquire %d", f.Index)
	if c == nil || c.released {
		d.violations = append(d.violations, "Acquire on a destroyed chain")
	}
	if len(d.acquireErrs) > 0 {
		err := d.acquireErrs[0]
		d.acquireErrs = d.acquireErrs[1:]
		if err != nil && !errors.Is(err, errSuboptimal) {
			return 0, err
		}
		image := d.nextImage
		d.nextImage = (d.nextImage + 1) % 3
		return image, err
	}
	image := d.nextImage
	d.nextImage = (d.nextImage + 1) % 3
	return image, nil
}

func (d *fakeDriver) Record(c *CoreChain, f *CoreFrame, draws []drawCall) error {
	d.call("Record %d", f.Index)
	for _, draw := range draws {
		if draw.buffer.released {
			d.violations = append(d.violations, "Record with a released vertex buffer")
		}
	}
	d.records = append(d.records, draws)
	return nil
}

func (d *fakeDriver) Submit(f *CoreFrame) error {
	d.call("Submit %d", f.Index)
	if d.busy[f] {
		d.violations = append(d.violations, fmt.Sprintf("slot %d submitted while still in flight", f.Index))
	}
	d.busy[f] = true
	return nil
}

func (d *fakeDriver) Present(c *CoreChain, f *CoreFrame) error {
	d.call("Present %d", f.Index)
	if len(d.presentErrs) > 0 {
		err := d.presentErrs[0]
		d.presentErrs = d.presentErrs[1:]
		return err
	}
	return nil
}

func (d *fakeDriver) Destroy() {
	d.call("Destroy")
	d.destroyed = true
}

// count returns how many recorded calls start with prefix.
func (d *fakeDriver) count(prefix string) int {
	n := 0
	for _, c := range d.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// reset forgets the calls made so far.
func (d *fakeDriver) reset() {
	d.calls = nil
	d.records = nil
}

// idleBefore checks that every call starting with op is preceded, with
// only other destructive calls in between, by a WaitIdle.
func (d *fakeDriver) idleBefore(t *testing.T, op string) {
	t.Helper()
	idle := false
	for _, c := range d.calls {
		switch {
		case c == "WaitIdle":
			idle = true
		case strings.HasPrefix(c, op):
			require.Truef(t, idle, "%s without a preceding WaitIdle in %v", op, d.calls)
		case strings.HasPrefix(c, "Submit"):
			idle = false
		}
	}
}

type fakeDisplay struct {
	width, height int
}

func (f *fakeDisplay) CreateSurface(vk.Instance) (vk.Surface, error) { return vk.NullSurface, nil }
func (f *fakeDisplay) DrawableSize() (int, int)                      { return f.width, f.height }
func (f *fakeDisplay) RequiredInstanceExtensions() []string          { return nil }

type recordLogger struct {
	infos, warns, errs []string
}

func (r *recordLogger) Infof(format string, args ...interface{}) {
	r.infos = append(r.infos, fmt.Sprintf(format, args...))
}

func (r *recordLogger) Warnf(format string, args ...interface{}) {
	r.warns = append(r.warns, fmt.Sprintf(format, args...))
}

func (r *recordLogger) Errorf(format string, args ...interface{}) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

type testBackend struct {
	*CoreBackend
	fake   *fakeDriver
	screen *fakeDisplay
	logs   *recordLogger
}

func newTestBackend(t *testing.T, cfg Config) *testBackend {
	t.Helper()
	tb := &testBackend{
		fake:   newFakeDriver(),
		screen: &fakeDisplay{width: 800, height: 600},
		logs:   &recordLogger{},
	}
	tb.CoreBackend = NewCoreBackend(cfg, tb.logs)
	tb.open = func(Config, Drawable, Logger) (driver, error) { return tb.fake, nil }
	require.NoError(t, tb.Init(tb.screen))
	return tb
}

// drawFrame runs one full PrepareDraw, SetMatrices, FinishDraw cycle.
func (tb *testBackend) drawFrame(t *testing.T) {
	t.Helper()
	require.NoError(t, tb.PrepareDraw())
	require.NoError(t, tb.SetMatrices(VulkanPerspective(1, 1, 0.1, 10), mgl32.Ident4()))
	require.NoError(t, tb.FinishDraw())
}
