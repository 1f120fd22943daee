package evdvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// drawCall draws vertices points from one vertex buffer.
type drawCall struct {
	buffer   *CoreBuffer
	vertices uint32
}

// driver is the native side of the backend. CoreBackend decides when
// things happen; the driver only knows how. openVulkan provides the real
// one.
type driver interface {
	// WaitIdle is the single barrier before every destructive operation.
	WaitIdle() error

	CreateBuffer(usage vk.BufferUsageFlagBits, size int, data []byte) (*CoreBuffer, error)
	WriteBuffer(b *CoreBuffer, data []byte) error
	ClearBuffer(b *CoreBuffer)

	CreateFrame(index int) (*CoreFrame, error)
	RenewFrame(f *CoreFrame) error
	DestroyFrame(f *CoreFrame)

	BuildChain(drawable vk.Extent2D, frames []*CoreFrame) (*CoreChain, error)
	DestroyChain(c *CoreChain)

	WaitFrame(f *CoreFrame) error
	ResetFrame(f *CoreFrame) error
	Acquire(c *CoreChain, f *CoreFrame) (uint32, error)
	Record(c *CoreChain, f *CoreFrame, draws []drawCall) error
	Submit(f *CoreFrame) error
	Present(c *CoreChain, f *CoreFrame) error

	Destroy()
}

type openFunc func(cfg Config, display Drawable, log Logger) (driver, error)

// CoreChain is the surface chain together with the pipeline state built
// for it. A rebuild always produces a fresh CoreChain; a destroyed one is
// never reused.
type CoreChain struct {
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	// Drawable is the size that was asked for when the chain was built.
	Drawable   vk.Extent2D
	ImageCount int

	swapchain   *CoreSwapchain
	renderPass  *CoreRenderPass
	pipeline    *CorePipeline
	descriptors *CoreDescriptors
	released    bool
}

type vkDriver struct {
	cfg      Config
	log      Logger
	instance *CoreInstance
	device   *CoreDevice
	pool     *CorePool
	shader   *CoreShader
}

// openVulkan brings up instance, surface, device, command pool and shader
// modules in that order. Shader blobs are read first so a missing file
// fails before anything native exists. vk.Init must have run.
func openVulkan(cfg Config, display Drawable, log Logger) (driver, error) {
	shader, err := LoadCoreShader(cfg)
	if err != nil {
		return nil, err
	}
	d := &vkDriver{cfg: cfg, log: log, shader: shader}

	if d.instance, err = NewCoreInstance(cfg, display, log); err != nil {
		return nil, err
	}
	if d.device, err = NewCoreDevice(d.instance, log); err != nil {
		d.Destroy()
		return nil, err
	}
	if d.pool, err = NewCorePool(d.device); err != nil {
		d.Destroy()
		return nil, err
	}
	if err = d.shader.CreateModules(d.device); err != nil {
		d.Destroy()
		return nil, err
	}
	return d, nil
}

func (d *vkDriver) WaitIdle() error {
	return d.device.WaitIdle()
}

func (d *vkDriver) CreateBuffer(usage vk.BufferUsageFlagBits, size int, data []byte) (*CoreBuffer, error) {
	return d.device.CreateBuffer(usage, size, data)
}

func (d *vkDriver) WriteBuffer(b *CoreBuffer, data []byte) error {
	return d.device.WriteBuffer(b, data)
}

func (d *vkDriver) ClearBuffer(b *CoreBuffer) {
	d.device.ClearBuffer(b)
}

func (d *vkDriver) createSemaphore() (vk.Semaphore, error) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(d.device.handle, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	if isError(ret) {
		return vk.NullSemaphore, errors.Wrap(NewError(ret), "create semaphore")
	}
	return sem, nil
}

// CreateFrame makes a slot whose fence starts signaled, so the first wait
// on it returns at once.
func (d *vkDriver) CreateFrame(index int) (*CoreFrame, error) {
	f := &CoreFrame{Index: index}
	var err error
	if f.command, err = d.pool.Allocate(d.device); err != nil {
		return nil, err
	}
	if f.acquired, err = d.createSemaphore(); err != nil {
		d.DestroyFrame(f)
		return nil, err
	}
	if f.finished, err = d.createSemaphore(); err != nil {
		d.DestroyFrame(f)
		return nil, err
	}
	ret := vk.CreateFence(d.device.handle, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}, nil, &f.fence)
	if isError(ret) {
		d.DestroyFrame(f)
		return nil, errors.Wrap(NewError(ret), "create fence")
	}
	return f, nil
}

// RenewFrame replaces both semaphores. An acquire that reported a
// suboptimal chain may leave the old acquire semaphore signaled.
func (d *vkDriver) RenewFrame(f *CoreFrame) error {
	acquired, err := d.createSemaphore()
	if err != nil {
		return err
	}
	finished, err := d.createSemaphore()
	if err != nil {
		vk.DestroySemaphore(d.device.handle, acquired, nil)
		return err
	}
	vk.DestroySemaphore(d.device.handle, f.acquired, nil)
	vk.DestroySemaphore(d.device.handle, f.finished, nil)
	f.acquired, f.finished = acquired, finished
	return nil
}

func (d *vkDriver) DestroyFrame(f *CoreFrame) {
	if f.fence != vk.NullFence {
		vk.DestroyFence(d.device.handle, f.fence, nil)
		f.fence = vk.NullFence
	}
	if f.finished != vk.NullSemaphore {
		vk.DestroySemaphore(d.device.handle, f.finished, nil)
		f.finished = vk.NullSemaphore
	}
	if f.acquired != vk.NullSemaphore {
		vk.DestroySemaphore(d.device.handle, f.acquired, nil)
		f.acquired = vk.NullSemaphore
	}
	d.pool.Free(d.device, f.command)
	f.command = nil
}

// BuildChain creates swapchain, views, render pass, pipeline, framebuffers
// and per-slot descriptor sets from the surface's current capabilities.
func (d *vkDriver) BuildChain(drawable vk.Extent2D, frames []*CoreFrame) (*CoreChain, error) {
	dev := d.device
	support, err := QuerySurfaceSupport(dev.gpu, d.instance.surface)
	if err != nil {
		return nil, err
	}
	format, err := ChooseSurfaceFormat(support.Formats, vk.SurfaceFormat{
		Format:     d.cfg.PreferredFormat,
		ColorSpace: d.cfg.PreferredColorSpace,
	})
	if err != nil {
		return nil, err
	}

	chain := &CoreChain{Drawable: drawable}
	if chain.swapchain, err = NewCoreSwapchain(dev, d.instance.surface, support, format, drawable); err != nil {
		return nil, err
	}
	chain.Format = chain.swapchain.format
	chain.PresentMode = chain.swapchain.presentMode
	chain.Extent = chain.swapchain.extent
	chain.ImageCount = len(chain.swapchain.images)

	if chain.renderPass, err = NewCoreRenderPass(dev, format.Format); err != nil {
		d.DestroyChain(chain)
		return nil, err
	}
	builder := NewPipelineBuilder(d.shader, chain.Extent)
	if chain.pipeline, err = builder.BuildPipeline(dev, chain.renderPass.renderPass); err != nil {
		d.DestroyChain(chain)
		return nil, err
	}
	if err = chain.swapchain.CreateFramebuffers(dev, chain.renderPass.renderPass); err != nil {
		d.DestroyChain(chain)
		return nil, err
	}
	uniforms := make([]*CoreBuffer, len(frames))
	for i, f := range frames {
		uniforms[i] = f.uniform
	}
	if chain.descriptors, err = NewCoreDescriptors(dev, chain.pipeline.descriptorLayout, uniforms); err != nil {
		d.DestroyChain(chain)
		return nil, err
	}
	d.log.Infof("vulkan: surface chain %dx%d, %d images, format %d, present mode %d",
		chain.Extent.Width, chain.Extent.Height, chain.ImageCount, chain.Format.Format, chain.PresentMode)
	return chain, nil
}

// DestroyChain tears down in reverse build order. Safe on a partly built chain.
func (d *vkDriver) DestroyChain(c *CoreChain) {
	if c == nil || c.released {
		return
	}
	c.released = true
	dev := d.device
	if c.descriptors != nil {
		c.descriptors.Destroy(dev)
	}
	if c.swapchain != nil {
		c.swapchain.DestroyFramebuffers(dev)
	}
	if c.pipeline != nil {
		c.pipeline.Destroy(dev)
	}
	if c.renderPass != nil {
		c.renderPass.Destroy(dev)
	}
	if c.swapchain != nil {
		c.swapchain.Destroy(dev)
	}
}

func (d *vkDriver) WaitFrame(f *CoreFrame) error {
	ret := vk.WaitForFences(d.device.handle, 1, []vk.Fence{f.fence}, vk.True, vk.MaxUint64)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "wait for frame fence")
	}
	return nil
}

func (d *vkDriver) ResetFrame(f *CoreFrame) error {
	if ret := vk.ResetFences(d.device.handle, 1, []vk.Fence{f.fence}); isError(ret) {
		return errors.Wrap(NewError(ret), "reset frame fence")
	}
	return nil
}

func (d *vkDriver) Acquire(c *CoreChain, f *CoreFrame) (uint32, error) {
	var index uint32
	ret := vk.AcquireNextImage(d.device.handle, c.swapchain.swapchain, vk.MaxUint64,
		f.acquired, vk.NullFence, &index)
	return index, surfaceError(ret, "acquire next image")
}

func (d *vkDriver) Record(c *CoreChain, f *CoreFrame, draws []drawCall) error {
	cmd := f.command
	if ret := vk.ResetCommandBuffer(cmd, 0); isError(ret) {
		return errors.Wrap(NewError(ret), "reset command buffer")
	}
	ret := vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if isError(ret) {
		return errors.Wrap(NewError(ret), "begin command buffer")
	}

	clearValues := []vk.ClearValue{
		vk.NewClearValue(d.cfg.ClearColor[:]),
	}
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      c.renderPass.renderPass,
		Framebuffer:     c.swapchain.framebuffers[f.image],
		RenderArea:      vk.Rect2D{Offset: vk.Offset2D{}, Extent: c.Extent},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, c.pipeline.pipeline)
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, c.pipeline.layout, 0, 1,
		[]vk.DescriptorSet{c.descriptors.sets[f.Index]}, 0, nil)
	for _, draw := range draws {
		vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{draw.buffer.buffer}, []vk.DeviceSize{0})
		vk.CmdDraw(cmd, draw.vertices, 1, 0, 0)
	}

	vk.CmdEndRenderPass(cmd)
	if ret := vk.EndCommandBuffer(cmd); isError(ret) {
		return errors.Wrap(NewError(ret), "end command buffer")
	}
	return nil
}

// Submit waits on the acquire semaphore at color output and signals the
// finished semaphore and the slot fence.
func (d *vkDriver) Submit(f *CoreFrame) error {
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.acquired},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{f.command},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{f.finished},
	}
	ret := vk.QueueSubmit(d.device.queue, 1, []vk.SubmitInfo{submitInfo}, f.fence)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "queue submit")
	}
	return nil
}

func (d *vkDriver) Present(c *CoreChain, f *CoreFrame) error {
	ret := vk.QueuePresent(d.device.queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.finished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{c.swapchain.swapchain},
		PImageIndices:      []uint32{f.image},
	})
	return surfaceError(ret, "queue present")
}

// Destroy releases shader modules, command pool, device and instance.
// Everything chain- and frame-scoped must already be gone.
func (d *vkDriver) Destroy() {
	if d.device != nil {
		d.shader.Destroy(d.device)
		if d.pool != nil {
			d.pool.Destroy(d.device)
		}
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
}
