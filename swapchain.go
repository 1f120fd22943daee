package evdvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SurfaceSupport is what the surface reports about itself at build time.
type SurfaceSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// QuerySurfaceSupport reads capabilities, formats and present modes.
func QuerySurfaceSupport(gpu vk.PhysicalDevice, surface vk.Surface) (SurfaceSupport, error) {
	var support SurfaceSupport
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &support.Capabilities)
	if isError(ret) {
		return support, errors.Wrap(NewError(ret), "surface capabilities")
	}
	support.Capabilities.Deref()
	support.Capabilities.CurrentExtent.Deref()
	support.Capabilities.MinImageExtent.Deref()
	support.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, nil)
	support.Formats = make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, support.Formats)
	for i := range support.Formats {
		support.Formats[i].Deref()
	}

	var modeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &modeCount, nil)
	support.PresentModes = make([]vk.PresentMode, modeCount)
	vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &modeCount, support.PresentModes)
	return support, nil
}

// ChooseSurfaceFormat returns preferred when the surface lists it, the
// preferred pair when the surface leaves the format undefined, and the
// first reported format otherwise.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat, preferred vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, configErrorf("surface has no pixel formats")
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return preferred, nil
	}
	for _, format := range formats {
		if format.Format == preferred.Format && format.ColorSpace == preferred.ColorSpace {
			return format, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode prefers mailbox and falls back to FIFO, the one mode
// every surface supports.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent uses the surface's current extent when it is defined and
// otherwise clamps the drawable size into the surface bounds per axis.
func ChooseExtent(caps vk.SurfaceCapabilities, drawable vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(drawable.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(drawable.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount is one more than the minimum, capped by a bounded maximum.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CoreSwapchain is the presentable image chain with one view and one
// framebuffer per image. It is never patched, only rebuilt.
type CoreSwapchain struct {
	swapchain    vk.Swapchain
	format       vk.SurfaceFormat
	presentMode  vk.PresentMode
	extent       vk.Extent2D
	images       []vk.Image
	image_views  []vk.ImageView
	framebuffers []vk.Framebuffer
}

func preTransform(caps vk.SurfaceCapabilities) vk.SurfaceTransformFlagBits {
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&vk.SurfaceTransformIdentityBit != 0 {
		return vk.SurfaceTransformIdentityBit
	}
	return caps.CurrentTransform
}

// Find a supported composite alpha mode - one of these is guaranteed to be set
func compositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	compositeAlphaFlags := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for _, flag := range compositeAlphaFlags {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			return flag
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

// NewCoreSwapchain creates the swapchain and its image views. Framebuffers
// are attached later, once the render pass exists.
func NewCoreSwapchain(dev *CoreDevice, surface vk.Surface, support SurfaceSupport,
	format vk.SurfaceFormat, drawable vk.Extent2D) (*CoreSwapchain, error) {

	caps := support.Capabilities
	core := &CoreSwapchain{
		format:      format,
		presentMode: ChoosePresentMode(support.PresentModes),
		extent:      ChooseExtent(caps, drawable),
	}

	var swapchain vk.Swapchain
	ret := vk.CreateSwapchain(dev.handle, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    ChooseImageCount(caps),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      core.extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     preTransform(caps),
		CompositeAlpha:   compositeAlpha(caps),
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      core.presentMode,
		OldSwapchain:     vk.NullSwapchain,
		Clipped:          vk.True,
	}, nil, &swapchain)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create swapchain")
	}
	core.swapchain = swapchain

	var imageCount uint32
	vk.GetSwapchainImages(dev.handle, core.swapchain, &imageCount, nil)
	core.images = make([]vk.Image, imageCount)
	vk.GetSwapchainImages(dev.handle, core.swapchain, &imageCount, core.images)

	core.image_views = make([]vk.ImageView, 0, imageCount)
	for _, image := range core.images {
		view, err := createColorView(dev, image, format.Format)
		if err != nil {
			core.Destroy(dev)
			return nil, err
		}
		core.image_views = append(core.image_views, view)
	}
	return core, nil
}

// CreateFramebuffers attaches one framebuffer per image view to renderPass.
func (core *CoreSwapchain) CreateFramebuffers(dev *CoreDevice, renderPass vk.RenderPass) error {
	core.framebuffers = make([]vk.Framebuffer, 0, len(core.image_views))
	for _, view := range core.image_views {
		var framebuffer vk.Framebuffer
		ret := vk.CreateFramebuffer(dev.handle, &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           core.extent.Width,
			Height:          core.extent.Height,
			Layers:          1,
		}, nil, &framebuffer)
		if isError(ret) {
			return errors.Wrap(NewError(ret), "create framebuffer")
		}
		core.framebuffers = append(core.framebuffers, framebuffer)
	}
	return nil
}

func (core *CoreSwapchain) DestroyFramebuffers(dev *CoreDevice) {
	for _, framebuffer := range core.framebuffers {
		vk.DestroyFramebuffer(dev.handle, framebuffer, nil)
	}
	core.framebuffers = nil
}

func (core *CoreSwapchain) Destroy(dev *CoreDevice) {
	core.DestroyFramebuffers(dev)
	for _, view := range core.image_views {
		vk.DestroyImageView(dev.handle, view, nil)
	}
	core.image_views = nil
	if core.swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(dev.handle, core.swapchain, nil)
		core.swapchain = vk.NullSwapchain
	}
	core.images = nil
}
