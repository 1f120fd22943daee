package evdvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type CoreRenderPass struct {
	renderPass vk.RenderPass
}

//Creates the single-subpass render pass: one color attachment cleared on load,
//stored and handed to presentation. There is no depth attachment.
func NewCoreRenderPass(dev *CoreDevice, format vk.Format) (*CoreRenderPass, error) {
	attachmentDescriptions := []vk.AttachmentDescription{{
		Flags:          vk.AttachmentDescriptionFlags(0),
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorReferences := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorReferences,
	}}

	//Image acquisition must finish before the color write
	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.MaxUint32, //VK_SUBPASS_EXTERNAL
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}}

	core := &CoreRenderPass{}
	ret := vk.CreateRenderPass(dev.handle, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &core.renderPass)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create render pass")
	}
	return core, nil
}

func (c *CoreRenderPass) Destroy(dev *CoreDevice) {
	if c.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(dev.handle, c.renderPass, nil)
		c.renderPass = vk.NullRenderPass
	}
}
