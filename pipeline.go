package evdvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const (
	// vertexStride is one position triple of float32.
	vertexStride = 3 * 4
	// uniformSize is one column-major 4x4 float32 matrix.
	uniformSize = 16 * 4
	// uniformBinding is the descriptor binding of the combined transform.
	uniformBinding = 0
)

// CorePipeline is the pipeline state tied to one surface chain:
// descriptor-set layout, pipeline layout and the compiled graphics pipeline.
type CorePipeline struct {
	descriptorLayout vk.DescriptorSetLayout
	layout           vk.PipelineLayout
	pipeline         vk.Pipeline
}

type PipelineBuilder struct {
	_shaderStages         []vk.PipelineShaderStageCreateInfo
	_vertexInputInfo      vk.PipelineVertexInputStateCreateInfo
	_inputAssembly        vk.PipelineInputAssemblyStateCreateInfo
	_viewport             vk.Viewport
	_scissor              vk.Rect2D
	_rasterizer           vk.PipelineRasterizationStateCreateInfo
	_colorBlendAttachment vk.PipelineColorBlendAttachmentState
	_multisampling        vk.PipelineMultisampleStateCreateInfo
}

//Point list pipeline reading position triples from binding 0, with the
//viewport and scissor fixed to extent. Any extent change rebuilds it.
func NewPipelineBuilder(shader *CoreShader, extent vk.Extent2D) *PipelineBuilder {
	pb := PipelineBuilder{}
	pb._shaderStages = shader.stages()

	pb._vertexInputInfo = vk.PipelineVertexInputStateCreateInfo{
		SType:                         vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount: 1,
		PVertexBindingDescriptions: []vk.VertexInputBindingDescription{{
			Binding:   0,
			Stride:    vertexStride,
			InputRate: vk.VertexInputRateVertex,
		}},
		VertexAttributeDescriptionCount: 1,
		PVertexAttributeDescriptions: []vk.VertexInputAttributeDescription{{
			Location: 0,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   0,
		}},
	}

	pb._inputAssembly = vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyPointList,
		PrimitiveRestartEnable: vk.False,
	}

	pb._viewport = vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	pb._scissor = vk.Rect2D{Offset: vk.Offset2D{}, Extent: extent}

	pb._rasterizer = vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                vk.CullModeFlags(vk.CullModeNone),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}

	pb._multisampling = vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
		MinSampleShading:     1.0,
	}

	pb._colorBlendAttachment = vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable: vk.False,
	}

	return &pb
}

// BuildPipeline creates the descriptor-set layout for the uniform binding,
// the pipeline layout and the graphics pipeline against renderPass.
func (p *PipelineBuilder) BuildPipeline(dev *CoreDevice, renderPass vk.RenderPass) (*CorePipeline, error) {
	core := &CorePipeline{}

	bindings := []vk.DescriptorSetLayoutBinding{{
		Binding:         uniformBinding,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	}}
	ret := vk.CreateDescriptorSetLayout(dev.handle, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}, nil, &core.descriptorLayout)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create descriptor set layout")
	}

	ret = vk.CreatePipelineLayout(dev.handle, &vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{core.descriptorLayout},
	}, nil, &core.layout)
	if isError(ret) {
		core.Destroy(dev)
		return nil, errors.Wrap(NewError(ret), "create pipeline layout")
	}

	view_create := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{p._viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{p._scissor},
	}

	blend_state := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{p._colorBlendAttachment},
	}

	pipeline_info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(p._shaderStages)),
		PStages:             p._shaderStages,
		PVertexInputState:   &p._vertexInputInfo,
		PInputAssemblyState: &p._inputAssembly,
		PViewportState:      &view_create,
		PRasterizationState: &p._rasterizer,
		PMultisampleState:   &p._multisampling,
		PColorBlendState:    &blend_state,
		Layout:              core.layout,
		RenderPass:          renderPass,
		Subpass:             0,
	}

	pipelines := make([]vk.Pipeline, 1)
	ret = vk.CreateGraphicsPipelines(dev.handle, nil, 1, []vk.GraphicsPipelineCreateInfo{pipeline_info}, nil, pipelines)
	if isError(ret) {
		core.Destroy(dev)
		return nil, errors.Wrap(NewError(ret), "create graphics pipeline")
	}
	core.pipeline = pipelines[0]
	return core, nil
}

func (core *CorePipeline) Destroy(dev *CoreDevice) {
	if core.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(dev.handle, core.pipeline, nil)
		core.pipeline = vk.NullPipeline
	}
	if core.layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(dev.handle, core.layout, nil)
		core.layout = vk.NullPipelineLayout
	}
	if core.descriptorLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(dev.handle, core.descriptorLayout, nil)
		core.descriptorLayout = vk.NullDescriptorSetLayout
	}
}

// CoreDescriptors is one descriptor set per frame slot, each pointing at
// that slot's uniform buffer.
type CoreDescriptors struct {
	pool vk.DescriptorPool
	sets []vk.DescriptorSet
}

func NewCoreDescriptors(dev *CoreDevice, layout vk.DescriptorSetLayout, uniforms []*CoreBuffer) (*CoreDescriptors, error) {
	core := &CoreDescriptors{}
	count := uint32(len(uniforms))
	ret := vk.CreateDescriptorPool(dev.handle, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       count,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: count,
		}},
	}, nil, &core.pool)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create descriptor pool")
	}

	for _, uniform := range uniforms {
		var set vk.DescriptorSet
		ret := vk.AllocateDescriptorSets(dev.handle, &vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     core.pool,
			DescriptorSetCount: 1,
			PSetLayouts:        []vk.DescriptorSetLayout{layout},
		}, &set)
		if isError(ret) {
			core.Destroy(dev)
			return nil, errors.Wrap(NewError(ret), "allocate descriptor set")
		}
		vk.UpdateDescriptorSets(dev.handle, 1, []vk.WriteDescriptorSet{{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      uniformBinding,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: uniform.buffer,
				Offset: 0,
				Range:  vk.DeviceSize(uniformSize),
			}},
		}}, 0, nil)
		core.sets = append(core.sets, set)
	}
	return core, nil
}

// Destroy frees the pool, which releases every set allocated from it.
func (core *CoreDescriptors) Destroy(dev *CoreDevice) {
	if core.pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(dev.handle, core.pool, nil)
		core.pool = vk.NullDescriptorPool
	}
	core.sets = nil
}
