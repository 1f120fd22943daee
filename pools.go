package evdvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type CorePool struct {
	pool     vk.CommandPool
	released bool
}

// NewCorePool creates a command pool whose buffers can be reset one by one.
func NewCorePool(dev *CoreDevice) (*CorePool, error) {
	var core CorePool
	ret := vk.CreateCommandPool(dev.handle, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: dev.queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &core.pool)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create command pool")
	}
	return &core, nil
}

// Allocate returns one primary command buffer from the pool.
func (c *CorePool) Allocate(dev *CoreDevice) (vk.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(dev.handle, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, buffers)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "allocate command buffer")
	}
	return buffers[0], nil
}

func (c *CorePool) Free(dev *CoreDevice, cmd vk.CommandBuffer) {
	if cmd != nil {
		vk.FreeCommandBuffers(dev.handle, c.pool, 1, []vk.CommandBuffer{cmd})
	}
}

func (c *CorePool) Destroy(dev *CoreDevice) {
	if c.released {
		return
	}
	c.released = true
	vk.DestroyCommandPool(dev.handle, c.pool, nil)
}
