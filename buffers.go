package evdvk

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const hostMemory = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

// CoreBuffer is a single-owner GPU buffer with its own host-visible,
// host-coherent memory block. Release happens once, through ClearBuffer.
type CoreBuffer struct {
	Size  int
	Usage vk.BufferUsageFlagBits

	buffer   vk.Buffer
	memory   vk.DeviceMemory
	released bool
}

// Released reports whether the buffer's native handles are gone.
func (b *CoreBuffer) Released() bool { return b.released }

// FindMemoryType returns the first memory type allowed by typeBits whose
// property flags include every bit in want. First match, not best fit.
func FindMemoryType(props vk.PhysicalDeviceMemoryProperties, typeBits uint32, want vk.MemoryPropertyFlags) (uint32, bool) {
	count := props.MemoryTypeCount
	if count > vk.MaxMemoryTypes {
		count = vk.MaxMemoryTypes
	}
	for i := uint32(0); i < count; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		props.MemoryTypes[i].Deref()
		if props.MemoryTypes[i].PropertyFlags&want == want {
			return i, true
		}
	}
	return 0, false
}

// CreateBuffer allocates a buffer of size bytes backed by host-visible
// memory sized to the device's requirements. data, when given, is copied
// in before returning.
func (dev *CoreDevice) CreateBuffer(usage vk.BufferUsageFlagBits, size int, data []byte) (*CoreBuffer, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrAllocation, "create buffer: size %d", size)
	}
	if len(data) > size {
		return nil, errors.Wrapf(ErrAllocation, "create buffer: %d bytes of data for %d byte buffer", len(data), size)
	}

	var buffer vk.Buffer
	ret := vk.CreateBuffer(dev.handle, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Usage:       vk.BufferUsageFlags(usage),
		Size:        vk.DeviceSize(size),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create buffer")
	}

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev.handle, buffer, &memReqs)
	memReqs.Deref()

	memType, ok := FindMemoryType(dev.memoryProperties, memReqs.MemoryTypeBits, hostMemory)
	if !ok {
		vk.DestroyBuffer(dev.handle, buffer, nil)
		return nil, errors.Wrapf(ErrAllocation, "no host visible coherent memory type in mask %#x", memReqs.MemoryTypeBits)
	}

	var memory vk.DeviceMemory
	ret = vk.AllocateMemory(dev.handle, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if isError(ret) {
		vk.DestroyBuffer(dev.handle, buffer, nil)
		return nil, errors.Wrap(NewError(ret), "allocate buffer memory")
	}
	if ret := vk.BindBufferMemory(dev.handle, buffer, memory, 0); isError(ret) {
		vk.FreeMemory(dev.handle, memory, nil)
		vk.DestroyBuffer(dev.handle, buffer, nil)
		return nil, errors.Wrap(NewError(ret), "bind buffer memory")
	}

	b := &CoreBuffer{Size: size, Usage: usage, buffer: buffer, memory: memory}
	if len(data) > 0 {
		if err := dev.WriteBuffer(b, data); err != nil {
			dev.ClearBuffer(b)
			return nil, err
		}
	}
	return b, nil
}

// WriteBuffer maps, copies and unmaps. No mapping outlives the call.
func (dev *CoreDevice) WriteBuffer(b *CoreBuffer, data []byte) error {
	if b.released {
		return errors.Wrap(ErrAllocation, "write to released buffer")
	}
	if len(data) > b.Size {
		return errors.Wrapf(ErrAllocation, "write %d bytes into %d byte buffer", len(data), b.Size)
	}
	if len(data) == 0 {
		return nil
	}
	var pData unsafe.Pointer
	ret := vk.MapMemory(dev.handle, b.memory, 0, vk.DeviceSize(len(data)), 0, &pData)
	if isError(ret) {
		return errors.Wrap(NewError(ret), "map buffer memory")
	}
	n := vk.Memcopy(pData, data)
	vk.UnmapMemory(dev.handle, b.memory)
	if n != len(data) {
		return errors.Wrapf(ErrAllocation, "copied %d of %d bytes", n, len(data))
	}
	return nil
}

// ClearBuffer releases buffer and memory. The caller guarantees no
// in-flight frame references b.
func (dev *CoreDevice) ClearBuffer(b *CoreBuffer) {
	if b == nil || b.released {
		return
	}
	b.released = true
	vk.DestroyBuffer(dev.handle, b.buffer, nil)
	vk.FreeMemory(dev.handle, b.memory, nil)
}
