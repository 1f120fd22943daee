package evdvk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func memoryProps(flags ...vk.MemoryPropertyFlagBits) vk.PhysicalDeviceMemoryProperties {
	var props vk.PhysicalDeviceMemoryProperties
	props.MemoryTypeCount = uint32(len(flags))
	for i, f := range flags {
		props.MemoryTypes[i] = vk.MemoryType{PropertyFlags: vk.MemoryPropertyFlags(f)}
	}
	return props
}

func TestFindMemoryType(t *testing.T) {
	props := memoryProps(
		vk.MemoryPropertyDeviceLocalBit,
		vk.MemoryPropertyHostVisibleBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit|vk.MemoryPropertyHostCachedBit,
	)

	// First match, not the best fit.
	idx, ok := FindMemoryType(props, 0xf, hostMemory)
	assert.True(t, ok)
	assert.Equal(t, uint32(2), idx)

	idx, ok = FindMemoryType(props, 1<<3, hostMemory)
	assert.True(t, ok)
	assert.Equal(t, uint32(3), idx)

	// Type filter excludes every suitable type.
	_, ok = FindMemoryType(props, 1<<0|1<<1, hostMemory)
	assert.False(t, ok)

	_, ok = FindMemoryType(memoryProps(), 0xffffffff, hostMemory)
	assert.False(t, ok)
}

func TestFloat32Bytes(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0xc0}, float32Bytes([]float32{1, -2}))
	assert.Empty(t, float32Bytes(nil))
}
