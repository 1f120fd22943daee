package evdvk

import (
	vk "github.com/vulkan-go/vulkan"
)

// QueueFamilyInfo is what adapter selection needs to know about a family.
type QueueFamilyInfo struct {
	Graphics bool
	Present  bool
}

//Device queue properties, probed per physical device against the target surface
type CoreQueue struct {
	properties []vk.QueueFamilyProperties
	present    []bool
	gpu        vk.PhysicalDevice
}

//Lists queue families of a physical device and whether each can present to surface
func NewCoreQueue(gpu vk.PhysicalDevice, surface vk.Surface) *CoreQueue {
	var q CoreQueue
	var count uint32
	q.gpu = gpu
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	q.properties = make([]vk.QueueFamilyProperties, count)
	q.present = make([]bool, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, q.properties)

	for index := uint32(0); index < count; index++ {
		q.properties[index].Deref()
		var supported vk.Bool32
		if surface != vk.NullSurface {
			vk.GetPhysicalDeviceSurfaceSupport(gpu, index, surface, &supported)
		}
		q.present[index] = supported.B()
	}
	return &q
}

// Families summarizes every family for adapter selection.
func (q *CoreQueue) Families() []QueueFamilyInfo {
	infos := make([]QueueFamilyInfo, len(q.properties))
	for index := range q.properties {
		flag := q.properties[index].QueueFlags & vk.QueueFlags(vk.QueueGraphicsBit)
		infos[index] = QueueFamilyInfo{
			Graphics: flag == vk.QueueFlags(vk.QueueGraphicsBit),
			Present:  q.present[index],
		}
	}
	return infos
}

// GraphicsPresentFamily finds the first family that accepts graphics
// submissions and presents to the surface; one queue serves both.
func GraphicsPresentFamily(families []QueueFamilyInfo) (uint32, bool) {
	for index, family := range families {
		if family.Graphics && family.Present {
			return uint32(index), true
		}
	}
	return 0, false
}

//Gets device create info with a single queue from the chosen family
func queueCreateInfos(family uint32) []vk.DeviceQueueCreateInfo {
	return []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: family,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
}
