package evdvk

import vk "github.com/vulkan-go/vulkan"

const (
	swapchainExtension   = "VK_KHR_swapchain"
	debugReportExtension = "VK_EXT_debug_report"
	validationLayer      = "VK_LAYER_KHRONOS_validation"
)

// InstanceExtensions gets a list of instance extensions available on the platform.
func InstanceExtensions() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateInstanceExtensionProperties("", &count, nil)
	orPanic(NewError(ret))
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateInstanceExtensionProperties("", &count, list)
	orPanic(NewError(ret))
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, err
}

// DeviceExtensions gets a list of extensions available on the provided physical device.
func DeviceExtensions(gpu vk.PhysicalDevice) (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)
	orPanic(NewError(ret))
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list)
	orPanic(NewError(ret))
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, err
}

// ValidationLayers gets a list of validation layers available on the platform.
func ValidationLayers() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateInstanceLayerProperties(&count, nil)
	orPanic(NewError(ret))
	list := make([]vk.LayerProperties, count)
	ret = vk.EnumerateInstanceLayerProperties(&count, list)
	orPanic(NewError(ret))
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, err
}

// ExtensionSet splits requested names into required ones, whose absence
// is a configuration error, and wanted ones that are enabled when present.
type ExtensionSet struct {
	Required []string
	Wanted   []string
	Actual   []string
}

// Resolve returns the null-terminated names to enable, or the missing
// required names.
func (e ExtensionSet) Resolve() (enabled []string, missing []string) {
	if ok, miss := hasAll(e.Actual, e.Required); !ok {
		return nil, miss
	}
	enabled, _ = checkExisting(e.Actual, e.Required)
	wanted, _ := checkExisting(e.Actual, e.Wanted)
	for _, name := range wanted {
		dup := false
		for _, have := range enabled {
			if have == name {
				dup = true
				break
			}
		}
		if !dup {
			enabled = append(enabled, name)
		}
	}
	return enabled, nil
}
