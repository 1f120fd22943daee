package evdvk

import (
	"runtime"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// AdapterInfo is everything adapter selection looks at, probed once per
// physical device.
type AdapterInfo struct {
	Name           string
	Discrete       bool
	GeometryShader bool
	QueueFamilies  []QueueFamilyInfo
	Extensions     []string
	// Surface format and present mode counts reported for the target
	// surface. Zero of either means no swapchain can be built.
	Formats        int
	PresentModes   int
}

// SelectAdapter scans adapters in order and returns the first one that is
// a discrete GPU with geometry shaders, a graphics+present queue family,
// every required extension and a surface reporting at least one format and
// present mode. Adapters failing a filter are logged and
// skipped; if none pass the result is ErrConfiguration.
func SelectAdapter(adapters []AdapterInfo, required []string, log Logger) (index int, family uint32, err error) {
	for i, adapter := range adapters {
		if !adapter.Discrete {
			log.Warnf("vulkan: skipping adapter %d (%s): not a discrete GPU", i, adapter.Name)
			continue
		}
		if !adapter.GeometryShader {
			log.Warnf("vulkan: skipping adapter %d (%s): no geometry shader support", i, adapter.Name)
			continue
		}
		queueFamily, ok := GraphicsPresentFamily(adapter.QueueFamilies)
		if !ok {
			log.Warnf("vulkan: skipping adapter %d (%s): no queue family with graphics and present", i, adapter.Name)
			continue
		}
		if ok, missing := hasAll(adapter.Extensions, required); !ok {
			log.Warnf("vulkan: skipping adapter %d (%s): missing extensions %v", i, adapter.Name, missing)
			continue
		}
		if adapter.Formats == 0 || adapter.PresentModes == 0 {
			log.Warnf("vulkan: skipping adapter %d (%s): incompatible swapchain, %d formats and %d present modes",
				i, adapter.Name, adapter.Formats, adapter.PresentModes)
			continue
		}
		log.Infof("vulkan: selected adapter %d (%s), queue family %d", i, adapter.Name, queueFamily)
		return i, queueFamily, nil
	}
	return -1, 0, configErrorf("no suitable adapter among %d candidates", len(adapters))
}

// CoreDevice is the selected adapter, its logical device and the single
// graphics+present queue. Immutable once created.
type CoreDevice struct {
	gpu              vk.PhysicalDevice
	name             string
	properties       vk.PhysicalDeviceProperties
	memoryProperties vk.PhysicalDeviceMemoryProperties
	handle           vk.Device
	queue            vk.Queue
	queueFamily      uint32
	released         bool
}

func requiredDeviceExtensions() ExtensionSet {
	set := ExtensionSet{Required: []string{swapchainExtension}}
	if runtime.GOOS == "darwin" {
		set.Wanted = []string{"VK_KHR_portability_subset"}
	}
	return set
}

// NewCoreDevice runs the adapter scan against the instance's surface and
// creates the logical device on the winner.
func NewCoreDevice(core *CoreInstance, log Logger) (*CoreDevice, error) {
	var gpuCount uint32
	ret := vk.EnumeratePhysicalDevices(core.instance, &gpuCount, nil)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "enumerate physical devices")
	}
	if gpuCount == 0 {
		return nil, configErrorf("no physical devices found")
	}
	gpus := make([]vk.PhysicalDevice, gpuCount)
	ret = vk.EnumeratePhysicalDevices(core.instance, &gpuCount, gpus)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "enumerate physical devices")
	}

	adapters := make([]AdapterInfo, len(gpus))
	for i, gpu := range gpus {
		adapters[i] = probeAdapter(gpu, core.surface, log)
	}

	wanted := requiredDeviceExtensions()
	index, family, err := SelectAdapter(adapters, wanted.Required, log)
	if err != nil {
		return nil, err
	}

	dev := &CoreDevice{
		gpu:         gpus[index],
		name:        adapters[index].Name,
		queueFamily: family,
	}
	vk.GetPhysicalDeviceProperties(dev.gpu, &dev.properties)
	dev.properties.Deref()
	vk.GetPhysicalDeviceMemoryProperties(dev.gpu, &dev.memoryProperties)
	dev.memoryProperties.Deref()

	wanted.Actual = adapters[index].Extensions
	extensions, missing := wanted.Resolve()
	if len(missing) > 0 {
		return nil, configErrorf("adapter %s lost extensions %v", dev.name, missing)
	}

	queueInfos := queueCreateInfos(family)
	var device vk.Device
	ret = vk.CreateDevice(dev.gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(core.layers)),
		PpEnabledLayerNames:     core.layers,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{GeometryShader: vk.True}},
	}, nil, &device)
	if ret == vk.ErrorFeatureNotPresent || ret == vk.ErrorExtensionNotPresent {
		return nil, configErrorf("create device on %s: %s", dev.name, resultString(ret))
	}
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create device")
	}
	dev.handle = device

	var queue vk.Queue
	vk.GetDeviceQueue(device, family, 0, &queue)
	dev.queue = queue
	return dev, nil
}

func probeAdapter(gpu vk.PhysicalDevice, surface vk.Surface, log Logger) AdapterInfo {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &features)
	features.Deref()

	info := AdapterInfo{
		Name:           vk.ToString(props.DeviceName[:]),
		Discrete:       props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu,
		GeometryShader: features.GeometryShader.B(),
		QueueFamilies:  NewCoreQueue(gpu, surface).Families(),
	}
	extensions, err := DeviceExtensions(gpu)
	if err != nil {
		log.Warnf("vulkan: adapter %s: cannot list extensions: %v", info.Name, err)
	}
	info.Extensions = extensions
	support, err := QuerySurfaceSupport(gpu, surface)
	if err != nil {
		log.Warnf("vulkan: adapter %s: cannot query surface: %v", info.Name, err)
		return info
	}
	info.Formats = len(support.Formats)
	info.PresentModes = len(support.PresentModes)
	return info
}

// WaitIdle blocks until all submitted work on the device has completed.
func (dev *CoreDevice) WaitIdle() error {
	if ret := vk.DeviceWaitIdle(dev.handle); isError(ret) {
		return errors.Wrap(NewError(ret), "device wait idle")
	}
	return nil
}

func (dev *CoreDevice) Destroy() {
	if dev.released || dev.handle == nil {
		return
	}
	dev.released = true
	vk.DeviceWaitIdle(dev.handle)
	vk.DestroyDevice(dev.handle, nil)
	dev.handle = nil
}
