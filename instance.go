package evdvk

import (
	"runtime"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CoreInstance owns the Vulkan instance, the optional debug report
// callback and the presentable surface made from the Drawable.
type CoreInstance struct {
	instance      vk.Instance
	surface       vk.Surface
	debugCallback vk.DebugReportCallback
	layers        []string
	released      bool
}

// NewCoreInstance creates the instance with the drawable's extensions.
// When validation is enabled the validation layer and debug report
// extension are required; their absence is ErrConfiguration.
func NewCoreInstance(cfg Config, display Drawable, log Logger) (*CoreInstance, error) {
	actual, err := InstanceExtensions()
	if err != nil {
		return nil, withKind(ErrConfiguration, err, "enumerate instance extensions")
	}
	set := ExtensionSet{
		Required: display.RequiredInstanceExtensions(),
		Actual:   actual,
	}
	if runtime.GOOS == "darwin" {
		set.Wanted = append(set.Wanted, "VK_KHR_portability_enumeration")
	}

	var layers []string
	if cfg.ValidationEnabled() {
		set.Required = append(set.Required, debugReportExtension)
		available, err := ValidationLayers()
		if err != nil {
			return nil, withKind(ErrConfiguration, err, "enumerate layers")
		}
		if ok, missing := hasAll(available, []string{validationLayer}); !ok {
			return nil, configErrorf("validation requested but layers missing: %v", missing)
		}
		layers = safeStrings([]string{validationLayer})
	}

	extensions, missing := set.Resolve()
	if len(missing) > 0 {
		return nil, configErrorf("missing required instance extensions: %v", missing)
	}
	log.Infof("vulkan: enabling %d instance extensions, %d layers", len(extensions), len(layers))

	var flags vk.InstanceCreateFlags
	if runtime.GOOS == "darwin" {
		flags = vk.InstanceCreateFlags(0x00000001) //VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT
	}

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        applicationInfo(cfg),
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
		Flags:                   flags,
	}, nil, &instance)
	if ret == vk.ErrorLayerNotPresent || ret == vk.ErrorExtensionNotPresent {
		return nil, configErrorf("create instance: %s", resultString(ret))
	}
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "create instance")
	}
	vk.InitInstance(instance)

	core := &CoreInstance{instance: instance, layers: layers}

	if cfg.ValidationEnabled() {
		ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
			SType: vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
				vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit),
			PfnCallback: debugReportFunc(log),
		}, nil, &core.debugCallback)
		if isError(ret) {
			core.Destroy()
			return nil, errors.Wrap(NewError(ret), "create debug report callback")
		}
		log.Infof("vulkan: debug report callback enabled")
	}

	surface, err := display.CreateSurface(instance)
	if err != nil {
		core.Destroy()
		return nil, err
	}
	if surface == vk.NullSurface {
		core.Destroy()
		return nil, configErrorf("surface required but not provided")
	}
	core.surface = surface
	return core, nil
}

func (core *CoreInstance) Destroy() {
	if core.released {
		return
	}
	core.released = true
	if core.surface != vk.NullSurface {
		vk.DestroySurface(core.instance, core.surface, nil)
		core.surface = vk.NullSurface
	}
	if core.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(core.instance, core.debugCallback, nil)
		core.debugCallback = vk.NullDebugReportCallback
	}
	if core.instance != nil {
		vk.DestroyInstance(core.instance, nil)
		core.instance = nil
	}
}

func debugReportFunc(log Logger) vk.DebugReportCallbackFunc {
	return func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
		object uint64, location uint, messageCode int32, pLayerPrefix string,
		pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
		routeDebugReport(log, flags, pLayerPrefix, messageCode, pMessage)
		return vk.Bool32(vk.False)
	}
}

// routeDebugReport picks the most severe bit set in flags.
func routeDebugReport(log Logger, flags vk.DebugReportFlags, prefix string, code int32, msg string) {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		log.Errorf("[%s] Code %d : %s", prefix, code, msg)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		log.Warnf("[%s] Code %d : %s", prefix, code, msg)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		log.Warnf("PERFORMANCE [%s] Code %d : %s", prefix, code, msg)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		log.Infof("DEBUG [%s] Code %d : %s", prefix, code, msg)
	default:
		log.Infof("[%s] Code %d : %s", prefix, code, msg)
	}
}
