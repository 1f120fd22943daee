package evdvk

import vk "github.com/vulkan-go/vulkan"

var (
	DefaultVulkanAppVersion = vk.MakeVersion(1, 0, 0)
	DefaultVulkanAPIVersion = vk.MakeVersion(1, 0, 0)
)

const engineName = "evdvk"

// applicationInfo describes the front end to the instance. Versions are
// fixed; only the name comes from Config.
func applicationInfo(cfg Config) *vk.ApplicationInfo {
	return &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(DefaultVulkanAPIVersion),
		ApplicationVersion: uint32(DefaultVulkanAppVersion),
		PApplicationName:   safeString(cfg.AppName),
		PEngineName:        safeString(engineName),
	}
}
