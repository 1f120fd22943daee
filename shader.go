package evdvk

import (
	"os"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CoreShader holds the compiled vertex and fragment blobs for the driver's
// lifetime and the modules made from them. Modules outlive pipeline
// rebuilds.
type CoreShader struct {
	vertex_code   []byte
	fragment_code []byte
	vertex        vk.ShaderModule
	fragment      vk.ShaderModule
}

// LoadShaderBlob reads one compiled SPIR-V blob. Unreadable or malformed
// blobs are ErrResourceLoad.
func LoadShaderBlob(path string) ([]byte, error) {
	buffer, err := os.ReadFile(path)
	if err != nil {
		return nil, loadErrorf(err, "read shader %s", path)
	}
	if len(buffer) == 0 || len(buffer)%4 != 0 {
		return nil, loadErrorf(errors.Errorf("size %d is not a positive multiple of 4", len(buffer)), "shader %s", path)
	}
	return buffer, nil
}

// LoadCoreShader reads both blobs named by cfg.
func LoadCoreShader(cfg Config) (*CoreShader, error) {
	vert, err := LoadShaderBlob(cfg.VertexShader)
	if err != nil {
		return nil, err
	}
	frag, err := LoadShaderBlob(cfg.FragmentShader)
	if err != nil {
		return nil, err
	}
	return &CoreShader{vertex_code: vert, fragment_code: frag}, nil
}

// CreateModules builds the shader modules on dev.
func (core *CoreShader) CreateModules(dev *CoreDevice) error {
	var err error
	if core.vertex, err = createShaderModule(dev, core.vertex_code); err != nil {
		return errors.Wrap(err, "vertex shader")
	}
	if core.fragment, err = createShaderModule(dev, core.fragment_code); err != nil {
		core.Destroy(dev)
		return errors.Wrap(err, "fragment shader")
	}
	return nil
}

func (core *CoreShader) stages() []vk.PipelineShaderStageCreateInfo {
	return []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: core.vertex,
			PName:  safeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: core.fragment,
			PName:  safeString("main"),
		},
	}
}

func (core *CoreShader) Destroy(dev *CoreDevice) {
	if core.vertex != vk.NullShaderModule {
		vk.DestroyShaderModule(dev.handle, core.vertex, nil)
		core.vertex = vk.NullShaderModule
	}
	if core.fragment != vk.NullShaderModule {
		vk.DestroyShaderModule(dev.handle, core.fragment, nil)
		core.fragment = vk.NullShaderModule
	}
}

func createShaderModule(dev *CoreDevice, data []byte) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(dev.handle, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(data)),
		PCode:    sliceUint32(data),
	}, nil, &module)
	if isError(ret) {
		return vk.NullShaderModule, errors.Wrap(NewError(ret), "create shader module")
	}
	return module, nil
}
