package evdvk

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Drawable is what the windowing layer hands the backend: a way to make
// a presentable surface and the current drawable size in pixels.
type Drawable interface {
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	DrawableSize() (width, height int)
	RequiredInstanceExtensions() []string
}

// CoreDisplay is a Drawable over a glfw window created with ClientAPI=NoAPI.
type CoreDisplay struct {
	window *glfw.Window
}

func NewCoreDisplay(window *glfw.Window) *CoreDisplay {
	return &CoreDisplay{window: window}
}

func (core *CoreDisplay) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ret, err := core.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, withKind(ErrAllocation, err, "create window surface")
	}
	return vk.SurfaceFromPointer(ret), nil
}

// DrawableSize is the framebuffer size, which differs from the window
// size on high-DPI displays.
func (core *CoreDisplay) DrawableSize() (int, int) {
	return core.window.GetFramebufferSize()
}

func (core *CoreDisplay) RequiredInstanceExtensions() []string {
	return core.window.GetRequiredInstanceExtensions()
}
