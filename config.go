package evdvk

import (
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	vk "github.com/vulkan-go/vulkan"
)

// FramesInFlight is the number of frame slots. The CPU records at most
// this many frames ahead of the GPU.
const FramesInFlight = 2

// Config is fixed for the backend's lifetime once Init runs.
type Config struct {
	AppName string `toml:"app_name"`

	// MultiBuffer selects one vertex buffer per partition instead of a
	// single consolidated buffer. Applied to every LoadVertexData call.
	MultiBuffer bool `toml:"multi_buffer"`

	// Validation layers and the debug report callback are enabled when
	// Verbosity >= ValidationThreshold.
	Verbosity           int `toml:"verbosity"`
	ValidationThreshold int `toml:"validation_threshold"`

	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`

	PreferredFormat     vk.Format     `toml:"preferred_format"`
	PreferredColorSpace vk.ColorSpace `toml:"preferred_color_space"`
	ClearColor          [4]float32    `toml:"clear_color"`
}

// DefaultConfig returns the configuration used when the front end sets nothing.
func DefaultConfig() Config {
	return Config{
		AppName:             "evdvk",
		ValidationThreshold: 2,
		VertexShader:        "shaders/vert.spv",
		FragmentShader:      "shaders/frag.spv",
		PreferredFormat:     vk.FormatB8g8r8a8Srgb,
		PreferredColorSpace: vk.ColorSpaceSrgbNonlinear,
		ClearColor:          [4]float32{0, 0, 0, 1},
	}
}

// Validate reports ErrConfiguration for settings no device could satisfy.
func (c Config) Validate() error {
	if c.VertexShader == "" || c.FragmentShader == "" {
		return configErrorf("shader paths must be set (vertex %q, fragment %q)", c.VertexShader, c.FragmentShader)
	}
	if c.Verbosity < 0 || c.ValidationThreshold < 0 {
		return configErrorf("verbosity %d and threshold %d must not be negative", c.Verbosity, c.ValidationThreshold)
	}
	return nil
}

// ValidationEnabled reports whether debug instrumentation is requested.
func (c Config) ValidationEnabled() bool {
	return c.Verbosity >= c.ValidationThreshold
}

// DecodeConfig reads a TOML document over DefaultConfig; keys not present
// keep their defaults.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return cfg, withKind(ErrConfiguration, err, "decode config")
	}
	return cfg, cfg.Validate()
}

// LoadConfig reads a TOML config file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultConfig(), withKind(ErrConfiguration, err, "open config %s", path)
	}
	defer f.Close()
	return DecodeConfig(f)
}

// ConfigFromUsage overlays a Usage property bag on DefaultConfig.
func ConfigFromUsage(u *Usage) (Config, error) {
	cfg := DefaultConfig()
	if u == nil {
		return cfg, nil
	}
	if v, ok := u.String(UsageAppName); ok {
		cfg.AppName = v
	}
	if v, ok := u.Bool(UsageMultiBuffer); ok {
		cfg.MultiBuffer = v
	}
	if v, ok := u.Int(UsageVerbosity); ok {
		cfg.Verbosity = v
	}
	if v, ok := u.Int(UsageValidationThreshold); ok {
		cfg.ValidationThreshold = v
	}
	if v, ok := u.String(UsageVertexShader); ok {
		cfg.VertexShader = v
	}
	if v, ok := u.String(UsageFragmentShader); ok {
		cfg.FragmentShader = v
	}
	return cfg, cfg.Validate()
}
