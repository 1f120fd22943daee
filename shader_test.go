package evdvk

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBlob(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadShaderBlob(t *testing.T) {
	spirv := []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0}
	got, err := LoadShaderBlob(writeBlob(t, "ok.spv", spirv))
	require.NoError(t, err)
	assert.Equal(t, spirv, got)
	assert.Equal(t, []uint32{0x07230203, 0x00010000}, sliceUint32(got))
}

func TestLoadShaderBlobErrors(t *testing.T) {
	_, err := LoadShaderBlob(filepath.Join(t.TempDir(), "missing.spv"))
	assert.ErrorIs(t, err, ErrResourceLoad)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = LoadShaderBlob(writeBlob(t, "empty.spv", nil))
	assert.ErrorIs(t, err, ErrResourceLoad)

	_, err = LoadShaderBlob(writeBlob(t, "short.spv", []byte{1, 2, 3, 4, 5}))
	assert.ErrorIs(t, err, ErrResourceLoad)
}

func TestLoadCoreShaderNeedsBothBlobs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VertexShader = writeBlob(t, "vert.spv", []byte{1, 2, 3, 4})
	cfg.FragmentShader = filepath.Join(t.TempDir(), "frag.spv")
	_, err := LoadCoreShader(cfg)
	assert.ErrorIs(t, err, ErrResourceLoad)

	cfg.FragmentShader = writeBlob(t, "frag.spv", []byte{5, 6, 7, 8})
	shader, err := LoadCoreShader(cfg)
	require.NoError(t, err)
	assert.Len(t, shader.vertex_code, 4)
	assert.Len(t, shader.fragment_code, 4)
}

func TestOpenVulkanFailsOnMissingShaderFirst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VertexShader = filepath.Join(t.TempDir(), "nope.spv")
	// Fails before any native call, so no device is needed.
	_, err := openVulkan(cfg, &fakeDisplay{}, NopLogger())
	assert.ErrorIs(t, err, ErrResourceLoad)
}
