package evdvk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goodAdapter(name string) AdapterInfo {
	return AdapterInfo{
		Name:           name,
		Discrete:       true,
		GeometryShader: true,
		QueueFamilies: []QueueFamilyInfo{
			{Graphics: false, Present: true},
			{Graphics: true, Present: true},
		},
		Extensions:   []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"},
		Formats:      2,
		PresentModes: 1,
	}
}

func TestSelectAdapterSkipsFailingAdapters(t *testing.T) {
	integrated := goodAdapter("integrated")
	integrated.Discrete = false
	noGeometry := goodAdapter("no geometry")
	noGeometry.GeometryShader = false
	noPresent := goodAdapter("no present")
	noPresent.QueueFamilies = []QueueFamilyInfo{{Graphics: true}, {Present: true}}
	noSwapchain := goodAdapter("no swapchain")
	noSwapchain.Extensions = nil

	log := &recordLogger{}
	adapters := []AdapterInfo{integrated, noGeometry, noPresent, noSwapchain, goodAdapter("discrete")}
	index, family, err := SelectAdapter(adapters, []string{swapchainExtension}, log)
	require.NoError(t, err)
	assert.Equal(t, 4, index)
	assert.Equal(t, uint32(1), family)
	assert.Len(t, log.warns, 4)
	assert.Contains(t, log.warns[0], "not a discrete GPU")
	assert.Contains(t, log.warns[1], "geometry shader")
	assert.Contains(t, log.warns[2], "graphics and present")
	assert.Contains(t, log.warns[3], "VK_KHR_swapchain")
}

func TestSelectAdapterSkipsIncompatibleSwapchain(t *testing.T) {
	noFormats := goodAdapter("no formats")
	noFormats.Formats = 0
	noModes := goodAdapter("no present modes")
	noModes.PresentModes = 0

	log := &recordLogger{}
	index, _, err := SelectAdapter([]AdapterInfo{noFormats, noModes, goodAdapter("discrete")}, []string{swapchainExtension}, log)
	require.NoError(t, err)
	assert.Equal(t, 2, index)
	require.Len(t, log.warns, 2)
	assert.Contains(t, log.warns[0], "incompatible swapchain")
	assert.Contains(t, log.warns[1], "0 present modes")

	_, _, err = SelectAdapter([]AdapterInfo{noFormats}, []string{swapchainExtension}, NopLogger())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestSelectAdapterFirstQualifyingWins(t *testing.T) {
	index, _, err := SelectAdapter([]AdapterInfo{goodAdapter("a"), goodAdapter("b")}, []string{swapchainExtension}, NopLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, index)
}

func TestSelectAdapterNoneQualify(t *testing.T) {
	integrated := goodAdapter("integrated")
	integrated.Discrete = false
	_, _, err := SelectAdapter([]AdapterInfo{integrated}, []string{swapchainExtension}, NopLogger())
	assert.ErrorIs(t, err, ErrConfiguration)

	_, _, err = SelectAdapter(nil, nil, NopLogger())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestGraphicsPresentFamily(t *testing.T) {
	family, ok := GraphicsPresentFamily([]QueueFamilyInfo{{Graphics: true}, {Present: true}, {Graphics: true, Present: true}})
	assert.True(t, ok)
	assert.Equal(t, uint32(2), family)

	_, ok = GraphicsPresentFamily([]QueueFamilyInfo{{Graphics: true}, {Present: true}})
	assert.False(t, ok)
}
