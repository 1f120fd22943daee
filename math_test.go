package evdvk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestVulkanClipCorrection(t *testing.T) {
	c := VulkanClipCorrection()
	// GL near plane z=-w maps to 0, far plane z=w maps to w, Y flips.
	near := c.Mul4x1(mgl32.Vec4{0.5, 0.5, -1, 1})
	far := c.Mul4x1(mgl32.Vec4{0.5, 0.5, 1, 1})
	assert.Equal(t, mgl32.Vec4{0.5, -0.5, 0, 1}, near)
	assert.Equal(t, mgl32.Vec4{0.5, -0.5, 1, 1}, far)
}

func TestVulkanPerspectiveDepthRange(t *testing.T) {
	p := VulkanPerspective(mgl32.DegToRad(60), 1, 1, 10)
	near := p.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, -10, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestMatrixBytesColumnMajor(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	b := matrixBytes(m)
	assert.Len(t, b, uniformSize)
	// Translation sits in the last column, elements 12..14.
	assert.Equal(t, float32Bytes([]float32{1, 2, 3, 1}), b[48:])
	assert.Equal(t, m.Mul4(mgl32.Ident4()), combinedTransform(m, mgl32.Ident4()))
}
