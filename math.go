package evdvk

import "github.com/go-gl/mathgl/mgl32"

// VulkanClipCorrection converts a GL style clip space to Vulkan's.
// Vulkan has a topLeft clipSpace with [0, 1] depth range instead of [-1, 1].
//
// mgl32 builds projection matrices in GL style clipSpace, multiply the
// correction in front of them to get the Vulkan style projection.
func VulkanClipCorrection() mgl32.Mat4 {
	// Flip Y, then z' = 0.5*z + 0.5*w.
	return mgl32.Mat4{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 0.5, 0,
		0, 0, 0.5, 1,
	}
}

// VulkanPerspective is mgl32.Perspective moved into Vulkan clip space.
// fovy is in radians.
func VulkanPerspective(fovy, aspect, near, far float32) mgl32.Mat4 {
	return VulkanClipCorrection().Mul4(mgl32.Perspective(fovy, aspect, near, far))
}

// combinedTransform is the single matrix the vertex stage reads.
func combinedTransform(projection, view mgl32.Mat4) mgl32.Mat4 {
	return projection.Mul4(view)
}

// matrixBytes is the uniform block layout: 16 column-major float32.
func matrixBytes(m mgl32.Mat4) []byte {
	return float32Bytes(m[:])
}
