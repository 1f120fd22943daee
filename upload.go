package evdvk

import (
	vk "github.com/vulkan-go/vulkan"
)

// vertexSet is the backend's copy of the loaded positions: one
// consolidated buffer, or one buffer per non-empty partition.
type vertexSet struct {
	buffers []*CoreBuffer
	counts  []uint32
}

func (v *vertexSet) draws() []drawCall {
	if v == nil {
		return nil
	}
	draws := make([]drawCall, len(v.buffers))
	for i, buf := range v.buffers {
		draws[i] = drawCall{buffer: buf, vertices: v.counts[i]}
	}
	return draws
}

func (v *vertexSet) vertices() int {
	n := 0
	for _, c := range v.counts {
		n += int(c)
	}
	return n
}

// LoadVertexData replaces every vertex buffer with the given partitions of
// xyz triples. The device is idled first so no slot can still read the old
// buffers. Config.MultiBuffer picks the layout.
func (b *CoreBackend) LoadVertexData(partitions [][]float32) error {
	if err := b.ready("load vertex data"); err != nil {
		return err
	}
	total := 0
	for i, p := range partitions {
		if len(p)%3 != 0 {
			return configErrorf("vertex partition %d: %d floats is not a whole number of xyz triples", i, len(p))
		}
		total += len(p)
	}

	if err := b.drv.WaitIdle(); err != nil {
		return err
	}
	b.releaseVertices()
	// A slot recorded against the old buffers must record again, whether or
	// not the new ones get built.
	if f := b.ring.Current(); f.state == SlotRecording {
		f.recorded = false
	}

	set := &vertexSet{}
	var err error
	if b.cfg.MultiBuffer {
		for _, p := range partitions {
			if len(p) == 0 {
				continue
			}
			if err = b.addVertexBuffer(set, p); err != nil {
				break
			}
		}
	} else if total > 0 {
		flat := make([]float32, 0, total)
		for _, p := range partitions {
			flat = append(flat, p...)
		}
		err = b.addVertexBuffer(set, flat)
	}
	if err != nil {
		for _, buf := range set.buffers {
			b.drv.ClearBuffer(buf)
		}
		return err
	}
	b.verts = set
	b.log.Infof("vulkan: loaded %d vertices into %d buffers", set.vertices(), len(set.buffers))
	return nil
}

func (b *CoreBackend) addVertexBuffer(set *vertexSet, positions []float32) error {
	data := float32Bytes(positions)
	buf, err := b.drv.CreateBuffer(vk.BufferUsageVertexBufferBit, len(data), data)
	if err != nil {
		return err
	}
	set.buffers = append(set.buffers, buf)
	set.counts = append(set.counts, uint32(len(positions)/3))
	return nil
}

// releaseVertices frees the vertex buffers. Callers idle the device first.
func (b *CoreBackend) releaseVertices() {
	if b.verts == nil {
		return
	}
	for _, buf := range b.verts.buffers {
		b.drv.ClearBuffer(buf)
	}
	b.verts = nil
}
