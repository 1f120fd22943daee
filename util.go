package evdvk

import (
	"encoding/binary"
	"math"
	"unsafe"
)

func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}

// sliceUint32 reinterprets a SPIR-V blob as the uint32 words Vulkan expects.
func sliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// float32Bytes packs values little-endian, the layout of host-visible
// vertex and uniform memory on every platform we target.
func float32Bytes(values []float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

// checkExisting keeps the wanted names that are present in actual and
// counts the ones that are not. Names are compared null-terminated.
func checkExisting(actual, wanted []string) (existing []string, missing int) {
	have := make(map[string]struct{}, len(actual))
	for _, name := range actual {
		have[safeString(name)] = struct{}{}
	}
	for _, name := range wanted {
		if _, ok := have[safeString(name)]; ok {
			existing = append(existing, safeString(name))
		} else {
			missing++
		}
	}
	return existing, missing
}

func hasAll(actual, wanted []string) (ok bool, missing []string) {
	have := make(map[string]struct{}, len(actual))
	for _, name := range actual {
		have[safeString(name)] = struct{}{}
	}
	for _, name := range wanted {
		if _, found := have[safeString(name)]; !found {
			missing = append(missing, name)
		}
	}
	return len(missing) == 0, missing
}
