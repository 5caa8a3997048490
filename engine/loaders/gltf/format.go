package gltf

import (
	"fmt"

	vk "github.com/goki/vulkan"
	qgltf "github.com/qmuntal/gltf"
)

// ErrLookup marks an out-of-range index into one of the document's
// sequences. These indicate a malformed document and abort the load.
var ErrLookup = fmt.Errorf("document index out of range")

func findMinFilter(filter qgltf.MinFilter) vk.Filter {
	switch filter {
	case qgltf.MinNearest, qgltf.MinNearestMipMapNearest, qgltf.MinNearestMipMapLinear:
		return vk.FilterNearest
	case qgltf.MinLinear, qgltf.MinLinearMipMapNearest, qgltf.MinLinearMipMapLinear:
		return vk.FilterLinear
	default:
		return vk.FilterLinear
	}
}

func findMagFilter(filter qgltf.MagFilter) vk.Filter {
	switch filter {
	case qgltf.MagNearest:
		return vk.FilterNearest
	case qgltf.MagLinear:
		return vk.FilterLinear
	default:
		return vk.FilterLinear
	}
}

// findMipmapMode derives the mip selection mode from the minification
// filter, which encodes both in one enum.
func findMipmapMode(filter qgltf.MinFilter) vk.SamplerMipmapMode {
	switch filter {
	case qgltf.MinNearestMipMapNearest, qgltf.MinLinearMipMapNearest:
		return vk.SamplerMipmapModeNearest
	case qgltf.MinNearestMipMapLinear, qgltf.MinLinearMipMapLinear:
		return vk.SamplerMipmapModeLinear
	default:
		return vk.SamplerMipmapModeLinear
	}
}

func findWrapMode(wrap qgltf.WrappingMode) vk.SamplerAddressMode {
	switch wrap {
	case qgltf.WrapClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case qgltf.WrapMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case qgltf.WrapRepeat:
		return vk.SamplerAddressModeRepeat
	default:
		return vk.SamplerAddressModeRepeat
	}
}

type formatKey struct {
	component qgltf.ComponentType
	arity     qgltf.AccessorType
}

// formatPair holds the integer format and, for the unsigned component
// types that support it, the fixed-point normalized alternative.
type formatPair struct {
	plain      vk.Format
	normalized vk.Format
}

var attributeFormats = map[formatKey]formatPair{
	{qgltf.ComponentByte, qgltf.AccessorScalar}: {plain: vk.FormatR8Sint},
	{qgltf.ComponentByte, qgltf.AccessorVec2}:   {plain: vk.FormatR8g8Sint},
	{qgltf.ComponentByte, qgltf.AccessorVec3}:   {plain: vk.FormatR8g8b8Sint},
	{qgltf.ComponentByte, qgltf.AccessorVec4}:   {plain: vk.FormatR8g8b8a8Sint},

	{qgltf.ComponentUbyte, qgltf.AccessorScalar}: {plain: vk.FormatR8Uint, normalized: vk.FormatR8Unorm},
	{qgltf.ComponentUbyte, qgltf.AccessorVec2}:   {plain: vk.FormatR8g8Uint, normalized: vk.FormatR8g8Unorm},
	{qgltf.ComponentUbyte, qgltf.AccessorVec3}:   {plain: vk.FormatR8g8b8Uint, normalized: vk.FormatR8g8b8Unorm},
	{qgltf.ComponentUbyte, qgltf.AccessorVec4}:   {plain: vk.FormatR8g8b8a8Uint, normalized: vk.FormatR8g8b8a8Unorm},

	{qgltf.ComponentShort, qgltf.AccessorScalar}: {plain: vk.FormatR16Sint},
	{qgltf.ComponentShort, qgltf.AccessorVec2}:   {plain: vk.FormatR16g16Sint},
	{qgltf.ComponentShort, qgltf.AccessorVec3}:   {plain: vk.FormatR16g16b16Sint},
	{qgltf.ComponentShort, qgltf.AccessorVec4}:   {plain: vk.FormatR16g16b16a16Sint},

	{qgltf.ComponentUshort, qgltf.AccessorScalar}: {plain: vk.FormatR16Uint, normalized: vk.FormatR16Unorm},
	{qgltf.ComponentUshort, qgltf.AccessorVec2}:   {plain: vk.FormatR16g16Uint, normalized: vk.FormatR16g16Unorm},
	{qgltf.ComponentUshort, qgltf.AccessorVec3}:   {plain: vk.FormatR16g16b16Uint, normalized: vk.FormatR16g16b16Unorm},
	{qgltf.ComponentUshort, qgltf.AccessorVec4}:   {plain: vk.FormatR16g16b16a16Uint, normalized: vk.FormatR16g16b16a16Unorm},

	{qgltf.ComponentUint, qgltf.AccessorScalar}: {plain: vk.FormatR32Uint},
	{qgltf.ComponentUint, qgltf.AccessorVec2}:   {plain: vk.FormatR32g32Uint},
	{qgltf.ComponentUint, qgltf.AccessorVec3}:   {plain: vk.FormatR32g32b32Uint},
	{qgltf.ComponentUint, qgltf.AccessorVec4}:   {plain: vk.FormatR32g32b32a32Uint},

	{qgltf.ComponentFloat, qgltf.AccessorScalar}: {plain: vk.FormatR32Sfloat},
	{qgltf.ComponentFloat, qgltf.AccessorVec2}:   {plain: vk.FormatR32g32Sfloat},
	{qgltf.ComponentFloat, qgltf.AccessorVec3}:   {plain: vk.FormatR32g32b32Sfloat},
	{qgltf.ComponentFloat, qgltf.AccessorVec4}:   {plain: vk.FormatR32g32b32a32Sfloat},
}

// attributeFormat maps (component type, element arity, normalized) onto a
// vertex format. Combinations outside the table yield FormatUndefined
// rather than an error; consuming an undefined-format attribute is the
// renderer's problem, not the loader's.
func attributeFormat(component qgltf.ComponentType, arity qgltf.AccessorType, normalized bool) vk.Format {
	pair, ok := attributeFormats[formatKey{component: component, arity: arity}]
	if !ok {
		return vk.FormatUndefined
	}
	if normalized && pair.normalized != vk.FormatUndefined {
		return pair.normalized
	}
	return pair.plain
}

// convertData widens per-element records by copying srcStride bytes into
// the front of each dstStride-byte destination slot. Used to promote
// 1-byte index data to 2 bytes, since no 8-bit index type exists.
func convertData(src []byte, srcStride, dstStride uint32) []byte {
	count := uint32(len(src)) / srcStride
	dst := make([]byte, count*dstStride)
	for i := uint32(0); i < count; i++ {
		copy(dst[i*dstStride:i*dstStride+srcStride], src[i*srcStride:(i+1)*srcStride])
	}
	return dst
}

func componentByteSize(component qgltf.ComponentType) uint32 {
	switch component {
	case qgltf.ComponentByte, qgltf.ComponentUbyte:
		return 1
	case qgltf.ComponentShort, qgltf.ComponentUshort:
		return 2
	case qgltf.ComponentUint, qgltf.ComponentFloat:
		return 4
	default:
		return 0
	}
}

func arityOf(arity qgltf.AccessorType) uint32 {
	switch arity {
	case qgltf.AccessorScalar:
		return 1
	case qgltf.AccessorVec2:
		return 2
	case qgltf.AccessorVec3:
		return 3
	case qgltf.AccessorVec4:
		return 4
	case qgltf.AccessorMat2:
		return 4
	case qgltf.AccessorMat3:
		return 9
	case qgltf.AccessorMat4:
		return 16
	default:
		return 0
	}
}

func lookupAccessor(doc *qgltf.Document, index int) (*qgltf.Accessor, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", index, ErrLookup)
	}
	return doc.Accessors[index], nil
}

// attributeStride returns the byte distance between consecutive elements:
// the buffer view's interleave stride when present, otherwise the packed
// element size.
func attributeStride(accessor *qgltf.Accessor, view *qgltf.BufferView) uint32 {
	if view != nil && view.ByteStride > 0 {
		return uint32(view.ByteStride)
	}
	return componentByteSize(accessor.ComponentType) * arityOf(accessor.Type)
}

// attributeData slices the raw bytes an accessor addresses out of its
// backing buffer, honoring interleave strides. Any out-of-range index on
// the way down is a fatal lookup error.
func attributeData(doc *qgltf.Document, accessorIndex int) ([]byte, uint32, error) {
	accessor, err := lookupAccessor(doc, accessorIndex)
	if err != nil {
		return nil, 0, err
	}
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor %d has no buffer view: %w", accessorIndex, ErrLookup)
	}

	viewIndex := int(*accessor.BufferView)
	if viewIndex < 0 || viewIndex >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("buffer view %d: %w", viewIndex, ErrLookup)
	}
	view := doc.BufferViews[viewIndex]

	bufferIndex := int(view.Buffer)
	if bufferIndex < 0 || bufferIndex >= len(doc.Buffers) {
		return nil, 0, fmt.Errorf("buffer %d: %w", bufferIndex, ErrLookup)
	}
	payload := doc.Buffers[bufferIndex].Data

	stride := attributeStride(accessor, view)
	start := uint32(accessor.ByteOffset) + uint32(view.ByteOffset)
	length := uint32(accessor.Count) * stride
	if uint64(start)+uint64(length) > uint64(len(payload)) {
		return nil, 0, fmt.Errorf("accessor %d addresses [%d, %d) beyond buffer of %d bytes: %w",
			accessorIndex, start, start+length, len(payload), ErrLookup)
	}

	return payload[start : start+length], stride, nil
}
