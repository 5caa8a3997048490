package gltf

import (
	"testing"

	vk "github.com/goki/vulkan"
	qgltf "github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertDataWidensEachElement(t *testing.T) {
	src := []byte{0x01, 0x02, 0xFF, 0x00, 0x7F}

	dst := convertData(src, 1, 2)

	require.Len(t, dst, len(src)*2)
	for i, b := range src {
		assert.Equal(t, b, dst[i*2], "low byte of element %d", i)
		assert.Equal(t, byte(0), dst[i*2+1], "high byte of element %d", i)
	}
}

func TestConvertDataEmptyInput(t *testing.T) {
	assert.Empty(t, convertData(nil, 1, 2))
}

func TestAttributeFormatCoversSupportedSet(t *testing.T) {
	components := []qgltf.ComponentType{
		qgltf.ComponentByte, qgltf.ComponentUbyte,
		qgltf.ComponentShort, qgltf.ComponentUshort,
		qgltf.ComponentUint, qgltf.ComponentFloat,
	}
	arities := []qgltf.AccessorType{
		qgltf.AccessorScalar, qgltf.AccessorVec2, qgltf.AccessorVec3, qgltf.AccessorVec4,
	}

	for _, component := range components {
		for _, arity := range arities {
			for _, normalized := range []bool{false, true} {
				format := attributeFormat(component, arity, normalized)
				assert.NotEqual(t, vk.FormatUndefined, format,
					"component %v arity %v normalized %v", component, arity, normalized)
				// Pure function: same input, same output.
				assert.Equal(t, format, attributeFormat(component, arity, normalized))
			}
		}
	}
}

func TestAttributeFormatUnsupportedCombination(t *testing.T) {
	assert.Equal(t, vk.FormatUndefined, attributeFormat(qgltf.ComponentFloat, qgltf.AccessorMat4, false))
}

func TestAttributeFormatNormalizedBranches(t *testing.T) {
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, attributeFormat(qgltf.ComponentUbyte, qgltf.AccessorVec4, true))
	assert.Equal(t, vk.FormatR8g8b8a8Uint, attributeFormat(qgltf.ComponentUbyte, qgltf.AccessorVec4, false))
	assert.Equal(t, vk.FormatR16g16Unorm, attributeFormat(qgltf.ComponentUshort, qgltf.AccessorVec2, true))
	// Signed and float components have no normalized variant.
	assert.Equal(t, vk.FormatR16Sint, attributeFormat(qgltf.ComponentShort, qgltf.AccessorScalar, true))
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attributeFormat(qgltf.ComponentFloat, qgltf.AccessorVec3, true))
}

func TestFindFilters(t *testing.T) {
	assert.Equal(t, vk.FilterNearest, findMinFilter(qgltf.MinNearest))
	assert.Equal(t, vk.FilterNearest, findMinFilter(qgltf.MinNearestMipMapLinear))
	assert.Equal(t, vk.FilterLinear, findMinFilter(qgltf.MinLinearMipMapNearest))
	// Unrecognized values default to linear.
	assert.Equal(t, vk.FilterLinear, findMinFilter(qgltf.MinFilter(9999)))

	assert.Equal(t, vk.FilterNearest, findMagFilter(qgltf.MagNearest))
	assert.Equal(t, vk.FilterLinear, findMagFilter(qgltf.MagLinear))
	assert.Equal(t, vk.FilterLinear, findMagFilter(qgltf.MagFilter(9999)))
}

func TestFindMipmapMode(t *testing.T) {
	assert.Equal(t, vk.SamplerMipmapModeNearest, findMipmapMode(qgltf.MinNearestMipMapNearest))
	assert.Equal(t, vk.SamplerMipmapModeNearest, findMipmapMode(qgltf.MinLinearMipMapNearest))
	assert.Equal(t, vk.SamplerMipmapModeLinear, findMipmapMode(qgltf.MinNearestMipMapLinear))
	assert.Equal(t, vk.SamplerMipmapModeLinear, findMipmapMode(qgltf.MinNearest))
}

func TestFindWrapMode(t *testing.T) {
	assert.Equal(t, vk.SamplerAddressModeClampToEdge, findWrapMode(qgltf.WrapClampToEdge))
	assert.Equal(t, vk.SamplerAddressModeMirroredRepeat, findWrapMode(qgltf.WrapMirroredRepeat))
	assert.Equal(t, vk.SamplerAddressModeRepeat, findWrapMode(qgltf.WrapRepeat))
}

func TestAttributeDataInterleaved(t *testing.T) {
	// Two interleaved vec3 float attributes sharing one view, stride 24.
	payload := make([]byte, 48)
	for i := range payload {
		payload[i] = byte(i)
	}
	doc := &qgltf.Document{
		Buffers:     []*qgltf.Buffer{{ByteLength: 48, Data: payload}},
		BufferViews: []*qgltf.BufferView{{Buffer: 0, ByteLength: 48, ByteStride: 24}},
		Accessors: []*qgltf.Accessor{
			{BufferView: ip(0), ByteOffset: 0, ComponentType: qgltf.ComponentFloat, Count: 2, Type: qgltf.AccessorVec3},
			{BufferView: ip(0), ByteOffset: 12, ComponentType: qgltf.ComponentFloat, Count: 1, Type: qgltf.AccessorVec3},
		},
	}

	data, stride, err := attributeData(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(24), stride)
	assert.Equal(t, payload, data)

	data, stride, err = attributeData(doc, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(24), stride)
	assert.Equal(t, payload[12:36], data)
}

func TestAttributeDataPackedStride(t *testing.T) {
	payload := make([]byte, 24)
	doc := &qgltf.Document{
		Buffers:     []*qgltf.Buffer{{ByteLength: 24, Data: payload}},
		BufferViews: []*qgltf.BufferView{{Buffer: 0, ByteLength: 24}},
		Accessors: []*qgltf.Accessor{
			{BufferView: ip(0), ComponentType: qgltf.ComponentUshort, Count: 12, Type: qgltf.AccessorScalar},
		},
	}

	data, stride, err := attributeData(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), stride)
	assert.Len(t, data, 24)
}

func TestAttributeDataLookupFailures(t *testing.T) {
	doc := &qgltf.Document{
		Buffers:     []*qgltf.Buffer{{ByteLength: 4, Data: make([]byte, 4)}},
		BufferViews: []*qgltf.BufferView{{Buffer: 7, ByteLength: 4}},
		Accessors: []*qgltf.Accessor{
			{BufferView: ip(0), ComponentType: qgltf.ComponentFloat, Count: 1, Type: qgltf.AccessorScalar},
			{ComponentType: qgltf.ComponentFloat, Count: 1, Type: qgltf.AccessorScalar},
			{BufferView: ip(9), ComponentType: qgltf.ComponentFloat, Count: 1, Type: qgltf.AccessorScalar},
		},
	}

	_, _, err := attributeData(doc, 42)
	assert.ErrorIs(t, err, ErrLookup)

	// Buffer index out of range.
	_, _, err = attributeData(doc, 0)
	assert.ErrorIs(t, err, ErrLookup)

	// Accessor without a buffer view.
	_, _, err = attributeData(doc, 1)
	assert.ErrorIs(t, err, ErrLookup)

	// View index out of range.
	_, _, err = attributeData(doc, 2)
	assert.ErrorIs(t, err, ErrLookup)
}

func TestAttributeDataRangeBeyondBuffer(t *testing.T) {
	doc := &qgltf.Document{
		Buffers:     []*qgltf.Buffer{{ByteLength: 8, Data: make([]byte, 8)}},
		BufferViews: []*qgltf.BufferView{{Buffer: 0, ByteLength: 8}},
		Accessors: []*qgltf.Accessor{
			{BufferView: ip(0), ComponentType: qgltf.ComponentFloat, Count: 100, Type: qgltf.AccessorVec3},
		},
	}

	_, _, err := attributeData(doc, 0)
	assert.ErrorIs(t, err, ErrLookup)
}
