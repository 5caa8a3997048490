package gltf

import (
	"testing"

	vk "github.com/goki/vulkan"
	qgltf "github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/helios/engine/renderer"
	"github.com/spaghettifunk/helios/engine/scene"
)

func ip(i uint32) *uint32 { return &i }

type fakeBuffer struct {
	data      []byte
	usage     renderer.BufferUsage
	destroyed bool
}

func (b *fakeBuffer) Write(offset uint64, data []byte) error {
	copy(b.data[offset:], data)
	return nil
}

func (b *fakeBuffer) Size() uint64 { return uint64(len(b.data)) }
func (b *fakeBuffer) Destroy()     { b.destroyed = true }

type fakeImage struct {
	desc      renderer.ImageDescriptor
	destroyed bool
}

func (i *fakeImage) Destroy() { i.destroyed = true }

type fakeSampler struct {
	desc      renderer.SamplerDescriptor
	destroyed bool
}

func (s *fakeSampler) Destroy() { s.destroyed = true }

type recordedCopy struct {
	src     renderer.Buffer
	dst     renderer.Image
	regions []renderer.BufferImageCopy
}

type recordedTransition struct {
	image     renderer.Image
	oldLayout vk.ImageLayout
	newLayout vk.ImageLayout
}

type fakeRecorder struct {
	transitions []recordedTransition
	copies      []recordedCopy
}

func (r *fakeRecorder) TransitionImageLayout(image renderer.Image, oldLayout, newLayout vk.ImageLayout) error {
	r.transitions = append(r.transitions, recordedTransition{image: image, oldLayout: oldLayout, newLayout: newLayout})
	return nil
}

func (r *fakeRecorder) CopyBufferToImage(src renderer.Buffer, dst renderer.Image, regions []renderer.BufferImageCopy) error {
	r.copies = append(r.copies, recordedCopy{src: src, dst: dst, regions: regions})
	return nil
}

// fakeDevice satisfies the loader's device surface without a GPU.
type fakeDevice struct {
	buffers     []*fakeBuffer
	images      []*fakeImage
	samplers    []*fakeSampler
	unsupported map[vk.Format]bool
	recorder    *fakeRecorder
	submissions int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{unsupported: make(map[vk.Format]bool)}
}

func (d *fakeDevice) CreateBuffer(size uint64, usage renderer.BufferUsage) (renderer.Buffer, error) {
	buffer := &fakeBuffer{data: make([]byte, size), usage: usage}
	d.buffers = append(d.buffers, buffer)
	return buffer, nil
}

func (d *fakeDevice) CreateImage(desc renderer.ImageDescriptor) (renderer.Image, error) {
	image := &fakeImage{desc: desc}
	d.images = append(d.images, image)
	return image, nil
}

func (d *fakeDevice) CreateSampler(desc renderer.SamplerDescriptor) (renderer.Sampler, error) {
	sampler := &fakeSampler{desc: desc}
	d.samplers = append(d.samplers, sampler)
	return sampler, nil
}

func (d *fakeDevice) FormatSupported(format vk.Format) bool {
	return !d.unsupported[format]
}

func (d *fakeDevice) BeginOneTimeSubmit() (renderer.CommandRecorder, error) {
	d.recorder = &fakeRecorder{}
	return d.recorder, nil
}

func (d *fakeDevice) SubmitAndWait(recorder renderer.CommandRecorder) error {
	d.submissions++
	return nil
}

func newTestLoader(device *fakeDevice) *GLTFLoader {
	return &GLTFLoader{device: device, workers: 2}
}

func TestLoadSceneEmptyDocument(t *testing.T) {
	loader := newTestLoader(newFakeDevice())

	s, err := loader.loadScene(&qgltf.Document{}, "empty", ".")
	require.NoError(t, err)

	// Even an empty document yields the fallback viewpoint.
	require.Len(t, s.Children(), 1)
	assert.Equal(t, "default_camera", s.Children()[0].Name)
	cameras := scene.Components[*scene.Camera](s)
	require.Len(t, cameras, 1)
	assert.Equal(t, scene.CameraKindPerspective, cameras[0].Kind)
	assert.InDelta(t, 1.77, cameras[0].Perspective.AspectRatio, 1e-6)
}

func TestSceneTreeFlattening(t *testing.T) {
	doc := &qgltf.Document{
		Nodes: []*qgltf.Node{
			{Name: "n0", Children: []uint32{1, 2}},
			{Name: "n1"},
			{Name: "n2"},
			{Name: "n3"},
		},
		Scenes: []*qgltf.Scene{
			{Name: "A", Nodes: []uint32{0}},
			{Name: "B", Nodes: []uint32{3}},
		},
	}
	loader := newTestLoader(newFakeDevice())

	s, err := loader.loadScene(doc, "flatten", ".")
	require.NoError(t, err)

	// Two synthetic scene roots plus the default camera node.
	require.Len(t, s.Children(), 3)
	rootA, rootB := s.Children()[0], s.Children()[1]
	assert.Equal(t, "A", rootA.Name)
	assert.Equal(t, "B", rootB.Name)

	require.Len(t, rootA.Children(), 1)
	n0 := rootA.Children()[0]
	assert.Equal(t, "n0", n0.Name)
	assert.Same(t, rootA, n0.Parent())

	require.Len(t, n0.Children(), 2)
	assert.Equal(t, "n1", n0.Children()[0].Name)
	assert.Equal(t, "n2", n0.Children()[1].Name)
	for _, child := range n0.Children() {
		assert.Same(t, n0, child.Parent())
	}

	require.Len(t, rootB.Children(), 1)
	assert.Empty(t, rootB.Children()[0].Children())
}

func TestSceneTreeBadNodeIndexIsFatal(t *testing.T) {
	doc := &qgltf.Document{
		Nodes:  []*qgltf.Node{{Name: "n0"}},
		Scenes: []*qgltf.Scene{{Name: "A", Nodes: []uint32{5}}},
	}
	loader := newTestLoader(newFakeDevice())

	_, err := loader.loadScene(doc, "bad", ".")
	assert.ErrorIs(t, err, ErrLookup)
}

func TestMissingImageSideFileFailsLoad(t *testing.T) {
	loader := newTestLoader(newFakeDevice())
	doc := &qgltf.Document{
		Images: []*qgltf.Image{{Name: "img", URI: "missing.png"}},
	}

	s, err := loader.loadScene(doc, "missing-file", t.TempDir())
	require.Error(t, err)
	require.Nil(t, s)
}

// One texture without a sampler index, one with an out-of-range index:
// both must resolve to the same shared default instance.
func TestDefaultSamplerIsShared(t *testing.T) {
	device := newFakeDevice()
	loader := newTestLoader(device)
	doc := documentWithEmbeddedImage(t)
	doc.Textures = []*qgltf.Texture{
		{Name: "t0", Source: ip(0)},
		{Name: "t1", Source: ip(0), Sampler: ip(7)},
	}

	s, err := loader.loadScene(doc, "samplers", ".")
	require.NoError(t, err)

	textures := scene.Components[*scene.Texture](s)
	require.Len(t, textures, 2)
	require.NotNil(t, textures[0].Sampler())
	// Identity-equal, not a fresh copy per texture.
	assert.Same(t, textures[0].Sampler(), textures[1].Sampler())
	assert.Equal(t, "default_sampler", textures[0].Sampler().Name)
}

func TestTextureBadImageIndexIsFatal(t *testing.T) {
	loader := newTestLoader(newFakeDevice())
	doc := &qgltf.Document{
		Textures: []*qgltf.Texture{{Name: "t0", Source: ip(3)}},
	}

	_, err := loader.loadScene(doc, "bad-texture", ".")
	assert.ErrorIs(t, err, ErrLookup)
}

func TestBidirectionalMeshAndCameraAttachment(t *testing.T) {
	doc := &qgltf.Document{
		Meshes: []*qgltf.Mesh{{Name: "m0", Primitives: []*qgltf.Primitive{{}}}},
		Cameras: []*qgltf.Camera{
			{Name: "c0", Perspective: &qgltf.Perspective{Yfov: 0.8, Znear: 0.01}},
		},
		Nodes: []*qgltf.Node{
			{Name: "n0", Mesh: ip(0), Camera: ip(0)},
		},
		Scenes: []*qgltf.Scene{{Name: "S", Nodes: []uint32{0}}},
	}
	loader := newTestLoader(newFakeDevice())

	s, err := loader.loadScene(doc, "attach", ".")
	require.NoError(t, err)

	node := s.Nodes()[0]
	require.NotNil(t, node.Mesh())
	assert.Contains(t, node.Mesh().Nodes(), node)

	require.NotNil(t, node.Camera())
	assert.Same(t, node, node.Camera().Node())
}

func TestUnsupportedCameraKindIsSkipped(t *testing.T) {
	doc := &qgltf.Document{
		Cameras: []*qgltf.Camera{
			{Name: "ortho", Orthographic: &qgltf.Orthographic{}},
			{Name: "persp", Perspective: &qgltf.Perspective{Yfov: 1, Znear: 0.1}},
		},
		Nodes: []*qgltf.Node{
			{Name: "n0", Camera: ip(0)},
			{Name: "n1", Camera: ip(1)},
		},
	}
	loader := newTestLoader(newFakeDevice())

	s, err := loader.loadScene(doc, "cameras", ".")
	require.NoError(t, err)

	// The orthographic camera yields no entity and no attachment; the
	// default camera is always added on top.
	cameras := scene.Components[*scene.Camera](s)
	require.Len(t, cameras, 2)
	assert.Nil(t, s.Nodes()[0].Camera())
	require.NotNil(t, s.Nodes()[1].Camera())
	assert.Equal(t, "persp", s.Nodes()[1].Camera().Name)
}

func TestNodeBadMeshIndexIsFatal(t *testing.T) {
	doc := &qgltf.Document{
		Nodes: []*qgltf.Node{{Name: "n0", Mesh: ip(9)}},
	}
	loader := newTestLoader(newFakeDevice())

	_, err := loader.loadScene(doc, "bad-mesh", ".")
	assert.ErrorIs(t, err, ErrLookup)
}

func primitiveDocument(indices []byte, componentType qgltf.ComponentType) *qgltf.Document {
	positions := make([]byte, 3*12)
	payload := append(append([]byte{}, positions...), indices...)
	return &qgltf.Document{
		Buffers: []*qgltf.Buffer{{ByteLength: uint32(len(payload)), Data: payload}},
		BufferViews: []*qgltf.BufferView{
			{Buffer: 0, ByteLength: uint32(len(positions))},
			{Buffer: 0, ByteOffset: uint32(len(positions)), ByteLength: uint32(len(indices))},
		},
		Accessors: []*qgltf.Accessor{
			{BufferView: ip(0), ComponentType: qgltf.ComponentFloat, Count: 3, Type: qgltf.AccessorVec3},
			{BufferView: ip(1), ComponentType: componentType, Count: uint32(len(indices)) / componentByteSize(componentType), Type: qgltf.AccessorScalar},
		},
		Meshes: []*qgltf.Mesh{{
			Name: "tri",
			Primitives: []*qgltf.Primitive{{
				Attributes: map[string]uint32{"POSITION": 0},
				Indices:    ip(1),
			}},
		}},
	}
}

func TestPrimitiveIndexPromotion(t *testing.T) {
	device := newFakeDevice()
	loader := newTestLoader(device)
	doc := primitiveDocument([]byte{0, 1, 2}, qgltf.ComponentUbyte)

	s, err := loader.loadScene(doc, "promote", ".")
	require.NoError(t, err)

	submeshes := scene.Components[*scene.SubMesh](s)
	require.Len(t, submeshes, 1)
	sm := submeshes[0]

	assert.Equal(t, vk.IndexTypeUint16, sm.IndexType)
	assert.Equal(t, uint32(3), sm.IndexCount)
	assert.Equal(t, uint32(3), sm.VertexCount)

	indexBuffer, ok := sm.IndexBuffer.(*fakeBuffer)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 0, 1, 0, 2, 0}, indexBuffer.data)
}

func TestPrimitiveWideIndices(t *testing.T) {
	loader := newTestLoader(newFakeDevice())
	doc := primitiveDocument([]byte{0, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}, qgltf.ComponentUint)

	s, err := loader.loadScene(doc, "wide", ".")
	require.NoError(t, err)

	sm := scene.Components[*scene.SubMesh](s)[0]
	assert.Equal(t, vk.IndexTypeUint32, sm.IndexType)
	assert.Equal(t, uint32(3), sm.IndexCount)
}

func TestPrimitiveAttributesLowerCased(t *testing.T) {
	loader := newTestLoader(newFakeDevice())
	doc := primitiveDocument([]byte{0, 1, 2}, qgltf.ComponentUbyte)

	s, err := loader.loadScene(doc, "attrs", ".")
	require.NoError(t, err)

	sm := scene.Components[*scene.SubMesh](s)[0]
	_, ok := sm.VertexBuffers["position"]
	assert.True(t, ok)
	attribute, ok := sm.Attribute("position")
	require.True(t, ok)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attribute.Format)
	assert.Equal(t, uint32(12), attribute.Stride)
}

func TestPrimitiveDefaultMaterial(t *testing.T) {
	loader := newTestLoader(newFakeDevice())
	doc := primitiveDocument([]byte{0, 1, 2}, qgltf.ComponentUbyte)

	s, err := loader.loadScene(doc, "default-material", ".")
	require.NoError(t, err)

	sm := scene.Components[*scene.SubMesh](s)[0]
	require.NotNil(t, sm.Material())
	assert.Equal(t, "default_material", sm.Material().Name)
}

func TestMaterialParsing(t *testing.T) {
	loader := newTestLoader(newFakeDevice())
	doc := documentWithEmbeddedImage(t)
	doc.Textures = []*qgltf.Texture{{Name: "t0", Source: ip(0)}}
	alphaCutoff := float32(0.25)
	metallic := float32(0.5)
	roughness := float32(0.75)
	doc.Materials = []*qgltf.Material{{
		Name:        "mat",
		AlphaMode:   qgltf.AlphaMask,
		AlphaCutoff: &alphaCutoff,
		DoubleSided: true,
		PBRMetallicRoughness: &qgltf.PBRMetallicRoughness{
			BaseColorFactor:  &[4]float32{1, 0.5, 0.25, 1},
			MetallicFactor:   &metallic,
			RoughnessFactor:  &roughness,
			BaseColorTexture: &qgltf.TextureInfo{Index: 0},
		},
		EmissiveFactor: [3]float32{0.1, 0.2, 0.3},
		Extras:         map[string]interface{}{"NoiseTexture": float64(0), "Roughness": float64(1)},
	}}

	s, err := loader.loadScene(doc, "materials", ".")
	require.NoError(t, err)

	materials := scene.Components[*scene.Material](s)
	require.Len(t, materials, 2)
	mat := materials[0]

	assert.Equal(t, scene.AlphaModeMask, mat.AlphaMode)
	assert.InDelta(t, 0.25, mat.AlphaCutoff, 1e-6)
	assert.True(t, mat.DoubleSided)
	assert.InDelta(t, 0.5, mat.MetallicFactor, 1e-6)
	assert.InDelta(t, 0.75, mat.RoughnessFactor, 1e-6)
	assert.InDelta(t, 0.5, mat.BaseColorFactor.Y, 1e-6)
	assert.InDelta(t, 0.2, mat.Emissive.Y, 1e-6)

	// Recognized slot plus the vendor-extension substring rule; the
	// non-texture extras key is ignored.
	assert.Contains(t, mat.Textures, "base_color_texture")
	assert.Contains(t, mat.Textures, "noise_texture")
	assert.Len(t, mat.Textures, 2)
}

func TestMaterialBadTextureIndexIsFatal(t *testing.T) {
	loader := newTestLoader(newFakeDevice())
	doc := &qgltf.Document{
		Materials: []*qgltf.Material{{
			Name: "mat",
			PBRMetallicRoughness: &qgltf.PBRMetallicRoughness{
				BaseColorTexture: &qgltf.TextureInfo{Index: 4},
			},
		}},
	}

	_, err := loader.loadScene(doc, "bad-material", ".")
	assert.ErrorIs(t, err, ErrLookup)
}

func TestNodeTransformFields(t *testing.T) {
	loader := newTestLoader(newFakeDevice())
	doc := &qgltf.Document{
		Nodes: []*qgltf.Node{
			{
				Name:        "trs",
				Translation: [3]float32{1, 2, 3},
				Rotation:    [4]float32{0, 0, 0, 1},
				Scale:       [3]float32{2, 2, 2},
				Matrix:      [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
			},
			{
				Name:     "matrix",
				Rotation: [4]float32{0, 0, 0, 1},
				Scale:    [3]float32{1, 1, 1},
				Matrix:   [16]float32{2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 1},
			},
		},
	}

	s, err := loader.loadScene(doc, "transforms", ".")
	require.NoError(t, err)

	trs := s.Nodes()[0]
	assert.False(t, trs.Transform.HasMatrix())
	assert.InDelta(t, 1, trs.Transform.Translation.X, 1e-6)
	assert.InDelta(t, 2, trs.Transform.Scale.X, 1e-6)
	local := trs.Transform.Local()
	assert.InDelta(t, 2, local.Data[0], 1e-6)
	assert.InDelta(t, 1, local.Data[12], 1e-6)

	// An explicit matrix overrides the composed TRS result.
	withMatrix := s.Nodes()[1]
	assert.True(t, withMatrix.Transform.HasMatrix())
	assert.InDelta(t, 2, withMatrix.Transform.Local().Data[0], 1e-6)
}

func TestLoadSceneLeavesOutputUntouchedOnFailure(t *testing.T) {
	loader := NewGLTFLoader(newFakeDevice(), testConfig(t.TempDir()))
	out := scene.New("untouched")

	err := loader.LoadScene("does-not-exist.gltf", out)
	require.Error(t, err)
	assert.Equal(t, "untouched", out.Name)
	assert.Empty(t, out.Children())
}
