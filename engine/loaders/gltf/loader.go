package gltf

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	vk "github.com/goki/vulkan"
	qgltf "github.com/qmuntal/gltf"

	"github.com/spaghettifunk/helios/engine/config"
	"github.com/spaghettifunk/helios/engine/containers"
	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/math"
	"github.com/spaghettifunk/helios/engine/renderer"
	"github.com/spaghettifunk/helios/engine/scene"
)

/**
 * @brief Loads glTF documents into renderer-ready scenes. File parsing is
 * delegated to the external parser; the loader owns the translation of
 * document records into scene entities and the GPU upload of their
 * payloads.
 */
type GLTFLoader struct {
	device    renderer.Device
	assetsDir string
	workers   int
}

func NewGLTFLoader(device renderer.Device, cfg *config.Config) *GLTFLoader {
	workers := cfg.DecodeWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &GLTFLoader{
		device:    device,
		assetsDir: cfg.AssetsDir,
		workers:   workers,
	}
}

// LoadScene loads the document at fileName, relative to the assets
// directory, into out. The load is all-or-nothing: on failure out is left
// untouched.
func (l *GLTFLoader) LoadScene(fileName string, out *scene.Scene) error {
	path := filepath.Join(l.assetsDir, fileName)

	doc, err := qgltf.Open(path)
	if err != nil {
		core.LogError("failed to parse document %s: %s", path, err.Error())
		return err
	}

	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	s, err := l.loadScene(doc, name, filepath.Dir(path))
	if err != nil {
		core.LogError("failed to load scene %s: %s", path, err.Error())
		return err
	}

	*out = *s
	return nil
}

// loadScene translates the document in dependency order: samplers,
// images, textures, materials, meshes, cameras, nodes, then the scene
// trees. Each phase may reference entities only from earlier phases.
func (l *GLTFLoader) loadScene(doc *qgltf.Document, name, modelDir string) (*scene.Scene, error) {
	s := scene.New(name)

	defaultSampler, err := l.createDefaultSampler()
	if err != nil {
		return nil, err
	}

	samplers := make([]*scene.Sampler, len(doc.Samplers))
	for i, docSampler := range doc.Samplers {
		if samplers[i], err = l.parseSampler(docSampler); err != nil {
			return nil, err
		}
	}
	scene.SetComponents(s, samplers)
	scene.AddComponent(s, defaultSampler)

	images, err := l.loadImages(doc, modelDir)
	if err != nil {
		return nil, err
	}
	if err := l.uploadImages(images); err != nil {
		return nil, err
	}
	scene.SetComponents(s, images)

	textures := make([]*scene.Texture, len(doc.Textures))
	for i, docTexture := range doc.Textures {
		if textures[i], err = parseTexture(docTexture, images, samplers, defaultSampler); err != nil {
			return nil, err
		}
	}
	scene.SetComponents(s, textures)

	defaultMaterial := scene.NewMaterial("default_material")
	materials := make([]*scene.Material, len(doc.Materials))
	for i, docMaterial := range doc.Materials {
		if materials[i], err = parseMaterial(docMaterial, textures); err != nil {
			return nil, err
		}
	}
	scene.SetComponents(s, materials)
	scene.AddComponent(s, defaultMaterial)

	meshes := make([]*scene.Mesh, len(doc.Meshes))
	for i, docMesh := range doc.Meshes {
		mesh := scene.NewMesh(docMesh.Name)
		for _, docPrimitive := range docMesh.Primitives {
			submesh, err := l.parsePrimitive(doc, docPrimitive, materials, defaultMaterial)
			if err != nil {
				return nil, err
			}
			mesh.AddSubMesh(submesh)
			scene.AddComponent(s, submesh)
		}
		meshes[i] = mesh
	}
	scene.SetComponents(s, meshes)

	// Index-aligned with the document; unsupported camera kinds leave a
	// nil slot so later node references can still be resolved.
	cameras := make([]*scene.Camera, len(doc.Cameras))
	for i, docCamera := range doc.Cameras {
		cameras[i] = parseCamera(docCamera)
		if cameras[i] != nil {
			scene.AddComponent(s, cameras[i])
		}
	}

	nodes := make([]*scene.Node, len(doc.Nodes))
	for i, docNode := range doc.Nodes {
		node := parseNode(docNode)
		if docNode.Mesh != nil {
			meshIndex := int(*docNode.Mesh)
			if meshIndex < 0 || meshIndex >= len(meshes) {
				return nil, fmt.Errorf("node %s references mesh %d: %w", node.Name, meshIndex, ErrLookup)
			}
			node.SetMesh(meshes[meshIndex])
			meshes[meshIndex].AddNode(node)
		}
		if docNode.Camera != nil {
			cameraIndex := int(*docNode.Camera)
			if cameraIndex < 0 || cameraIndex >= len(cameras) {
				return nil, fmt.Errorf("node %s references camera %d: %w", node.Name, cameraIndex, ErrLookup)
			}
			if cameras[cameraIndex] != nil {
				node.SetCamera(cameras[cameraIndex])
				cameras[cameraIndex].SetNode(node)
			}
		}
		nodes[i] = node
	}
	s.SetNodes(nodes)

	for _, docScene := range doc.Scenes {
		root, err := l.assembleSceneTree(doc, docScene, nodes)
		if err != nil {
			return nil, err
		}
		s.AddNode(root)
		s.AddChild(root)
	}

	defaultCamera := createDefaultCamera()
	cameraNode := scene.NewNode("default_camera")
	cameraNode.SetCamera(defaultCamera)
	defaultCamera.SetNode(cameraNode)
	scene.AddComponent(s, defaultCamera)
	s.AddNode(cameraNode)
	s.AddChild(cameraNode)

	return s, nil
}

// traversal pairs a pending node index with the already-linked node that
// becomes its parent.
type traversal struct {
	parent    *scene.Node
	nodeIndex int
}

// assembleSceneTree links one document scene breadth-first under a fresh
// synthetic root named after it, turning a multi-rooted scene record into
// a single-rooted subtree.
func (l *GLTFLoader) assembleSceneTree(doc *qgltf.Document, docScene *qgltf.Scene, nodes []*scene.Node) (*scene.Node, error) {
	root := scene.NewNode(docScene.Name)

	queue := containers.NewRingQueue[traversal](len(doc.Nodes) + len(docScene.Nodes) + 1)
	for _, rootIndex := range docScene.Nodes {
		if err := queue.Enqueue(traversal{parent: root, nodeIndex: int(rootIndex)}); err != nil {
			return nil, fmt.Errorf("scene %s node graph is not a tree: %w", docScene.Name, err)
		}
	}

	for !queue.IsEmpty() {
		current, err := queue.Dequeue()
		if err != nil {
			return nil, err
		}
		if current.nodeIndex < 0 || current.nodeIndex >= len(nodes) {
			return nil, fmt.Errorf("scene %s references node %d: %w", docScene.Name, current.nodeIndex, ErrLookup)
		}

		node := nodes[current.nodeIndex]
		current.parent.AddChild(node)
		node.SetParent(current.parent)

		for _, childIndex := range doc.Nodes[current.nodeIndex].Children {
			if err := queue.Enqueue(traversal{parent: node, nodeIndex: int(childIndex)}); err != nil {
				return nil, fmt.Errorf("scene %s node graph is not a tree: %w", docScene.Name, err)
			}
		}
	}

	return root, nil
}

func (l *GLTFLoader) parseSampler(docSampler *qgltf.Sampler) (*scene.Sampler, error) {
	gpu, err := l.device.CreateSampler(renderer.SamplerDescriptor{
		MinFilter:    findMinFilter(docSampler.MinFilter),
		MagFilter:    findMagFilter(docSampler.MagFilter),
		MipmapMode:   findMipmapMode(docSampler.MinFilter),
		AddressModeU: findWrapMode(docSampler.WrapS),
		AddressModeV: findWrapMode(docSampler.WrapT),
		AddressModeW: vk.SamplerAddressModeRepeat,
	})
	if err != nil {
		return nil, err
	}
	return scene.NewSampler(docSampler.Name, gpu), nil
}

func (l *GLTFLoader) createDefaultSampler() (*scene.Sampler, error) {
	gpu, err := l.device.CreateSampler(renderer.SamplerDescriptor{
		MinFilter:    vk.FilterLinear,
		MagFilter:    vk.FilterLinear,
		MipmapMode:   vk.SamplerMipmapModeLinear,
		AddressModeU: vk.SamplerAddressModeRepeat,
		AddressModeV: vk.SamplerAddressModeRepeat,
		AddressModeW: vk.SamplerAddressModeRepeat,
	})
	if err != nil {
		return nil, err
	}
	return scene.NewSampler("default_sampler", gpu), nil
}

// parseTexture binds a texture to its source image and its sampler. A
// missing or out-of-range sampler reference degrades to the shared
// default sampler; a bad image reference fails the load.
func parseTexture(docTexture *qgltf.Texture, images []*scene.Image, samplers []*scene.Sampler, defaultSampler *scene.Sampler) (*scene.Texture, error) {
	texture := scene.NewTexture(docTexture.Name)

	if docTexture.Source == nil {
		return nil, fmt.Errorf("texture %s has no source image: %w", docTexture.Name, ErrLookup)
	}
	sourceIndex := int(*docTexture.Source)
	if sourceIndex < 0 || sourceIndex >= len(images) {
		return nil, fmt.Errorf("texture %s references image %d: %w", docTexture.Name, sourceIndex, ErrLookup)
	}
	texture.SetImage(images[sourceIndex])

	sampler := defaultSampler
	if docTexture.Sampler != nil {
		samplerIndex := int(*docTexture.Sampler)
		if samplerIndex >= 0 && samplerIndex < len(samplers) {
			sampler = samplers[samplerIndex]
		} else {
			core.LogWarn("texture %s references sampler %d which does not exist, using default", docTexture.Name, samplerIndex)
		}
	} else {
		core.LogWarn("texture %s has no sampler, using default", docTexture.Name)
	}
	texture.SetSampler(sampler)

	return texture, nil
}

func parseMaterial(docMaterial *qgltf.Material, textures []*scene.Texture) (*scene.Material, error) {
	material := scene.NewMaterial(docMaterial.Name)

	if pbr := docMaterial.PBRMetallicRoughness; pbr != nil {
		baseColor := pbr.BaseColorFactorOrDefault()
		material.BaseColorFactor = math.NewVec4(baseColor[0], baseColor[1], baseColor[2], baseColor[3])
		material.MetallicFactor = pbr.MetallicFactorOrDefault()
		material.RoughnessFactor = pbr.RoughnessFactorOrDefault()

		if pbr.BaseColorTexture != nil {
			if err := bindTexture(material, "base_color_texture", int(pbr.BaseColorTexture.Index), textures); err != nil {
				return nil, err
			}
		}
		if pbr.MetallicRoughnessTexture != nil {
			if err := bindTexture(material, "metallic_roughness_texture", int(pbr.MetallicRoughnessTexture.Index), textures); err != nil {
				return nil, err
			}
		}
	}

	material.Emissive = math.NewVec3(
		docMaterial.EmissiveFactor[0],
		docMaterial.EmissiveFactor[1],
		docMaterial.EmissiveFactor[2])
	material.AlphaCutoff = docMaterial.AlphaCutoffOrDefault()
	material.DoubleSided = docMaterial.DoubleSided

	switch docMaterial.AlphaMode {
	case qgltf.AlphaMask:
		material.AlphaMode = scene.AlphaModeMask
	case qgltf.AlphaBlend:
		material.AlphaMode = scene.AlphaModeBlend
	default:
		material.AlphaMode = scene.AlphaModeOpaque
	}

	if docMaterial.NormalTexture != nil && docMaterial.NormalTexture.Index != nil {
		if err := bindTexture(material, "normal_texture", int(*docMaterial.NormalTexture.Index), textures); err != nil {
			return nil, err
		}
	}
	if docMaterial.OcclusionTexture != nil && docMaterial.OcclusionTexture.Index != nil {
		if err := bindTexture(material, "occlusion_texture", int(*docMaterial.OcclusionTexture.Index), textures); err != nil {
			return nil, err
		}
	}
	if docMaterial.EmissiveTexture != nil {
		if err := bindTexture(material, "emissive_texture", int(docMaterial.EmissiveTexture.Index), textures); err != nil {
			return nil, err
		}
	}

	// Vendor extensions may carry texture references under keys outside
	// the recognized set. Any extras entry whose key contains "Texture"
	// and holds an index is bound under the snake_case form of its key.
	if extras, ok := docMaterial.Extras.(map[string]interface{}); ok {
		for key, value := range extras {
			if !strings.Contains(key, "Texture") {
				continue
			}
			index, ok := value.(float64)
			if !ok {
				continue
			}
			if err := bindTexture(material, toSnakeCase(key), int(index), textures); err != nil {
				return nil, err
			}
		}
	}

	return material, nil
}

func bindTexture(material *scene.Material, slot string, index int, textures []*scene.Texture) error {
	if index < 0 || index >= len(textures) {
		return fmt.Errorf("material %s references texture %d for slot %s: %w", material.Name, index, slot, ErrLookup)
	}
	material.Textures[slot] = textures[index]
	return nil
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parsePrimitive builds one submesh: a vertex buffer per attribute keyed
// by the lower-cased attribute name, an optional index buffer with 1-byte
// indices promoted to 2 bytes, and a material reference.
func (l *GLTFLoader) parsePrimitive(doc *qgltf.Document, docPrimitive *qgltf.Primitive, materials []*scene.Material, defaultMaterial *scene.Material) (*scene.SubMesh, error) {
	submesh := scene.NewSubMesh()

	for attributeName, accessorIndex := range docPrimitive.Attributes {
		data, stride, err := attributeData(doc, int(accessorIndex))
		if err != nil {
			return nil, err
		}
		accessor, err := lookupAccessor(doc, int(accessorIndex))
		if err != nil {
			return nil, err
		}

		buffer, err := l.device.CreateBuffer(uint64(len(data)), renderer.BufferUsageVertex)
		if err != nil {
			return nil, err
		}
		if err := buffer.Write(0, data); err != nil {
			return nil, err
		}

		name := strings.ToLower(attributeName)
		submesh.VertexBuffers[name] = buffer
		submesh.SetAttribute(name, scene.VertexAttribute{
			Format: attributeFormat(accessor.ComponentType, accessor.Type, accessor.Normalized),
			Stride: stride,
		})
		if name == "position" {
			submesh.VertexCount = uint32(accessor.Count)
		}
	}

	if docPrimitive.Indices != nil {
		data, _, err := attributeData(doc, int(*docPrimitive.Indices))
		if err != nil {
			return nil, err
		}
		accessor, err := lookupAccessor(doc, int(*docPrimitive.Indices))
		if err != nil {
			return nil, err
		}

		switch componentByteSize(accessor.ComponentType) {
		case 1:
			// No 8-bit hardware index type exists.
			data = convertData(data, 1, 2)
			submesh.IndexType = vk.IndexTypeUint16
		case 2:
			submesh.IndexType = vk.IndexTypeUint16
		case 4:
			submesh.IndexType = vk.IndexTypeUint32
		default:
			return nil, fmt.Errorf("index accessor %d has unsupported component type", int(*docPrimitive.Indices))
		}
		submesh.IndexCount = uint32(accessor.Count)

		buffer, err := l.device.CreateBuffer(uint64(len(data)), renderer.BufferUsageIndex)
		if err != nil {
			return nil, err
		}
		if err := buffer.Write(0, data); err != nil {
			return nil, err
		}
		submesh.IndexBuffer = buffer
	}

	material := defaultMaterial
	if docPrimitive.Material != nil {
		materialIndex := int(*docPrimitive.Material)
		if materialIndex < 0 || materialIndex >= len(materials) {
			return nil, fmt.Errorf("primitive references material %d: %w", materialIndex, ErrLookup)
		}
		material = materials[materialIndex]
	} else {
		core.LogWarn("primitive has no material, using default")
	}
	submesh.SetMaterial(material)

	return submesh, nil
}

// parseCamera translates one document camera. Kinds outside the supported
// set produce no entity, only a diagnostic.
func parseCamera(docCamera *qgltf.Camera) *scene.Camera {
	if docCamera.Perspective == nil {
		core.LogWarn("camera %s has an unsupported type, skipping", docCamera.Name)
		return nil
	}

	perspective := scene.PerspectiveCamera{
		AspectRatio: 1.77,
		FieldOfView: docCamera.Perspective.Yfov,
		NearPlane:   docCamera.Perspective.Znear,
		FarPlane:    1000,
	}
	if docCamera.Perspective.AspectRatio != nil {
		perspective.AspectRatio = *docCamera.Perspective.AspectRatio
	}
	if docCamera.Perspective.Zfar != nil {
		perspective.FarPlane = *docCamera.Perspective.Zfar
	}

	return scene.NewPerspectiveCamera(docCamera.Name, perspective)
}

func createDefaultCamera() *scene.Camera {
	return scene.NewPerspectiveCamera("default_camera", scene.PerspectiveCamera{
		AspectRatio: 1.77,
		FieldOfView: 1.0,
		NearPlane:   0.1,
		FarPlane:    1000,
	})
}

var (
	defaultTranslation = [3]float32{0, 0, 0}
	defaultRotation    = [4]float32{0, 0, 0, 1}
	defaultScale       = [3]float32{1, 1, 1}
	defaultMatrix      = [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
)

// parseNode copies whichever transform fields the document carries.
// Translation, rotation and scale are applied first; an explicit matrix
// is applied last and overrides the composed result.
func parseNode(docNode *qgltf.Node) *scene.Node {
	node := scene.NewNode(docNode.Name)

	if docNode.Translation != defaultTranslation {
		node.Transform.SetTranslation(math.NewVec3(
			docNode.Translation[0], docNode.Translation[1], docNode.Translation[2]))
	}
	if docNode.Rotation != defaultRotation {
		node.Transform.SetRotation(math.Quaternion{
			X: docNode.Rotation[0],
			Y: docNode.Rotation[1],
			Z: docNode.Rotation[2],
			W: docNode.Rotation[3],
		})
	}
	if docNode.Scale != defaultScale {
		node.Transform.SetScale(math.NewVec3(
			docNode.Scale[0], docNode.Scale[1], docNode.Scale[2]))
	}
	if docNode.Matrix != defaultMatrix {
		var m math.Mat4
		m.Data = docNode.Matrix
		node.Transform.SetMatrix(m)
	}

	return node
}
