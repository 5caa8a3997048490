package scene

import (
	"github.com/google/uuid"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/renderer"
)

// VertexAttribute describes how one vertex buffer is laid out.
type VertexAttribute struct {
	Format vk.Format
	Stride uint32
}

/**
 * @brief One drawable primitive group: per-attribute vertex buffers, an
 * optional index buffer and exactly one material.
 */
type SubMesh struct {
	ID uuid.UUID

	VertexBuffers map[string]renderer.Buffer
	IndexBuffer   renderer.Buffer
	IndexType     vk.IndexType
	IndexCount    uint32
	VertexCount   uint32

	attributes map[string]VertexAttribute
	material   *Material
}

func NewSubMesh() *SubMesh {
	return &SubMesh{
		ID:            core.AcquireID(),
		VertexBuffers: make(map[string]renderer.Buffer),
		attributes:    make(map[string]VertexAttribute),
	}
}

func (sm *SubMesh) SetAttribute(name string, attribute VertexAttribute) {
	sm.attributes[name] = attribute
}

func (sm *SubMesh) Attribute(name string) (VertexAttribute, bool) {
	attribute, ok := sm.attributes[name]
	return attribute, ok
}

func (sm *SubMesh) SetMaterial(material *Material) {
	sm.material = material
}

func (sm *SubMesh) Material() *Material {
	return sm.material
}

/**
 * @brief A named container of submeshes. A mesh tracks every node that
 * references it, making the node attachment bidirectional.
 */
type Mesh struct {
	ID   uuid.UUID
	Name string

	submeshes []*SubMesh
	nodes     []*Node
}

func NewMesh(name string) *Mesh {
	return &Mesh{
		ID:   core.AcquireID(),
		Name: name,
	}
}

func (m *Mesh) AddSubMesh(submesh *SubMesh) {
	m.submeshes = append(m.submeshes, submesh)
}

func (m *Mesh) SubMeshes() []*SubMesh {
	return m.submeshes
}

func (m *Mesh) AddNode(node *Node) {
	m.nodes = append(m.nodes, node)
}

func (m *Mesh) Nodes() []*Node {
	return m.nodes
}
