package scene

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/math"
)

/**
 * @brief The local transform of a node. Translation, rotation and scale
 * are applied in that order; an explicit matrix, when set, is applied
 * last and therefore replaces the composed result.
 */
type Transform struct {
	Translation math.Vec3
	Rotation    math.Quaternion
	Scale       math.Vec3

	matrix    math.Mat4
	hasMatrix bool
}

func NewTransform() Transform {
	return Transform{
		Rotation: math.NewQuatIdentity(),
		Scale:    math.NewVec3One(),
	}
}

func (t *Transform) SetTranslation(translation math.Vec3) {
	t.Translation = translation
}

func (t *Transform) SetRotation(rotation math.Quaternion) {
	t.Rotation = rotation
}

func (t *Transform) SetScale(scale math.Vec3) {
	t.Scale = scale
}

// SetMatrix installs an explicit local matrix that overrides the TRS fields.
func (t *Transform) SetMatrix(matrix math.Mat4) {
	t.matrix = matrix
	t.hasMatrix = true
}

func (t *Transform) HasMatrix() bool {
	return t.hasMatrix
}

// Local returns the node-local transform matrix. Row-vector convention:
// scale first, so the translation row stays unscaled.
func (t *Transform) Local() math.Mat4 {
	if t.hasMatrix {
		return t.matrix
	}
	return math.NewMat4Scale(t.Scale).
		Mul(t.Rotation.ToMat4().
			Mul(math.NewMat4Translation(t.Translation)))
}

/**
 * @brief A node of the scene tree. A node has at most one parent, an
 * ordered list of children and one slot per attachable component type.
 */
type Node struct {
	ID        uuid.UUID
	Name      string
	Transform Transform

	parent   *Node
	children []*Node

	mesh   *Mesh
	camera *Camera
}

func NewNode(name string) *Node {
	return &Node{
		ID:        core.AcquireID(),
		Name:      name,
		Transform: NewTransform(),
	}
}

func (n *Node) SetParent(parent *Node) {
	n.parent = parent
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) AddChild(child *Node) {
	n.children = append(n.children, child)
}

func (n *Node) Children() []*Node {
	return n.children
}

// SetMesh fills the node's mesh slot. The reverse reference is tracked by
// the mesh itself, see Mesh.AddNode.
func (n *Node) SetMesh(mesh *Mesh) {
	n.mesh = mesh
}

func (n *Node) Mesh() *Mesh {
	return n.mesh
}

func (n *Node) SetCamera(camera *Camera) {
	n.camera = camera
}

func (n *Node) Camera() *Camera {
	return n.camera
}
