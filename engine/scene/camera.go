package scene

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/math"
)

// CameraKind enumerates the closed set of supported camera variants.
type CameraKind int

const (
	CameraKindPerspective CameraKind = iota
)

type PerspectiveCamera struct {
	AspectRatio float32
	// Vertical field of view, in radians.
	FieldOfView float32
	NearPlane   float32
	FarPlane    float32
}

/**
 * @brief A camera component, a tagged variant over CameraKind. Only the
 * variant matching Kind carries meaningful data.
 */
type Camera struct {
	ID   uuid.UUID
	Name string
	Kind CameraKind

	Perspective PerspectiveCamera

	node *Node
}

func NewPerspectiveCamera(name string, perspective PerspectiveCamera) *Camera {
	return &Camera{
		ID:          core.AcquireID(),
		Name:        name,
		Kind:        CameraKindPerspective,
		Perspective: perspective,
	}
}

// SetNode records which node the camera is attached to.
func (c *Camera) SetNode(node *Node) {
	c.node = node
}

func (c *Camera) Node() *Node {
	return c.node
}

// Projection returns the camera's projection matrix.
func (c *Camera) Projection() math.Mat4 {
	switch c.Kind {
	case CameraKindPerspective:
		p := c.Perspective
		return math.NewMat4Perspective(p.FieldOfView, p.AspectRatio, p.NearPlane, p.FarPlane)
	default:
		return math.NewMat4Identity()
	}
}
