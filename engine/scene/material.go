package scene

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/math"
)

// AlphaMode is the closed set of material transparency modes.
type AlphaMode int

const (
	AlphaModeOpaque AlphaMode = iota
	AlphaModeMask
	AlphaModeBlend
)

/**
 * @brief A metallic-roughness material. Texture slots are keyed by their
 * snake_case document property name (base_color_texture, normal_texture,
 * ...), vendor-extension texture keys included.
 */
type Material struct {
	ID   uuid.UUID
	Name string

	BaseColorFactor math.Vec4
	MetallicFactor  float32
	RoughnessFactor float32
	Emissive        math.Vec3
	AlphaCutoff     float32
	AlphaMode       AlphaMode
	DoubleSided     bool

	Textures map[string]*Texture
}

func NewMaterial(name string) *Material {
	return &Material{
		ID:       core.AcquireID(),
		Name:     name,
		Textures: make(map[string]*Texture),
	}
}
