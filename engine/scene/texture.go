package scene

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/helios/engine/core"
)

/**
 * @brief A texture binds one image to one sampler.
 */
type Texture struct {
	ID   uuid.UUID
	Name string

	image   *Image
	sampler *Sampler
}

func NewTexture(name string) *Texture {
	return &Texture{
		ID:   core.AcquireID(),
		Name: name,
	}
}

func (t *Texture) SetImage(image *Image) {
	t.image = image
}

func (t *Texture) Image() *Image {
	return t.image
}

func (t *Texture) SetSampler(sampler *Sampler) {
	t.sampler = sampler
}

func (t *Texture) Sampler() *Sampler {
	return t.sampler
}
