package scene

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/renderer"
)

/**
 * @brief A sampler component owning its device sampler object.
 */
type Sampler struct {
	ID   uuid.UUID
	Name string

	gpu renderer.Sampler
}

func NewSampler(name string, gpu renderer.Sampler) *Sampler {
	return &Sampler{
		ID:   core.AcquireID(),
		Name: name,
		gpu:  gpu,
	}
}

func (s *Sampler) GPUSampler() renderer.Sampler {
	return s.gpu
}
