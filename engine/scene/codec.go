package scene

import (
	"sync"

	vk "github.com/goki/vulkan"
)

// Codec software-decodes a block-compressed image into an uncompressed
// replacement when the device cannot sample its format directly.
type Codec interface {
	Decode(img *Image) (*Image, error)
}

var (
	codecsMu sync.RWMutex
	codecs   = make(map[vk.Format]Codec)
)

// RegisterCodec makes a decoder available for one compressed format.
// Registration typically happens from an init function, mirroring
// image.RegisterFormat.
func RegisterCodec(format vk.Format, codec Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	codecs[format] = codec
}

// CodecFor returns the decoder registered for the format, or nil.
func CodecFor(format vk.Format) Codec {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	return codecs[format]
}
