package renderer

import (
	vk "github.com/goki/vulkan"
)

// BufferUsage tags what a device buffer is created for.
type BufferUsage int

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
	BufferUsageTransferSrc
)

// Buffer is a host-visible GPU buffer.
type Buffer interface {
	Write(offset uint64, data []byte) error
	Size() uint64
	Destroy()
}

// Image is a GPU-resident image.
type Image interface {
	Destroy()
}

// Sampler is a GPU sampler object.
type Sampler interface {
	Destroy()
}

type ImageDescriptor struct {
	Name      string
	Format    vk.Format
	Width     uint32
	Height    uint32
	Depth     uint32
	MipLevels uint32
}

type SamplerDescriptor struct {
	MinFilter    vk.Filter
	MagFilter    vk.Filter
	MipmapMode   vk.SamplerMipmapMode
	AddressModeU vk.SamplerAddressMode
	AddressModeV vk.SamplerAddressMode
	AddressModeW vk.SamplerAddressMode
}

// BufferImageCopy describes one staging-buffer region copied into one mip
// level of an image.
type BufferImageCopy struct {
	BufferOffset uint64
	MipLevel     uint32
	Extent       vk.Extent3D
}

// CommandRecorder records transfer work into a one-time-submit command
// buffer. Recording is single-threaded.
type CommandRecorder interface {
	// TransitionImageLayout records a barrier moving the whole image,
	// every mip level included, between layouts.
	TransitionImageLayout(image Image, oldLayout, newLayout vk.ImageLayout) error
	CopyBufferToImage(src Buffer, dst Image, regions []BufferImageCopy) error
}

// Device is the capability surface loaders need from a rendering backend.
type Device interface {
	CreateBuffer(size uint64, usage BufferUsage) (Buffer, error)
	CreateImage(desc ImageDescriptor) (Image, error)
	CreateSampler(desc SamplerDescriptor) (Sampler, error)
	// FormatSupported reports whether the device can sample the format
	// directly, block-compressed formats included.
	FormatSupported(format vk.Format) bool
	BeginOneTimeSubmit() (CommandRecorder, error)
	// SubmitAndWait submits the recording once on the graphics queue,
	// blocks until the fence signals, then releases the command buffer
	// and resets the pool.
	SubmitAndWait(recorder CommandRecorder) error
}
