package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/renderer"
)

/**
 * @brief A sampled 2D image with bound device-local memory and a view
 * covering the full mip chain.
 */
type VulkanImage struct {
	Handle    vk.Image
	Memory    vk.DeviceMemory
	View      vk.ImageView
	Width     uint32
	Height    uint32
	MipLevels uint32

	context *VulkanContext
}

func NewVulkanImage(context *VulkanContext, descriptor renderer.ImageDescriptor) (*VulkanImage, error) {
	image := &VulkanImage{
		Width:     descriptor.Width,
		Height:    descriptor.Height,
		MipLevels: descriptor.MipLevels,
		context:   context,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  descriptor.Width,
			Height: descriptor.Height,
			Depth:  descriptor.Depth,
		},
		MipLevels:     descriptor.MipLevels,
		ArrayLayers:   1,
		Format:        descriptor.Format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var handle vk.Image
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create image '%s'", descriptor.Name)
		core.LogError(err.Error())
		return nil, err
	}
	image.Handle = handle

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, image.Handle, &memReqs)
	memReqs.Deref()

	memoryIndex := context.FindMemoryIndex(memReqs.MemoryTypeBits, uint32(vk.MemoryPropertyDeviceLocalBit))
	if memoryIndex < 0 {
		err := fmt.Errorf("required memory type for image not found")
		core.LogError(err.Error())
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}

	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		err := fmt.Errorf("failed to allocate image memory")
		core.LogError(err.Error())
		return nil, err
	}
	image.Memory = memory

	if res := vk.BindImageMemory(context.Device.LogicalDevice, image.Handle, image.Memory, 0); res != vk.Success {
		err := fmt.Errorf("failed to bind image memory")
		core.LogError(err.Error())
		return nil, err
	}

	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   descriptor.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     descriptor.MipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view); res != vk.Success {
		err := fmt.Errorf("failed to create image view")
		core.LogError(err.Error())
		return nil, err
	}
	image.View = view

	return image, nil
}

var _ renderer.Image = (*VulkanImage)(nil)

func (i *VulkanImage) Destroy() {
	if i.View != nil {
		vk.DestroyImageView(i.context.Device.LogicalDevice, i.View, i.context.Allocator)
		i.View = nil
	}
	if i.Memory != nil {
		vk.FreeMemory(i.context.Device.LogicalDevice, i.Memory, i.context.Allocator)
		i.Memory = nil
	}
	if i.Handle != nil {
		vk.DestroyImage(i.context.Device.LogicalDevice, i.Handle, i.context.Allocator)
		i.Handle = nil
	}
}
