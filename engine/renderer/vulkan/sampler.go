package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/renderer"
)

type VulkanSampler struct {
	Handle vk.Sampler

	context *VulkanContext
}

func NewVulkanSampler(context *VulkanContext, descriptor renderer.SamplerDescriptor) (*VulkanSampler, error) {
	samplerCreateInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MinFilter:    descriptor.MinFilter,
		MagFilter:    descriptor.MagFilter,
		MipmapMode:   descriptor.MipmapMode,
		AddressModeU: descriptor.AddressModeU,
		AddressModeV: descriptor.AddressModeV,
		AddressModeW: descriptor.AddressModeW,
		BorderColor:  vk.BorderColorFloatOpaqueWhite,
		MinLod:       0,
		MaxLod:       vk.LodClampNone,
	}

	var handle vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create sampler")
		core.LogError(err.Error())
		return nil, err
	}

	return &VulkanSampler{
		Handle:  handle,
		context: context,
	}, nil
}

var _ renderer.Sampler = (*VulkanSampler)(nil)

func (s *VulkanSampler) Destroy() {
	if s.Handle != nil {
		vk.DestroySampler(s.context.Device.LogicalDevice, s.Handle, s.context.Allocator)
		s.Handle = nil
	}
}
