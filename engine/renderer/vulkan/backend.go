package vulkan

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/renderer"
)

/**
 * @brief The Vulkan rendering backend. It owns the instance, the device
 * and the graphics command pool, and satisfies the device surface the
 * resource loaders are written against.
 */
type VulkanBackend struct {
	context *VulkanContext
}

func New() *VulkanBackend {
	return &VulkanBackend{
		context: &VulkanContext{
			Device: &VulkanDevice{
				GraphicsQueueIndex: -1,
			},
		},
	}
}

func (b *VulkanBackend) Initialize(appName string, requiredExtensions []string) error {
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize the Vulkan loader")
		return err
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 2, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Helios Engine"),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
	}

	extensions := VulkanSafeStrings(requiredExtensions)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       0,
		PpEnabledLayerNames:     nil,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, b.context.Allocator, &instance); res != vk.Success {
		err := fmt.Errorf("failed to create Vulkan instance")
		core.LogError(err.Error())
		return err
	}
	b.context.Instance = instance

	if err := vk.InitInstance(instance); err != nil {
		core.LogError("failed to load instance-level procedures")
		return err
	}

	if err := DeviceCreate(b.context); err != nil {
		return err
	}

	core.LogInfo("Vulkan backend initialized successfully.")
	return nil
}

func (b *VulkanBackend) Shutdown() {
	if b.context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(b.context.Device.LogicalDevice)
		DeviceDestroy(b.context)
	}
	if b.context.Instance != nil {
		vk.DestroyInstance(b.context.Instance, b.context.Allocator)
		b.context.Instance = nil
	}
}

var _ renderer.Device = (*VulkanBackend)(nil)

func (b *VulkanBackend) CreateBuffer(size uint64, usage renderer.BufferUsage) (renderer.Buffer, error) {
	var vkUsage vk.BufferUsageFlagBits
	switch usage {
	case renderer.BufferUsageVertex:
		vkUsage = vk.BufferUsageVertexBufferBit
	case renderer.BufferUsageIndex:
		vkUsage = vk.BufferUsageIndexBufferBit
	case renderer.BufferUsageTransferSrc:
		vkUsage = vk.BufferUsageTransferSrcBit
	default:
		return nil, fmt.Errorf("unrecognized buffer usage %d", usage)
	}
	return NewVulkanBuffer(b.context, size, vkUsage)
}

func (b *VulkanBackend) CreateImage(descriptor renderer.ImageDescriptor) (renderer.Image, error) {
	return NewVulkanImage(b.context, descriptor)
}

func (b *VulkanBackend) CreateSampler(descriptor renderer.SamplerDescriptor) (renderer.Sampler, error) {
	return NewVulkanSampler(b.context, descriptor)
}

// FormatSupported gates block-compressed formats on the matching device
// feature; everything else defers to the optimal-tiling format properties.
func (b *VulkanBackend) FormatSupported(format vk.Format) bool {
	switch {
	case format >= vk.FormatBc1RgbUnormBlock && format <= vk.FormatBc7SrgbBlock:
		if b.context.Device.Features.TextureCompressionBC != vk.True {
			return false
		}
	case format >= vk.FormatEtc2R8g8b8UnormBlock && format <= vk.FormatEacR11g11SnormBlock:
		if b.context.Device.Features.TextureCompressionETC2 != vk.True {
			return false
		}
	case format >= vk.FormatAstc4x4UnormBlock && format <= vk.FormatAstc12x12SrgbBlock:
		if b.context.Device.Features.TextureCompressionASTC_LDR != vk.True {
			return false
		}
	}

	var formatProperties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(b.context.Device.PhysicalDevice, format, &formatProperties)
	formatProperties.Deref()
	return formatProperties.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit) != 0
}

func (b *VulkanBackend) BeginOneTimeSubmit() (renderer.CommandRecorder, error) {
	commandBuffer, err := NewVulkanCommandBuffer(b.context, b.context.Device.GraphicsCommandPool, true)
	if err != nil {
		return nil, err
	}
	if err := commandBuffer.Begin(true); err != nil {
		return nil, err
	}
	return commandBuffer, nil
}

func (b *VulkanBackend) SubmitAndWait(recorder renderer.CommandRecorder) error {
	commandBuffer, ok := recorder.(*VulkanCommandBuffer)
	if !ok {
		return fmt.Errorf("recorder was not created by this backend")
	}

	if err := commandBuffer.End(); err != nil {
		return err
	}

	fence, err := NewFence(b.context, false)
	if err != nil {
		return err
	}
	defer fence.FenceDestroy(b.context)

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{commandBuffer.Handle},
	}

	if res := vk.QueueSubmit(b.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle); res != vk.Success {
		err := fmt.Errorf("failed submit info to queue")
		core.LogError(err.Error())
		return err
	}
	commandBuffer.UpdateSubmitted()

	if !fence.FenceWait(b.context, vk.MaxUint64) {
		return fmt.Errorf("fence wait failed for transfer submission")
	}

	commandBuffer.Free(b.context, b.context.Device.GraphicsCommandPool)

	if res := vk.ResetCommandPool(b.context.Device.LogicalDevice, b.context.Device.GraphicsCommandPool, 0); res != vk.Success {
		return fmt.Errorf("failed to reset the graphics command pool")
	}
	return nil
}
