package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/renderer"
)

/**
 * @brief A host-visible buffer with bound device memory. Used both for
 * staging uploads and as the backing store for vertex and index data.
 */
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Usage  vk.BufferUsageFlagBits
	// Total size in bytes.
	TotalSize uint64

	context *VulkanContext
}

func NewVulkanBuffer(context *VulkanContext, size uint64, usage vk.BufferUsageFlagBits) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		TotalSize: size,
		Usage:     usage,
		context:   context,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create buffer")
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Handle = handle

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &memReqs)
	memReqs.Deref()

	memoryIndex := context.FindMemoryIndex(memReqs.MemoryTypeBits,
		uint32(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if memoryIndex < 0 {
		err := fmt.Errorf("required memory type for buffer not found")
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
		err := fmt.Errorf("failed to allocate buffer memory")
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		err := fmt.Errorf("failed to bind buffer memory")
		core.LogError(err.Error())
		return nil, err
	}

	return buffer, nil
}

var _ renderer.Buffer = (*VulkanBuffer)(nil)

func (b *VulkanBuffer) Write(offset uint64, data []byte) error {
	var pData unsafe.Pointer
	if res := vk.MapMemory(b.context.Device.LogicalDevice, b.Memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &pData); res != vk.Success {
		err := fmt.Errorf("failed to map buffer memory")
		core.LogError(err.Error())
		return err
	}
	vk.Memcopy(pData, data)
	vk.UnmapMemory(b.context.Device.LogicalDevice, b.Memory)
	return nil
}

func (b *VulkanBuffer) Size() uint64 {
	return b.TotalSize
}

func (b *VulkanBuffer) Destroy() {
	if b.Memory != nil {
		vk.FreeMemory(b.context.Device.LogicalDevice, b.Memory, b.context.Allocator)
		b.Memory = nil
	}
	if b.Handle != nil {
		vk.DestroyBuffer(b.context.Device.LogicalDevice, b.Handle, b.context.Allocator)
		b.Handle = nil
	}
	b.TotalSize = 0
}
