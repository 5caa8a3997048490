package scene

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	vk "github.com/goki/vulkan"
	"golang.org/x/image/draw"

	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/math"
	"github.com/spaghettifunk/helios/engine/renderer"
)

// Mipmap locates one mip level inside an image payload.
type Mipmap struct {
	Level  uint32
	Offset uint32
	Extent vk.Extent3D
}

/**
 * @brief A CPU-side image payload plus, once created, the device image it
 * will be uploaded into. The payload holds every mip level back to back;
 * the mipmap descriptors index into it.
 */
type Image struct {
	ID   uuid.UUID
	Name string

	data    []byte
	format  vk.Format
	mipmaps []Mipmap

	gpu renderer.Image
}

func NewImage(name string, data []byte, format vk.Format, mipmaps []Mipmap) *Image {
	return &Image{
		ID:      core.AcquireID(),
		Name:    name,
		data:    data,
		format:  format,
		mipmaps: mipmaps,
	}
}

func (i *Image) Data() []byte {
	return i.data
}

func (i *Image) Format() vk.Format {
	return i.format
}

func (i *Image) Mipmaps() []Mipmap {
	return i.mipmaps
}

func (i *Image) GPUImage() renderer.Image {
	return i.gpu
}

// LoadImage decodes an image file into CPU memory. PNG and JPEG decode
// to RGBA8; .astc files keep their block-compressed payload.
func LoadImage(name, path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".astc":
		return parseASTC(name, data)
	default:
		return DecodeImage(name, data)
	}
}

// DecodeImage decodes PNG or JPEG bytes into a single-mip RGBA8 image.
func DecodeImage(name string, data []byte) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}

	bounds := src.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Copy(rgba, image.Point{}, src, bounds, draw.Src, nil)

	mipmap := Mipmap{
		Level:  0,
		Offset: 0,
		Extent: vk.Extent3D{
			Width:  uint32(bounds.Dx()),
			Height: uint32(bounds.Dy()),
			Depth:  1,
		},
	}
	return NewImage(name, rgba.Pix, vk.FormatR8g8b8a8Unorm, []Mipmap{mipmap}), nil
}

const astcMagic uint32 = 0x5CA1AB13

var astcFormats = map[[2]uint8]vk.Format{
	{4, 4}:   vk.FormatAstc4x4UnormBlock,
	{5, 4}:   vk.FormatAstc5x4UnormBlock,
	{5, 5}:   vk.FormatAstc5x5UnormBlock,
	{6, 5}:   vk.FormatAstc6x5UnormBlock,
	{6, 6}:   vk.FormatAstc6x6UnormBlock,
	{8, 5}:   vk.FormatAstc8x5UnormBlock,
	{8, 6}:   vk.FormatAstc8x6UnormBlock,
	{8, 8}:   vk.FormatAstc8x8UnormBlock,
	{10, 5}:  vk.FormatAstc10x5UnormBlock,
	{10, 6}:  vk.FormatAstc10x6UnormBlock,
	{10, 8}:  vk.FormatAstc10x8UnormBlock,
	{10, 10}: vk.FormatAstc10x10UnormBlock,
	{12, 10}: vk.FormatAstc12x10UnormBlock,
	{12, 12}: vk.FormatAstc12x12UnormBlock,
}

// parseASTC reads the 16-byte .astc container header: magic, block
// footprint, then width/height/depth as 24-bit little-endian values.
func parseASTC(name string, data []byte) (*Image, error) {
	if len(data) < 16 {
		return nil, fmt.Errorf("astc image %s: truncated header", name)
	}
	if binary.LittleEndian.Uint32(data[0:4]) != astcMagic {
		return nil, fmt.Errorf("astc image %s: bad magic", name)
	}

	format, ok := astcFormats[[2]uint8{data[4], data[5]}]
	if !ok {
		return nil, fmt.Errorf("astc image %s: unsupported block footprint %dx%d", name, data[4], data[5])
	}

	dim := func(b []byte) uint32 {
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
	}

	mipmap := Mipmap{
		Level:  0,
		Offset: 0,
		Extent: vk.Extent3D{
			Width:  dim(data[7:10]),
			Height: dim(data[10:13]),
			Depth:  math.Max(dim(data[13:16]), 1),
		},
	}
	return NewImage(name, data[16:], format, []Mipmap{mipmap}), nil
}

// IsBlockCompressed reports whether sampling the format needs hardware
// block-decompression support. The BC, ETC2/EAC and ASTC ranges are
// contiguous in the format enumeration.
func IsBlockCompressed(format vk.Format) bool {
	return format >= vk.FormatBc1RgbUnormBlock && format <= vk.FormatAstc12x12SrgbBlock
}

// GenerateMipmaps rebuilds the full mip chain from level 0, halving each
// extent down to 1x1. Only valid for RGBA8 payloads.
func (i *Image) GenerateMipmaps() {
	if i.format != vk.FormatR8g8b8a8Unorm || len(i.mipmaps) == 0 {
		core.LogWarn("cannot generate mipmaps for image %s: payload is not RGBA8", i.Name)
		return
	}

	base := i.mipmaps[0].Extent
	level := image.NewRGBA(image.Rect(0, 0, int(base.Width), int(base.Height)))
	copy(level.Pix, i.data[:len(level.Pix)])

	data := make([]byte, 0, len(level.Pix)*2)
	data = append(data, level.Pix...)
	mipmaps := []Mipmap{{Level: 0, Offset: 0, Extent: base}}

	width, height := base.Width, base.Height
	for width > 1 || height > 1 {
		width = math.Max(width/2, 1)
		height = math.Max(height/2, 1)

		next := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
		draw.ApproxBiLinear.Scale(next, next.Bounds(), level, level.Bounds(), draw.Src, nil)

		mipmaps = append(mipmaps, Mipmap{
			Level:  uint32(len(mipmaps)),
			Offset: uint32(len(data)),
			Extent: vk.Extent3D{Width: width, Height: height, Depth: 1},
		})
		data = append(data, next.Pix...)
		level = next
	}

	i.data = data
	i.mipmaps = mipmaps
}

// CreateGPUImage allocates the device image this payload uploads into.
func (i *Image) CreateGPUImage(device renderer.Device) error {
	if len(i.mipmaps) == 0 {
		return fmt.Errorf("image %s has no mip levels", i.Name)
	}

	gpu, err := device.CreateImage(renderer.ImageDescriptor{
		Name:      i.Name,
		Format:    i.format,
		Width:     i.mipmaps[0].Extent.Width,
		Height:    i.mipmaps[0].Extent.Height,
		Depth:     i.mipmaps[0].Extent.Depth,
		MipLevels: uint32(len(i.mipmaps)),
	})
	if err != nil {
		return err
	}
	i.gpu = gpu
	return nil
}
