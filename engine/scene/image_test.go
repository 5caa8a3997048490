package scene

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage("test", pngBytes(t, 8, 4))
	require.NoError(t, err)

	assert.Equal(t, vk.FormatR8g8b8a8Unorm, img.Format())
	require.Len(t, img.Mipmaps(), 1)
	assert.Equal(t, uint32(8), img.Mipmaps()[0].Extent.Width)
	assert.Equal(t, uint32(4), img.Mipmaps()[0].Extent.Height)
	assert.Equal(t, uint32(1), img.Mipmaps()[0].Extent.Depth)
	assert.Len(t, img.Data(), 8*4*4)
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := DecodeImage("garbage", []byte{0xde, 0xad, 0xbe, 0xef})
	assert.Error(t, err)
}

func TestLoadImagePNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 4, 4), 0o644))

	img, err := LoadImage("img", path)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, img.Format())
}

func astcBytes(blockW, blockH byte, width, height uint32) []byte {
	header := make([]byte, 16)
	binary.LittleEndian.PutUint32(header[0:4], astcMagic)
	header[4], header[5], header[6] = blockW, blockH, 1
	put24 := func(b []byte, v uint32) {
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
	}
	put24(header[7:10], width)
	put24(header[10:13], height)
	put24(header[13:16], 1)
	return append(header, make([]byte, 64)...)
}

func TestParseASTC(t *testing.T) {
	img, err := parseASTC("tex", astcBytes(6, 6, 128, 64))
	require.NoError(t, err)

	assert.Equal(t, vk.FormatAstc6x6UnormBlock, img.Format())
	require.Len(t, img.Mipmaps(), 1)
	assert.Equal(t, uint32(128), img.Mipmaps()[0].Extent.Width)
	assert.Equal(t, uint32(64), img.Mipmaps()[0].Extent.Height)
	assert.Len(t, img.Data(), 64)
}

func TestParseASTCRejectsBadInput(t *testing.T) {
	_, err := parseASTC("short", make([]byte, 8))
	assert.Error(t, err)

	bad := astcBytes(4, 4, 4, 4)
	binary.LittleEndian.PutUint32(bad[0:4], 0xdeadbeef)
	_, err = parseASTC("magic", bad)
	assert.Error(t, err)

	_, err = parseASTC("footprint", astcBytes(7, 7, 4, 4))
	assert.Error(t, err)
}

func TestGenerateMipmaps(t *testing.T) {
	img, err := DecodeImage("mips", pngBytes(t, 8, 4))
	require.NoError(t, err)

	img.GenerateMipmaps()

	// 8x4 -> 4x2 -> 2x1 -> 1x1
	require.Len(t, img.Mipmaps(), 4)
	expected := []vk.Extent3D{
		{Width: 8, Height: 4, Depth: 1},
		{Width: 4, Height: 2, Depth: 1},
		{Width: 2, Height: 1, Depth: 1},
		{Width: 1, Height: 1, Depth: 1},
	}
	var totalSize uint32
	for i, mipmap := range img.Mipmaps() {
		assert.Equal(t, uint32(i), mipmap.Level)
		assert.Equal(t, expected[i], mipmap.Extent)
		assert.Equal(t, totalSize, mipmap.Offset)
		totalSize += mipmap.Extent.Width * mipmap.Extent.Height * 4
	}
	assert.Len(t, img.Data(), int(totalSize))
}

func TestGenerateMipmapsSkipsCompressedPayloads(t *testing.T) {
	img, err := parseASTC("tex", astcBytes(4, 4, 8, 8))
	require.NoError(t, err)

	img.GenerateMipmaps()

	// Block-compressed payloads cannot be resampled; the image is untouched.
	assert.Len(t, img.Mipmaps(), 1)
}

func TestIsBlockCompressed(t *testing.T) {
	assert.True(t, IsBlockCompressed(vk.FormatBc1RgbUnormBlock))
	assert.True(t, IsBlockCompressed(vk.FormatEtc2R8g8b8UnormBlock))
	assert.True(t, IsBlockCompressed(vk.FormatAstc12x12SrgbBlock))
	assert.False(t, IsBlockCompressed(vk.FormatR8g8b8a8Unorm))
	assert.False(t, IsBlockCompressed(vk.FormatR32g32b32Sfloat))
}

type nopCodec struct{}

func (nopCodec) Decode(img *Image) (*Image, error) { return img, nil }

func TestCodecRegistry(t *testing.T) {
	assert.Nil(t, CodecFor(vk.FormatBc7UnormBlock))

	RegisterCodec(vk.FormatBc7UnormBlock, nopCodec{})
	assert.NotNil(t, CodecFor(vk.FormatBc7UnormBlock))
}
