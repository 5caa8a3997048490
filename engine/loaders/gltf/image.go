package gltf

import (
	"fmt"
	"path/filepath"

	vk "github.com/goki/vulkan"
	qgltf "github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/renderer"
	"github.com/spaghettifunk/helios/engine/scene"
	"github.com/spaghettifunk/helios/engine/systems"
)

// loadImages decodes every document image on the worker pool, one job per
// image writing its own output slot, then joins. After the barrier any
// image whose compressed format the device cannot sample is substituted
// by a software-decoded copy, mip chains are completed, and device images
// are allocated. Runs strictly before the upload batch.
func (l *GLTFLoader) loadImages(doc *qgltf.Document, modelDir string) ([]*scene.Image, error) {
	images := make([]*scene.Image, len(doc.Images))
	if len(doc.Images) == 0 {
		return images, nil
	}

	pool, err := systems.NewJobSystem(l.workers, len(doc.Images))
	if err != nil {
		return nil, err
	}

	handles := make([]*systems.JobHandle, len(doc.Images))
	for i, docImage := range doc.Images {
		i, docImage := i, docImage
		handles[i] = pool.Submit(func() error {
			img, err := parseImage(doc, docImage, modelDir)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}

	var firstErr error
	for _, handle := range handles {
		if err := handle.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	pool.Shutdown()
	if firstErr != nil {
		return nil, firstErr
	}

	for i, img := range images {
		if scene.IsBlockCompressed(img.Format()) && !l.device.FormatSupported(img.Format()) {
			core.LogWarn("device cannot sample format of image %s, decoding in software", img.Name)
			codec := scene.CodecFor(img.Format())
			if codec == nil {
				return nil, fmt.Errorf("device cannot sample format of image %s and no codec is registered for it", img.Name)
			}
			decoded, err := codec.Decode(img)
			if err != nil {
				return nil, fmt.Errorf("software decode of image %s failed: %w", img.Name, err)
			}
			decoded.GenerateMipmaps()
			images[i] = decoded
			img = decoded
		}
		if err := img.CreateGPUImage(l.device); err != nil {
			return nil, err
		}
	}

	return images, nil
}

// parseImage decodes one document image: either embedded bytes addressed
// through a buffer view, or a side file resolved against the document's
// directory.
func parseImage(doc *qgltf.Document, docImage *qgltf.Image, modelDir string) (*scene.Image, error) {
	if docImage.BufferView != nil {
		viewIndex := int(*docImage.BufferView)
		if viewIndex < 0 || viewIndex >= len(doc.BufferViews) {
			return nil, fmt.Errorf("image buffer view %d: %w", viewIndex, ErrLookup)
		}
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[viewIndex])
		if err != nil {
			return nil, err
		}
		return scene.DecodeImage(docImage.Name, data)
	}

	if docImage.URI == "" {
		return nil, fmt.Errorf("image %s has neither embedded data nor a URI", docImage.Name)
	}
	return scene.LoadImage(docImage.Name, filepath.Join(modelDir, docImage.URI))
}

// uploadImages copies every image payload to the GPU in one batch: a
// single one-time-submit recording, one transient staging buffer per
// image, one submission, one blocking wait. Staging memory is released
// only after the fence signals. Peak transient memory is the sum of all
// payloads; load time, not memory, dominates a one-shot scene load.
func (l *GLTFLoader) uploadImages(images []*scene.Image) error {
	if len(images) == 0 {
		return nil
	}

	recorder, err := l.device.BeginOneTimeSubmit()
	if err != nil {
		return err
	}

	stagingBuffers := make([]renderer.Buffer, 0, len(images))
	defer func() {
		for _, staging := range stagingBuffers {
			staging.Destroy()
		}
	}()

	for _, img := range images {
		staging, err := l.device.CreateBuffer(uint64(len(img.Data())), renderer.BufferUsageTransferSrc)
		if err != nil {
			return err
		}
		stagingBuffers = append(stagingBuffers, staging)

		if err := staging.Write(0, img.Data()); err != nil {
			return err
		}
		if err := uploadImage(recorder, staging, img); err != nil {
			return err
		}
	}

	return l.device.SubmitAndWait(recorder)
}

// uploadImage records the upload protocol for one image: transition to
// transfer destination, one region copy per mip level, transition to
// shader read.
func uploadImage(recorder renderer.CommandRecorder, staging renderer.Buffer, img *scene.Image) error {
	if err := recorder.TransitionImageLayout(img.GPUImage(),
		vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		return err
	}

	regions := make([]renderer.BufferImageCopy, len(img.Mipmaps()))
	for i, mipmap := range img.Mipmaps() {
		regions[i] = renderer.BufferImageCopy{
			BufferOffset: uint64(mipmap.Offset),
			MipLevel:     mipmap.Level,
			Extent:       mipmap.Extent,
		}
	}
	if err := recorder.CopyBufferToImage(staging, img.GPUImage(), regions); err != nil {
		return err
	}

	return recorder.TransitionImageLayout(img.GPUImage(),
		vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
}
