package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
)

const coverQuality = 90

// ImageService prepares cover art for embedding in saved tracks.
//
// Covers served by the metadata provider are often 640x640 JPEGs, but
// playlists may carry PNG mosaics; both are normalised to JPEG.
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// PrepareCover shrinks data to fit within maxSize x maxSize (when maxSize
// is positive) and re-encodes it as JPEG. The aspect ratio is preserved and
// smaller images keep their size. Data is returned untouched when it needs
// neither scaling nor conversion.
//
// Example:
//
//	// A 1500x1000 PNG becomes a 1000x667 JPEG
//	cover, err := svc.PrepareCover(ctx, data, 1000, true)
func (s *ImageService) PrepareCover(ctx context.Context, data []byte, maxSize int, toJPEG bool) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxSize)
	scale := width != bounds.Dx() || height != bounds.Dy()
	if !scale && (!toJPEG || format == "jpeg") {
		return data, nil
	}

	if scale {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}
	return encodeJPEG(img)
}

// ConvertToJPEG re-encodes an image as JPEG.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img)
}

// fitWithin returns the largest size with the aspect ratio of w x h that
// fits in a bound x bound box. A non-positive bound means no limit.
func fitWithin(w, h, bound int) (int, int) {
	if bound <= 0 || (w <= bound && h <= bound) {
		return w, h
	}
	if w >= h {
		return bound, h * bound / w
	}
	return w * bound / h, bound
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: coverQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
