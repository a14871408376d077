package images

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// ResizeExact resizes img to exactly width x height. The aspect ratio is not
// preserved, which matches the uniform resize the detector was trained with.
//
// Resizing an image that already has the target size returns a pixel-identical
// copy, so applying ResizeExact twice with the same size is the same as
// applying it once.
//
// Arguments:
//   - img: The source image.
//   - width: The target width in pixels.
//   - height: The target height in pixels.
//
// Returns:
//   - *image.RGBA: The resized image.
//   - error: An error if the target dimensions are not positive.
func ResizeExact(img image.Image, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid dimensions: width=%d, height=%d", width, height)
	}

	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return ToRGBA(img), nil
	}

	resized := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	return ToRGBA(resized), nil
}

// ToRGBA copies img into a new *image.RGBA anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}
