package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestImage() image.Image {
	// A 100x80 gradient so resampling has something to interpolate.
	img := image.NewNRGBA(image.Rect(0, 0, 100, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 2), G: uint8(y * 3), B: 128, A: 255})
		}
	}
	return img
}

func TestResizeExact(t *testing.T) {
	tests := []struct {
		name       string
		targetW    int
		targetH    int
		shouldFail bool
	}{
		{name: "Downscale non uniform", targetW: 64, targetH: 64},
		{name: "Upscale", targetW: 640, targetH: 640},
		{name: "Same size", targetW: 100, targetH: 80},
		{name: "Zero dimensions", targetW: 0, targetH: 0, shouldFail: true},
		{name: "Negative dimensions", targetW: -10, targetH: 50, shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ResizeExact(getTestImage(), tt.targetW, tt.targetH)
			if tt.shouldFail {
				assert.Error(t, err)
				assert.Nil(t, img)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.targetW, img.Bounds().Dx())
			assert.Equal(t, tt.targetH, img.Bounds().Dy())
		})
	}
}

func TestResizeExactIdempotent(t *testing.T) {
	once, err := ResizeExact(getTestImage(), 64, 64)
	require.NoError(t, err)

	twice, err := ResizeExact(once, 64, 64)
	require.NoError(t, err)

	assert.Equal(t, once.Rect, twice.Rect)
	assert.Equal(t, once.Pix, twice.Pix, "resizing twice must equal resizing once")
	assert.NotSame(t, once, twice, "caller gets a new image")
}

func TestResizeExactNonZeroOrigin(t *testing.T) {
	src := getTestImage().(*image.NRGBA).SubImage(image.Rect(10, 10, 60, 40))

	out, err := ResizeExact(src, 50, 30)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 30), out.Bounds())
}
