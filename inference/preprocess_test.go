package inference

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestPreprocessChannelOrder(t *testing.T) {
	img := solid(8, 8, color.NRGBA{R: 255, G: 51, B: 0, A: 255})

	tests := []struct {
		name   string
		order  ChannelOrder
		planes [3]float32
	}{
		{name: "bgr", order: ChannelOrderBGR, planes: [3]float32{0, 0.2, 1}},
		{name: "default is bgr", order: "", planes: [3]float32{0, 0.2, 1}},
		{name: "rgb", order: ChannelOrderRGB, planes: [3]float32{1, 0.2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := Preprocess(img, 8, tt.order)
			require.NoError(t, err)
			require.Len(t, blob, 3*64)
			for p := 0; p < 3; p++ {
				assert.InDelta(t, tt.planes[p], blob[p*64], 1e-6)
				assert.InDelta(t, tt.planes[p], blob[p*64+63], 1e-6)
			}
		})
	}
}

func TestPreprocessStretchesToSquare(t *testing.T) {
	img := solid(40, 20, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	blob, err := Preprocess(img, 16, ChannelOrderRGB)
	require.NoError(t, err)
	require.Len(t, blob, 3*16*16)
	for _, v := range blob {
		assert.InDelta(t, 128.0/255.0, v, 1.0/255.0)
	}
}

func TestPreprocessNonZeroOrigin(t *testing.T) {
	img := solid(20, 20, color.NRGBA{R: 255, A: 255}).SubImage(image.Rect(10, 10, 20, 20))

	blob, err := Preprocess(img, 10, ChannelOrderRGB)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, blob[0], 1e-6)
	assert.InDelta(t, 0.0, blob[100], 1e-6)
}

func TestPreprocessErrors(t *testing.T) {
	img := solid(4, 4, color.NRGBA{A: 255})

	_, err := Preprocess(img, 0, ChannelOrderRGB)
	assert.Error(t, err)

	_, err = Preprocess(img, 4, ChannelOrder("yuv"))
	assert.ErrorContains(t, err, "unsupported channel order")

	err = PrepareInput(img, 4, ChannelOrderRGB, make([]float32, 10))
	assert.ErrorContains(t, err, "needs 48")
}
