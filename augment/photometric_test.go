package augment

import (
	"image"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhotometricOpsKeepGeometry(t *testing.T) {
	img := blockImage(40, 30, image.Rect(10, 10, 20, 20))
	ops := []PhotometricOp{
		BrightnessContrast{BrightnessLimit: 0.2, ContrastLimit: 0.2},
		MotionBlur{MaxKernel: 7},
		GaussianNoise{MinVar: 10, MaxVar: 50},
	}

	for _, op := range ops {
		t.Run(op.Name(), func(t *testing.T) {
			out := op.Adjust(rand.New(rand.NewPCG(5, 6)), img)
			assert.Equal(t, 40, out.Bounds().Dx())
			assert.Equal(t, 30, out.Bounds().Dy())
		})
	}
}

func TestGaussianNoiseSeeded(t *testing.T) {
	img := blockImage(16, 16, image.Rect(4, 4, 8, 8))
	op := GaussianNoise{MinVar: 20, MaxVar: 20}

	a := op.Adjust(rand.New(rand.NewPCG(1, 1)), img).(*image.RGBA)
	b := op.Adjust(rand.New(rand.NewPCG(1, 1)), img).(*image.RGBA)
	c := op.Adjust(rand.New(rand.NewPCG(2, 1)), img).(*image.RGBA)

	assert.Equal(t, a.Pix, b.Pix, "same seed, same noise")
	assert.NotEqual(t, a.Pix, c.Pix)
}

func TestMotionKernel(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		angle float64
		ones  []int
	}{
		{name: "horizontal", size: 3, angle: 0, ones: []int{3, 4, 5}},
		{name: "vertical", size: 5, angle: 1.5707963267948966, ones: []int{2, 7, 12, 17, 22}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := motionKernel(tt.size, tt.angle)
			var ones []int
			for i, v := range k.Matrix {
				if v == 1 {
					ones = append(ones, i)
				}
			}
			assert.Equal(t, tt.ones, ones)
		})
	}
}
