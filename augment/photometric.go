package augment

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/convolution"
)

// PhotometricOp changes pixel values but never pixel positions, so boxes are
// never passed to it.
type PhotometricOp interface {
	Op
	Adjust(rng *rand.Rand, img image.Image) image.Image
}

// BrightnessContrast shifts brightness and contrast by random amounts in
// [-BrightnessLimit, BrightnessLimit] and [-ContrastLimit, ContrastLimit].
type BrightnessContrast struct {
	BrightnessLimit float64
	ContrastLimit   float64
}

// Name implements Op.
func (BrightnessContrast) Name() string { return "brightness_contrast" }

// Adjust implements PhotometricOp.
func (b BrightnessContrast) Adjust(rng *rand.Rand, img image.Image) image.Image {
	brightness := uniform(rng, -b.BrightnessLimit, b.BrightnessLimit)
	contrast := uniform(rng, -b.ContrastLimit, b.ContrastLimit)

	out := adjust.Brightness(img, brightness)
	return adjust.Contrast(out, contrast)
}

// MotionBlur convolves the image with a line kernel of random odd length in
// [3, MaxKernel] and random direction.
type MotionBlur struct {
	MaxKernel int
}

// Name implements Op.
func (MotionBlur) Name() string { return "motion_blur" }

// Adjust implements PhotometricOp.
func (m MotionBlur) Adjust(rng *rand.Rand, img image.Image) image.Image {
	maxKernel := max(3, m.MaxKernel)
	sizes := (maxKernel-3)/2 + 1
	size := 3 + 2*rng.IntN(sizes)
	angle := rng.Float64() * math.Pi

	kernel := motionKernel(size, angle)
	return convolution.Convolve(img, kernel.Normalized(), &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true})
}

// motionKernel rasterizes a line through the center of a size x size kernel.
func motionKernel(size int, angle float64) *convolution.Kernel {
	kernel := convolution.NewKernel(size, size)
	radius := size / 2
	sin, cos := math.Sincos(angle)
	for t := -radius; t <= radius; t++ {
		x := radius + int(math.Round(float64(t)*cos))
		y := radius + int(math.Round(float64(t)*sin))
		kernel.Matrix[y*size+x] = 1
	}
	return kernel
}

// GaussianNoise adds zero-mean per-channel Gaussian noise whose variance, in
// 8-bit intensity units, is drawn from [MinVar, MaxVar].
type GaussianNoise struct {
	MinVar float64
	MaxVar float64
}

// Name implements Op.
func (GaussianNoise) Name() string { return "gaussian_noise" }

// Adjust implements PhotometricOp.
func (g GaussianNoise) Adjust(rng *rand.Rand, img image.Image) image.Image {
	sigma := math.Sqrt(math.Max(0, uniform(rng, g.MinVar, g.MaxVar)))

	// Channels are premultiplied, so alpha is the ceiling.
	out := clone.AsRGBA(img)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(out.Pix[i+c]) + rng.NormFloat64()*sigma
			out.Pix[i+c] = uint8(math.Max(0, math.Min(float64(out.Pix[i+3]), math.Round(v))))
		}
	}
	return out
}
