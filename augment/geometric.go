package augment

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"github.com/nvr-ai/oceanyolo/images"
	"github.com/pkg/errors"
)

// Op is an augmentation operation.
type Op interface {
	// Name identifies the operation in logs.
	Name() string
}

// GeometricOp moves pixels. It returns the transformed image and the affine
// map from source pixel coordinates to output pixel coordinates.
type GeometricOp interface {
	Op
	Transform(rng *rand.Rand, img image.Image) (image.Image, Affine, error)
}

// Rotate rotates the image counter-clockwise by a random angle in
// [-Limit, Limit] degrees about its center. The canvas keeps the source size;
// uncovered corners are painted with Fill.
type Rotate struct {
	Limit float64
	Fill  color.Color
}

// Name implements Op.
func (r Rotate) Name() string { return "rotate" }

// Transform implements GeometricOp.
func (r Rotate) Transform(rng *rand.Rand, img image.Image) (image.Image, Affine, error) {
	return rotate(img, uniform(rng, -r.Limit, r.Limit), r.Fill)
}

func rotate(img image.Image, angle float64, fill color.Color) (image.Image, Affine, error) {
	if fill == nil {
		fill = color.Black
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	rotated := imaging.Rotate(img, angle, fill)
	out := imaging.CropCenter(rotated, w, h)

	// Counter-clockwise on screen, where y grows downwards.
	sin, cos := math.Sincos(angle * math.Pi / 180)
	cx, cy := float64(w)/2, float64(h)/2
	m := Affine{
		A: cos, B: sin, C: cx - cx*cos - cy*sin,
		D: -sin, E: cos, F: cy + cx*sin - cy*cos,
	}
	return out, m, nil
}

// HorizontalFlip mirrors the image left to right.
type HorizontalFlip struct{}

// Name implements Op.
func (HorizontalFlip) Name() string { return "horizontal_flip" }

// Transform implements GeometricOp.
func (HorizontalFlip) Transform(_ *rand.Rand, img image.Image) (image.Image, Affine, error) {
	w := float64(img.Bounds().Dx())
	return imaging.FlipH(img), Affine{A: -1, C: w, E: 1}, nil
}

// VerticalFlip mirrors the image top to bottom.
type VerticalFlip struct{}

// Name implements Op.
func (VerticalFlip) Name() string { return "vertical_flip" }

// Transform implements GeometricOp.
func (VerticalFlip) Transform(_ *rand.Rand, img image.Image) (image.Image, Affine, error) {
	h := float64(img.Bounds().Dy())
	return imaging.FlipV(img), Affine{A: 1, E: -1, F: h}, nil
}

// Scale resizes the whole canvas by a random factor in [1-Limit, 1+Limit].
type Scale struct {
	Limit float64
}

// Name implements Op.
func (s Scale) Name() string { return "scale" }

// Transform implements GeometricOp.
func (s Scale) Transform(rng *rand.Rand, img image.Image) (image.Image, Affine, error) {
	factor := uniform(rng, 1-s.Limit, 1+s.Limit)
	if factor <= 0 {
		return nil, Affine{}, errors.Errorf("scale factor %g is not positive", factor)
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	nw := max(1, int(math.Round(float64(w)*factor)))
	nh := max(1, int(math.Round(float64(h)*factor)))

	out := imaging.Resize(img, nw, nh, imaging.Linear)
	return out, Affine{A: float64(nw) / float64(w), E: float64(nh) / float64(h)}, nil
}

// Resize stretches the image to exactly Width x Height. It is deterministic and
// idempotent, and always runs last in a Pipeline.
type Resize struct {
	Width, Height int
}

// Name implements Op.
func (r Resize) Name() string { return "resize" }

// Transform implements GeometricOp.
func (r Resize) Transform(_ *rand.Rand, img image.Image) (image.Image, Affine, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil, Affine{}, errors.New("cannot resize an empty image")
	}

	out, err := images.ResizeExact(img, r.Width, r.Height)
	if err != nil {
		return nil, Affine{}, err
	}
	return out, Affine{A: float64(r.Width) / float64(w), E: float64(r.Height) / float64(h)}, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
