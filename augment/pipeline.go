package augment

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/nvr-ai/oceanyolo/labels"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrInvalidPipeline is returned when a pipeline declaration breaks the
// geometric -> photometric -> resize ordering or carries a bad probability.
var ErrInvalidPipeline = errors.New("invalid augmentation pipeline")

// DefaultMinVisibility is the smallest fraction of a box's reference area that
// must stay inside the frame for the box to be kept.
const DefaultMinVisibility = 0.01

// Step applies Op with probability P.
type Step struct {
	Op Op
	P  float64
}

// Pipeline is an ordered list of probabilistic steps followed by a
// deterministic resize to the detector input resolution.
type Pipeline struct {
	steps         []Step
	resize        Resize
	minVisibility float64
	logger        *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMinVisibility sets the visible-area fraction below which boxes are dropped.
func WithMinVisibility(v float64) Option {
	return func(p *Pipeline) {
		p.minVisibility = v
	}
}

// WithLogger sets the logger used for dropped-box diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// DefaultSteps returns the standard composition used to build the training set.
//
// Arguments:
//   - fill: The color painted into corners uncovered by rotation.
//
// Returns:
//   - []Step: Geometric steps followed by photometric steps, in application order.
func DefaultSteps(fill color.Color) []Step {
	return []Step{
		{Op: Rotate{Limit: 20, Fill: fill}, P: 0.9},
		{Op: HorizontalFlip{}, P: 0.5},
		{Op: VerticalFlip{}, P: 0.2},
		{Op: Scale{Limit: 0.1}, P: 0.5},
		{Op: BrightnessContrast{BrightnessLimit: 0.2, ContrastLimit: 0.2}, P: 0.8},
		{Op: MotionBlur{MaxKernel: 5}, P: 0.2},
		{Op: GaussianNoise{MinVar: 10, MaxVar: 50}, P: 0.3},
	}
}

// NewPipeline validates and builds a pipeline.
//
// Arguments:
//   - steps: Steps in application order. All geometric steps must come before
//     any photometric step, and Resize must not appear (it is appended).
//   - width: The output width (detector input width).
//   - height: The output height (detector input height).
//   - opts: Optional settings.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: ErrInvalidPipeline describing the first violation.
//
// @example
// p, err := NewPipeline(DefaultSteps(color.Black), 640, 640)
func NewPipeline(steps []Step, width, height int, opts ...Option) (*Pipeline, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidPipeline, "output size %dx%d", width, height)
	}

	seenPhotometric := false
	for i, step := range steps {
		if math.IsNaN(step.P) || step.P < 0 || step.P > 1 {
			return nil, errors.Wrapf(ErrInvalidPipeline, "step %d: probability %g outside [0,1]", i, step.P)
		}
		switch op := step.Op.(type) {
		case Resize, *Resize:
			return nil, errors.Wrapf(ErrInvalidPipeline, "step %d: resize is always the final step", i)
		case GeometricOp:
			if seenPhotometric {
				return nil, errors.Wrapf(ErrInvalidPipeline, "step %d: geometric %s after a photometric step", i, op.Name())
			}
		case PhotometricOp:
			seenPhotometric = true
		default:
			return nil, errors.Wrapf(ErrInvalidPipeline, "step %d: %T is neither geometric nor photometric", i, step.Op)
		}
	}

	p := &Pipeline{
		steps:         append([]Step(nil), steps...),
		resize:        Resize{Width: width, Height: height},
		minVisibility: DefaultMinVisibility,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if math.IsNaN(p.minVisibility) || p.minVisibility < 0 || p.minVisibility >= 1 {
		return nil, errors.Wrapf(ErrInvalidPipeline, "min visibility %g outside [0,1)", p.minVisibility)
	}
	return p, nil
}

// trackedBox is a pixel-space box plus the area it would have if no part of it
// had been clipped.
type trackedBox struct {
	box labels.Box
	ref float64
}

// Apply runs the pipeline on src and returns a new LabeledImage of the output
// size. src is not modified. Boxes pushed out of the frame are dropped; the
// result may have no boxes at all.
//
// Arguments:
//   - rng: The random source. Each step draws from it only when applied.
//   - src: The labeled image with Normalized boxes.
//
// Returns:
//   - labels.LabeledImage: The augmented image with Normalized boxes.
//   - error: An error if a box is not normalized or an operation fails.
func (p *Pipeline) Apply(rng *rand.Rand, src labels.LabeledImage) (labels.LabeledImage, error) {
	w, h := src.Size()

	tracked := make([]trackedBox, 0, len(src.Boxes))
	for _, b := range src.Boxes {
		px, err := b.ToPixel(w, h)
		if err != nil {
			return labels.LabeledImage{}, err
		}
		tracked = append(tracked, trackedBox{box: px, ref: px.Area()})
	}

	img := src.Image
	var err error
	for _, step := range p.steps {
		if rng.Float64() >= step.P {
			continue
		}
		switch op := step.Op.(type) {
		case GeometricOp:
			img, tracked, err = p.geometric(op, rng, img, tracked)
			if err != nil {
				return labels.LabeledImage{}, errors.Wrapf(err, "%s failed", op.Name())
			}
		case PhotometricOp:
			img = op.Adjust(rng, img)
		}
	}

	img, tracked, err = p.geometric(p.resize, rng, img, tracked)
	if err != nil {
		return labels.LabeledImage{}, errors.Wrap(err, "resize failed")
	}

	out := labels.LabeledImage{Name: src.Name, Image: img, Format: src.Format}
	for _, t := range tracked {
		nb, err := t.box.ToNormalized(p.resize.Width, p.resize.Height)
		if err != nil {
			return labels.LabeledImage{}, err
		}
		if err := nb.Validate(); err != nil {
			p.logger.Debug("dropped degenerate box", zap.Int("class_id", nb.ClassID), zap.Error(err))
			continue
		}
		out.Boxes = append(out.Boxes, nb)
	}
	return out, nil
}

// geometric applies op to the pixels and the same affine map to every box.
func (p *Pipeline) geometric(op GeometricOp, rng *rand.Rand, img image.Image, boxes []trackedBox) (image.Image, []trackedBox, error) {
	out, m, err := op.Transform(rng, img)
	if err != nil {
		return nil, nil, err
	}

	fw, fh := float64(out.Bounds().Dx()), float64(out.Bounds().Dy())
	scale := math.Abs(m.Det())

	kept := make([]trackedBox, 0, len(boxes))
	for _, t := range boxes {
		ref := t.ref * scale
		r := capArea(m.MapRect(t.box.Rect()), ref).Clip(fw, fh)
		if r.Empty() || r.Area() < p.minVisibility*ref {
			p.logger.Debug("dropped box outside frame",
				zap.String("op", op.Name()),
				zap.Int("class_id", t.box.ClassID),
				zap.Float64("visible_area", r.Area()),
				zap.Float64("reference_area", ref),
			)
			continue
		}
		kept = append(kept, trackedBox{box: labels.FromRect(t.box.ClassID, r, labels.Pixel), ref: ref})
	}
	return out, kept, nil
}

// NewRand returns a PCG-backed random source. Distinct streams under the same
// seed are independent, which lets parallel workers stay reproducible.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}
