package inference

import (
	"context"
	"image"

	"github.com/nvr-ai/oceanyolo/models/postprocess"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Engine runs the detector network on a preprocessed blob.
type Engine interface {
	// InputSize is the side of the square input the network expects.
	InputSize() int
	// Infer runs the network on a 1x3xSxS blob.
	Infer(ctx context.Context, blob []float32) (*postprocess.RawTensor, error)
	Close() error
}

// Detector chains preprocessing, the engine and decoding for single images.
type Detector struct {
	engine  Engine
	decoder *postprocess.Decoder
	order   ChannelOrder
	logger  *zap.Logger
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithChannelOrder sets the input plane order. The default is BGR.
func WithChannelOrder(order ChannelOrder) DetectorOption {
	return func(d *Detector) {
		d.order = order
	}
}

// WithLogger sets the detector logger.
func WithLogger(logger *zap.Logger) DetectorOption {
	return func(d *Detector) {
		d.logger = logger
	}
}

// NewDetector builds a detector.
//
// Arguments:
//   - engine: The network runner.
//   - decoder: The decoder. Its input size must match the engine's.
//   - opts: Optional settings.
//
// Returns:
//   - *Detector: The detector.
//   - error: An error if the engine and decoder disagree on the input size.
func NewDetector(engine Engine, decoder *postprocess.Decoder, opts ...DetectorOption) (*Detector, error) {
	if engine == nil || decoder == nil {
		return nil, errors.New("engine and decoder are required")
	}
	if engine.InputSize() != decoder.Config().InputSize {
		return nil, errors.Errorf("engine input size %d does not match decoder input size %d",
			engine.InputSize(), decoder.Config().InputSize)
	}

	d := &Detector{
		engine:  engine,
		decoder: decoder,
		order:   ChannelOrderBGR,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Detect runs the detector on img and returns detections in img's pixel space.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]postprocess.Detection, error) {
	size := d.engine.InputSize()
	blob, err := Preprocess(img, size, d.order)
	if err != nil {
		return nil, err
	}

	raw, err := d.engine.Infer(ctx, blob)
	if err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}

	b := img.Bounds()
	dets, err := d.decoder.Decode(raw, b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	d.logger.Debug("detected",
		zap.Int("rows", raw.Rows()),
		zap.Int("detections", len(dets)),
	)
	return dets, nil
}

// Close releases the engine.
func (d *Detector) Close() error {
	return d.engine.Close()
}
