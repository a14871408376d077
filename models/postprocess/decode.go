package postprocess

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/oceanyolo/models"
	"github.com/pkg/errors"
)

const (
	// DefaultInputSize is the square detector input resolution.
	DefaultInputSize = 640
	// DefaultConfidenceThreshold is the minimum confidence a row needs to be kept.
	DefaultConfidenceThreshold = 0.4
)

var (
	// ErrThresholdOutOfRange is returned when the confidence threshold is outside [0,1].
	ErrThresholdOutOfRange = errors.New("confidence threshold out of range")
	// ErrInvalidInputSize is returned when the detector input size is not positive.
	ErrInvalidInputSize = errors.New("invalid detector input size")
)

// ClassNames resolves class indices to names.
type ClassNames interface {
	Name(idx int) (string, error)
}

// Config configures a Decoder.
type Config struct {
	// InputSize is the side of the square detector input, in pixels.
	InputSize int `koanf:"input_size" json:"input_size"`
	// ConfidenceThreshold keeps rows whose confidence is at least this value.
	ConfidenceThreshold float64 `koanf:"confidence_threshold" json:"confidence_threshold"`
	// NMS is optional suppression of overlapping same-class boxes.
	NMS NMSConfig `koanf:"nms" json:"nms"`
}

// DefaultConfig returns the decoder settings the detector was trained with.
func DefaultConfig() Config {
	return Config{
		InputSize:           DefaultInputSize,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		NMS:                 NMSConfig{ClassAware: true},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if math.IsNaN(c.ConfidenceThreshold) || c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.Wrapf(ErrThresholdOutOfRange, "threshold %g", c.ConfidenceThreshold)
	}
	if c.InputSize <= 0 {
		return errors.Wrapf(ErrInvalidInputSize, "input size %d", c.InputSize)
	}
	if math.IsNaN(c.NMS.IoUThreshold) || c.NMS.IoUThreshold < 0 || c.NMS.IoUThreshold > 1 {
		return errors.Errorf("nms iou threshold %g outside [0,1]", c.NMS.IoUThreshold)
	}
	return nil
}

// Decoder turns raw detector rows into detections in original-image pixels.
// It holds no mutable state and is safe for concurrent use.
type Decoder struct {
	classes   ClassNames
	cfg       Config
	threshold float32
}

// NewDecoder validates cfg and builds a decoder.
//
// Arguments:
//   - classes: The class table used to name detections.
//   - cfg: The decoder configuration.
//
// Returns:
//   - *Decoder: The decoder.
//   - error: ErrThresholdOutOfRange or ErrInvalidInputSize for a bad configuration.
//
// @example
// d, err := NewDecoder(models.DefaultClasses, DefaultConfig())
func NewDecoder(classes ClassNames, cfg Config) (*Decoder, error) {
	if classes == nil {
		return nil, errors.New("class table is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Confidences are float32, so the threshold is compared at that precision.
	return &Decoder{classes: classes, cfg: cfg, threshold: float32(cfg.ConfidenceThreshold)}, nil
}

// Config returns the decoder configuration.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Decode filters rows by confidence, rescales them from detector input space
// to a width x height image and names them. The output keeps the row order of t.
//
// Arguments:
//   - t: The detector output.
//   - width: The original image width in pixels.
//   - height: The original image height in pixels.
//
// Returns:
//   - []Detection: The detections, possibly empty.
//   - error: ErrUnknownClass if any retained row names a class outside the
//     table; no detections are returned in that case.
func (d *Decoder) Decode(t *RawTensor, width, height int) ([]Detection, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid image size %dx%d", width, height)
	}
	if t == nil {
		return nil, errors.Wrap(ErrTensorShape, "nil tensor")
	}

	sx := float64(width) / float64(d.cfg.InputSize)
	sy := float64(height) / float64(d.cfg.InputSize)

	retained := make([]Result, 0, t.Rows())
	names := make(map[int]string)
	for i := 0; i < t.Rows(); i++ {
		row := t.Row(i)
		conf := row[4]
		// NaN fails every comparison.
		if !(conf >= d.threshold) {
			continue
		}

		cls := row[5]
		if math32.IsNaN(cls) || math32.IsInf(cls, 0) || math32.Floor(cls) != cls {
			return nil, errors.Wrapf(models.ErrUnknownClass, "row %d: non-integral class id %g", i, cls)
		}
		id := int(cls)
		if _, ok := names[id]; !ok {
			name, err := d.classes.Name(id)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d", i)
			}
			names[id] = name
		}

		retained = append(retained, Result{
			CX:    float64(row[0]) * sx,
			CY:    float64(row[1]) * sy,
			W:     float64(row[2]) * sx,
			H:     float64(row[3]) * sy,
			Score: conf,
			Class: id,
			Row:   i,
		})
	}

	if d.cfg.NMS.Enabled() {
		retained = ApplyGreedyNMS(retained, d.cfg.NMS)
	}

	detections := make([]Detection, 0, len(retained))
	for _, r := range retained {
		detections = append(detections, r.detection(names[r.Class]))
	}
	return detections, nil
}
