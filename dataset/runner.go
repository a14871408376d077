package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/nvr-ai/oceanyolo/augment"
	"github.com/nvr-ai/oceanyolo/images"
	"github.com/nvr-ai/oceanyolo/labels"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrUnreadableImage is returned for image files that cannot be decoded.
var ErrUnreadableImage = errors.New("unreadable image")

// MissingLabelPolicy decides what happens to an image without a label file.
type MissingLabelPolicy string

const (
	// MissingLabelsEmpty treats the image as a background example with no boxes.
	MissingLabelsEmpty MissingLabelPolicy = "empty"
	// MissingLabelsError skips the image as a malformed label.
	MissingLabelsError MissingLabelPolicy = "error"
)

// Config configures a Runner.
type Config struct {
	// ImageDir holds the source images.
	ImageDir string `koanf:"image_dir" json:"image_dir"`
	// LabelDir holds one `<stem>.txt` per image.
	LabelDir string `koanf:"label_dir" json:"label_dir"`
	// OutputImageDir receives the original and augmented images.
	OutputImageDir string `koanf:"output_image_dir" json:"output_image_dir"`
	// OutputLabelDir receives the original and augmented labels.
	OutputLabelDir string `koanf:"output_label_dir" json:"output_label_dir"`
	// Augmentations is the number of variants written per image.
	Augmentations int `koanf:"augmentations" json:"augmentations"`
	// Workers is the number of images processed concurrently.
	Workers int `koanf:"workers" json:"workers"`
	// Seed makes a run reproducible.
	Seed uint64 `koanf:"seed" json:"seed"`
	// MissingLabels is the policy for images without a label file.
	MissingLabels MissingLabelPolicy `koanf:"missing_labels" json:"missing_labels"`
	// Extensions restricts the images considered. Empty accepts every supported format.
	Extensions []string `koanf:"extensions" json:"extensions"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.ImageDir == "" || c.LabelDir == "":
		return errors.New("image and label directories are required")
	case c.OutputImageDir == "" || c.OutputLabelDir == "":
		return errors.New("output image and label directories are required")
	case c.Augmentations < 0:
		return errors.Errorf("augmentations must be >= 0, got %d", c.Augmentations)
	case c.Workers < 1:
		return errors.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	switch c.MissingLabels {
	case MissingLabelsEmpty, MissingLabelsError:
	default:
		return errors.Errorf("unknown missing label policy %q", c.MissingLabels)
	}
	for _, ext := range c.Extensions {
		if !images.IsSupported("x" + ext) {
			return errors.Wrapf(images.ErrUnsupportedFormat, "extension %q", ext)
		}
	}
	return nil
}

// ItemError records why an image was skipped or failed.
type ItemError struct {
	Name string
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// Summary reports the outcome of a run.
type Summary struct {
	// Processed counts images whose original and variants were all written.
	Processed int
	// Skipped counts unreadable images and malformed labels.
	Skipped int
	// Failed counts images that hit an augmentation or write error.
	Failed int
	// Pairs counts image/label pairs written.
	Pairs int
	// Items lists every skipped or failed image.
	Items []ItemError
}

// Runner augments every image of a dataset directory.
type Runner struct {
	cfg      Config
	pipeline *augment.Pipeline
	storage  Storage
	codec    images.Codec
	logger   *zap.Logger

	mu      sync.Mutex
	summary Summary
}

// NewRunner validates cfg and builds a runner.
//
// Arguments:
//   - cfg: The run configuration.
//   - pipeline: The augmentation pipeline, shared by all workers.
//   - storage: Where images and labels live.
//   - codec: Decodes source images and encodes variants.
//   - logger: Per-item failures are logged at warn. Nil disables logging.
//
// Returns:
//   - *Runner: The runner.
//   - error: An error if the configuration is invalid.
func NewRunner(cfg Config, pipeline *augment.Pipeline, storage Storage, codec images.Codec, logger *zap.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid dataset config")
	}
	if pipeline == nil || storage == nil || codec == nil {
		return nil, errors.New("pipeline, storage and codec are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		pipeline: pipeline,
		storage:  storage,
		codec:    codec,
		logger:   logger,
	}, nil
}

type job struct {
	index int
	name  string
}

// Run processes every image in ImageDir. Errors on individual images are
// recorded in the summary and never abort the batch. Cancelling ctx stops
// dispatching new images; images already started finish.
//
// Returns:
//   - Summary: The run outcome.
//   - error: An error if the image directory cannot be listed or ctx was cancelled.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	r.mu.Lock()
	r.summary = Summary{}
	r.mu.Unlock()

	names, err := r.storage.List(r.cfg.ImageDir)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to list images")
	}

	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				r.process(j)
			}
		}()
	}

	var runErr error
	index := 0
dispatch:
	for _, name := range names {
		if !r.accepts(name) {
			continue
		}
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break dispatch
		case jobs <- job{index: index, name: name}:
			index++
		}
	}
	close(jobs)
	wg.Wait()

	r.mu.Lock()
	summary := r.summary
	r.mu.Unlock()
	sort.Slice(summary.Items, func(i, k int) bool { return summary.Items[i].Name < summary.Items[k].Name })

	r.logger.Info("augmentation finished",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("pairs", summary.Pairs),
	)
	return summary, runErr
}

func (r *Runner) accepts(name string) bool {
	if len(r.cfg.Extensions) == 0 {
		return images.IsSupported(name)
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range r.cfg.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// process handles one image. The rng is derived from the image's index so
// the output does not depend on which worker picks it up.
func (r *Runner) process(j job) {
	logger := r.logger.With(zap.String("image", j.name))

	src, imageBytes, labelBytes, err := r.load(j.name)
	if err != nil {
		logger.Warn("skipping image", zap.Error(err))
		r.record(j.name, err, true)
		return
	}

	stem := strings.TrimSuffix(j.name, filepath.Ext(j.name))
	ext := filepath.Ext(j.name)

	pairs := 0
	if err := r.writePair(j.name, stem+".txt", imageBytes, labelBytes); err != nil {
		r.fail(logger, j.name, err)
		return
	}
	pairs++

	rng := augment.NewRand(r.cfg.Seed, uint64(j.index))
	for i := 0; i < r.cfg.Augmentations; i++ {
		out, err := r.pipeline.Apply(rng, src)
		if err != nil {
			r.addPairs(pairs)
			r.fail(logger, j.name, errors.Wrapf(err, "variant %d", i))
			return
		}
		encoded, err := r.codec.Encode(out.Image, src.Format)
		if err != nil {
			r.addPairs(pairs)
			r.fail(logger, j.name, errors.Wrapf(err, "encode variant %d", i))
			return
		}
		text, err := labels.Format(out.Boxes)
		if err != nil {
			r.addPairs(pairs)
			r.fail(logger, j.name, errors.Wrapf(err, "format variant %d", i))
			return
		}

		base := fmt.Sprintf("%s_aug_%d", stem, i)
		if err := r.writePair(base+ext, base+".txt", encoded, text); err != nil {
			r.addPairs(pairs)
			r.fail(logger, j.name, err)
			return
		}
		pairs++
		if len(out.Boxes) < len(src.Boxes) {
			logger.Debug("variant lost boxes",
				zap.Int("variant", i),
				zap.Int("kept", len(out.Boxes)),
				zap.Int("source", len(src.Boxes)),
			)
		}
	}

	r.mu.Lock()
	r.summary.Processed++
	r.summary.Pairs += pairs
	r.mu.Unlock()
}

// load reads and decodes the image and parses its label file. The raw bytes
// of both are returned so the originals can be copied verbatim.
func (r *Runner) load(name string) (labels.LabeledImage, []byte, []byte, error) {
	format, err := images.FormatFromFilename(name)
	if err != nil {
		return labels.LabeledImage{}, nil, nil, errors.Wrapf(ErrUnreadableImage, "%v", err)
	}
	data, err := r.storage.Read(filepath.Join(r.cfg.ImageDir, name))
	if err != nil {
		return labels.LabeledImage{}, nil, nil, errors.Wrapf(ErrUnreadableImage, "%v", err)
	}
	img, err := r.codec.Decode(data)
	if err != nil {
		return labels.LabeledImage{}, nil, nil, errors.Wrapf(ErrUnreadableImage, "%v", err)
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	labelBytes, err := r.storage.Read(filepath.Join(r.cfg.LabelDir, stem+".txt"))
	switch {
	case errors.Is(err, ErrNotExist) && r.cfg.MissingLabels == MissingLabelsEmpty:
		labelBytes = []byte{}
	case errors.Is(err, ErrNotExist):
		return labels.LabeledImage{}, nil, nil, errors.Wrapf(labels.ErrMalformedLabel, "no label file for %s", name)
	case err != nil:
		return labels.LabeledImage{}, nil, nil, err
	}

	boxes, err := labels.ParseBytes(labelBytes)
	if err != nil {
		return labels.LabeledImage{}, nil, nil, err
	}
	return labels.LabeledImage{Name: name, Image: img, Format: format, Boxes: boxes}, data, labelBytes, nil
}

func (r *Runner) writePair(imageName, labelName string, imageData, labelData []byte) error {
	if err := r.storage.Write(filepath.Join(r.cfg.OutputImageDir, imageName), imageData); err != nil {
		return err
	}
	return r.storage.Write(filepath.Join(r.cfg.OutputLabelDir, labelName), labelData)
}

func (r *Runner) fail(logger *zap.Logger, name string, err error) {
	logger.Warn("failed to augment image", zap.Error(err))
	r.record(name, err, false)
}

func (r *Runner) addPairs(n int) {
	r.mu.Lock()
	r.summary.Pairs += n
	r.mu.Unlock()
}

// record adds a skipped or failed item to the summary.
func (r *Runner) record(name string, err error, skipped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if skipped {
		r.summary.Skipped++
	} else {
		r.summary.Failed++
	}
	r.summary.Items = append(r.summary.Items, ItemError{Name: name, Err: err})
}
