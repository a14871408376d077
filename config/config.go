// Package config - layered configuration: defaults, then a YAML file, then
// OCEANYOLO_ environment variables.
package config

import (
	"image/color"
	"math"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/nvr-ai/oceanyolo/augment"
	"github.com/nvr-ai/oceanyolo/dataset"
	"github.com/nvr-ai/oceanyolo/inference"
	"github.com/nvr-ai/oceanyolo/logger"
	"github.com/nvr-ai/oceanyolo/models"
	"github.com/nvr-ai/oceanyolo/models/postprocess"
)

// EnvPrefix prefixes every environment override. Nested keys are separated
// by a double underscore, e.g. OCEANYOLO_DECODER__CONFIDENCE_THRESHOLD.
const EnvPrefix = "OCEANYOLO_"

// AugmentConfig configures the augmentation pipeline.
type AugmentConfig struct {
	// InputSize is the square output resolution.
	InputSize int `koanf:"input_size"`
	// MinVisibility is the visible-area fraction below which boxes are dropped.
	MinVisibility float64 `koanf:"min_visibility"`
	// Fill is the hex color painted into corners uncovered by rotation.
	Fill string `koanf:"fill"`
}

// FillColor parses Fill.
func (c AugmentConfig) FillColor() (color.Color, error) {
	fill, err := colorful.Hex(c.Fill)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid fill color %q", c.Fill)
	}
	return fill, nil
}

// InferenceConfig configures single-image detection.
type InferenceConfig struct {
	// ChannelOrder is the plane order of the network input.
	ChannelOrder inference.ChannelOrder `koanf:"channel_order"`
	// Workers is the number of images decoded concurrently.
	Workers int `koanf:"workers"`
}

// AppConfig is the full configuration.
type AppConfig struct {
	Log       logger.Config           `koanf:"log"`
	Dataset   dataset.Config          `koanf:"dataset"`
	Augment   AugmentConfig           `koanf:"augment"`
	Decoder   postprocess.Config      `koanf:"decoder"`
	Session   inference.SessionConfig `koanf:"session"`
	Inference InferenceConfig         `koanf:"inference"`
	// ClassesFile is a YOLO dataset YAML. Empty uses the built-in shark classes.
	ClassesFile string `koanf:"classes_file"`
}

// defaults mirror the values the detector was trained with.
func defaults() map[string]any {
	session := inference.DefaultSessionConfig()
	return map[string]any{
		"log.level":                    "info",
		"log.format":                   "json",
		"dataset.image_dir":            "dataset/images/train",
		"dataset.label_dir":            "dataset/labels/train",
		"dataset.output_image_dir":     "dataset/augmented/images/train",
		"dataset.output_label_dir":     "dataset/augmented/labels/train",
		"dataset.augmentations":        3,
		"dataset.workers":              4,
		"dataset.seed":                 0,
		"dataset.missing_labels":       string(dataset.MissingLabelsEmpty),
		"augment.input_size":           postprocess.DefaultInputSize,
		"augment.min_visibility":       augment.DefaultMinVisibility,
		"augment.fill":                 "#000000",
		"decoder.input_size":           postprocess.DefaultInputSize,
		"decoder.confidence_threshold": postprocess.DefaultConfidenceThreshold,
		"decoder.nms.iou_threshold":    0.0,
		"decoder.nms.class_aware":      true,
		"session.input_name":           session.InputName,
		"session.output_name":          session.OutputName,
		"session.input_size":           session.InputSize,
		"session.provider":             string(session.Provider),
		"inference.channel_order":      string(inference.ChannelOrderBGR),
		"inference.workers":            4,
	}
}

// Load builds the configuration.
//
// Arguments:
//   - filePath: An optional YAML file. Empty skips it.
//   - dotenvPath: An optional .env file loaded into the process environment
//     before overrides are read. Empty or missing files are skipped.
//   - flags: Command line overrides keyed by dotted path, applied last. Only
//     flags the user actually gave belong here; values are validated like any
//     other source.
//
// Returns:
//   - *AppConfig: The validated configuration.
//   - error: An error if a source cannot be read or the result is invalid.
//
// @example
// cfg, err := Load("config.yaml", ".env", map[string]any{"dataset.workers": "8"})
func Load(filePath, dotenvPath string, flags map[string]any) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	if filePath != "" {
		if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", filePath)
		}
	}

	if dotenvPath != "" {
		if _, err := os.Stat(dotenvPath); err == nil {
			if err := godotenv.Load(dotenvPath); err != nil {
				return nil, errors.Wrapf(err, "failed to load %s", dotenvPath)
			}
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(s string, v string) (string, any) {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
		if strings.Contains(v, ",") {
			return key, strings.Split(strings.TrimSpace(v), ",")
		}
		return key, v
	}), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	if len(flags) > 0 {
		if err := k.Load(confmap.Provider(flags, "."), nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on values no component can run with. Directory
// settings are checked by the components that use them.
func (c *AppConfig) Validate() error {
	if err := c.Decoder.Validate(); err != nil {
		return err
	}
	if c.Session.InputSize != c.Decoder.InputSize {
		return errors.Errorf("session input size %d does not match decoder input size %d",
			c.Session.InputSize, c.Decoder.InputSize)
	}
	if c.Dataset.Augmentations < 0 {
		return errors.Errorf("dataset.augmentations must be >= 0, got %d", c.Dataset.Augmentations)
	}
	if c.Dataset.Workers < 1 || c.Inference.Workers < 1 {
		return errors.New("workers must be >= 1")
	}
	switch c.Dataset.MissingLabels {
	case dataset.MissingLabelsEmpty, dataset.MissingLabelsError:
	default:
		return errors.Errorf("unknown missing label policy %q", c.Dataset.MissingLabels)
	}
	if c.Augment.InputSize <= 0 {
		return errors.Errorf("augment.input_size must be positive, got %d", c.Augment.InputSize)
	}
	if math.IsNaN(c.Augment.MinVisibility) || c.Augment.MinVisibility < 0 || c.Augment.MinVisibility >= 1 {
		return errors.Errorf("augment.min_visibility %g outside [0,1)", c.Augment.MinVisibility)
	}
	if _, err := c.Augment.FillColor(); err != nil {
		return err
	}
	switch c.Inference.ChannelOrder {
	case inference.ChannelOrderBGR, inference.ChannelOrderRGB:
	default:
		return errors.Errorf("unknown channel order %q", c.Inference.ChannelOrder)
	}
	return nil
}

// Classes returns the class table named by ClassesFile.
func (c *AppConfig) Classes() (*models.ClassTable, error) {
	if c.ClassesFile == "" {
		return models.DefaultClasses, nil
	}
	f, err := os.Open(c.ClassesFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", c.ClassesFile)
	}
	defer f.Close()
	return models.LoadClassTable(f)
}

// Pipeline builds the augmentation pipeline from DefaultSteps.
func (c *AppConfig) Pipeline(opts ...augment.Option) (*augment.Pipeline, error) {
	fill, err := c.Augment.FillColor()
	if err != nil {
		return nil, err
	}
	opts = append([]augment.Option{augment.WithMinVisibility(c.Augment.MinVisibility)}, opts...)
	return augment.NewPipeline(augment.DefaultSteps(fill), c.Augment.InputSize, c.Augment.InputSize, opts...)
}
