// Command detect runs the ONNX shark detector on images and prints the
// decoded detections as JSON, one object per line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/akamensky/argparse"
	"go.uber.org/zap"

	"github.com/nvr-ai/oceanyolo/config"
	"github.com/nvr-ai/oceanyolo/images"
	"github.com/nvr-ai/oceanyolo/inference"
	"github.com/nvr-ai/oceanyolo/logger"
	"github.com/nvr-ai/oceanyolo/models/postprocess"
)

// record is one output line.
type record struct {
	Image      string                  `json:"image"`
	Width      int                     `json:"width"`
	Height     int                     `json:"height"`
	Detections []postprocess.Detection `json:"detections"`
	Error      string                  `json:"error,omitempty"`
}

func main() {
	parser := argparse.NewParser("detect", "Detect sharks and sawfish in images with an ONNX YOLO model")
	configFile := parser.String("c", "config", &argparse.Options{Help: "YAML configuration file"})
	dotenv := parser.String("e", "env", &argparse.Options{Help: ".env file with OCEANYOLO_ overrides", Default: ".env"})
	modelPath := parser.String("m", "model", &argparse.Options{Help: "ONNX model file"})
	libPath := parser.String("L", "onnxruntime", &argparse.Options{Help: "onnxruntime shared library"})
	threshold := parser.String("t", "threshold", &argparse.Options{Help: "Confidence threshold in [0,1]"})
	inputs := parser.StringList("i", "image", &argparse.Options{Help: "Image to run detection on (repeatable)", Required: true})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(2)
	}

	flags := map[string]any{}
	if *modelPath != "" {
		flags["session.model_path"] = *modelPath
	}
	if *libPath != "" {
		flags["session.shared_library_path"] = *libPath
	}
	if *threshold != "" {
		flags["decoder.confidence_threshold"] = *threshold
	}

	cfg, err := config.Load(*configFile, *dotenv, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, *inputs, log); err != nil {
		log.Error("detection failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, paths []string, log *zap.Logger) error {
	classes, err := cfg.Classes()
	if err != nil {
		return err
	}
	decoder, err := postprocess.NewDecoder(classes, cfg.Decoder)
	if err != nil {
		return err
	}
	log.Info("loaded detector",
		zap.String("model", cfg.Session.ModelPath),
		zap.Any("classes", classes.Classes()),
		zap.Float64("confidence_threshold", cfg.Decoder.ConfidenceThreshold),
	)
	engine, err := inference.NewONNXEngine(cfg.Session)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec := images.ImagingCodec{}
	batch := make([]postprocess.Input, 0, len(paths))
	failed := map[string]error{}
	for _, path := range paths {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		raw, w, h, err := infer(ctx, engine, codec, cfg.Inference.ChannelOrder, path)
		if err != nil {
			log.Warn("skipping image", zap.String("image", path), zap.Error(err))
			failed[path] = err
			continue
		}
		batch = append(batch, postprocess.Input{Name: path, Tensor: raw, Width: w, Height: h})
	}

	enc := json.NewEncoder(os.Stdout)
	for i, out := range postprocess.DecodeAll(ctx, decoder, batch, cfg.Inference.Workers) {
		rec := record{
			Image:      filepath.Base(out.Name),
			Width:      batch[i].Width,
			Height:     batch[i].Height,
			Detections: out.Detections,
		}
		if out.Err != nil {
			rec.Error = out.Err.Error()
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	for path, err := range failed {
		if err := enc.Encode(record{Image: filepath.Base(path), Error: err.Error()}); err != nil {
			return err
		}
	}
	log.Info("detection finished",
		zap.Int("images", len(paths)),
		zap.Int("failed", len(failed)),
		zap.Object("inference", engine.Stats()),
	)
	return nil
}

func infer(ctx context.Context, engine inference.Engine, codec images.Codec, order inference.ChannelOrder, path string) (*postprocess.RawTensor, int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, err
	}
	img, err := codec.Decode(data)
	if err != nil {
		return nil, 0, 0, err
	}
	blob, err := inference.Preprocess(img, engine.InputSize(), order)
	if err != nil {
		return nil, 0, 0, err
	}
	raw, err := engine.Infer(ctx, blob)
	if err != nil {
		return nil, 0, 0, err
	}
	b := img.Bounds()
	return raw, b.Dx(), b.Dy(), nil
}
