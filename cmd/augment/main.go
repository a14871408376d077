// Command augment writes K augmented copies of every image/label pair of a
// YOLO dataset directory, alongside the originals.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"
	"go.uber.org/zap"

	"github.com/nvr-ai/oceanyolo/augment"
	"github.com/nvr-ai/oceanyolo/config"
	"github.com/nvr-ai/oceanyolo/dataset"
	"github.com/nvr-ai/oceanyolo/images"
	"github.com/nvr-ai/oceanyolo/logger"
)

func main() {
	parser := argparse.NewParser("augment", "Augment a YOLO dataset with box-aware geometric and photometric transforms")
	configFile := parser.String("c", "config", &argparse.Options{Help: "YAML configuration file"})
	dotenv := parser.String("e", "env", &argparse.Options{Help: ".env file with OCEANYOLO_ overrides", Default: ".env"})
	imageDir := parser.String("i", "images", &argparse.Options{Help: "Source image directory"})
	labelDir := parser.String("l", "labels", &argparse.Options{Help: "Source label directory"})
	outImages := parser.String("o", "out-images", &argparse.Options{Help: "Output image directory"})
	outLabels := parser.String("O", "out-labels", &argparse.Options{Help: "Output label directory"})
	count := parser.String("k", "augmentations", &argparse.Options{Help: "Augmented variants per image"})
	workers := parser.String("w", "workers", &argparse.Options{Help: "Images processed concurrently"})
	seed := parser.String("s", "seed", &argparse.Options{Help: "Random seed"})
	codecName := parser.Selector("C", "codec", []string{"imaging", "opencv"}, &argparse.Options{Help: "Image codec", Default: "imaging"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(2)
	}

	flags := map[string]any{}
	override(flags, "dataset.image_dir", *imageDir)
	override(flags, "dataset.label_dir", *labelDir)
	override(flags, "dataset.output_image_dir", *outImages)
	override(flags, "dataset.output_label_dir", *outLabels)
	override(flags, "dataset.augmentations", *count)
	override(flags, "dataset.workers", *workers)
	override(flags, "dataset.seed", *seed)

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

	if err := run(cfg, *codecName, log); err != nil {
		log.Error("augmentation failed", zap.Error(err))
		os.Exit(1)
	}
}

// override records a flag the user gave. Values are validated by config.Load.
func override(flags map[string]any, key, v string) {
	if v != "" {
		flags[key] = v
	}
}

func run(cfg *config.AppConfig, codecName string, log *zap.Logger) error {
	pipeline, err := cfg.Pipeline(augment.WithLogger(log.Named("augment")))
	if err != nil {
		return err
	}
	codec, err := images.NewCodec(codecName)
	if err != nil {
		return err
	}
	runner, err := dataset.NewRunner(cfg.Dataset, pipeline, dataset.LocalStorage{}, codec, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("augmenting dataset",
		zap.String("images", cfg.Dataset.ImageDir),
		zap.String("labels", cfg.Dataset.LabelDir),
		zap.Int("augmentations", cfg.Dataset.Augmentations),
		zap.Int("workers", cfg.Dataset.Workers),
		zap.Uint64("seed", cfg.Dataset.Seed),
	)
	summary, err := runner.Run(ctx)

	fmt.Printf("processed=%d skipped=%d failed=%d pairs=%d\n",
		summary.Processed, summary.Skipped, summary.Failed, summary.Pairs)
	for _, item := range summary.Items {
		fmt.Printf("  %s\n", item.Error())
	}
	return err
}
