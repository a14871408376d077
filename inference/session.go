// Package inference - runs the detector on images through ONNX Runtime.
package inference

import (
	"context"
	"sync"

	"github.com/nvr-ai/oceanyolo/models/postprocess"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// SessionConfig configures an ONNXEngine.
type SessionConfig struct {
	// ModelPath is the exported detector.
	ModelPath string `koanf:"model_path" json:"model_path"`
	// SharedLibraryPath is the onnxruntime library. Empty uses SharedLibPath().
	SharedLibraryPath string `koanf:"shared_library_path" json:"shared_library_path"`
	// InputName is the model input tensor name.
	InputName string `koanf:"input_name" json:"input_name"`
	// OutputName is the model output tensor name.
	OutputName string `koanf:"output_name" json:"output_name"`
	// InputSize is the side of the square model input.
	InputSize int `koanf:"input_size" json:"input_size"`
	// Provider selects the execution provider.
	Provider Provider `koanf:"provider" json:"provider"`
	// IntraOpThreads parallelizes execution within graph nodes.
	IntraOpThreads int `koanf:"intra_op_threads" json:"intra_op_threads"`
	// InterOpThreads parallelizes execution across graph nodes.
	InterOpThreads int `koanf:"inter_op_threads" json:"inter_op_threads"`
}

// DefaultSessionConfig returns the settings of a standard YOLO export.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		InputName:  "images",
		OutputName: "output0",
		InputSize:  postprocess.DefaultInputSize,
		Provider:   CPUExecutionProvider,
	}
}

var envMu sync.Mutex

// initEnvironment initializes the process-wide onnxruntime environment once.
func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// ONNXEngine runs a detector exported to ONNX. Output tensors are allocated
// by the runtime, so models with any number of output rows are supported.
type ONNXEngine struct {
	cfg     SessionConfig
	mu      sync.RWMutex
	session *ort.DynamicAdvancedSession
	timing  TimeTracker
}

// NewONNXEngine loads the model described by cfg.
//
// Arguments:
//   - cfg: The session configuration.
//
// Returns:
//   - *ONNXEngine: The engine. Call Close to release it.
//   - error: An error if the runtime or the model cannot be loaded.
func NewONNXEngine(cfg SessionConfig) (*ONNXEngine, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is required")
	}
	if cfg.InputSize <= 0 {
		return nil, errors.Errorf("invalid input size %d", cfg.InputSize)
	}
	libPath := cfg.SharedLibraryPath
	if libPath == "" {
		libPath = SharedLibPath()
	}
	if err := initEnvironment(libPath); err != nil {
		return nil, err
	}

	options, err := sessionOptions(cfg)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		options,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating ORT session for %s", cfg.ModelPath)
	}
	return &ONNXEngine{cfg: cfg, session: session}, nil
}

// InputSize implements Engine.
func (e *ONNXEngine) InputSize() int {
	return e.cfg.InputSize
}

// Infer implements Engine.
func (e *ONNXEngine) Infer(ctx context.Context, blob []float32) (*postprocess.RawTensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.session == nil {
		return nil, errors.New("engine is closed")
	}

	size := int64(e.cfg.InputSize)
	input, err := ort.NewTensor(ort.NewShape(1, 3, size, size), blob)
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	done := e.timing.StartOperation()
	err = e.session.Run([]ort.Value{input}, outputs)
	done()
	if err != nil {
		return nil, errors.Wrap(err, "error running ORT session")
	}
	defer outputs[0].Destroy()

	output, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.Wrapf(postprocess.ErrTensorShape, "output is %T, want float32 tensor", outputs[0])
	}

	shape := output.GetShape()
	dims := make([]int, len(shape))
	for i, d := range shape {
		dims[i] = int(d)
	}
	// The runtime owns the output buffer.
	data := append([]float32(nil), output.GetData()...)
	return postprocess.NewRawTensor(data, dims...)
}

// Stats returns timing statistics of the network runs so far.
func (e *ONNXEngine) Stats() Stats {
	return e.timing.Stats()
}

// Close releases the session.
func (e *ONNXEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	if err != nil {
		return errors.Wrap(err, "error destroying ORT session")
	}
	return nil
}
