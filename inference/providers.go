package inference

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Provider is an ONNX Runtime execution provider.
type Provider string

const (
	// CPUExecutionProvider uses CPU for inference
	CPUExecutionProvider Provider = "cpu"

	// CUDAExecutionProvider uses NVIDIA CUDA for GPU acceleration
	CUDAExecutionProvider Provider = "cuda"

	// CoreMLExecutionProvider uses Apple CoreML for macOS/iOS acceleration
	CoreMLExecutionProvider Provider = "coreml"

	// OpenVINOExecutionProvider uses Intel OpenVINO for inference optimization
	OpenVINOExecutionProvider Provider = "openvino"
)

// SharedLibraryEnv overrides the onnxruntime shared library location.
const SharedLibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// SharedLibPath returns the onnxruntime shared library for the current platform.
//
// Returns:
//   - string: The path to the shared library.
func SharedLibPath() string {
	if p := os.Getenv(SharedLibraryEnv); p != "" {
		return p
	}
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
}

// sessionOptions builds ORT session options for cfg.
func sessionOptions(cfg SessionConfig) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session options")
	}

	// A value of 0 uses the default number of threads.
	if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
		options.Destroy()
		return nil, errors.Wrap(err, "error setting intra op threads")
	}
	if err := options.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
		options.Destroy()
		return nil, errors.Wrap(err, "error setting inter op threads")
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		options.Destroy()
		return nil, errors.Wrap(err, "error setting graph optimization level")
	}

	switch cfg.Provider {
	case CPUExecutionProvider, "":
	case CUDAExecutionProvider:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			options.Destroy()
			return nil, errors.Wrap(err, "error creating CUDA options")
		}
		defer cuda.Destroy()
		if err := cuda.Update(map[string]string{"device_id": "0"}); err != nil {
			options.Destroy()
			return nil, errors.Wrap(err, "error configuring CUDA")
		}
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			options.Destroy()
			return nil, errors.Wrap(err, "error enabling CUDA")
		}
	case CoreMLExecutionProvider:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			options.Destroy()
			return nil, errors.Wrap(err, "error enabling CoreML")
		}
	case OpenVINOExecutionProvider:
		err := options.AppendExecutionProviderOpenVINO(map[string]string{
			"device_type": "CPU",
			"precision":   "FP32",
		})
		if err != nil {
			options.Destroy()
			return nil, errors.Wrap(err, "error enabling OpenVINO")
		}
	default:
		options.Destroy()
		return nil, errors.Errorf("unsupported execution provider %q", cfg.Provider)
	}
	return options, nil
}
