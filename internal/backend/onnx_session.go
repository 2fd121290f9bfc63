package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ironsheep/screenshot-prefilter/internal/imaging"
)

// defaultInputSize replaces dynamic spatial dimensions in a model's input shape.
const defaultInputSize = 224

// runner executes one forward pass on a packed input tensor.
type runner interface {
	Run(input []float32) ([]float32, error)
	Close() error
}

// inputGeometry is the tensor shape a model expects.
type inputGeometry struct {
	width  int
	height int
	layout imaging.TensorLayout
}

// ortRunner owns a session and its pre-bound tensors. Run is serialized
// because the tensors are reused across calls.
type ortRunner struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func (r *ortRunner) Run(input []float32) ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dst := r.input.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := r.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	raw := r.output.GetData()
	out := make([]float32, len(raw))
	copy(out, raw)
	return out, nil
}

func (r *ortRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, destroy := range []func() error{r.session.Destroy, r.input.Destroy, r.output.Destroy} {
		if err := destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// initRuntime points onnxruntime_go at the shared library and initializes
// the environment once per process.
func initRuntime(libPath, modelDir string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		libPath = resolveSharedLibraryPath(modelDir)
	}
	if libPath == "" {
		return fmt.Errorf("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// openSession loads modelPath and binds tensors for the named input and
// output, discovering shapes from the model itself.
func openSession(modelPath string, spec ModelSpec) (runner, inputGeometry, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, inputGeometry{}, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, inputGeometry{}, fmt.Errorf("read model info: %w", err)
	}
	in, err := selectInfo(inputs, spec.Input, "input")
	if err != nil {
		return nil, inputGeometry{}, err
	}
	out, err := selectInfo(outputs, spec.Output, "output")
	if err != nil {
		return nil, inputGeometry{}, err
	}

	geom, err := resolveGeometry(in.Dimensions, spec.Layout)
	if err != nil {
		return nil, inputGeometry{}, err
	}

	inputShape := ort.NewShape(1, 3, int64(geom.height), int64(geom.width))
	if geom.layout == imaging.LayoutNHWC {
		inputShape = ort.NewShape(1, int64(geom.height), int64(geom.width), 3)
	}
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, inputGeometry{}, fmt.Errorf("allocate input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape(out.Dimensions))
	if err != nil {
		inputTensor.Destroy()
		return nil, inputGeometry{}, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{in.Name},
		[]string{out.Name},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, inputGeometry{}, fmt.Errorf("create onnx session: %w", err)
	}

	return &ortRunner{session: session, input: inputTensor, output: outputTensor}, geom, nil
}

func selectInfo(infos []ort.InputOutputInfo, name, kind string) (ort.InputOutputInfo, error) {
	if len(infos) == 0 {
		return ort.InputOutputInfo{}, fmt.Errorf("model has no %ss", kind)
	}
	if name == "" {
		return infos[0], nil
	}
	for _, info := range infos {
		if strings.EqualFold(info.Name, name) {
			return info, nil
		}
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return ort.InputOutputInfo{}, fmt.Errorf("model has no %s %q (have %v)", kind, name, names)
}

// resolveGeometry reads width, height and layout from a rank-4 input shape.
// A forced layout wins; otherwise the axis holding 3 channels decides.
func resolveGeometry(dims []int64, forced string) (inputGeometry, error) {
	if len(dims) != 4 {
		return inputGeometry{}, fmt.Errorf("model input has rank %d, want 4", len(dims))
	}

	var layout imaging.TensorLayout
	switch strings.ToLower(forced) {
	case "nchw":
		layout = imaging.LayoutNCHW
	case "nhwc":
		layout = imaging.LayoutNHWC
	default:
		switch {
		case dims[1] == 3:
			layout = imaging.LayoutNCHW
		case dims[3] == 3:
			layout = imaging.LayoutNHWC
		default:
			return inputGeometry{}, fmt.Errorf("cannot infer layout from input shape %v", dims)
		}
	}

	h, w := dims[2], dims[3]
	if layout == imaging.LayoutNHWC {
		h, w = dims[1], dims[2]
	}
	return inputGeometry{width: dimOrDefault(w), height: dimOrDefault(h), layout: layout}, nil
}

func dimOrDefault(d int64) int {
	if d <= 0 {
		return defaultInputSize
	}
	return int(d)
}

// outputShape replaces dynamic dimensions with 1.
func outputShape(dims []int64) ort.Shape {
	if len(dims) == 0 {
		return ort.NewShape(1, 1)
	}
	shape := make([]int64, len(dims))
	for i, d := range dims {
		if d > 0 {
			shape[i] = d
		} else {
			shape[i] = 1
		}
	}
	return ort.Shape(shape)
}

// resolveSharedLibraryPath locates a platform onnxruntime shared library.
// ONNXRUNTIME_SHARED_LIBRARY_PATH wins; otherwise common names and locations
// are probed.
func resolveSharedLibraryPath(modelDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{".", "/opt/homebrew/lib", "/usr/local/lib", "/usr/lib"}
	if modelDir != "" {
		dirs = append([]string{modelDir, filepath.Join(modelDir, "lib")}, dirs...)
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
