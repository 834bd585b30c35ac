package classifier

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"

	"LumenTrade/internal/domain/models"
	xlogger "LumenTrade/pkg/logger"
)

// Config gates the optional ONNX classifier.
type Config struct {
	Enabled    bool   `yaml:"enabled"`
	ModelPath  string `yaml:"model_path"`
	WindowBars int    `yaml:"window_bars"`
}

const featuresPerBar = 5 // open, high, low, close, volume

// ONNXClassifier runs a (1, window, 5) float32 tensor through a softmax-3
// model: P(sell), P(hold), P(buy).
type ONNXClassifier struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	window  int
	logger  *xlogger.Logger
}

func initRuntime() error {
	libPath := "/usr/lib/libonnxruntime.so"
	switch runtime.GOOS {
	case "windows":
		libPath = "onnxruntime.dll"
	case "darwin":
		libPath = "libonnxruntime.dylib"
	}
	ort.SetSharedLibraryPath(libPath)
	return ort.InitializeEnvironment()
}

// New loads the model. Callers should treat an error as "run without a
// classifier", not as fatal.
func New(cfg Config, logger *xlogger.Logger) (*ONNXClassifier, error) {
	if cfg.WindowBars <= 0 {
		cfg.WindowBars = 30
	}

	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	inputShape := ort.NewShape(1, int64(cfg.WindowBars), featuresPerBar)
	inputTensor, err := ort.NewTensor(inputShape, make([]float32, cfg.WindowBars*featuresPerBar))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{"input"}, []string{"output"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXClassifier{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
		window:  cfg.WindowBars,
		logger:  logger,
	}, nil
}

// Predict maps the most recent window of bars to a verdict and confidence.
// Short windows are a zero-confidence hold, never an error.
func (c *ONNXClassifier) Predict(bars []models.OHLCVBar) (int, float64, error) {
	if len(bars) < c.window {
		return 0, 0, nil
	}

	window := bars[len(bars)-c.window:]
	data := c.input.GetData()
	for i, bar := range window {
		off := i * featuresPerBar
		data[off+0] = float32(bar.Open.InexactFloat64())
		data[off+1] = float32(bar.High.InexactFloat64())
		data[off+2] = float32(bar.Low.InexactFloat64())
		data[off+3] = float32(bar.Close.InexactFloat64())
		data[off+4] = float32(bar.Volume.InexactFloat64())
	}

	if err := c.session.Run(); err != nil {
		return 0, 0, fmt.Errorf("onnx inference: %w", err)
	}

	out := c.output.GetData()
	if len(out) < 3 {
		return 0, 0, fmt.Errorf("unexpected model output size %d", len(out))
	}

	best, conf := 0, out[0]
	for i := 1; i < 3; i++ {
		if out[i] > conf {
			best, conf = i, out[i]
		}
	}
	// Output order: sell, hold, buy.
	return best - 1, float64(conf), nil
}

func (c *ONNXClassifier) Close() error {
	if c.session != nil {
		c.session.Destroy()
	}
	if c.input != nil {
		c.input.Destroy()
	}
	if c.output != nil {
		c.output.Destroy()
	}
	return nil
}
