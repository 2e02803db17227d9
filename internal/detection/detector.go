package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
	chartimg "github.com/ironsheep/chart-a11y-mcp/internal/imaging"
	"github.com/ironsheep/chart-a11y-mcp/internal/logutil"
)

// Config holds detector parameters.
type Config struct {
	// InputSize is the square model input side S.
	InputSize int

	// ConfThreshold discards detections scoring below it.
	ConfThreshold float64

	// IoUThreshold is the per-class NMS overlap limit.
	IoUThreshold float64

	// Classes is the taxonomy the model was trained on.
	Classes ClassTable

	// Transpose converts [4+C, N] model output to row-per-box before decoding.
	Transpose bool

	// InitRetry is the minimum time between runner initialization attempts
	// after a failure.
	InitRetry time.Duration
}

// DefaultConfig returns the parameters of the chart-type model.
func DefaultConfig() Config {
	return Config{
		InputSize:     640,
		ConfThreshold: 0.25,
		IoUThreshold:  0.45,
		Classes:       ChartTypes,
		Transpose:     true,
		InitRetry:     30 * time.Second,
	}
}

// Status reports the runner state for diagnostics.
type Status struct {
	Ready     bool      `json:"ready"`
	LastError string    `json:"last_error,omitempty"`
	LastInit  time.Time `json:"last_init,omitempty"`
	Classes   []string  `json:"classes"`
}

// Detector turns screenshots into chart Results.
//
// The inference runner is created lazily on first use. While it is
// unavailable, and whenever a single inference fails, DetectSingleChart
// answers with the synthetic FallbackChart instead of an error.
//
// Detector is safe for concurrent use. Reinit and Close wait for inferences
// in flight before releasing the runner.
type Detector struct {
	cfg  Config
	open Opener

	// runMu is held for reading across every use of the runner and for
	// writing while the runner is released.
	runMu sync.RWMutex

	mu       sync.Mutex
	runner   Runner
	initErr  error
	lastInit time.Time

	now func() time.Time
}

// New creates a Detector. open may be nil, in which case the model is always
// unavailable.
func New(cfg Config, open Opener) *Detector {
	if cfg.InputSize <= 0 {
		cfg.InputSize = DefaultConfig().InputSize
	}
	if cfg.Classes.Len() == 0 {
		cfg.Classes = ChartTypes
	}
	return &Detector{cfg: cfg, open: open, now: time.Now}
}

// Config returns the detector parameters.
func (d *Detector) Config() Config { return d.cfg }

// DetectSingleChart finds the dominant chart in a screenshot.
//
// Returns nil when img is nil or when the model ran and found nothing. On
// any model failure the synthetic fallback chart is returned instead, so the
// caller never sees an error.
//
// Detections whose box truncates to an empty pixel rectangle are dropped
// first. On success the highest-confidence remaining detection defines the
// chart region, the bitmap is cropped from img (clamped to its bounds) and
// every remaining detection becomes a NodeSpec with ids assigned from
// chart.FirstNodeID in confidence order.
func (d *Detector) DetectSingleChart(ctx context.Context, img image.Image) *chart.Result {
	if img == nil {
		logutil.Warnf("detector: screenshot is nil")
		return nil
	}

	dets, err := d.Detect(ctx, img)
	if err != nil {
		logutil.Warnf("detector: %v, using fallback chart", err)
		b := img.Bounds()
		return FallbackChart(b.Dx(), b.Dy())
	}
	dets = dropEmpty(dets)
	if len(dets) == 0 {
		logutil.Debugf("detector: no detections found")
		return nil
	}
	return d.buildResult(img, dets)
}

// dropEmpty keeps the detections that cover at least one whole pixel.
func dropEmpty(dets []chart.Detection) []chart.Detection {
	out := dets[:0:0]
	for _, det := range dets {
		if det.Box.Rect().Empty() {
			continue
		}
		out = append(out, det)
	}
	return out
}

// Detect runs preprocessing, inference and postprocessing and returns the
// raw detections sorted by confidence.
//
// Errors wrap ErrModelUnavailable when no runner exists. Malformed output is
// logged and reported as zero detections. Panics inside the pipeline,
// runner initialization included, are recovered and returned as errors.
func (d *Detector) Detect(ctx context.Context, img image.Image) (dets []chart.Detection, err error) {
	if img == nil {
		return nil, errors.New("nil image")
	}

	defer func() {
		if r := recover(); r != nil {
			dets = nil
			err = fmt.Errorf("inference panic: %v", r)
		}
	}()

	d.runMu.RLock()
	defer d.runMu.RUnlock()

	runner, err := d.ensureRunner(ctx)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	input := Preprocess(img, d.cfg.InputSize)

	output, err := runner.Run(ctx, input, d.cfg.InputSize)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	stride := 4 + d.cfg.Classes.Len()
	numBoxes := len(output) / stride
	if numBoxes == 0 {
		logutil.Warnf("detector: %v: %d floats, need at least %d", ErrMalformedOutput, len(output), stride)
		return []chart.Detection{}, nil
	}
	if d.cfg.Transpose {
		output = Transpose(output, stride, numBoxes)
	}

	return Postprocess(output, PostprocessParams{
		InputSize:     d.cfg.InputSize,
		OrigWidth:     b.Dx(),
		OrigHeight:    b.Dy(),
		Classes:       d.cfg.Classes,
		ConfThreshold: d.cfg.ConfThreshold,
		IoUThreshold:  d.cfg.IoUThreshold,
	}), nil
}

// Reinit waits for inferences in flight, closes the current runner, if any,
// and forces the next detection to open a fresh one regardless of the retry
// interval.
func (d *Detector) Reinit() {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.runner != nil {
		if err := d.runner.Close(); err != nil {
			logutil.Warnf("detector: close runner: %v", err)
		}
		d.runner = nil
	}
	d.initErr = nil
	d.lastInit = time.Time{}
}

// Status returns the current runner state.
func (d *Detector) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := Status{
		Ready:    d.runner != nil,
		LastInit: d.lastInit,
		Classes:  d.cfg.Classes.Names(),
	}
	if d.initErr != nil {
		s.LastError = d.initErr.Error()
	}
	return s
}

// Close waits for inferences in flight and releases the runner.
func (d *Detector) Close() error {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.runner == nil {
		return nil
	}
	err := d.runner.Close()
	d.runner = nil
	return err
}

func (d *Detector) ensureRunner(ctx context.Context) (Runner, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.runner != nil {
		return d.runner, nil
	}
	if d.open == nil {
		return nil, ErrModelUnavailable
	}
	if d.initErr != nil && d.now().Sub(d.lastInit) < d.cfg.InitRetry {
		return nil, d.initErr
	}

	d.lastInit = d.now()
	r, err := openRunner(ctx, d.open)
	if err != nil {
		if !errors.Is(err, ErrModelUnavailable) {
			err = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		d.initErr = err
		return nil, err
	}
	d.initErr = nil
	d.runner = r
	logutil.Infof("detector: model runner ready (%d classes, input %d)", d.cfg.Classes.Len(), d.cfg.InputSize)
	return r, nil
}

// openRunner calls open, turning a panic during model loading into an error.
func openRunner(ctx context.Context, open Opener) (r Runner, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("runner init panic: %v", p)
		}
	}()
	return open(ctx)
}

func (d *Detector) buildResult(img image.Image, dets []chart.Detection) *chart.Result {
	rect := dets[0].Box.Rect()
	bitmap, _ := chartimg.CropClamped(img, rect.Add(img.Bounds().Min))

	nodes := make([]chart.NodeSpec, 0, len(dets))
	for _, det := range dets {
		nodes = append(nodes, chart.NodeSpec{
			ID:    chart.FirstNodeID + len(nodes),
			Rect:  det.Box.Rect(),
			Label: d.cfg.Classes.Label(det),
		})
	}

	return &chart.Result{
		Bitmap: bitmap,
		Rect:   rect,
		Nodes:  nodes,
	}
}
