package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrModelUnavailable means no inference runner could be created.
	ErrModelUnavailable = errors.New("detection model unavailable")

	// ErrMalformedOutput means the model returned fewer floats than one
	// detection row.
	ErrMalformedOutput = errors.New("malformed model output")
)

// Runner executes the model on one preprocessed input tensor.
//
// input is the planar [1, 3, size, size] tensor produced by Preprocess. The
// returned slice is the flat model output in whatever layout the model emits;
// the Detector transposes it when configured to.
type Runner interface {
	Run(ctx context.Context, input []float32, size int) ([]float32, error)
	Close() error
}

// Opener creates a Runner. It is called lazily on the first detection and
// again on re-initialization after a failure.
type Opener func(ctx context.Context) (Runner, error)

// Backend names accepted by NewOpener.
const (
	BackendHTTP = "http"
	BackendGocv = "gocv"
	BackendNone = "none"
)

// RunnerConfig selects and configures an inference backend.
type RunnerConfig struct {
	Backend   string
	ModelPath string
	URL       string
	Timeout   time.Duration
}

// NewOpener returns the Opener for the configured backend. The "none" backend
// always fails with ErrModelUnavailable so every call uses the fallback chart.
func NewOpener(cfg RunnerConfig) (Opener, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendHTTP, "":
		return func(ctx context.Context) (Runner, error) {
			r := NewHTTPRunner(cfg.URL, cfg.Timeout)
			if err := r.CheckHealth(ctx); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			}
			return r, nil
		}, nil
	case BackendGocv:
		return func(ctx context.Context) (Runner, error) {
			return openGocvRunner(cfg.ModelPath)
		}, nil
	case BackendNone:
		return func(ctx context.Context) (Runner, error) {
			return nil, ErrModelUnavailable
		}, nil
	default:
		return nil, fmt.Errorf("unknown model backend: %s", cfg.Backend)
	}
}

// HTTPRunner delegates inference to an external model service.
//
// The request body is {"shape":[1,3,S,S],"data":[...]} and the service must
// answer {"output":[...]} with the flat model output.
type HTTPRunner struct {
	url    string
	client *http.Client
}

type inferRequest struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

type inferResponse struct {
	Output []float32 `json:"output"`
	Error  string    `json:"error,omitempty"`
}

// NewHTTPRunner creates a runner posting to url. A zero timeout means 10s.
func NewHTTPRunner(url string, timeout time.Duration) *HTTPRunner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRunner{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Run posts the tensor and returns the decoded output.
func (h *HTTPRunner) Run(ctx context.Context, input []float32, size int) ([]float32, error) {
	body, err := json.Marshal(inferRequest{Shape: []int{1, 3, size, size}, Data: input})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url+"/infer", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var out inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("inference service: %s", out.Error)
	}
	return out.Output, nil
}

// CheckHealth probes the service's /health endpoint.
func (h *HTTPRunner) CheckHealth(ctx context.Context) error {
	if h.url == "" {
		return errors.New("no inference URL configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (h *HTTPRunner) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
