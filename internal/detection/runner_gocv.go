//go:build gocv

package detection

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// GocvRunner runs an ONNX export in-process through OpenCV's DNN module.
type GocvRunner struct {
	mu  sync.Mutex
	net gocv.Net
}

func openGocvRunner(modelPath string) (Runner, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("%w: no model path configured", ErrModelUnavailable)
	}
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: cannot load %s", ErrModelUnavailable, modelPath)
	}
	return &GocvRunner{net: net}, nil
}

// Run feeds the planar tensor as a [1, 3, size, size] blob and returns the
// flat output of the default output layer.
func (g *GocvRunner) Run(ctx context.Context, input []float32, size int) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := make([]byte, 4*len(input))
	for i, v := range input {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	blob, err := gocv.NewMatWithSizesFromBytes([]int{1, 3, size, size}, gocv.MatTypeCV32F, raw)
	if err != nil {
		return nil, fmt.Errorf("create input blob: %w", err)
	}
	defer blob.Close()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.net.SetInput(blob, "")
	out := g.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}
	result := make([]float32, len(data))
	copy(result, data)
	return result, nil
}

// Close releases the network.
func (g *GocvRunner) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.net.Close()
}
