package detection

import (
	"math"
	"sort"

	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
)

// PostprocessParams controls how raw model output is decoded.
type PostprocessParams struct {
	// InputSize is the square side S the model was fed.
	InputSize int

	// OrigWidth and OrigHeight are the dimensions of the image before
	// preprocessing. Boxes are rescaled into this space.
	OrigWidth  int
	OrigHeight int

	// Classes supplies the class count and names.
	Classes ClassTable

	// ConfThreshold discards rows whose best class score is lower.
	ConfThreshold float64

	// IoUThreshold is the overlap above which a lower-confidence detection of
	// the same class is suppressed.
	IoUThreshold float64
}

// Postprocess decodes raw row-per-box output and applies per-class
// non-maximum suppression.
//
// Returns detections sorted by confidence descending. The result is empty,
// never nil, when nothing survives.
func Postprocess(output []float32, p PostprocessParams) []chart.Detection {
	return NMS(Decode(output, p), p.IoUThreshold)
}

// Decode turns row-per-box model output into thresholded detections.
//
// Each row holds (cx, cy, w, h) in model input pixels followed by one score
// per class. Trailing floats that do not fill a whole row are ignored.
//
// # Algorithm
//
//  1. Pick the class with the strictly highest score (ties keep the lowest id).
//  2. Drop the row when that score is below ConfThreshold.
//  3. Convert center form to corner form and scale x by OrigWidth/InputSize,
//     y by OrigHeight/InputSize.
//  4. Drop the row when any box coordinate is NaN or infinite.
//  5. Clip the box to [0, OrigWidth] × [0, OrigHeight].
func Decode(output []float32, p PostprocessParams) []chart.Detection {
	numClasses := p.Classes.Len()
	stride := 4 + numClasses
	if p.InputSize <= 0 || numClasses == 0 {
		return []chart.Detection{}
	}
	numBoxes := len(output) / stride

	sx := float64(p.OrigWidth) / float64(p.InputSize)
	sy := float64(p.OrigHeight) / float64(p.InputSize)
	w := float64(p.OrigWidth)
	h := float64(p.OrigHeight)

	dets := make([]chart.Detection, 0, numBoxes)
	for i := 0; i < numBoxes; i++ {
		row := output[i*stride : (i+1)*stride]

		best := -1
		bestScore := 0.0
		for c := 0; c < numClasses; c++ {
			s := float64(row[4+c])
			if s > bestScore {
				bestScore = s
				best = c
			}
		}
		if best < 0 || bestScore < p.ConfThreshold {
			continue
		}
		if bestScore > 1 {
			bestScore = 1
		}

		cx, cy := float64(row[0]), float64(row[1])
		bw, bh := float64(row[2]), float64(row[3])
		if !finite(cx, cy, bw, bh) {
			continue
		}
		box := chart.RectF{
			Left:   clamp((cx-bw/2)*sx, 0, w),
			Top:    clamp((cy-bh/2)*sy, 0, h),
			Right:  clamp((cx+bw/2)*sx, 0, w),
			Bottom: clamp((cy+bh/2)*sy, 0, h),
		}

		dets = append(dets, chart.Detection{
			ClassID:    best,
			ClassName:  p.Classes.ClassName(best),
			Confidence: bestScore,
			Box:        box,
		})
	}
	return dets
}

// NMS performs per-class non-maximum suppression.
//
// Detections are stably sorted by confidence descending, then each one is
// kept unless an already kept detection of the same class overlaps it with
// IoU greater than iouThreshold. Detections of different classes never
// suppress each other.
//
// NMS is idempotent: NMS(NMS(d)) equals NMS(d).
func NMS(dets []chart.Detection, iouThreshold float64) []chart.Detection {
	sorted := make([]chart.Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]chart.Detection, 0, len(sorted))
	for _, d := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.ClassID == d.ClassID && IoU(k.Box, d.Box) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, d)
		}
	}
	return kept
}

// IoU returns the intersection-over-union of two boxes in [0, 1].
// Returns 0 when the union has no area.
func IoU(a, b chart.RectF) float64 {
	ix := max(0, min(a.Right, b.Right)-max(a.Left, b.Left))
	iy := max(0, min(a.Bottom, b.Bottom)-max(a.Top, b.Top))
	inter := ix * iy
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Transpose converts a rows×cols row-major matrix to cols×rows.
//
// Model exports emit [4+C, N] (one row per attribute); Decode expects one row
// per box. Elements beyond rows·cols are dropped. If output is shorter than
// rows·cols the missing cells read as zero.
func Transpose(output []float32, rows, cols int) []float32 {
	if rows <= 0 || cols <= 0 {
		return []float32{}
	}
	out := make([]float32, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			src := r*cols + c
			if src < len(output) {
				out[c*rows+r] = output[src]
			}
		}
	}
	return out
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
