// Package chart holds the records produced by one detection pass: raw
// detections, the navigable NodeSpecs derived from them, and the Result that
// bundles the cropped chart bitmap with its on-screen placement.
//
// All rectangles in this package use screen pixel coordinates with the
// origin at the top-left corner. Integer rectangles are image.Rectangle
// values (Min inclusive, Max exclusive); RectF is the floating-point form
// produced by the model decoder.
package chart

import (
	"image"
	"sort"
)

// FirstNodeID is the id given to the first NodeSpec of every pass.
const FirstNodeID = 100

// RectF is an axis-aligned rectangle with floating-point edges.
type RectF struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width returns Right - Left.
func (r RectF) Width() float64 { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r RectF) Height() float64 { return r.Bottom - r.Top }

// Area returns Width × Height. Inverted rectangles report a negative area.
func (r RectF) Area() float64 { return r.Width() * r.Height() }

// Empty reports whether the rectangle encloses no area.
func (r RectF) Empty() bool { return r.Left >= r.Right || r.Top >= r.Bottom }

// Intersect returns the overlap of r and o. The result is Empty when the
// rectangles do not overlap.
func (r RectF) Intersect(o RectF) RectF {
	out := RectF{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	if out.Empty() {
		return RectF{}
	}
	return out
}

// Rect converts to integer pixels by truncating every edge toward zero.
func (r RectF) Rect() image.Rectangle {
	return image.Rect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom))
}

// Detection is one decoded, thresholded model output row.
//
// The box is in original-image pixel space. Detections are ephemeral: they
// live only between postprocessing and NodeSpec assembly.
type Detection struct {
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"` // always in [0, 1]
	Box        RectF   `json:"box"`
}

// NodeSpec describes one navigable chart element.
type NodeSpec struct {
	// ID is unique within the Result that created the node.
	ID int `json:"id"`

	// Rect is the absolute screen rectangle. Never empty.
	Rect image.Rectangle `json:"rect"`

	// Label is the final user-facing text. Consumers speak it verbatim.
	Label string `json:"label"`
}

// Result is the output of one detection pass. A new Result replaces the
// previous one wholesale; nothing is merged.
type Result struct {
	// Bitmap is the cropped chart image shown in the panel.
	Bitmap image.Image `json:"-"`

	// Rect is where Bitmap was cropped from, in screen pixels.
	Rect image.Rectangle `json:"rect"`

	// Nodes are the navigable elements in detection order.
	Nodes []NodeSpec `json:"nodes"`

	// Synthetic marks results produced by the fallback generator.
	Synthetic bool `json:"synthetic"`
}

// SortReadingOrder returns a copy of nodes ordered left ascending, then top
// ascending. The sort is stable so equal positions keep detection order.
func SortReadingOrder(nodes []NodeSpec) []NodeSpec {
	out := make([]NodeSpec, len(nodes))
	copy(out, nodes)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Rect, out[j].Rect
		if a.Min.X != b.Min.X {
			return a.Min.X < b.Min.X
		}
		return a.Min.Y < b.Min.Y
	})
	return out
}

// Center returns the centre pixel of r using integer halving.
func Center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)>>1, (r.Min.Y+r.Max.Y)>>1)
}

// Offset returns a copy of r with Rect and every node rectangle moved by d.
// Capturers whose frames do not start at the screen origin use it to turn
// frame coordinates into screen coordinates.
func (r *Result) Offset(d image.Point) *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Rect = r.Rect.Add(d)
	out.Nodes = make([]NodeSpec, len(r.Nodes))
	for i, n := range r.Nodes {
		n.Rect = n.Rect.Add(d)
		out.Nodes[i] = n
	}
	return &out
}
