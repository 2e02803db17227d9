package a11y

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mapper converts between absolute screen pixels and the panel's local
// pixels for one displayed chart bitmap.
//
// The layout policy is stretch-to-width with vertical centering: the bitmap
// is scaled by s = vw/bw so it fills the viewport width, its displayed height
// is round(bh·s), and it is centred vertically (top clamped at 0). A screen
// point p maps to imageOrigin + (p − chartOrigin)·s.
//
// The forward and inverse transforms are held as 3×3 affine matrices. The
// zero Mapper is invalid and maps nothing into the image.
type Mapper struct {
	chartOrigin image.Point
	bitmap      image.Point
	viewport    image.Point

	scale    float64
	imageDst image.Rectangle

	fwd   *mat.Dense
	inv   *mat.Dense
	valid bool
}

// Recompute derives the mapping for a bitmap of size bw×bh cropped from
// chartRect and shown in a vw×vh viewport.
//
// Returns false, leaving the Mapper invalid, when any dimension is not
// positive.
func (m *Mapper) Recompute(chartRect image.Rectangle, bw, bh, vw, vh int) bool {
	m.chartOrigin = chartRect.Min
	m.bitmap = image.Pt(bw, bh)
	m.viewport = image.Pt(vw, vh)

	if bw <= 0 || bh <= 0 || vw <= 0 || vh <= 0 {
		m.valid = false
		m.scale = 1
		m.imageDst = image.Rectangle{}
		m.fwd, m.inv = nil, nil
		return false
	}

	s := float64(vw) / float64(bw)
	dh := int(math.Floor(float64(bh)*s + 0.5))
	top := (vh - dh) / 2
	if top < 0 {
		top = 0
	}

	m.scale = s
	m.imageDst = image.Rect(0, top, vw, top+dh)

	ox := float64(m.imageDst.Min.X) - float64(m.chartOrigin.X)*s
	oy := float64(m.imageDst.Min.Y) - float64(m.chartOrigin.Y)*s
	m.fwd = mat.NewDense(3, 3, []float64{
		s, 0, ox,
		0, s, oy,
		0, 0, 1,
	})

	var inv mat.Dense
	if err := inv.Inverse(m.fwd); err != nil {
		m.valid = false
		return false
	}
	m.inv = &inv
	m.valid = true
	return true
}

// Valid reports whether the last Recompute succeeded.
func (m *Mapper) Valid() bool { return m.valid }

// Scale returns the bitmap-to-panel scale factor s.
func (m *Mapper) Scale() float64 { return m.scale }

// ImageRect returns where the bitmap is drawn in local pixels. Empty while
// the Mapper is invalid.
func (m *Mapper) ImageRect() image.Rectangle { return m.imageDst }

// Viewport returns the panel size used by the last Recompute.
func (m *Mapper) Viewport() image.Point { return m.viewport }

// ToLocal maps a screen point into local panel space without rounding.
func (m *Mapper) ToLocal(x, y float64) (float64, float64) {
	if !m.valid {
		return x, y
	}
	return apply(m.fwd, x, y)
}

// ToScreen maps a local panel point back to screen space without rounding.
func (m *Mapper) ToScreen(x, y float64) (float64, float64) {
	if !m.valid {
		return x, y
	}
	return apply(m.inv, x, y)
}

// MapRect maps a screen rectangle to local panel pixels. Each edge is
// transformed independently and rounded half up.
func (m *Mapper) MapRect(r image.Rectangle) image.Rectangle {
	if !m.valid {
		return image.Rectangle{}
	}
	l, t := apply(m.fwd, float64(r.Min.X), float64(r.Min.Y))
	rr, b := apply(m.fwd, float64(r.Max.X), float64(r.Max.Y))
	return image.Rect(roundHalfUp(l), roundHalfUp(t), roundHalfUp(rr), roundHalfUp(b))
}

// UnmapRect maps a local rectangle back to screen pixels, rounding each edge
// half up. UnmapRect(MapRect(r)) reproduces r within one pixel per edge
// whenever s ≥ 0.5.
func (m *Mapper) UnmapRect(r image.Rectangle) image.Rectangle {
	if !m.valid {
		return image.Rectangle{}
	}
	l, t := apply(m.inv, float64(r.Min.X), float64(r.Min.Y))
	rr, b := apply(m.inv, float64(r.Max.X), float64(r.Max.Y))
	return image.Rect(roundHalfUp(l), roundHalfUp(t), roundHalfUp(rr), roundHalfUp(b))
}

func apply(t *mat.Dense, x, y float64) (float64, float64) {
	var out mat.VecDense
	out.MulVec(t, mat.NewVecDense(3, []float64{x, y, 1}))
	return out.AtVec(0), out.AtVec(1)
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
