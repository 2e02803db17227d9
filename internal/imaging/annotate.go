package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
)

// AnnotateOptions controls debug rendering of detections.
type AnnotateOptions struct {
	// NumClasses spreads the palette hues. Zero picks the palette size from
	// the highest class id seen.
	NumClasses int

	// Thickness is the box outline width in pixels. Zero means 3.
	Thickness int

	// ShowLabels draws "<class> <pct>%" above each box.
	ShowLabels bool

	// Highlight, when non-empty, is tinted with HighlightColor to mark the
	// focused node.
	Highlight image.Rectangle

	// HighlightColor is a hex color like "#FFD400" or "#FFD40080".
	HighlightColor string
}

// ClassColor returns a stable, well separated color for class id out of n
// classes. Hues are spaced evenly around the HCL wheel.
func ClassColor(id, n int) color.RGBA {
	if n <= 0 {
		n = 1
	}
	h := float64(id%n) * 360.0 / float64(n)
	c := colorful.Hcl(h, 0.7, 0.6).Clamped()
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Annotate draws detection boxes and labels onto a copy of img.
//
// Boxes are in img's pixel space. The source image is not modified.
func Annotate(img image.Image, dets []chart.Detection, opts AnnotateOptions) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	n := opts.NumClasses
	if n == 0 {
		for _, d := range dets {
			if d.ClassID+1 > n {
				n = d.ClassID + 1
			}
		}
	}
	thickness := opts.Thickness
	if thickness <= 0 {
		thickness = 3
	}

	if !opts.Highlight.Empty() {
		tint, err := parseHexColor(opts.HighlightColor)
		if err != nil {
			tint = color.RGBA{255, 212, 0, 96}
		}
		tintRect(out, opts.Highlight.Add(bounds.Min), tint)
	}

	for _, d := range dets {
		c := ClassColor(d.ClassID, n)
		r := d.Box.Rect().Add(bounds.Min)
		strokeRect(out, r, thickness, c)

		if opts.ShowLabels {
			label := fmt.Sprintf("%s %d%%", d.ClassName, int(d.Confidence*100+0.5))
			drawLabel(out, r.Min.X, r.Min.Y-2, label, color.RGBA{255, 255, 255, 255}, c)
		}
	}
	return out
}

// NodeDetections converts the nodes of res into detections in bitmap
// coordinates, named by node label, so Annotate can draw a cached Result.
func NodeDetections(res *chart.Result) []chart.Detection {
	if res == nil {
		return nil
	}
	dets := make([]chart.Detection, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		r := n.Rect.Sub(res.Rect.Min)
		dets = append(dets, chart.Detection{
			ClassName:  n.Label,
			Confidence: 1,
			Box: chart.RectF{
				Left:   float64(r.Min.X),
				Top:    float64(r.Min.Y),
				Right:  float64(r.Max.X),
				Bottom: float64(r.Max.Y),
			},
		})
	}
	return dets
}

// SaveAnnotated writes an annotated frame to path as PNG.
func SaveAnnotated(path string, img image.Image) error {
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save annotated image: %w", err)
	}
	return nil
}

func strokeRect(img *image.RGBA, r image.Rectangle, t int, c color.RGBA) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
	}
}

// tintRect blends c over r in Lab space using c's alpha as the weight.
func tintRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	tint, _ := colorful.MakeColor(color.RGBA{c.R, c.G, c.B, 255})
	t := float64(c.A) / 255.0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			base, ok := colorful.MakeColor(img.RGBAAt(x, y))
			if !ok {
				continue
			}
			br, bg, bb := base.BlendLab(tint, t).Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{br, bg, bb, 255})
		}
	}
}

// drawLabel draws text on a filled background with its baseline at y.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Round()
	m := face.Metrics()
	bgRect := image.Rect(x, y-m.Ascent.Round()-1, x+w+2, y+m.Descent.Round()+1)
	draw.Draw(img, bgRect.Intersect(img.Bounds()), image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x+1, y),
	}
	d.DrawString(text)
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
