package detection

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
)

// Demo chart data. Values above demoVMax overflow the plot area on purpose so
// the touch targets spread across the full chart height.
var (
	demoYears  = []int{1980, 1988, 1990, 1994, 1998}
	demoValues = []int{114, 220, 540, 360, 624}
)

const demoVMax = 400

var (
	demoBackground = color.NRGBA{248, 250, 252, 255}
	demoAxis       = color.NRGBA{180, 190, 200, 255}
	demoGrid       = color.NRGBA{200, 210, 220, 90}
	demoBar        = color.NRGBA{99, 132, 255, 255}
	demoText       = color.NRGBA{60, 72, 88, 255}
)

// demoDP converts a design unit to pixels at a fixed 2x scale.
func demoDP(v float64) int {
	return int(math.Round(v * 2))
}

// FallbackChart builds a deterministic synthetic bar chart for a screenshot
// of the given size.
//
// The chart occupies the screen with a 6% horizontal margin, 24% top margin
// and 26% bottom margin. Five bars are drawn and each gets a square touch
// target centred on the top edge of the bar. The same size always produces
// the same Result.
//
// Returns nil when the screenshot is too small to hold a chart.
func FallbackChart(width, height int) *chart.Result {
	marginX := int(float64(width) * 0.06)
	marginTop := int(float64(height) * 0.24)
	marginBottom := int(float64(height) * 0.26)
	rect := image.Rect(marginX, marginTop, width-marginX, height-marginBottom)
	cw, ch := rect.Dx(), rect.Dy()
	if cw <= 0 || ch <= 0 {
		return nil
	}

	canvas := imaging.New(cw, ch, demoBackground)

	// axes
	axisY := ch - demoDP(36)
	drawHLine(canvas, demoDP(48), cw-demoDP(20), axisY, 3, demoAxis)
	drawVLine(canvas, demoDP(48), demoDP(20), axisY, 3, demoAxis)

	// grid
	for i := 1; i <= 4; i++ {
		y := demoDP(20) + (ch-demoDP(56))*i/5
		drawHLine(canvas, demoDP(48), cw-demoDP(20), y, 1, demoGrid)
	}

	drawText(canvas, demoDP(56), demoDP(28), "Demo bar chart (sample data)", demoText)

	n := len(demoValues)
	plotLeft := float64(demoDP(64))
	plotRight := float64(cw - demoDP(28))
	plotBottom := float64(ch - demoDP(36))
	plotTop := float64(demoDP(36))
	plotW := plotRight - plotLeft
	plotH := plotBottom - plotTop

	barW := plotW / float64(n*2)
	gap := barW
	touch := demoDP(32)

	nodes := make([]chart.NodeSpec, 0, n)
	for i, v := range demoValues {
		cx := plotLeft + float64(i)*(barW+gap) + gap + barW/2
		h := float64(v) / demoVMax * plotH
		top := plotBottom - h

		bar := image.Rect(int(cx-barW/2), int(top), int(cx+barW/2), int(plotBottom))
		draw.Draw(canvas, bar, image.NewUniform(demoBar), image.Point{}, draw.Over)

		label := fmt.Sprintf("%d", demoYears[i])
		tw := font.MeasureString(basicfont.Face7x13, label).Round()
		drawText(canvas, int(cx)-tw/2, int(plotBottom)+demoDP(16), label, demoText)

		sx := rect.Min.X + int(math.Round(cx))
		sy := rect.Min.Y + int(math.Round(top))
		nodes = append(nodes, chart.NodeSpec{
			ID:    chart.FirstNodeID + i,
			Rect:  image.Rect(sx-touch/2, sy-touch/2, sx+touch/2, sy+touch/2),
			Label: fmt.Sprintf("In %d, value %d", demoYears[i], v),
		})
	}

	return &chart.Result{
		Bitmap:    canvas,
		Rect:      rect,
		Nodes:     nodes,
		Synthetic: true,
	}
}

func drawHLine(img draw.Image, x0, x1, y, thickness int, c color.Color) {
	r := image.Rect(x0, y-thickness/2, x1, y-thickness/2+thickness)
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

func drawVLine(img draw.Image, x, y0, y1, thickness int, c color.Color) {
	r := image.Rect(x-thickness/2, y0, x-thickness/2+thickness, y1)
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// drawText renders s with its baseline at y.
func drawText(img draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
