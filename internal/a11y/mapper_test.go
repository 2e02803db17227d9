package a11y

import (
	"image"
	"math"
	"testing"
)

func TestMapper_StretchToWidth(t *testing.T) {
	var m Mapper
	if !m.Recompute(image.Rect(0, 0, 1280, 720), 1280, 720, 1080, 1000) {
		t.Fatal("Recompute failed")
	}
	if m.Scale() != 0.84375 {
		t.Errorf("scale: got %v, want 0.84375", m.Scale())
	}
	if want := image.Rect(0, 196, 1080, 804); m.ImageRect() != want {
		t.Errorf("image rect: got %v, want %v", m.ImageRect(), want)
	}

	got := m.MapRect(image.Rect(100, 100, 200, 200))
	if want := image.Rect(84, 280, 169, 365); got != want {
		t.Errorf("MapRect: got %v, want %v", got, want)
	}
	if again := m.MapRect(image.Rect(100, 100, 200, 200)); again != got {
		t.Errorf("MapRect not reproducible: %v vs %v", again, got)
	}
}

func TestMapper_ChartOrigin(t *testing.T) {
	var m Mapper
	// 400×200 bitmap cropped at (50, 300) shown 800 wide in a 600 tall panel.
	m.Recompute(image.Rect(50, 300, 450, 500), 400, 200, 800, 600)

	if m.Scale() != 2 {
		t.Fatalf("scale: got %v, want 2", m.Scale())
	}
	if want := image.Rect(0, 100, 800, 500); m.ImageRect() != want {
		t.Errorf("image rect: got %v, want %v", m.ImageRect(), want)
	}

	got := m.MapRect(image.Rect(60, 310, 70, 320))
	if want := image.Rect(20, 120, 40, 140); got != want {
		t.Errorf("MapRect: got %v, want %v", got, want)
	}

	x, y := m.ToScreen(20, 120)
	if math.Abs(x-60) > 1e-9 || math.Abs(y-310) > 1e-9 {
		t.Errorf("ToScreen: got (%v,%v), want (60,310)", x, y)
	}
}

func TestMapper_TallBitmapClampsTop(t *testing.T) {
	var m Mapper
	m.Recompute(image.Rect(0, 0, 100, 1000), 100, 1000, 200, 500)
	if m.ImageRect().Min.Y != 0 {
		t.Errorf("top: got %d, want 0", m.ImageRect().Min.Y)
	}
	if m.ImageRect().Dy() != 2000 {
		t.Errorf("height: got %d, want 2000", m.ImageRect().Dy())
	}
}

func TestMapper_RoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		chart  image.Rectangle
		bw, bh int
		vw, vh int
	}{
		{"downscale", image.Rect(0, 0, 1280, 720), 1280, 720, 1080, 1000},
		{"upscale", image.Rect(64, 576, 1016, 1776), 952, 1200, 1440, 2000},
		{"offset", image.Rect(13, 27, 613, 427), 600, 400, 333, 999},
	}
	rects := []image.Rectangle{
		image.Rect(100, 100, 200, 200),
		image.Rect(13, 27, 14, 28),
		image.Rect(250, 300, 411, 377),
		image.Rect(599, 399, 613, 427),
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m Mapper
			m.Recompute(tc.chart, tc.bw, tc.bh, tc.vw, tc.vh)
			for _, r := range rects {
				back := m.UnmapRect(m.MapRect(r))
				if absInt(back.Min.X-r.Min.X) > 1 || absInt(back.Min.Y-r.Min.Y) > 1 ||
					absInt(back.Max.X-r.Max.X) > 1 || absInt(back.Max.Y-r.Max.Y) > 1 {
					t.Errorf("round trip %v -> %v -> %v exceeds 1px", r, m.MapRect(r), back)
				}
			}
		})
	}
}

func TestMapper_Invalid(t *testing.T) {
	var m Mapper
	if m.Valid() {
		t.Error("zero Mapper should be invalid")
	}
	if m.Recompute(image.Rect(0, 0, 10, 10), 10, 10, 0, 100) {
		t.Error("zero viewport width should fail")
	}
	if !m.ImageRect().Empty() {
		t.Errorf("invalid mapper image rect: got %v, want empty", m.ImageRect())
	}
	if got := m.MapRect(image.Rect(0, 0, 5, 5)); !got.Empty() {
		t.Errorf("invalid mapper MapRect: got %v, want empty", got)
	}
	x, y := m.ToLocal(3, 4)
	if x != 3 || y != 4 {
		t.Errorf("invalid mapper ToLocal: got (%v,%v), want identity", x, y)
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := map[float64]int{
		84.375: 84, 168.75: 169, 0.5: 1, -0.5: 0, -0.6: -1, 2.4999: 2,
	}
	for in, want := range tests {
		if got := roundHalfUp(in); got != want {
			t.Errorf("roundHalfUp(%v): got %d, want %d", in, got, want)
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
