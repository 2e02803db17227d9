package detection

import (
	"image"
	"reflect"
	"testing"

	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
)

func TestFallbackChart_Layout(t *testing.T) {
	res := FallbackChart(1080, 2400)
	if res == nil {
		t.Fatal("FallbackChart returned nil")
	}
	if !res.Synthetic {
		t.Error("fallback result should be synthetic")
	}

	if want := image.Rect(64, 576, 1016, 1776); res.Rect != want {
		t.Errorf("chart rect: got %v, want %v", res.Rect, want)
	}
	if b := res.Bitmap.Bounds(); b.Dx() != res.Rect.Dx() || b.Dy() != res.Rect.Dy() {
		t.Errorf("bitmap size %v does not match rect %v", b, res.Rect)
	}

	wantLabels := []string{
		"In 1980, value 114",
		"In 1988, value 220",
		"In 1990, value 540",
		"In 1994, value 360",
		"In 1998, value 624",
	}
	if len(res.Nodes) != len(wantLabels) {
		t.Fatalf("nodes: got %d, want %d", len(res.Nodes), len(wantLabels))
	}
	for i, n := range res.Nodes {
		if n.ID != chart.FirstNodeID+i {
			t.Errorf("node %d id: got %d, want %d", i, n.ID, chart.FirstNodeID+i)
		}
		if n.Label != wantLabels[i] {
			t.Errorf("node %d label: got %q, want %q", i, n.Label, wantLabels[i])
		}
		if n.Rect.Dx() != 64 || n.Rect.Dy() != 64 {
			t.Errorf("node %d touch target: got %dx%d, want 64x64", i, n.Rect.Dx(), n.Rect.Dy())
		}
		if i > 0 && n.Rect.Min.X <= res.Nodes[i-1].Rect.Min.X {
			t.Errorf("node %d should be right of node %d", i, i-1)
		}
	}
}

func TestFallbackChart_Deterministic(t *testing.T) {
	a := FallbackChart(1280, 720)
	b := FallbackChart(1280, 720)
	if a == nil || b == nil {
		t.Fatal("FallbackChart returned nil")
	}
	if a.Rect != b.Rect || !reflect.DeepEqual(a.Nodes, b.Nodes) {
		t.Error("FallbackChart is not deterministic")
	}
}

func TestFallbackChart_Degenerate(t *testing.T) {
	if res := FallbackChart(0, 0); res != nil {
		t.Errorf("FallbackChart(0, 0): got %+v, want nil", res)
	}
}
