package chart

import (
	"image"
	"testing"
)

func TestRectF_Intersect(t *testing.T) {
	tests := []struct {
		name string
		a, b RectF
		want RectF
	}{
		{"overlap", RectF{0, 0, 10, 10}, RectF{5, 5, 15, 15}, RectF{5, 5, 10, 10}},
		{"contained", RectF{0, 0, 10, 10}, RectF{2, 3, 4, 5}, RectF{2, 3, 4, 5}},
		{"disjoint", RectF{0, 0, 10, 10}, RectF{20, 20, 30, 30}, RectF{}},
		{"touching edge", RectF{0, 0, 10, 10}, RectF{10, 0, 20, 10}, RectF{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Intersect(tt.b)
			if got != tt.want {
				t.Errorf("Intersect: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectF_Measurements(t *testing.T) {
	r := RectF{Left: 1.5, Top: 2, Right: 4.5, Bottom: 6}
	if r.Width() != 3 {
		t.Errorf("Width: got %v, want 3", r.Width())
	}
	if r.Height() != 4 {
		t.Errorf("Height: got %v, want 4", r.Height())
	}
	if r.Area() != 12 {
		t.Errorf("Area: got %v, want 12", r.Area())
	}
	if r.Empty() {
		t.Error("Empty: got true, want false")
	}
	if got, want := r.Rect(), image.Rect(1, 2, 4, 6); got != want {
		t.Errorf("Rect: got %v, want %v", got, want)
	}

	inverted := RectF{Left: 5, Top: 0, Right: 1, Bottom: 2}
	if !inverted.Empty() {
		t.Error("inverted Empty: got false, want true")
	}
	if inverted.Area() >= 0 {
		t.Errorf("inverted Area: got %v, want negative", inverted.Area())
	}
}

func TestSortReadingOrder(t *testing.T) {
	nodes := []NodeSpec{
		{ID: 100, Rect: image.Rect(50, 10, 60, 20)},
		{ID: 101, Rect: image.Rect(10, 40, 20, 50)},
		{ID: 102, Rect: image.Rect(10, 5, 20, 15)},
		{ID: 103, Rect: image.Rect(50, 10, 70, 30)},
	}

	got := SortReadingOrder(nodes)
	want := []int{102, 101, 100, 103}
	if len(got) != len(want) {
		t.Fatalf("len: got %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("order[%d]: got %d, want %d", i, got[i].ID, id)
		}
	}

	// Input is untouched
	if nodes[0].ID != 100 {
		t.Errorf("input reordered: got first id %d, want 100", nodes[0].ID)
	}
}

func TestCenter(t *testing.T) {
	tests := []struct {
		r    image.Rectangle
		want image.Point
	}{
		{image.Rect(0, 0, 10, 10), image.Pt(5, 5)},
		{image.Rect(0, 0, 11, 7), image.Pt(5, 3)},
		{image.Rect(-10, -4, 0, 0), image.Pt(-5, -2)},
	}
	for _, tt := range tests {
		if got := Center(tt.r); got != tt.want {
			t.Errorf("Center(%v): got %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestResult_Offset(t *testing.T) {
	res := &Result{
		Rect:  image.Rect(10, 20, 110, 220),
		Nodes: []NodeSpec{{ID: 100, Rect: image.Rect(15, 25, 30, 40), Label: "Title"}},
	}

	got := res.Offset(image.Pt(5, -5))
	if got.Rect != image.Rect(15, 15, 115, 215) {
		t.Errorf("Rect: got %v, want %v", got.Rect, image.Rect(15, 15, 115, 215))
	}
	if got.Nodes[0].Rect != image.Rect(20, 20, 35, 35) {
		t.Errorf("node Rect: got %v, want %v", got.Nodes[0].Rect, image.Rect(20, 20, 35, 35))
	}
	if got.Nodes[0].Label != "Title" {
		t.Errorf("node Label: got %q, want %q", got.Nodes[0].Label, "Title")
	}
	if res.Nodes[0].Rect != image.Rect(15, 25, 30, 40) {
		t.Errorf("original node moved: got %v", res.Nodes[0].Rect)
	}

	var nilRes *Result
	if nilRes.Offset(image.Pt(1, 1)) != nil {
		t.Error("nil Offset: want nil")
	}
}
