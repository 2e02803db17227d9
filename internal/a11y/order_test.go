package a11y

import (
	"image"
	"testing"
)

func TestSortHostReadingOrder(t *testing.T) {
	nodes := []HostNode{
		{ID: "c", Bounds: image.Rect(300, 105, 400, 150)},
		{ID: "d", Bounds: image.Rect(0, 300, 100, 350)},
		{ID: "a", Bounds: image.Rect(0, 100, 100, 150)},
		{ID: "b", Bounds: image.Rect(150, 96, 250, 150)},
	}
	SortHostReadingOrder(nodes, 1)

	got := ""
	for _, n := range nodes {
		got += n.ID
	}
	if got != "abcd" {
		t.Errorf("order: got %q, want %q", got, "abcd")
	}
}

func TestSortHostReadingOrder_RightEdgeTieBreak(t *testing.T) {
	nodes := []HostNode{
		{ID: "wide", Bounds: image.Rect(0, 0, 500, 40)},
		{ID: "narrow", Bounds: image.Rect(0, 0, 50, 40)},
	}
	SortHostReadingOrder(nodes, 2)
	if nodes[0].ID != "narrow" {
		t.Errorf("first: got %q, want narrow", nodes[0].ID)
	}
}

func TestComputeNeighbors(t *testing.T) {
	chartRect := image.Rect(100, 400, 1000, 900)
	root := &HostNode{
		ID:      "root",
		Bounds:  image.Rect(0, 0, 1080, 2000),
		Visible: true,
		Children: []HostNode{
			{ID: "header", Bounds: image.Rect(0, 0, 1080, 100), Visible: true, Focusable: true},
			{ID: "panel", Bounds: image.Rect(0, 380, 1080, 920), Visible: true, Children: []HostNode{
				{ID: "left", Bounds: image.Rect(0, 400, 100, 450), Visible: true, Clickable: true},
				{ID: "bar", Bounds: image.Rect(200, 500, 300, 600), Visible: true, Focusable: true},
				{ID: "right", Bounds: image.Rect(1000, 412, 1080, 450), Visible: true, Clickable: true},
			}},
			{ID: "hidden", Bounds: image.Rect(0, 950, 1080, 990), Focusable: true},
			{ID: "footer", Bounds: image.Rect(0, 1000, 1080, 1100), Visible: true, Focusable: true},
		},
	}

	ng := ComputeNeighbors(root, chartRect, 2)
	if ng.Prev == nil || ng.Prev.ID != "left" {
		t.Errorf("prev: got %+v, want left", ng.Prev)
	}
	if ng.Next == nil || ng.Next.ID != "right" {
		t.Errorf("next: got %+v, want right", ng.Next)
	}
}

func TestComputeNeighbors_Edges(t *testing.T) {
	chartRect := image.Rect(0, 0, 1080, 500)

	below := &HostNode{ID: "root", Visible: true, Focusable: true, Bounds: image.Rect(0, 600, 1080, 700)}
	ng := ComputeNeighbors(below, chartRect, 1)
	if ng.Prev != nil {
		t.Errorf("prev: got %+v, want nil", ng.Prev)
	}
	if ng.Next == nil || ng.Next.ID != "root" {
		t.Errorf("next: got %+v, want root", ng.Next)
	}

	inside := &HostNode{ID: "root", Visible: true, Focusable: true, Bounds: image.Rect(10, 10, 20, 20)}
	if ng := ComputeNeighbors(inside, chartRect, 1); ng.Prev != nil || ng.Next != nil {
		t.Errorf("element inside chart should be ignored: got %+v", ng)
	}

	if ng := ComputeNeighbors(nil, chartRect, 1); ng.Prev != nil || ng.Next != nil {
		t.Errorf("nil root: got %+v", ng)
	}
}
