package a11y

import (
	"image"
	"math"
	"sort"
)

// HostNode is a snapshot of one element of the host's own accessibility
// tree, used to place the chart panel within the surrounding reading order.
type HostNode struct {
	ID        string          `json:"id"`
	Bounds    image.Rectangle `json:"bounds"`
	Visible   bool            `json:"visible"`
	Focusable bool            `json:"focusable"`
	Clickable bool            `json:"clickable"`
	Children  []HostNode      `json:"children,omitempty"`
}

// Neighbors are the host elements read immediately before and after the
// chart. Either may be nil.
type Neighbors struct {
	Prev *HostNode `json:"prev,omitempty"`
	Next *HostNode `json:"next,omitempty"`
}

// rowEpsilon is the vertical tolerance, in dp, for two elements to share a
// row.
const rowEpsilon = 8

// SortHostReadingOrder orders nodes top to bottom, then left to right. Tops
// within 8dp·density of each other count as one row.
func SortHostReadingOrder(nodes []HostNode, density float64) {
	eps := int(math.Floor(rowEpsilon*density + 0.5))
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Bounds, nodes[j].Bounds
		if dy := a.Min.Y - b.Min.Y; dy > eps || dy < -eps {
			return dy < 0
		}
		if a.Min.X != b.Min.X {
			return a.Min.X < b.Min.X
		}
		return a.Max.X < b.Max.X
	})
}

// ComputeNeighbors finds the host elements that come just before and after
// chartRect in reading order.
//
// Candidates are visible elements that are focusable or clickable and not
// entirely inside chartRect; elements that only partly overlap the chart
// count as outside. The chart is inserted before the first candidate that
// starts on a lower row, or on the same row at or right of the chart.
func ComputeNeighbors(root *HostNode, chartRect image.Rectangle, density float64) Neighbors {
	var ng Neighbors
	if root == nil || chartRect.Empty() {
		return ng
	}

	var cand []HostNode
	var walk func(n *HostNode)
	walk = func(n *HostNode) {
		if n.Visible && (n.Focusable || n.Clickable) && !n.Bounds.In(chartRect) {
			leaf := *n
			leaf.Children = nil
			cand = append(cand, leaf)
		}
		for i := range n.Children {
			walk(&n.Children[i])
		}
	}
	walk(root)

	SortHostReadingOrder(cand, density)

	eps := int(math.Floor(rowEpsilon*density + 0.5))
	insert := 0
	for ; insert < len(cand); insert++ {
		if goesAfter(cand[insert].Bounds, chartRect, eps) {
			break
		}
	}
	if insert > 0 {
		prev := cand[insert-1]
		ng.Prev = &prev
	}
	if insert < len(cand) {
		next := cand[insert]
		ng.Next = &next
	}
	return ng
}

func goesAfter(r, chart image.Rectangle, eps int) bool {
	if r.Min.Y > chart.Min.Y+eps {
		return true
	}
	dy := r.Min.Y - chart.Min.Y
	return dy <= eps && dy >= -eps && r.Min.X >= chart.Min.X
}
