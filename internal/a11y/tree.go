package a11y

import (
	"image"

	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
)

// EventType identifies a tree notification.
type EventType int

const (
	// EventContentChanged fires after Bind replaces the node list.
	EventContentChanged EventType = iota
	// EventFocused fires when a node gains focus.
	EventFocused
	// EventFocusCleared fires when focus is removed.
	EventFocusCleared
	// EventClicked fires after a successful Activate.
	EventClicked
)

func (t EventType) String() string {
	switch t {
	case EventContentChanged:
		return "content_changed"
	case EventFocused:
		return "focused"
	case EventFocusCleared:
		return "focus_cleared"
	case EventClicked:
		return "clicked"
	default:
		return "unknown"
	}
}

// Event is a tree notification for the host's accessibility layer.
type Event struct {
	Type  EventType `json:"-"`
	Name  string    `json:"type"`
	ID    int       `json:"id,omitempty"`
	Label string    `json:"label,omitempty"`
}

// Tree exposes the nodes of one chart.Result as virtual accessibility
// elements inside the panel.
//
// Tree is not safe for concurrent use; it belongs to the event loop.
type Tree struct {
	tapper  Tapper
	onEvent func(Event)

	result   *chart.Result
	nodes    []chart.NodeSpec
	mapper   Mapper
	viewport image.Point

	focused    int
	hasFocused bool
}

// NewTree creates an empty tree. onEvent may be nil.
func NewTree(tapper Tapper, onEvent func(Event)) *Tree {
	return &Tree{tapper: tapper, onEvent: onEvent}
}

// Bind replaces the tree contents with res. Nodes are sorted into reading
// order (left, then top), the mapping is recomputed and focus is cleared.
// A nil res empties the tree.
func (t *Tree) Bind(res *chart.Result) {
	t.result = res
	t.nodes = nil
	if res != nil {
		t.nodes = chart.SortReadingOrder(res.Nodes)
	}
	t.recompute()
	t.focused, t.hasFocused = 0, false
	t.emit(Event{Type: EventContentChanged})
}

// SetViewport records the panel size and recomputes the mapping.
func (t *Tree) SetViewport(w, h int) {
	t.viewport = image.Pt(w, h)
	t.recompute()
}

func (t *Tree) recompute() {
	if t.result == nil || t.result.Bitmap == nil {
		t.mapper.Recompute(image.Rectangle{}, 0, 0, t.viewport.X, t.viewport.Y)
		return
	}
	b := t.result.Bitmap.Bounds()
	t.mapper.Recompute(t.result.Rect, b.Dx(), b.Dy(), t.viewport.X, t.viewport.Y)
}

// Result returns the bound result, or nil.
func (t *Tree) Result() *chart.Result { return t.result }

// Nodes returns the nodes in reading order. The slice must not be modified.
func (t *Tree) Nodes() []chart.NodeSpec { return t.nodes }

// Mapper exposes the current mapping.
func (t *Tree) Mapper() *Mapper { return &t.mapper }

// HitTest returns the node under local point (x, y).
//
// Points outside the displayed bitmap never hit. Otherwise the first node in
// reading order whose mapped rectangle contains the point wins.
func (t *Tree) HitTest(x, y float64) (int, bool) {
	img := t.mapper.ImageRect()
	if !containsF(img, x, y) {
		return 0, false
	}
	for _, n := range t.nodes {
		if containsF(t.mapper.MapRect(n.Rect), x, y) {
			return n.ID, true
		}
	}
	return 0, false
}

// EnumerateVisible returns the ids, in reading order, of nodes whose mapped
// rectangle overlaps the viewport. Hidden nodes stay in the model.
func (t *Tree) EnumerateVisible() []int {
	view := image.Rectangle{Max: t.viewport}
	ids := make([]int, 0, len(t.nodes))
	if !t.mapper.Valid() {
		return ids
	}
	for _, n := range t.nodes {
		if t.mapper.MapRect(n.Rect).Overlaps(view) {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Describe returns the stored label of node id verbatim.
func (t *Tree) Describe(id int) (string, bool) {
	n, ok := t.node(id)
	if !ok {
		return "", false
	}
	return n.Label, true
}

// Bounds returns node id's rectangle in local panel pixels.
func (t *Tree) Bounds(id int) (image.Rectangle, bool) {
	n, ok := t.node(id)
	if !ok {
		return image.Rectangle{}, false
	}
	return t.mapper.MapRect(n.Rect), true
}

// ScreenRect returns node id's absolute screen rectangle.
func (t *Tree) ScreenRect(id int) (image.Rectangle, bool) {
	n, ok := t.node(id)
	if !ok {
		return image.Rectangle{}, false
	}
	return n.Rect, true
}

// Activate taps the centre of node id's screen rectangle through the host.
// A Clicked event follows an accepted tap. Focus never changes.
func (t *Tree) Activate(id int) bool {
	n, ok := t.node(id)
	if !ok || t.tapper == nil {
		return false
	}
	c := chart.Center(n.Rect)
	if !t.tapper.SynthesizeTap(c.X, c.Y) {
		return false
	}
	t.emit(Event{Type: EventClicked, ID: id, Label: n.Label})
	return true
}

// Focus moves the focus indicator to node id. It never activates.
func (t *Tree) Focus(id int) bool {
	n, ok := t.node(id)
	if !ok {
		return false
	}
	t.focused, t.hasFocused = id, true
	t.emit(Event{Type: EventFocused, ID: id, Label: n.Label})
	return true
}

// ClearFocus removes the focus indicator.
func (t *Tree) ClearFocus() {
	if !t.hasFocused {
		return
	}
	id := t.focused
	t.focused, t.hasFocused = 0, false
	t.emit(Event{Type: EventFocusCleared, ID: id})
}

// Focused returns the focused node id.
func (t *Tree) Focused() (int, bool) { return t.focused, t.hasFocused }

// FocusFirst focuses the first visible node.
func (t *Tree) FocusFirst() (int, bool) {
	vis := t.EnumerateVisible()
	if len(vis) == 0 {
		return 0, false
	}
	t.Focus(vis[0])
	return vis[0], true
}

// FocusNext moves focus to the next visible node, stopping at the last one.
// With nothing focused it focuses the first visible node.
func (t *Tree) FocusNext() (int, bool) { return t.step(1) }

// FocusPrevious moves focus to the previous visible node, stopping at the
// first one. With nothing focused it focuses the first visible node.
func (t *Tree) FocusPrevious() (int, bool) { return t.step(-1) }

func (t *Tree) step(delta int) (int, bool) {
	vis := t.EnumerateVisible()
	if len(vis) == 0 {
		return 0, false
	}
	idx := -1
	if t.hasFocused {
		for i, id := range vis {
			if id == t.focused {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		t.Focus(vis[0])
		return vis[0], true
	}
	next := idx + delta
	if next < 0 || next >= len(vis) {
		return t.focused, false
	}
	t.Focus(vis[next])
	return vis[next], true
}

func (t *Tree) node(id int) (chart.NodeSpec, bool) {
	for _, n := range t.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return chart.NodeSpec{}, false
}

func (t *Tree) emit(e Event) {
	if t.onEvent == nil {
		return
	}
	e.Name = e.Type.String()
	t.onEvent(e)
}

// containsF reports whether r contains the point, with Min inclusive and Max
// exclusive.
func containsF(r image.Rectangle, x, y float64) bool {
	return x >= float64(r.Min.X) && x < float64(r.Max.X) &&
		y >= float64(r.Min.Y) && y < float64(r.Max.Y)
}
