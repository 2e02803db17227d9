package session

import (
	"sync"

	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
)

// Panel is the host window that displays a chart and hosts the tree.
// Methods are called on the event loop.
type Panel interface {
	Show(res *chart.Result)
	Update(res *chart.Result)
	Hide()
	Showing() bool
}

// HeadlessPanel tracks panel state without drawing anything.
type HeadlessPanel struct {
	mu      sync.Mutex
	showing bool
	current *chart.Result
	shows   int
	updates int
	hides   int
}

// Show marks the panel visible with res.
func (p *HeadlessPanel) Show(res *chart.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.showing, p.current = true, res
	p.shows++
}

// Update replaces the displayed result.
func (p *HeadlessPanel) Update(res *chart.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = res
	p.updates++
}

// Hide marks the panel hidden.
func (p *HeadlessPanel) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.showing, p.current = false, nil
	p.hides++
}

// Showing reports whether the panel is visible.
func (p *HeadlessPanel) Showing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.showing
}

// Current returns the displayed result.
func (p *HeadlessPanel) Current() *chart.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Counts returns how often Show, Update and Hide were called.
func (p *HeadlessPanel) Counts() (shows, updates, hides int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shows, p.updates, p.hides
}
