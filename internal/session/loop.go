package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/chart-a11y-mcp/internal/a11y"
	"github.com/ironsheep/chart-a11y-mcp/internal/capture"
	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
	"github.com/ironsheep/chart-a11y-mcp/internal/gesture"
	"github.com/ironsheep/chart-a11y-mcp/internal/logutil"
	"github.com/ironsheep/chart-a11y-mcp/internal/ocr"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("session closed")

// Detector finds the dominant chart in a screenshot.
// *detection.Detector implements it.
type Detector interface {
	DetectSingleChart(ctx context.Context, img image.Image) *chart.Result
}

// FrameSource supplies screenshots. *capture.Limited implements it.
type FrameSource interface {
	Capture(ctx context.Context) (capture.Frame, error)
	CaptureAsync(ctx context.Context, cb func(capture.Frame, error))
}

// Clock drives the loop's timers. *gesture.VirtualClock implements it.
type Clock interface {
	gesture.Scheduler
	Now() time.Duration
}

// wallClock measures time since the loop was created and delivers timer
// callbacks through the loop.
type wallClock struct {
	start time.Time
	sched gesture.PostScheduler
}

func (c wallClock) Now() time.Duration { return time.Since(c.start) }

func (c wallClock) AfterFunc(d time.Duration, f func()) func() bool {
	return c.sched.AfterFunc(d, f)
}

const (
	DefaultDebounce      = 250 * time.Millisecond
	DefaultMinInterval   = 650 * time.Millisecond
	DefaultChunkInterval = 60 * time.Millisecond
	DefaultAutoInterval  = 2 * time.Second

	ocrLineTolerance = 10
	ocrMinConfidence = 0.5
	maxEvents        = 256
)

// Spoken feedback.
const (
	msgNoChart        = "No chart detected."
	msgChartModeOff   = "Chart mode off."
	msgSummaryStarted = "Reading summary."
	msgSummaryStopped = "Summary stopped."
	msgAutoStarted    = "Reading all elements."
	msgAutoStopped    = "Auto reading stopped."
	msgFirstElement   = "First element."
	msgLastElement    = "Last element."
	msgNotActivated   = "Could not activate."
)

// Options configures a Loop. Only Detector is required.
type Options struct {
	Detector  Detector
	Frames    FrameSource
	OCR       ocr.Recognizer
	Panel     Panel
	Tapper    a11y.Tapper
	Announcer a11y.Announcer

	// Clock defaults to the wall clock with callbacks posted to the loop.
	Clock Clock

	Gesture         gesture.Config
	Combo           gesture.ComboConfig
	Bindings        Bindings
	Voice           VoicePhrases
	GesturesEnabled bool // multi-finger shortcuts
	VolumeEnabled   bool
	VoiceEnabled    bool

	Debounce       time.Duration
	MinInterval    time.Duration
	ChunkInterval  time.Duration
	AutoInterval   time.Duration
	ViewportWidth  int
	ViewportHeight int

	// OnDetect is called on the loop after every background detection
	// attempt. res is nil when nothing was found or err is set.
	OnDetect func(res *chart.Result, err error)
}

// GestureOutcome reports what a recognized gesture did.
type GestureOutcome struct {
	Event   gesture.Event `json:"event"`
	Key     string        `json:"key"`
	Command Command       `json:"command,omitempty"`
	Handled bool          `json:"handled"`
}

// Status is a snapshot of the session.
type Status struct {
	ChartMode      bool     `json:"chart_mode"`
	Cached         bool     `json:"cached"`
	CachedNodes    int      `json:"cached_nodes"`
	Synthetic      bool     `json:"synthetic"`
	Focused        int      `json:"focused,omitempty"`
	Reading        ReadMode `json:"reading"`
	Queued         int      `json:"queued"`
	Detecting      bool     `json:"detecting"`
	ActivePointers int      `json:"active_pointers"`
}

// Loop is the single-threaded coordinator of one chart session. The tree,
// the gesture recognizers, the reader and the cached detection belong to the
// goroutine running Run; everything else reaches them through Post or Do.
type Loop struct {
	opts   Options
	clock  Clock
	posts  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	worker *Worker

	tree    *a11y.Tree
	machine *gesture.Machine
	combo   *gesture.KeyCombo
	reader  *reader

	cached      *chart.Result
	cachedLines []string
	lastDetect  time.Duration
	detected    bool
	debounce    func() bool

	events  []a11y.Event
	collect *[]GestureOutcome
}

// New builds a Loop. Call Run to start processing.
func New(opts Options) (*Loop, error) {
	if opts.Detector == nil {
		return nil, errors.New("session: detector is required")
	}
	if opts.Panel == nil {
		opts.Panel = &HeadlessPanel{}
	}
	if opts.Announcer == nil {
		opts.Announcer = a11y.AnnouncerFunc(func(text string) {
			logutil.Infof("announce: %s", text)
		})
	}
	if opts.Gesture.MaxPointers == 0 {
		opts.Gesture = gesture.DefaultConfig()
	}
	if opts.Combo.Window == 0 {
		opts.Combo = gesture.DefaultComboConfig()
	}
	if opts.Bindings == nil {
		opts.Bindings = DefaultBindings()
	}
	if opts.Voice == nil {
		opts.Voice = DefaultVoicePhrases()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.ChunkInterval <= 0 {
		opts.ChunkInterval = DefaultChunkInterval
	}
	if opts.AutoInterval <= 0 {
		opts.AutoInterval = DefaultAutoInterval
	}
	if opts.ViewportWidth <= 0 || opts.ViewportHeight <= 0 {
		opts.ViewportWidth, opts.ViewportHeight = 1080, 1920
	}

	l := &Loop{
		opts:   opts,
		posts:  make(chan func(), 64),
		worker: NewWorker(),
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.clock = opts.Clock
	if l.clock == nil {
		l.clock = wallClock{start: time.Now(), sched: gesture.PostScheduler{Post: l.Post}}
	}

	l.tree = a11y.NewTree(opts.Tapper, l.onTreeEvent)
	l.tree.SetViewport(opts.ViewportWidth, opts.ViewportHeight)
	l.machine = gesture.NewMachine(opts.Gesture, l.clock, l.onGesture)
	l.combo = gesture.NewKeyCombo(opts.Combo, l.clock, l.onCombo)
	l.reader = newReader(l.clock, l.speak)
	return l, nil
}

// Run processes posted work until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	logutil.Debugf("session: loop started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.ctx.Done():
			return nil
		case f := <-l.posts:
			l.exec(f)
		}
	}
}

func (l *Loop) exec(f func()) {
	defer func() {
		if r := recover(); r != nil {
			logutil.Errorf("session: loop task panicked: %v", r)
		}
	}()
	f()
}

// Close stops the loop and the inference worker.
func (l *Loop) Close() {
	l.cancel()
	l.worker.Close()
}

// Post queues f to run on the loop. It never blocks.
func (l *Loop) Post(f func()) {
	select {
	case l.posts <- f:
	default:
		go func() {
			select {
			case l.posts <- f:
			case <-l.ctx.Done():
			}
		}()
	}
}

// Do runs f on the loop and waits for it. It must not be called from the
// loop goroutine.
func (l *Loop) Do(ctx context.Context, f func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		f()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ctx.Done():
		return ErrClosed
	}
}

// Tree returns the node tree. Loop goroutine only.
func (l *Loop) Tree() *a11y.Tree { return l.tree }

// Cached returns the last successful detection and its chart text lines.
// Loop goroutine only.
func (l *Loop) Cached() (*chart.Result, []string) { return l.cached, l.cachedLines }

// DrainEvents returns and clears the tree notifications recorded since the
// last call. Loop goroutine only.
func (l *Loop) DrainEvents() []a11y.Event {
	out := l.events
	l.events = nil
	return out
}

// Status returns a snapshot of the session.
func (l *Loop) Status(ctx context.Context) (Status, error) {
	var s Status
	err := l.Do(ctx, func() {
		s.ChartMode = l.opts.Panel.Showing()
		if l.cached != nil {
			s.Cached = true
			s.CachedNodes = len(l.cached.Nodes)
			s.Synthetic = l.cached.Synthetic
		}
		if id, ok := l.tree.Focused(); ok {
			s.Focused = id
		}
		s.Reading = l.reader.mode
		s.Queued = l.reader.remaining()
		s.Detecting = l.worker.Busy()
		s.ActivePointers = l.machine.ActivePointers()
	})
	return s, err
}

// SetViewport records a new panel size.
func (l *Loop) SetViewport(ctx context.Context, w, h int) error {
	return l.Do(ctx, func() {
		l.opts.ViewportWidth, l.opts.ViewportHeight = w, h
		l.tree.SetViewport(w, h)
	})
}

// RequestDetection schedules a background detection after the debounce
// delay. A newer request replaces a pending one.
func (l *Loop) RequestDetection() {
	l.Post(l.requestDetection)
}

func (l *Loop) requestDetection() {
	if l.debounce != nil {
		l.debounce()
	}
	l.debounce = l.clock.AfterFunc(l.opts.Debounce, l.detectOnce)
}

// detectOnce runs when the debounce delay expires. Requests closer than
// MinInterval to the previous one, or made while the panel is open, are
// dropped.
func (l *Loop) detectOnce() {
	l.debounce = nil
	now := l.clock.Now()
	if l.detected && now-l.lastDetect < l.opts.MinInterval {
		logutil.Debugf("session: detection skipped, %v since the last one", now-l.lastDetect)
		return
	}
	l.lastDetect, l.detected = now, true

	if l.opts.Panel.Showing() {
		return
	}
	if l.opts.Frames == nil {
		logutil.Debugf("session: no frame source, detection skipped")
		return
	}

	l.opts.Frames.CaptureAsync(l.ctx, func(frame capture.Frame, err error) {
		if err != nil {
			l.Post(func() { l.captureFailed(err) })
			return
		}
		submitted := l.worker.Submit(l.ctx, func(ctx context.Context) {
			res, lines := l.infer(ctx, frame)
			l.Post(func() { l.applyResult(res, lines) })
		})
		if !submitted {
			l.Post(func() {
				logutil.Debugf("session: %v", ErrBusy)
				l.notify(nil, ErrBusy)
			})
		}
	})
}

// DetectNow captures a frame and detects synchronously. Capture errors are
// handled as for background detection before being returned.
func (l *Loop) DetectNow(ctx context.Context) (*chart.Result, error) {
	if l.opts.Frames == nil {
		return nil, errors.New("no frame source configured")
	}
	frame, err := l.opts.Frames.Capture(ctx)
	if err != nil {
		if doErr := l.Do(ctx, func() { l.captureFailed(err) }); doErr != nil {
			return nil, doErr
		}
		return nil, err
	}
	return l.DetectFrame(ctx, frame)
}

// DetectFrame runs detection on frame through the inference worker and
// applies the result. It returns ErrBusy when another detection is in
// flight and ErrClosed after Close. A nil result with a nil error means
// nothing was found.
func (l *Loop) DetectFrame(ctx context.Context, frame capture.Frame) (*chart.Result, error) {
	var (
		res   *chart.Result
		lines []string
	)
	err := l.worker.Run(ctx, func(ctx context.Context) {
		res, lines = l.infer(ctx, frame)
	})
	if err != nil {
		return nil, err
	}
	if err := l.Do(ctx, func() { l.applyResult(res, lines) }); err != nil {
		return nil, err
	}
	return res, nil
}

// Infer runs fn on the inference worker and waits for it, so that ad hoc
// model calls never overlap a background detection. It returns ErrBusy
// while a detection is in flight.
func (l *Loop) Infer(ctx context.Context, fn func(ctx context.Context)) error {
	return l.worker.Run(ctx, fn)
}

// infer runs on the worker goroutine.
func (l *Loop) infer(ctx context.Context, frame capture.Frame) (*chart.Result, []string) {
	res := l.opts.Detector.DetectSingleChart(ctx, frame.Image)
	if res == nil {
		return nil, nil
	}
	if off := frame.Screen.Min; off != (image.Point{}) {
		res = res.Offset(off)
	}
	if l.opts.OCR == nil || res.Bitmap == nil {
		return res, nil
	}
	text, err := l.opts.OCR.Recognize(ctx, res.Bitmap)
	if err != nil || text == nil {
		logutil.Warnf("session: chart text: %v", err)
		return res, nil
	}
	return res, ocr.Lines(text.Words, ocrLineTolerance, ocrMinConfidence)
}

// applyResult replaces the cached detection. Frames without a chart leave
// the cache alone.
func (l *Loop) applyResult(res *chart.Result, lines []string) {
	if res == nil || len(res.Nodes) == 0 {
		logutil.Debugf("session: no chart in frame")
		l.notify(nil, nil)
		return
	}
	l.cached, l.cachedLines = res, lines
	logutil.Infof("session: chart at %v with %d nodes (synthetic=%v)", res.Rect, len(res.Nodes), res.Synthetic)
	if l.opts.Panel.Showing() {
		l.opts.Panel.Update(res)
		l.bind(res)
	}
	l.notify(res, nil)
}

// captureFailed drops the cached detection unless the capture was only
// throttled.
func (l *Loop) captureFailed(err error) {
	if errors.Is(err, capture.ErrThrottled) {
		logutil.Debugf("session: %v", err)
		l.notify(nil, err)
		return
	}
	logutil.Warnf("session: %v, clearing cached chart", err)
	l.cached, l.cachedLines = nil, nil
	l.notify(nil, err)
}

func (l *Loop) notify(res *chart.Result, err error) {
	if l.opts.OnDetect != nil {
		l.opts.OnDetect(res, err)
	}
}

// HandlePointer feeds one live pointer event to the gesture recognizer and
// returns the gestures it completed. A long press completes later, from a
// timer, and is dispatched without being returned.
func (l *Loop) HandlePointer(ctx context.Context, ev gesture.PointerEvent) ([]GestureOutcome, error) {
	var out []GestureOutcome
	err := l.Do(ctx, func() {
		l.collect = &out
		defer func() { l.collect = nil }()
		l.machine.Handle(ev)
	})
	return out, err
}

// ReplayGestures recognizes a recorded pointer stream on its own virtual
// clock, then dispatches every gesture found, in order, on the loop.
func (l *Loop) ReplayGestures(ctx context.Context, events []gesture.PointerEvent, settle time.Duration) ([]GestureOutcome, error) {
	clock := &gesture.VirtualClock{}
	var found []gesture.Event
	m := gesture.NewMachine(l.opts.Gesture, clock, func(e gesture.Event) {
		found = append(found, e)
	})
	gesture.Replay(m, clock, events, settle)

	out := make([]GestureOutcome, 0, len(found))
	err := l.Do(ctx, func() {
		for _, e := range found {
			out = append(out, l.dispatchGesture(e))
		}
	})
	return out, err
}

// HandleKey feeds one live volume-key event to the combo recognizer. It
// reports whether the event was consumed.
func (l *Loop) HandleKey(ctx context.Context, ev gesture.KeyEvent) (bool, error) {
	var consumed bool
	err := l.Do(ctx, func() {
		if l.opts.VolumeEnabled {
			consumed = l.combo.Handle(ev)
		}
	})
	return consumed, err
}

// ReplayKeys recognizes a recorded key stream on its own virtual clock and
// toggles chart mode once per combo found.
func (l *Loop) ReplayKeys(ctx context.Context, events []gesture.KeyEvent, settle time.Duration) ([]gesture.ComboPattern, error) {
	clock := &gesture.VirtualClock{}
	var fired []gesture.ComboPattern
	k := gesture.NewKeyCombo(l.opts.Combo, clock, func(p gesture.ComboPattern) {
		fired = append(fired, p)
	})
	var last time.Duration
	for _, ev := range events {
		clock.AdvanceTo(ev.Time)
		k.Handle(ev)
		last = ev.Time
	}
	clock.AdvanceTo(last + settle)

	err := l.Do(ctx, func() {
		for _, p := range fired {
			l.onCombo(p)
		}
	})
	return fired, err
}

// HandleVoice matches a recognized utterance against the voice phrases and
// runs the command found.
func (l *Loop) HandleVoice(ctx context.Context, text string) (Command, bool, error) {
	var (
		cmd     Command
		handled bool
	)
	err := l.Do(ctx, func() {
		if !l.opts.VoiceEnabled {
			logutil.Debugf("session: voice commands disabled, ignoring %q", text)
			return
		}
		cmd = l.opts.Voice.Match(text)
		if cmd == CmdNone {
			logutil.Debugf("session: no voice command in %q", text)
			return
		}
		handled = l.execute(cmd, -1, -1)
	})
	return cmd, handled, err
}

// Execute runs cmd as if triggered at local point (x, y). Commands that do
// not use a position ignore it.
func (l *Loop) Execute(ctx context.Context, cmd Command, x, y float64) (bool, error) {
	var handled bool
	err := l.Do(ctx, func() { handled = l.execute(cmd, x, y) })
	return handled, err
}

func (l *Loop) onGesture(e gesture.Event) {
	o := l.dispatchGesture(e)
	if l.collect != nil {
		*l.collect = append(*l.collect, o)
	}
}

func (l *Loop) dispatchGesture(e gesture.Event) GestureOutcome {
	o := GestureOutcome{Event: e, Key: e.Key()}
	multi := e.Kind == gesture.KindSwipe || e.Kind == gesture.KindMultiDoubleTap
	if multi && !l.opts.GesturesEnabled {
		logutil.Debugf("session: gesture shortcuts disabled, ignoring %s", o.Key)
		return o
	}
	o.Command = l.opts.Bindings[o.Key]
	if o.Command == CmdNone {
		logutil.Debugf("session: %s is not bound", o.Key)
		return o
	}
	o.Handled = l.execute(o.Command, e.X, e.Y)
	return o
}

func (l *Loop) onCombo(p gesture.ComboPattern) {
	if !l.opts.VolumeEnabled {
		return
	}
	logutil.Infof("session: volume combo %s", p)
	l.execute(CmdToggle, -1, -1)
}

func (l *Loop) onTreeEvent(e a11y.Event) {
	if len(l.events) >= maxEvents {
		l.events = l.events[1:]
	}
	l.events = append(l.events, e)
}

func (l *Loop) execute(cmd Command, x, y float64) bool {
	switch cmd {
	case CmdEnter:
		return l.enter()
	case CmdExit:
		return l.exit()
	case CmdToggle:
		if l.opts.Panel.Showing() {
			return l.exit()
		}
		return l.enter()
	case CmdSummary:
		return l.toggleSummary()
	}

	if !l.opts.Panel.Showing() {
		logutil.Debugf("session: %s ignored outside chart mode", cmd)
		return false
	}

	switch cmd {
	case CmdExplore:
		id, ok := l.tree.HitTest(x, y)
		if !ok {
			return false
		}
		l.reader.cancel()
		l.tree.Focus(id)
		l.announceNode(id)
		return true

	case CmdActivate:
		id, ok := l.tree.Focused()
		if !ok {
			id, ok = l.tree.HitTest(x, y)
		}
		if !ok {
			return false
		}
		if !l.tree.Activate(id) {
			l.announce(msgNotActivated)
			return false
		}
		return true

	case CmdRepeat:
		id, ok := l.tree.HitTest(x, y)
		if !ok {
			id, ok = l.tree.Focused()
		}
		if !ok {
			return false
		}
		l.announceNode(id)
		return true

	case CmdNext, CmdPrevious:
		l.reader.cancel()
		var (
			id    int
			moved bool
		)
		if cmd == CmdNext {
			id, moved = l.tree.FocusNext()
		} else {
			id, moved = l.tree.FocusPrevious()
		}
		if !moved {
			if _, has := l.tree.Focused(); has {
				if cmd == CmdNext {
					l.announce(msgLastElement)
				} else {
					l.announce(msgFirstElement)
				}
			}
			return false
		}
		l.announceNode(id)
		return true

	case CmdAuto:
		return l.toggleAuto()
	}

	logutil.Warnf("session: unknown command %q", cmd)
	return false
}

func (l *Loop) enter() bool {
	if l.opts.Panel.Showing() {
		return true
	}
	if l.cached == nil {
		l.announce(msgNoChart)
		return false
	}
	l.opts.Panel.Show(l.cached)
	l.bind(l.cached)
	l.announce(chartModeMessage(l.cached))
	return true
}

func (l *Loop) exit() bool {
	if !l.opts.Panel.Showing() {
		return false
	}
	l.reader.cancel()
	l.machine.Reset()
	l.tree.Bind(nil)
	l.opts.Panel.Hide()
	l.announce(msgChartModeOff)
	return true
}

// bind loads res into the tree and focuses the first visible node.
func (l *Loop) bind(res *chart.Result) {
	l.reader.cancel()
	l.tree.Bind(res)
	l.tree.FocusFirst()
}

func (l *Loop) toggleSummary() bool {
	if l.reader.mode == ReadSummary {
		l.reader.cancel()
		l.announce(msgSummaryStopped)
		return true
	}
	res, lines := l.tree.Result(), l.cachedLines
	if res == nil {
		res = l.cached
	}
	if res == nil {
		l.announce(msgNoChart)
		return false
	}
	items := []readItem{{text: msgSummaryStarted}}
	for _, chunk := range a11y.ChunkText(a11y.Summary(res, lines), a11y.MaxChunk, a11y.MinChunkBreak) {
		items = append(items, readItem{text: chunk})
	}
	l.reader.start(ReadSummary, items, l.opts.ChunkInterval)
	return true
}

// toggleAuto reads every visible node in turn, starting at the focused one,
// moving focus along.
func (l *Loop) toggleAuto() bool {
	if l.reader.mode == ReadAuto {
		l.reader.cancel()
		l.announce(msgAutoStopped)
		return true
	}
	vis := l.tree.EnumerateVisible()
	if len(vis) == 0 {
		return false
	}
	start := 0
	if focused, ok := l.tree.Focused(); ok {
		for i, id := range vis {
			if id == focused {
				start = i
				break
			}
		}
	}
	items := []readItem{{text: msgAutoStarted}}
	for _, id := range vis[start:] {
		label, _ := l.tree.Describe(id)
		items = append(items, readItem{text: label, node: id, hasNode: true})
	}
	l.reader.start(ReadAuto, items, l.opts.AutoInterval)
	return true
}

func (l *Loop) speak(item readItem) {
	if item.hasNode && !l.tree.Focus(item.node) {
		return
	}
	l.announce(item.text)
}

func (l *Loop) announceNode(id int) {
	if label, ok := l.tree.Describe(id); ok {
		l.announce(label)
	}
}

func (l *Loop) announce(text string) {
	if text == "" {
		return
	}
	logutil.Debugf("session: announce %q", text)
	l.opts.Announcer.Announce(text)
}

func chartModeMessage(res *chart.Result) string {
	prefix := "Chart mode on"
	if res.Synthetic {
		prefix = "Demo chart mode on"
	}
	if len(res.Nodes) == 1 {
		return prefix + ", 1 element."
	}
	return fmt.Sprintf("%s, %d elements.", prefix, len(res.Nodes))
}
