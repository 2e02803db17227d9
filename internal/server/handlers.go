package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/ironsheep/chart-a11y-mcp/internal/a11y"
	"github.com/ironsheep/chart-a11y-mcp/internal/capture"
	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
	"github.com/ironsheep/chart-a11y-mcp/internal/detection"
	"github.com/ironsheep/chart-a11y-mcp/internal/gesture"
	"github.com/ironsheep/chart-a11y-mcp/internal/imaging"
	"github.com/ironsheep/chart-a11y-mcp/internal/session"
)

// toolTimeout bounds one tools/call.
const toolTimeout = 30 * time.Second

// defaultSettle is how long replays run past their last event.
const defaultSettle = 1000 * time.Millisecond

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "chart_detect", "chart_gesture").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Runs the operation on the session loop
//  4. Returns the result with the host output it produced
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if s.loop == nil {
		return nil, errors.New("no session configured")
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Detection
	case "chart_detect":
		return s.handleChartDetect(ctx, args)
	case "chart_capture":
		return s.handleChartCapture(ctx, args)
	case "chart_result":
		return s.handleChartResult(ctx, args)
	case "chart_annotate":
		return s.handleChartAnnotate(ctx, args)

	// Panel Layout
	case "chart_layout":
		return s.handleChartLayout(ctx, args)
	case "chart_hit_test":
		return s.handleChartHitTest(ctx, args)
	case "chart_nodes":
		return s.handleChartNodes(ctx, args)
	case "chart_describe":
		return s.handleChartDescribe(ctx, args)

	// Node Actions
	case "chart_activate":
		return s.handleChartActivate(ctx, args)
	case "chart_focus":
		return s.handleChartFocus(ctx, args)

	// Input
	case "chart_gesture":
		return s.handleChartGesture(ctx, args)
	case "chart_key":
		return s.handleChartKey(ctx, args)
	case "chart_voice":
		return s.handleChartVoice(ctx, args)

	// Session
	case "chart_mode":
		return s.handleChartMode(ctx, args)
	case "chart_command":
		return s.handleChartCommand(ctx, args)
	case "chart_summary":
		return s.handleChartSummary(ctx, args)
	case "chart_neighbors":
		return s.handleChartNeighbors(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON marshals v to an indented JSON string.
func mustMarshalJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal result: %s"}`, err.Error())
	}
	return string(data)
}

// hostOutput is what the session asked the host to do during one call.
type hostOutput struct {
	Announcements []string      `json:"announcements,omitempty"`
	Taps          []image.Point `json:"taps,omitempty"`
	Events        []a11y.Event  `json:"events,omitempty"`
}

// drain collects and clears the host output recorded so far.
func (s *Server) drain(ctx context.Context) hostOutput {
	var out hostOutput
	_ = s.loop.Do(ctx, func() { out.Events = s.loop.DrainEvents() })
	if s.host != nil {
		out.Taps, out.Announcements = s.host.Drain()
	}
	return out
}

// nodeInfo describes one bound node.
type nodeInfo struct {
	ID      int             `json:"id"`
	Label   string          `json:"label"`
	Bounds  image.Rectangle `json:"bounds"`
	Screen  image.Rectangle `json:"screen"`
	Visible bool            `json:"visible"`
	Focused bool            `json:"focused,omitempty"`
}

// describeNode builds nodeInfo. Loop goroutine only.
func describeNode(tree *a11y.Tree, id int) (nodeInfo, bool) {
	label, ok := tree.Describe(id)
	if !ok {
		return nodeInfo{}, false
	}
	info := nodeInfo{ID: id, Label: label}
	info.Bounds, _ = tree.Bounds(id)
	info.Screen, _ = tree.ScreenRect(id)
	vp := tree.Mapper().Viewport()
	info.Visible = info.Bounds.Overlaps(image.Rect(0, 0, vp.X, vp.Y))
	if f, ok := tree.Focused(); ok && f == id {
		info.Focused = true
	}
	return info, true
}

// boundNodes lists every bound node in reading order. Loop goroutine only.
func boundNodes(tree *a11y.Tree) []nodeInfo {
	nodes := tree.Nodes()
	out := make([]nodeInfo, 0, len(nodes))
	for _, n := range nodes {
		if info, ok := describeNode(tree, n.ID); ok {
			out = append(out, info)
		}
	}
	return out
}

// === Detection Handlers ===

type chartDetectArgs struct {
	Path    string `json:"path"`
	OffsetX int    `json:"offset_x"`
	OffsetY int    `json:"offset_y"`
}

type detectResult struct {
	Frame     imaging.FrameInfo `json:"frame"`
	Found     bool              `json:"found"`
	Synthetic bool              `json:"synthetic"`
	ChartRect image.Rectangle   `json:"chart_rect"`
	Nodes     []chart.NodeSpec  `json:"nodes"`
	Lines     []string          `json:"lines,omitempty"`
	Host      hostOutput        `json:"host"`
}

func (s *Server) handleChartDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	origin := image.Pt(a.OffsetX, a.OffsetY)
	if s.files != nil {
		s.files.SetSource(a.Path, origin)
	}

	b := img.Bounds()
	frame := capture.Frame{
		Image:  img,
		Screen: image.Rect(0, 0, b.Dx(), b.Dy()).Add(origin),
		Source: a.Path,
		Time:   time.Now(),
	}
	res, err := s.loop.DetectFrame(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	return s.detectResult(ctx, imaging.DescribeFrame(a.Path, img), res), nil
}

func (s *Server) detectResult(ctx context.Context, frame imaging.FrameInfo, res *chart.Result) *detectResult {
	out := &detectResult{Frame: frame, Nodes: []chart.NodeSpec{}}
	if res != nil && len(res.Nodes) > 0 {
		out.Found = true
		out.Synthetic = res.Synthetic
		out.ChartRect = res.Rect
		out.Nodes = chart.SortReadingOrder(res.Nodes)
		_ = s.loop.Do(ctx, func() {
			if cached, lines := s.loop.Cached(); cached == res {
				out.Lines = lines
			}
		})
	}
	out.Host = s.drain(ctx)
	return out
}

type chartCaptureArgs struct {
	Async bool `json:"async"`
}

func (s *Server) handleChartCapture(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartCaptureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	if a.Async {
		s.loop.RequestDetection()
		return map[string]interface{}{
			"queued": true,
			"host":   s.drain(ctx),
		}, nil
	}

	res, err := s.loop.DetectNow(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture failed: %w", err)
	}
	var info imaging.FrameInfo
	if s.files != nil {
		source, _ := s.files.Source()
		if key, img, ok := s.cache.Latest(); ok && (source == "" || source == key) {
			info = imaging.DescribeFrame(key, img)
		}
	}
	return s.detectResult(ctx, info, res), nil
}

type chartResultArgs struct {
	ReinitModel bool `json:"reinit_model"`
}

type chartResultOutput struct {
	Cached  bool              `json:"cached"`
	Result  *chart.Result     `json:"result,omitempty"`
	Lines   []string          `json:"lines,omitempty"`
	Session session.Status    `json:"session"`
	Model   *detection.Status `json:"model,omitempty"`
	Host    hostOutput        `json:"host"`
}

func (s *Server) handleChartResult(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartResultArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.ReinitModel && s.detector != nil {
		s.detector.Reinit()
	}

	out := &chartResultOutput{}
	if err := s.loop.Do(ctx, func() {
		out.Result, out.Lines = s.loop.Cached()
	}); err != nil {
		return nil, err
	}
	out.Cached = out.Result != nil

	status, err := s.loop.Status(ctx)
	if err != nil {
		return nil, err
	}
	out.Session = status
	if s.detector != nil {
		ms := s.detector.Status()
		out.Model = &ms
	}
	out.Host = s.drain(ctx)
	return out, nil
}

type chartAnnotateArgs struct {
	Path         string  `json:"path"`
	Output       string  `json:"output"`
	IncludeImage bool    `json:"include_image"`
	Scale        float64 `json:"scale"`
}

func (s *Server) handleChartAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartAnnotateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	var (
		img    image.Image
		dets   []chart.Detection
		source string
		opts   = imaging.AnnotateOptions{ShowLabels: true}
	)
	if a.Path != "" {
		if s.detector == nil {
			return nil, errors.New("no detector configured")
		}
		loaded, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		var (
			found  []chart.Detection
			detErr error
		)
		err = s.loop.Infer(ctx, func(ctx context.Context) {
			found, detErr = s.detector.Detect(ctx, loaded)
		})
		if err == nil {
			err = detErr
		}
		if err != nil {
			return nil, fmt.Errorf("detection failed: %w", err)
		}
		img, dets, source = loaded, found, "model"
		opts.NumClasses = s.detector.Config().Classes.Len()
	} else {
		var res *chart.Result
		var focused image.Rectangle
		if err := s.loop.Do(ctx, func() {
			res, _ = s.loop.Cached()
			tree := s.loop.Tree()
			if id, ok := tree.Focused(); ok && tree.Result() == res {
				focused, _ = tree.ScreenRect(id)
			}
		}); err != nil {
			return nil, err
		}
		if res == nil || res.Bitmap == nil {
			return nil, errors.New("no cached chart to annotate")
		}
		img, dets, source = res.Bitmap, imaging.NodeDetections(res), "cached"
		opts.NumClasses = 1
		if !focused.Empty() {
			opts.Highlight = focused.Sub(res.Rect.Min)
		}
	}

	out := imaging.Annotate(img, dets, opts)

	output := a.Output
	if output == "" && s.annotateDir != "" {
		output = filepath.Join(s.annotateDir, fmt.Sprintf("annotate_%s.png", time.Now().Format("20060102_150405.000")))
	}
	if output != "" {
		if err := imaging.SaveAnnotated(output, out); err != nil {
			return nil, err
		}
	}

	result := map[string]interface{}{
		"source":     source,
		"detections": dets,
		"width":      out.Bounds().Dx(),
		"height":     out.Bounds().Dy(),
	}
	if output != "" {
		result["output"] = output
	}
	if a.IncludeImage {
		enc, err := imaging.EncodePNG(out, a.Scale)
		if err != nil {
			return nil, err
		}
		result["image"] = enc
	}
	return result, nil
}

// === Panel Layout Handlers ===

type chartLayoutArgs struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type layoutResult struct {
	Viewport  image.Point     `json:"viewport"`
	Valid     bool            `json:"valid"`
	Scale     float64         `json:"scale"`
	ImageRect image.Rectangle `json:"image_rect"`
	ChartRect image.Rectangle `json:"chart_rect"`
	Nodes     []nodeInfo      `json:"nodes"`
}

func (s *Server) handleChartLayout(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartLayoutArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Width < 0 || a.Height < 0 {
		return nil, errors.New("width and height must not be negative")
	}
	if (a.Width == 0) != (a.Height == 0) {
		return nil, errors.New("width and height must be given together")
	}
	if a.Width > 0 {
		if err := s.loop.SetViewport(ctx, a.Width, a.Height); err != nil {
			return nil, err
		}
	}

	out := &layoutResult{}
	err := s.loop.Do(ctx, func() {
		tree := s.loop.Tree()
		m := tree.Mapper()
		out.Viewport = m.Viewport()
		out.Valid = m.Valid()
		out.Scale = m.Scale()
		out.ImageRect = m.ImageRect()
		if res := tree.Result(); res != nil {
			out.ChartRect = res.Rect
		}
		out.Nodes = boundNodes(tree)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type chartPointArgs struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (s *Server) handleChartHitTest(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartPointArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.X == nil || a.Y == nil {
		return nil, errors.New("x and y are required")
	}

	result := map[string]interface{}{"hit": false}
	err := s.loop.Do(ctx, func() {
		tree := s.loop.Tree()
		id, ok := tree.HitTest(*a.X, *a.Y)
		if !ok {
			return
		}
		if info, ok := describeNode(tree, id); ok {
			result["hit"] = true
			result["node"] = info
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type chartNodesArgs struct {
	VisibleOnly bool `json:"visible_only"`
}

func (s *Server) handleChartNodes(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartNodesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	var nodes []nodeInfo
	err := s.loop.Do(ctx, func() {
		tree := s.loop.Tree()
		if !a.VisibleOnly {
			nodes = boundNodes(tree)
			return
		}
		for _, id := range tree.EnumerateVisible() {
			if info, ok := describeNode(tree, id); ok {
				nodes = append(nodes, info)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []nodeInfo{}
	}
	return map[string]interface{}{
		"count": len(nodes),
		"nodes": nodes,
	}, nil
}

type chartIDArgs struct {
	ID *int `json:"id"`
}

func (s *Server) handleChartDescribe(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.ID == nil {
		return nil, errors.New("id is required")
	}

	var (
		info nodeInfo
		ok   bool
	)
	if err := s.loop.Do(ctx, func() { info, ok = describeNode(s.loop.Tree(), *a.ID) }); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("node %d not found", *a.ID)
	}
	return info, nil
}

// === Node Action Handlers ===

func (s *Server) handleChartActivate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.ID == nil {
		return nil, errors.New("id is required")
	}

	var activated bool
	if err := s.loop.Do(ctx, func() { activated = s.loop.Tree().Activate(*a.ID) }); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":        *a.ID,
		"activated": activated,
		"host":      s.drain(ctx),
	}, nil
}

type chartFocusArgs struct {
	ID        *int   `json:"id"`
	Direction string `json:"direction"`
}

func (s *Server) handleChartFocus(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartFocusArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.ID == nil && a.Direction == "" {
		return nil, errors.New("id or direction is required")
	}

	var (
		moved   bool
		focused *nodeInfo
		dirErr  error
	)
	err := s.loop.Do(ctx, func() {
		tree := s.loop.Tree()
		if a.ID != nil {
			moved = tree.Focus(*a.ID)
		} else {
			switch strings.ToLower(a.Direction) {
			case "next":
				_, moved = tree.FocusNext()
			case "previous", "prev":
				_, moved = tree.FocusPrevious()
			case "first":
				_, moved = tree.FocusFirst()
			case "clear":
				_, had := tree.Focused()
				tree.ClearFocus()
				moved = had
			default:
				dirErr = fmt.Errorf("unknown direction: %q", a.Direction)
				return
			}
		}
		if id, ok := tree.Focused(); ok {
			if info, ok := describeNode(tree, id); ok {
				focused = &info
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if dirErr != nil {
		return nil, dirErr
	}

	result := map[string]interface{}{
		"moved": moved,
		"host":  s.drain(ctx),
	}
	if focused != nil {
		result["focused"] = focused
	}
	return result, nil
}

// === Input Handlers ===

type pointerEventArg struct {
	Action  gesture.Action `json:"action"`
	Pointer int            `json:"pointer"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
	TimeMS  int64          `json:"time_ms"`
}

type chartGestureArgs struct {
	Events   []pointerEventArg `json:"events"`
	SettleMS *int64            `json:"settle_ms"`
}

func (s *Server) handleChartGesture(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartGestureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if len(a.Events) == 0 {
		return nil, errors.New("events is required")
	}

	events := make([]gesture.PointerEvent, len(a.Events))
	var last int64
	for i, e := range a.Events {
		if e.TimeMS < last {
			return nil, fmt.Errorf("event %d: time_ms goes backwards", i)
		}
		last = e.TimeMS
		events[i] = gesture.PointerEvent{
			Action:  e.Action,
			Pointer: e.Pointer,
			X:       e.X,
			Y:       e.Y,
			Time:    time.Duration(e.TimeMS) * time.Millisecond,
		}
	}

	outcomes, err := s.loop.ReplayGestures(ctx, events, settleDuration(a.SettleMS))
	if err != nil {
		return nil, err
	}
	if outcomes == nil {
		outcomes = []session.GestureOutcome{}
	}
	return map[string]interface{}{
		"gestures": outcomes,
		"host":     s.drain(ctx),
	}, nil
}

type keyEventArg struct {
	Key    gesture.Key `json:"key"`
	Down   bool        `json:"down"`
	Repeat int         `json:"repeat"`
	TimeMS int64       `json:"time_ms"`
}

type chartKeyArgs struct {
	Events   []keyEventArg `json:"events"`
	SettleMS *int64        `json:"settle_ms"`
}

func (s *Server) handleChartKey(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartKeyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if len(a.Events) == 0 {
		return nil, errors.New("events is required")
	}

	events := make([]gesture.KeyEvent, len(a.Events))
	var last int64
	for i, e := range a.Events {
		if e.TimeMS < last {
			return nil, fmt.Errorf("event %d: time_ms goes backwards", i)
		}
		last = e.TimeMS
		events[i] = gesture.KeyEvent{
			Key:    e.Key,
			Down:   e.Down,
			Repeat: e.Repeat,
			Time:   time.Duration(e.TimeMS) * time.Millisecond,
		}
	}

	fired, err := s.loop.ReplayKeys(ctx, events, settleDuration(a.SettleMS))
	if err != nil {
		return nil, err
	}
	if fired == nil {
		fired = []gesture.ComboPattern{}
	}
	status, err := s.loop.Status(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"combos":     fired,
		"chart_mode": status.ChartMode,
		"host":       s.drain(ctx),
	}, nil
}

func settleDuration(ms *int64) time.Duration {
	if ms == nil || *ms < 0 {
		return defaultSettle
	}
	return time.Duration(*ms) * time.Millisecond
}

type chartVoiceArgs struct {
	Text string `json:"text"`
}

func (s *Server) handleChartVoice(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartVoiceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(a.Text) == "" {
		return nil, errors.New("text is required")
	}

	cmd, handled, err := s.loop.HandleVoice(ctx, a.Text)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"command": cmd,
		"handled": handled,
		"host":    s.drain(ctx),
	}, nil
}

// === Session Handlers ===

type chartModeArgs struct {
	Action string `json:"action"`
}

func (s *Server) handleChartMode(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartModeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Action == "" {
		a.Action = "status"
	}

	handled := false
	switch strings.ToLower(a.Action) {
	case "status":
	case "enter", "exit", "toggle":
		cmd, err := session.ParseCommand(a.Action)
		if err != nil {
			return nil, err
		}
		if handled, err = s.loop.Execute(ctx, cmd, -1, -1); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown action: %q", a.Action)
	}

	status, err := s.loop.Status(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"handled": handled,
		"status":  status,
		"host":    s.drain(ctx),
	}, nil
}

type chartCommandArgs struct {
	Command string   `json:"command"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
}

func (s *Server) handleChartCommand(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartCommandArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	cmd, err := session.ParseCommand(a.Command)
	if err != nil {
		return nil, err
	}
	if cmd == session.CmdNone {
		return nil, errors.New("command is required")
	}

	x, y := -1.0, -1.0
	if a.X != nil && a.Y != nil {
		x, y = *a.X, *a.Y
	}
	handled, err := s.loop.Execute(ctx, cmd, x, y)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"command": cmd,
		"handled": handled,
		"host":    s.drain(ctx),
	}, nil
}

type chartSummaryArgs struct {
	Read bool `json:"read"`
}

func (s *Server) handleChartSummary(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartSummaryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	var (
		res   *chart.Result
		lines []string
	)
	if err := s.loop.Do(ctx, func() { res, lines = s.loop.Cached() }); err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("no cached chart")
	}

	text := a11y.Summary(res, lines)
	result := map[string]interface{}{
		"summary": text,
		"chunks":  a11y.ChunkText(text, a11y.MaxChunk, a11y.MinChunkBreak),
	}
	if a.Read {
		handled, err := s.loop.Execute(ctx, session.CmdSummary, -1, -1)
		if err != nil {
			return nil, err
		}
		result["reading"] = handled
	}
	result["host"] = s.drain(ctx)
	return result, nil
}

type chartNeighborsArgs struct {
	Root      *a11y.HostNode `json:"root"`
	ChartRect []int          `json:"chart_rect"`
	Density   float64        `json:"density"`
}

func (s *Server) handleChartNeighbors(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chartNeighborsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Root == nil {
		return nil, errors.New("root is required")
	}
	if a.Density <= 0 {
		a.Density = s.density
	}

	var rect image.Rectangle
	switch len(a.ChartRect) {
	case 4:
		rect = image.Rect(a.ChartRect[0], a.ChartRect[1], a.ChartRect[2], a.ChartRect[3])
	case 0:
		if err := s.loop.Do(ctx, func() {
			if res, _ := s.loop.Cached(); res != nil {
				rect = res.Rect
			}
		}); err != nil {
			return nil, err
		}
		if rect.Empty() {
			return nil, errors.New("chart_rect is required when no chart is cached")
		}
	default:
		return nil, errors.New("chart_rect must be [x1, y1, x2, y2]")
	}

	ng := a11y.ComputeNeighbors(a.Root, rect, a.Density)
	return map[string]interface{}{
		"chart_rect": rect,
		"neighbors":  ng,
	}, nil
}
