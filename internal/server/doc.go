// Package server implements the MCP (Model Context Protocol) server for chart
// accessibility.
//
// This package provides a JSON-RPC 2.0 server that drives one chart session
// through the MCP protocol. A client loads or captures screenshots, lets the
// detector find the chart, and then explores the chart the way a screen
// reader user would: by hit testing, moving focus, replaying gestures and
// key combos, speaking voice commands and activating elements.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Detection:
//   - chart_detect: Detect the chart in a screenshot file
//   - chart_capture: Capture from the configured source and detect
//   - chart_result: Cached detection, session and model status
//   - chart_annotate: Render detection boxes for debugging
//
// Panel Layout:
//   - chart_layout: Viewport, mapping scale and node bounds
//   - chart_hit_test: Node under a panel point
//   - chart_nodes: Bound nodes in reading order
//   - chart_describe: One node's label and bounds
//
// Node Actions:
//   - chart_activate: Tap the app underneath a node
//   - chart_focus: Move accessibility focus
//
// Input:
//   - chart_gesture: Replay pointer events through the recognizer
//   - chart_key: Replay volume key events through the combo recognizer
//   - chart_voice: Run a spoken command
//
// Session:
//   - chart_mode: Enter, exit or toggle chart mode
//   - chart_command: Run a command directly
//   - chart_summary: Spoken summary and narration chunks
//   - chart_neighbors: Host elements around the chart in reading order
//
// # Host Output
//
// The session speaks and taps through an a11y.Recorder. Every tool that can
// make the session speak or tap returns, under "host", the announcements,
// injected taps and tree events recorded since the previous call.
//
// # Coordinates
//
// Tool arguments named x and y are panel-local pixels. Rectangles labelled
// screen, chart_rect and taps are absolute screen pixels.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(server.Options{Loop: loop, Detector: det, Host: rec})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
