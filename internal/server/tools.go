package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pointerEventSchema describes one raw pointer sample.
var pointerEventSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"action": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"down", "pointer_down", "move", "pointer_up", "up", "cancel"},
			"description": "Pointer action",
		},
		"pointer": map[string]interface{}{
			"type":        "integer",
			"description": "Pointer id, stable for the life of one finger",
		},
		"x": map[string]interface{}{
			"type":        "number",
			"description": "X in panel-local pixels",
		},
		"y": map[string]interface{}{
			"type":        "number",
			"description": "Y in panel-local pixels",
		},
		"time_ms": map[string]interface{}{
			"type":        "integer",
			"description": "Event time in milliseconds, non-decreasing",
		},
	},
	"required": []string{"action", "x", "y", "time_ms"},
}

// keyEventSchema describes one volume key transition.
var keyEventSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"key": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"up", "down"},
			"description": "Volume key",
		},
		"down": map[string]interface{}{
			"type":        "boolean",
			"description": "True for press, false for release",
		},
		"repeat": map[string]interface{}{
			"type":        "integer",
			"description": "Auto-repeat count while held",
		},
		"time_ms": map[string]interface{}{
			"type":        "integer",
			"description": "Event time in milliseconds, non-decreasing",
		},
	},
	"required": []string{"key", "down", "time_ms"},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Detection
		{
			Name:        "chart_detect",
			Description: "Run chart detection on a screenshot file. The result replaces the cached chart and, when chart mode is on, the panel contents. Falls back to a synthetic demo chart when no model is available.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the screenshot (PNG, JPEG or GIF)",
					},
					"offset_x": map[string]interface{}{
						"type":        "integer",
						"description": "Screen X of the screenshot's left edge. Default 0",
					},
					"offset_y": map[string]interface{}{
						"type":        "integer",
						"description": "Screen Y of the screenshot's top edge. Default 0",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chart_capture",
			Description: "Capture a frame from the configured source and detect. With async=true the request is debounced and rate limited like a scroll-triggered detection and the call returns immediately.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"async": map[string]interface{}{
						"type":        "boolean",
						"description": "Queue a background detection instead of waiting. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "chart_result",
			Description: "Return the cached detection, the chart text lines, the session status and the model status.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"reinit_model": map[string]interface{}{
						"type":        "boolean",
						"description": "Drop the model runner so the next detection reopens it. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "chart_annotate",
			Description: "Draw detection boxes over a screenshot, or over the cached chart bitmap when no path is given, and save or return the rendering as PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Screenshot to run raw detection on. Omit to annotate the cached chart",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "PNG path to write. Defaults to the configured annotate directory",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the rendering as base64 PNG. Default false",
						"default":     false,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale for the returned image. Default 1.0",
						"default":     1.0,
					},
				},
			},
		},

		// Panel Layout
		{
			Name:        "chart_layout",
			Description: "Set or report the panel viewport and return the mapping scale, the drawn image rectangle and each node's panel-local bounds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Panel width in pixels. Omit to keep the current size",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Panel height in pixels. Omit to keep the current size",
					},
				},
			},
		},
		{
			Name:        "chart_hit_test",
			Description: "Return the node under a panel-local point, or none.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X in panel-local pixels",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y in panel-local pixels",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "chart_nodes",
			Description: "List the nodes bound to the panel in reading order with labels and bounds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"visible_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Only nodes intersecting the viewport. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "chart_describe",
			Description: "Return the label, local bounds and screen rectangle of one node.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Node id",
					},
				},
				"required": []string{"id"},
			},
		},

		// Node Actions
		{
			Name:        "chart_activate",
			Description: "Activate a node: inject a tap at the centre of its screen rectangle into the app underneath.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Node id",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "chart_focus",
			Description: "Move accessibility focus to a node id, or step it with direction next, previous, first or clear.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Node id to focus",
					},
					"direction": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"next", "previous", "first", "clear"},
						"description": "Relative move, used when id is omitted",
					},
				},
			},
		},

		// Input
		{
			Name:        "chart_gesture",
			Description: "Replay a recorded pointer stream through the gesture recognizer and dispatch every recognized gesture to its bound command.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"events": map[string]interface{}{
						"type":        "array",
						"items":       pointerEventSchema,
						"description": "Pointer events in time order",
					},
					"settle_ms": map[string]interface{}{
						"type":        "integer",
						"description": "Time to run past the last event so pending taps and long presses resolve. Default 1000",
						"default":     1000,
					},
				},
				"required": []string{"events"},
			},
		},
		{
			Name:        "chart_key",
			Description: "Replay volume key events through the combo recognizer. Each recognized combo toggles chart mode.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"events": map[string]interface{}{
						"type":        "array",
						"items":       keyEventSchema,
						"description": "Key events in time order",
					},
					"settle_ms": map[string]interface{}{
						"type":        "integer",
						"description": "Time to run past the last event so long holds resolve. Default 1000",
						"default":     1000,
					},
				},
				"required": []string{"events"},
			},
		},
		{
			Name:        "chart_voice",
			Description: "Match a recognized utterance against the voice phrases and run the command found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Recognized speech",
					},
				},
				"required": []string{"text"},
			},
		},

		// Session
		{
			Name:        "chart_mode",
			Description: "Enter, exit or toggle chart mode, or report the session status.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"action": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"enter", "exit", "toggle", "status"},
						"description": "Mode change. Default status",
						"default":     "status",
					},
				},
			},
		},
		{
			Name:        "chart_command",
			Description: "Run a session command (explore, activate, repeat, next, previous, summary, auto, enter, exit, toggle) at an optional panel-local point.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"command": map[string]interface{}{
						"type":        "string",
						"description": "Command name",
					},
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X in panel-local pixels, for explore, activate and repeat",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y in panel-local pixels, for explore, activate and repeat",
					},
				},
				"required": []string{"command"},
			},
		},
		{
			Name:        "chart_summary",
			Description: "Build the spoken chart summary and its narration chunks. With read=true the summary is also read aloud.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"read": map[string]interface{}{
						"type":        "boolean",
						"description": "Start or stop summary narration. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "chart_neighbors",
			Description: "Find the host elements read just before and after the chart in a snapshot of the host accessibility tree.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root": map[string]interface{}{
						"type":        "object",
						"description": "Host tree root: {id, bounds:{Min:{X,Y},Max:{X,Y}}, visible, focusable, clickable, children}",
					},
					"chart_rect": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "integer"},
						"description": "Chart rectangle [x1, y1, x2, y2]. Defaults to the cached chart",
					},
					"density": map[string]interface{}{
						"type":        "number",
						"description": "Display density. Defaults to the configured density",
					},
				},
				"required": []string{"root"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
