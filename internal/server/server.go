package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/chart-a11y-mcp/internal/a11y"
	"github.com/ironsheep/chart-a11y-mcp/internal/capture"
	"github.com/ironsheep/chart-a11y-mcp/internal/detection"
	"github.com/ironsheep/chart-a11y-mcp/internal/imaging"
	"github.com/ironsheep/chart-a11y-mcp/internal/logutil"
	"github.com/ironsheep/chart-a11y-mcp/internal/session"
)

// Options wires a Server to one chart session.
type Options struct {
	// Loop is the running session. Required.
	Loop *session.Loop

	// Detector is used for raw detections and model status. Optional.
	Detector *detection.Detector

	// Host records the taps and announcements the session makes. Optional;
	// without it responses carry no host output.
	Host *a11y.Recorder

	// Files is the file capture backend. When set, chart_detect also makes
	// the loaded file the source of later captures.
	Files *capture.File

	// Cache holds decoded frames. Defaults to Files' cache, or a new one.
	Cache *imaging.FrameCache

	// AnnotateDir receives chart_annotate output when no path is given.
	AnnotateDir string

	// Density is the host's dp scale used for reading-order tolerance.
	Density float64

	// Version is reported in serverInfo.
	Version string
}

// Server handles MCP protocol communication
type Server struct {
	loop        *session.Loop
	detector    *detection.Detector
	host        *a11y.Recorder
	files       *capture.File
	cache       *imaging.FrameCache
	annotateDir string
	density     float64
	version     string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	s := &Server{
		loop:        opts.Loop,
		detector:    opts.Detector,
		host:        opts.Host,
		files:       opts.Files,
		cache:       opts.Cache,
		annotateDir: opts.AnnotateDir,
		density:     opts.Density,
		version:     opts.Version,
	}
	if s.cache == nil && s.files != nil {
		s.cache = s.files.Cache()
	}
	if s.cache == nil {
		s.cache = imaging.NewFrameCache()
	}
	if s.density <= 0 {
		s.density = 1
	}
	if s.version == "" {
		s.version = "dev"
	}
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

// serve reads one JSON-RPC message per line from r until EOF or ctx is
// cancelled.
func (s *Server) serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	logutil.Debugf("server: %s", req.Method)
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "chart-a11y-mcp",
				"version": s.version,
			},
		},
	}
}
