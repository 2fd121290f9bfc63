package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ironsheep/screenshot-prefilter/internal/detection"
	"github.com/ironsheep/screenshot-prefilter/internal/imaging"
	"github.com/ironsheep/screenshot-prefilter/internal/prefilter"
	"github.com/ironsheep/screenshot-prefilter/internal/taxonomy"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "prefilter_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`

	// Meta carries the optional progress token.
	Meta *struct {
		ProgressToken interface{} `json:"progressToken,omitempty"`
	} `json:"_meta,omitempty"`
}

func (p ToolCallParams) progressToken() interface{} {
	if p.Meta == nil {
		return nil
	}
	return p.Meta.ProgressToken
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
// A blocked screenshot is a successful result, not an error.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params)
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
func (s *Server) executeTool(ctx context.Context, params ToolCallParams) (interface{}, error) {
	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch params.Name {
	// Analysis
	case "prefilter_analyze":
		return s.handleAnalyze(ctx, args)
	case "prefilter_analyze_batch":
		return s.handleAnalyzeBatch(ctx, args, params.progressToken())

	// Mode
	case "prefilter_get_mode":
		return s.handleGetMode()
	case "prefilter_set_mode":
		return s.handleSetMode(args)

	// Diagnostics
	case "prefilter_status":
		return s.analyzer.BackendStatus(), nil
	case "prefilter_card_signals":
		return s.handleCardSignals(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", params.Name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
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

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Analysis Handlers ===

type screenshotArgs struct {
	ID         string   `json:"id"`
	Path       string   `json:"path"`
	DataBase64 string   `json:"data_base64"`
	Tags       []string `json:"tags"`
}

func (a screenshotArgs) screenshot() (prefilter.Screenshot, error) {
	shot := prefilter.Screenshot{ID: a.ID, Path: a.Path, Tags: a.Tags}
	if shot.ID == "" {
		shot.ID = uuid.NewString()
	}
	if shot.Tags == nil {
		shot.Tags = []string{}
	}
	if a.DataBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(a.DataBase64)
		if err != nil {
			return shot, fmt.Errorf("invalid data_base64: %w", err)
		}
		shot.Data = data
	}
	return shot, nil
}

type analyzeArgs struct {
	screenshotArgs
	Mode string `json:"mode"`
}

type analyzeResult struct {
	Verdict    taxonomy.Verdict     `json:"verdict"`
	Screenshot prefilter.Screenshot `json:"screenshot"`
	Mode       taxonomy.Mode        `json:"mode"`
}

func (s *Server) handleAnalyze(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	shot, err := a.screenshot()
	if err != nil {
		return nil, err
	}

	mode := s.analyzer.ResolveMode(taxonomy.Mode(a.Mode))
	verdict, updated := s.analyzer.Analyze(ctx, shot, mode)
	return &analyzeResult{Verdict: verdict, Screenshot: updated, Mode: mode}, nil
}

type analyzeBatchArgs struct {
	Items []screenshotArgs `json:"items"`
	Mode  string           `json:"mode"`
}

type batchResult struct {
	Mode      taxonomy.Mode               `json:"mode"`
	Total     int                         `json:"total"`
	Completed int                         `json:"completed"`
	Blocked   []string                    `json:"blocked"`
	Cancelled bool                        `json:"cancelled,omitempty"`
	Results   map[string]prefilter.Result `json:"results"`
}

func (s *Server) handleAnalyzeBatch(ctx context.Context, args json.RawMessage, progressToken interface{}) (interface{}, error) {
	var a analyzeBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	shots := make([]prefilter.Screenshot, 0, len(a.Items))
	for i, item := range a.Items {
		shot, err := item.screenshot()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		shots = append(shots, shot)
	}

	completed := 0
	onProgress := func(current, total int) {
		completed = current
		if progressToken != nil {
			s.notify("notifications/progress", map[string]interface{}{
				"progressToken": progressToken,
				"progress":      current,
				"total":         total,
			})
		}
	}

	mode := s.analyzer.ResolveMode(taxonomy.Mode(a.Mode))
	results, err := s.analyzer.AnalyzeMany(ctx, shots, mode, onProgress)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	out := &batchResult{
		Mode:      mode,
		Total:     len(shots),
		Completed: completed,
		Blocked:   []string{},
		Cancelled: err != nil,
		Results:   results,
	}
	// Report blocked IDs in input order.
	for _, shot := range shots {
		if r, ok := results[shot.ID]; ok && !r.Verdict.Allow && !slices.Contains(out.Blocked, shot.ID) {
			out.Blocked = append(out.Blocked, shot.ID)
		}
	}
	return out, nil
}

// === Mode Handlers ===

type modeResult struct {
	Mode    taxonomy.Mode `json:"mode"`
	Enabled bool          `json:"enabled"`
}

func (s *Server) handleGetMode() (interface{}, error) {
	mode := s.analyzer.GetMode()
	return &modeResult{Mode: mode, Enabled: mode.Enabled()}, nil
}

type setModeArgs struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetMode(args json.RawMessage) (interface{}, error) {
	var a setModeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mode := taxonomy.Mode(strings.ToLower(strings.TrimSpace(a.Mode)))
	if !mode.Valid() {
		return nil, fmt.Errorf("mode must be one of off, light, deep; got %q", a.Mode)
	}
	if err := s.analyzer.SetMode(mode); err != nil {
		return nil, err
	}
	return s.handleGetMode()
}

// === Diagnostic Handlers ===

type cardSignalsResult struct {
	detection.CardResult
	Threshold float64            `json:"threshold"`
	Image     *imaging.ImageInfo `json:"image"`
}

func (s *Server) handleCardSignals(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a screenshotArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	shot, err := a.screenshot()
	if err != nil {
		return nil, err
	}

	data, err := s.analyzer.ReadImage(ctx, shot)
	if err != nil {
		return nil, err
	}
	info, err := imaging.Inspect(data)
	if err != nil {
		return nil, err
	}
	result, err := s.heuristic.Score(data)
	if err != nil {
		return nil, err
	}
	return &cardSignalsResult{CardResult: result, Threshold: detection.HeuristicThreshold, Image: info}, nil
}
