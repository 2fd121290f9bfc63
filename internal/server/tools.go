package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageSourceProperties describe where a screenshot's bytes come from.
func imageSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the screenshot file",
		},
		"data_base64": map[string]interface{}{
			"type":        "string",
			"description": "Screenshot bytes, base64-encoded. Takes precedence over path",
		},
	}
}

func modeProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"off", "light", "deep"},
		"description": "Analysis mode. Omit to use the persisted mode. Unrecognized values analyze as light",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	analyzeProps := imageSourceProperties()
	analyzeProps["id"] = map[string]interface{}{
		"type":        "string",
		"description": "Screenshot identifier. Generated when omitted",
	}
	analyzeProps["tags"] = map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Existing tags on the screenshot",
	}
	analyzeProps["mode"] = modeProperty()

	return []Tool{
		// Analysis
		{
			Name:        "prefilter_analyze",
			Description: "Decide whether a screenshot may be sent to an external service. Returns allow, detected categories, confidence and the screenshot with 'sensitive' and 'privacy-blocked' tags added when blocked. Any internal failure allows.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": analyzeProps,
			},
		},
		{
			Name:        "prefilter_analyze_batch",
			Description: "Analyze screenshots one at a time under one mode. Sends notifications/progress after each item when the request carries a progress token. Returns results keyed by screenshot id.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"items": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type":       "object",
							"properties": analyzeProps,
						},
						"description": "Screenshots to analyze, in order",
					},
					"mode": modeProperty(),
				},
				"required": []string{"items"},
			},
		},

		// Mode
		{
			Name:        "prefilter_get_mode",
			Description: "Get the persisted analysis mode and whether analysis is enabled.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "prefilter_set_mode",
			Description: "Persist the analysis mode: off (always allow), light (payment cards) or deep (all categories).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mode": map[string]interface{}{
						"type": "string",
						"enum": []string{"off", "light", "deep"},
					},
				},
				"required": []string{"mode"},
			},
		},

		// Diagnostics
		{
			Name:        "prefilter_status",
			Description: "Report backend state: whether it is initialized, whether a learned model is loaded, and which categories it can detect.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "prefilter_card_signals",
			Description: "Run the heuristic card scorer and return each signal (aspect, color, edge, shape, size), the weighted score and the detection threshold.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageSourceProperties(),
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
