package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/screenshot-prefilter/internal/taxonomy"
)

// createCardPNG encodes a silver card with a black border.
func createCardPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 350, 221))
	for y := 0; y < 221; y++ {
		for x := 0; x < 350; x++ {
			if x < 10 || y < 10 || x >= 340 || y >= 211 {
				img.Set(x, y, color.RGBA{0, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{200, 200, 200, 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// createTestImageFile writes a solid-colour PNG and returns its path.
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "solid.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and decodes the text content into out.
func callTool(t *testing.T, s *Server, name string, args interface{}, out interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{"name": name, "arguments": args}
	paramsJSON, _ := json.Marshal(params)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil || out == nil {
		return resp
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	text := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("failed to decode tool result %q: %v", text, err)
	}
	return resp
}

type analyzeResponse struct {
	Verdict struct {
		Allow      bool     `json:"allow"`
		Categories []string `json:"categories"`
		Confidence float64  `json:"confidence"`
		Backend    string   `json:"backend"`
	} `json:"verdict"`
	Screenshot struct {
		ID   string   `json:"id"`
		Tags []string `json:"tags"`
	} `json:"screenshot"`
	Mode string `json:"mode"`
}

func TestHandleToolsCall_AnalyzeBlocksCard(t *testing.T) {
	s := newTestServer(t)

	var got analyzeResponse
	resp := callTool(t, s, "prefilter_analyze", map[string]interface{}{
		"id":          "shot-1",
		"data_base64": base64.StdEncoding.EncodeToString(createCardPNG(t)),
		"tags":        []string{"work"},
	}, &got)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	if got.Verdict.Allow {
		t.Fatalf("expected block, got %+v", got.Verdict)
	}
	if len(got.Verdict.Categories) != 1 || got.Verdict.Categories[0] != "credit_card" {
		t.Errorf("categories = %v", got.Verdict.Categories)
	}
	if got.Screenshot.ID != "shot-1" {
		t.Errorf("id = %q", got.Screenshot.ID)
	}
	want := []string{"work", "sensitive", "privacy-blocked"}
	if strings.Join(got.Screenshot.Tags, ",") != strings.Join(want, ",") {
		t.Errorf("tags = %v, want %v", got.Screenshot.Tags, want)
	}
	if got.Mode != "light" {
		t.Errorf("mode = %q", got.Mode)
	}
}

func TestHandleToolsCall_AnalyzeAllows(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 1200, 500, color.RGBA{40, 100, 40, 255})

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"plain image", map[string]interface{}{"path": path}},
		{"missing file", map[string]interface{}{"path": "/nonexistent/shot.png"}},
		{"no data", map[string]interface{}{}},
		{"off mode", map[string]interface{}{"data_base64": base64.StdEncoding.EncodeToString(createCardPNG(t)), "mode": "off"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got analyzeResponse
			resp := callTool(t, s, "prefilter_analyze", tt.args, &got)
			if resp.Error != nil {
				t.Fatalf("Unexpected error: %v", resp.Error)
			}
			if !got.Verdict.Allow || len(got.Verdict.Categories) != 0 {
				t.Errorf("verdict = %+v", got.Verdict)
			}
			if got.Screenshot.ID == "" {
				t.Error("expected generated id")
			}
			if len(got.Screenshot.Tags) != 0 {
				t.Errorf("tags = %v", got.Screenshot.Tags)
			}
		})
	}
}

func TestHandleToolsCall_AnalyzeBadBase64(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "prefilter_analyze", map[string]interface{}{"data_base64": "%%%"}, nil)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("expected tool error, got %+v", resp)
	}
}

func TestHandleToolsCall_Mode(t *testing.T) {
	s := newTestServer(t)

	var mode modeResult
	callTool(t, s, "prefilter_get_mode", nil, &mode)
	if mode.Mode != taxonomy.ModeLight || !mode.Enabled {
		t.Errorf("default mode = %+v", mode)
	}

	callTool(t, s, "prefilter_set_mode", map[string]interface{}{"mode": " OFF "}, &mode)
	if mode.Mode != taxonomy.ModeOff || mode.Enabled {
		t.Errorf("after set = %+v", mode)
	}

	// Persisted off applies when analyze omits mode.
	var got analyzeResponse
	callTool(t, s, "prefilter_analyze", map[string]interface{}{"data_base64": base64.StdEncoding.EncodeToString(createCardPNG(t))}, &got)
	if !got.Verdict.Allow || got.Mode != "off" {
		t.Errorf("analyze under persisted off = %+v", got)
	}

	resp := callTool(t, s, "prefilter_set_mode", map[string]interface{}{"mode": "garbage"}, nil)
	if resp.Error == nil {
		t.Error("expected error for invalid mode")
	}
}

func TestHandleToolsCall_Status(t *testing.T) {
	s := newTestServer(t)

	var st struct {
		Initialized         bool     `json:"initialized"`
		LearnedModelLoaded  bool     `json:"learned_model_loaded"`
		AvailableCategories []string `json:"available_categories"`
		State               string   `json:"state"`
	}
	callTool(t, s, "prefilter_status", nil, &st)
	if st.Initialized || st.State != "uninitialized" {
		t.Errorf("status before analysis = %+v", st)
	}

	callTool(t, s, "prefilter_analyze", map[string]interface{}{"data_base64": base64.StdEncoding.EncodeToString(createCardPNG(t))}, nil)
	callTool(t, s, "prefilter_status", nil, &st)
	if !st.Initialized || st.LearnedModelLoaded || st.State != "ready_fallback" {
		t.Errorf("status after analysis = %+v", st)
	}
	if len(st.AvailableCategories) != 1 || st.AvailableCategories[0] != "credit_card" {
		t.Errorf("categories = %v", st.AvailableCategories)
	}
}

func TestHandleToolsCall_CardSignals(t *testing.T) {
	s := newTestServer(t)

	var got struct {
		Signals struct {
			Aspect float64 `json:"aspect"`
			Edge   float64 `json:"edge"`
		} `json:"signals"`
		Score     float64 `json:"score"`
		IsCard    bool    `json:"is_card"`
		Threshold float64 `json:"threshold"`
		Image     struct {
			Width  int    `json:"width"`
			Format string `json:"format"`
		} `json:"image"`
	}
	resp := callTool(t, s, "prefilter_card_signals", map[string]interface{}{
		"data_base64": base64.StdEncoding.EncodeToString(createCardPNG(t)),
	}, &got)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if !got.IsCard || got.Score <= got.Threshold || got.Threshold != 0.3 {
		t.Errorf("result = %+v", got)
	}
	if got.Signals.Edge != 1 || got.Image.Width != 350 || got.Image.Format != "png" {
		t.Errorf("result = %+v", got)
	}

	resp = callTool(t, s, "prefilter_card_signals", map[string]interface{}{"path": "/nonexistent.png"}, nil)
	if resp.Error == nil {
		t.Error("expected error for missing image")
	}
}

func TestHandleToolsCall_Batch(t *testing.T) {
	s := newTestServer(t)
	card := base64.StdEncoding.EncodeToString(createCardPNG(t))
	plain := createTestImageFile(t, 300, 300, color.RGBA{40, 100, 40, 255})

	var out bytes.Buffer
	s.enc = json.NewEncoder(&out)

	params := map[string]interface{}{
		"name": "prefilter_analyze_batch",
		"arguments": map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": "a", "data_base64": card},
				{"id": "b", "path": plain},
				{"path": "/nonexistent.png"},
			},
		},
		"_meta": map[string]interface{}{"progressToken": "tok-1"},
	}
	paramsJSON, _ := json.Marshal(params)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 7, Method: "tools/call", Params: paramsJSON})
	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}

	text := resp.Result.(map[string]interface{})["content"].([]map[string]interface{})[0]["text"].(string)
	var got struct {
		Total     int                        `json:"total"`
		Completed int                        `json:"completed"`
		Blocked   []string                   `json:"blocked"`
		Results   map[string]json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatal(err)
	}
	if got.Total != 3 || got.Completed != 3 || len(got.Results) != 3 {
		t.Errorf("batch = %+v", got)
	}
	if len(got.Blocked) != 1 || got.Blocked[0] != "a" {
		t.Errorf("blocked = %v", got.Blocked)
	}

	// One progress notification per item, in order.
	var progress []float64
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var n struct {
			Method string `json:"method"`
			Params struct {
				ProgressToken string  `json:"progressToken"`
				Progress      float64 `json:"progress"`
				Total         float64 `json:"total"`
			} `json:"params"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &n); err != nil {
			t.Fatal(err)
		}
		if n.Method != "notifications/progress" || n.Params.ProgressToken != "tok-1" || n.Params.Total != 3 {
			t.Errorf("notification = %+v", n)
		}
		progress = append(progress, n.Params.Progress)
	}
	if len(progress) != 3 || progress[0] != 1 || progress[1] != 2 || progress[2] != 3 {
		t.Errorf("progress = %v", progress)
	}
}

func TestHandleToolsCall_BatchWithoutToken(t *testing.T) {
	s := newTestServer(t)
	var out bytes.Buffer
	s.enc = json.NewEncoder(&out)

	resp := callTool(t, s, "prefilter_analyze_batch", map[string]interface{}{
		"items": []map[string]interface{}{{"id": "x"}},
	}, nil)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected notifications: %s", out.String())
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "image_crop", map[string]interface{}{}, nil)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("expected tool error, got %+v", resp)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp == nil || resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp)
	}
}
