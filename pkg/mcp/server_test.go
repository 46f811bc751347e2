package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pario-ai/promptsmith/pkg/budget"
	"github.com/pario-ai/promptsmith/pkg/models"
)

// fakeTracker implements tracker.Tracker for testing.
type fakeTracker struct {
	summaries []models.UsageSummary
	top       []models.TopRequest
	since     time.Time
	limit     int
}

func (f *fakeTracker) Record(context.Context, models.UsageRecord) error { return nil }
func (f *fakeTracker) Recent(context.Context, int) ([]models.UsageRecord, error) {
	return nil, nil
}
func (f *fakeTracker) Summary(_ context.Context, since time.Time) ([]models.UsageSummary, error) {
	f.since = since
	return f.summaries, nil
}
func (f *fakeTracker) TopRequested(_ context.Context, _ time.Time, limit int) ([]models.TopRequest, error) {
	f.limit = limit
	return f.top, nil
}
func (f *fakeTracker) Close() error { return nil }

type fakeCache struct {
	stats models.CacheStats
	err   error
}

func (f *fakeCache) Stats(context.Context) (models.CacheStats, error) { return f.stats, f.err }

type fakeResolver struct {
	got models.PromptRequest
	err error
}

func (f *fakeResolver) Resolve(_ context.Context, req models.PromptRequest) (models.PromptResponse, error) {
	f.got = req
	if f.err != nil {
		return models.PromptResponse{}, f.err
	}
	return models.PromptResponse{Text: "A crisp studio photo", Category: models.CategoryImage, Language: models.LanguageEnglish, Cached: true}, nil
}

func sendAndReceive(t *testing.T, srv *Server, req Request) Response {
	t.Helper()
	line, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	line = append(line, '\n')

	var out bytes.Buffer
	if err := srv.Run(context.Background(), bytes.NewReader(line), &out); err != nil {
		t.Fatal(err)
	}

	var resp Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, out.String())
	}
	return resp
}

func callTool(t *testing.T, srv *Server, name, args string) ToolCallResult {
	t.Helper()
	params, _ := json.Marshal(ToolCallParams{Name: name, Arguments: json.RawMessage(args)})
	resp := sendAndReceive(t, srv, Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`7`),
		Method:  "tools/call",
		Params:  params,
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	data, _ := json.Marshal(resp.Result)
	var result ToolCallResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	return result
}

func TestInitialize(t *testing.T) {
	srv := New(Deps{}, "test")
	resp := sendAndReceive(t, srv, Request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "initialize"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}

	data, _ := json.Marshal(resp.Result)
	var result InitializeResult
	json.Unmarshal(data, &result)
	if result.ProtocolVersion != "2024-11-05" {
		t.Errorf("protocol version = %s, want 2024-11-05", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "promptsmith" || result.ServerInfo.Version != "test" {
		t.Errorf("unexpected server info %+v", result.ServerInfo)
	}
}

func TestToolsList(t *testing.T) {
	srv := New(Deps{}, "test")
	resp := sendAndReceive(t, srv, Request{JSONRPC: "2.0", ID: json.RawMessage(`2`), Method: "tools/list"})

	data, _ := json.Marshal(resp.Result)
	var result ToolsListResult
	json.Unmarshal(data, &result)

	names := make(map[string]bool)
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"promptsmith_resolve", "promptsmith_budget", "promptsmith_cache_stats", "promptsmith_stats"} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
	if len(result.Tools) != 4 {
		t.Errorf("got %d tools, want 4", len(result.Tools))
	}
}

func TestNotificationHasNoResponse(t *testing.T) {
	srv := New(Deps{}, "test")
	var out bytes.Buffer
	in := `{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n"
	if err := srv.Run(context.Background(), strings.NewReader(in), &out); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %s", out.String())
	}
}

func TestParseError(t *testing.T) {
	srv := New(Deps{}, "test")
	var out bytes.Buffer
	if err := srv.Run(context.Background(), strings.NewReader("{oops\n"), &out); err != nil {
		t.Fatal(err)
	}
	var resp Response
	json.Unmarshal(out.Bytes(), &resp)
	if resp.Error == nil || resp.Error.Code != CodeParseError {
		t.Errorf("expected parse error, got %+v", resp)
	}
}

func TestUnknownMethod(t *testing.T) {
	srv := New(Deps{}, "test")
	resp := sendAndReceive(t, srv, Request{JSONRPC: "2.0", ID: json.RawMessage(`3`), Method: "resources/list"})
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Errorf("expected method not found, got %+v", resp.Error)
	}
}

func TestUnknownTool(t *testing.T) {
	result := callTool(t, New(Deps{}, "test"), "nope", `{}`)
	if !result.IsError || !strings.Contains(result.Content[0].Text, "unknown tool") {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestResolveTool(t *testing.T) {
	res := &fakeResolver{}
	srv := New(Deps{Resolver: res}, "test")

	result := callTool(t, srv, "promptsmith_resolve", `{"text":"studio photo of a watch","type":"Image","language":"en"}`)
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content[0].Text)
	}
	text := result.Content[0].Text
	if !strings.HasPrefix(text, "A crisp studio photo") || !strings.Contains(text, "source: cached") {
		t.Errorf("unexpected text %q", text)
	}
	if res.got.Category != models.CategoryImage || res.got.Language != models.LanguageEnglish {
		t.Errorf("arguments not passed through: %+v", res.got)
	}
}

func TestResolveToolErrors(t *testing.T) {
	srv := New(Deps{Resolver: &fakeResolver{err: errors.New("upstream throttled")}}, "test")
	if r := callTool(t, srv, "promptsmith_resolve", `{"text":"x"}`); !r.IsError || !strings.Contains(r.Content[0].Text, "throttled") {
		t.Errorf("expected resolver error, got %+v", r)
	}
	if r := callTool(t, srv, "promptsmith_resolve", `{"text":"  "}`); !r.IsError || r.Content[0].Text != "text is required" {
		t.Errorf("expected missing text error, got %+v", r)
	}
	if r := callTool(t, srv, "promptsmith_resolve", `{"text":"x","type":"audio"}`); !r.IsError {
		t.Errorf("expected invalid type error, got %+v", r)
	}
	if r := callTool(t, New(Deps{}, "test"), "promptsmith_resolve", `{"text":"x"}`); r.IsError || !strings.Contains(r.Content[0].Text, "not configured") {
		t.Errorf("expected not configured, got %+v", r)
	}
}

func TestBudgetTool(t *testing.T) {
	srv := New(Deps{Budget: budget.New(nil, budget.DefaultMinimum)}, "test")
	result := callTool(t, srv, "promptsmith_budget", `{"text":"write a function that parses dates","type":"code"}`)
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content[0].Text)
	}
	text := result.Content[0].Text
	for _, want := range []string{"Category:    code", "Language:    en", "Temperature: 0.2", "tokens"} {
		if !strings.Contains(text, want) {
			t.Errorf("budget preview missing %q:\n%s", want, text)
		}
	}
}

func TestCacheStatsTool(t *testing.T) {
	fc := &fakeCache{stats: models.CacheStats{LocalEntries: 3, SharedEntries: 40, Hits: 6, ApproxHits: 2, Misses: 2}}
	srv := New(Deps{Cache: fc}, "test")

	text := callTool(t, srv, "promptsmith_cache_stats", `{}`).Content[0].Text
	if !strings.Contains(text, "Shared entries: 40") || !strings.Contains(text, "75.0%") {
		t.Errorf("unexpected stats text:\n%s", text)
	}

	fc.err = errors.New("redis down")
	text = callTool(t, srv, "promptsmith_cache_stats", `{}`).Content[0].Text
	if !strings.Contains(text, "Local entries:  3") || !strings.Contains(text, "redis down") {
		t.Errorf("expected counters plus degraded note:\n%s", text)
	}

	if text := callTool(t, New(Deps{}, "test"), "promptsmith_cache_stats", `{}`).Content[0].Text; text != "Cache is not configured." {
		t.Errorf("unexpected text %q", text)
	}
}

func TestStatsTool(t *testing.T) {
	ft := &fakeTracker{
		summaries: []models.UsageSummary{
			{Outcome: models.OutcomeCache, RequestCount: 4, AvgLatencyMs: 1},
			{Outcome: models.OutcomeUpstream, RequestCount: 2, TotalTokens: 900, AvgLatencyMs: 1500},
		},
		top: []models.TopRequest{{Fingerprint: "ab12cd34", Category: models.CategoryImage, Language: models.LanguageEnglish, Count: 5}},
	}
	srv := New(Deps{Tracker: ft}, "test")

	result := callTool(t, srv, "promptsmith_stats", `{"limit":3,"since":"2025-01-01"}`)
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content[0].Text)
	}
	text := result.Content[0].Text
	for _, want := range []string{"upstream", "900", "ab12cd34"} {
		if !strings.Contains(text, want) {
			t.Errorf("stats missing %q:\n%s", want, text)
		}
	}
	if ft.limit != 3 || !ft.since.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("arguments not passed: limit=%d since=%v", ft.limit, ft.since)
	}

	if r := callTool(t, srv, "promptsmith_stats", `{"since":"yesterday"}`); !r.IsError {
		t.Error("expected invalid date error")
	}
	callTool(t, srv, "promptsmith_stats", `{}`)
	if ft.limit != defaultTopLimit {
		t.Errorf("expected default limit, got %d", ft.limit)
	}
}
