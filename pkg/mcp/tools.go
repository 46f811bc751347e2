package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pario-ai/promptsmith/pkg/budget"
	"github.com/pario-ai/promptsmith/pkg/classify"
	"github.com/pario-ai/promptsmith/pkg/models"
)

const defaultTopLimit = 10

type tool struct {
	def    ToolDefinition
	handle func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult
}

// requestSchema is shared by the tools that take a prompt request.
var requestSchema = map[string]any{
	"type":     "object",
	"required": []string{"text"},
	"properties": map[string]any{
		"text": map[string]any{
			"type":        "string",
			"description": "The idea to turn into a prompt",
		},
		"type": map[string]any{
			"type":        "string",
			"enum":        []string{"text", "image", "video", "code"},
			"description": "Target category (optional, inferred when omitted)",
		},
		"language": map[string]any{
			"type":        "string",
			"enum":        []string{"ar", "en"},
			"description": "Request language (optional, detected when omitted)",
		},
	},
}

var tools = []tool{
	{
		def: ToolDefinition{
			Name:        "promptsmith_resolve",
			Description: "Turn a short idea into a professional prompt for text, image, video or code tools.",
			InputSchema: requestSchema,
		},
		handle: handleResolve,
	},
	{
		def: ToolDefinition{
			Name:        "promptsmith_budget",
			Description: "Preview the complexity score, generation budget and temperature for an idea without generating.",
			InputSchema: requestSchema,
		},
		handle: handleBudget,
	},
	{
		def: ToolDefinition{
			Name:        "promptsmith_cache_stats",
			Description: "Show prompt cache statistics (entries, hits, approximate hits, misses, hit rate).",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		handle: handleCacheStats,
	},
	{
		def: ToolDefinition{
			Name:        "promptsmith_stats",
			Description: "Show resolutions by outcome and the most requested prompts.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"limit": map[string]any{
						"type":        "integer",
						"description": "How many top requests to list (optional, default 10)",
					},
					"since": map[string]any{
						"type":        "string",
						"description": "Start date in YYYY-MM-DD format (optional, defaults to all time)",
					},
				},
			},
		},
		handle: handleStats,
	},
}

func toolDefinitions() []ToolDefinition {
	defs := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = t.def
	}
	return defs
}

func toolByName(name string) (tool, bool) {
	for _, t := range tools {
		if t.def.Name == name {
			return t, true
		}
	}
	return tool{}, false
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

type requestArgs struct {
	Text     string `json:"text"`
	Type     string `json:"type"`
	Language string `json:"language"`
}

func (a requestArgs) toRequest() (models.PromptRequest, error) {
	req := models.PromptRequest{Text: a.Text}
	if name := strings.ToLower(strings.TrimSpace(a.Type)); name != "" {
		cat, err := models.ParseCategory(name)
		if err != nil {
			return req, err
		}
		req.Category = cat
	}
	if code := strings.ToLower(strings.TrimSpace(a.Language)); code != "" {
		lang, err := models.ParseLanguage(code)
		if err != nil {
			return req, err
		}
		req.Language = lang
	}
	return req, nil
}

func parseRequest(raw json.RawMessage) (models.PromptRequest, string) {
	var args requestArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return models.PromptRequest{}, "Invalid arguments: " + err.Error()
		}
	}
	if strings.TrimSpace(args.Text) == "" {
		return models.PromptRequest{}, "text is required"
	}
	req, err := args.toRequest()
	if err != nil {
		return req, "Invalid arguments: " + err.Error()
	}
	return req, ""
}

func handleResolve(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	if s.deps.Resolver == nil {
		return textResult("Prompt generation is not configured.")
	}
	req, problem := parseRequest(raw)
	if problem != "" {
		return errorResult(problem)
	}
	resp, err := s.deps.Resolver.Resolve(ctx, req)
	if err != nil {
		return errorResult("Error generating prompt: " + err.Error())
	}
	return textResult(formatResolution(resp))
}

func handleBudget(_ context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	req, problem := parseRequest(raw)
	if problem != "" {
		return errorResult(problem)
	}
	alloc := s.deps.Budget
	if alloc == nil {
		alloc = budget.New(nil, budget.DefaultMinimum)
	}
	text := strings.TrimSpace(req.Text)
	lang := req.Language
	if lang == "" {
		lang = classify.Language(text)
	}
	cat := req.Category
	if cat == "" {
		cat = classify.Category(text)
	}
	c := budget.Estimate(text)
	return textResult(formatBudget(cat, lang, c, alloc.ForComplexity(lang, cat, c), alloc.Base(lang, cat), budget.Temperature(cat)))
}

func handleCacheStats(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.deps.Cache == nil {
		return textResult("Cache is not configured.")
	}
	stats, err := s.deps.Cache.Stats(ctx)
	if err != nil {
		// counters are still valid when only the shared tier failed
		return textResult(formatCacheStats(stats) + "  Shared tier unavailable: " + err.Error() + "\n")
	}
	return textResult(formatCacheStats(stats))
}

type statsArgs struct {
	Limit int    `json:"limit"`
	Since string `json:"since"`
}

func handleStats(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	if s.deps.Tracker == nil {
		return textResult("Usage tracking is not configured.")
	}
	var args statsArgs
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &args)
	}
	if args.Limit <= 0 {
		args.Limit = defaultTopLimit
	}
	var since time.Time
	if args.Since != "" {
		t, err := time.Parse("2006-01-02", args.Since)
		if err != nil {
			return errorResult("Invalid since date (use YYYY-MM-DD): " + err.Error())
		}
		since = t
	}

	summary, err := s.deps.Tracker.Summary(ctx, since)
	if err != nil {
		return errorResult("Error fetching stats: " + err.Error())
	}
	top, err := s.deps.Tracker.TopRequested(ctx, since, args.Limit)
	if err != nil {
		return errorResult("Error fetching top requests: " + err.Error())
	}
	return textResult(formatSummary(summary) + "\n" + formatTop(top))
}
