// Package upstream calls the generation providers with retries and a
// provider fallback chain.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pario-ai/promptsmith/pkg/config"
	"github.com/pario-ai/promptsmith/pkg/metrics"
	"github.com/pario-ai/promptsmith/pkg/models"
	"github.com/pario-ai/promptsmith/pkg/router"
)

const (
	anthropicVersion = "2023-06-01"
	maxErrorBody     = 512
)

// Request is one generation call.
type Request struct {
	Category    models.Category
	Language    models.Language
	Text        string
	Budget      int
	Temperature float64
}

// Result is a successful generation.
type Result struct {
	Text     string
	Provider string
	Model    string
	Usage    *models.Usage
}

// Generator produces prompt text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Client is a Generator backed by the configured providers.
type Client struct {
	routes []router.Route
	cfg    config.UpstreamConfig
	http   *http.Client
}

// New builds a Client from the provider list and router order.
func New(cfg *config.Config) (*Client, error) {
	routes, err := router.New(cfg).Resolve()
	if err != nil {
		return nil, fmt.Errorf("upstream: %w", err)
	}
	uc := cfg.Upstream
	if uc.MaxAttempts < 1 {
		uc.MaxAttempts = 1
	}
	if uc.Timeout <= 0 {
		uc.Timeout = 30 * time.Second
	}
	if uc.InitialBackoff <= 0 {
		uc.InitialBackoff = time.Second
	}
	return &Client{routes: routes, cfg: uc, http: http.DefaultClient}, nil
}

// Generate runs the fallback chain up to MaxAttempts times, waiting
// InitialBackoff, then double that, between rounds. Authentication failures
// and other client errors end the call at once.
func (c *Client) Generate(ctx context.Context, req Request) (Result, error) {
	var res Result
	attempt := 0
	operation := func() error {
		attempt++
		r, err := c.chain(ctx, req)
		if err == nil {
			res = r
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		if attempt < c.cfg.MaxAttempts {
			log.Printf("upstream: attempt %d/%d failed: %v", attempt, c.cfg.MaxAttempts, err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.cfg.InitialBackoff * 8
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxAttempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return Result{}, err
	}
	return res, nil
}

// chain tries each route in order. A retryable failure moves on to the next
// route; anything else stops the chain.
func (c *Client) chain(ctx context.Context, req Request) (Result, error) {
	var lastErr error
	for _, route := range c.routes {
		start := time.Now()
		res, err := c.call(ctx, route, req)
		metrics.UpstreamLatency.WithLabelValues(route.Provider.Name).Observe(time.Since(start).Seconds())
		metrics.UpstreamAttempts.WithLabelValues(route.Provider.Name, resultLabel(err)).Inc()
		if err == nil {
			return res, nil
		}
		if !retryable(err) {
			return Result{}, err
		}
		log.Printf("upstream %s failed: %v, trying next", route.Provider.Name, err)
		lastErr = err
	}
	return Result{}, lastErr
}

func (c *Client) call(ctx context.Context, route router.Route, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	system := SystemInstruction(req.Category, req.Language, req.Text)
	user := UserMessage(req.Language, req.Text)
	temp := req.Temperature

	var (
		path    string
		headers map[string]string
		payload any
	)
	if route.Provider.Type == "anthropic" {
		path = "/v1/messages"
		headers = map[string]string{
			"x-api-key":         route.Provider.APIKey,
			"anthropic-version": anthropicVersion,
		}
		payload = models.AnthropicRequest{
			Model:       route.Model,
			System:      system,
			Messages:    []models.ChatMessage{{Role: "user", Content: user}},
			MaxTokens:   req.Budget,
			Temperature: &temp,
		}
	} else {
		path = "/v1/chat/completions"
		headers = map[string]string{"Authorization": "Bearer " + route.Provider.APIKey}
		budget := req.Budget
		payload = models.ChatCompletionRequest{
			Model: route.Model,
			Messages: []models.ChatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			Temperature: &temp,
			MaxTokens:   &budget,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}
	status, respBody, err := c.post(ctx, route.Provider.URL, path, headers, body)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w: %w", route.Provider.Name, ErrTransient, err)
	}
	if status < 200 || status > 299 {
		return Result{}, &StatusError{Provider: route.Provider.Name, Code: status, Body: truncate(string(respBody), maxErrorBody)}
	}

	res := Result{Provider: route.Provider.Name, Model: route.Model}
	if route.Provider.Type == "anthropic" {
		var ar models.AnthropicResponse
		if err := json.Unmarshal(respBody, &ar); err != nil {
			return Result{}, fmt.Errorf("%s: %w: decode response: %w", route.Provider.Name, ErrTransient, err)
		}
		var sb strings.Builder
		for _, block := range ar.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		res.Text = sb.String()
		if ar.Model != "" {
			res.Model = ar.Model
		}
		if ar.Usage != nil {
			res.Usage = ar.Usage.ToUsage()
		}
	} else {
		var cr models.ChatCompletionResponse
		if err := json.Unmarshal(respBody, &cr); err != nil {
			return Result{}, fmt.Errorf("%s: %w: decode response: %w", route.Provider.Name, ErrTransient, err)
		}
		if len(cr.Choices) > 0 {
			res.Text = cr.Choices[0].Message.Content
		}
		if cr.Model != "" {
			res.Model = cr.Model
		}
		res.Usage = cr.Usage
	}

	res.Text = strings.TrimSpace(res.Text)
	if res.Text == "" {
		return Result{}, fmt.Errorf("%s: %w: empty completion", route.Provider.Name, ErrTransient)
	}
	return res, nil
}

// post sends a JSON body to an upstream provider and returns the status and body.
func (c *Client) post(ctx context.Context, providerURL, path string, headers map[string]string, body []byte) (int, []byte, error) {
	target, err := url.Parse(providerURL)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid provider URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(target.String(), "/")+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Classify maps an error from Generate onto one of the sentinel errors, or
// nil if it is none of them.
func Classify(err error) error {
	for _, target := range []error{ErrThrottled, ErrAuth, ErrTransient} {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}
