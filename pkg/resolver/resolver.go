// Package resolver turns a prompt request into a response: canned rules
// first, then the fingerprint cache, then the upstream generator.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pario-ai/promptsmith/pkg/budget"
	"github.com/pario-ai/promptsmith/pkg/cache"
	"github.com/pario-ai/promptsmith/pkg/classify"
	"github.com/pario-ai/promptsmith/pkg/metrics"
	"github.com/pario-ai/promptsmith/pkg/models"
	"github.com/pario-ai/promptsmith/pkg/rules"
	"github.com/pario-ai/promptsmith/pkg/sanitize"
	"github.com/pario-ai/promptsmith/pkg/textnorm"
	"github.com/pario-ai/promptsmith/pkg/tracker"
	"github.com/pario-ai/promptsmith/pkg/upstream"
)

var (
	// ErrInvalidInput means the request text was empty after trimming.
	ErrInvalidInput = errors.New("invalid input: empty text")

	ErrUpstreamThrottled = upstream.ErrThrottled
	ErrUpstreamAuth      = upstream.ErrAuth
	ErrUpstreamTransient = upstream.ErrTransient
)

// Options wires a Resolver. Generator is required; Cache and Tracker may be
// nil. Nil Rules, Budget and Filter get the stock defaults.
type Options struct {
	Rules     *rules.Engine
	Cache     cache.Cache
	Budget    *budget.Allocator
	Generator upstream.Generator
	Filter    *sanitize.Filter
	Tracker   tracker.Tracker
}

// Resolver is safe for concurrent use.
type Resolver struct {
	rules   *rules.Engine
	cache   cache.Cache
	budget  *budget.Allocator
	gen     upstream.Generator
	filter  *sanitize.Filter
	tracker tracker.Tracker
	group   singleflight.Group
	now     func() time.Time
}

// New creates a Resolver.
func New(o Options) (*Resolver, error) {
	if o.Generator == nil {
		return nil, fmt.Errorf("resolver: generator is required")
	}
	if o.Rules == nil {
		o.Rules = rules.Default()
	}
	if o.Budget == nil {
		o.Budget = budget.New(nil, budget.DefaultMinimum)
	}
	if o.Filter == nil {
		o.Filter = sanitize.Default()
	}
	return &Resolver{
		rules:   o.Rules,
		cache:   o.Cache,
		budget:  o.Budget,
		gen:     o.Generator,
		filter:  o.Filter,
		tracker: o.Tracker,
		now:     time.Now,
	}, nil
}

// generated is what a shared upstream call hands to every waiter.
type generated struct {
	text   string
	budget int
	tokens int
}

// Resolve answers one request. Errors match ErrInvalidInput or one of the
// ErrUpstream* sentinels under errors.Is.
func (r *Resolver) Resolve(ctx context.Context, req models.PromptRequest) (models.PromptResponse, error) {
	start := r.now()
	text := strings.TrimSpace(req.Text)
	if text == "" {
		metrics.Resolutions.WithLabelValues(string(models.OutcomeError), "", "").Inc()
		return models.PromptResponse{}, ErrInvalidInput
	}

	lang := req.Language
	if lang == "" {
		lang = classify.Language(text)
	}

	if m, ok := r.rules.Match(text, lang); ok {
		cat := req.Category
		if cat == "" {
			cat = m.Category
		}
		r.record(ctx, start, models.UsageRecord{Category: cat, Language: lang, Outcome: models.OutcomeRule})
		return models.PromptResponse{Category: cat, Language: lang, Text: m.Response, RuleBased: true}, nil
	}

	cat := req.Category
	if cat == "" {
		cat = classify.Category(text)
	}
	fp := cache.Fingerprint(textnorm.Normalize(text), cat, lang)
	rec := models.UsageRecord{Fingerprint: cache.Short(fp), Category: cat, Language: lang}

	if r.cache != nil {
		if hit, ok := r.cache.Lookup(ctx, text, cat, lang); ok {
			rec.Outcome = models.OutcomeCache
			r.record(ctx, start, rec)
			return models.PromptResponse{Category: cat, Language: lang, Text: hit.Response, Cached: true}, nil
		}
	}

	// Waiters share the leader's call but each honours its own context.
	ch := r.group.DoChan(fp, func() (interface{}, error) {
		return r.generate(context.WithoutCancel(ctx), text, cat, lang)
	})
	var out generated
	select {
	case <-ctx.Done():
		rec.Outcome = models.OutcomeError
		r.record(ctx, start, rec)
		return models.PromptResponse{}, fmt.Errorf("%w: %w", ErrUpstreamTransient, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			rec.Outcome = models.OutcomeError
			r.record(ctx, start, rec)
			return models.PromptResponse{}, res.Err
		}
		out = res.Val.(generated)
	}

	rec.Outcome = models.OutcomeUpstream
	rec.Budget = out.budget
	rec.TotalTokens = out.tokens
	r.record(ctx, start, rec)
	return models.PromptResponse{Category: cat, Language: lang, Text: out.text}, nil
}

// generate calls the upstream, filters the output and stores it.
func (r *Resolver) generate(ctx context.Context, text string, cat models.Category, lang models.Language) (generated, error) {
	n := r.budget.Allocate(lang, cat, text)
	res, err := r.gen.Generate(ctx, upstream.Request{
		Category:    cat,
		Language:    lang,
		Text:        text,
		Budget:      n,
		Temperature: budget.Temperature(cat),
	})
	if err != nil {
		log.Printf("resolver: generate %s/%s: %v", cat, lang, err)
		if upstream.Classify(err) == nil {
			return generated{}, fmt.Errorf("%w: %w", ErrUpstreamTransient, err)
		}
		return generated{}, fmt.Errorf("generate: %w", err)
	}

	out, action := r.filter.Clean(res.Text, lang)
	if action != sanitize.ActionNone {
		metrics.Sanitized.WithLabelValues(string(action)).Inc()
	}
	// A fallback notice is not worth caching; the next request retries.
	if r.cache != nil && action != sanitize.ActionFallback {
		r.cache.Store(ctx, text, cat, lang, out)
	}

	g := generated{text: out, budget: n}
	if res.Usage != nil {
		g.tokens = res.Usage.TotalTokens
	}
	return g, nil
}

func (r *Resolver) record(ctx context.Context, start time.Time, rec models.UsageRecord) {
	metrics.Resolutions.WithLabelValues(string(rec.Outcome), string(rec.Category), string(rec.Language)).Inc()
	if r.tracker == nil {
		return
	}
	rec.LatencyMs = r.now().Sub(start).Milliseconds()
	rec.CreatedAt = r.now().UTC()
	if err := r.tracker.Record(context.WithoutCancel(ctx), rec); err != nil {
		log.Printf("resolver: record usage: %v", err)
	}
}
