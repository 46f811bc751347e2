package router

import (
	"fmt"

	"github.com/pario-ai/promptsmith/pkg/config"
)

// Route is one provider and model to try.
type Route struct {
	Provider config.ProviderConfig
	Model    string
}

// Router orders the configured providers into a fallback chain.
type Router struct {
	cfg *config.Config
}

// New creates a Router from the given configuration.
func New(cfg *config.Config) *Router {
	return &Router{cfg: cfg}
}

// Resolve returns the providers to try, in order. With router.order set the
// named providers come first in that order and the rest follow in list
// order; otherwise the providers list order is used as is.
func (r *Router) Resolve() ([]Route, error) {
	if len(r.cfg.Providers) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}

	// Build provider index by name
	providerIndex := make(map[string]config.ProviderConfig, len(r.cfg.Providers))
	for _, p := range r.cfg.Providers {
		providerIndex[p.Name] = p
	}

	routes := make([]Route, 0, len(r.cfg.Providers))
	used := make(map[string]bool, len(r.cfg.Providers))
	for _, name := range r.cfg.Router.Order {
		provider, ok := providerIndex[name]
		if !ok || used[name] {
			continue // skip unknown or repeated providers
		}
		used[name] = true
		routes = append(routes, Route{Provider: provider, Model: modelFor(provider)})
	}
	for _, p := range r.cfg.Providers {
		if !used[p.Name] {
			routes = append(routes, Route{Provider: p, Model: modelFor(p)})
		}
	}
	return routes, nil
}

// Default models per provider type when none is configured.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

func modelFor(p config.ProviderConfig) string {
	if p.Model != "" {
		return p.Model
	}
	if p.Type == "anthropic" {
		return DefaultAnthropicModel
	}
	return DefaultOpenAIModel
}
