package main

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/pario-ai/promptsmith/pkg/budget"
	"github.com/pario-ai/promptsmith/pkg/cache"
	"github.com/pario-ai/promptsmith/pkg/cache/redis"
	"github.com/pario-ai/promptsmith/pkg/cache/sqlite"
	"github.com/pario-ai/promptsmith/pkg/config"
	"github.com/pario-ai/promptsmith/pkg/models"
	"github.com/pario-ai/promptsmith/pkg/resolver"
	"github.com/pario-ai/promptsmith/pkg/rules"
	"github.com/pario-ai/promptsmith/pkg/sanitize"
	"github.com/pario-ai/promptsmith/pkg/tracker"
	"github.com/pario-ai/promptsmith/pkg/upstream"
)

// app holds everything a command may need. Fields not requested stay nil.
type app struct {
	cfg      *config.Config
	cache    *cache.TieredCache
	tracker  *tracker.SQLiteTracker
	budget   *budget.Allocator
	resolver *resolver.Resolver
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

// sharedCache returns the cache as an interface, nil when disabled.
func (a *app) sharedCache() cache.Cache {
	if a.cache == nil {
		return nil
	}
	return a.cache
}

// loadApp loads config and builds the cache, tracker and budget allocator.
// Commands that generate call buildResolver afterwards.
func loadApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a := &app{cfg: cfg}

	alloc, err := newAllocator(cfg.Budget)
	if err != nil {
		return nil, err
	}
	a.budget = alloc

	if cfg.Cache.Enabled {
		c, closeFn, err := newCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.cache = c
		if closeFn != nil {
			a.closers = append(a.closers, closeFn)
		}
	}

	tr, err := tracker.New(cfg.DBPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init tracker: %w", err)
	}
	a.tracker = tr
	a.closers = append(a.closers, tr.Close)
	return a, nil
}

// buildResolver wires the upstream client and resolver. It needs at least
// one configured provider.
func (a *app) buildResolver() error {
	gen, err := upstream.New(a.cfg)
	if err != nil {
		return err
	}
	res, err := resolver.New(resolver.Options{
		Rules:     rules.Default(),
		Budget:    a.budget,
		Generator: gen,
		Filter:    sanitize.New(slices.Concat(sanitize.DefaultTokens, a.cfg.Sanitize.ExtraTokens)...),
		Cache:     a.sharedCache(),
		Tracker:   a.tracker,
	})
	if err != nil {
		return err
	}
	a.resolver = res
	return nil
}

// newCache builds the tiered cache with the configured shared backend.
func newCache(ctx context.Context, cfg *config.Config) (*cache.TieredCache, func() error, error) {
	opts := cache.Options{
		LocalSize:           cfg.Cache.LocalSize,
		WindowSize:          cfg.Cache.WindowSize,
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		BaseTTL:             cfg.Cache.BaseTTL,
		MaxTTL:              cfg.Cache.MaxTTL,
		SharedTimeout:       cfg.Cache.SharedTimeout,
	}

	switch cfg.Cache.Backend {
	case config.BackendRedis:
		store, err := redis.New(ctx, redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			log.Printf("cache: redis unavailable, running local only until restart: %v", err)
			return cache.NewTiered(opts, nil), nil, nil
		}
		return cache.NewTiered(opts, store), store.Close, nil
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("init cache: %w", err)
		}
		return cache.NewTiered(opts, store), store.Close, nil
	default:
		return cache.NewTiered(opts, nil), nil, nil
	}
}

// newAllocator converts the config budget table, rejecting unknown keys.
func newAllocator(bc config.BudgetConfig) (*budget.Allocator, error) {
	table := budget.Table{}
	for langName, cats := range bc.Base {
		lang, err := models.ParseLanguage(langName)
		if err != nil {
			return nil, fmt.Errorf("budget.base: %w", err)
		}
		for catName, n := range cats {
			cat, err := models.ParseCategory(catName)
			if err != nil {
				return nil, fmt.Errorf("budget.base.%s: %w", langName, err)
			}
			if table[lang] == nil {
				table[lang] = map[models.Category]int{}
			}
			table[lang][cat] = n
		}
	}
	return budget.New(table, bc.Min), nil
}
