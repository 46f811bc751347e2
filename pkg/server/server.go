// Package server exposes the resolver over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pario-ai/promptsmith/pkg/cache"
	"github.com/pario-ai/promptsmith/pkg/classify"
	"github.com/pario-ai/promptsmith/pkg/config"
	"github.com/pario-ai/promptsmith/pkg/metrics"
	"github.com/pario-ai/promptsmith/pkg/models"
	"github.com/pario-ai/promptsmith/pkg/rules"
	"github.com/pario-ai/promptsmith/pkg/tracker"
)

const (
	maxBodyBytes = 64 << 10
	topLimit     = 10
)

// Resolver is the part of resolver.Resolver the server needs.
type Resolver interface {
	Resolve(ctx context.Context, req models.PromptRequest) (models.PromptResponse, error)
}

// Server is the Promptsmith HTTP front end.
type Server struct {
	cfg      *config.Config
	resolver Resolver
	cache    cache.Cache
	tracker  tracker.Tracker
	limiters *limiterSet
	mux      *http.ServeMux
	now      func() time.Time
}

// New creates a Server. c and t may be nil.
func New(cfg *config.Config, res Resolver, c cache.Cache, t tracker.Tracker) *Server {
	s := &Server{
		cfg:      cfg,
		resolver: res,
		cache:    c,
		tracker:  t,
		limiters: newLimiterSet(cfg.Server.RateLimit, cfg.Server.Burst),
		mux:      http.NewServeMux(),
		now:      time.Now,
	}
	s.mux.HandleFunc("POST /generate-prompt", s.handleGenerate)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	return s
}

// ServeHTTP implements http.Handler. Every response carries an X-Request-ID.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
		r.Header.Set("X-Request-ID", id)
	}
	w.Header().Set("X-Request-ID", id)
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("promptsmith listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

// generateRequest accepts "type" as the original field name for the category.
type generateRequest struct {
	Text     string `json:"text"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Language string `json:"language"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-ID")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, msgBadRequest.in(models.LanguageEnglish))
		return
	}
	var in generateRequest
	if err := json.Unmarshal(body, &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, msgBadRequest.in(models.LanguageEnglish))
		return
	}

	req, err := in.toPromptRequest()
	// errors are reported in the request's language, or the text's
	lang := req.Language
	if lang == "" {
		lang = classify.Language(in.Text)
	}
	if err != nil {
		log.Printf("server: %s: bad request: %v", reqID, err)
		writeJSONError(w, http.StatusBadRequest, msgBadRequest.in(lang))
		return
	}

	if !s.limiters.allow(clientKey(r)) {
		metrics.RateLimited.Inc()
		writeJSONError(w, http.StatusTooManyRequests, msgBusy.in(lang))
		return
	}

	resp, err := s.resolver.Resolve(r.Context(), req)
	if err != nil {
		code, msg := statusFor(err)
		if code != http.StatusBadRequest {
			log.Printf("server: %s: resolve failed: %v", reqID, err)
		}
		writeJSONError(w, code, msg.in(lang))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (in generateRequest) toPromptRequest() (models.PromptRequest, error) {
	req := models.PromptRequest{Text: in.Text}
	name := in.Category
	if name == "" {
		name = in.Type
	}
	if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
		cat, err := models.ParseCategory(name)
		if err != nil {
			return req, err
		}
		req.Category = cat
	}
	if code := strings.ToLower(strings.TrimSpace(in.Language)); code != "" {
		lang, err := models.ParseLanguage(code)
		if err != nil {
			return req, err
		}
		req.Language = lang
	}
	return req, nil
}

type healthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	CacheActive bool   `json:"cache_active"`
	Timestamp   string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Service:     rules.ServiceName,
		CacheActive: s.cache != nil,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	})
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Cache         *models.CacheStats    `json:"cache,omitempty"`
	MostRequested []models.TopRequest   `json:"most_requested"`
	Outcomes      []models.UsageSummary `json:"outcomes"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.Stats(r.Context())
	if err != nil {
		log.Printf("server: stats: %v", err)
		writeJSONError(w, http.StatusInternalServerError, msgGeneric.in(models.LanguageEnglish))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Stats gathers cache and usage statistics. A degraded shared cache tier is
// reported through the counters, not as an error.
func (s *Server) Stats(ctx context.Context) (StatsResponse, error) {
	out := StatsResponse{
		MostRequested: []models.TopRequest{},
		Outcomes:      []models.UsageSummary{},
	}
	if s.cache != nil {
		cs, err := s.cache.Stats(ctx)
		if err != nil {
			log.Printf("server: cache stats: %v", err)
		}
		out.Cache = &cs
	}
	if s.tracker == nil {
		return out, nil
	}
	top, err := s.tracker.TopRequested(ctx, time.Time{}, topLimit)
	if err != nil {
		return out, fmt.Errorf("top requested: %w", err)
	}
	summary, err := s.tracker.Summary(ctx, time.Time{})
	if err != nil {
		return out, fmt.Errorf("usage summary: %w", err)
	}
	if top != nil {
		out.MostRequested = top
	}
	if summary != nil {
		out.Outcomes = summary
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: write response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "promptsmith_error",
			"code":    code,
		},
	})
}
