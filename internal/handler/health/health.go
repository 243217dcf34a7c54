// Package health serves the dependency health report.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDegraded = "degraded"
)

type Handler struct {
	checks   map[string]Checker
	optional map[string]Checker
	logger   *slog.Logger
}

// NewHandler reports 503 when any of checks fails.
func NewHandler(logger *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{checks: checks, optional: map[string]Checker{}, logger: logger}
}

// Optional adds a dependency the game can run without. Its failure is
// reported as degraded and keeps the status at 200.
func (h *Handler) Optional(name string, c Checker) *Handler {
	h.optional[name] = c
	return h
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type result struct {
	Status string `json:"status"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]result, len(h.checks)+len(h.optional))
		status  = http.StatusOK
	)
	run := func(name string, c Checker, required bool) {
		defer wg.Done()
		err := c.Check(ctx)

		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			results[name] = result{Status: StatusOK}
		case required:
			h.logger.Error("health check failed", "name", name, "error", err)
			results[name] = result{Status: StatusError}
			status = http.StatusServiceUnavailable
		default:
			h.logger.Warn("optional health check failed", "name", name, "error", err)
			results[name] = result{Status: StatusDegraded}
		}
	}

	for name, c := range h.checks {
		wg.Add(1)
		go run(name, c, true)
	}
	for name, c := range h.optional {
		wg.Add(1)
		go run(name, c, false)
	}
	wg.Wait()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(results)
}
