// Package executor runs selected registry operations against the upstream
// data API: strictly sequential, paced, with bounded retry per operation.
// A failing operation never aborts the batch.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/adsight/adsight/ai/cache"
	"github.com/adsight/adsight/ai/metrics"
	"github.com/adsight/adsight/chat/registry"
	"github.com/adsight/adsight/chat/state"
)

// bulkNoticeThreshold is the batch size at which a slow-run notice is logged.
const bulkNoticeThreshold = 4

// Executor runs operation batches for a turn.
type Executor struct {
	invoker  Invoker
	registry *registry.Registry
	limiter  *rate.Limiter
	cache    *cache.LRUCache[string, json.RawMessage]
	cacheTTL time.Duration
	exporter *metrics.PrometheusExporter
}

// Option configures an Executor.
type Option func(*Executor)

// WithLimiter overrides the pacing limiter. Tests pass an unlimited one.
func WithLimiter(l *rate.Limiter) Option {
	return func(e *Executor) { e.limiter = l }
}

// WithResponseCache enables the TTL response cache. The cache is an
// optimization only: a miss or a stale entry just falls through to the
// upstream call.
func WithResponseCache(c *cache.LRUCache[string, json.RawMessage], ttl time.Duration) Option {
	return func(e *Executor) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// WithMetrics attaches the Prometheus exporter.
func WithMetrics(exporter *metrics.PrometheusExporter) Option {
	return func(e *Executor) { e.exporter = exporter }
}

// New creates an executor. The default limiter spaces calls 500ms apart.
func New(invoker Invoker, reg *registry.Registry, opts ...Option) *Executor {
	e := &Executor{
		invoker:  invoker,
		registry: reg,
		limiter:  rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the turn's selected operations in order. Each name runs at
// most once; results are partitioned into successes and failures on the turn
// state; the batch always runs to the end.
func (e *Executor) Execute(ctx context.Context, st *state.TurnState) {
	names := dedupe(st.SelectedOperations)
	if len(names) == 0 {
		return
	}

	if len(names) >= bulkNoticeThreshold {
		slog.Info("executor: large batch, this may take a while",
			"operations", len(names), "session", st.SessionID)
	}

	succeeded := 0
	for i, name := range names {
		op, ok := e.registry.Lookup(st.Domain, name)
		if !ok {
			// Selection validates names; a miss here is a programming error,
			// recorded rather than fatal.
			st.AddError(fmt.Sprintf("Operation %s failed: not in catalog", name))
			continue
		}

		if i > 0 {
			if err := e.limiter.Wait(ctx); err != nil {
				st.AddError(fmt.Sprintf("Operation %s failed: %v", name, err))
				continue
			}
		}

		result := e.run(ctx, st, op)
		st.Results = append(st.Results, result)
		st.OperationsInvoked = append(st.OperationsInvoked, name)

		if result.Success {
			succeeded++
		} else {
			st.AddError(fmt.Sprintf("Operation %s failed: %s", name, result.Error))
			slog.Warn("executor: operation failed",
				"operation", name, "target", callTarget(op), "attempts", result.Attempts, "error", result.Error)
		}
	}

	if succeeded == 0 && len(names) > 0 {
		st.AddWarning("all operations failed; the answer is based on no fresh data")
	}
}

// run invokes one operation, consulting the response cache first.
func (e *Executor) run(ctx context.Context, st *state.TurnState, op registry.Operation) state.OperationResult {
	call := buildCall(st, op)

	var key string
	if e.cache != nil {
		key = cacheKey(op, st, call)
		if data, ok := e.cache.Get(key); ok {
			if e.exporter != nil {
				e.exporter.ObserveCacheHit(op.Name)
			}
			slog.Debug("executor: cache hit", "operation", op.Name)
			return state.OperationResult{
				Operation: op.Name,
				Path:      op.Path,
				Method:    op.Method,
				Params:    call.Params,
				Success:   true,
				Data:      data,
				Timestamp: time.Now(),
			}
		}
		if e.exporter != nil {
			e.exporter.ObserveCacheMiss(op.Name)
		}
	}

	started := time.Now()
	result := e.invoker.Invoke(ctx, op, call)
	if e.exporter != nil {
		status := "error"
		if result.Success {
			status = "ok"
		}
		e.exporter.ObserveOperation(op.Name, status, time.Since(started))
	}

	if result.Success && e.cache != nil {
		e.cache.Set(key, result.Data, e.cacheTTL)
	}
	return result
}

// FetchCandidates implements the granularity controller's candidate source:
// it runs the level's listing operation and parses the entities out of the
// response.
func (e *Executor) FetchCandidates(ctx context.Context, st *state.TurnState, level state.GranularityLevel) ([]state.Candidate, error) {
	op, ok := e.registry.ListOperation(st.Domain, level)
	if !ok {
		return nil, fmt.Errorf("no listing operation for %s at %s level", st.Domain, level)
	}

	// Listing enumerates everything at the level; on large accounts this is
	// the slowest call of the turn.
	slog.Info(fmt.Sprintf("executor: loading all %ss, this may take several minutes", level),
		"operation", op.Name, "session", st.SessionID)

	result := e.run(ctx, st, op)
	st.Results = append(st.Results, result)
	st.OperationsInvoked = append(st.OperationsInvoked, op.Name)
	if !result.Success {
		return nil, fmt.Errorf("list %ss: %s", level, result.Error)
	}

	return parseCandidates(result.Data), nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		if !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	return out
}
