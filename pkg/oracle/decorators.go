package oracle

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/cache"
	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/observability"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/security"
)

type queryKey struct{}

// WithQuery labels the oracle calls made with ctx, e.g. "split" or "context".
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

// QueryFromContext returns the label set by WithQuery, or "judge".
func QueryFromContext(ctx context.Context) string {
	if q, ok := ctx.Value(queryKey{}).(string); ok && q != "" {
		return q
	}
	return "judge"
}

// uncachedQueries are always sent to the backend. The caller validates a
// split judgment against the sample after it returns, so a rejected split
// key must never be replayed from the cache.
var uncachedQueries = map[string]bool{"split": true}

// Cached serves repeated identical judgments from a cache.
type Cached struct {
	next    Oracle
	store   cache.Cache
	keys    *cache.KeyGenerator
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCached wraps next with store.
func NewCached(next Oracle, store cache.Cache, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Cached{
		next:    next,
		store:   store,
		keys:    cache.NewKeyGenerator("judgment"),
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// Judge implements Oracle.
func (c *Cached) Judge(ctx context.Context, conversation []Message, system string, schema *Schema) (map[string]any, error) {
	if uncachedQueries[QueryFromContext(ctx)] {
		return c.next.Judge(ctx, conversation, system, schema)
	}
	convJSON, err := json.Marshal(conversation)
	if err != nil {
		return c.next.Judge(ctx, conversation, system, schema)
	}
	key := c.keys.Generate(system, string(convJSON), SchemaJSON(schema))

	if data, err := c.store.Get(ctx, key); err == nil {
		var result map[string]any
		if json.Unmarshal(data, &result) == nil && Validate(result, schema) == nil {
			c.metrics.RecordCacheOperation(true, QueryFromContext(ctx))
			return result, nil
		}
	}
	c.metrics.RecordCacheOperation(false, QueryFromContext(ctx))

	result, err := c.next.Judge(ctx, conversation, system, schema)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("failed to cache judgment", "error", err)
		}
	}
	return result, nil
}

// Guarded screens outgoing user content for prompt injection. Sampled
// documents are untrusted input that end up verbatim in planning prompts.
type Guarded struct {
	next     Oracle
	detector *security.Detector
	mode     security.Mode
	logger   *slog.Logger
}

// NewGuarded wraps next. ModeOff returns a pass-through guard.
func NewGuarded(next Oracle, mode security.Mode, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Guarded{
		next:     next,
		detector: security.NewDetector(),
		mode:     mode,
		logger:   logger,
	}
}

// Judge implements Oracle.
func (g *Guarded) Judge(ctx context.Context, conversation []Message, system string, schema *Schema) (map[string]any, error) {
	if g.mode != security.ModeOff {
		for _, m := range conversation {
			if m.Role != RoleUser {
				continue
			}
			result := g.detector.Scan(m.Content)
			if !result.Suspicious {
				continue
			}
			if g.mode == security.ModeBlock {
				return nil, planerrors.ValidationError("oracle prompt blocked", &security.InjectionError{Result: result}).
					WithContext("query", QueryFromContext(ctx))
			}
			g.logger.Warn("possible prompt injection in sampled content",
				"query", QueryFromContext(ctx),
				"score", result.Score,
				"categories", result.Categories())
		}
	}
	return g.next.Judge(ctx, conversation, system, schema)
}

// Instrumented records call counts, failures and latency per query.
type Instrumented struct {
	next    Oracle
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewInstrumented wraps next.
func NewInstrumented(next Oracle, metrics *observability.Metrics, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Instrumented{next: next, metrics: metrics, logger: logger}
}

// Judge implements Oracle.
func (i *Instrumented) Judge(ctx context.Context, conversation []Message, system string, schema *Schema) (map[string]any, error) {
	query := QueryFromContext(ctx)
	start := time.Now()
	result, err := i.next.Judge(ctx, conversation, system, schema)
	elapsed := time.Since(start)

	i.metrics.RecordOracleCall(query, elapsed, err)
	if err != nil {
		i.logger.Debug("oracle call failed", "query", query, "duration", elapsed, "error", err)
	} else {
		i.logger.Debug("oracle call", "query", query, "duration", elapsed)
	}
	return result, err
}
