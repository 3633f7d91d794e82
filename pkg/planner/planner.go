// Package planner decides how a large document operation is decomposed into
// chunk-level work: which field to split, what prompt to run per chunk,
// whether chunks need document metadata or surrounding context, and which
// chunk sizes and context shapes a downstream evaluator should try.
//
// Split, metadata and context decisions come from an oracle grounded in
// chunks sampled from the data. Chunk sizes and context shapes are computed
// locally from document statistics.
package planner

import (
	"context"
	"log/slog"

	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/observability"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/oracle"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/sample"
)

// Planner runs planning passes against an oracle.
//
// A Planner draws from a single random source and is not safe for
// concurrent use; PlanAll gives every concurrent pass its own source.
type Planner struct {
	oracle   oracle.Oracle
	src      sample.Source
	seed     uint64
	numSizes int
	progress observability.Progress
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures a Planner.
type Option func(*Planner)

// WithSeed seeds the planner's random source. Zero draws a random seed.
func WithSeed(seed uint64) Option {
	return func(p *Planner) {
		p.seed = seed
		p.src = sample.NewSource(seed)
	}
}

// WithSource injects the random source used for every sampling draw.
func WithSource(src sample.Source) Option {
	return func(p *Planner) { p.src = src }
}

// WithNumChunkSizes sets how many candidate chunk sizes Plan proposes.
func WithNumChunkSizes(n int) Option {
	return func(p *Planner) { p.numSizes = n }
}

// WithProgress sets the human-readable progress reporter.
func WithProgress(progress observability.Progress) Option {
	return func(p *Planner) { p.progress = progress }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Planner) { p.metrics = m }
}

// New creates a planner consulting o.
func New(o oracle.Oracle, opts ...Option) *Planner {
	p := &Planner{
		oracle:   o,
		numSizes: DefaultNumChunkSizes,
		progress: observability.NopProgress{},
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.src == nil {
		p.src = sample.NewSource(p.seed)
	}
	return p
}

// fork returns a planner sharing p's collaborators with its own source.
func (p *Planner) fork(src sample.Source) *Planner {
	c := *p
	c.src = src
	return &c
}

// judge sends a single-turn query and checks the answer against schema.
func (p *Planner) judge(ctx context.Context, query, system, prompt string, schema *oracle.Schema) (map[string]any, error) {
	ctx = oracle.WithQuery(ctx, query)
	p.logger.Debug("querying oracle", "query", query, "prompt_chars", len(prompt))

	result, err := p.oracle.Judge(ctx, []oracle.Message{oracle.User(prompt)}, system, schema)
	if err != nil {
		var planErr *planerrors.PlanError
		if planerrors.As(err, &planErr) {
			return nil, err
		}
		return nil, planerrors.TransportError(query+" query failed", err)
	}
	if err := oracle.Validate(result, schema); err != nil {
		return nil, err
	}
	return result, nil
}
