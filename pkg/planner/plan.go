package planner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/perf"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/sample"
)

// Plan runs one full planning pass for op: split, chunk sizes, metadata and
// context at the smallest candidate size, then the peripheral space for
// every size. Any error aborts the pass; no partial plan is returned.
func (p *Planner) Plan(ctx context.Context, op pipeline.Operation, s pipeline.Sample) (plan *Plan, err error) {
	start := time.Now()
	defer func() {
		p.metrics.RecordPlan(op.Name, time.Since(start), err)
	}()

	if err := op.Validate(); err != nil {
		return nil, err
	}

	split, err := p.PlanSplit(ctx, op, s)
	if err != nil {
		return nil, err
	}

	sizes := ChunkSizes(split.SplitKey, s, p.numSizes)
	representative := sizes[0]

	metadata, err := p.PlanMetadata(ctx, op, split.Subprompt, representative, split.SplitKey, s)
	if err != nil {
		return nil, err
	}

	contextPlan, err := p.PlanContext(ctx, op, split.Subprompt, representative, split.SplitKey, s)
	if err != nil {
		return nil, err
	}

	avg := sample.AverageWords(s, split.SplitKey)
	candidates := make([]Candidate, 0, len(sizes))
	for _, size := range sizes {
		space := PeripheralConfigs(size, int(avg))
		candidates = append(candidates, Candidate{
			ChunkSize:   size,
			Peripherals: space,
			Recommended: Recommend(space, *contextPlan),
		})
	}

	plan = &Plan{
		ID:          uuid.NewString(),
		Operation:   op.Name,
		Split:       *split,
		Metadata:    *metadata,
		Context:     *contextPlan,
		SampleSize:  len(s),
		AvgDocWords: avg,
		Candidates:  candidates,
		CreatedAt:   time.Now().UTC(),
	}

	elapsed := time.Since(start)
	p.logger.Info("planned operation",
		"operation", op.Name,
		"plan_id", plan.ID,
		"split_key", split.SplitKey,
		"needs_metadata", metadata.NeedsMetadata,
		"needs_peripherals", contextPlan.NeedsPeripherals,
		"chunk_sizes", sizes,
		"duration", elapsed)
	return plan, nil
}

// Result is the outcome of planning one operation in a batch.
type Result struct {
	Operation string `json:"operation"`
	Plan      *Plan  `json:"plan,omitempty"`
	Err       error  `json:"-"`
}

// PlanAll plans independent operations with at most concurrency passes in
// flight. Each pass draws from its own source: seeded with seed+i+1 when
// seed is non-zero, randomly otherwise. A failing operation does not stop
// the others; its error is reported in its Result.
func (p *Planner) PlanAll(ctx context.Context, ops []pipeline.Operation, s pipeline.Sample, seed uint64, concurrency int) ([]Result, error) {
	type job struct {
		index int
		op    pipeline.Operation
	}
	jobs := make([]job, len(ops))
	for i, op := range ops {
		jobs[i] = job{index: i, op: op}
	}

	return perf.Map(ctx, jobs, func(ctx context.Context, j job) (Result, error) {
		var jobSeed uint64
		if seed != 0 {
			jobSeed = seed + uint64(j.index) + 1
		}
		plan, err := p.fork(sample.NewSource(jobSeed)).Plan(ctx, j.op, s)
		if err != nil {
			p.logger.Warn("planning failed", "operation", j.op.Name, "error", err)
		}
		return Result{Operation: j.op.Name, Plan: plan, Err: err}, nil
	}, concurrency)
}
