package planner

import (
	"context"
	"fmt"

	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/oracle"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/sample"
)

// PlanContext asks the oracle whether a chunk needs surrounding chunks or the
// document head or tail. The chunk start is uniform over the whole document,
// edges included. The answer is advisory and only schema-checked.
func (p *Planner) PlanContext(ctx context.Context, op pipeline.Operation, subprompt string, chunkSize int, splitKey string, s pipeline.Sample) (*ContextPlan, error) {
	if chunkSize <= 0 {
		return nil, planerrors.ValidationError(fmt.Sprintf("chunk size must be positive, got %d", chunkSize), nil)
	}

	text, err := splitText(sample.PickRecord(p.src, s), splitKey, op.Name)
	if err != nil {
		return nil, err
	}
	window := sample.ContextWindow(p.src, sample.Words(text), chunkSize)

	result, err := p.judge(ctx, "context", systemContext, contextPrompt(subprompt, window), contextSchema)
	if err != nil {
		return nil, err
	}

	var plan ContextPlan
	if err := oracle.Decode(result, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
