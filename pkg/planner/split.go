package planner

import (
	"context"
	"fmt"
	"strings"

	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/oracle"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/sample"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/template"
)

// PlanSplit asks the oracle for a split key and per-chunk subprompt.
//
// Only the fields the operation prompt references are shown to the oracle.
// The returned key has any input. scope removed and must be a field of the
// first sample record, otherwise a configuration error is returned. Every
// variable interpolated by the subprompt is rewritten to input.chunk_content.
func (p *Planner) PlanSplit(ctx context.Context, op pipeline.Operation, s pipeline.Sample) (*SplitPlan, error) {
	record := sample.PickRecord(p.src, s)
	fields := template.StripInputPrefixes(template.Variables(op.Prompt))

	result, err := p.judge(ctx, "split", systemSplit, splitPrompt(op, record.Project(fields)), splitSchema)
	if err != nil {
		return nil, err
	}

	var plan SplitPlan
	if err := oracle.Decode(result, &plan); err != nil {
		return nil, err
	}

	plan.SplitKey = template.StripInputPrefix(plan.SplitKey)
	if strings.TrimSpace(plan.SplitKey) == "" {
		return nil, planerrors.SchemaError("oracle returned an empty split key", nil).
			WithContext("operation", op.Name)
	}
	if !s.First().Has(plan.SplitKey) {
		return nil, planerrors.ConfigError(
			fmt.Sprintf("split key %q not found in the input data sample", plan.SplitKey), nil).
			WithContext("operation", op.Name).
			WithContext("split_key", plan.SplitKey)
	}

	plan.Subprompt = template.ReplaceAll(plan.Subprompt, template.ChunkContentVar)

	p.progress.Logf("Breaking down operation %s", op.Name)
	p.progress.Logf("Subprompt: %s", plan.Subprompt)
	return &plan, nil
}
