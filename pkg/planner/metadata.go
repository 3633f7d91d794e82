package planner

import (
	"context"
	"fmt"

	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/oracle"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/sample"
)

// PlanMetadata decides whether chunks need document metadata and, if so,
// derives how to extract it. A negative necessity answer is returned as is
// after a single oracle call; a positive one costs a second call whose
// config is merged with the necessity reason.
func (p *Planner) PlanMetadata(ctx context.Context, op pipeline.Operation, subprompt string, chunkSize int, splitKey string, s pipeline.Sample) (*MetadataPlan, error) {
	necessity, err := p.CheckMetadataNecessity(ctx, op, subprompt, chunkSize, splitKey, s)
	if err != nil {
		return nil, err
	}
	if !necessity.NeedsMetadata {
		return necessity, nil
	}

	derived, err := p.DeriveMetadataConfig(ctx, op, subprompt, chunkSize, splitKey, s)
	if err != nil {
		return nil, err
	}
	derived.NeedsMetadata = true
	derived.Reason = necessity.Reason
	return derived, nil
}

// CheckMetadataNecessity shows the oracle a chunk drawn away from the
// document edges, together with its word offsets and a full record, and asks
// whether the subtask needs document metadata.
func (p *Planner) CheckMetadataNecessity(ctx context.Context, op pipeline.Operation, subprompt string, chunkSize int, splitKey string, s pipeline.Sample) (*MetadataPlan, error) {
	if chunkSize <= 0 {
		return nil, planerrors.ValidationError(fmt.Sprintf("chunk size must be positive, got %d", chunkSize), nil)
	}

	text, err := splitText(sample.PickRecord(p.src, s), splitKey, op.Name)
	if err != nil {
		return nil, err
	}
	window := sample.MetadataWindow(p.src, sample.Words(text), chunkSize)
	full := sample.PickRecord(p.src, s)

	result, err := p.judge(ctx, "metadata_check", systemMetadataCheck,
		metadataCheckPrompt(subprompt, window, full), metadataCheckSchema)
	if err != nil {
		return nil, err
	}

	var plan MetadataPlan
	if err := oracle.Decode(result, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// DeriveMetadataConfig asks the oracle for a metadata extraction prompt and
// its output schema, grounded in one full document. The prompt is requested
// to reference only the split key variable; that is not re-checked here.
func (p *Planner) DeriveMetadataConfig(ctx context.Context, op pipeline.Operation, subprompt string, chunkSize int, splitKey string, s pipeline.Sample) (*MetadataPlan, error) {
	text, err := splitText(sample.PickRecord(p.src, s), splitKey, op.Name)
	if err != nil {
		return nil, err
	}

	result, err := p.judge(ctx, "metadata_config", systemMetadataConfig,
		metadataConfigPrompt(subprompt, chunkSize, splitKey, text), metadataConfigSchema)
	if err != nil {
		return nil, err
	}

	var answer struct {
		MetadataPrompt string          `json:"metadata_prompt"`
		OutputSchema   pipeline.Schema `json:"output_schema"`
	}
	if err := oracle.Decode(result, &answer); err != nil {
		return nil, err
	}

	return &MetadataPlan{
		NeedsMetadata:  true,
		MetadataPrompt: answer.MetadataPrompt,
		OutputSchema:   answer.OutputSchema,
	}, nil
}

// splitText returns the split key field of a record as text.
func splitText(record pipeline.Record, splitKey, operation string) (string, error) {
	text, ok := sample.FieldText(record, splitKey)
	if !ok {
		return "", planerrors.ConfigError(
			fmt.Sprintf("split key %q missing from sampled record", splitKey), nil).
			WithContext("operation", operation)
	}
	return text, nil
}
