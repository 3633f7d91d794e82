package planner

import (
	"time"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
)

// SplitPlan names the field to chunk and the prompt run on every chunk.
// Subprompt only interpolates input.chunk_content.
type SplitPlan struct {
	SplitKey  string `json:"split_key" yaml:"split_key"`
	Subprompt string `json:"subprompt" yaml:"subprompt"`
}

// MetadataPlan says whether chunks need document-level metadata and, when
// they do, how to extract it. MetadataPrompt may only interpolate the split
// key variable.
type MetadataPlan struct {
	NeedsMetadata  bool            `json:"needs_metadata" yaml:"needs_metadata"`
	Reason         string          `json:"reason" yaml:"reason"`
	MetadataPrompt string          `json:"metadata_prompt,omitempty" yaml:"metadata_prompt,omitempty"`
	OutputSchema   pipeline.Schema `json:"output_schema,omitempty" yaml:"output_schema,omitempty"`
}

// ContextPlan is the oracle's advisory view of what context a chunk needs.
type ContextPlan struct {
	NeedsPeripherals  bool   `json:"needs_peripherals" yaml:"needs_peripherals"`
	PreviousContext   bool   `json:"previous_context" yaml:"previous_context"`
	NextContext       bool   `json:"next_context" yaml:"next_context"`
	NeedsDocumentHead bool   `json:"needs_document_head" yaml:"needs_document_head"`
	NeedsDocumentTail bool   `json:"needs_document_tail" yaml:"needs_document_tail"`
	Reason            string `json:"reason" yaml:"reason"`
}

// Candidate is one chunk size with its peripheral context space.
type Candidate struct {
	ChunkSize   int                `json:"chunk_size" yaml:"chunk_size"`
	Peripherals []PeripheralConfig `json:"peripherals" yaml:"peripherals"`
	Recommended []PeripheralConfig `json:"recommended" yaml:"recommended"`
}

// Plan is the complete result of one planning pass over one operation.
type Plan struct {
	ID          string       `json:"id" yaml:"id"`
	Operation   string       `json:"operation" yaml:"operation"`
	Split       SplitPlan    `json:"split" yaml:"split"`
	Metadata    MetadataPlan `json:"metadata" yaml:"metadata"`
	Context     ContextPlan  `json:"context" yaml:"context"`
	SampleSize  int          `json:"sample_size" yaml:"sample_size"`
	AvgDocWords float64      `json:"avg_doc_words" yaml:"avg_doc_words"`
	Candidates  []Candidate  `json:"candidates" yaml:"candidates"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`
}

// ChunkSizes returns the candidate chunk sizes in order.
func (p *Plan) ChunkSizes() []int {
	sizes := make([]int, len(p.Candidates))
	for i, c := range p.Candidates {
		sizes[i] = c.ChunkSize
	}
	return sizes
}
