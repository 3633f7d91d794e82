package planner

import (
	"encoding/json"
	"fmt"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/oracle"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/sample"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/template"
)

// System instructions, one per query.
const (
	systemSplit          = "You are an AI assistant tasked with configuring split operations for data processing."
	systemMetadataCheck  = "You are an AI assistant tasked with determining if metadata is needed for document processing."
	systemMetadataConfig = "You are an AI assistant tasked with creating metadata extraction prompts for document processing."
	systemContext        = "You are an AI assistant tasked with determining context needs for document chunk processing."
)

// Response schemas, one per query.
var (
	splitSchema = oracle.Object(map[string]*oracle.Schema{
		"split_key": oracle.String(),
		"subprompt": oracle.String(),
	})

	metadataCheckSchema = oracle.Object(map[string]*oracle.Schema{
		"needs_metadata": oracle.Boolean(),
		"reason":         oracle.String(),
	})

	metadataConfigSchema = oracle.Object(map[string]*oracle.Schema{
		"metadata_prompt": oracle.String(),
		"output_schema":   oracle.MapOf(oracle.StringEnum(fieldTypeNames()...)),
	})

	contextSchema = oracle.Object(map[string]*oracle.Schema{
		"needs_peripherals":   oracle.Boolean(),
		"previous_context":    oracle.Boolean(),
		"next_context":        oracle.Boolean(),
		"needs_document_head": oracle.Boolean(),
		"needs_document_tail": oracle.Boolean(),
		"reason":              oracle.String(),
	})
)

func fieldTypeNames() []string {
	names := make([]string, len(pipeline.FieldTypes))
	for i, t := range pipeline.FieldTypes {
		names[i] = string(t)
	}
	return names
}

func splitPrompt(op pipeline.Operation, projected pipeline.Record) string {
	return fmt.Sprintf(`Operation name: %s
Operation type: %s
Operation prompt:
%s

Sample input (only the fields the prompt references):
%s

The input is too long to process in one pass. Choose the split key and write
a subprompt that is run on every chunk of the split field.
- split_key must be a key of the input whose value is a string to split into chunks.
- subprompt must be a Jinja template. Refer to the chunk text as %s, never as
  the original input.<split_key> variable.
- The subprompt must produce output matching this schema:
%s

Return split_key and subprompt.`,
		op.Name, op.Type, op.Prompt,
		indentJSON(projected),
		template.Reference(template.ChunkContentVar),
		indentJSON(op.Output.Schema))
}

func metadataCheckPrompt(subprompt string, w sample.Window, full pipeline.Record) string {
	return fmt.Sprintf(`This subtask prompt will run on chunks of %[1]d words:
%[2]s

A chunk of %[1]d words drawn from the middle of one input:
"%[3]s"

The full text has %[4]d words before this chunk and %[5]d words after it.

A complete input record for reference:
%[6]s

Decide whether the subtask needs document-level metadata (for example titles,
headers or section markers) that a chunk on its own would not contain.
Consider:
1. Does the subtask depend on information usually held in metadata?
2. Is anything the subtask needs missing from the chunk but present elsewhere in the document?
3. Would metadata noticeably improve the accuracy of the subtask?

Return needs_metadata and a short reason.`,
		w.Size, subprompt, w.Text, w.Before, w.After, indentJSON(full))
}

func metadataConfigPrompt(subprompt string, chunkSize int, splitKey, document string) string {
	return fmt.Sprintf(`This subtask prompt will run on chunks of %d words:
%s

Chunks need metadata extracted once from their whole document. A full input:
%s

Write a Jinja prompt that extracts this metadata from one document. The prompt
may reference only %s and no other variable.

Also give the metadata output schema: a mapping from each metadata key to one
of the types %v.

Return metadata_prompt and output_schema.`,
		chunkSize, subprompt, document,
		template.Reference(template.InputPrefix+splitKey),
		fieldTypeNames())
}

func contextPrompt(subprompt string, w sample.Window) string {
	return fmt.Sprintf(`This subtask prompt will run on chunks of %[1]d words:
%[2]s

A chunk of %[1]d words drawn from one input:
"%[3]s"

Words before the chunk: %[4]d
Words after the chunk: %[5]d

Decide whether the chunk alone is enough for the subtask.
1. Are there pronouns, references or phrases relevant to the subtask that only
   surrounding chunks could resolve?
2. If surrounding context is needed, is it the previous context, the next
   context, or both?
3. Is the beginning or the end of the whole document also needed?

Return needs_peripherals, previous_context, next_context, needs_document_head,
needs_document_tail and a short reason.`,
		w.Size, subprompt, w.Text, w.Before, w.After)
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
