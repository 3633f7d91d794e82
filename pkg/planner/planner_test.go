package planner

import (
	"context"
	"strings"
	"sync"
	"testing"

	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/oracle"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/template"
)

// fakeOracle answers per query and records every request.
type fakeOracle struct {
	mu      sync.Mutex
	respond func(query, prompt string) (map[string]any, error)
	calls   map[string]int
	prompts []string
	systems []string
}

func newFakeOracle(respond func(query, prompt string) (map[string]any, error)) *fakeOracle {
	return &fakeOracle{respond: respond, calls: map[string]int{}}
}

func (f *fakeOracle) Judge(ctx context.Context, conversation []oracle.Message, system string, schema *oracle.Schema) (map[string]any, error) {
	query := oracle.QueryFromContext(ctx)
	prompt := conversation[0].Content

	f.mu.Lock()
	f.calls[query]++
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, system)
	f.mu.Unlock()

	return f.respond(query, prompt)
}

func (f *fakeOracle) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// standardAnswers is a well-behaved oracle for an operation splitting on
// "transcript".
func standardAnswers(needsMetadata bool) func(query, prompt string) (map[string]any, error) {
	return func(query, prompt string) (map[string]any, error) {
		switch query {
		case "split":
			return map[string]any{
				"split_key": "input.transcript",
				"subprompt": "List the speakers in {{ input.transcript }} for {{input.title}}.",
			}, nil
		case "metadata_check":
			return map[string]any{"needs_metadata": needsMetadata, "reason": "speaker names are in the header"}, nil
		case "metadata_config":
			return map[string]any{
				"metadata_prompt": "Extract the header of {{ input.transcript }}",
				"output_schema":   map[string]any{"speakers": "array", "title": "string"},
			}, nil
		case "context":
			return map[string]any{
				"needs_peripherals":   true,
				"previous_context":    true,
				"next_context":        false,
				"needs_document_head": false,
				"needs_document_tail": false,
				"reason":              "pronouns refer back",
			}, nil
		}
		return nil, planerrors.SchemaError("unexpected query "+query, nil)
	}
}

func testOperation() pipeline.Operation {
	return pipeline.Operation{
		Name:   "extract_speakers",
		Type:   "map",
		Prompt: "List every speaker in {{ input.transcript }}.",
		Output: pipeline.Output{Schema: pipeline.Schema{"speakers": pipeline.FieldArray}},
	}
}

func testSample() pipeline.Sample {
	return pipeline.Sample{
		{"transcript": doc(1800), "title": "Board meeting", "secret": "do-not-send"},
		{"transcript": doc(2200), "title": "Budget review", "secret": "do-not-send"},
	}
}

func TestPlanSplit(t *testing.T) {
	o := newFakeOracle(standardAnswers(false))
	p := New(o, WithSeed(1))

	plan, err := p.PlanSplit(context.Background(), testOperation(), testSample())
	if err != nil {
		t.Fatalf("PlanSplit() error = %v", err)
	}

	if plan.SplitKey != "transcript" {
		t.Errorf("Expected split key 'transcript', got %q", plan.SplitKey)
	}
	for _, v := range template.Variables(plan.Subprompt) {
		if v != template.ChunkContentVar {
			t.Errorf("subprompt still references %q: %s", v, plan.Subprompt)
		}
	}

	prompt := o.prompts[0]
	if strings.Contains(prompt, "do-not-send") || strings.Contains(prompt, "Board meeting") {
		t.Error("split prompt leaked fields the operation prompt does not reference")
	}
	if !strings.Contains(prompt, "extract_speakers") {
		t.Error("split prompt should name the operation")
	}
	if o.systems[0] != systemSplit {
		t.Errorf("unexpected system prompt %q", o.systems[0])
	}
}

func TestPlanSplitFilteredSubprompt(t *testing.T) {
	tests := []struct {
		name      string
		subprompt string
		want      string
	}{
		{
			name:      "filter with arguments",
			subprompt: "Summarize {{ input.transcript | truncate(50) }}.",
			want:      "Summarize {{ input.chunk_content | truncate(50) }}.",
		},
		{
			name:      "filter without spaces",
			subprompt: "Speakers in {{ input.transcript|trim }}",
			want:      "Speakers in {{ input.chunk_content|trim }}",
		},
		{
			name:      "conditional",
			subprompt: "{% if input.transcript %}List speakers in {{ input.transcript }}{% endif %}",
			want:      "{% if input.chunk_content %}List speakers in {{ input.chunk_content }}{% endif %}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newFakeOracle(func(query, prompt string) (map[string]any, error) {
				return map[string]any{"split_key": "input.transcript", "subprompt": tt.subprompt}, nil
			})

			plan, err := New(o, WithSeed(1)).PlanSplit(context.Background(), testOperation(), testSample())
			if err != nil {
				t.Fatalf("PlanSplit() error = %v", err)
			}
			if plan.Subprompt != tt.want {
				t.Errorf("Expected subprompt %q, got %q", tt.want, plan.Subprompt)
			}
			for _, v := range template.Variables(plan.Subprompt) {
				if v != template.ChunkContentVar {
					t.Errorf("subprompt still references %q: %s", v, plan.Subprompt)
				}
			}
		})
	}
}

func TestPlanSplitUnknownKey(t *testing.T) {
	o := newFakeOracle(func(query, prompt string) (map[string]any, error) {
		return map[string]any{"split_key": "body", "subprompt": "x"}, nil
	})

	plan, err := New(o, WithSeed(1)).PlanSplit(context.Background(), testOperation(), testSample())
	if plan != nil {
		t.Error("Expected no plan for an unknown split key")
	}
	if !planerrors.IsType(err, planerrors.ErrConfig) {
		t.Fatalf("Expected configuration error, got %v", err)
	}
	if !planerrors.IsFatal(err) {
		t.Error("unknown split key must be fatal")
	}
}

func TestPlanSplitEmptySample(t *testing.T) {
	o := newFakeOracle(standardAnswers(false))

	_, err := New(o, WithSeed(1)).PlanSplit(context.Background(), testOperation(), nil)
	if !planerrors.IsType(err, planerrors.ErrConfig) {
		t.Errorf("Expected configuration error for an empty sample, got %v", err)
	}
}

func TestPlanSplitMalformed(t *testing.T) {
	tests := []struct {
		name   string
		answer map[string]any
	}{
		{"empty key", map[string]any{"split_key": "input.", "subprompt": "x"}},
		{"missing subprompt", map[string]any{"split_key": "transcript"}},
		{"wrong type", map[string]any{"split_key": 7.0, "subprompt": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newFakeOracle(func(string, string) (map[string]any, error) { return tt.answer, nil })
			_, err := New(o, WithSeed(1)).PlanSplit(context.Background(), testOperation(), testSample())
			if !planerrors.IsType(err, planerrors.ErrSchema) {
				t.Errorf("Expected schema violation, got %v", err)
			}
		})
	}
}

func TestPlanMetadataNotNeeded(t *testing.T) {
	o := newFakeOracle(standardAnswers(false))
	p := New(o, WithSeed(3))

	plan, err := p.PlanMetadata(context.Background(), testOperation(), "sub", 100, "transcript", testSample())
	if err != nil {
		t.Fatalf("PlanMetadata() error = %v", err)
	}

	want := MetadataPlan{NeedsMetadata: false, Reason: "speaker names are in the header"}
	if plan.NeedsMetadata != want.NeedsMetadata || plan.Reason != want.Reason ||
		plan.MetadataPrompt != "" || plan.OutputSchema != nil {
		t.Errorf("Expected necessity result verbatim, got %+v", plan)
	}
	if o.total() != 1 {
		t.Errorf("Expected exactly 1 oracle call, got %d", o.total())
	}
}

func TestPlanMetadataNeeded(t *testing.T) {
	o := newFakeOracle(standardAnswers(true))
	p := New(o, WithSeed(3))

	plan, err := p.PlanMetadata(context.Background(), testOperation(), "sub", 100, "transcript", testSample())
	if err != nil {
		t.Fatalf("PlanMetadata() error = %v", err)
	}

	if !plan.NeedsMetadata || plan.Reason != "speaker names are in the header" {
		t.Errorf("unexpected plan %+v", plan)
	}
	if plan.OutputSchema["speakers"] != pipeline.FieldArray || plan.OutputSchema["title"] != pipeline.FieldString {
		t.Errorf("unexpected output schema %v", plan.OutputSchema)
	}
	if o.calls["metadata_check"] != 1 || o.calls["metadata_config"] != 1 {
		t.Errorf("Expected one call per stage, got %v", o.calls)
	}
	if !strings.Contains(o.prompts[1], "{{ input.transcript }}") {
		t.Error("derivation prompt should name the split key variable")
	}
}

func TestPlanMetadataBadSchemaType(t *testing.T) {
	o := newFakeOracle(func(query, prompt string) (map[string]any, error) {
		if query == "metadata_check" {
			return map[string]any{"needs_metadata": true, "reason": "r"}, nil
		}
		return map[string]any{
			"metadata_prompt": "p",
			"output_schema":   map[string]any{"date": "datetime"},
		}, nil
	})

	_, err := New(o, WithSeed(3)).PlanMetadata(context.Background(), testOperation(), "sub", 100, "transcript", testSample())
	if !planerrors.IsType(err, planerrors.ErrSchema) {
		t.Errorf("Expected schema violation, got %v", err)
	}
}

func TestPlanMetadataMissingField(t *testing.T) {
	o := newFakeOracle(standardAnswers(false))
	s := pipeline.Sample{{"title": "no transcript here"}}

	_, err := New(o, WithSeed(3)).PlanMetadata(context.Background(), testOperation(), "sub", 100, "transcript", s)
	if !planerrors.IsType(err, planerrors.ErrConfig) {
		t.Errorf("Expected configuration error, got %v", err)
	}
	if o.total() != 0 {
		t.Error("oracle should not be called without a document")
	}
}

func TestPlanContext(t *testing.T) {
	o := newFakeOracle(standardAnswers(false))

	plan, err := New(o, WithSeed(5)).PlanContext(context.Background(), testOperation(), "sub", 100, "transcript", testSample())
	if err != nil {
		t.Fatalf("PlanContext() error = %v", err)
	}
	if !plan.NeedsPeripherals || !plan.PreviousContext || plan.NextContext {
		t.Errorf("unexpected plan %+v", plan)
	}
	if !strings.Contains(o.prompts[0], "Words before the chunk:") {
		t.Error("context prompt should report surrounding word counts")
	}
}

func TestPlanChunkSizeValidation(t *testing.T) {
	o := newFakeOracle(standardAnswers(false))
	p := New(o, WithSeed(5))

	if _, err := p.PlanContext(context.Background(), testOperation(), "sub", 0, "transcript", testSample()); !planerrors.IsType(err, planerrors.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if _, err := p.CheckMetadataNecessity(context.Background(), testOperation(), "sub", -1, "transcript", testSample()); !planerrors.IsType(err, planerrors.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestPlan(t *testing.T) {
	o := newFakeOracle(standardAnswers(true))
	var logged []string
	progress := progressFunc(func(format string, args ...any) {
		logged = append(logged, format)
	})

	plan, err := New(o, WithSeed(9), WithProgress(progress)).Plan(context.Background(), testOperation(), testSample())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if plan.ID == "" || plan.Operation != "extract_speakers" || plan.SampleSize != 2 {
		t.Errorf("unexpected plan header %+v", plan)
	}
	if got := plan.ChunkSizes(); len(got) != 5 || got[0] != 100 || got[4] != 1000 {
		t.Errorf("unexpected chunk sizes %v", got)
	}
	if plan.AvgDocWords != 2000 {
		t.Errorf("Expected average 2000 words, got %v", plan.AvgDocWords)
	}
	for _, c := range plan.Candidates {
		if len(c.Peripherals) == 0 || !c.Peripherals[0].IsEmpty() {
			t.Errorf("size %d: peripheral space must start with {}", c.ChunkSize)
		}
		for _, r := range c.Recommended {
			if r.Next != nil {
				t.Errorf("size %d: next context recommended although not wanted", c.ChunkSize)
			}
		}
	}
	if o.total() != 4 {
		t.Errorf("Expected 4 oracle calls, got %v", o.calls)
	}
	if len(logged) != 2 {
		t.Errorf("Expected 2 progress lines, got %v", logged)
	}
}

func TestPlanInvalidOperation(t *testing.T) {
	o := newFakeOracle(standardAnswers(false))
	op := testOperation()
	op.Prompt = ""

	if _, err := New(o).Plan(context.Background(), op, testSample()); !planerrors.IsType(err, planerrors.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if o.total() != 0 {
		t.Error("invalid operation should not reach the oracle")
	}
}

func TestPlanDeterministicWithSeed(t *testing.T) {
	run := func() []string {
		o := newFakeOracle(standardAnswers(true))
		if _, err := New(o, WithSeed(42)).Plan(context.Background(), testOperation(), varied()); err != nil {
			t.Fatal(err)
		}
		return o.prompts
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("prompt %d differs between identically seeded runs", i)
		}
	}
}

func TestPlanAll(t *testing.T) {
	failing := testOperation()
	failing.Name = "broken"

	o := newFakeOracle(func(query, prompt string) (map[string]any, error) {
		if query == "split" && strings.Contains(prompt, "broken") {
			return map[string]any{"split_key": "nope", "subprompt": "x"}, nil
		}
		return standardAnswers(false)(query, prompt)
	})

	ops := []pipeline.Operation{testOperation(), failing, testOperation()}
	results, err := New(o).PlanAll(context.Background(), ops, testSample(), 7, 2)
	if err != nil {
		t.Fatalf("PlanAll() error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Plan == nil || results[2].Plan == nil {
		t.Errorf("healthy operations should plan: %+v", results)
	}
	if results[1].Operation != "broken" || !planerrors.IsType(results[1].Err, planerrors.ErrConfig) {
		t.Errorf("Expected config error for broken op, got %+v", results[1])
	}
	if results[0].Plan.ID == results[2].Plan.ID {
		t.Error("plans should get distinct IDs")
	}
}

type progressFunc func(format string, args ...any)

func (f progressFunc) Logf(format string, args ...any) { f(format, args...) }

// varied returns documents with distinct words so sampled windows differ.
func varied() pipeline.Sample {
	s := make(pipeline.Sample, 4)
	for i := range s {
		var b strings.Builder
		for w := 0; w < 1500+i*300; w++ {
			b.WriteString("w")
			b.WriteString(strings.Repeat("x", w%7))
			b.WriteString(string(rune('a' + (w+i)%26)))
			b.WriteString(" ")
		}
		s[i] = pipeline.Record{"transcript": b.String(), "title": "t"}
	}
	return s
}
