package template

import (
	"reflect"
	"testing"
)

func TestVariables(t *testing.T) {
	tests := []struct {
		name string
		tpl  string
		want []string
	}{
		{
			name: "simple",
			tpl:  "Summarize {{ input.transcript }} for {{ input.title }}",
			want: []string{"input.transcript", "input.title"},
		},
		{
			name: "duplicates and whitespace control",
			tpl:  "{{input.body}} and again {{- input.body -}}",
			want: []string{"input.body"},
		},
		{
			name: "filters and literals",
			tpl:  `{{ input.name | upper }} {{ "literal" }} {{ input.tags | join(", ") }}`,
			want: []string{"input.name", "input.tags"},
		},
		{
			name: "for loop locals excluded",
			tpl:  "{% for item in input.items %}{{ item.label }} {{ loop.index }}{% endfor %}",
			want: []string{"input.items"},
		},
		{
			name: "if statement",
			tpl:  "{% if input.flag and not input.other %}yes{% endif %}",
			want: []string{"input.flag", "input.other"},
		},
		{
			name: "no variables",
			tpl:  "plain prompt",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Variables(tt.tpl)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Variables() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStripInputPrefix(t *testing.T) {
	if got := StripInputPrefix("input.body"); got != "body" {
		t.Errorf("StripInputPrefix() = %q", got)
	}
	if got := StripInputPrefix("body"); got != "body" {
		t.Errorf("StripInputPrefix() = %q", got)
	}
	got := StripInputPrefixes([]string{"input.a", "b"})
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("StripInputPrefixes() = %v", got)
	}
}

func TestReplace(t *testing.T) {
	tpl := "Read {{ input.document }} then {{ input.document }}; keep {{input.document}}"
	got := Replace(tpl, "input.document", ChunkContentVar)
	want := "Read {{ input.chunk_content }} then {{ input.chunk_content }}; keep {{input.document}}"
	if got != want {
		t.Errorf("Replace() = %q, want %q", got, want)
	}
}

func TestReplaceAll(t *testing.T) {
	tests := []struct {
		name string
		tpl  string
		want string
	}{
		{
			name: "spacing variants",
			tpl:  "Extract from {{ input.contract }} given {{input.section}} and {{- input.contract -}}",
			want: "Extract from {{ input.chunk_content }} given {{input.chunk_content}} and {{- input.chunk_content -}}",
		},
		{
			name: "filter with arguments",
			tpl:  "Summarize {{ input.transcript | truncate(50) }}.",
			want: "Summarize {{ input.chunk_content | truncate(50) }}.",
		},
		{
			name: "filter without spaces",
			tpl:  "Clean {{ input.transcript|trim }}",
			want: "Clean {{ input.chunk_content|trim }}",
		},
		{
			name: "if statement",
			tpl:  "{% if input.transcript %}Read {{ input.transcript }}{% endif %}",
			want: "{% if input.chunk_content %}Read {{ input.chunk_content }}{% endif %}",
		},
		{
			name: "for loop keeps locals",
			tpl:  "{% for line in input.lines %}{{ line }} {{ input.title }}{% endfor %}",
			want: "{% for line in input.chunk_content %}{{ line }} {{ input.chunk_content }}{% endfor %}",
		},
		{
			name: "string literals untouched",
			tpl:  "{{ input.body | default('input.body') }}",
			want: "{{ input.chunk_content | default('input.body') }}",
		},
		{
			name: "longer path is not a prefix match",
			tpl:  "{{ input.doc.title }} and text input.doc outside tags",
			want: "{{ input.chunk_content }} and text input.doc outside tags",
		},
		{
			name: "no variables",
			tpl:  "Plain prompt",
			want: "Plain prompt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReplaceAll(tt.tpl, ChunkContentVar)
			if got != tt.want {
				t.Errorf("ReplaceAll() = %q, want %q", got, tt.want)
			}
			for _, v := range Variables(got) {
				if v != ChunkContentVar {
					t.Errorf("variable %q survived ReplaceAll: %q", v, got)
				}
			}
		})
	}

	if Reference(ChunkContentVar) != "{{ input.chunk_content }}" {
		t.Errorf("Reference() = %q", Reference(ChunkContentVar))
	}
}
