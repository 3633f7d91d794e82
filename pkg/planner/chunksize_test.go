package planner

import (
	"reflect"
	"strings"
	"testing"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
)

func doc(words int) string {
	return strings.TrimSpace(strings.Repeat("word ", words))
}

func docs(key string, lengths ...int) pipeline.Sample {
	s := make(pipeline.Sample, len(lengths))
	for i, n := range lengths {
		s[i] = pipeline.Record{key: doc(n), "id": i}
	}
	return s
}

func TestChunkSizes(t *testing.T) {
	tests := []struct {
		name   string
		sample pipeline.Sample
		n      int
		want   []int
	}{
		{"average 2000 words", docs("text", 1500, 2500), 5, []int{100, 325, 550, 775, 1000}},
		{"three sizes", docs("text", 1000), 3, []int{100, 300, 500}},
		{"single size", docs("text", 2000), 1, []int{100}},
		{"zero sizes", docs("text", 2000), 0, []int{100}},
		{"short documents", docs("text", 150, 150), 5, []int{100}},
		{"half average exactly floor", docs("text", 200), 5, []int{100}},
		{"empty sample", nil, 5, []int{100}},
		{"collapsed duplicates", docs("text", 204), 5, []int{100, 101, 102}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkSizes("text", tt.sample, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChunkSizes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChunkSizesStrictlyIncreasing(t *testing.T) {
	for _, avg := range []int{202, 250, 777, 2000, 12345} {
		for n := 2; n <= 9; n++ {
			got := ChunkSizes("text", docs("text", avg), n)
			if got[0] != MinChunkSize {
				t.Errorf("avg %d n %d: first size %d", avg, n, got[0])
			}
			if last := got[len(got)-1]; last != avg/2 {
				t.Errorf("avg %d n %d: last size %d, want %d", avg, n, last, avg/2)
			}
			for i := 1; i < len(got); i++ {
				if got[i] <= got[i-1] {
					t.Errorf("avg %d n %d: not increasing: %v", avg, n, got)
				}
			}
		}
	}
}

func TestChunkSizesHugeCount(t *testing.T) {
	got := ChunkSizes("text", docs("text", 2000), 1<<50)
	if len(got) != 1000-MinChunkSize+1 {
		t.Fatalf("Expected %d sizes, got %d", 1000-MinChunkSize+1, len(got))
	}
	for i, size := range got {
		if size != MinChunkSize+i {
			t.Fatalf("Expected size %d at %d, got %d", MinChunkSize+i, i, size)
		}
	}

	if got := ChunkSizes("text", docs("text", 204), 1<<50); !reflect.DeepEqual(got, []int{100, 101, 102}) {
		t.Errorf("ChunkSizes() = %v, want [100 101 102]", got)
	}
}
