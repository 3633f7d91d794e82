// Package sample draws representative records, chunks and word statistics
// from a data sample. Every random draw goes through an injected Source so
// callers can pin the outcome.
package sample

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
)

// Source is the random capability the planners draw from.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	// IntN returns a uniform value in [0, n). n must be positive.
	IntN(n int) int
}

// NewSource returns a PCG-backed source. A zero seed draws a random one.
func NewSource(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Between returns a uniform value in the closed range [lo, hi].
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// PickRecord returns a uniformly chosen record; an empty sample yields an
// empty record.
func PickRecord(src Source, s pipeline.Sample) pipeline.Record {
	if len(s) == 0 {
		return pipeline.Record{}
	}
	return s[src.IntN(len(s))]
}

// FieldText returns a record field as text. Strings are returned as is,
// anything else is JSON encoded.
func FieldText(rec pipeline.Record, key string) (string, bool) {
	v, ok := rec[key]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case nil:
		return "", true
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t), true
		}
		return string(data), true
	}
}

// Words splits text on whitespace.
func Words(text string) []string {
	return strings.Fields(text)
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// AverageWords returns the mean word count of key across the sample.
// Records missing the key count as zero words.
func AverageWords(s pipeline.Sample, key string) float64 {
	if len(s) == 0 {
		return 0
	}
	total := 0
	for _, rec := range s {
		text, _ := FieldText(rec, key)
		total += WordCount(text)
	}
	return float64(total) / float64(len(s))
}

// Window is a contiguous run of words drawn from a document.
type Window struct {
	Start  int    `json:"start"`
	Size   int    `json:"size"`
	Text   string `json:"text"`
	Before int    `json:"words_before"`
	After  int    `json:"words_after"`
	Total  int    `json:"total_words"`
}

// MetadataWindow draws a chunk away from the document edges. When the
// document leaves no room past one chunk on each side (max start <= size)
// the window falls back to offset 0; otherwise the start is uniform in
// [size, total-size]. After is total-(start+size) and goes negative when the
// document is shorter than one chunk.
func MetadataWindow(src Source, words []string, size int) Window {
	total := len(words)
	maxStart := max(0, total-size)

	start := 0
	if maxStart > size {
		start = Between(src, size, maxStart)
	}
	return window(words, start, size, total-(start+size))
}

// ContextWindow draws a chunk with a uniform start in [0, max(0, total-size)],
// edges included.
func ContextWindow(src Source, words []string, size int) Window {
	total := len(words)
	start := Between(src, 0, max(0, total-size))
	return window(words, start, size, max(0, total-(start+size)))
}

func window(words []string, start, size, after int) Window {
	end := min(len(words), start+size)
	if start > end {
		start = end
	}
	return Window{
		Start:  start,
		Size:   size,
		Text:   strings.Join(words[start:end], " "),
		Before: start,
		After:  after,
		Total:  len(words),
	}
}
