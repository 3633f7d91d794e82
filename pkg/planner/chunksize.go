package planner

import (
	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/sample"
)

const (
	// MinChunkSize is the smallest chunk, in words, ever proposed.
	MinChunkSize = 100
	// DefaultNumChunkSizes is the default size of the chunk-size space.
	DefaultNumChunkSizes = 5
)

// ChunkSizes spaces n chunk sizes evenly from MinChunkSize up to half the
// average word count of splitKey across the sample, truncating each to an
// integer: size_i = int(100 + i*(max-100)/(n-1)).
//
// The result is strictly increasing. A single size of MinChunkSize is
// returned when n <= 1, when the sample is empty, or when half the average
// document does not exceed MinChunkSize. Sizes that collapse to the same
// integer are kept once, so at most max-MinChunkSize+1 sizes are returned
// however large n is.
func ChunkSizes(splitKey string, s pipeline.Sample, n int) []int {
	if n <= 1 || len(s) == 0 {
		return []int{MinChunkSize}
	}

	maxSize := int(sample.AverageWords(s, splitKey) / 2)
	if maxSize <= MinChunkSize {
		return []int{MinChunkSize}
	}

	// Past one size per word every integer in range is already produced.
	n = min(n, maxSize-MinChunkSize+1)
	span := float64(maxSize - MinChunkSize)
	sizes := make([]int, 0, n)
	for i := 0; i < n; i++ {
		size := int(MinChunkSize + float64(i)*span/float64(n-1))
		if len(sizes) > 0 && size <= sizes[len(sizes)-1] {
			continue
		}
		sizes = append(sizes, size)
	}
	return sizes
}
