package planner

import (
	"math"
)

// Mode says whether a zone contributes raw chunk text or a summary of it.
type Mode string

const (
	ModeRaw     Mode = ""
	ModeSummary Mode = "summary"
)

// Zone is one region of peripheral context. A zero Count means the zone
// spans whatever remains between its neighbours, which is how summarized
// middle zones are expressed.
type Zone struct {
	Count int  `json:"count,omitempty" yaml:"count,omitempty"`
	Mode  Mode `json:"type,omitempty" yaml:"type,omitempty"`
}

// Direction groups the zones on one side of a chunk. Head is the document
// edge furthest from the chunk, Tail the part adjacent to it for previous
// context; for next context Head is adjacent and Tail is the document end.
type Direction struct {
	Head   *Zone `json:"head,omitempty" yaml:"head,omitempty"`
	Middle *Zone `json:"middle,omitempty" yaml:"middle,omitempty"`
	Tail   *Zone `json:"tail,omitempty" yaml:"tail,omitempty"`
}

// PeripheralConfig describes the context shipped alongside each chunk.
// The zero value means no peripheral context.
type PeripheralConfig struct {
	Previous *Direction `json:"previous,omitempty" yaml:"previous,omitempty"`
	Next     *Direction `json:"next,omitempty" yaml:"next,omitempty"`
}

// IsEmpty reports whether the configuration adds no context.
func (c PeripheralConfig) IsEmpty() bool {
	return c.Previous == nil && c.Next == nil
}

// Equal reports structural equality.
func (c PeripheralConfig) Equal(o PeripheralConfig) bool {
	return c.Previous.equal(o.Previous) && c.Next.equal(o.Next)
}

// Clone returns a deep copy.
func (c PeripheralConfig) Clone() PeripheralConfig {
	return PeripheralConfig{Previous: c.Previous.clone(), Next: c.Next.clone()}
}

// MaxCount returns the largest zone count in the configuration.
func (c PeripheralConfig) MaxCount() int {
	n := 0
	c.eachZone(func(z *Zone) { n = max(n, z.Count) })
	return n
}

func (c PeripheralConfig) eachZone(fn func(*Zone)) {
	for _, d := range []*Direction{c.Previous, c.Next} {
		if d == nil {
			continue
		}
		for _, z := range []*Zone{d.Head, d.Middle, d.Tail} {
			if z != nil {
				fn(z)
			}
		}
	}
}

func (d *Direction) equal(o *Direction) bool {
	if d == nil || o == nil {
		return d == nil && o == nil
	}
	return d.Head.equal(o.Head) && d.Middle.equal(o.Middle) && d.Tail.equal(o.Tail)
}

func (d *Direction) clone() *Direction {
	if d == nil {
		return nil
	}
	return &Direction{Head: d.Head.clone(), Middle: d.Middle.clone(), Tail: d.Tail.clone()}
}

func (z *Zone) equal(o *Zone) bool {
	if z == nil || o == nil {
		return z == nil && o == nil
	}
	return *z == *o
}

func (z *Zone) clone() *Zone {
	if z == nil {
		return nil
	}
	c := *z
	return &c
}

// baseShapes are the minimal context shapes scaled by PeripheralConfigs:
// one previous chunk, and one previous plus one next chunk.
func baseShapes() []PeripheralConfig {
	return []PeripheralConfig{
		{Previous: &Direction{Tail: &Zone{Count: 1}}},
		{Previous: &Direction{Tail: &Zone{Count: 1}}, Next: &Direction{Head: &Zone{Count: 1}}},
	}
}

// PeripheralConfigs enumerates candidate context shapes for a chunk size
// given the average document size, both in words. The result is
// deterministic, starts with the empty configuration, holds no two equal
// configurations and never asks for more than avgDocSize/chunkSize chunks
// (at least 1) in any zone.
//
// Base shapes are scaled by sqrt(avgDocSize/chunkSize). Chunks under a tenth
// of the document also get an extensive shape of up to five previous and two
// next chunks, and chunks under a fifth get a summarized-middle variant of
// every shape collected so far.
func PeripheralConfigs(chunkSize, avgDocSize int) []PeripheralConfig {
	if chunkSize <= 0 || avgDocSize <= 0 {
		return []PeripheralConfig{{}}
	}

	maxChunks := max(1, avgDocSize/chunkSize)
	factor := math.Sqrt(float64(avgDocSize) / float64(chunkSize))

	configs := []PeripheralConfig{{}}
	for _, base := range baseShapes() {
		scaled := base.Clone()
		scaled.eachZone(func(z *Zone) {
			z.Count = min(maxChunks, max(1, int(float64(z.Count)*factor)))
		})
		configs = append(configs, scaled)
	}

	doc := float64(avgDocSize)
	if float64(chunkSize) < doc/10 {
		configs = append(configs, PeripheralConfig{
			Previous: &Direction{Tail: &Zone{Count: min(5, maxChunks)}},
			Next:     &Direction{Head: &Zone{Count: min(2, maxChunks)}},
		})
	}

	if float64(chunkSize) < doc/5 {
		n := len(configs)
		for _, c := range configs[:n] {
			configs = append(configs, summarized(c))
		}
	}

	return dedupe(configs)
}

// summarized adds a summary of the middle of the preceding text, creating a
// one-chunk summarized tail when the shape had no previous context.
func summarized(c PeripheralConfig) PeripheralConfig {
	s := c.Clone()
	if s.Previous == nil {
		s.Previous = &Direction{Tail: &Zone{Count: 1, Mode: ModeSummary}}
	}
	s.Previous.Middle = &Zone{Mode: ModeSummary}
	return s
}

// dedupe keeps the first occurrence of every structurally distinct config.
func dedupe(configs []PeripheralConfig) []PeripheralConfig {
	out := make([]PeripheralConfig, 0, len(configs))
	for _, c := range configs {
		seen := false
		for _, u := range out {
			if u.Equal(c) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, c)
		}
	}
	return out
}

// Recommend narrows a configuration space using the advisory context plan.
// The empty configuration is always kept first. When no peripheral context
// is wanted only configurations serving head or tail needs remain; shapes
// with next context are dropped when next context is not wanted; document
// head and tail needs add a one-chunk previous.head or next.tail zone.
func Recommend(space []PeripheralConfig, ctx ContextPlan) []PeripheralConfig {
	out := []PeripheralConfig{{}}
	edges := ctx.NeedsDocumentHead || ctx.NeedsDocumentTail

	if edges {
		out = append(out, withEdges(PeripheralConfig{}, ctx))
	}
	if !ctx.NeedsPeripherals {
		return dedupe(out)
	}

	for _, c := range space {
		if c.IsEmpty() {
			continue
		}
		if c.Next != nil && !ctx.NextContext {
			continue
		}
		out = append(out, withEdges(c, ctx))
	}
	return dedupe(out)
}

func withEdges(c PeripheralConfig, ctx ContextPlan) PeripheralConfig {
	r := c.Clone()
	if ctx.NeedsDocumentHead {
		if r.Previous == nil {
			r.Previous = &Direction{}
		}
		r.Previous.Head = &Zone{Count: 1}
	}
	if ctx.NeedsDocumentTail {
		if r.Next == nil {
			r.Next = &Direction{}
		}
		r.Next.Tail = &Zone{Count: 1}
	}
	return r
}
