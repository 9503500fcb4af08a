package chunker

import (
	"strings"
	"unicode/utf8"
)

const DefaultThreshold = 500

// Segment is one ordered piece of a split text.
type Segment struct {
	Position int
	Text     string
}

// WordChunker splits text on whitespace and groups words into segments of
// roughly Threshold characters. Words are never cut.
type WordChunker struct {
	Threshold int
}

func NewWordChunker(threshold int) *WordChunker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &WordChunker{Threshold: threshold}
}

// Chunk returns all segments of text. Empty or whitespace-only text yields nil.
func (c *WordChunker) Chunk(text string) []Segment {
	var segments []Segment
	c.Each(text, func(s Segment) bool {
		segments = append(segments, s)
		return true
	})
	return segments
}

// Each streams segments to fn until fn returns false or the text is exhausted.
// Each word counts as its length in characters plus one separator; a segment
// is flushed as soon as the running size reaches the threshold.
func (c *WordChunker) Each(text string, fn func(Segment) bool) {
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var (
		words    []string
		size     int
		position int
	)
	for _, word := range strings.Fields(text) {
		words = append(words, word)
		size += utf8.RuneCountInString(word) + 1

		if size >= threshold {
			if !fn(Segment{Position: position, Text: strings.Join(words, " ")}) {
				return
			}
			words = words[:0]
			size = 0
			position++
		}
	}

	if len(words) > 0 {
		fn(Segment{Position: position, Text: strings.Join(words, " ")})
	}
}
