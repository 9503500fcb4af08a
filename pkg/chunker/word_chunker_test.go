package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkSplitsTranscriptIntoTwoSegments(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("abcd ", 104)) + "e"
	require.Len(t, text, 520)

	segments := NewWordChunker(500).Chunk(text)

	require.Len(t, segments, 2)
	assert.Equal(t, 0, segments[0].Position)
	assert.Equal(t, 1, segments[1].Position)
	assert.Len(t, strings.Fields(segments[0].Text), 100)
	assert.Equal(t, "abcd abcd abcd abcde", segments[1].Text)
}

func TestChunkProperties(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		threshold int
		want      int
	}{
		{name: "empty", text: "", threshold: 10, want: 0},
		{name: "whitespace only", text: " \n\t ", threshold: 10, want: 0},
		{name: "single short word", text: "hello", threshold: 10, want: 1},
		{name: "exact threshold flushes", text: "abcd abcd", threshold: 5, want: 2},
		{name: "long word is its own segment", text: "supercalifragilistic a b", threshold: 5, want: 2},
		{name: "irregular whitespace", text: "one\ttwo\n\nthree   four", threshold: 8, want: 2},
		{name: "default threshold", text: "a b c", threshold: 0, want: 1},
		{name: "multibyte words count characters", text: strings.TrimSpace(strings.Repeat("日本語 ", 10)), threshold: 40, want: 1},
		{name: "accented words", text: "café naïve résumé", threshold: 6, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewWordChunker(tt.threshold)
			segments := c.Chunk(tt.text)

			assert.Len(t, segments, tt.want)

			var words []string
			for i, s := range segments {
				assert.Equal(t, i, s.Position, "positions are contiguous from zero")
				assert.NotEmpty(t, s.Text)
				words = append(words, strings.Fields(s.Text)...)
			}
			assert.Equal(t, strings.Fields(tt.text), nilIfEmpty(words), "words survive in order")

			again := c.Chunk(tt.text)
			assert.Equal(t, segments, again, "chunking is deterministic")
		})
	}
}

func TestEachStopsEarly(t *testing.T) {
	var seen []Segment
	NewWordChunker(2).Each("a b c d", func(s Segment) bool {
		seen = append(seen, s)
		return len(seen) < 2
	})

	require.Len(t, seen, 2)
	assert.Equal(t, "b", seen[1].Text)
}

func nilIfEmpty(words []string) []string {
	if len(words) == 0 {
		return []string{}
	}
	return words
}
