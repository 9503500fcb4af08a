package vectorstore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadSurvivesJSON(t *testing.T) {
	n := 7
	in := Payload{
		Text:         "light bends",
		CourseTitle:  "Physics",
		LectureTitle: "Optics",
		SegmentId:    "seg-1",
		SessionKey:   "Physics:Optics:2026-10-15",
		Timestamp:    time.Date(2026, 10, 15, 9, 30, 0, 123, time.UTC),
		ChunkNumber:  &n,
		IngestedAt:   time.Date(2026, 10, 15, 9, 31, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(in.ToMap())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	out := PayloadFromMap(decoded)

	assert.Equal(t, in.Text, out.Text)
	assert.Equal(t, in.SegmentId, out.SegmentId)
	assert.True(t, in.Timestamp.Equal(out.Timestamp))
	require.NotNil(t, out.ChunkNumber)
	assert.Equal(t, 7, *out.ChunkNumber)
	assert.Nil(t, out.Position)
	assert.NotContains(t, decoded, FieldPosition)
}

func TestPayloadFromMapAcceptsNaiveTimestamp(t *testing.T) {
	p := PayloadFromMap(map[string]any{FieldTimestamp: "2026-10-15T09:30:00.250000"})
	assert.Equal(t, 2026, p.Timestamp.Year())
	assert.Equal(t, 250*time.Millisecond, time.Duration(p.Timestamp.Nanosecond()))
}

func TestFilterMatches(t *testing.T) {
	p := Payload{CourseTitle: "Physics", LectureTitle: "Optics", SegmentId: "s1"}

	assert.True(t, Filter{}.Matches(p))
	assert.True(t, Filter{CourseTitle: "Physics", LectureTitle: "Optics"}.Matches(p))
	assert.False(t, Filter{CourseTitle: "Physics", SegmentId: "s2"}.Matches(p))
	assert.False(t, Filter{SessionKey: "x"}.Matches(p))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Equal(t, float32(0), Cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, float32(0), Cosine([]float32{0, 0}, []float32{1, 2}))
}
