package entity

import "time"

// ChunkRecord is one accepted transcript fragment. It is immutable once created.
type ChunkRecord struct {
	Content      string
	Timestamp    time.Time
	ChunkNumber  int
	SegmentId    string
	SessionKey   SessionKey
	CourseTitle  string
	LectureTitle string
}

// Fragment is a piece of lecture text as seen by retrieval: either a tracked
// chunk (ChunkNumber set) or a slice of a whole-lecture upload (Position set).
type Fragment struct {
	PointId      string
	Text         string
	CourseTitle  string
	LectureTitle string
	SegmentId    string
	SessionKey   string
	Timestamp    time.Time
	ChunkNumber  *int
	Position     *int
}

// Order returns the session-local sequence used to break timestamp ties.
func (f Fragment) Order() int {
	if f.ChunkNumber != nil {
		return *f.ChunkNumber
	}
	if f.Position != nil {
		return *f.Position
	}
	return 0
}

func FragmentFromChunk(chunk ChunkRecord) Fragment {
	n := chunk.ChunkNumber
	return Fragment{
		Text:         chunk.Content,
		CourseTitle:  chunk.CourseTitle,
		LectureTitle: chunk.LectureTitle,
		SegmentId:    chunk.SegmentId,
		SessionKey:   chunk.SessionKey.String(),
		Timestamp:    chunk.Timestamp,
		ChunkNumber:  &n,
	}
}
