package rag

import "time"

type QueryRequest struct {
	Question     string
	CourseTitle  string
	LectureTitle string
	SegmentId    string
	PreferRecent bool
	Limit        int
}

// Source is one lecture fragment that backed a grounded answer.
type Source struct {
	Text         string
	CourseTitle  string
	LectureTitle string
	SegmentId    string
	Timestamp    time.Time
	ChunkNumber  *int
	Position     *int
	FromRecent   bool
}

type Answer struct {
	Answer     string
	Sources    []Source
	FromGPT    bool
	FromRecent bool
}

type LectureInfo struct {
	CourseTitle   string
	LectureTitle  string
	TotalSegments int
	TotalChunks   int
}

type LectureSegment struct {
	Id         string
	Content    []string
	Timestamp  time.Time
	ChunkCount int
}

// CompleteLecture is every stored fragment of a lecture grouped by segment in
// first-appearance order.
type CompleteLecture struct {
	Info            LectureInfo
	CompleteContent string
	Segments        []LectureSegment
}
