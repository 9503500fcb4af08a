package dto

import "time"

type AddLectureRequest struct {
	CourseTitle  string `json:"course_title" validate:"required"`
	LectureTitle string `json:"lecture_title" validate:"required"`
	Text         string `json:"text" validate:"required"`
}

type AddLectureResponse struct {
	CourseTitle  string `json:"course_title"`
	LectureTitle string `json:"lecture_title"`
	ChunksAdded  int    `json:"chunks_added"`
}

type QueryRequest struct {
	Question     string `json:"question" validate:"required"`
	CourseTitle  string `json:"course_title" validate:"required"`
	LectureTitle string `json:"lecture_title" validate:"required"`
	SegmentId    string `json:"segment_id,omitempty"`
	PreferRecent *bool  `json:"prefer_recent,omitempty"`
	Limit        int    `json:"limit,omitempty" validate:"min=0,max=20"`
}

type SourceResponse struct {
	Text         string    `json:"text"`
	CourseTitle  string    `json:"course_title"`
	LectureTitle string    `json:"lecture_title"`
	SegmentId    string    `json:"segment_id"`
	Timestamp    time.Time `json:"timestamp"`
	ChunkNumber  *int      `json:"chunk_number,omitempty"`
	Position     *int      `json:"position,omitempty"`
	FromRecent   bool      `json:"from_recent"`
}

type QueryResponse struct {
	Answer     string           `json:"answer"`
	Sources    []SourceResponse `json:"sources"`
	FromGPT    bool             `json:"from_gpt"`
	FromRecent bool             `json:"from_recent"`
}

type LectureInfoResponse struct {
	CourseTitle   string `json:"course_title"`
	LectureTitle  string `json:"lecture_title"`
	TotalSegments int    `json:"total_segments"`
	TotalChunks   int    `json:"total_chunks"`
}

type LectureSegmentResponse struct {
	Id         string    `json:"id"`
	Content    []string  `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	ChunkCount int       `json:"chunk_count"`
}

type CompleteLectureResponse struct {
	LectureInfo     LectureInfoResponse      `json:"lecture_info"`
	CompleteContent string                   `json:"complete_content"`
	Segments        []LectureSegmentResponse `json:"segments"`
}
