package dto

import "time"

type SubmitChunkRequest struct {
	CourseTitle  string `json:"course_title" validate:"required"`
	LectureTitle string `json:"lecture_title" validate:"required"`
	Content      string `json:"content" validate:"required"`
	SegmentId    string `json:"segment_id,omitempty"`
}

type SubmitChunkResponse struct {
	SessionKey  string `json:"session_key"`
	Status      string `json:"status"`
	SegmentId   string `json:"segment_id"`
	ChunkNumber int    `json:"chunk_number"`
}

// LectureRequest names a lecture of a course; it is used both as a JSON body
// and as query parameters.
type LectureRequest struct {
	CourseTitle  string `json:"course_title" query:"course_title" validate:"required"`
	LectureTitle string `json:"lecture_title" query:"lecture_title" validate:"required"`
}

type FinalizeResponse struct {
	SessionKey  string `json:"session_key"`
	Status      string `json:"status"`
	TotalChunks int    `json:"total_chunks"`
}

type SessionResponse struct {
	SessionKey    string     `json:"session_key"`
	CourseTitle   string     `json:"course_title"`
	LectureTitle  string     `json:"lecture_title"`
	Date          string     `json:"date"`
	Status        string     `json:"status"`
	StartTime     time.Time  `json:"start_time"`
	LastUpdate    time.Time  `json:"last_update"`
	LastProcessed *time.Time `json:"last_processed,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	TotalChunks   int        `json:"total_chunks"`
}

type SessionStatsResponse struct {
	Session           SessionResponse `json:"session"`
	BackupSize        int             `json:"backup_size"`
	PendingChunks     int             `json:"pending_chunks"`
	ErrorCount        int             `json:"error_count"`
	RememberedAnswers []string        `json:"remembered_answers"`
}

type RecoverResponse struct {
	SessionKey     string `json:"session_key"`
	RecoveredCount int    `json:"recovered_count"`
}

type CleanupResponse struct {
	SessionKey string          `json:"session_key"`
	Snapshot   SessionResponse `json:"session_snapshot"`
}

type ErrorEntryResponse struct {
	Timestamp   time.Time `json:"timestamp"`
	ChunkNumber int       `json:"chunk_number"`
	SegmentId   string    `json:"segment_id"`
	Message     string    `json:"message"`
}

type ErrorLogResponse struct {
	SessionKey string               `json:"session_key"`
	Errors     []ErrorEntryResponse `json:"errors"`
}

type ClearErrorLogResponse struct {
	SessionKey string `json:"session_key"`
	Cleared    int    `json:"cleared"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	QueueDepth int    `json:"queue_depth"`
	Sessions   int    `json:"sessions"`
	RecentSize int    `json:"recent_size"`
}

// LiveEventMessage is what live feed clients receive for each lecture event.
type LiveEventMessage struct {
	Type       string                 `json:"type"`
	SessionKey string                 `json:"session_key"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}
