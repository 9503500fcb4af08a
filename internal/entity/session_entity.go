package entity

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusInactive  SessionStatus = "inactive"
	SessionStatusCompleted SessionStatus = "completed"
)

// SessionKey identifies one live recording: a lecture of a course on a calendar day.
// It is comparable and used directly as a map key.
type SessionKey struct {
	CourseTitle  string
	LectureTitle string
	Date         string
}

func NewSessionKey(courseTitle, lectureTitle string, day time.Time) SessionKey {
	return SessionKey{
		CourseTitle:  courseTitle,
		LectureTitle: lectureTitle,
		Date:         day.Format(DateLayout),
	}
}

// String encodes the key as escaped components joined by ':' so titles
// containing the separator (or underscores) round-trip through ParseSessionKey.
// The result is usable verbatim as a URL path segment.
func (k SessionKey) String() string {
	return url.QueryEscape(k.CourseTitle) + ":" + url.QueryEscape(k.LectureTitle) + ":" + k.Date
}

func ParseSessionKey(raw string) (SessionKey, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return SessionKey{}, fmt.Errorf("malformed session key %q", raw)
	}
	course, err := url.QueryUnescape(parts[0])
	if err != nil {
		return SessionKey{}, fmt.Errorf("malformed course title in session key: %w", err)
	}
	lecture, err := url.QueryUnescape(parts[1])
	if err != nil {
		return SessionKey{}, fmt.Errorf("malformed lecture title in session key: %w", err)
	}
	if _, err := time.Parse(DateLayout, parts[2]); err != nil {
		return SessionKey{}, fmt.Errorf("malformed date in session key: %w", err)
	}
	return SessionKey{CourseTitle: course, LectureTitle: lecture, Date: parts[2]}, nil
}

type Session struct {
	Id            uuid.UUID
	Key           SessionKey
	Status        SessionStatus
	StartTime     time.Time
	LastUpdate    time.Time
	LastProcessed *time.Time
	EndTime       *time.Time
	ChunkCounter  int
}

// LastActivity is the most recent of the last submission and the last persisted chunk.
func (s *Session) LastActivity() time.Time {
	if s.LastProcessed != nil && s.LastProcessed.After(s.LastUpdate) {
		return *s.LastProcessed
	}
	return s.LastUpdate
}

type SessionErrorEntry struct {
	Timestamp   time.Time
	ChunkNumber int
	SegmentId   string
	Message     string
}
