package vectorstore

import (
	"context"
	"time"
)

// Store is a similarity index over points with filterable payloads.
type Store interface {
	// EnsureCollection creates the backing collection when it does not exist.
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, points []Point) error
	// Search returns at most limit hits matching filter, best score first.
	Search(ctx context.Context, vector []float32, filter Filter, limit int) ([]Hit, error)
	// Scroll returns at most limit points matching filter in storage order.
	Scroll(ctx context.Context, filter Filter, limit int) ([]Hit, error)
}

type Point struct {
	Id      string
	Vector  []float32
	Payload Payload
}

type Hit struct {
	Id      string
	Score   float32
	Payload Payload
}

type Payload struct {
	Text         string
	CourseTitle  string
	LectureTitle string
	SegmentId    string
	SessionKey   string
	Timestamp    time.Time
	ChunkNumber  *int
	Position     *int
	IngestedAt   time.Time
}

// Filter holds exact-match conditions on payload fields. Empty fields match anything.
type Filter struct {
	CourseTitle  string
	LectureTitle string
	SegmentId    string
	SessionKey   string
}

func (f Filter) Matches(p Payload) bool {
	for key, want := range f.Conditions() {
		var got string
		switch key {
		case FieldCourseTitle:
			got = p.CourseTitle
		case FieldLectureTitle:
			got = p.LectureTitle
		case FieldSegmentId:
			got = p.SegmentId
		case FieldSessionKey:
			got = p.SessionKey
		}
		if got != want {
			return false
		}
	}
	return true
}

// Conditions returns the non-empty conditions keyed by payload field name.
func (f Filter) Conditions() map[string]string {
	conditions := make(map[string]string, 4)
	if f.CourseTitle != "" {
		conditions[FieldCourseTitle] = f.CourseTitle
	}
	if f.LectureTitle != "" {
		conditions[FieldLectureTitle] = f.LectureTitle
	}
	if f.SegmentId != "" {
		conditions[FieldSegmentId] = f.SegmentId
	}
	if f.SessionKey != "" {
		conditions[FieldSessionKey] = f.SessionKey
	}
	return conditions
}
