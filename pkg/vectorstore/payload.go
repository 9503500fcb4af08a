package vectorstore

import (
	"time"
)

const (
	FieldText         = "text"
	FieldCourseTitle  = "course_title"
	FieldLectureTitle = "lecture_title"
	FieldSegmentId    = "segment_id"
	FieldSessionKey   = "session_key"
	FieldTimestamp    = "timestamp"
	FieldChunkNumber  = "chunk_number"
	FieldPosition     = "position"
	FieldIngestedAt   = "ingested_at"
)

// ToMap renders the payload in its stored JSON form. Optional fields are omitted when unset.
func (p Payload) ToMap() map[string]any {
	m := map[string]any{
		FieldText:         p.Text,
		FieldCourseTitle:  p.CourseTitle,
		FieldLectureTitle: p.LectureTitle,
		FieldTimestamp:    p.Timestamp.Format(time.RFC3339Nano),
	}
	if p.SegmentId != "" {
		m[FieldSegmentId] = p.SegmentId
	}
	if p.SessionKey != "" {
		m[FieldSessionKey] = p.SessionKey
	}
	if p.ChunkNumber != nil {
		m[FieldChunkNumber] = *p.ChunkNumber
	}
	if p.Position != nil {
		m[FieldPosition] = *p.Position
	}
	if !p.IngestedAt.IsZero() {
		m[FieldIngestedAt] = p.IngestedAt.Format(time.RFC3339Nano)
	}
	return m
}

// PayloadFromMap is the inverse of ToMap. It accepts numbers decoded as float64
// and tolerates missing or malformed fields.
func PayloadFromMap(m map[string]any) Payload {
	return Payload{
		Text:         getString(m, FieldText),
		CourseTitle:  getString(m, FieldCourseTitle),
		LectureTitle: getString(m, FieldLectureTitle),
		SegmentId:    getString(m, FieldSegmentId),
		SessionKey:   getString(m, FieldSessionKey),
		Timestamp:    getTime(m, FieldTimestamp),
		ChunkNumber:  getInt(m, FieldChunkNumber),
		Position:     getInt(m, FieldPosition),
		IngestedAt:   getTime(m, FieldIngestedAt),
	}
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getTime(m map[string]any, key string) time.Time {
	raw := getString(m, key)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	// naive ISO timestamps without zone
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", raw, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

func getInt(m map[string]any, key string) *int {
	var n int
	switch v := m[key].(type) {
	case float64:
		n = int(v)
	case int:
		n = v
	case int64:
		n = int(v)
	default:
		return nil
	}
	return &n
}
