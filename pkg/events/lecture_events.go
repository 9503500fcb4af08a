package events

import "time"

const (
	LectureSessionStarted   = "lecture.session_started"
	LectureChunkPersisted   = "lecture.chunk_persisted"
	LectureChunkFailed      = "lecture.chunk_failed"
	LectureSessionInactive  = "lecture.session_inactive"
	LectureSessionCompleted = "lecture.session_completed"
	LectureSessionCleaned   = "lecture.session_cleaned"

	// SessionKeyField is present in the payload of every lecture event.
	SessionKeyField = "session_key"
)

func NewLectureEvent(eventType string, sessionKey string, data map[string]interface{}, at time.Time) BaseEvent {
	payload := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload[SessionKeyField] = sessionKey

	return BaseEvent{
		Type:       eventType,
		Data:       payload,
		OccurredAt: at,
	}
}

// SessionKeyOf returns the session key carried by a lecture event, if any.
func SessionKeyOf(e Event) string {
	if v, ok := e.Payload()[SessionKeyField].(string); ok {
		return v
	}
	return ""
}
