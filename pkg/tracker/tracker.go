package tracker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lecture-rag-be/internal/entity"
	"lecture-rag-be/internal/pkg/logger"
	"lecture-rag-be/pkg/apperror"
	"lecture-rag-be/pkg/events"

	"github.com/google/uuid"
)

const (
	DefaultUpdateInterval  = 60 * time.Second
	DefaultFinalizeTimeout = 2 * time.Minute
	DefaultPersistTimeout  = 30 * time.Second
)

// Pipeline turns accepted chunks into stored points.
type Pipeline interface {
	// Stage is called synchronously on submit and must not block.
	Stage(chunk entity.ChunkRecord)
	Persist(ctx context.Context, chunk entity.ChunkRecord) error
}

type Config struct {
	UpdateInterval  time.Duration
	BackupCapacity  int
	FinalizeTimeout time.Duration
	PersistTimeout  time.Duration
}

type SubmitResult struct {
	SessionKey  entity.SessionKey
	Status      entity.SessionStatus
	SegmentId   string
	ChunkNumber int
}

type SessionSnapshot struct {
	Key           entity.SessionKey
	Status        entity.SessionStatus
	StartTime     time.Time
	LastUpdate    time.Time
	LastProcessed *time.Time
	EndTime       *time.Time
	TotalChunks   int
}

type FinalizeResult struct {
	Key         entity.SessionKey
	Status      entity.SessionStatus
	TotalChunks int
}

type SessionStats struct {
	Session       SessionSnapshot
	BackupSize    int
	PendingChunks int
	ErrorCount    int
}

type sessionState struct {
	session entity.Session
	backup  *backupRing
	errors  []entity.SessionErrorEntry
}

// Tracker owns every live lecture session of the process.
type Tracker struct {
	mu        sync.Mutex
	sessions  map[entity.SessionKey]*sessionState
	queue     *Queue
	pipeline  Pipeline
	publisher events.Publisher
	logger    logger.ILogger
	cfg       Config
	now       func() time.Time
}

func NewTracker(pipeline Pipeline, publisher events.Publisher, log logger.ILogger, cfg Config) *Tracker {
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = DefaultUpdateInterval
	}
	if cfg.BackupCapacity <= 0 {
		cfg.BackupCapacity = DefaultBackupCapacity
	}
	if cfg.FinalizeTimeout <= 0 {
		cfg.FinalizeTimeout = DefaultFinalizeTimeout
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = DefaultPersistTimeout
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &Tracker{
		sessions:  make(map[entity.SessionKey]*sessionState),
		queue:     NewQueue(),
		pipeline:  pipeline,
		publisher: publisher,
		logger:    log,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Submit records a transcript fragment for today's session of the lecture and
// queues it for persistence. It never waits on the pipeline.
func (t *Tracker) Submit(ctx context.Context, courseTitle, lectureTitle, content, segmentId string) (*SubmitResult, error) {
	const op = "tracker.Submit"

	for name, value := range map[string]string{"course_title": courseTitle, "lecture_title": lectureTitle, "content": content} {
		if strings.TrimSpace(value) == "" {
			return nil, apperror.Validation(op, fmt.Sprintf("missing required field: %s", name))
		}
	}

	now := t.now()
	key := entity.NewSessionKey(courseTitle, lectureTitle, now)

	t.mu.Lock()
	st, exists := t.sessions[key]
	if !exists {
		st = &sessionState{
			session: entity.Session{
				Id:         uuid.New(),
				Key:        key,
				Status:     entity.SessionStatusActive,
				StartTime:  now,
				LastUpdate: now,
			},
			backup: newBackupRing(t.cfg.BackupCapacity),
		}
		t.sessions[key] = st
	}

	if st.session.Status == entity.SessionStatusCompleted {
		t.mu.Unlock()
		return nil, apperror.Wrap(op, apperror.ErrSessionCompleted)
	}
	reactivated := st.session.Status == entity.SessionStatusInactive
	if reactivated {
		st.session.Status = entity.SessionStatusActive
		st.session.EndTime = nil
	}

	st.session.ChunkCounter++
	st.session.LastUpdate = now
	number := st.session.ChunkCounter

	if segmentId == "" {
		segmentId = fmt.Sprintf("%s-%d", st.session.Id, number)
	}

	chunk := entity.ChunkRecord{
		Content:      content,
		Timestamp:    now,
		ChunkNumber:  number,
		SegmentId:    segmentId,
		SessionKey:   key,
		CourseTitle:  courseTitle,
		LectureTitle: lectureTitle,
	}
	st.backup.add(chunk)
	t.queue.Push(chunk)
	t.mu.Unlock()

	t.pipeline.Stage(chunk)

	if !exists {
		t.logger.Info("TRACKER", "Session started", map[string]interface{}{"session_key": key.String()})
		t.publish(ctx, events.LectureSessionStarted, key, map[string]interface{}{
			"course_title":  courseTitle,
			"lecture_title": lectureTitle,
		})
	}
	if reactivated {
		t.logger.Info("TRACKER", "Session reactivated", map[string]interface{}{"session_key": key.String()})
	}

	return &SubmitResult{
		SessionKey:  key,
		Status:      entity.SessionStatusActive,
		SegmentId:   segmentId,
		ChunkNumber: number,
	}, nil
}

// Status reports today's session of the lecture.
func (t *Tracker) Status(courseTitle, lectureTitle string) (*SessionSnapshot, error) {
	key := entity.NewSessionKey(courseTitle, lectureTitle, t.now())

	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.sessions[key]
	if !ok {
		return nil, apperror.Wrap("tracker.Status", apperror.ErrSessionNotFound)
	}
	snapshot := snapshotOf(st)
	return &snapshot, nil
}

// Finalize waits until every queued chunk of today's session is persisted and
// then completes the session. If the queue does not drain within the configured
// timeout it fails with a deadline error and leaves the session unchanged.
func (t *Tracker) Finalize(ctx context.Context, courseTitle, lectureTitle string) (*FinalizeResult, error) {
	const op = "tracker.Finalize"

	key := entity.NewSessionKey(courseTitle, lectureTitle, t.now())

	t.mu.Lock()
	st, ok := t.sessions[key]
	if !ok {
		t.mu.Unlock()
		return nil, apperror.Wrap(op, apperror.ErrSessionNotFound)
	}
	if st.session.Status == entity.SessionStatusCompleted {
		result := &FinalizeResult{Key: key, Status: st.session.Status, TotalChunks: st.session.ChunkCounter}
		t.mu.Unlock()
		return result, nil
	}
	t.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, t.cfg.FinalizeTimeout)
	defer cancel()

	for {
		if err := t.queue.WaitIdle(waitCtx, key); err != nil {
			pending := t.queue.Pending(key)
			t.logger.Warn("TRACKER", "Finalize timed out", map[string]interface{}{
				"session_key": key.String(),
				"pending":     pending,
			})
			return nil, apperror.Deadline(op, fmt.Sprintf("%d chunks still pending persistence", pending))
		}

		t.mu.Lock()
		// a submit may have slipped in between the wait and the lock
		if t.queue.Pending(key) > 0 {
			t.mu.Unlock()
			continue
		}

		st, ok = t.sessions[key]
		if !ok {
			t.mu.Unlock()
			return nil, apperror.Wrap(op, apperror.ErrSessionNotFound)
		}
		end := t.now()
		st.session.Status = entity.SessionStatusCompleted
		st.session.EndTime = &end
		result := &FinalizeResult{Key: key, Status: st.session.Status, TotalChunks: st.session.ChunkCounter}
		t.mu.Unlock()

		t.logger.Info("TRACKER", "Session completed", map[string]interface{}{
			"session_key":  key.String(),
			"total_chunks": result.TotalChunks,
		})
		t.publish(ctx, events.LectureSessionCompleted, key, map[string]interface{}{"total_chunks": result.TotalChunks})
		return result, nil
	}
}

// Recover re-queues every chunk held in the session's backup buffer.
func (t *Tracker) Recover(ctx context.Context, key entity.SessionKey) (int, error) {
	t.mu.Lock()
	st, ok := t.sessions[key]
	if !ok {
		t.mu.Unlock()
		return 0, apperror.Wrap("tracker.Recover", apperror.ErrSessionNotFound)
	}
	chunks := st.backup.snapshot()
	t.queue.Push(chunks...)
	t.mu.Unlock()

	t.logger.Info("TRACKER", "Session recovered", map[string]interface{}{
		"session_key": key.String(),
		"recovered":   len(chunks),
	})
	return len(chunks), nil
}

// Cleanup drops a completed session and everything held for it. It refuses
// while recovered chunks of the session are still queued or in flight.
func (t *Tracker) Cleanup(ctx context.Context, key entity.SessionKey) (*SessionSnapshot, error) {
	const op = "tracker.Cleanup"

	t.mu.Lock()
	st, ok := t.sessions[key]
	if !ok {
		t.mu.Unlock()
		return nil, apperror.Wrap(op, apperror.ErrSessionNotFound)
	}
	if st.session.Status != entity.SessionStatusCompleted {
		t.mu.Unlock()
		return nil, apperror.Wrap(op, apperror.ErrSessionNotCompleted)
	}
	if t.queue.Pending(key) > 0 {
		t.mu.Unlock()
		return nil, apperror.Wrap(op, apperror.ErrSessionBusy)
	}
	snapshot := snapshotOf(st)
	delete(t.sessions, key)
	t.mu.Unlock()

	t.logger.Info("TRACKER", "Session cleaned", map[string]interface{}{"session_key": key.String()})
	t.publish(ctx, events.LectureSessionCleaned, key, map[string]interface{}{"total_chunks": snapshot.TotalChunks})
	return &snapshot, nil
}

func (t *Tracker) ErrorLog(key entity.SessionKey) ([]entity.SessionErrorEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.sessions[key]
	if !ok {
		return nil, apperror.Wrap("tracker.ErrorLog", apperror.ErrSessionNotFound)
	}
	out := make([]entity.SessionErrorEntry, len(st.errors))
	copy(out, st.errors)
	return out, nil
}

// ClearErrorLog empties the session's error log and returns how many entries it held.
func (t *Tracker) ClearErrorLog(key entity.SessionKey) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.sessions[key]
	if !ok {
		return 0, apperror.Wrap("tracker.ClearErrorLog", apperror.ErrSessionNotFound)
	}
	cleared := len(st.errors)
	st.errors = nil
	return cleared, nil
}

func (t *Tracker) Stats(key entity.SessionKey) (*SessionStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.sessions[key]
	if !ok {
		return nil, apperror.Wrap("tracker.Stats", apperror.ErrSessionNotFound)
	}
	return &SessionStats{
		Session:       snapshotOf(st),
		BackupSize:    st.backup.len(),
		PendingChunks: t.queue.Pending(key),
		ErrorCount:    len(st.errors),
	}, nil
}

// Sessions lists every tracked session, oldest first.
func (t *Tracker) Sessions() []SessionSnapshot {
	t.mu.Lock()
	out := make([]SessionSnapshot, 0, len(t.sessions))
	for _, st := range t.sessions {
		out = append(out, snapshotOf(st))
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// QueueDepth is the number of chunks waiting for the drain worker.
func (t *Tracker) QueueDepth() int {
	return t.queue.Len()
}

func (t *Tracker) publish(ctx context.Context, eventType string, key entity.SessionKey, data map[string]interface{}) {
	event := events.NewLectureEvent(eventType, key.String(), data, t.now())
	if err := t.publisher.Publish(ctx, event); err != nil {
		t.logger.Warn("TRACKER", "Failed to publish event", map[string]interface{}{
			"event":       eventType,
			"session_key": key.String(),
			"error":       err.Error(),
		})
	}
}

func snapshotOf(st *sessionState) SessionSnapshot {
	s := st.session
	return SessionSnapshot{
		Key:           s.Key,
		Status:        s.Status,
		StartTime:     s.StartTime,
		LastUpdate:    s.LastUpdate,
		LastProcessed: copyTime(s.LastProcessed),
		EndTime:       copyTime(s.EndTime),
		TotalChunks:   s.ChunkCounter,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
