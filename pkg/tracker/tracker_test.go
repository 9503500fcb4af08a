package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"lecture-rag-be/internal/entity"
	"lecture-rag-be/internal/pkg/logger"
	"lecture-rag-be/pkg/apperror"
	"lecture-rag-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	mu        sync.Mutex
	staged    []entity.ChunkRecord
	persisted []entity.ChunkRecord
	failOn    map[int]error
	panicOn   map[int]bool
	release   chan struct{}
}

func (p *fakePipeline) Stage(chunk entity.ChunkRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staged = append(p.staged, chunk)
}

func (p *fakePipeline) Persist(ctx context.Context, chunk entity.ChunkRecord) error {
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if p.panicOn[chunk.ChunkNumber] {
		panic("embedder exploded")
	}
	if err := p.failOn[chunk.ChunkNumber]; err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.persisted = append(p.persisted, chunk)
	return nil
}

func (p *fakePipeline) persistedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.persisted)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

var morning = time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local)

func newTestTracker(p *fakePipeline, pub events.Publisher, cfg Config) *Tracker {
	tr := NewTracker(p, pub, logger.NewNopLogger(), cfg)
	tr.now = func() time.Time { return morning }
	return tr
}

// drainAll persists everything queued, in order, on the calling goroutine.
func drainAll(t *testing.T, tr *Tracker) {
	t.Helper()
	for tr.QueueDepth() > 0 {
		chunk, err := tr.queue.Pop(context.Background())
		require.NoError(t, err)
		tr.process(context.Background(), chunk)
	}
}

func TestSubmitAssignsMonotonicChunkNumbers(t *testing.T) {
	p := &fakePipeline{}
	tr := newTestTracker(p, nil, Config{})
	ctx := context.Background()

	var results []*SubmitResult
	for i := 0; i < 3; i++ {
		res, err := tr.Submit(ctx, "Physics", "Optics", fmt.Sprintf("part %d", i), "")
		require.NoError(t, err)
		results = append(results, res)
	}

	stats, err := tr.Stats(results[0].SessionKey)
	require.NoError(t, err)

	for i, res := range results {
		assert.Equal(t, i+1, res.ChunkNumber)
		assert.Equal(t, entity.SessionStatusActive, res.Status)
		assert.Contains(t, res.SegmentId, fmt.Sprintf("-%d", i+1))
	}
	assert.Equal(t, entity.NewSessionKey("Physics", "Optics", morning), results[0].SessionKey)
	assert.Equal(t, 3, stats.Session.TotalChunks)
	assert.Equal(t, 3, stats.PendingChunks)
	assert.Equal(t, 3, tr.QueueDepth())
	assert.Len(t, p.staged, 3)
}

func TestSubmitKeepsCallerSegmentId(t *testing.T) {
	tr := newTestTracker(&fakePipeline{}, nil, Config{})

	res, err := tr.Submit(context.Background(), "Physics", "Optics", "hello", "intro")
	require.NoError(t, err)
	assert.Equal(t, "intro", res.SegmentId)
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	tr := newTestTracker(&fakePipeline{}, nil, Config{})

	_, err := tr.Submit(context.Background(), "Physics", "Optics", "   ", "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "content")
	assert.Empty(t, tr.Sessions())
}

func TestSubmitPublishesSessionStartedOnce(t *testing.T) {
	pub := &recordingPublisher{}
	tr := newTestTracker(&fakePipeline{}, pub, Config{})

	_, err := tr.Submit(context.Background(), "Physics", "Optics", "a", "")
	require.NoError(t, err)
	_, err = tr.Submit(context.Background(), "Physics", "Optics", "b", "")
	require.NoError(t, err)

	assert.Equal(t, []string{events.LectureSessionStarted}, pub.types())
}

func TestStatusUnknownSession(t *testing.T) {
	tr := newTestTracker(&fakePipeline{}, nil, Config{})

	_, err := tr.Status("Physics", "Optics")
	assert.True(t, errors.Is(err, apperror.ErrSessionNotFound))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestRecoverRequeuesBackupUpToCapacity(t *testing.T) {
	tr := newTestTracker(&fakePipeline{}, nil, Config{})
	ctx := context.Background()

	var key entity.SessionKey
	for i := 0; i < 120; i++ {
		res, err := tr.Submit(ctx, "Physics", "Optics", "x", "")
		require.NoError(t, err)
		key = res.SessionKey
	}
	drainAll(t, tr)

	n, err := tr.Recover(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, DefaultBackupCapacity, n)
	assert.Equal(t, DefaultBackupCapacity, tr.QueueDepth())

	first, err := tr.queue.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, 21, first.ChunkNumber)
}

func TestRecoverUnknownSession(t *testing.T) {
	tr := newTestTracker(&fakePipeline{}, nil, Config{})

	_, err := tr.Recover(context.Background(), entity.NewSessionKey("a", "b", morning))
	assert.True(t, errors.Is(err, apperror.ErrSessionNotFound))
}

func TestCleanupRefusesActiveSession(t *testing.T) {
	tr := newTestTracker(&fakePipeline{}, nil, Config{})
	ctx := context.Background()

	res, err := tr.Submit(ctx, "Physics", "Optics", "x", "")
	require.NoError(t, err)

	_, err = tr.Cleanup(ctx, res.SessionKey)
	assert.True(t, errors.Is(err, apperror.ErrSessionNotCompleted))
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	status, err := tr.Status("Physics", "Optics")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusActive, status.Status)
	assert.Equal(t, 1, status.TotalChunks)
	assert.Len(t, tr.Sessions(), 1)
}

func TestFinalizeThenCleanup(t *testing.T) {
	p := &fakePipeline{}
	pub := &recordingPublisher{}
	tr := newTestTracker(p, pub, Config{FinalizeTimeout: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- tr.Run(ctx) }()

	res, err := tr.Submit(ctx, "Physics", "Optics", "light bends", "")
	require.NoError(t, err)

	final, err := tr.Finalize(ctx, "Physics", "Optics")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCompleted, final.Status)
	assert.Equal(t, 1, final.TotalChunks)
	assert.Equal(t, 1, p.persistedCount())

	cleaned, err := tr.Cleanup(ctx, res.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCompleted, cleaned.Status)
	require.NotNil(t, cleaned.EndTime)
	assert.Empty(t, tr.Sessions())

	_, err = tr.Cleanup(ctx, res.SessionKey)
	assert.True(t, errors.Is(err, apperror.ErrSessionNotFound))

	cancel()
	assert.NoError(t, <-runErr)
	assert.Contains(t, pub.types(), events.LectureSessionCompleted)
	assert.Contains(t, pub.types(), events.LectureSessionCleaned)
}

func TestCleanupWaitsForRecoveredChunks(t *testing.T) {
	p := &fakePipeline{failOn: map[int]error{1: errors.New("store offline")}}
	tr := newTestTracker(p, nil, Config{})
	ctx := context.Background()

	res, err := tr.Submit(ctx, "Physics", "Optics", "light bends", "")
	require.NoError(t, err)
	drainAll(t, tr)
	_, err = tr.ClearErrorLog(res.SessionKey)
	require.NoError(t, err)

	_, err = tr.Finalize(ctx, "Physics", "Optics")
	require.NoError(t, err)

	recovered, err := tr.Recover(ctx, res.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	_, err = tr.Cleanup(ctx, res.SessionKey)
	assert.True(t, errors.Is(err, apperror.ErrSessionBusy))
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Len(t, tr.Sessions(), 1)

	drainAll(t, tr)
	entries, err := tr.ErrorLog(res.SessionKey)
	require.NoError(t, err)
	require.Len(t, entries, 1, "replayed failure lands in the session error log")

	_, err = tr.Cleanup(ctx, res.SessionKey)
	require.NoError(t, err)
	assert.Empty(t, tr.Sessions())
}

func TestFinalizeIsIdempotent(t *testing.T) {
	tr := newTestTracker(&fakePipeline{}, nil, Config{})
	ctx := context.Background()

	_, err := tr.Submit(ctx, "Physics", "Optics", "x", "")
	require.NoError(t, err)
	drainAll(t, tr)

	first, err := tr.Finalize(ctx, "Physics", "Optics")
	require.NoError(t, err)
	second, err := tr.Finalize(ctx, "Physics", "Optics")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFinalizeTimesOutWhileChunksPending(t *testing.T) {
	p := &fakePipeline{release: make(chan struct{})}
	tr := newTestTracker(p, nil, Config{FinalizeTimeout: 30 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Run(ctx) }()

	_, err := tr.Submit(ctx, "Physics", "Optics", "x", "")
	require.NoError(t, err)

	_, err = tr.Finalize(ctx, "Physics", "Optics")
	require.Error(t, err)
	assert.Equal(t, apperror.KindDeadlineExceeded, apperror.KindOf(err))

	status, err := tr.Status("Physics", "Optics")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusActive, status.Status)
	assert.Nil(t, status.EndTime)

	close(p.release)
	tr.cfg.FinalizeTimeout = 5 * time.Second
	final, err := tr.Finalize(ctx, "Physics", "Optics")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCompleted, final.Status)
}

func TestSubmitAfterCompletionConflicts(t *testing.T) {
	tr := newTestTracker(&fakePipeline{}, nil, Config{})
	ctx := context.Background()

	_, err := tr.Submit(ctx, "Physics", "Optics", "x", "")
	require.NoError(t, err)
	drainAll(t, tr)
	_, err = tr.Finalize(ctx, "Physics", "Optics")
	require.NoError(t, err)

	_, err = tr.Submit(ctx, "Physics", "Optics", "late", "")
	assert.True(t, errors.Is(err, apperror.ErrSessionCompleted))
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, 0, tr.QueueDepth())
}

func TestSweepMarksIdleSessionsInactive(t *testing.T) {
	pub := &recordingPublisher{}
	tr := newTestTracker(&fakePipeline{}, pub, Config{UpdateInterval: time.Minute})
	ctx := context.Background()

	_, err := tr.Submit(ctx, "Physics", "Optics", "x", "")
	require.NoError(t, err)

	tr.now = func() time.Time { return morning.Add(119 * time.Second) }
	assert.Empty(t, tr.sweep(ctx))

	tr.now = func() time.Time { return morning.Add(2 * time.Minute) }
	stale := tr.sweep(ctx)
	require.Len(t, stale, 1)

	status, err := tr.Status("Physics", "Optics")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusInactive, status.Status)
	require.NotNil(t, status.EndTime)
	assert.Contains(t, pub.types(), events.LectureSessionInactive)

	res, err := tr.Submit(ctx, "Physics", "Optics", "back again", "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.ChunkNumber)

	status, err = tr.Status("Physics", "Optics")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusActive, status.Status)
	assert.Nil(t, status.EndTime)
}

func TestSweepCountsPersistenceAsActivity(t *testing.T) {
	tr := newTestTracker(&fakePipeline{}, nil, Config{UpdateInterval: time.Minute})
	ctx := context.Background()

	_, err := tr.Submit(ctx, "Physics", "Optics", "x", "")
	require.NoError(t, err)

	tr.now = func() time.Time { return morning.Add(time.Minute) }
	drainAll(t, tr)

	tr.now = func() time.Time { return morning.Add(2 * time.Minute) }
	assert.Empty(t, tr.sweep(ctx))
}

func TestFailedChunksAreLoggedAndDrainContinues(t *testing.T) {
	p := &fakePipeline{
		failOn:  map[int]error{2: errors.New("vector store unavailable")},
		panicOn: map[int]bool{3: true},
	}
	tr := newTestTracker(p, nil, Config{})
	ctx := context.Background()

	var key entity.SessionKey
	for i := 0; i < 4; i++ {
		res, err := tr.Submit(ctx, "Physics", "Optics", "x", "")
		require.NoError(t, err)
		key = res.SessionKey
	}
	drainAll(t, tr)

	assert.Equal(t, 2, p.persistedCount())

	entries, err := tr.ErrorLog(key)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].ChunkNumber)
	assert.Equal(t, "vector store unavailable", entries[0].Message)
	assert.Equal(t, 3, entries[1].ChunkNumber)
	assert.Contains(t, entries[1].Message, "panicked")

	stats, err := tr.Stats(key)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ErrorCount)
	assert.Equal(t, 0, stats.PendingChunks)
	assert.Equal(t, 4, stats.BackupSize)
	require.NotNil(t, stats.Session.LastProcessed)

	cleared, err := tr.ClearErrorLog(key)
	require.NoError(t, err)
	assert.Equal(t, 2, cleared)

	entries, err = tr.ErrorLog(key)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	tr := newTestTracker(&fakePipeline{}, nil, Config{UpdateInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.NoError(t, tr.Run(ctx))
}
