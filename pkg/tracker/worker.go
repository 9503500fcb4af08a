package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lecture-rag-be/internal/entity"
	"lecture-rag-be/pkg/events"

	"golang.org/x/sync/errgroup"
)

// Run drives the drain worker and the staleness sweeper until ctx is done.
func (t *Tracker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return t.drain(gctx)
	})
	g.Go(func() error {
		return t.watch(gctx)
	})

	err := g.Wait()
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}

func (t *Tracker) drain(ctx context.Context) error {
	t.logger.Info("TRACKER", "Drain worker started", nil)
	for {
		chunk, err := t.queue.Pop(ctx)
		if err != nil {
			t.logger.Info("TRACKER", "Drain worker stopped", map[string]interface{}{"queued": t.queue.Len()})
			return err
		}
		t.process(ctx, chunk)
	}
}

func (t *Tracker) process(ctx context.Context, chunk entity.ChunkRecord) {
	defer t.queue.Done(chunk.SessionKey)

	err := t.persist(ctx, chunk)
	now := t.now()

	t.mu.Lock()
	st, ok := t.sessions[chunk.SessionKey]
	if ok {
		if err == nil {
			st.session.LastProcessed = &now
		} else {
			st.errors = append(st.errors, entity.SessionErrorEntry{
				Timestamp:   now,
				ChunkNumber: chunk.ChunkNumber,
				SegmentId:   chunk.SegmentId,
				Message:     err.Error(),
			})
		}
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Error("TRACKER", "Failed to persist chunk", map[string]interface{}{
			"session_key":  chunk.SessionKey.String(),
			"chunk_number": chunk.ChunkNumber,
			"segment_id":   chunk.SegmentId,
			"error":        err.Error(),
		})
	}
}

func (t *Tracker) persist(ctx context.Context, chunk entity.ChunkRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("persist panicked: %v", r)
		}
	}()

	pctx, cancel := context.WithTimeout(ctx, t.cfg.PersistTimeout)
	defer cancel()
	return t.pipeline.Persist(pctx, chunk)
}

func (t *Tracker) watch(ctx context.Context) error {
	ticker := time.NewTicker(t.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

// sweep marks active sessions idle for two update intervals as inactive.
func (t *Tracker) sweep(ctx context.Context) []entity.SessionKey {
	now := t.now()
	limit := 2 * t.cfg.UpdateInterval

	var stale []entity.SessionKey
	t.mu.Lock()
	for key, st := range t.sessions {
		if st.session.Status != entity.SessionStatusActive {
			continue
		}
		if now.Sub(st.session.LastActivity()) < limit {
			continue
		}
		end := now
		st.session.Status = entity.SessionStatusInactive
		st.session.EndTime = &end
		stale = append(stale, key)
	}
	t.mu.Unlock()

	for _, key := range stale {
		t.logger.Info("TRACKER", "Session marked inactive", map[string]interface{}{"session_key": key.String()})
		t.publish(ctx, events.LectureSessionInactive, key, nil)
	}
	return stale
}
