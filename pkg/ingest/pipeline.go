package ingest

import (
	"context"
	"time"

	"lecture-rag-be/internal/entity"
	"lecture-rag-be/internal/pkg/logger"
	"lecture-rag-be/pkg/events"
)

// Indexer is the part of the retrieval engine the pipeline feeds.
type Indexer interface {
	Stage(chunk entity.ChunkRecord)
	AddChunk(ctx context.Context, chunk entity.ChunkRecord) (string, error)
}

// Pipeline carries tracked chunks into the retrieval engine and announces the outcome.
type Pipeline struct {
	indexer   Indexer
	publisher events.Publisher
	logger    logger.ILogger
	now       func() time.Time
}

func NewPipeline(indexer Indexer, publisher events.Publisher, log logger.ILogger) *Pipeline {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Pipeline{
		indexer:   indexer,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

func (p *Pipeline) Stage(chunk entity.ChunkRecord) {
	p.indexer.Stage(chunk)
}

func (p *Pipeline) Persist(ctx context.Context, chunk entity.ChunkRecord) error {
	data := map[string]interface{}{
		"chunk_number": chunk.ChunkNumber,
		"segment_id":   chunk.SegmentId,
	}

	pointId, err := p.indexer.AddChunk(ctx, chunk)
	if err != nil {
		data["error"] = err.Error()
		p.publish(ctx, events.LectureChunkFailed, chunk.SessionKey, data)
		return err
	}

	data["point_id"] = pointId
	p.logger.Debug("INGEST", "Chunk persisted", map[string]interface{}{
		"session_key":  chunk.SessionKey.String(),
		"chunk_number": chunk.ChunkNumber,
		"point_id":     pointId,
	})
	p.publish(ctx, events.LectureChunkPersisted, chunk.SessionKey, data)
	return nil
}

func (p *Pipeline) publish(ctx context.Context, eventType string, key entity.SessionKey, data map[string]interface{}) {
	event := events.NewLectureEvent(eventType, key.String(), data, p.now())
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("INGEST", "Failed to publish event", map[string]interface{}{
			"event":       eventType,
			"session_key": key.String(),
			"error":       err.Error(),
		})
	}
}
