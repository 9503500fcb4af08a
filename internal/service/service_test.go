package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"lecture-rag-be/internal/dto"
	"lecture-rag-be/internal/entity"
	"lecture-rag-be/internal/pkg/logger"
	"lecture-rag-be/internal/repository/memory"
	"lecture-rag-be/pkg/apperror"
	"lecture-rag-be/pkg/embedding"
	"lecture-rag-be/pkg/ingest"
	"lecture-rag-be/pkg/llm"
	"lecture-rag-be/pkg/rag"
	"lecture-rag-be/pkg/tracker"
	memstore "lecture-rag-be/pkg/vectorstore/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct{}

func (stubEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return embedding.NewEmbeddingResponse([]float32{1, float32(len(text)%7) + 1}), nil
}

type stubChat struct{}

func (stubChat) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return "Light slows down in glass.", nil
}

func (stubChat) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return "Light slows down in glass.", nil
}

type harness struct {
	tracker *tracker.Tracker
	engine  *rag.Engine
	store   *memstore.Store
	lecture ILectureService
	rag     IRagService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewNopLogger()

	store := memstore.NewStore()
	engine := rag.NewEngine(stubEmbedder{}, stubChat{}, store, memory.NewAnswerRepository(time.Hour), log, rag.Config{})
	pipeline := ingest.NewPipeline(engine, nil, log)
	tr := tracker.NewTracker(pipeline, nil, log, tracker.Config{FinalizeTimeout: 5 * time.Second})

	return &harness{
		tracker: tr,
		engine:  engine,
		store:   store,
		lecture: NewLectureService(tr, engine),
		rag:     NewRagService(engine),
	}
}

func (h *harness) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.tracker.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestQueryRightAfterSubmitUsesRecentTier(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	submitted, err := h.lecture.Submit(ctx, &dto.SubmitChunkRequest{
		CourseTitle:  "Physics",
		LectureTitle: "Optics",
		Content:      "Refraction is the bending of light between media.",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, submitted.ChunkNumber)
	assert.Equal(t, "active", submitted.Status)

	res, err := h.rag.Query(ctx, &dto.QueryRequest{
		Question:     "What is refraction?",
		CourseTitle:  "Physics",
		LectureTitle: "Optics",
	})
	require.NoError(t, err)
	assert.True(t, res.FromRecent)
	assert.False(t, res.FromGPT)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "Refraction is the bending of light between media.", res.Sources[0].Text)
	assert.Equal(t, 0, h.store.Len())
}

func TestQueryWithoutContentIsUngrounded(t *testing.T) {
	h := newHarness(t)

	res, err := h.rag.Query(context.Background(), &dto.QueryRequest{
		Question:     "What is entropy?",
		CourseTitle:  "Thermodynamics",
		LectureTitle: "Week 1",
	})
	require.NoError(t, err)
	assert.True(t, res.FromGPT)
	assert.False(t, res.FromRecent)
	assert.NotNil(t, res.Sources)
	assert.Empty(t, res.Sources)
	assert.NotEmpty(t, res.Answer)
}

func TestFinalizeCleanupLifecycle(t *testing.T) {
	h := newHarness(t)
	h.run(t)
	ctx := context.Background()

	submitted, err := h.lecture.Submit(ctx, &dto.SubmitChunkRequest{
		CourseTitle:  "Physics",
		LectureTitle: "Optics",
		Content:      "Lenses focus light.",
	})
	require.NoError(t, err)

	_, err = h.rag.Query(ctx, &dto.QueryRequest{Question: "What do lenses do?", CourseTitle: "Physics", LectureTitle: "Optics"})
	require.NoError(t, err)

	stats, err := h.lecture.Stats(ctx, submitted.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"Light slows down in glass."}, stats.RememberedAnswers)

	cleanupErr := func() error {
		_, err := h.lecture.Cleanup(ctx, submitted.SessionKey)
		return err
	}
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(cleanupErr()))

	final, err := h.lecture.Finalize(ctx, &dto.LectureRequest{CourseTitle: "Physics", LectureTitle: "Optics"})
	require.NoError(t, err)
	assert.Equal(t, "completed", final.Status)
	assert.Equal(t, 1, final.TotalChunks)
	assert.Equal(t, submitted.SessionKey, final.SessionKey)
	assert.Equal(t, 1, h.store.Len())

	cleaned, err := h.lecture.Cleanup(ctx, submitted.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, "completed", cleaned.Snapshot.Status)
	assert.Empty(t, h.engine.Answers(submitted.SessionKey))

	err = cleanupErr()
	require.Error(t, err)
	assert.Equal(t, "session not found", err.(*apperror.Error).Message)

	_, err = h.lecture.Stats(ctx, submitted.SessionKey)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestSessionKeyParameterIsValidated(t *testing.T) {
	h := newHarness(t)

	_, err := h.lecture.Recover(context.Background(), "no-separators")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestRecoverAndErrorLogThroughService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var key string
	for i := 0; i < 3; i++ {
		res, err := h.lecture.Submit(ctx, &dto.SubmitChunkRequest{CourseTitle: "Physics", LectureTitle: "Optics", Content: "x"})
		require.NoError(t, err)
		key = res.SessionKey
	}

	recovered, err := h.lecture.Recover(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 3, recovered.RecoveredCount)

	health, err := h.lecture.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, health.QueueDepth)
	assert.Equal(t, 1, health.Sessions)

	log, err := h.lecture.ErrorLog(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, log.Errors)

	cleared, err := h.lecture.ClearErrorLog(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.Cleared)
}

func TestAddLectureThenCompleteLecture(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	text := strings.Repeat("lecture ", 65)
	require.Len(t, text, 520)

	added, err := h.rag.AddLecture(ctx, &dto.AddLectureRequest{CourseTitle: "History", LectureTitle: "Rome", Text: text})
	require.NoError(t, err)
	assert.Equal(t, 2, added.ChunksAdded)

	complete, err := h.rag.CompleteLecture(ctx, &dto.LectureRequest{CourseTitle: "History", LectureTitle: "Rome"})
	require.NoError(t, err)
	assert.Equal(t, 2, complete.LectureInfo.TotalChunks)
	require.Len(t, complete.Segments, 1)
	assert.Equal(t, rag.DefaultSegmentId, complete.Segments[0].Id)
	assert.Equal(t, 2, complete.Segments[0].ChunkCount)

	_, err = h.rag.CompleteLecture(ctx, &dto.LectureRequest{CourseTitle: "History", LectureTitle: "Carthage"})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestSessionsListing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.lecture.Submit(ctx, &dto.SubmitChunkRequest{CourseTitle: "Physics", LectureTitle: "Optics", Content: "x"})
	require.NoError(t, err)

	sessions, err := h.lecture.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, entity.NewSessionKey("Physics", "Optics", time.Now()).String(), sessions[0].SessionKey)
}
