package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"lecture-rag-be/internal/entity"
	"lecture-rag-be/internal/pkg/logger"
	"lecture-rag-be/pkg/apperror"
	"lecture-rag-be/pkg/chunker"
	"lecture-rag-be/pkg/embedding"
	"lecture-rag-be/pkg/llm"
	"lecture-rag-be/pkg/rag/prompt"
	"lecture-rag-be/pkg/rag/recent"
	"lecture-rag-be/pkg/vectorstore"

	"github.com/google/uuid"
)

const (
	DefaultLimit       = 3
	DefaultScrollLimit = 100

	UngroundedTemperature = 0.7
	GroundedTemperature   = 0.3

	DefaultSegmentId = "default"
)

// AnswerMemory keeps grounded answers per session key.
type AnswerMemory interface {
	Remember(sessionKey string, answer string)
	Recall(sessionKey string) []string
	Forget(sessionKey string)
}

type Config struct {
	ChunkSize      int
	RecentCapacity int
	DefaultLimit   int
	ScrollLimit    int
}

// Engine answers lecture questions from a recent in-memory tier backed by a vector store.
type Engine struct {
	embedder embedding.EmbeddingProvider
	chat     llm.LLMProvider
	store    vectorstore.Store
	answers  AnswerMemory
	logger   logger.ILogger
	recent   *recent.Cache
	chunker  *chunker.WordChunker
	cfg      Config
	now      func() time.Time
}

func NewEngine(
	embedder embedding.EmbeddingProvider,
	chat llm.LLMProvider,
	store vectorstore.Store,
	answers AnswerMemory,
	log logger.ILogger,
	cfg Config,
) *Engine {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.ScrollLimit <= 0 {
		cfg.ScrollLimit = DefaultScrollLimit
	}

	return &Engine{
		embedder: embedder,
		chat:     chat,
		store:    store,
		answers:  answers,
		logger:   log,
		recent:   recent.New(cfg.RecentCapacity),
		chunker:  chunker.NewWordChunker(cfg.ChunkSize),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Stage mirrors a freshly accepted chunk into the recent tier before it is persisted.
func (e *Engine) Stage(chunk entity.ChunkRecord) {
	e.recent.Add(entity.FragmentFromChunk(chunk))
}

// AddChunk embeds and stores one tracked chunk, returning the new point id.
func (e *Engine) AddChunk(ctx context.Context, chunk entity.ChunkRecord) (string, error) {
	const op = "rag.AddChunk"

	vector, err := e.embed(ctx, op, chunk.Content, embedding.TaskRetrievalDocument)
	if err != nil {
		return "", err
	}

	fragment := entity.FragmentFromChunk(chunk)
	fragment.PointId = uuid.NewString()

	point := vectorstore.Point{
		Id:      fragment.PointId,
		Vector:  vector,
		Payload: e.payloadOf(fragment),
	}
	if err := e.store.Upsert(ctx, []vectorstore.Point{point}); err != nil {
		return "", apperror.Store(op, err)
	}

	// A miss means newer chunks already evicted this one; the store still has it.
	e.recent.Attach(fragment.SessionKey, chunk.ChunkNumber, fragment.PointId)

	return fragment.PointId, nil
}

// Add chunks a whole lecture text, stores every piece tagged with its position,
// and mirrors the pieces into the recent tier. It returns the number of pieces.
func (e *Engine) Add(ctx context.Context, courseTitle, lectureTitle, text string) (int, error) {
	const op = "rag.Add"

	if err := requireFields(op, map[string]string{"course_title": courseTitle, "lecture_title": lectureTitle, "text": text}); err != nil {
		return 0, err
	}

	segments := e.chunker.Chunk(text)
	if len(segments) == 0 {
		return 0, apperror.Validation(op, "text contains no words")
	}

	now := e.now()
	fragments := make([]entity.Fragment, 0, len(segments))
	points := make([]vectorstore.Point, 0, len(segments))
	for _, segment := range segments {
		vector, err := e.embed(ctx, op, segment.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			return 0, err
		}

		position := segment.Position
		fragment := entity.Fragment{
			PointId:      uuid.NewString(),
			Text:         segment.Text,
			CourseTitle:  courseTitle,
			LectureTitle: lectureTitle,
			Timestamp:    now,
			Position:     &position,
		}
		fragments = append(fragments, fragment)
		points = append(points, vectorstore.Point{
			Id:      fragment.PointId,
			Vector:  vector,
			Payload: e.payloadOf(fragment),
		})
	}

	if err := e.store.Upsert(ctx, points); err != nil {
		return 0, apperror.Store(op, err)
	}

	for _, fragment := range fragments {
		e.recent.Add(fragment)
	}

	e.logger.Info("RAG", "Lecture added", map[string]interface{}{
		"course_title":  courseTitle,
		"lecture_title": lectureTitle,
		"chunks":        len(fragments),
	})

	return len(fragments), nil
}

func (e *Engine) Query(ctx context.Context, req QueryRequest) (*Answer, error) {
	const op = "rag.Query"

	if err := requireFields(op, map[string]string{"question": req.Question, "course_title": req.CourseTitle, "lecture_title": req.LectureTitle}); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	now := e.now()

	var fragments []entity.Fragment
	fromRecent := make(map[int]bool)
	seen := make(map[string]bool)

	if req.PreferRecent {
		for _, f := range e.recent.Snapshot() {
			if len(fragments) >= limit {
				break
			}
			if !e.matches(f, req, now) {
				continue
			}
			fromRecent[len(fragments)] = true
			markSeen(seen, f)
			fragments = append(fragments, f)
		}
	}

	if len(fragments) < limit {
		vector, err := e.embed(ctx, op, req.Question, embedding.TaskRetrievalQuery)
		if err != nil {
			return nil, err
		}

		filter := vectorstore.Filter{
			CourseTitle:  req.CourseTitle,
			LectureTitle: req.LectureTitle,
			SegmentId:    req.SegmentId,
		}
		// Recent entries may already be stored, so ask for a full page and skip them.
		hits, err := e.store.Search(ctx, vector, filter, limit)
		if err != nil {
			return nil, apperror.Store(op, err)
		}

		for _, hit := range hits {
			if len(fragments) >= limit {
				break
			}
			f := fragmentOf(hit)
			if !sameDay(f.Timestamp, now) || isSeen(seen, f) {
				continue
			}
			markSeen(seen, f)
			fragments = append(fragments, f)
		}
	}

	if len(fragments) == 0 {
		answer, err := e.complete(ctx, op, prompt.Ungrounded(req.Question), UngroundedTemperature)
		if err != nil {
			return nil, err
		}
		return &Answer{Answer: answer, Sources: []Source{}, FromGPT: true}, nil
	}

	sources := make([]Source, len(fragments))
	for i, f := range fragments {
		sources[i] = sourceOf(f, fromRecent[i])
	}
	sort.SliceStable(sources, func(i, j int) bool {
		if !sources[i].Timestamp.Equal(sources[j].Timestamp) {
			return sources[i].Timestamp.Before(sources[j].Timestamp)
		}
		return orderOf(sources[i]) < orderOf(sources[j])
	})

	contexts := make([]string, len(sources))
	anyRecent := false
	for i, s := range sources {
		contexts[i] = s.Text
		anyRecent = anyRecent || s.FromRecent
	}

	answer, err := e.complete(ctx, op, prompt.NewGroundedBuilder(req.Question, contexts).Build(), GroundedTemperature)
	if err != nil {
		return nil, err
	}

	if e.answers != nil {
		e.answers.Remember(entity.NewSessionKey(req.CourseTitle, req.LectureTitle, now).String(), answer)
	}

	return &Answer{
		Answer:     answer,
		Sources:    sources,
		FromGPT:    false,
		FromRecent: anyRecent,
	}, nil
}

func (e *Engine) CompleteLecture(ctx context.Context, courseTitle, lectureTitle string) (*CompleteLecture, error) {
	const op = "rag.CompleteLecture"

	if err := requireFields(op, map[string]string{"course_title": courseTitle, "lecture_title": lectureTitle}); err != nil {
		return nil, err
	}

	hits, err := e.store.Scroll(ctx, vectorstore.Filter{CourseTitle: courseTitle, LectureTitle: lectureTitle}, e.cfg.ScrollLimit)
	if err != nil {
		return nil, apperror.Store(op, err)
	}
	if len(hits) == 0 {
		return nil, apperror.Wrap(op, apperror.ErrLectureNotFound)
	}

	fragments := make([]entity.Fragment, len(hits))
	for i, hit := range hits {
		fragments[i] = fragmentOf(hit)
	}
	sort.SliceStable(fragments, func(i, j int) bool {
		if !fragments[i].Timestamp.Equal(fragments[j].Timestamp) {
			return fragments[i].Timestamp.Before(fragments[j].Timestamp)
		}
		return fragments[i].Order() < fragments[j].Order()
	})

	var segments []LectureSegment
	index := make(map[string]int)
	for _, f := range fragments {
		id := f.SegmentId
		if id == "" {
			id = DefaultSegmentId
		}
		i, ok := index[id]
		if !ok {
			i = len(segments)
			index[id] = i
			segments = append(segments, LectureSegment{Id: id, Timestamp: f.Timestamp})
		}
		segments[i].Content = append(segments[i].Content, f.Text)
		segments[i].ChunkCount++
	}

	var lines []string
	for _, s := range segments {
		lines = append(lines, fmt.Sprintf("\n--- Segment %s ---", s.Id))
		lines = append(lines, s.Content...)
	}

	return &CompleteLecture{
		Info: LectureInfo{
			CourseTitle:   courseTitle,
			LectureTitle:  lectureTitle,
			TotalSegments: len(segments),
			TotalChunks:   len(fragments),
		},
		CompleteContent: strings.Join(lines, "\n"),
		Segments:        segments,
	}, nil
}

// Answers lists the grounded answers remembered for a session key.
func (e *Engine) Answers(sessionKey string) []string {
	if e.answers == nil {
		return nil
	}
	return e.answers.Recall(sessionKey)
}

func (e *Engine) ForgetAnswers(sessionKey string) {
	if e.answers != nil {
		e.answers.Forget(sessionKey)
	}
}

func (e *Engine) RecentSize() int {
	return e.recent.Len()
}

func (e *Engine) embed(ctx context.Context, op, text, taskType string) ([]float32, error) {
	res, err := e.embedder.Generate(ctx, text, taskType)
	if err != nil {
		e.logger.Error("RAG", "Embedding failed", map[string]interface{}{"op": op, "error": err.Error()})
		return nil, apperror.Provider(op, err)
	}
	return res.Embedding.Values, nil
}

func (e *Engine) complete(ctx context.Context, op string, messages []llm.Message, temperature float64) (string, error) {
	answer, err := e.chat.Chat(ctx, messages, llm.WithTemperature(temperature))
	if err != nil {
		e.logger.Error("RAG", "Answer generation failed", map[string]interface{}{"op": op, "error": err.Error()})
		return "", apperror.Provider(op, err)
	}
	return answer, nil
}

func (e *Engine) matches(f entity.Fragment, req QueryRequest, now time.Time) bool {
	if f.CourseTitle != req.CourseTitle || f.LectureTitle != req.LectureTitle {
		return false
	}
	if req.SegmentId != "" && f.SegmentId != req.SegmentId {
		return false
	}
	return sameDay(f.Timestamp, now)
}

func (e *Engine) payloadOf(f entity.Fragment) vectorstore.Payload {
	return vectorstore.Payload{
		Text:         f.Text,
		CourseTitle:  f.CourseTitle,
		LectureTitle: f.LectureTitle,
		SegmentId:    f.SegmentId,
		SessionKey:   f.SessionKey,
		Timestamp:    f.Timestamp,
		ChunkNumber:  f.ChunkNumber,
		Position:     f.Position,
		IngestedAt:   e.now(),
	}
}

func fragmentOf(hit vectorstore.Hit) entity.Fragment {
	return entity.Fragment{
		PointId:      hit.Id,
		Text:         hit.Payload.Text,
		CourseTitle:  hit.Payload.CourseTitle,
		LectureTitle: hit.Payload.LectureTitle,
		SegmentId:    hit.Payload.SegmentId,
		SessionKey:   hit.Payload.SessionKey,
		Timestamp:    hit.Payload.Timestamp,
		ChunkNumber:  hit.Payload.ChunkNumber,
		Position:     hit.Payload.Position,
	}
}

func sourceOf(f entity.Fragment, fromRecent bool) Source {
	return Source{
		Text:         f.Text,
		CourseTitle:  f.CourseTitle,
		LectureTitle: f.LectureTitle,
		SegmentId:    f.SegmentId,
		Timestamp:    f.Timestamp,
		ChunkNumber:  f.ChunkNumber,
		Position:     f.Position,
		FromRecent:   fromRecent,
	}
}

func orderOf(s Source) int {
	return entity.Fragment{ChunkNumber: s.ChunkNumber, Position: s.Position}.Order()
}

// identities returns every key a fragment is known by. A tracked chunk replayed
// through recover gets a new point id but keeps its session key and number.
func identities(f entity.Fragment) []string {
	var keys []string
	if f.PointId != "" {
		keys = append(keys, "point:"+f.PointId)
	}
	if f.SessionKey != "" && f.ChunkNumber != nil {
		keys = append(keys, fmt.Sprintf("chunk:%s#%d", f.SessionKey, *f.ChunkNumber))
	}
	return keys
}

func markSeen(seen map[string]bool, f entity.Fragment) {
	for _, key := range identities(f) {
		seen[key] = true
	}
}

func isSeen(seen map[string]bool, f entity.Fragment) bool {
	for _, key := range identities(f) {
		if seen[key] {
			return true
		}
	}
	return false
}

func sameDay(t, ref time.Time) bool {
	if t.IsZero() {
		return false
	}
	return t.In(ref.Location()).Format(entity.DateLayout) == ref.Format(entity.DateLayout)
}

func requireFields(op string, fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.TrimSpace(fields[name]) == "" {
			return apperror.Validation(op, fmt.Sprintf("missing required field: %s", name))
		}
	}
	return nil
}
