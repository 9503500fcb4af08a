package service

import (
	"context"

	"lecture-rag-be/internal/dto"
	"lecture-rag-be/internal/entity"
	"lecture-rag-be/pkg/apperror"
	"lecture-rag-be/pkg/tracker"
)

// RetrievalState is what the lecture service needs to know about the retrieval side.
type RetrievalState interface {
	Answers(sessionKey string) []string
	ForgetAnswers(sessionKey string)
	RecentSize() int
}

type ILectureService interface {
	Submit(ctx context.Context, req *dto.SubmitChunkRequest) (*dto.SubmitChunkResponse, error)
	Status(ctx context.Context, req *dto.LectureRequest) (*dto.SessionResponse, error)
	Finalize(ctx context.Context, req *dto.LectureRequest) (*dto.FinalizeResponse, error)
	Sessions(ctx context.Context) ([]dto.SessionResponse, error)
	Stats(ctx context.Context, sessionKey string) (*dto.SessionStatsResponse, error)
	Recover(ctx context.Context, sessionKey string) (*dto.RecoverResponse, error)
	Cleanup(ctx context.Context, sessionKey string) (*dto.CleanupResponse, error)
	ErrorLog(ctx context.Context, sessionKey string) (*dto.ErrorLogResponse, error)
	ClearErrorLog(ctx context.Context, sessionKey string) (*dto.ClearErrorLogResponse, error)
	Health(ctx context.Context) (*dto.HealthResponse, error)
}

type lectureService struct {
	tracker   *tracker.Tracker
	retrieval RetrievalState
}

func NewLectureService(tr *tracker.Tracker, retrieval RetrievalState) ILectureService {
	return &lectureService{
		tracker:   tr,
		retrieval: retrieval,
	}
}

func (s *lectureService) Submit(ctx context.Context, req *dto.SubmitChunkRequest) (*dto.SubmitChunkResponse, error) {
	res, err := s.tracker.Submit(ctx, req.CourseTitle, req.LectureTitle, req.Content, req.SegmentId)
	if err != nil {
		return nil, err
	}

	return &dto.SubmitChunkResponse{
		SessionKey:  res.SessionKey.String(),
		Status:      string(res.Status),
		SegmentId:   res.SegmentId,
		ChunkNumber: res.ChunkNumber,
	}, nil
}

func (s *lectureService) Status(ctx context.Context, req *dto.LectureRequest) (*dto.SessionResponse, error) {
	snapshot, err := s.tracker.Status(req.CourseTitle, req.LectureTitle)
	if err != nil {
		return nil, err
	}
	res := toSessionResponse(*snapshot)
	return &res, nil
}

func (s *lectureService) Finalize(ctx context.Context, req *dto.LectureRequest) (*dto.FinalizeResponse, error) {
	res, err := s.tracker.Finalize(ctx, req.CourseTitle, req.LectureTitle)
	if err != nil {
		return nil, err
	}

	return &dto.FinalizeResponse{
		SessionKey:  res.Key.String(),
		Status:      string(res.Status),
		TotalChunks: res.TotalChunks,
	}, nil
}

func (s *lectureService) Sessions(ctx context.Context) ([]dto.SessionResponse, error) {
	snapshots := s.tracker.Sessions()
	res := make([]dto.SessionResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		res = append(res, toSessionResponse(snapshot))
	}
	return res, nil
}

func (s *lectureService) Stats(ctx context.Context, sessionKey string) (*dto.SessionStatsResponse, error) {
	key, err := parseSessionKey("service.Stats", sessionKey)
	if err != nil {
		return nil, err
	}

	stats, err := s.tracker.Stats(key)
	if err != nil {
		return nil, err
	}

	answers := s.retrieval.Answers(key.String())
	if answers == nil {
		answers = []string{}
	}
	return &dto.SessionStatsResponse{
		Session:           toSessionResponse(stats.Session),
		BackupSize:        stats.BackupSize,
		PendingChunks:     stats.PendingChunks,
		ErrorCount:        stats.ErrorCount,
		RememberedAnswers: answers,
	}, nil
}

func (s *lectureService) Recover(ctx context.Context, sessionKey string) (*dto.RecoverResponse, error) {
	key, err := parseSessionKey("service.Recover", sessionKey)
	if err != nil {
		return nil, err
	}

	n, err := s.tracker.Recover(ctx, key)
	if err != nil {
		return nil, err
	}
	return &dto.RecoverResponse{SessionKey: key.String(), RecoveredCount: n}, nil
}

func (s *lectureService) Cleanup(ctx context.Context, sessionKey string) (*dto.CleanupResponse, error) {
	key, err := parseSessionKey("service.Cleanup", sessionKey)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.tracker.Cleanup(ctx, key)
	if err != nil {
		return nil, err
	}
	s.retrieval.ForgetAnswers(key.String())

	return &dto.CleanupResponse{
		SessionKey: key.String(),
		Snapshot:   toSessionResponse(*snapshot),
	}, nil
}

func (s *lectureService) ErrorLog(ctx context.Context, sessionKey string) (*dto.ErrorLogResponse, error) {
	key, err := parseSessionKey("service.ErrorLog", sessionKey)
	if err != nil {
		return nil, err
	}

	entries, err := s.tracker.ErrorLog(key)
	if err != nil {
		return nil, err
	}

	res := &dto.ErrorLogResponse{
		SessionKey: key.String(),
		Errors:     make([]dto.ErrorEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		res.Errors = append(res.Errors, dto.ErrorEntryResponse{
			Timestamp:   e.Timestamp,
			ChunkNumber: e.ChunkNumber,
			SegmentId:   e.SegmentId,
			Message:     e.Message,
		})
	}
	return res, nil
}

func (s *lectureService) ClearErrorLog(ctx context.Context, sessionKey string) (*dto.ClearErrorLogResponse, error) {
	key, err := parseSessionKey("service.ClearErrorLog", sessionKey)
	if err != nil {
		return nil, err
	}

	n, err := s.tracker.ClearErrorLog(key)
	if err != nil {
		return nil, err
	}
	return &dto.ClearErrorLogResponse{SessionKey: key.String(), Cleared: n}, nil
}

func (s *lectureService) Health(ctx context.Context) (*dto.HealthResponse, error) {
	return &dto.HealthResponse{
		Status:     "ok",
		QueueDepth: s.tracker.QueueDepth(),
		Sessions:   len(s.tracker.Sessions()),
		RecentSize: s.retrieval.RecentSize(),
	}, nil
}

func parseSessionKey(op, raw string) (entity.SessionKey, error) {
	key, err := entity.ParseSessionKey(raw)
	if err != nil {
		return entity.SessionKey{}, apperror.Validation(op, err.Error())
	}
	return key, nil
}

func toSessionResponse(s tracker.SessionSnapshot) dto.SessionResponse {
	return dto.SessionResponse{
		SessionKey:    s.Key.String(),
		CourseTitle:   s.Key.CourseTitle,
		LectureTitle:  s.Key.LectureTitle,
		Date:          s.Key.Date,
		Status:        string(s.Status),
		StartTime:     s.StartTime,
		LastUpdate:    s.LastUpdate,
		LastProcessed: s.LastProcessed,
		EndTime:       s.EndTime,
		TotalChunks:   s.TotalChunks,
	}
}
