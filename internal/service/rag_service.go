package service

import (
	"context"

	"lecture-rag-be/internal/dto"
	"lecture-rag-be/pkg/rag"
)

type IRagService interface {
	AddLecture(ctx context.Context, req *dto.AddLectureRequest) (*dto.AddLectureResponse, error)
	Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
	CompleteLecture(ctx context.Context, req *dto.LectureRequest) (*dto.CompleteLectureResponse, error)
}

type ragService struct {
	engine *rag.Engine
}

func NewRagService(engine *rag.Engine) IRagService {
	return &ragService{
		engine: engine,
	}
}

func (s *ragService) AddLecture(ctx context.Context, req *dto.AddLectureRequest) (*dto.AddLectureResponse, error) {
	n, err := s.engine.Add(ctx, req.CourseTitle, req.LectureTitle, req.Text)
	if err != nil {
		return nil, err
	}

	return &dto.AddLectureResponse{
		CourseTitle:  req.CourseTitle,
		LectureTitle: req.LectureTitle,
		ChunksAdded:  n,
	}, nil
}

func (s *ragService) Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	preferRecent := true
	if req.PreferRecent != nil {
		preferRecent = *req.PreferRecent
	}

	answer, err := s.engine.Query(ctx, rag.QueryRequest{
		Question:     req.Question,
		CourseTitle:  req.CourseTitle,
		LectureTitle: req.LectureTitle,
		SegmentId:    req.SegmentId,
		PreferRecent: preferRecent,
		Limit:        req.Limit,
	})
	if err != nil {
		return nil, err
	}

	res := &dto.QueryResponse{
		Answer:     answer.Answer,
		Sources:    make([]dto.SourceResponse, 0, len(answer.Sources)),
		FromGPT:    answer.FromGPT,
		FromRecent: answer.FromRecent,
	}
	for _, src := range answer.Sources {
		res.Sources = append(res.Sources, dto.SourceResponse{
			Text:         src.Text,
			CourseTitle:  src.CourseTitle,
			LectureTitle: src.LectureTitle,
			SegmentId:    src.SegmentId,
			Timestamp:    src.Timestamp,
			ChunkNumber:  src.ChunkNumber,
			Position:     src.Position,
			FromRecent:   src.FromRecent,
		})
	}
	return res, nil
}

func (s *ragService) CompleteLecture(ctx context.Context, req *dto.LectureRequest) (*dto.CompleteLectureResponse, error) {
	lecture, err := s.engine.CompleteLecture(ctx, req.CourseTitle, req.LectureTitle)
	if err != nil {
		return nil, err
	}

	res := &dto.CompleteLectureResponse{
		LectureInfo: dto.LectureInfoResponse{
			CourseTitle:   lecture.Info.CourseTitle,
			LectureTitle:  lecture.Info.LectureTitle,
			TotalSegments: lecture.Info.TotalSegments,
			TotalChunks:   lecture.Info.TotalChunks,
		},
		CompleteContent: lecture.CompleteContent,
		Segments:        make([]dto.LectureSegmentResponse, 0, len(lecture.Segments)),
	}
	for _, seg := range lecture.Segments {
		res.Segments = append(res.Segments, dto.LectureSegmentResponse{
			Id:         seg.Id,
			Content:    seg.Content,
			Timestamp:  seg.Timestamp,
			ChunkCount: seg.ChunkCount,
		})
	}
	return res, nil
}
