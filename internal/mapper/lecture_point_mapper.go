package mapper

import (
	"encoding/json"
	"fmt"

	"lecture-rag-be/internal/model"
	"lecture-rag-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type LecturePointMapper struct{}

func NewLecturePointMapper() *LecturePointMapper {
	return &LecturePointMapper{}
}

func (m *LecturePointMapper) ToModel(p vectorstore.Point) (*model.LecturePoint, error) {
	id, err := uuid.Parse(p.Id)
	if err != nil {
		return nil, fmt.Errorf("point id %q is not a uuid: %w", p.Id, err)
	}

	payload, err := json.Marshal(p.Payload.ToMap())
	if err != nil {
		return nil, err
	}

	return &model.LecturePoint{
		Id:             id,
		Document:       p.Payload.Text,
		EmbeddingValue: pgvector.NewVector(p.Vector),
		CourseTitle:    p.Payload.CourseTitle,
		LectureTitle:   p.Payload.LectureTitle,
		SegmentId:      p.Payload.SegmentId,
		SessionKey:     p.Payload.SessionKey,
		Timestamp:      p.Payload.Timestamp,
		Payload:        datatypes.JSON(payload),
	}, nil
}

func (m *LecturePointMapper) ToHit(e *model.LecturePoint, score float32) vectorstore.Hit {
	var raw map[string]any
	if len(e.Payload) > 0 {
		_ = json.Unmarshal(e.Payload, &raw)
	}

	payload := vectorstore.PayloadFromMap(raw)
	if payload.Text == "" {
		payload.Text = e.Document
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = e.Timestamp
	}
	payload.CourseTitle = e.CourseTitle
	payload.LectureTitle = e.LectureTitle
	payload.SegmentId = e.SegmentId
	payload.SessionKey = e.SessionKey

	return vectorstore.Hit{
		Id:      e.Id.String(),
		Score:   score,
		Payload: payload,
	}
}
