package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type LecturePoint struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector"`
	CourseTitle    string          `gorm:"type:text;not null;index:idx_lecture_points_lecture"`
	LectureTitle   string          `gorm:"type:text;not null;index:idx_lecture_points_lecture"`
	SegmentId      string          `gorm:"type:text;index"`
	SessionKey     string          `gorm:"type:text;index"`
	Timestamp      time.Time       `gorm:"not null"`
	Payload        datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (LecturePoint) TableName() string {
	return "lecture_points"
}
