package implementation

import (
	"context"
	"fmt"
	"sync"

	"lecture-rag-be/internal/mapper"
	"lecture-rag-be/internal/model"
	"lecture-rag-be/internal/repository/specification"
	"lecture-rag-be/pkg/vectorstore"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LecturePointRepositoryImpl stores lecture points in postgres with the pgvector extension.
type LecturePointRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LecturePointMapper

	mu        sync.RWMutex
	dimension int
}

var _ vectorstore.Store = &LecturePointRepositoryImpl{}

func NewLecturePointRepository(db *gorm.DB) *LecturePointRepositoryImpl {
	return &LecturePointRepositoryImpl{
		db:     db,
		mapper: mapper.NewLecturePointMapper(),
	}
}

func (r *LecturePointRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *LecturePointRepositoryImpl) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}

	db := r.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}
	if err := db.AutoMigrate(&model.LecturePoint{}); err != nil {
		return err
	}

	r.mu.Lock()
	r.dimension = dimension
	r.mu.Unlock()
	return nil
}

func (r *LecturePointRepositoryImpl) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}

	r.mu.RLock()
	dimension := r.dimension
	r.mu.RUnlock()

	models := make([]*model.LecturePoint, 0, len(points))
	for _, p := range points {
		if dimension != 0 && len(p.Vector) != dimension {
			return fmt.Errorf("point %s has dimension %d, collection expects %d", p.Id, len(p.Vector), dimension)
		}
		m, err := r.mapper.ToModel(p)
		if err != nil {
			return err
		}
		models = append(models, m)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(models).Error
}

func (r *LecturePointRepositoryImpl) Search(ctx context.Context, vector []float32, filter vectorstore.Filter, limit int) ([]vectorstore.Hit, error) {
	if limit < 1 {
		return nil, nil
	}

	type result struct {
		model.LecturePoint
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	query := r.db.WithContext(ctx).
		Table(model.LecturePoint{}.TableName()).
		Select("lecture_points.*, 1 - (embedding_value <=> ?) as similarity", queryVector)

	err := r.applySpecifications(query, specification.ByPayload{Filter: filter}).
		Order(gorm.Expr("embedding_value <=> ?", queryVector)).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	hits := make([]vectorstore.Hit, len(results))
	for i := range results {
		hits[i] = r.mapper.ToHit(&results[i].LecturePoint, float32(results[i].Similarity))
	}
	return hits, nil
}

func (r *LecturePointRepositoryImpl) Scroll(ctx context.Context, filter vectorstore.Filter, limit int) ([]vectorstore.Hit, error) {
	if limit < 1 {
		limit = 100
	}

	var models []*model.LecturePoint
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByPayload{Filter: filter},
		specification.OrderBy{Field: "created_at"},
		specification.Pagination{Limit: limit},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	hits := make([]vectorstore.Hit, len(models))
	for i, m := range models {
		hits[i] = r.mapper.ToHit(m, 0)
	}
	return hits, nil
}
