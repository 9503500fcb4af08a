package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"lecture-rag-be/pkg/vectorstore"
)

// Store keeps points in process memory. Intended for development and tests.
type Store struct {
	mu        sync.RWMutex
	dimension int
	points    []vectorstore.Point
	index     map[string]int
}

var _ vectorstore.Store = &Store{}

func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension != 0 && s.dimension != dimension {
		return fmt.Errorf("collection exists with dimension %d, requested %d", s.dimension, dimension)
	}
	s.dimension = dimension
	return nil
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if p.Id == "" {
			return fmt.Errorf("point id is required")
		}
		if s.dimension != 0 && len(p.Vector) != s.dimension {
			return fmt.Errorf("point %s has dimension %d, collection expects %d", p.Id, len(p.Vector), s.dimension)
		}
	}

	for _, p := range points {
		stored := vectorstore.Point{
			Id:      p.Id,
			Vector:  append([]float32(nil), p.Vector...),
			Payload: p.Payload,
		}
		if i, ok := s.index[p.Id]; ok {
			s.points[i] = stored
			continue
		}
		s.index[p.Id] = len(s.points)
		s.points = append(s.points, stored)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, filter vectorstore.Filter, limit int) ([]vectorstore.Hit, error) {
	if limit < 1 {
		return nil, nil
	}

	s.mu.RLock()
	hits := make([]vectorstore.Hit, 0)
	for _, p := range s.points {
		if !filter.Matches(p.Payload) {
			continue
		}
		hits = append(hits, vectorstore.Hit{
			Id:      p.Id,
			Score:   vectorstore.Cosine(vector, p.Vector),
			Payload: p.Payload,
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *Store) Scroll(ctx context.Context, filter vectorstore.Filter, limit int) ([]vectorstore.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]vectorstore.Hit, 0)
	for _, p := range s.points {
		if limit > 0 && len(hits) >= limit {
			break
		}
		if filter.Matches(p.Payload) {
			hits = append(hits, vectorstore.Hit{Id: p.Id, Payload: p.Payload})
		}
	}
	return hits, nil
}

// Len reports the number of stored points.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}
