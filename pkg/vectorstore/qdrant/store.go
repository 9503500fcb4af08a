package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"lecture-rag-be/pkg/vectorstore"
)

type Config struct {
	URL        string
	ApiKey     string
	Collection string
	Distance   string
	Timeout    time.Duration
}

// Store is a REST client for a single Qdrant collection.
type Store struct {
	url        string
	apiKey     string
	collection string
	distance   string
	client     *http.Client
}

var _ vectorstore.Store = &Store{}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("qdrant http %d: %s", e.StatusCode, e.Body)
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" || cfg.Collection == "" {
		return nil, errors.New("missing url or collection for qdrant store")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	distance := cfg.Distance
	if distance == "" {
		distance = "Cosine"
	}

	return &Store{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.ApiKey,
		collection: cfg.Collection,
		distance:   distance,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}

	path := s.collectionPath("")

	var rsp qdrantEnvelope[json.RawMessage]
	err := s.do(ctx, http.MethodGet, path, nil, &rsp)
	if err == nil {
		return nil
	}

	var httpErr *httpError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		return err
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": s.distance,
		},
	}
	if err := s.do(ctx, http.MethodPut, path, req, &rsp); err != nil {
		return err
	}
	return rsp.Status.err()
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}

	body := make([]qdrantPoint, 0, len(points))
	for _, p := range points {
		body = append(body, qdrantPoint{
			Id:      p.Id,
			Vector:  p.Vector,
			Payload: p.Payload.ToMap(),
		})
	}

	var rsp qdrantEnvelope[json.RawMessage]
	if err := s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), map[string]any{"points": body}, &rsp); err != nil {
		return err
	}
	return rsp.Status.err()
}

func (s *Store) Search(ctx context.Context, vector []float32, filter vectorstore.Filter, limit int) ([]vectorstore.Hit, error) {
	if limit < 1 {
		return nil, nil
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := toQdrantFilter(filter); f != nil {
		req["filter"] = f
	}

	var rsp qdrantEnvelope[[]qdrantPointResult]
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &rsp); err != nil {
		return nil, err
	}
	if err := rsp.Status.err(); err != nil {
		return nil, err
	}

	return toHits(rsp.Result), nil
}

func (s *Store) Scroll(ctx context.Context, filter vectorstore.Filter, limit int) ([]vectorstore.Hit, error) {
	if limit < 1 {
		limit = 100
	}

	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if f := toQdrantFilter(filter); f != nil {
		req["filter"] = f
	}

	var rsp qdrantEnvelope[qdrantScrollResult]
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/scroll"), req, &rsp); err != nil {
		return nil, err
	}
	if err := rsp.Status.err(); err != nil {
		return nil, err
	}

	return toHits(rsp.Result.Points), nil
}

func (s *Store) collectionPath(suffix string) string {
	return fmt.Sprintf("/collections/%s%s", url.PathEscape(s.collection), suffix)
}

func (s *Store) do(ctx context.Context, method string, path string, req any, rsp any) error {
	u := s.url + path
	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	if len(s.apiKey) > 0 {
		request.Header.Set("api-key", s.apiKey)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return &httpError{StatusCode: response.StatusCode, Body: string(payload)}
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}

	return nil
}

func (s qdrantStatus) err() error {
	if s.State == "" || strings.EqualFold(s.State, "ok") || strings.EqualFold(s.State, "acknowledged") || strings.EqualFold(s.State, "completed") {
		return nil
	}
	if s.Error != "" {
		return errors.New(s.Error)
	}
	return fmt.Errorf("qdrant status %s", s.State)
}

func toQdrantFilter(filter vectorstore.Filter) *qdrantFilter {
	conditions := filter.Conditions()
	if len(conditions) == 0 {
		return nil
	}

	keys := make([]string, 0, len(conditions))
	for k := range conditions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := &qdrantFilter{}
	for _, k := range keys {
		f.Must = append(f.Must, qdrantCondition{
			Key:   k,
			Match: map[string]any{"value": conditions[k]},
		})
	}
	return f
}

func toHits(points []qdrantPointResult) []vectorstore.Hit {
	hits := make([]vectorstore.Hit, 0, len(points))
	for _, p := range points {
		hits = append(hits, vectorstore.Hit{
			Id:      string(p.Id),
			Score:   float32(p.Score),
			Payload: vectorstore.PayloadFromMap(p.Payload),
		})
	}
	return hits
}
