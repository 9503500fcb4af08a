package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lecture-rag-be/pkg/vectorstore"
)

type recorded struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeQdrant struct {
	mu       sync.Mutex
	requests []recorded
	exists   bool
}

func (f *fakeQdrant) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		f.mu.Lock()
		f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.RequestURI(), Body: body})
		exists := f.exists
		f.mu.Unlock()

		assert.Equal(t, "secret", r.Header.Get("api-key"))

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/lectures":
			if !exists {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"status":{"error":"Not found: Collection lectures doesn't exist!"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":"ok","result":{}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/lectures":
			f.mu.Lock()
			f.exists = true
			f.mu.Unlock()
			_, _ = w.Write([]byte(`{"status":"ok","result":true}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/lectures/points":
			_, _ = w.Write([]byte(`{"status":"ok","result":{"operation_id":1,"status":"completed"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/collections/lectures/points/search":
			_, _ = w.Write([]byte(`{"status":"ok","result":[
				{"id":"6f1c0e2a-8f4b-4c55-9a57-1c1f3c0c1a11","score":0.91,"payload":{"text":"light bends","course_title":"Physics","lecture_title":"Optics","timestamp":"2026-10-15T09:30:00Z","chunk_number":3}},
				{"id":42,"score":0.5,"payload":{"text":"older","course_title":"Physics","lecture_title":"Optics","timestamp":"2026-10-14T09:30:00Z"}}
			]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/collections/lectures/points/scroll":
			_, _ = w.Write([]byte(`{"status":"ok","result":{"points":[
				{"id":"a","payload":{"text":"first","course_title":"Physics","lecture_title":"Optics","timestamp":"2026-10-15T09:30:00Z","segment_id":"s1"}}
			],"next_page_offset":null}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":{"error":"unexpected request"}}`))
		}
	}
}

func newTestStore(t *testing.T, fake *fakeQdrant) *Store {
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	s, err := NewStore(Config{URL: srv.URL + "/", ApiKey: "secret", Collection: "lectures", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return s
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	fake := &fakeQdrant{}
	s := newTestStore(t, fake)

	require.NoError(t, s.EnsureCollection(context.Background(), 1536))
	require.Len(t, fake.requests, 2)
	assert.Equal(t, http.MethodPut, fake.requests[1].Method)

	vectors := fake.requests[1].Body["vectors"].(map[string]any)
	assert.Equal(t, float64(1536), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])

	require.NoError(t, s.EnsureCollection(context.Background(), 1536))
	assert.Len(t, fake.requests, 3, "existing collection is not recreated")
}

func TestUpsertSendsPayload(t *testing.T) {
	fake := &fakeQdrant{exists: true}
	s := newTestStore(t, fake)

	n := 2
	err := s.Upsert(context.Background(), []vectorstore.Point{{
		Id:     "6f1c0e2a-8f4b-4c55-9a57-1c1f3c0c1a11",
		Vector: []float32{0.1, 0.2},
		Payload: vectorstore.Payload{
			Text:         "light bends",
			CourseTitle:  "Physics",
			LectureTitle: "Optics",
			ChunkNumber:  &n,
			Timestamp:    time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
		},
	}})
	require.NoError(t, err)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "/collections/lectures/points?wait=true", fake.requests[0].Path)
	points := fake.requests[0].Body["points"].([]any)
	payload := points[0].(map[string]any)["payload"].(map[string]any)
	assert.Equal(t, "Physics", payload["course_title"])
	assert.Equal(t, float64(2), payload["chunk_number"])
}

func TestSearchSendsFilterAndDecodesHits(t *testing.T) {
	fake := &fakeQdrant{exists: true}
	s := newTestStore(t, fake)

	hits, err := s.Search(context.Background(), []float32{1, 0}, vectorstore.Filter{CourseTitle: "Physics", LectureTitle: "Optics"}, 3)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "6f1c0e2a-8f4b-4c55-9a57-1c1f3c0c1a11", hits[0].Id)
	assert.Equal(t, "42", hits[1].Id)
	assert.InDelta(t, 0.91, hits[0].Score, 1e-6)
	require.NotNil(t, hits[0].Payload.ChunkNumber)
	assert.Equal(t, 3, *hits[0].Payload.ChunkNumber)
	assert.Nil(t, hits[1].Payload.ChunkNumber)

	must := fake.requests[0].Body["filter"].(map[string]any)["must"].([]any)
	require.Len(t, must, 2)
	assert.Equal(t, "course_title", must[0].(map[string]any)["key"])
	assert.Equal(t, "lecture_title", must[1].(map[string]any)["key"])
}

func TestScrollDecodesPoints(t *testing.T) {
	fake := &fakeQdrant{exists: true}
	s := newTestStore(t, fake)

	hits, err := s.Scroll(context.Background(), vectorstore.Filter{CourseTitle: "Physics"}, 100)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "s1", hits[0].Payload.SegmentId)
	assert.Equal(t, float64(100), fake.requests[0].Body["limit"])
}

func TestHTTPErrorsSurface(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":{"error":"boom"}}`))
	}))
	defer srv.Close()

	s, err := NewStore(Config{URL: srv.URL, Collection: "lectures"})
	require.NoError(t, err)

	_, err = s.Search(context.Background(), []float32{1}, vectorstore.Filter{}, 1)
	require.Error(t, err)
	var httpErr *httpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)

	assert.Error(t, s.EnsureCollection(context.Background(), 8))
}
