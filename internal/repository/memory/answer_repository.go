package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const DefaultAnswerTTL = 1 * time.Hour

// AnswerRepository remembers the grounded answers given during each session.
type AnswerRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewAnswerRepository(ttl time.Duration) *AnswerRepository {
	if ttl <= 0 {
		ttl = DefaultAnswerTTL
	}
	// purge expired sessions every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &AnswerRepository{
		cache: c,
	}
}

// Remember appends an answer unless the session already holds it. Each write
// refreshes the session's expiry.
func (r *AnswerRepository) Remember(sessionKey string, answer string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var answers []string
	if x, found := r.cache.Get(sessionKey); found {
		answers = x.([]string)
	}
	for _, a := range answers {
		if a == answer {
			return
		}
	}

	next := make([]string, len(answers), len(answers)+1)
	copy(next, answers)
	r.cache.Set(sessionKey, append(next, answer), cache.DefaultExpiration)
}

func (r *AnswerRepository) Recall(sessionKey string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(sessionKey); found {
		answers := x.([]string)
		out := make([]string, len(answers))
		copy(out, answers)
		return out
	}
	return nil
}

func (r *AnswerRepository) Forget(sessionKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(sessionKey)
}

func (r *AnswerRepository) Len() int {
	return r.cache.ItemCount()
}
