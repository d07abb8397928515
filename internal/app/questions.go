package app

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"pixel-quiz-service/internal/domain"
)

// ErrInvalidCount is returned when fewer than one question is requested.
var ErrInvalidCount = errors.New("question count must be positive")

// Sampler draws random question subsets. It is safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSampler(seed int64) *Sampler {
	return &Sampler{rnd: rand.New(rand.NewSource(seed))}
}

// Sample returns up to count valid questions from pool in random order,
// at most one per question id.
// It returns fewer than count when the pool is short and
// domain.ErrNoQuestionsAvailable when no question in the pool is valid.
func (s *Sampler) Sample(pool []domain.Question, count int) ([]domain.Question, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}

	valid := make([]domain.Question, 0, len(pool))
	seen := make(map[string]struct{}, len(pool))
	for _, q := range pool {
		if !q.Valid() {
			continue
		}
		// Answers are keyed by question id; the first row for an id wins.
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}

	s.mu.Lock()
	s.rnd.Shuffle(len(valid), func(i, j int) { valid[i], valid[j] = valid[j], valid[i] })
	s.mu.Unlock()

	if count < len(valid) {
		valid = valid[:count]
	}
	return valid, nil
}

// Jitter adds up to 10% to ttl so cached pools do not expire together.
func (s *Sampler) Jitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitterMax := int64(ttl) / 10
	s.mu.Lock()
	defer s.mu.Unlock()
	return ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
