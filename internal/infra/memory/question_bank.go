package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pixel-quiz-service/internal/app"
	"pixel-quiz-service/internal/domain"
)

// QuestionLoader fetches the full question pool from a backing store (sheet file, SQL table).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionBank caches the question pool with TTL and samples from it.
type QuestionBank struct {
	loader  QuestionLoader
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	sampler *app.Sampler

	mu        sync.RWMutex
	pool      []domain.Question
	expiresAt time.Time
}

func NewQuestionBank(loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		sampler: app.NewSampler(time.Now().UnixNano()),
	}
}

// Request returns up to count randomly chosen valid questions.
func (b *QuestionBank) Request(ctx context.Context, count int) ([]domain.Question, error) {
	pool, err := b.loadPool(ctx)
	if err != nil {
		return nil, err
	}
	return b.sampler.Sample(pool, count)
}

func (b *QuestionBank) loadPool(ctx context.Context) ([]domain.Question, error) {
	now := b.clock()

	b.mu.RLock()
	if b.pool != nil && b.expiresAt.After(now) {
		pool := b.pool
		b.mu.RUnlock()
		return pool, nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do("pool", func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if b.pool != nil && b.expiresAt.After(now) {
			pool := b.pool
			b.mu.RUnlock()
			return pool, nil
		}
		b.mu.RUnlock()

		pool, err := b.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if pool == nil {
			pool = []domain.Question{}
		}

		b.mu.Lock()
		b.pool = pool
		b.expiresAt = now.Add(b.sampler.Jitter(b.ttl))
		b.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// StaticQuestionLoader is a simple loader backed by a slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return append([]domain.Question(nil), l.questions...), nil
}
