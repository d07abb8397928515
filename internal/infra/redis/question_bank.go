package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"pixel-quiz-service/internal/app"
	"pixel-quiz-service/internal/domain"
	"pixel-quiz-service/internal/infra/memory"
)

// QuestionBank caches the question pool in Redis and falls back to a loader on cache miss.
// Questions are stored as: HSET quiz:questions {questionID} {question JSON}
type QuestionBank struct {
	client  *redis.Client
	loader  memory.QuestionLoader
	ttl     time.Duration
	sf      singleflight.Group
	sampler *app.Sampler
}

func NewQuestionBank(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client:  client,
		loader:  loader,
		ttl:     ttl,
		sampler: app.NewSampler(time.Now().UnixNano()),
	}
}

// Request returns up to count randomly chosen valid questions.
func (b *QuestionBank) Request(ctx context.Context, count int) ([]domain.Question, error) {
	pool, err := b.pool(ctx)
	if err != nil {
		return nil, err
	}
	return b.sampler.Sample(pool, count)
}

func (b *QuestionBank) pool(ctx context.Context) ([]domain.Question, error) {
	if cached, err := b.client.HGetAll(ctx, questionsKey).Result(); err == nil && len(cached) > 0 {
		return decodePool(cached)
	}

	result, err, _ := b.sf.Do(questionsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cached, err := b.client.HGetAll(ctx, questionsKey).Result(); err == nil && len(cached) > 0 {
			return decodePool(cached)
		}

		pool, err := b.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return pool, nil
		}

		fields := make(map[string]interface{}, len(pool))
		for _, q := range pool {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
			}
			fields[q.ID] = raw
		}

		ttl := b.sampler.Jitter(b.ttl)
		pipe := b.client.TxPipeline()
		pipe.Del(ctx, questionsKey)
		pipe.HSet(ctx, questionsKey, fields)
		if ttl > 0 {
			pipe.Expire(ctx, questionsKey, ttl)
		}
		// cache fill is best effort; the loaded pool is served either way
		_, _ = pipe.Exec(ctx)

		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached pool so the next request reloads it.
func (b *QuestionBank) Invalidate(ctx context.Context) error {
	return b.client.Del(ctx, questionsKey).Err()
}

const questionsKey = "quiz:questions"

func decodePool(cached map[string]string) ([]domain.Question, error) {
	pool := make([]domain.Question, 0, len(cached))
	for id, raw := range cached {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("decode cached question %s: %w", id, err)
		}
		pool = append(pool, q)
	}
	return pool, nil
}
