package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pixel-quiz-service/internal/app"
	"pixel-quiz-service/internal/config"
	"pixel-quiz-service/internal/domain"
	"pixel-quiz-service/internal/infra/memory"
	"pixel-quiz-service/internal/infra/mysql"
	"pixel-quiz-service/internal/infra/postgres"
	redisinfra "pixel-quiz-service/internal/infra/redis"
	"pixel-quiz-service/internal/infra/sheet"
	"pixel-quiz-service/internal/infra/sqlite"
)

// questionSink is implemented by stores that can hold the question pool.
type questionSink interface {
	memory.QuestionLoader
	SaveQuestions(ctx context.Context, questions []domain.Question) error
}

// backend is the storage selected by storage.driver plus the optional Redis client.
type backend struct {
	driver  string
	records app.RecordRepository
	sink    questionSink
	redis   *redis.Client
	closers []func()
}

func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (*backend, error) {
	b := &backend{driver: cfg.Storage.Driver}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = b.redis.Close() })
	}

	switch cfg.Storage.Driver {
	case "", config.DriverMemory:
		b.records = memory.NewRecordRepository()
	case config.DriverRedis:
		if b.redis == nil {
			b.Close()
			return nil, errors.New("storage driver redis requires redis.addr")
		}
		b.records = redisinfra.NewRecordRepository(b.redis)
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			b.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.records = postgres.NewRecordRepository(pool)
		b.sink = postgres.NewQuestionStore(pool)
	case config.DriverSQLite:
		store, err := sqlite.NewStore(cfg.SQLite.Path)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		b.records = store
		b.sink = store
	case config.DriverMySQL:
		store, err := mysql.Open(cfg.MySQL.DSN)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		b.records = store
		b.sink = store
	default:
		b.Close()
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	log.Info("storage ready", zap.String("driver", b.driver), zap.Bool("redis", b.redis != nil))
	return b, nil
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// questionLoader picks the question source: a sheet file, then the SQL
// store, then the built-in sample set.
func (b *backend) questionLoader(cfg config.Config) memory.QuestionLoader {
	if cfg.Questions.File != "" {
		return sheet.NewFileLoader(cfg.Questions.File)
	}
	if b.sink != nil {
		return b.sink
	}
	return memory.NewStaticQuestionLoader(sampleQuestions())
}

func (b *backend) questionProvider(cfg config.Config) app.QuestionProvider {
	ttl := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	loader := b.questionLoader(cfg)
	if b.redis != nil {
		return redisinfra.NewQuestionBank(b.redis, loader, redisCacheTTL(cfg, ttl))
	}
	return memory.NewQuestionBank(loader, ttl)
}

// redisCacheTTL is the expiry of the Redis question hash; questions.ttl
// applies when redis.ttl is unset.
func redisCacheTTL(cfg config.Config, fallback time.Duration) time.Duration {
	return config.TTLDuration(cfg.Redis.TTL, fallback)
}

func (b *backend) sessionStore(cfg config.Config) app.SessionRepository {
	ttl := config.TTLDuration(cfg.Quiz.SessionTTL, 30*time.Minute)
	if b.redis != nil {
		return redisinfra.NewSessionStore(b.redis, ttl)
	}
	return memory.NewSessionStore(ttl)
}

func scoringRules(cfg config.Config) domain.ScoringRules {
	return domain.ScoringRules{
		PointsPerQuestion: cfg.Quiz.PointsPerQuestion,
		PassThreshold:     cfg.Quiz.PassThreshold,
	}.Normalize()
}

// sampleQuestions is served when neither a sheet file nor a SQL store is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     "1",
			Prompt: "How many colours could the original NES show on screen at once?",
			Options: map[domain.OptionKey]string{
				domain.OptionA: "25",
				domain.OptionB: "64",
				domain.OptionC: "256",
				domain.OptionD: "16",
			},
			CorrectAnswer: domain.OptionA,
		},
		{
			ID:     "2",
			Prompt: "What does the word pixel abbreviate?",
			Options: map[domain.OptionKey]string{
				domain.OptionA: "Pixelated element",
				domain.OptionB: "Picture element",
				domain.OptionC: "Pigment cell",
				domain.OptionD: "Pixel cell",
			},
			CorrectAnswer: domain.OptionB,
		},
		{
			ID:     "3",
			Prompt: "Which resolution did the Game Boy screen use?",
			Options: map[domain.OptionKey]string{
				domain.OptionA: "256x224",
				domain.OptionB: "320x200",
				domain.OptionC: "160x144",
				domain.OptionD: "240x160",
			},
			CorrectAnswer: domain.OptionC,
		},
		{
			ID:     "4",
			Prompt: "Dithering is used to...",
			Options: map[domain.OptionKey]string{
				domain.OptionA: "compress sprites",
				domain.OptionB: "speed up rendering",
				domain.OptionC: "animate tiles",
				domain.OptionD: "fake extra colours with patterns",
			},
			CorrectAnswer: domain.OptionD,
		},
		{
			ID:     "5",
			Prompt: "A sprite sheet stores...",
			Options: map[domain.OptionKey]string{
				domain.OptionA: "many frames in one image",
				domain.OptionB: "sound effects",
				domain.OptionC: "level layouts",
				domain.OptionD: "palette swaps only",
			},
			CorrectAnswer: domain.OptionA,
		},
		{
			ID:     "6",
			Prompt: "Which tool is classic for pixel art?",
			Options: map[domain.OptionKey]string{
				domain.OptionA: "Blender",
				domain.OptionB: "Aseprite",
			},
			CorrectAnswer: domain.OptionB,
		},
	}
}
