package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pixel-quiz-service/internal/config"
	"pixel-quiz-service/internal/domain"
	redisinfra "pixel-quiz-service/internal/infra/redis"
	"pixel-quiz-service/internal/infra/sheet"
)

// NewImportQuestionsCmd loads a question sheet into the SQL store.
func NewImportQuestionsCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import-questions",
		Short: "Import a CSV or YAML question sheet into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := importQuestions(cmd.Context(), *configPath, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "question sheet (.csv, .yaml)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func importQuestions(ctx context.Context, configPath, file string) (int, error) {
	cfg, log, err := loadConfigAndLogger(configPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = log.Sync() }()

	questions, err := sheet.ReadFile(file)
	if err != nil {
		return 0, err
	}
	valid := filterValid(questions)
	if skipped := len(questions) - len(valid); skipped > 0 {
		log.Warn("skipping invalid sheet rows", zap.Int("skipped", skipped))
	}
	if len(valid) == 0 {
		return 0, domain.ErrNoQuestionsAvailable
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return 0, err
	}
	defer b.Close()
	if b.sink == nil {
		return 0, errors.New("import-questions needs storage.driver postgres, sqlite or mysql")
	}
	if err := b.sink.SaveQuestions(ctx, valid); err != nil {
		return 0, err
	}

	if b.redis != nil {
		bank := redisinfra.NewQuestionBank(b.redis, b.sink, redisCacheTTL(cfg, config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)))
		if err := bank.Invalidate(ctx); err != nil {
			log.Warn("question cache not invalidated", zap.Error(err))
		}
	}
	return len(valid), nil
}

func filterValid(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.Valid() {
			out = append(out, q)
		}
	}
	return out
}
