package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"pixel-quiz-service/internal/domain"
)

func (s *Store) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, prompt, options_json, answer FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q      domain.Question
			raw    string
			answer string
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &raw, &answer); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of %s: %w", q.ID, err)
		}
		q.CorrectAnswer = domain.OptionKey(answer)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SaveQuestions replaces questions by id inside one transaction.
func (s *Store) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range questions {
		raw, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO questions (id, prompt, options_json, answer) VALUES (?, ?, ?, ?)`,
			q.ID, q.Prompt, string(raw), string(q.CorrectAnswer)); err != nil {
			return fmt.Errorf("save question %s: %w", q.ID, err)
		}
	}
	return tx.Commit()
}
