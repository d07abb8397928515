package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"pixel-quiz-service/internal/domain"
)

func TestQuestionBankCaches(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticQuestionLoader(sampleQuestions())}
	bank := NewQuestionBank(loader, time.Minute)

	if _, err := bank.Request(context.Background(), 2); err != nil {
		t.Fatalf("request: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := bank.Request(context.Background(), 2); err != nil {
		t.Fatalf("request 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionBankReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticQuestionLoader(sampleQuestions())}
	bank := NewQuestionBank(loader, time.Minute)
	now := time.Now()
	bank.clock = func() time.Time { return now }

	_, _ = bank.Request(context.Background(), 1)
	now = now.Add(2 * time.Minute)
	_, _ = bank.Request(context.Background(), 1)
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestQuestionBankReturnsFewerWhenPoolIsShort(t *testing.T) {
	pool := append(sampleQuestions(),
		domain.Question{ID: "", Prompt: "no id", Options: map[domain.OptionKey]string{"A": "x"}, CorrectAnswer: "A"},
		domain.Question{ID: "blank", Prompt: "   ", Options: map[domain.OptionKey]string{"A": "x"}, CorrectAnswer: "A"},
	)
	bank := NewQuestionBank(NewStaticQuestionLoader(pool), time.Minute)

	got, err := bank.Request(context.Background(), 5)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected the 3 valid questions, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, q := range got {
		if !q.Valid() {
			t.Fatalf("invalid question served: %+v", q)
		}
		if seen[q.ID] {
			t.Fatalf("question %s served twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestQuestionBankNoValidQuestions(t *testing.T) {
	bank := NewQuestionBank(NewStaticQuestionLoader([]domain.Question{{ID: "1"}}), time.Minute)
	if _, err := bank.Request(context.Background(), 5); !errors.Is(err, domain.ErrNoQuestionsAvailable) {
		t.Fatalf("expected ErrNoQuestionsAvailable, got %v", err)
	}

	empty := NewQuestionBank(NewStaticQuestionLoader(nil), time.Minute)
	if _, err := empty.Request(context.Background(), 5); !errors.Is(err, domain.ErrNoQuestionsAvailable) {
		t.Fatalf("expected ErrNoQuestionsAvailable for empty pool, got %v", err)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            "1",
			Prompt:        "What is 2 + 2?",
			Options:       map[domain.OptionKey]string{"A": "3", "B": "4", "C": "5", "D": "22"},
			CorrectAnswer: "B",
		},
		{
			ID:            "2",
			Prompt:        "Which colour is the sky?",
			Options:       map[domain.OptionKey]string{"A": "Blue", "B": "Green"},
			CorrectAnswer: "A",
		},
		{
			ID:            "3",
			Prompt:        "Pixel art uses...",
			Options:       map[domain.OptionKey]string{"A": "Vectors", "B": "Curves", "C": "Pixels"},
			CorrectAnswer: "C",
		},
	}
}
