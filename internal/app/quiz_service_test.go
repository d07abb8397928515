package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pixel-quiz-service/internal/app"
	"pixel-quiz-service/internal/domain"
	"pixel-quiz-service/internal/infra/memory"
)

func TestPlayThroughRecordsAttempt(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(memory.NewRecordRepository(), fiveQuestions())

	snap, err := service.StartSession(ctx, "alice", 5)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Total != 5 || snap.Question == nil || snap.Question.CorrectAnswer != "" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	var res app.AnswerResult
	for i := 0; i < 5; i++ {
		res, err = service.Answer(ctx, snap.ID, "a")
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
	if res.Summary == nil || res.Summary.Score != 500 || !res.Summary.Passed {
		t.Fatalf("unexpected summary: %+v", res.Summary)
	}
	if !res.Recorded || res.Record == nil || res.Record.PlayCount != 1 || *res.Record.FirstPassScore != 500 {
		t.Fatalf("expected recorded attempt, got %+v", res)
	}

	rec, err := service.Record(ctx, "alice")
	if err != nil || rec.MaxScore != 500 {
		t.Fatalf("record lookup: %+v %v", rec, err)
	}

	view, err := service.Session(ctx, snap.ID)
	if err != nil || view.State != app.StateCompleted || view.Summary == nil {
		t.Fatalf("expected completed session view, got %+v %v", view, err)
	}
	if _, err := service.Answer(ctx, snap.ID, "A"); !errors.Is(err, domain.ErrSessionCompleted) {
		t.Fatalf("expected completed error, got %v", err)
	}
}

func TestPersistenceFailureKeepsSummary(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(&brokenRepo{err: errors.New("io timeout")}, fiveQuestions()[:1])

	snap, err := service.StartSession(ctx, "dave", 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := service.Answer(ctx, snap.ID, "A")
	if err != nil {
		t.Fatalf("answer must not fail on persistence error: %v", err)
	}
	if res.Recorded || res.Record != nil {
		t.Fatalf("expected unrecorded attempt, got %+v", res)
	}
	if res.Summary == nil || res.Summary.Score != 100 {
		t.Fatalf("summary lost: %+v", res.Summary)
	}
}

func TestStartSessionPropagatesNoQuestions(t *testing.T) {
	service, _ := newTestService(memory.NewRecordRepository(), nil)
	if _, err := service.StartSession(context.Background(), "alice", 5); !errors.Is(err, domain.ErrNoQuestionsAvailable) {
		t.Fatalf("expected ErrNoQuestionsAvailable, got %v", err)
	}
}

func TestStartSessionRequiresUser(t *testing.T) {
	service, _ := newTestService(memory.NewRecordRepository(), fiveQuestions())
	if _, err := service.StartSession(context.Background(), "  ", 5); !errors.Is(err, domain.ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
}

func TestAnswerUnknownSessionAndOption(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(memory.NewRecordRepository(), fiveQuestions())

	if _, err := service.Answer(ctx, "missing", "A"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	snap, _ := service.StartSession(ctx, "alice", 5)
	if _, err := service.Answer(ctx, snap.ID, "Z"); !errors.Is(err, domain.ErrInvalidAnswerInput) {
		t.Fatalf("expected ErrInvalidAnswerInput, got %v", err)
	}
	view, _ := service.Session(ctx, snap.ID)
	if view.Index != 0 || view.Score != 0 {
		t.Fatalf("rejected answer changed session: %+v", view)
	}
}

func TestAbandonDropsSessionWithoutRecord(t *testing.T) {
	ctx := context.Background()
	service, sessions := newTestService(memory.NewRecordRepository(), fiveQuestions())

	snap, _ := service.StartSession(ctx, "erin", 5)
	_, _ = service.Answer(ctx, snap.ID, "A")
	service.Abandon(ctx, snap.ID)

	if sessions.Len() != 0 {
		t.Fatalf("expected session dropped")
	}
	if _, err := service.Record(ctx, "erin"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("abandoned session must not persist, got %v", err)
	}
}

func TestQuestionsStripAnswersByDefault(t *testing.T) {
	service, _ := newTestService(memory.NewRecordRepository(), fiveQuestions())
	questions, err := service.Questions(context.Background(), 0)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected default count 5, got %d", len(questions))
	}
	for _, q := range questions {
		if q.CorrectAnswer != "" {
			t.Fatalf("answer key leaked for %s", q.ID)
		}
	}
}

func TestSubmitSummaryValidatesAndMerges(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(memory.NewRecordRepository(), fiveQuestions())

	summary, rec, err := service.SubmitSummary(ctx, domain.AttemptSummary{UserID: "frank", Score: 400, TotalQuestions: 5, Passed: false})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !summary.Passed || rec.FirstPassScore == nil || *rec.FirstPassScore != 400 {
		t.Fatalf("expected server-computed pass, got summary=%+v rec=%+v", summary, rec)
	}

	if _, _, err := service.SubmitSummary(ctx, domain.AttemptSummary{UserID: "frank", Score: 250, TotalQuestions: 5}); !errors.Is(err, domain.ErrInvalidSummary) {
		t.Fatalf("expected ErrInvalidSummary, got %v", err)
	}
}

func newTestService(repo app.RecordRepository, questions []domain.Question) (*app.QuizService, *memory.SessionStore) {
	sessions := memory.NewSessionStore(time.Hour)
	bank := memory.NewQuestionBank(memory.NewStaticQuestionLoader(questions), 5*time.Minute)
	results := app.NewResultStore(repo, nil)
	return app.NewQuizService(sessions, bank, results, app.Options{
		Rules:         domain.DefaultScoringRules(),
		QuestionCount: 5,
	}, nil, nil), sessions
}
