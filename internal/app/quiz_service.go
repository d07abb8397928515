package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pixel-quiz-service/internal/domain"
	"pixel-quiz-service/internal/metrics"
)

// SessionRepository abstracts how live quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuestionProvider supplies randomly sampled questions.
type QuestionProvider interface {
	Request(ctx context.Context, count int) ([]domain.Question, error)
}

// Options carries the quiz configuration values.
type Options struct {
	Rules         domain.ScoringRules
	QuestionCount int
	RevealAnswers bool
}

// AnswerResult is an accepted answer plus, on the final question, the
// persistence outcome. Recorded is false when the attempt was scored but the
// record could not be written.
type AnswerResult struct {
	AnswerOutcome
	Recorded bool               `json:"recorded"`
	Record   *domain.UserRecord `json:"record,omitempty"`
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions  SessionRepository
	questions QuestionProvider
	results   *ResultStore
	opts      Options
	log       *zap.Logger
	metrics   *metrics.Metrics
	newID     func() string
}

func NewQuizService(sessions SessionRepository, questions QuestionProvider, results *ResultStore, opts Options, log *zap.Logger, m *metrics.Metrics) *QuizService {
	opts.Rules = opts.Rules.Normalize()
	if opts.QuestionCount <= 0 {
		opts.QuestionCount = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizService{
		sessions:  sessions,
		questions: questions,
		results:   results,
		opts:      opts,
		log:       log,
		metrics:   m,
		newID:     uuid.NewString,
	}
}

// Rules returns the scoring rules in effect.
func (s *QuizService) Rules() domain.ScoringRules {
	return s.opts.Rules
}

// StartSession fetches questions and opens a session for userID.
// Provider errors such as domain.ErrNoQuestionsAvailable are returned unchanged.
func (s *QuizService) StartSession(ctx context.Context, userID string, count int) (SessionSnapshot, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SessionSnapshot{}, domain.ErrInvalidUserID
	}
	if count <= 0 {
		count = s.opts.QuestionCount
	}

	questions, err := s.questions.Request(ctx, count)
	if err != nil {
		return SessionSnapshot{}, err
	}

	session := NewSession(s.newID(), userID, s.opts.Rules)
	if err := session.Start(questions); err != nil {
		return SessionSnapshot{}, err
	}
	s.sessions.Save(session)
	s.metrics.SessionStarted()
	s.log.Debug("session started",
		zap.String("session_id", session.ID()),
		zap.String("user_id", userID),
		zap.Int("questions", len(questions)))
	return session.Snapshot(), nil
}

// Session returns the current view of a session.
func (s *QuizService) Session(_ context.Context, sessionID string) (SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Answer submits an option for the current question of a session. When the
// answer completes the session the summary is merged into the user's record;
// a merge failure is logged and reported through Recorded=false only.
func (s *QuizService) Answer(ctx context.Context, sessionID, option string) (AnswerResult, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return AnswerResult{}, domain.ErrSessionNotFound
	}
	key, ok := domain.ParseOptionKey(option)
	if !ok {
		return AnswerResult{}, fmt.Errorf("%w: unknown option %q", domain.ErrInvalidAnswerInput, option)
	}

	outcome, err := session.Answer(key)
	if err != nil {
		return AnswerResult{}, err
	}
	s.metrics.Answer(outcome.Correct)

	result := AnswerResult{AnswerOutcome: outcome}
	if outcome.Summary == nil {
		return result, nil
	}

	s.metrics.AttemptCompleted(outcome.Summary.Passed)
	rec, err := s.results.Merge(ctx, *outcome.Summary)
	if err != nil {
		s.log.Warn("attempt scored but not recorded",
			zap.String("session_id", sessionID),
			zap.String("user_id", outcome.Summary.UserID),
			zap.Int("score", outcome.Summary.Score),
			zap.Error(err))
		return result, nil
	}
	result.Recorded = true
	result.Record = &rec
	return result, nil
}

// Abandon drops a session without persisting anything.
func (s *QuizService) Abandon(_ context.Context, sessionID string) {
	s.sessions.Delete(sessionID)
}

// Questions returns a random question set for client-driven play. Answer
// keys are stripped unless RevealAnswers is enabled.
func (s *QuizService) Questions(ctx context.Context, count int) ([]domain.Question, error) {
	if count <= 0 {
		count = s.opts.QuestionCount
	}
	questions, err := s.questions.Request(ctx, count)
	if err != nil {
		return nil, err
	}
	if s.opts.RevealAnswers {
		return questions, nil
	}
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		out[i] = q.Public()
	}
	return out, nil
}

// SubmitSummary merges a client-scored attempt. The summary is validated and
// its pass flag recomputed before merging; on persistence failure the
// validated summary is still returned alongside the error.
func (s *QuizService) SubmitSummary(ctx context.Context, summary domain.AttemptSummary) (domain.AttemptSummary, domain.UserRecord, error) {
	summary, err := domain.ValidateSummary(summary, s.opts.Rules)
	if err != nil {
		return summary, domain.UserRecord{}, err
	}
	s.metrics.AttemptCompleted(summary.Passed)

	rec, err := s.results.Merge(ctx, summary)
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			s.log.Warn("submitted attempt not recorded", zap.String("user_id", summary.UserID), zap.Error(err))
		}
		return summary, domain.UserRecord{}, err
	}
	return summary, rec, nil
}

// Record returns the persisted progress of userID.
func (s *QuizService) Record(ctx context.Context, userID string) (domain.UserRecord, error) {
	return s.results.Find(ctx, strings.TrimSpace(userID))
}
