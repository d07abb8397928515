package app

import (
	"fmt"
	"sync"
	"time"

	"pixel-quiz-service/internal/domain"
)

// SessionState is the lifecycle position of a quiz session.
type SessionState int

const (
	StateNotStarted SessionState = iota
	StateInProgress
	StateCompleted
)

func (s SessionState) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SessionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "not-started":
		*s = StateNotStarted
	case "in-progress":
		*s = StateInProgress
	case "completed":
		*s = StateCompleted
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}

// AnswerOutcome describes the effect of one accepted answer.
type AnswerOutcome struct {
	QuestionID    string                 `json:"questionId"`
	Chosen        domain.OptionKey       `json:"chosen"`
	Correct       bool                   `json:"correct"`
	CorrectAnswer domain.OptionKey       `json:"correctAnswer"`
	Awarded       int                    `json:"awarded"`
	Score         int                    `json:"score"`
	Next          *domain.Question       `json:"next,omitempty"`
	Summary       *domain.AttemptSummary `json:"summary,omitempty"`
}

// SessionSnapshot is a read-only view of a session for clients.
type SessionSnapshot struct {
	ID       string                 `json:"sessionId"`
	UserID   string                 `json:"userId"`
	State    SessionState           `json:"state"`
	Index    int                    `json:"index"`
	Total    int                    `json:"total"`
	Score    int                    `json:"score"`
	Question *domain.Question       `json:"question,omitempty"`
	Summary  *domain.AttemptSummary `json:"summary,omitempty"`
}

// Session steps one player through an ordered list of questions.
type Session struct {
	id        string
	userID    string
	rules     domain.ScoringRules
	createdAt time.Time
	now       func() time.Time

	mu        sync.RWMutex
	state     SessionState
	questions []domain.Question
	index     int
	score     int
	answers   map[string]domain.OptionKey
	summary   *domain.AttemptSummary
}

// NewSession creates a not-started session for userID.
func NewSession(id, userID string, rules domain.ScoringRules) *Session {
	return NewSessionWithClock(id, userID, rules, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id, userID string, rules domain.ScoringRules, now func() time.Time) *Session {
	return &Session{
		id:        id,
		userID:    userID,
		rules:     rules.Normalize(),
		createdAt: now(),
		now:       now,
		answers:   make(map[string]domain.OptionKey),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Start loads the questions and moves the session to in-progress.
func (s *Session) Start(questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return domain.ErrSessionStarted
	}
	if len(questions) == 0 {
		return domain.ErrNoQuestionsAvailable
	}
	s.questions = append([]domain.Question(nil), questions...)
	s.index = 0
	s.score = 0
	s.state = StateInProgress
	return nil
}

// Answer records the chosen option for the current question. Rejected answers
// leave score, index and answers untouched.
func (s *Session) Answer(key domain.OptionKey) (AnswerOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateNotStarted:
		return AnswerOutcome{}, fmt.Errorf("%w: %w", domain.ErrInvalidAnswerInput, domain.ErrSessionNotStarted)
	case StateCompleted:
		return AnswerOutcome{}, fmt.Errorf("%w: %w", domain.ErrInvalidAnswerInput, domain.ErrSessionCompleted)
	}

	current := s.questions[s.index]
	if !current.HasOption(key) {
		return AnswerOutcome{}, fmt.Errorf("%w: option %q not offered for question %s", domain.ErrInvalidAnswerInput, key, current.ID)
	}

	s.answers[current.ID] = key
	outcome := AnswerOutcome{
		QuestionID:    current.ID,
		Chosen:        key,
		CorrectAnswer: current.CorrectAnswer,
	}
	if key == current.CorrectAnswer {
		s.score += s.rules.PointsPerQuestion
		outcome.Correct = true
		outcome.Awarded = s.rules.PointsPerQuestion
	}
	outcome.Score = s.score

	if s.index+1 < len(s.questions) {
		s.index++
		next := s.questions[s.index].Public()
		outcome.Next = &next
		return outcome, nil
	}

	s.state = StateCompleted
	summary := s.buildSummaryLocked()
	s.summary = &summary
	outcome.Summary = copySummary(s.summary)
	return outcome, nil
}

// Summary returns the final attempt summary once the session is completed.
func (s *Session) Summary() (domain.AttemptSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return domain.AttemptSummary{}, false
	}
	return *copySummary(s.summary), true
}

// State reports the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns the client view of the session. The current question never
// carries its answer key.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := SessionSnapshot{
		ID:     s.id,
		UserID: s.userID,
		State:  s.state,
		Index:  s.index,
		Total:  len(s.questions),
		Score:  s.score,
	}
	switch s.state {
	case StateInProgress:
		q := s.questions[s.index].Public()
		snap.Question = &q
	case StateCompleted:
		snap.Index = len(s.questions)
		snap.Summary = copySummary(s.summary)
	}
	return snap
}

func (s *Session) buildSummaryLocked() domain.AttemptSummary {
	answers := make(map[string]domain.OptionKey, len(s.answers))
	review := make([]domain.AnswerReview, 0, len(s.questions))
	for _, q := range s.questions {
		chosen, ok := s.answers[q.ID]
		if ok {
			answers[q.ID] = chosen
		}
		review = append(review, domain.AnswerReview{
			QuestionID:    q.ID,
			Prompt:        q.Prompt,
			Chosen:        chosen,
			CorrectAnswer: q.CorrectAnswer,
			Correct:       ok && chosen == q.CorrectAnswer,
		})
	}
	return domain.AttemptSummary{
		UserID:         s.userID,
		Score:          s.score,
		TotalQuestions: len(s.questions),
		Passed:         s.rules.Passed(s.score),
		Answers:        answers,
		Review:         review,
		CompletedAt:    s.now(),
	}
}

func copySummary(in *domain.AttemptSummary) *domain.AttemptSummary {
	if in == nil {
		return nil
	}
	out := *in
	out.Answers = make(map[string]domain.OptionKey, len(in.Answers))
	for k, v := range in.Answers {
		out.Answers[k] = v
	}
	out.Review = append([]domain.AnswerReview(nil), in.Review...)
	return &out
}
