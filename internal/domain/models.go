package domain

import (
	"strings"
	"time"
)

// OptionKey identifies one of the fixed answer slots of a question.
type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
)

// OptionKeys lists the allowed option keys in display order.
var OptionKeys = []OptionKey{OptionA, OptionB, OptionC, OptionD}

// ParseOptionKey normalizes raw input ("b", " C ") into an OptionKey.
func ParseOptionKey(raw string) (OptionKey, bool) {
	key := OptionKey(strings.ToUpper(strings.TrimSpace(raw)))
	for _, k := range OptionKeys {
		if k == key {
			return key, true
		}
	}
	return "", false
}

// Question models a multiple-choice question with a single correct option.
type Question struct {
	ID            string               `json:"id" yaml:"id"`
	Prompt        string               `json:"prompt" yaml:"prompt"`
	Options       map[OptionKey]string `json:"options" yaml:"options"`
	CorrectAnswer OptionKey            `json:"answer,omitempty" yaml:"answer"`
}

// Valid reports whether the question can be served: non-empty id and prompt,
// and a correct answer that names one of its options.
func (q Question) Valid() bool {
	if strings.TrimSpace(q.ID) == "" || strings.TrimSpace(q.Prompt) == "" {
		return false
	}
	return q.HasOption(q.CorrectAnswer)
}

// HasOption reports whether key is part of the question's option set.
func (q Question) HasOption(key OptionKey) bool {
	_, ok := q.Options[key]
	return ok
}

// Public returns a copy safe to send to players, without the answer key.
func (q Question) Public() Question {
	out := q
	out.CorrectAnswer = ""
	out.Options = make(map[OptionKey]string, len(q.Options))
	for k, v := range q.Options {
		out.Options[k] = v
	}
	return out
}

// ScoringRules carries the configurable scoring constants.
type ScoringRules struct {
	PointsPerQuestion int `json:"pointsPerQuestion"`
	PassThreshold     int `json:"passThreshold"`
}

// DefaultScoringRules awards 100 points per correct answer and passes at 3 correct.
func DefaultScoringRules() ScoringRules {
	return ScoringRules{PointsPerQuestion: 100, PassThreshold: 3}
}

// Normalize fills zero values with defaults.
func (r ScoringRules) Normalize() ScoringRules {
	def := DefaultScoringRules()
	if r.PointsPerQuestion <= 0 {
		r.PointsPerQuestion = def.PointsPerQuestion
	}
	if r.PassThreshold < 0 {
		r.PassThreshold = def.PassThreshold
	}
	return r
}

// Passed reports whether score reaches the pass threshold in correct answers.
func (r ScoringRules) Passed(score int) bool {
	return score/r.PointsPerQuestion >= r.PassThreshold
}

// AnswerReview is one line of the post-game answer review.
type AnswerReview struct {
	QuestionID    string    `json:"questionId"`
	Prompt        string    `json:"prompt"`
	Chosen        OptionKey `json:"chosen"`
	CorrectAnswer OptionKey `json:"correctAnswer"`
	Correct       bool      `json:"correct"`
}

// AttemptSummary is the immutable outcome of one completed quiz session.
type AttemptSummary struct {
	UserID         string               `json:"userId"`
	Score          int                  `json:"score"`
	TotalQuestions int                  `json:"totalQuestions"`
	Passed         bool                 `json:"passed"`
	Answers        map[string]OptionKey `json:"answers"`
	Review         []AnswerReview       `json:"review,omitempty"`
	CompletedAt    time.Time            `json:"completedAt"`
}

// UserRecord is the persisted per-player progress row.
type UserRecord struct {
	UserID          string    `json:"userId"`
	PlayCount       int       `json:"playCount"`
	CumulativeScore int       `json:"cumulativeScore"`
	MaxScore        int       `json:"maxScore"`
	FirstPassScore  *int      `json:"firstPassScore,omitempty"`
	AttemptsToPass  *int      `json:"attemptsToPass,omitempty"`
	LastPlayedAt    time.Time `json:"lastPlayedAt"`
	// Version increases by one per successful upsert; repositories use it for conditional writes.
	Version int64 `json:"version"`
}

// HasPassed reports whether the first-pass latch has fired.
func (r UserRecord) HasPassed() bool {
	return r.FirstPassScore != nil
}
