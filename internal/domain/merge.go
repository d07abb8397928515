package domain

import (
	"fmt"
	"strings"
	"time"
)

// MergeAttempt folds an attempt summary into the player's record.
// existing is nil for a player's first attempt. The returned record carries
// Version = previous version + 1.
//
// maxScore only grows, cumulativeScore sums every attempt, and the
// first-pass fields latch on the first passing attempt and never change again.
func MergeAttempt(existing *UserRecord, summary AttemptSummary, now time.Time) UserRecord {
	if existing == nil {
		rec := UserRecord{
			UserID:          summary.UserID,
			PlayCount:       1,
			CumulativeScore: summary.Score,
			MaxScore:        summary.Score,
			LastPlayedAt:    now,
			Version:         1,
		}
		if summary.Passed {
			rec.FirstPassScore = intPtr(summary.Score)
			rec.AttemptsToPass = intPtr(1)
		}
		return rec
	}

	rec := *existing
	rec.PlayCount++
	rec.CumulativeScore += summary.Score
	if summary.Score > rec.MaxScore {
		rec.MaxScore = summary.Score
	}
	if rec.FirstPassScore == nil && summary.Passed {
		rec.FirstPassScore = intPtr(summary.Score)
		rec.AttemptsToPass = intPtr(rec.PlayCount)
	} else {
		rec.FirstPassScore = copyIntPtr(existing.FirstPassScore)
		rec.AttemptsToPass = copyIntPtr(existing.AttemptsToPass)
	}
	rec.LastPlayedAt = now
	rec.Version = existing.Version + 1
	return rec
}

// ValidateSummary checks that a client-submitted summary is consistent with
// the scoring rules and returns it with Passed recomputed from the threshold.
func ValidateSummary(summary AttemptSummary, rules ScoringRules) (AttemptSummary, error) {
	summary.UserID = strings.TrimSpace(summary.UserID)
	if summary.UserID == "" {
		return summary, ErrInvalidUserID
	}
	if summary.TotalQuestions <= 0 {
		return summary, fmt.Errorf("%w: totalQuestions must be positive", ErrInvalidSummary)
	}
	if summary.Score < 0 || summary.Score%rules.PointsPerQuestion != 0 {
		return summary, fmt.Errorf("%w: score %d is not a multiple of %d", ErrInvalidSummary, summary.Score, rules.PointsPerQuestion)
	}
	if summary.Score > summary.TotalQuestions*rules.PointsPerQuestion {
		return summary, fmt.Errorf("%w: score %d exceeds %d questions", ErrInvalidSummary, summary.Score, summary.TotalQuestions)
	}
	for questionID, key := range summary.Answers {
		if _, ok := ParseOptionKey(string(key)); !ok {
			return summary, fmt.Errorf("%w: unknown option %q for question %s", ErrInvalidSummary, key, questionID)
		}
	}
	summary.Passed = rules.Passed(summary.Score)
	return summary, nil
}

func intPtr(v int) *int {
	return &v
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	return intPtr(*p)
}
