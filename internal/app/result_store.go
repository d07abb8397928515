package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"pixel-quiz-service/internal/domain"
	"pixel-quiz-service/internal/metrics"
)

// RecordRepository is the persistence boundary for user records.
//
// Upsert must be atomic for a single row and conditional on Version: it
// succeeds only when the stored row has Version-1 (or is absent and
// Version is 1), otherwise it returns domain.ErrVersionConflict.
type RecordRepository interface {
	FindByUserID(ctx context.Context, userID string) (domain.UserRecord, bool, error)
	Upsert(ctx context.Context, record domain.UserRecord) error
}

const defaultMergeAttempts = 5

// ResultStore merges attempt summaries into persisted user records.
type ResultStore struct {
	repo     RecordRepository
	locks    *keyedMutex
	now      func() time.Time
	attempts int
	metrics  *metrics.Metrics
}

func NewResultStore(repo RecordRepository, m *metrics.Metrics) *ResultStore {
	return NewResultStoreWithClock(repo, m, time.Now)
}

// NewResultStoreWithClock is test-only for deterministic timestamps.
func NewResultStoreWithClock(repo RecordRepository, m *metrics.Metrics, now func() time.Time) *ResultStore {
	return &ResultStore{
		repo:     repo,
		locks:    newKeyedMutex(),
		now:      now,
		attempts: defaultMergeAttempts,
		metrics:  m,
	}
}

// Merge applies summary to the record of summary.UserID and persists it.
// Merges for one user are serialized in-process; races with other processes
// are detected through the record version and retried.
func (s *ResultStore) Merge(ctx context.Context, summary domain.AttemptSummary) (domain.UserRecord, error) {
	if strings.TrimSpace(summary.UserID) == "" {
		return domain.UserRecord{}, domain.ErrInvalidUserID
	}

	unlock := s.locks.Lock(summary.UserID)
	defer unlock()

	rec, err := s.mergeLocked(ctx, summary)
	s.metrics.Merge(err)
	return rec, err
}

func (s *ResultStore) mergeLocked(ctx context.Context, summary domain.AttemptSummary) (domain.UserRecord, error) {
	for i := 0; i < s.attempts; i++ {
		if err := ctx.Err(); err != nil {
			return domain.UserRecord{}, &domain.PersistenceError{Op: "merge", UserID: summary.UserID, Err: err}
		}

		existing, found, err := s.repo.FindByUserID(ctx, summary.UserID)
		if err != nil {
			return domain.UserRecord{}, &domain.PersistenceError{Op: "find", UserID: summary.UserID, Err: err}
		}
		var prev *domain.UserRecord
		if found {
			prev = &existing
		}

		rec := domain.MergeAttempt(prev, summary, s.now().UTC().Truncate(time.Microsecond))
		err = s.repo.Upsert(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return domain.UserRecord{}, &domain.PersistenceError{Op: "upsert", UserID: summary.UserID, Err: err}
		}
		s.metrics.Conflict()
	}
	return domain.UserRecord{}, &domain.PersistenceError{Op: "upsert", UserID: summary.UserID, Err: domain.ErrVersionConflict}
}

// Find returns the stored record for userID.
func (s *ResultStore) Find(ctx context.Context, userID string) (domain.UserRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.UserRecord{}, domain.ErrInvalidUserID
	}
	rec, found, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return domain.UserRecord{}, &domain.PersistenceError{Op: "find", UserID: userID, Err: err}
	}
	if !found {
		return domain.UserRecord{}, domain.ErrRecordNotFound
	}
	return rec, nil
}
