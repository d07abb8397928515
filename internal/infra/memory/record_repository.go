package memory

import (
	"context"
	"sync"

	"pixel-quiz-service/internal/domain"
)

// RecordRepository keeps user records in a map. Records are copied on the
// way in and out so callers never share pointers with the store.
type RecordRepository struct {
	mu      sync.RWMutex
	records map[string]domain.UserRecord
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{records: make(map[string]domain.UserRecord)}
}

func (r *RecordRepository) FindByUserID(_ context.Context, userID string) (domain.UserRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[userID]
	if !ok {
		return domain.UserRecord{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (r *RecordRepository) Upsert(_ context.Context, record domain.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.records[record.UserID]
	var stored int64
	if ok {
		stored = current.Version
	}
	if stored != record.Version-1 {
		return domain.ErrVersionConflict
	}
	r.records[record.UserID] = cloneRecord(record)
	return nil
}

func cloneRecord(rec domain.UserRecord) domain.UserRecord {
	out := rec
	if rec.FirstPassScore != nil {
		v := *rec.FirstPassScore
		out.FirstPassScore = &v
	}
	if rec.AttemptsToPass != nil {
		v := *rec.AttemptsToPass
		out.AttemptsToPass = &v
	}
	return out
}
