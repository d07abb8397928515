package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"pixel-quiz-service/internal/domain"
)

// RecordRepository stores one hash per user:
//
//	HSET quiz:record:{userID} playCount .. cumulativeScore .. maxScore ..
//	     [firstPassScore ..] [attemptsToPass ..] lastPlayedAt .. version ..
//
// Upserts run under WATCH so a concurrent writer aborts the transaction.
type RecordRepository struct {
	client *redis.Client
}

func NewRecordRepository(client *redis.Client) *RecordRepository {
	return &RecordRepository{client: client}
}

func (r *RecordRepository) FindByUserID(ctx context.Context, userID string) (domain.UserRecord, bool, error) {
	fields, err := r.client.HGetAll(ctx, recordKey(userID)).Result()
	if err != nil {
		return domain.UserRecord{}, false, fmt.Errorf("load record: %w", err)
	}
	if len(fields) == 0 {
		return domain.UserRecord{}, false, nil
	}
	rec, err := decodeRecord(userID, fields)
	if err != nil {
		return domain.UserRecord{}, false, err
	}
	return rec, true, nil
}

func (r *RecordRepository) Upsert(ctx context.Context, record domain.UserRecord) error {
	key := recordKey(record.UserID)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := tx.HGet(ctx, key, "version").Int64()
		if errors.Is(err, redis.Nil) {
			stored = 0
		} else if err != nil {
			return err
		}
		if stored != record.Version-1 {
			return domain.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, encodeRecord(record))
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrVersionConflict
	}
	if err != nil && !errors.Is(err, domain.ErrVersionConflict) {
		return fmt.Errorf("upsert record: %w", err)
	}
	return err
}

func recordKey(userID string) string {
	return "quiz:record:" + userID
}

func encodeRecord(rec domain.UserRecord) map[string]interface{} {
	fields := map[string]interface{}{
		"playCount":       rec.PlayCount,
		"cumulativeScore": rec.CumulativeScore,
		"maxScore":        rec.MaxScore,
		"lastPlayedAt":    rec.LastPlayedAt.UTC().Format(time.RFC3339Nano),
		"version":         rec.Version,
	}
	if rec.FirstPassScore != nil {
		fields["firstPassScore"] = *rec.FirstPassScore
	}
	if rec.AttemptsToPass != nil {
		fields["attemptsToPass"] = *rec.AttemptsToPass
	}
	return fields
}

func decodeRecord(userID string, fields map[string]string) (domain.UserRecord, error) {
	rec := domain.UserRecord{UserID: userID}
	var err error
	if rec.PlayCount, err = strconv.Atoi(fields["playCount"]); err != nil {
		return rec, fmt.Errorf("decode playCount: %w", err)
	}
	if rec.CumulativeScore, err = strconv.Atoi(fields["cumulativeScore"]); err != nil {
		return rec, fmt.Errorf("decode cumulativeScore: %w", err)
	}
	if rec.MaxScore, err = strconv.Atoi(fields["maxScore"]); err != nil {
		return rec, fmt.Errorf("decode maxScore: %w", err)
	}
	if rec.Version, err = strconv.ParseInt(fields["version"], 10, 64); err != nil {
		return rec, fmt.Errorf("decode version: %w", err)
	}
	if rec.LastPlayedAt, err = time.Parse(time.RFC3339Nano, fields["lastPlayedAt"]); err != nil {
		return rec, fmt.Errorf("decode lastPlayedAt: %w", err)
	}
	if raw, ok := fields["firstPassScore"]; ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return rec, fmt.Errorf("decode firstPassScore: %w", err)
		}
		rec.FirstPassScore = &v
	}
	if raw, ok := fields["attemptsToPass"]; ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return rec, fmt.Errorf("decode attemptsToPass: %w", err)
		}
		rec.AttemptsToPass = &v
	}
	return rec, nil
}
