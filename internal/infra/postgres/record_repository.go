package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pixel-quiz-service/internal/domain"
)

// RecordRepository persists user records with version-conditional writes.
type RecordRepository struct {
	pool *pgxpool.Pool
}

func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

func (r *RecordRepository) FindByUserID(ctx context.Context, userID string) (domain.UserRecord, bool, error) {
	var (
		rec       domain.UserRecord
		firstPass *int32
		attempts  *int32
		cumul     int64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, play_count, cumulative_score, max_score, first_pass_score, attempts_to_pass, last_played_at, version
		 FROM user_records WHERE user_id = $1`, userID).
		Scan(&rec.UserID, &rec.PlayCount, &cumul, &rec.MaxScore, &firstPass, &attempts, &rec.LastPlayedAt, &rec.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserRecord{}, false, nil
	}
	if err != nil {
		return domain.UserRecord{}, false, fmt.Errorf("load record: %w", err)
	}
	rec.CumulativeScore = int(cumul)
	rec.FirstPassScore = fromInt32(firstPass)
	rec.AttemptsToPass = fromInt32(attempts)
	rec.LastPlayedAt = rec.LastPlayedAt.UTC()
	return rec, true, nil
}

// Upsert inserts version 1 records and updates later versions only when the
// stored version is exactly one behind.
func (r *RecordRepository) Upsert(ctx context.Context, rec domain.UserRecord) error {
	var (
		sql  string
		args = []interface{}{
			rec.UserID, rec.PlayCount, int64(rec.CumulativeScore), rec.MaxScore,
			rec.FirstPassScore, rec.AttemptsToPass, rec.LastPlayedAt, rec.Version,
		}
	)
	if rec.Version == 1 {
		sql = `INSERT INTO user_records
			(user_id, play_count, cumulative_score, max_score, first_pass_score, attempts_to_pass, last_played_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (user_id) DO NOTHING`
	} else {
		sql = `UPDATE user_records SET
			play_count = $2, cumulative_score = $3, max_score = $4, first_pass_score = $5,
			attempts_to_pass = $6, last_played_at = $7, version = $8
			WHERE user_id = $1 AND version = $8 - 1`
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func fromInt32(v *int32) *int {
	if v == nil {
		return nil
	}
	out := int(*v)
	return &out
}
