package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pixel-quiz-service/internal/domain"
)

func (s *Store) FindByUserID(ctx context.Context, userID string) (domain.UserRecord, bool, error) {
	var (
		rec       domain.UserRecord
		firstPass sql.NullInt64
		attempts  sql.NullInt64
		playedAt  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, play_count, cumulative_score, max_score, first_pass_score, attempts_to_pass, last_played_at_unix, version
		 FROM user_records WHERE user_id = ?`, userID).
		Scan(&rec.UserID, &rec.PlayCount, &rec.CumulativeScore, &rec.MaxScore, &firstPass, &attempts, &playedAt, &rec.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserRecord{}, false, nil
	}
	if err != nil {
		return domain.UserRecord{}, false, fmt.Errorf("load record: %w", err)
	}
	rec.FirstPassScore = fromNull(firstPass)
	rec.AttemptsToPass = fromNull(attempts)
	rec.LastPlayedAt = time.Unix(0, playedAt).UTC()
	return rec, true, nil
}

// Upsert relies on the primary key for first inserts (INSERT OR IGNORE) and on
// a version predicate for updates; zero affected rows means another writer won.
func (s *Store) Upsert(ctx context.Context, rec domain.UserRecord) error {
	args := []interface{}{
		rec.UserID, rec.PlayCount, rec.CumulativeScore, rec.MaxScore,
		toNull(rec.FirstPassScore), toNull(rec.AttemptsToPass), rec.LastPlayedAt.UnixNano(), rec.Version,
	}

	var query string
	if rec.Version == 1 {
		query = `INSERT OR IGNORE INTO user_records
			(user_id, play_count, cumulative_score, max_score, first_pass_score, attempts_to_pass, last_played_at_unix, version)
			VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8)`
	} else {
		query = `UPDATE user_records SET
			play_count = ?2, cumulative_score = ?3, max_score = ?4, first_pass_score = ?5,
			attempts_to_pass = ?6, last_played_at_unix = ?7, version = ?8
			WHERE user_id = ?1 AND version = ?8 - 1`
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func fromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	out := int(v.Int64)
	return &out
}

func toNull(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
