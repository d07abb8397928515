package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"pixel-quiz-service/internal/domain"
)

// questionRow is the gorm model for the questions table.
type questionRow struct {
	ID      string `gorm:"primaryKey;type:varbinary(64)"`
	Prompt  string `gorm:"type:text;not null"`
	Options string `gorm:"type:json;not null"`
	Answer  string `gorm:"size:1;not null"`
}

func (questionRow) TableName() string {
	return "questions"
}

// recordRow is the gorm model for the user_records table. Keys are
// varbinary so ids compare byte for byte, with no case folding or
// trailing-space padding from the default collation.
type recordRow struct {
	UserID          string `gorm:"primaryKey;type:varbinary(191)"`
	PlayCount       int    `gorm:"not null"`
	CumulativeScore int64  `gorm:"not null"`
	MaxScore        int    `gorm:"not null"`
	FirstPassScore  *int
	AttemptsToPass  *int
	LastPlayedAt    time.Time `gorm:"type:datetime(6);not null"`
	Version         int64     `gorm:"not null"`
}

func (recordRow) TableName() string {
	return "user_records"
}

// Store keeps questions and user records in MySQL through gorm.
type Store struct {
	db *gorm.DB
}

// Open connects with dsn and migrates the two tables.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&questionRow{}, &recordRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	var rows []questionRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	questions := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		q := domain.Question{ID: row.ID, Prompt: row.Prompt, CorrectAnswer: domain.OptionKey(row.Answer)}
		if err := json.Unmarshal([]byte(row.Options), &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of %s: %w", row.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (s *Store) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		raw, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		rows = append(rows, questionRow{ID: q.ID, Prompt: q.Prompt, Options: string(raw), Answer: string(q.CorrectAnswer)})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}

func (s *Store) FindByUserID(ctx context.Context, userID string) (domain.UserRecord, bool, error) {
	var row recordRow
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.UserRecord{}, false, nil
	}
	if err != nil {
		return domain.UserRecord{}, false, fmt.Errorf("load record: %w", err)
	}
	return domain.UserRecord{
		UserID:          row.UserID,
		PlayCount:       row.PlayCount,
		CumulativeScore: int(row.CumulativeScore),
		MaxScore:        row.MaxScore,
		FirstPassScore:  row.FirstPassScore,
		AttemptsToPass:  row.AttemptsToPass,
		LastPlayedAt:    row.LastPlayedAt.UTC(),
		Version:         row.Version,
	}, true, nil
}

// Upsert inserts first versions and updates later ones only when the stored
// version is one behind.
func (s *Store) Upsert(ctx context.Context, rec domain.UserRecord) error {
	row := recordRow{
		UserID:          rec.UserID,
		PlayCount:       rec.PlayCount,
		CumulativeScore: int64(rec.CumulativeScore),
		MaxScore:        rec.MaxScore,
		FirstPassScore:  rec.FirstPassScore,
		AttemptsToPass:  rec.AttemptsToPass,
		LastPlayedAt:    rec.LastPlayedAt,
		Version:         rec.Version,
	}

	var result *gorm.DB
	if rec.Version == 1 {
		result = s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	} else {
		result = s.db.WithContext(ctx).Model(&recordRow{}).
			Where("user_id = ? AND version = ?", rec.UserID, rec.Version-1).
			Updates(map[string]interface{}{
				"play_count":       row.PlayCount,
				"cumulative_score": row.CumulativeScore,
				"max_score":        row.MaxScore,
				"first_pass_score": row.FirstPassScore,
				"attempts_to_pass": row.AttemptsToPass,
				"last_played_at":   row.LastPlayedAt,
				"version":          row.Version,
			})
	}
	if result.Error != nil {
		return fmt.Errorf("upsert record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}
