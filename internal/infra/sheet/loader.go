// Package sheet reads question sheets exported from a spreadsheet.
//
// CSV sheets use the column layout [ID, Question, A, B, C, D, Answer] with a
// header row. YAML sheets hold a top-level "questions" list.
package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pixel-quiz-service/internal/domain"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported question sheet format")

// FileLoader loads the question pool from a sheet file on every call.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return ReadFile(l.path)
}

// ReadFile parses a CSV or YAML sheet, chosen by file extension.
func ReadFile(path string) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(f)
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

const (
	colID = iota
	colPrompt
	colA
	colB
	colC
	colD
	colAnswer
)

// ParseCSV reads a question sheet. Rows are returned as written, including
// rows that are not servable; blank option cells are dropped.
func ParseCSV(r io.Reader) ([]domain.Question, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv sheet: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	questions := make([]domain.Question, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blankRow(rec) {
			continue
		}
		q := domain.Question{
			ID:      cell(rec, colID),
			Prompt:  cell(rec, colPrompt),
			Options: make(map[domain.OptionKey]string, 4),
		}
		for i, key := range domain.OptionKeys {
			if text := cell(rec, colA+i); text != "" {
				q.Options[key] = text
			}
		}
		if key, ok := domain.ParseOptionKey(cell(rec, colAnswer)); ok {
			q.CorrectAnswer = key
		}
		questions = append(questions, q)
	}
	return questions, nil
}

type yamlSheet struct {
	Questions []yamlQuestion `yaml:"questions"`
}

type yamlQuestion struct {
	ID      interface{}       `yaml:"id"`
	Prompt  string            `yaml:"prompt"`
	Options map[string]string `yaml:"options"`
	Answer  string            `yaml:"answer"`
}

// ParseYAML reads a YAML sheet. Numeric ids are kept in their text form.
func ParseYAML(r io.Reader) ([]domain.Question, error) {
	var doc yamlSheet
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read yaml sheet: %w", err)
	}

	questions := make([]domain.Question, 0, len(doc.Questions))
	for i, raw := range doc.Questions {
		q := domain.Question{
			Prompt:  strings.TrimSpace(raw.Prompt),
			Options: make(map[domain.OptionKey]string, len(raw.Options)),
		}
		if raw.ID != nil {
			q.ID = strings.TrimSpace(fmt.Sprint(raw.ID))
		}
		for k, text := range raw.Options {
			key, ok := domain.ParseOptionKey(k)
			if !ok {
				return nil, fmt.Errorf("question %d: unknown option key %q", i+1, k)
			}
			if text = strings.TrimSpace(text); text != "" {
				q.Options[key] = text
			}
		}
		if key, ok := domain.ParseOptionKey(raw.Answer); ok {
			q.CorrectAnswer = key
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func cell(rec []string, idx int) string {
	if idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
