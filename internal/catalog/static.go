package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/kihon/kuiz/internal/quiz"
)

// SchemaFile is a data-directory file that holds no questions.
const SchemaFile = "firestore-schema.json"

// FileReport describes what was loaded from one data file.
type FileReport struct {
	File    string
	Loaded  int
	Skipped []error
}

// LoadFile reads and normalizes every record of one data file. Invalid
// records are reported in the FileReport and left out.
func LoadFile(path string) ([]quiz.Question, FileReport, error) {
	report := FileReport{File: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, report, fmt.Errorf("read %s: %w", path, err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, report, fmt.Errorf("%s is not a JSON array: %w", filepath.Base(path), err)
	}

	qs := make([]quiz.Question, 0, len(items))
	for i, raw := range items {
		q, err := NormalizeItem(filepath.Base(path), i, raw)
		if err != nil {
			report.Skipped = append(report.Skipped, err)
			continue
		}
		qs = append(qs, q)
	}
	report.Loaded = len(qs)
	return qs, report, nil
}

// StaticLoader loads the JSON data files of a directory.
type StaticLoader struct {
	Dir    string
	Logger *slog.Logger
}

// NewStaticLoader creates a StaticLoader over dir.
func NewStaticLoader(dir string, logger *slog.Logger) *StaticLoader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StaticLoader{Dir: dir, Logger: logger}
}

// Files lists the data files in name order.
func (s *StaticLoader) Files() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, "*.json"))
	if err != nil {
		return nil, err
	}
	files := matches[:0]
	for _, m := range matches {
		if filepath.Base(m) != SchemaFile {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadAll loads every data file, skipping unreadable files and invalid
// records with a warning. Duplicate ids keep the first occurrence.
func (s *StaticLoader) LoadAll(ctx context.Context) ([]quiz.Question, []FileReport, error) {
	if _, err := os.Stat(s.Dir); err != nil {
		return nil, nil, fmt.Errorf("data dir: %w", err)
	}
	files, err := s.Files()
	if err != nil {
		return nil, nil, fmt.Errorf("list data files: %w", err)
	}

	var (
		all     []quiz.Question
		reports []FileReport
		seen    = make(map[string]bool)
	)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		qs, report, err := LoadFile(f)
		if err != nil {
			s.Logger.Warn("skip data file", "file", filepath.Base(f), "error", err)
			report.Skipped = append(report.Skipped, err)
			reports = append(reports, report)
			continue
		}
		for _, skipped := range report.Skipped {
			s.Logger.Warn("skip invalid item", "error", skipped)
		}
		for _, q := range qs {
			if seen[q.ID] {
				s.Logger.Warn("skip duplicate id", "file", filepath.Base(f), "id", q.ID)
				continue
			}
			seen[q.ID] = true
			all = append(all, q)
		}
		reports = append(reports, report)
	}
	return all, reports, nil
}

// Load returns every question in the directory.
func (s *StaticLoader) Load(ctx context.Context, _ Query) (*Batch, error) {
	qs, _, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, errors.New("no questions in " + s.Dir)
	}
	return &Batch{Questions: qs, Origin: OriginFiles}, nil
}
