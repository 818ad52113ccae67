// Package artifacts reads and writes the pipeline's JSON run artifacts.
//
// Layout under the data directory:
//
//	research/YYYY-MM-DD.json
//	deep-dives/YYYY-WNN.json
//	content-suggestions/YYYY-WNN.json and .md
//	resources.json
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
)

const (
	ResearchDir    = "research"
	DeepDivesDir   = "deep-dives"
	SuggestionsDir = "content-suggestions"
	ResourcesFile  = "resources.json"

	jsonExt     = ".json"
	markdownExt = ".md"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Store is rooted at the data directory.
type Store struct {
	dir    string
	logger *zerolog.Logger
}

func NewStore(dir string, logger *zerolog.Logger) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Store{dir: dir, logger: logger}
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) researchPath(date string) string {
	return filepath.Join(s.dir, ResearchDir, date+jsonExt)
}

func (s *Store) deepDivePath(week string) string {
	return filepath.Join(s.dir, DeepDivesDir, week+jsonExt)
}

// SuggestionsPath returns the artifact path for week; the review report
// shares it with a .md extension.
func (s *Store) SuggestionsPath(week string) string {
	return filepath.Join(s.dir, SuggestionsDir, week+jsonExt)
}

func (s *Store) resourcesPath() string {
	return filepath.Join(s.dir, ResourcesFile)
}

// SaveResearch writes the daily artifact and returns its path.
func (s *Store) SaveResearch(a Research) (string, error) {
	if a.Findings == nil {
		a.Findings = []domain.ScoredItem{}
	}

	p := s.researchPath(a.Date)

	return p, writeJSON(p, a)
}

// LoadResearch reads the artifact for date. A missing file yields ErrNotFound.
func (s *Store) LoadResearch(date string) (*Research, error) {
	var a Research
	if err := readJSON(s.researchPath(date), &a); err != nil {
		return nil, err
	}

	return &a, nil
}

// LoadResearchDays reads the artifacts for the given dates in order.
// Missing days are skipped; unreadable files are logged and skipped.
func (s *Store) LoadResearchDays(days []string) []Research {
	var out []Research

	for _, d := range days {
		a, err := s.LoadResearch(d)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				s.logger.Warn().Err(err).Str("date", d).Msg("skipping unreadable research artifact")
			}

			continue
		}

		out = append(out, *a)
	}

	return out
}

// SaveDeepDive writes the weekly artifact and returns its path.
func (s *Store) SaveDeepDive(a DeepDive) (string, error) {
	if a.Analyses == nil {
		a.Analyses = []domain.AnalysisRecord{}
	}

	p := s.deepDivePath(a.Week)

	return p, writeJSON(p, a)
}

// LoadDeepDive reads the artifact for week. A missing file yields ErrNotFound.
func (s *Store) LoadDeepDive(week string) (*DeepDive, error) {
	var a DeepDive
	if err := readJSON(s.deepDivePath(week), &a); err != nil {
		return nil, err
	}

	return &a, nil
}

// LoadRecentDeepDives reads up to n deep-dive artifacts, newest week first.
// Unreadable files are logged and skipped.
func (s *Store) LoadRecentDeepDives(n int) ([]DeepDive, error) {
	weeks, err := s.listKeys(DeepDivesDir)
	if err != nil {
		return nil, err
	}

	slices.Reverse(weeks)

	var out []DeepDive

	for _, w := range weeks {
		if len(out) >= n {
			break
		}

		a, err := s.LoadDeepDive(w)
		if err != nil {
			s.logger.Warn().Err(err).Str("week", w).Msg("skipping unreadable deep-dive artifact")
			continue
		}

		out = append(out, *a)
	}

	return out, nil
}

// SaveSuggestions writes the weekly suggestion artifact and, when report is
// non-nil, the Markdown review next to it. It returns the JSON path.
func (s *Store) SaveSuggestions(a Suggestions, report []byte) (string, error) {
	if a.Suggestions == nil {
		a.Suggestions = []domain.Suggestion{}
	}

	if a.Skipped == nil {
		a.Skipped = []domain.LowConfidenceItem{}
	}

	p := s.SuggestionsPath(a.Week)
	if err := writeJSON(p, a); err != nil {
		return "", err
	}

	if report != nil {
		if err := writeAtomic(strings.TrimSuffix(p, jsonExt)+markdownExt, report); err != nil {
			return "", err
		}
	}

	return p, nil
}

// LoadResources reads resources.json. A missing file yields an empty list.
func (s *Store) LoadResources() (domain.ResourceList, error) {
	var l domain.ResourceList

	err := readJSON(s.resourcesPath(), &l)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.ResourceList{}, nil
	}

	return l, err
}

// SaveResources writes resources.json and returns its path.
func (s *Store) SaveResources(l domain.ResourceList) (string, error) {
	p := s.resourcesPath()

	return p, writeJSON(p, l)
}

// listKeys returns the base names of JSON files in sub, sorted ascending.
func (s *Store) listKeys(sub string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, sub))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("list %s: %w", sub, err)
	}

	var keys []string

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != jsonExt {
			continue
		}

		keys = append(keys, strings.TrimSuffix(e.Name(), jsonExt))
	}

	slices.Sort(keys)

	return keys, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, apperrors.ErrNotFound)
	}

	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	return writeAtomic(path, append(data, '\n'))
}

// writeAtomic writes data to a temp file in the target directory and renames
// it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}

	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}

	return nil
}
