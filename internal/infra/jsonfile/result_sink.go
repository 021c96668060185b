// Package jsonfile persists graded submissions in a single JSON file, the
// format small deployments used before Postgres was an option.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"quiz-link-service/internal/domain"
	"quiz-link-service/internal/grading"
)

// ResultSink keeps every submission in memory and rewrites the whole file on
// each append. Records written by older revisions may carry integer
// correct-answer designators; those are normalized to letters on load.
type ResultSink struct {
	path string

	mu   sync.RWMutex
	subs []domain.GradedSubmission
}

// NewResultSink loads existing records from path (a missing file is an empty
// sink, not an error).
func NewResultSink(path string) (*ResultSink, error) {
	sink := &ResultSink{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sink, nil
		}
		return nil, fmt.Errorf("read results file: %w", err)
	}
	if len(data) == 0 {
		return sink, nil
	}

	var raw []rawSubmission
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse results file: %w", err)
	}
	for _, r := range raw {
		sink.subs = append(sink.subs, r.normalize())
	}
	return sink, nil
}

func (s *ResultSink) Append(_ context.Context, sub domain.GradedSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
	return s.saveLocked()
}

func (s *ResultSink) QueryByQuiz(_ context.Context, quizID, ownerID string, page, pageSize int) ([]domain.GradedSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.GradedSubmission, 0)
	for _, sub := range s.subs {
		if sub.QuizID == quizID && (ownerID == "" || sub.OwnerID == ownerID) {
			matched = append(matched, sub)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].SubmittedAt.After(matched[j].SubmittedAt)
	})

	if pageSize <= 0 {
		return matched, nil
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []domain.GradedSubmission{}, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (s *ResultSink) AggregateByOwner(_ context.Context, ownerID string) ([]domain.QuizAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byQuiz := make(map[string]*domain.QuizAggregate)
	sums := make(map[string]float64)
	for _, sub := range s.subs {
		if ownerID != "" && sub.OwnerID != ownerID {
			continue
		}
		agg, ok := byQuiz[sub.QuizID]
		if !ok {
			agg = &domain.QuizAggregate{QuizID: sub.QuizID}
			byQuiz[sub.QuizID] = agg
		}
		agg.Count++
		sums[sub.QuizID] += sub.Report.Percentage
		if sub.SubmittedAt.After(agg.Latest) {
			agg.Latest = sub.SubmittedAt
		}
	}

	out := make([]domain.QuizAggregate, 0, len(byQuiz))
	for quizID, agg := range byQuiz {
		agg.AvgScore = sums[quizID] / float64(agg.Count)
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuizID < out[j].QuizID })
	return out, nil
}

func (s *ResultSink) GetByID(_ context.Context, id string) (domain.GradedSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if sub.ID == id {
			return sub, nil
		}
	}
	return domain.GradedSubmission{}, domain.ErrSubmissionNotFound
}

func (s *ResultSink) saveLocked() error {
	data, err := json.MarshalIndent(s.subs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create results dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	return nil
}

// rawSubmission tolerates the old on-disk detail shape where correctAnswer
// was stored as a 0-based index.
type rawSubmission struct {
	domain.GradedSubmission
	Report rawReport `json:"report"`
}

type rawReport struct {
	domain.GradeReport
	Details []rawQuestionResult `json:"details"`
}

type rawQuestionResult struct {
	domain.QuestionResult
	CorrectLetter json.RawMessage `json:"correctAnswer"`
}

func (r rawSubmission) normalize() domain.GradedSubmission {
	sub := r.GradedSubmission
	sub.Report = r.Report.GradeReport
	sub.Report.Details = make([]domain.QuestionResult, 0, len(r.Report.Details))
	for _, d := range r.Report.Details {
		result := d.QuestionResult
		result.CorrectLetter = normalizeLetter(d.CorrectLetter)
		sub.Report.Details = append(sub.Report.Details, result)
	}
	return sub
}

func normalizeLetter(raw json.RawMessage) string {
	if len(raw) == 0 {
		return domain.UnscoreableMarker
	}
	var idx int
	if err := json.Unmarshal(raw, &idx); err == nil {
		return grading.LetterForIndex(idx)
	}
	var literal string
	if err := json.Unmarshal(raw, &literal); err == nil && literal != "" {
		return literal
	}
	return domain.UnscoreableMarker
}
