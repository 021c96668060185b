package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-link-service/internal/domain"
)

// ResultSink keeps graded submissions in memory. Useful for tests and for
// running the server with no durable store configured.
type ResultSink struct {
	mu   sync.RWMutex
	subs []domain.GradedSubmission
}

func NewResultSink() *ResultSink {
	return &ResultSink{}
}

func (s *ResultSink) Append(_ context.Context, sub domain.GradedSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
	return nil
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
	return paginate(matched, page, pageSize), nil
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

func paginate(subs []domain.GradedSubmission, page, pageSize int) []domain.GradedSubmission {
	if pageSize <= 0 {
		return subs
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(subs) {
		return []domain.GradedSubmission{}
	}
	end := start + pageSize
	if end > len(subs) {
		end = len(subs)
	}
	return subs[start:end]
}
