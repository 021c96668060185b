package grading

import (
	"math"

	"quiz-link-service/internal/domain"
)

// optionLetters maps a 0-based option index to its letter.
var optionLetters = [4]string{"A", "B", "C", "D"}

// LetterForIndex normalizes a 0-based option index to a letter. Indices
// outside [0,3] yield the unscoreable marker.
func LetterForIndex(idx int) string {
	if idx < 0 || idx > 3 {
		return domain.UnscoreableMarker
	}
	return optionLetters[idx]
}

// Score grades a submitted answer batch against an answer key.
//
// The key's question set is the authoritative enumeration: every question in
// the key produces exactly one QuestionResult, and questions with no matching
// answer are tallied UNANSWERED. Answers referencing numbers absent from the
// key are skipped. If the batch contains several answers for one question
// number, the first one in submission order wins.
//
// Pure and deterministic: identical inputs always yield identical reports.
func Score(answers []domain.StudentAnswer, key domain.AnswerKey) domain.GradeReport {
	byNumber := make(map[int]domain.StudentAnswer, len(answers))
	for _, a := range answers {
		if _, ok := byNumber[a.Number]; !ok {
			byNumber[a.Number] = a
		}
	}

	report := domain.GradeReport{
		Total:   len(key.Questions),
		Details: make([]domain.QuestionResult, 0, len(key.Questions)),
	}

	for _, q := range key.Questions {
		result := domain.QuestionResult{
			Number:         q.Number,
			Text:           q.Text,
			Options:        q.Options,
			CorrectLetter:  q.CorrectLetter,
			SelectedOption: domain.NoSelection,
		}

		answer, answered := byNumber[q.Number]
		switch {
		case !answered:
			result.SelectedLetter = domain.SelectedNotAnswered
			result.Status = domain.StatusUnanswered
			report.Unanswered++
		default:
			result.SelectedOption = answer.SelectedOption
			result.TimeSpent = answer.TimeSpent
			result.IsMarked = answer.IsMarked
			selected := LetterForIndex(answer.SelectedOption)
			if selected == domain.UnscoreableMarker {
				result.SelectedLetter = domain.SelectedInvalid
			} else {
				result.SelectedLetter = selected
			}
			// An unscoreable key entry never matches, including against
			// an out-of-range selection.
			if selected != domain.UnscoreableMarker && selected == q.CorrectLetter {
				result.IsCorrect = true
				result.Status = domain.StatusCorrect
				report.Correct++
			} else {
				result.Status = domain.StatusWrong
				report.Wrong++
			}
		}
		report.Details = append(report.Details, result)
	}

	report.Percentage = percentage(report.Correct, report.Total)
	return report
}

// percentage is round(correct/total*100, 2); zero questions score zero
// rather than dividing by zero.
func percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*100*100) / 100
}
