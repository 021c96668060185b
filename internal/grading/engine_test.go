package grading_test

import (
	"reflect"
	"testing"

	"quiz-link-service/internal/domain"
	"quiz-link-service/internal/grading"
)

func sampleKey() domain.AnswerKey {
	return domain.AnswerKey{
		QuizID: "physics-1",
		Questions: []domain.Question{
			{Number: 1, Text: "Unit of force?", Options: []string{"Newton", "Joule", "Watt", "Pascal"}, CorrectLetter: "A"},
			{Number: 2, Text: "Unit of energy?", Options: []string{"Newton", "Joule", "Watt", "Pascal"}, CorrectLetter: "B"},
			{Number: 3, Text: "Unit of power?", Options: []string{"Newton", "Joule", "Watt", "Pascal"}, CorrectLetter: "C"},
		},
	}
}

func TestScoreKeyDrivenEnumeration(t *testing.T) {
	answers := []domain.StudentAnswer{
		{Number: 1, SelectedOption: 0, TimeSpent: 12},
		{Number: 2, SelectedOption: 2, TimeSpent: 30},
		// no answer for question 3
	}

	report := grading.Score(answers, sampleKey())

	if report.Correct != 1 || report.Wrong != 1 || report.Unanswered != 1 {
		t.Fatalf("expected 1/1/1, got correct=%d wrong=%d unanswered=%d", report.Correct, report.Wrong, report.Unanswered)
	}
	if report.Total != 3 {
		t.Fatalf("expected total 3, got %d", report.Total)
	}
	if report.Percentage != 33.33 {
		t.Fatalf("expected 33.33, got %v", report.Percentage)
	}

	if got := report.Details[0]; got.Status != domain.StatusCorrect || got.SelectedLetter != "A" {
		t.Fatalf("q1: %+v", got)
	}
	if got := report.Details[1]; got.Status != domain.StatusWrong || got.SelectedLetter != "C" {
		t.Fatalf("q2: %+v", got)
	}
	if got := report.Details[2]; got.Status != domain.StatusUnanswered || got.SelectedLetter != domain.SelectedNotAnswered {
		t.Fatalf("q3: %+v", got)
	}
	if report.Details[2].SelectedOption != domain.NoSelection {
		t.Fatalf("expected NoSelection sentinel, got %d", report.Details[2].SelectedOption)
	}
}

func TestScoreSumInvariant(t *testing.T) {
	key := sampleKey()
	// More submitted answers than key questions, including unknown numbers.
	answers := []domain.StudentAnswer{
		{Number: 1, SelectedOption: 0},
		{Number: 99, SelectedOption: 1}, // not in key: skipped
		{Number: 2, SelectedOption: 1},
		{Number: 3, SelectedOption: 7}, // out of range: WRONG, never CORRECT
	}

	report := grading.Score(answers, key)
	if report.Correct+report.Wrong+report.Unanswered != report.Total {
		t.Fatalf("sum invariant broken: %+v", report)
	}
	if report.Total != len(key.Questions) {
		t.Fatalf("total must follow the key, got %d", report.Total)
	}
	if len(report.Details) != len(key.Questions) {
		t.Fatalf("expected one result per key question, got %d", len(report.Details))
	}
}

func TestScoreInvalidSelection(t *testing.T) {
	report := grading.Score([]domain.StudentAnswer{{Number: 1, SelectedOption: 9}}, sampleKey())

	q1 := report.Details[0]
	if q1.IsCorrect {
		t.Fatalf("out-of-range selection must never be correct: %+v", q1)
	}
	if q1.SelectedLetter != domain.SelectedInvalid || q1.Status != domain.StatusWrong {
		t.Fatalf("expected INVALID/WRONG, got %+v", q1)
	}
}

func TestScoreUnscoreableKeyNeverMatches(t *testing.T) {
	key := domain.AnswerKey{
		QuizID:    "broken",
		Questions: []domain.Question{{Number: 1, CorrectLetter: domain.UnscoreableMarker}},
	}
	// An invalid selection also normalizes to the marker; it must not be
	// treated as a match.
	report := grading.Score([]domain.StudentAnswer{{Number: 1, SelectedOption: -5}}, key)
	if report.Correct != 0 || report.Details[0].IsCorrect {
		t.Fatalf("unscoreable question graded correct: %+v", report.Details[0])
	}
}

func TestScoreFirstDuplicateWins(t *testing.T) {
	answers := []domain.StudentAnswer{
		{Number: 1, SelectedOption: 0}, // correct, wins
		{Number: 1, SelectedOption: 1}, // ignored
	}
	report := grading.Score(answers, sampleKey())
	if report.Details[0].SelectedLetter != "A" || !report.Details[0].IsCorrect {
		t.Fatalf("expected first answer to win, got %+v", report.Details[0])
	}
}

func TestScoreEmptyKey(t *testing.T) {
	report := grading.Score([]domain.StudentAnswer{{Number: 1, SelectedOption: 0}}, domain.AnswerKey{QuizID: "empty"})
	if report.Percentage != 0 || report.Total != 0 {
		t.Fatalf("expected zero report, got %+v", report)
	}
}

func TestScoreIdempotent(t *testing.T) {
	answers := []domain.StudentAnswer{
		{Number: 1, SelectedOption: 0, TimeSpent: 5, IsMarked: true},
		{Number: 2, SelectedOption: 3},
	}
	first := grading.Score(answers, sampleKey())
	second := grading.Score(answers, sampleKey())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("scoring is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestLetterForIndex(t *testing.T) {
	for idx, want := range []string{"A", "B", "C", "D"} {
		if got := grading.LetterForIndex(idx); got != want {
			t.Fatalf("index %d: expected %s, got %s", idx, want, got)
		}
	}
	if got := grading.LetterForIndex(4); got != domain.UnscoreableMarker {
		t.Fatalf("expected marker for out-of-range index, got %s", got)
	}
	if got := grading.LetterForIndex(domain.NoSelection); got != domain.UnscoreableMarker {
		t.Fatalf("expected marker for NoSelection, got %s", got)
	}
}
