package quizfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"quiz-link-service/internal/domain"
	"quiz-link-service/internal/grading"
)

func writeQuiz(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write quiz file: %v", err)
	}
}

func TestDirLoaderParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	writeQuiz(t, dir, "neet-2025", `[
		{"questionNumber": 1, "questionText": "Q1", "options": ["a", "b", "c", "d"], "correct_answer": 2},
		{"questionNumber": 2, "questionText": "Q2", "option_with_images_": ["a", "b"], "correct_answer": "C"},
		{"questionNumber": 3, "questionText": "Q3", "options": ["a", "b"]}
	]`)

	key, err := NewDirLoader(dir).Load(context.Background(), "neet-2025")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(key.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(key.Questions))
	}

	// Integer designator 2 and literal "C" normalize identically.
	if key.Questions[0].CorrectLetter != "C" || key.Questions[1].CorrectLetter != "C" {
		t.Fatalf("normalization mismatch: %q vs %q", key.Questions[0].CorrectLetter, key.Questions[1].CorrectLetter)
	}
	if key.Questions[1].Options[0] != "a" {
		t.Fatalf("legacy options field not honored: %+v", key.Questions[1])
	}
	if key.Questions[2].CorrectLetter != domain.UnscoreableMarker {
		t.Fatalf("missing designator must be unscoreable, got %q", key.Questions[2].CorrectLetter)
	}

	// Both designator spellings grade identically against selected option 2.
	report := grading.Score([]domain.StudentAnswer{
		{Number: 1, SelectedOption: 2},
		{Number: 2, SelectedOption: 2},
	}, key)
	if report.Correct != 2 {
		t.Fatalf("expected both normalized answers correct, got %+v", report)
	}
}

func TestDirLoaderMissing(t *testing.T) {
	loader := NewDirLoader(t.TempDir())
	if _, err := loader.Load(context.Background(), "nope"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	// Path-like ids never resolve.
	if _, err := loader.Load(context.Background(), "../etc/passwd"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound for path-like id, got %v", err)
	}
}

func TestParseKeyRejectsDuplicateNumbers(t *testing.T) {
	_, err := ParseKey("dup", []byte(`[
		{"questionNumber": 1, "correct_answer": 0},
		{"questionNumber": 1, "correct_answer": 1}
	]`))
	if err == nil {
		t.Fatalf("expected error for duplicate question numbers")
	}
}

func TestParseKeyWrapperShape(t *testing.T) {
	key, err := ParseKey("wrapped", []byte(`{"questions": [{"questionNumber": 1, "correct_answer": "B"}]}`))
	if err != nil {
		t.Fatalf("parse wrapper: %v", err)
	}
	if len(key.Questions) != 1 || key.Questions[0].CorrectLetter != "B" {
		t.Fatalf("wrapper parse wrong: %+v", key)
	}
}

func TestChainFirstHitWins(t *testing.T) {
	primary := t.TempDir()
	fallback := t.TempDir()
	// Same quiz id in both locations with different answers: the first
	// source must win, never a merge.
	writeQuiz(t, primary, "quiz-1", `[{"questionNumber": 1, "correct_answer": "A"}]`)
	writeQuiz(t, fallback, "quiz-1", `[{"questionNumber": 1, "correct_answer": "B"}, {"questionNumber": 2, "correct_answer": "C"}]`)
	writeQuiz(t, fallback, "quiz-2", `[{"questionNumber": 1, "correct_answer": "D"}]`)

	chain := NewChain(NewDirLoader(primary), NewDirLoader(fallback))

	key, err := chain.Load(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("load quiz-1: %v", err)
	}
	if len(key.Questions) != 1 || key.Questions[0].CorrectLetter != "A" {
		t.Fatalf("expected primary copy only, got %+v", key)
	}

	// A miss in the primary falls through to the next source.
	key, err = chain.Load(context.Background(), "quiz-2")
	if err != nil || key.Questions[0].CorrectLetter != "D" {
		t.Fatalf("fallback lookup failed: %v %+v", err, key)
	}

	if _, err := chain.Load(context.Background(), "quiz-3"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound after exhausting sources, got %v", err)
	}
}
