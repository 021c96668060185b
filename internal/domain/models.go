package domain

import (
	"strings"
	"time"
)

// UnscoreableMarker is the normalized designator for a question whose stored
// correct answer cannot be mapped to one of A-D.
const UnscoreableMarker = "X"

// Answer-status tags carried on each QuestionResult.
const (
	StatusCorrect    = "CORRECT"
	StatusWrong      = "WRONG"
	StatusUnanswered = "UNANSWERED"
)

// Selected-letter placeholders for answers that cannot be compared.
const (
	SelectedNotAnswered = "NOT ANSWERED"
	SelectedInvalid     = "INVALID"
)

// NoSelection is the sentinel for an explicitly unanswered question.
const NoSelection = -1

// Question is one entry of an answer key. CorrectLetter is normalized at load
// time: one of A-D, or UnscoreableMarker.
type Question struct {
	Number        int      `json:"questionNumber"`
	Text          string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectLetter string   `json:"correctAnswer"`
}

// AnswerKey is the authoritative question set for a quiz. Question numbers
// are unique within a key; ordering is the delivery order.
type AnswerKey struct {
	QuizID    string     `json:"quizId"`
	Questions []Question `json:"questions"`
}

// StudentAnswer is one submitted answer. SelectedOption is a 0-based option
// index or NoSelection.
type StudentAnswer struct {
	Number         int     `json:"questionNumber"`
	SelectedOption int     `json:"selectedOption"`
	TimeSpent      float64 `json:"timeSpent"`
	IsMarked       bool    `json:"isMarked"`
}

// QuestionResult is the graded view of a single question. Derived only from a
// (Question, StudentAnswer) pair; never constructed on its own.
type QuestionResult struct {
	Number         int      `json:"questionNumber"`
	Text           string   `json:"questionText"`
	Options        []string `json:"options"`
	SelectedOption int      `json:"selectedOption"`
	SelectedLetter string   `json:"selectedLetter"`
	CorrectLetter  string   `json:"correctAnswer"`
	IsCorrect      bool     `json:"isCorrect"`
	Status         string   `json:"status"`
	TimeSpent      float64  `json:"timeSpent"`
	IsMarked       bool     `json:"isMarked"`
}

// GradeReport is the output of scoring one submission against one key.
// Correct + Wrong + Unanswered always equals Total.
type GradeReport struct {
	Correct    int              `json:"correct"`
	Wrong      int              `json:"wrong"`
	Unanswered int              `json:"unanswered"`
	Total      int              `json:"total"`
	Percentage float64          `json:"percentage"`
	Details    []QuestionResult `json:"details"`
}

// StudentIdentity identifies the submitting student. Link submissions use
// Name/Class/Section; direct submissions use Name/Email.
type StudentIdentity struct {
	Name    string `json:"name"`
	Class   string `json:"class,omitempty"`
	Section string `json:"section,omitempty"`
	Email   string `json:"email,omitempty"`
}

// SeatKey is the composite identity used for duplicate-submission checks on
/// a link: name, class and section, trimmed and case-folded.
func (s StudentIdentity) SeatKey() string {
	fold := func(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
	return fold(s.Name) + "|" + fold(s.Class) + "|" + fold(s.Section)
}

// GradedSubmission is the durable record of one graded attempt. Immutable
// after creation; owned by the result sink once appended.
type GradedSubmission struct {
	ID             string          `json:"id"`
	QuizID         string          `json:"quizId"`
	OwnerID        string          `json:"ownerId"`
	LinkToken      string          `json:"linkToken,omitempty"`
	Student        StudentIdentity `json:"student"`
	Report         GradeReport     `json:"report"`
	TotalTimeSpent string          `json:"totalTimeSpent"`
	SubmittedAt    time.Time       `json:"submittedAt"`
	SubmittedLocal string          `json:"submittedAtLocal"`
}

// QuizAggregate is the per-quiz rollup for an owner's dashboard.
type QuizAggregate struct {
	QuizID   string    `json:"quizId"`
	Count    int       `json:"count"`
	AvgScore float64   `json:"avgScore"`
	Latest   time.Time `json:"latest"`
}

// LinkUsage is a read-only snapshot of a link's seat consumption.
type LinkUsage struct {
	Token     string `json:"token"`
	QuizID    string `json:"quizId"`
	Used      int    `json:"used"`
	Capacity  int    `json:"capacity"`
	Remaining int    `json:"remaining"`
}
