// Package quizfile loads answer keys from JSON quiz files, one file per
// quiz, in the layout the quiz authoring tools produce.
package quizfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quiz-link-service/internal/domain"
	"quiz-link-service/internal/grading"
)

// Source resolves a quiz identifier to its answer key.
type Source interface {
	Load(ctx context.Context, quizID string) (domain.AnswerKey, error)
}

// DirLoader resolves {quizID}.json inside a single directory.
type DirLoader struct {
	dir string
}

func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir}
}

func (l *DirLoader) Load(_ context.Context, quizID string) (domain.AnswerKey, error) {
	// Quiz ids are plain file stems; anything path-like is not a quiz.
	if quizID == "" || quizID != filepath.Base(quizID) || strings.HasPrefix(quizID, ".") {
		return domain.AnswerKey{}, domain.ErrQuizNotFound
	}

	data, err := os.ReadFile(filepath.Join(l.dir, quizID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.AnswerKey{}, domain.ErrQuizNotFound
		}
		return domain.AnswerKey{}, fmt.Errorf("read quiz %s: %w", quizID, err)
	}
	return ParseKey(quizID, data)
}

// Chain tries sources in a fixed priority order and returns the first hit.
// Partial results are never merged; a missing quiz in one source just moves
// on to the next, and ErrQuizNotFound is returned only after every source
// has been exhausted. Any other failure stops the search.
type Chain struct {
	sources []Source
}

func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

func (c *Chain) Load(ctx context.Context, quizID string) (domain.AnswerKey, error) {
	for _, src := range c.sources {
		key, err := src.Load(ctx, quizID)
		if err == nil {
			return key, nil
		}
		if err != domain.ErrQuizNotFound {
			return domain.AnswerKey{}, err
		}
	}
	return domain.AnswerKey{}, domain.ErrQuizNotFound
}

// rawQuestion is the on-disk question shape. Older exports carry options
// under "option_with_images_"; "options" wins when both are present. The
// correct answer is either a 0-based index or a literal letter.
type rawQuestion struct {
	Number        int             `json:"questionNumber"`
	Text          string          `json:"questionText"`
	Options       []string        `json:"options"`
	LegacyOptions []string        `json:"option_with_images_"`
	Correct       json.RawMessage `json:"correct_answer"`
}

// ParseKey decodes a quiz file into a normalized answer key. Accepts either
// a bare question array or a {"questions": [...]} wrapper. Question numbers
// must be unique.
func ParseKey(quizID string, data []byte) (domain.AnswerKey, error) {
	var raw []rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		var wrapper struct {
			Questions []rawQuestion `json:"questions"`
		}
		if err2 := json.Unmarshal(data, &wrapper); err2 != nil {
			return domain.AnswerKey{}, fmt.Errorf("parse quiz %s: %w", quizID, err)
		}
		raw = wrapper.Questions
	}

	key := domain.AnswerKey{
		QuizID:    quizID,
		Questions: make([]domain.Question, 0, len(raw)),
	}
	seen := make(map[int]struct{}, len(raw))
	for _, q := range raw {
		if _, dup := seen[q.Number]; dup {
			return domain.AnswerKey{}, fmt.Errorf("quiz %s: duplicate question number %d", quizID, q.Number)
		}
		seen[q.Number] = struct{}{}

		options := q.Options
		if len(options) == 0 {
			options = q.LegacyOptions
		}
		key.Questions = append(key.Questions, domain.Question{
			Number:        q.Number,
			Text:          q.Text,
			Options:       options,
			CorrectLetter: NormalizeDesignator(q.Correct),
		})
	}
	return key, nil
}

// NormalizeDesignator maps a raw correct-answer designator onto its letter:
// integers in [0,3] go through the A-D table, literal strings pass through
// as-is, and everything else is the unscoreable marker.
func NormalizeDesignator(raw json.RawMessage) string {
	if len(raw) == 0 {
		return domain.UnscoreableMarker
	}
	var idx int
	if err := json.Unmarshal(raw, &idx); err == nil {
		return grading.LetterForIndex(idx)
	}
	var literal string
	if err := json.Unmarshal(raw, &literal); err == nil {
		literal = strings.TrimSpace(literal)
		if literal == "" {
			return domain.UnscoreableMarker
		}
		return literal
	}
	return domain.UnscoreableMarker
}
