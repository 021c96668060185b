package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-link-service/internal/domain"
	"quiz-link-service/internal/infra/quizfile"
)

// KeyLoader loads quiz JSONB from Postgres. Rows hold the same document
// shape as the on-disk quiz files, so parsing is shared with quizfile.
type KeyLoader struct {
	pool *pgxpool.Pool
}

func NewKeyLoader(pool *pgxpool.Pool) *KeyLoader {
	return &KeyLoader{pool: pool}
}

func (l *KeyLoader) Load(ctx context.Context, quizID string) (domain.AnswerKey, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AnswerKey{}, domain.ErrQuizNotFound
		}
		return domain.AnswerKey{}, fmt.Errorf("load quiz: %w", err)
	}
	return quizfile.ParseKey(quizID, raw)
}
