package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-link-service/internal/domain"
)

// ResultSink persists graded submissions in the submissions table. The full
// per-question detail rides along as JSONB; the aggregate columns exist for
// indexing and rollups.
type ResultSink struct {
	pool *pgxpool.Pool
}

func NewResultSink(pool *pgxpool.Pool) *ResultSink {
	return &ResultSink{pool: pool}
}

func (s *ResultSink) Append(ctx context.Context, sub domain.GradedSubmission) error {
	report, err := json.Marshal(sub.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO submissions (
			id, quiz_id, owner_id, link_token,
			student_name, student_class, student_section, student_email,
			report, percentage, total_time_spent, submitted_at, submitted_local
		) VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		sub.ID, sub.QuizID, sub.OwnerID, sub.LinkToken,
		sub.Student.Name, sub.Student.Class, sub.Student.Section, sub.Student.Email,
		report, sub.Report.Percentage, sub.TotalTimeSpent, sub.SubmittedAt, sub.SubmittedLocal,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *ResultSink) QueryByQuiz(ctx context.Context, quizID, ownerID string, page, pageSize int) ([]domain.GradedSubmission, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	if page < 1 {
		page = 1
	}
	rows, err := s.pool.Query(ctx, selectColumns+`
		FROM submissions
		WHERE quiz_id=$1 AND ($2='' OR owner_id=$2)
		ORDER BY submitted_at DESC
		LIMIT $3 OFFSET $4`,
		quizID, ownerID, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]domain.GradedSubmission, 0, pageSize)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *ResultSink) AggregateByOwner(ctx context.Context, ownerID string) ([]domain.QuizAggregate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT quiz_id, COUNT(*), AVG(percentage), MAX(submitted_at)
		FROM submissions
		WHERE ($1='' OR owner_id=$1)
		GROUP BY quiz_id
		ORDER BY quiz_id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate submissions: %w", err)
	}
	defer rows.Close()

	aggs := make([]domain.QuizAggregate, 0)
	for rows.Next() {
		var agg domain.QuizAggregate
		if err := rows.Scan(&agg.QuizID, &agg.Count, &agg.AvgScore, &agg.Latest); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		aggs = append(aggs, agg)
	}
	return aggs, rows.Err()
}

func (s *ResultSink) GetByID(ctx context.Context, id string) (domain.GradedSubmission, error) {
	row := s.pool.QueryRow(ctx, selectColumns+` FROM submissions WHERE id=$1`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GradedSubmission{}, domain.ErrSubmissionNotFound
		}
		return domain.GradedSubmission{}, err
	}
	return sub, nil
}

const selectColumns = `
	SELECT id, quiz_id, owner_id, COALESCE(link_token, ''),
		student_name, student_class, student_section, student_email,
		report, total_time_spent, submitted_at, submitted_local`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (domain.GradedSubmission, error) {
	var sub domain.GradedSubmission
	var report []byte
	err := row.Scan(
		&sub.ID, &sub.QuizID, &sub.OwnerID, &sub.LinkToken,
		&sub.Student.Name, &sub.Student.Class, &sub.Student.Section, &sub.Student.Email,
		&report, &sub.TotalTimeSpent, &sub.SubmittedAt, &sub.SubmittedLocal,
	)
	if err != nil {
		return domain.GradedSubmission{}, err
	}
	if err := json.Unmarshal(report, &sub.Report); err != nil {
		return domain.GradedSubmission{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return sub, nil
}
