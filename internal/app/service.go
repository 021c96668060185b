package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"quiz-link-service/internal/domain"
	"quiz-link-service/internal/grading"
)

// LinkRegistry abstracts how links are stored (in-memory, Redis-mirrored).
type LinkRegistry interface {
	Put(link *Link)
	Get(token string) (*Link, bool)
}

// AnswerKeySource resolves a quiz identifier to its answer key.
type AnswerKeySource interface {
	Load(ctx context.Context, quizID string) (domain.AnswerKey, error)
}

// ResultSink records finalized submissions durably and serves admin queries.
type ResultSink interface {
	Append(ctx context.Context, sub domain.GradedSubmission) error
	QueryByQuiz(ctx context.Context, quizID, ownerID string, page, pageSize int) ([]domain.GradedSubmission, error)
	AggregateByOwner(ctx context.Context, ownerID string) ([]domain.QuizAggregate, error)
	GetByID(ctx context.Context, id string) (domain.GradedSubmission, error)
}

// QuizService contains the scoring and link-access use cases.
type QuizService struct {
	links LinkRegistry
	keys  AnswerKeySource
	sink  ResultSink
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func NewQuizService(links LinkRegistry, keys AnswerKeySource, sink ResultSink, log *zap.Logger) *QuizService {
	return &QuizService{
		links: links,
		keys:  keys,
		sink:  sink,
		log:   log,
		now:   time.Now,
		newID: NewToken,
	}
}

// WithClock is test-only for deterministic timestamps and ids.
func (s *QuizService) WithClock(now func() time.Time, newID func() string) *QuizService {
	s.now = now
	s.newID = newID
	return s
}

// CreateLink loads the quiz's answer key, freezes it into a new link and
// registers the link under a fresh token.
func (s *QuizService) CreateLink(ctx context.Context, quizID, ownerID string, capacity int) (*Link, error) {
	if capacity <= 0 {
		return nil, domain.ErrInvalidCapacity
	}
	key, err := s.keys.Load(ctx, quizID)
	if err != nil {
		return nil, err
	}

	link, err := NewLink(s.newID(), quizID, ownerID, capacity, key)
	if err != nil {
		return nil, err
	}
	s.links.Put(link)
	s.log.Info("link created",
		zap.String("token", link.Token()),
		zap.String("quiz", quizID),
		zap.Int("capacity", capacity))
	return link, nil
}

// FetchByLink returns the link's frozen question set plus current usage. The
// caller is responsible for stripping correct answers before the payload
// leaves the server.
func (s *QuizService) FetchByLink(_ context.Context, token string) (domain.AnswerKey, domain.LinkUsage, error) {
	link, ok := s.links.Get(token)
	if !ok {
		return domain.AnswerKey{}, domain.LinkUsage{}, domain.ErrLinkNotFound
	}
	usage, err := link.CheckAccess()
	if err != nil {
		return domain.AnswerKey{}, usage, err
	}
	return link.Key(), usage, nil
}

// SubmitViaLink grades a batch against the link's frozen key, consumes one
// seat atomically, then persists the result. Grading is authoritative: a
// sink failure is logged and reported through the recorded flag, never
// surfaced as a request failure. A registry rejection discards the graded
// report entirely.
func (s *QuizService) SubmitViaLink(ctx context.Context, token string, student domain.StudentIdentity, answers []domain.StudentAnswer, totalTime string) (domain.GradedSubmission, domain.LinkUsage, bool, error) {
	link, ok := s.links.Get(token)
	if !ok {
		return domain.GradedSubmission{}, domain.LinkUsage{}, false, domain.ErrLinkNotFound
	}

	report := grading.Score(answers, link.Key())

	usage, err := link.RecordSubmission(student.SeatKey())
	if err != nil {
		return domain.GradedSubmission{}, usage, false, err
	}

	sub := s.buildSubmission(link.QuizID(), link.OwnerID(), token, student, report, totalTime)
	recorded := s.persist(ctx, sub)
	return sub, usage, recorded, nil
}

// SubmitDirect grades a batch against the current key for a quiz name, with
// no link gating.
func (s *QuizService) SubmitDirect(ctx context.Context, quizID, ownerID string, student domain.StudentIdentity, answers []domain.StudentAnswer, totalTime string) (domain.GradedSubmission, bool, error) {
	key, err := s.keys.Load(ctx, quizID)
	if err != nil {
		return domain.GradedSubmission{}, false, err
	}

	report := grading.Score(answers, key)
	sub := s.buildSubmission(quizID, ownerID, "", student, report, totalTime)
	recorded := s.persist(ctx, sub)
	return sub, recorded, nil
}

// LinkUsage returns the seat snapshot for admin reporting. Readable even
// after the link is full.
func (s *QuizService) LinkUsage(_ context.Context, token string) (domain.LinkUsage, error) {
	link, ok := s.links.Get(token)
	if !ok {
		return domain.LinkUsage{}, domain.ErrLinkNotFound
	}
	return link.Usage(), nil
}

// WatchLink subscribes to live usage snapshots for a link. The caller must
// invoke the cancel func.
func (s *QuizService) WatchLink(_ context.Context, token string) (<-chan domain.LinkUsage, func(), error) {
	link, ok := s.links.Get(token)
	if !ok {
		return nil, nil, domain.ErrLinkNotFound
	}
	ch, cancel := link.Subscribe()
	return ch, cancel, nil
}

// QuizAggregates lists per-quiz submission rollups for one owner.
func (s *QuizService) QuizAggregates(ctx context.Context, ownerID string) ([]domain.QuizAggregate, error) {
	return s.sink.AggregateByOwner(ctx, ownerID)
}

// Submissions lists graded submissions for one quiz, newest first.
func (s *QuizService) Submissions(ctx context.Context, quizID, ownerID string, page, pageSize int) ([]domain.GradedSubmission, error) {
	return s.sink.QueryByQuiz(ctx, quizID, ownerID, page, pageSize)
}

// Submission fetches one submission's full detail.
func (s *QuizService) Submission(ctx context.Context, id string) (domain.GradedSubmission, error) {
	return s.sink.GetByID(ctx, id)
}

func (s *QuizService) buildSubmission(quizID, ownerID, token string, student domain.StudentIdentity, report domain.GradeReport, totalTime string) domain.GradedSubmission {
	now := s.now()
	return domain.GradedSubmission{
		ID:             s.newID(),
		QuizID:         quizID,
		OwnerID:        ownerID,
		LinkToken:      token,
		Student:        student,
		Report:         report,
		TotalTimeSpent: totalTime,
		SubmittedAt:    now,
		SubmittedLocal: now.Format("02 Jan 2006, 03:04 PM"),
	}
}

// persist appends to the sink; the score was already computed and stays
// authoritative, so a failure only degrades durability.
func (s *QuizService) persist(ctx context.Context, sub domain.GradedSubmission) bool {
	if err := s.sink.Append(ctx, sub); err != nil {
		s.log.Error("result sink append failed, score returned but not recorded",
			zap.String("submission", sub.ID),
			zap.String("quiz", sub.QuizID),
			zap.Error(err))
		return false
	}
	return true
}
