package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
)

// topResultsSize bounds the best-results view and its broadcasts.
const topResultsSize = 5

// Catalog is the read-only quiz catalog (Postgres, Redis-cached, or memory).
type Catalog interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	// Questions returns the quiz's questions strictly ordered by ascending id.
	// With includeAnswers false the Answer field stays nil on every question.
	Questions(ctx context.Context, quizID int64, includeAnswers bool) ([]domain.Question, error)
	ListQuizzes(ctx context.Context, userID int64) ([]domain.QuizSummary, error)
}

// ResultStore persists scored attempts and their answer breakdowns.
type ResultStore interface {
	GetResult(ctx context.Context, quizID, userID int64) (domain.Result, error)
	// RecordAttempt writes the result and all answer records as one atomic
	// unit. A duplicate attempt key yields domain.ErrDuplicateAttempt with
	// nothing persisted.
	RecordAttempt(ctx context.Context, result domain.Result, answers []domain.AnswerRecord) error
	AnswersByResult(ctx context.Context, resultID domain.AttemptKey) ([]domain.AnswerRecord, error)
	TopResults(ctx context.Context, quizID int64, limit int) ([]domain.ResultEntry, error)
	AverageTimes(ctx context.Context, quizID int64) ([]domain.QuestionAverage, error)
}

// AttemptService contains the attempt lifecycle use cases: guard, start,
// score, record.
type AttemptService struct {
	catalog Catalog
	results ResultStore
	now     func() time.Time

	mu     sync.Mutex
	starts map[domain.AttemptKey]time.Time

	board *leaderboardHub
}

func NewAttemptService(catalog Catalog, results ResultStore) *AttemptService {
	return NewAttemptServiceWithClock(catalog, results, time.Now)
}

// NewAttemptServiceWithClock is test-only for deterministic elapsed times.
func NewAttemptServiceWithClock(catalog Catalog, results ResultStore, now func() time.Time) *AttemptService {
	return &AttemptService{
		catalog: catalog,
		results: results,
		now:     now,
		starts:  make(map[domain.AttemptKey]time.Time),
		board:   newLeaderboardHub(),
	}
}

// CanAttempt reports whether the user may start or submit the quiz: nil when
// allowed, domain.ErrQuizNotFound or domain.ErrAlreadyAttempted otherwise.
// The check is advisory; two sessions can both pass it before either writes.
// The result store's key constraint closes that race at write time.
func (s *AttemptService) CanAttempt(ctx context.Context, quizID, userID int64) error {
	if _, err := s.catalog.GetQuiz(ctx, quizID); err != nil {
		return err
	}
	_, err := s.results.GetResult(ctx, quizID, userID)
	switch {
	case err == nil:
		return domain.ErrAlreadyAttempted
	case errors.Is(err, domain.ErrResultNotFound):
		return nil
	default:
		return fmt.Errorf("check prior result: %w", err)
	}
}

// StartQuiz guards access, returns the quiz with its answer-stripped
// questions, and starts the server-side clock for this attempt.
func (s *AttemptService) StartQuiz(ctx context.Context, quizID, userID int64) (domain.Quiz, []domain.Question, error) {
	if err := s.CanAttempt(ctx, quizID, userID); err != nil {
		return domain.Quiz{}, nil, err
	}
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	questions, err := s.catalog.Questions(ctx, quizID, false)
	if err != nil {
		return domain.Quiz{}, nil, err
	}

	s.mu.Lock()
	s.starts[domain.AttemptKeyFor(userID, quizID)] = s.now()
	s.mu.Unlock()

	return quiz, questions, nil
}

// Submit runs one full submission with an explicit server-side elapsed time:
// guard, canonical catalog lookup, scoring, transactional recording.
func (s *AttemptService) Submit(ctx context.Context, quizID, userID int64, stats []domain.AnswerStat, serverElapsed time.Duration) (domain.Result, []domain.AnswerRecord, error) {
	if err := s.CanAttempt(ctx, quizID, userID); err != nil {
		return domain.Result{}, nil, err
	}

	canonical, err := s.catalog.Questions(ctx, quizID, true)
	if err != nil {
		return domain.Result{}, nil, err
	}

	scored, err := Score(stats, canonical, serverElapsed)
	if err != nil {
		return domain.Result{}, nil, err
	}

	key := domain.AttemptKeyFor(userID, quizID)
	result := domain.Result{
		ID:     key,
		QuizID: quizID,
		UserID: userID,
		Points: scored.Points,
	}
	answers := scored.Answers
	for i := range answers {
		answers[i].ResultID = key
		answers[i].QuizID = quizID
	}

	if err := s.results.RecordAttempt(ctx, result, answers); err != nil {
		return domain.Result{}, nil, err
	}

	s.broadcastTop(ctx, quizID)
	return result, answers, nil
}

// SubmitTracked is Submit with the elapsed time taken from the start recorded
// by StartQuiz. Submitting a quiz that was never started fails; accepting it
// would let a client skip the time penalty entirely.
func (s *AttemptService) SubmitTracked(ctx context.Context, quizID, userID int64, stats []domain.AnswerStat) (domain.Result, []domain.AnswerRecord, error) {
	key := domain.AttemptKeyFor(userID, quizID)

	s.mu.Lock()
	start, ok := s.starts[key]
	s.mu.Unlock()
	if !ok {
		return domain.Result{}, nil, domain.ErrQuizNotStarted
	}

	result, answers, err := s.Submit(ctx, quizID, userID, stats, s.now().Sub(start))
	if err != nil {
		return domain.Result{}, nil, err
	}

	s.mu.Lock()
	delete(s.starts, key)
	s.mu.Unlock()

	return result, answers, nil
}

// ListQuizzes returns the catalog with the user's points where attempted.
func (s *AttemptService) ListQuizzes(ctx context.Context, userID int64) ([]domain.QuizSummary, error) {
	return s.catalog.ListQuizzes(ctx, userID)
}

// ResultBreakdown returns the user's recorded result for a quiz together
// with its per-question answer records.
func (s *AttemptService) ResultBreakdown(ctx context.Context, quizID, userID int64) (domain.Result, []domain.AnswerRecord, error) {
	result, err := s.results.GetResult(ctx, quizID, userID)
	if err != nil {
		return domain.Result{}, nil, err
	}
	answers, err := s.results.AnswersByResult(ctx, result.ID)
	if err != nil {
		return domain.Result{}, nil, err
	}
	return result, answers, nil
}

// TopResults returns the best recorded results for a quiz, lowest points first.
func (s *AttemptService) TopResults(ctx context.Context, quizID int64) ([]domain.ResultEntry, error) {
	if _, err := s.catalog.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.results.TopResults(ctx, quizID, topResultsSize)
}

// AverageTimes returns per-question average solving times for a quiz.
func (s *AttemptService) AverageTimes(ctx context.Context, quizID int64) ([]domain.QuestionAverage, error) {
	if _, err := s.catalog.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.results.AverageTimes(ctx, quizID)
}

// SubscribeLeaderboard returns a channel receiving best-results snapshots for
// a quiz, starting with the current standing. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *AttemptService) SubscribeLeaderboard(ctx context.Context, quizID int64) (<-chan []domain.ResultEntry, func(), error) {
	if _, err := s.catalog.GetQuiz(ctx, quizID); err != nil {
		return nil, nil, err
	}
	initial, err := s.results.TopResults(ctx, quizID, topResultsSize)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.board.subscribe(quizID, initial)
	return ch, cancel, nil
}

// broadcastTop pushes the refreshed standing to subscribers. Best effort: a
// failed read only skips the push, the recorded attempt stands.
func (s *AttemptService) broadcastTop(ctx context.Context, quizID int64) {
	top, err := s.results.TopResults(ctx, quizID, topResultsSize)
	if err != nil {
		return
	}
	s.board.broadcast(quizID, top)
}
