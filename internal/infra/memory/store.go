package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// Store is a mutex-guarded in-memory catalog and result store. It backs the
// no-Postgres mode and the unit tests, and mirrors the relational semantics:
// unique quiz titles, ascending assigned question ids, an atomic
// result-plus-answers write, and duplicate detection on the attempt key.
type Store struct {
	mu         sync.RWMutex
	quizzes    map[int64]domain.Quiz
	questions  map[int64][]domain.Question
	results    map[domain.AttemptKey]domain.Result
	answers    map[domain.AttemptKey][]domain.AnswerRecord
	nextQuiz   int64
	nextQuest  int64
	nextAnswer int64
}

func NewStore() *Store {
	return &Store{
		quizzes:   make(map[int64]domain.Quiz),
		questions: make(map[int64][]domain.Question),
		results:   make(map[domain.AttemptKey]domain.Result),
		answers:   make(map[domain.AttemptKey][]domain.AnswerRecord),
	}
}

// Load seeds quiz definitions sequentially, one "transaction" per quiz: a
// definition either lands completely or not at all, and a failure does not
// undo previously loaded quizzes. All failures are joined into the returned
// error.
func (s *Store) Load(_ context.Context, defs []domain.QuizDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, def := range defs {
		if err := s.loadOneLocked(def); err != nil {
			errs = append(errs, fmt.Errorf("load quiz %q: %w", def.Title, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) loadOneLocked(def domain.QuizDefinition) error {
	if def.Title == "" {
		return errors.New("empty title")
	}
	for _, quiz := range s.quizzes {
		if quiz.Title == def.Title {
			return errors.New("duplicate title")
		}
	}

	id := def.ID
	if id == 0 {
		id = s.nextQuiz + 1
	} else if _, ok := s.quizzes[id]; ok {
		return errors.New("duplicate id")
	}
	if id > s.nextQuiz {
		s.nextQuiz = id
	}

	questions := make([]domain.Question, 0, len(def.Questions))
	for _, qd := range def.Questions {
		s.nextQuest++
		answer := qd.Answer
		questions = append(questions, domain.Question{
			ID:      s.nextQuest,
			QuizID:  id,
			Text:    qd.Text,
			Penalty: qd.Penalty,
			Answer:  &answer,
		})
	}

	s.quizzes[id] = domain.Quiz{ID: id, Title: def.Title, Intro: def.Intro}
	s.questions[id] = questions
	return nil
}

func (s *Store) GetQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) Questions(_ context.Context, quizID int64, includeAnswers bool) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.questions[quizID]
	questions := make([]domain.Question, 0, len(stored))
	for _, q := range stored {
		if !includeAnswers {
			q.Answer = nil
		}
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, nil
}

func (s *Store) ListQuizzes(_ context.Context, userID int64) ([]domain.QuizSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.QuizSummary, 0, len(s.quizzes))
	for id, quiz := range s.quizzes {
		summary := domain.QuizSummary{ID: id, Title: quiz.Title, Intro: quiz.Intro}
		if result, ok := s.results[domain.AttemptKeyFor(userID, id)]; ok {
			points := result.Points
			summary.Points = &points
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

func (s *Store) GetResult(_ context.Context, quizID, userID int64) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[domain.AttemptKeyFor(userID, quizID)]
	if !ok {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return result, nil
}

// RecordAttempt inserts the result and all answer records under one lock, so
// the pair is visible atomically or not at all.
func (s *Store) RecordAttempt(_ context.Context, result domain.Result, answers []domain.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.results[result.ID]; ok {
		return domain.ErrDuplicateAttempt
	}

	records := make([]domain.AnswerRecord, len(answers))
	for i, answer := range answers {
		s.nextAnswer++
		answer.ID = s.nextAnswer
		answer.ResultID = result.ID
		records[i] = answer
	}

	s.results[result.ID] = result
	s.answers[result.ID] = records
	return nil
}

func (s *Store) AnswersByResult(_ context.Context, resultID domain.AttemptKey) ([]domain.AnswerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := append([]domain.AnswerRecord(nil), s.answers[resultID]...)
	sort.Slice(records, func(i, j int) bool { return records[i].QuestionID < records[j].QuestionID })
	return records, nil
}

func (s *Store) TopResults(_ context.Context, quizID int64, limit int) ([]domain.ResultEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.ResultEntry, 0)
	for _, result := range s.results {
		if result.QuizID == quizID {
			entries = append(entries, domain.ResultEntry{UserID: result.UserID, Points: result.Points})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points < entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Store) AverageTimes(_ context.Context, quizID int64) ([]domain.QuestionAverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[int64]int64)
	counts := make(map[int64]int64)
	for key, result := range s.results {
		if result.QuizID != quizID {
			continue
		}
		for _, answer := range s.answers[key] {
			if answer.Correct {
				sums[answer.QuestionID] += answer.TimeSpent
				counts[answer.QuestionID]++
			}
		}
	}

	stored := s.questions[quizID]
	averages := make([]domain.QuestionAverage, 0, len(stored))
	for _, q := range stored {
		average := domain.QuestionAverage{QuestionID: q.ID, Text: q.Text}
		if counts[q.ID] > 0 {
			avg := float64(sums[q.ID]) / float64(counts[q.ID])
			average.AvgTime = &avg
		}
		averages = append(averages, average)
	}
	sort.Slice(averages, func(i, j int) bool { return averages[i].QuestionID < averages[j].QuestionID })
	return averages, nil
}
