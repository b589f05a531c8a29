package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func newTestCache(t *testing.T) (*CatalogCache, *countingSource, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store := memory.NewStore()
	err = store.Load(context.Background(), []domain.QuizDefinition{
		{
			Title: "Addition",
			Intro: "add fast",
			Questions: []domain.QuestionDefinition{
				{Text: "2 + 2 = ?", Answer: 4, Penalty: 5},
				{Text: "4 + 3 = ?", Answer: 7, Penalty: 10},
			},
		},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	source := &countingSource{CatalogSource: store}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCatalogCache(client, source, time.Minute), source, mr
}

func TestQuestionsCachedInRedis(t *testing.T) {
	ctx := context.Background()
	cache, source, mr := newTestCache(t)

	questions, err := cache.Questions(ctx, 1, true)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 2 || questions[0].Answer == nil {
		t.Fatalf("expected canonical questions, got %+v", questions)
	}
	if source.questionCalls != 1 {
		t.Fatalf("expected one source call, got %d", source.questionCalls)
	}
	if !mr.Exists("quiz:1:questions") {
		t.Fatalf("expected cached key")
	}

	// Second read hits the cache.
	if _, err := cache.Questions(ctx, 1, true); err != nil {
		t.Fatalf("questions again: %v", err)
	}
	if source.questionCalls != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.questionCalls)
	}
}

func TestCachedQuestionsStripAnswersForClients(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newTestCache(t)

	// Warm the cache with the canonical form, then read the client view.
	if _, err := cache.Questions(ctx, 1, true); err != nil {
		t.Fatalf("warm: %v", err)
	}
	questions, err := cache.Questions(ctx, 1, false)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	for i, question := range questions {
		if question.Answer != nil {
			t.Fatalf("question %d leaked its answer from cache", i)
		}
	}
}

func TestGetQuizCachedInRedis(t *testing.T) {
	ctx := context.Background()
	cache, source, mr := newTestCache(t)

	quiz, err := cache.GetQuiz(ctx, 1)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Title != "Addition" {
		t.Fatalf("expected Addition, got %q", quiz.Title)
	}
	if !mr.Exists("quiz:1:meta") {
		t.Fatalf("expected cached meta key")
	}

	if _, err := cache.GetQuiz(ctx, 1); err != nil {
		t.Fatalf("get quiz again: %v", err)
	}
	if source.quizCalls != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.quizCalls)
	}
}

func TestUnknownQuizPassesErrorThrough(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newTestCache(t)

	if _, err := cache.GetQuiz(ctx, 42); err != domain.ErrQuizNotFound {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

type countingSource struct {
	CatalogSource
	quizCalls     int
	questionCalls int
}

func (s *countingSource) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	s.quizCalls++
	return s.CatalogSource.GetQuiz(ctx, quizID)
}

func (s *countingSource) Questions(ctx context.Context, quizID int64, includeAnswers bool) ([]domain.Question, error) {
	s.questionCalls++
	return s.CatalogSource.Questions(ctx, quizID, includeAnswers)
}
