package app_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

func additionQuestions() []domain.Question {
	answers := []int64{4, 7, 6}
	penalties := []int64{5, 10, 2}
	questions := make([]domain.Question, 3)
	for i := range questions {
		questions[i] = domain.Question{
			ID:      int64(i + 1),
			QuizID:  2,
			Text:    "q",
			Penalty: penalties[i],
			Answer:  &answers[i],
		}
	}
	return questions
}

func TestScoreTimeAndPenalty(t *testing.T) {
	stats := []domain.AnswerStat{
		{QuestionID: 1, Answer: 4, TimeSpent: 10},
		{QuestionID: 2, Answer: 0, TimeSpent: 30},
		{QuestionID: 3, Answer: 6, TimeSpent: 60},
	}

	scored, err := app.Score(stats, additionQuestions(), 3*time.Second)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if scored.Points != 13 {
		t.Fatalf("expected 13 points (3s base + 10 penalty), got %d", scored.Points)
	}
	if len(scored.Answers) != 3 {
		t.Fatalf("expected 3 answer records, got %d", len(scored.Answers))
	}

	if !scored.Answers[0].Correct || scored.Answers[0].CorrectAnswer != nil {
		t.Fatalf("expected first answer correct without correctAnswer, got %+v", scored.Answers[0])
	}
	if scored.Answers[1].Correct {
		t.Fatalf("expected second answer wrong, got %+v", scored.Answers[1])
	}
	if scored.Answers[1].CorrectAnswer == nil || *scored.Answers[1].CorrectAnswer != 7 {
		t.Fatalf("expected correctAnswer 7 on the wrong answer, got %+v", scored.Answers[1].CorrectAnswer)
	}
	if !scored.Answers[2].Correct {
		t.Fatalf("expected third answer correct, got %+v", scored.Answers[2])
	}
}

func TestScoreRescalesReportedTimes(t *testing.T) {
	stats := []domain.AnswerStat{
		{QuestionID: 1, Answer: 4, TimeSpent: 10},
		{QuestionID: 2, Answer: 7, TimeSpent: 30},
		{QuestionID: 3, Answer: 6, TimeSpent: 60},
	}

	scored, err := app.Score(stats, additionQuestions(), 3*time.Second)
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	// adjusted = round(raw * 3000 / 100)
	want := []int64{300, 900, 1800}
	for i, record := range scored.Answers {
		if record.TimeSpent != want[i] {
			t.Fatalf("answer %d: expected adjusted time %d, got %d", i, want[i], record.TimeSpent)
		}
	}
}

func TestScoreBaseIsWholeElapsedSeconds(t *testing.T) {
	stats := []domain.AnswerStat{
		{QuestionID: 1, Answer: 4},
		{QuestionID: 2, Answer: 7},
		{QuestionID: 3, Answer: 6},
	}

	// 2999ms floors to 2 points with every answer correct.
	scored, err := app.Score(stats, additionQuestions(), 2999*time.Millisecond)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if scored.Points != 2 {
		t.Fatalf("expected floored base of 2, got %d", scored.Points)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	stats := []domain.AnswerStat{
		{QuestionID: 1, Answer: 4, TimeSpent: 11},
		{QuestionID: 2, Answer: 0, TimeSpent: 22},
		{QuestionID: 3, Answer: 5, TimeSpent: 33},
	}

	first, err := app.Score(stats, additionQuestions(), 7500*time.Millisecond)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	second, err := app.Score(stats, additionQuestions(), 7500*time.Millisecond)
	if err != nil {
		t.Fatalf("score again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical outputs, got %+v vs %+v", first, second)
	}
}

func TestScoreRejectsLengthMismatch(t *testing.T) {
	stats := []domain.AnswerStat{
		{QuestionID: 1, Answer: 4},
		{QuestionID: 2, Answer: 7},
	}

	scored, err := app.Score(stats, additionQuestions(), 3*time.Second)
	if !errors.Is(err, domain.ErrLengthMismatch) {
		t.Fatalf("expected length mismatch, got %v", err)
	}
	if scored.Answers != nil || scored.Points != 0 {
		t.Fatalf("expected no partial scoring, got %+v", scored)
	}
}

func TestScoreRejectsMisalignedQuestions(t *testing.T) {
	// Client-side reordering is invalid even when all ids are present.
	stats := []domain.AnswerStat{
		{QuestionID: 2, Answer: 7},
		{QuestionID: 1, Answer: 4},
		{QuestionID: 3, Answer: 6},
	}

	_, err := app.Score(stats, additionQuestions(), 3*time.Second)
	if !errors.Is(err, domain.ErrAlignmentMismatch) {
		t.Fatalf("expected alignment mismatch, got %v", err)
	}
}

func TestScoreRejectsCanonicalSetWithoutAnswers(t *testing.T) {
	canonical := additionQuestions()
	canonical[1].Answer = nil

	stats := []domain.AnswerStat{
		{QuestionID: 1, Answer: 4},
		{QuestionID: 2, Answer: 7},
		{QuestionID: 3, Answer: 6},
	}

	_, err := app.Score(stats, canonical, 3*time.Second)
	if !errors.Is(err, domain.ErrMissingAnswer) {
		t.Fatalf("expected missing answer error, got %v", err)
	}
}

func TestScoreZeroIsAValidAnswer(t *testing.T) {
	zero := int64(0)
	canonical := []domain.Question{{ID: 1, Penalty: 1000, Answer: &zero}}
	stats := []domain.AnswerStat{{QuestionID: 1, Answer: 0}}

	scored, err := app.Score(stats, canonical, time.Second)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !scored.Answers[0].Correct || scored.Points != 1 {
		t.Fatalf("expected answer 0 to match, got %+v", scored)
	}
}
