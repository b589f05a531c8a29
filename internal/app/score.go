package app

import (
	"time"

	"quiz-attempt-service/internal/domain"
)

// Score validates a submission against the canonical question set and
// computes its points. The submission is positional: stats[i] must carry the
// id of canonical[i]. Points start at the whole seconds elapsed on the server
// clock and grow by each wrong answer's penalty, so lower is better.
//
// Score never touches storage and is deterministic for identical inputs.
func Score(stats []domain.AnswerStat, canonical []domain.Question, serverElapsed time.Duration) (domain.ScoredAttempt, error) {
	if len(stats) != len(canonical) {
		return domain.ScoredAttempt{}, domain.ErrLengthMismatch
	}

	elapsedMs := serverElapsed.Milliseconds()
	points := elapsedMs / 1000

	answers := make([]domain.AnswerRecord, 0, len(stats))
	for i, stat := range stats {
		question := canonical[i]
		if stat.QuestionID != question.ID {
			return domain.ScoredAttempt{}, domain.ErrAlignmentMismatch
		}
		if question.Answer == nil {
			return domain.ScoredAttempt{}, domain.ErrMissingAnswer
		}

		record := domain.AnswerRecord{
			QuestionID: question.ID,
			QuizID:     question.QuizID,
			TimeSpent:  rescaleTime(stat.TimeSpent, elapsedMs),
			Answer:     stat.Answer,
		}
		if stat.Answer == *question.Answer {
			record.Correct = true
		} else {
			correct := *question.Answer
			record.CorrectAnswer = &correct
			points += question.Penalty
		}
		answers = append(answers, record)
	}

	return domain.ScoredAttempt{Points: points, Answers: answers}, nil
}

// rescaleTime compresses the client-reported per-question timing into the
// server's authoritative elapsed window: round(raw * elapsedMs / 100). It is
// a display figure and never feeds back into the points.
func rescaleTime(raw, elapsedMs int64) int64 {
	scaled := raw * elapsedMs
	if scaled >= 0 {
		return (scaled + 50) / 100
	}
	return (scaled - 50) / 100
}
