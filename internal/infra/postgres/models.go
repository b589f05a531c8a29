package postgres

import (
	"github.com/uptrace/bun"

	"quiz-attempt-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Title string `bun:"title"`
	Intro string `bun:"intro"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID      int64  `bun:"id,pk,autoincrement"`
	Text    string `bun:"text"`
	Answer  int64  `bun:"answer"`
	Penalty int64  `bun:"penalty"`
	QuizID  int64  `bun:"quiz_id"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:results"`

	ID     string `bun:"id,pk"`
	QuizID int64  `bun:"quiz_id"`
	UserID int64  `bun:"user_id"`
	Points int64  `bun:"points"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers"`

	ID            int64  `bun:"id,pk,autoincrement"`
	ResultID      string `bun:"result_id"`
	QuestionID    int64  `bun:"question_id"`
	QuizID        int64  `bun:"quiz_id"`
	TimeSpent     int64  `bun:"time_spent"`
	Answer        int64  `bun:"answer"`
	OK            int16  `bun:"ok"`
	CorrectAnswer *int64 `bun:"correct_answer"`
}

func toResultRow(result domain.Result) resultRow {
	return resultRow{
		ID:     string(result.ID),
		QuizID: result.QuizID,
		UserID: result.UserID,
		Points: result.Points,
	}
}

func toAnswerRow(answer domain.AnswerRecord) answerRow {
	row := answerRow{
		ResultID:      string(answer.ResultID),
		QuestionID:    answer.QuestionID,
		QuizID:        answer.QuizID,
		TimeSpent:     answer.TimeSpent,
		Answer:        answer.Answer,
		CorrectAnswer: answer.CorrectAnswer,
	}
	if answer.Correct {
		row.OK = 1
	}
	return row
}

func (r answerRow) toDomain() domain.AnswerRecord {
	return domain.AnswerRecord{
		ID:            r.ID,
		ResultID:      domain.AttemptKey(r.ResultID),
		QuestionID:    r.QuestionID,
		QuizID:        r.QuizID,
		TimeSpent:     r.TimeSpent,
		Answer:        r.Answer,
		Correct:       r.OK != 0,
		CorrectAnswer: r.CorrectAnswer,
	}
}
