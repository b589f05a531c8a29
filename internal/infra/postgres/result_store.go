package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-attempt-service/internal/domain"
)

// ResultStore persists attempts through bun. All writes for one attempt run
// in a single transaction so readers never observe a result without its
// answer breakdown.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) GetResult(ctx context.Context, quizID, userID int64) (domain.Result, error) {
	var row resultRow
	err := s.db.NewSelect().Model(&row).
		Where("quiz_id = ?", quizID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("get result: %w", err)
	}
	return domain.Result{
		ID:     domain.AttemptKey(row.ID),
		QuizID: row.QuizID,
		UserID: row.UserID,
		Points: row.Points,
	}, nil
}

// RecordAttempt inserts the result row and then all its answer rows as one
// multi-row statement inside a single transaction. The results primary key
// is the authoritative one-attempt-per-user-per-quiz enforcement: a unique
// violation on it aborts the whole transaction and reports
// domain.ErrDuplicateAttempt. Any later failure rolls the result row back
// with the rest, so partial attempts are never observable.
func (s *ResultStore) RecordAttempt(ctx context.Context, result domain.Result, answers []domain.AnswerRecord) error {
	row := toResultRow(result)
	rows := make([]answerRow, len(answers))
	for i, answer := range answers {
		rows[i] = toAnswerRow(answer)
		rows[i].ResultID = row.ID
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateAttempt
			}
			return fmt.Errorf("insert result: %w", err)
		}
		if len(rows) > 0 {
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert answers: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateAttempt) {
			return domain.ErrDuplicateAttempt
		}
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (s *ResultStore) AnswersByResult(ctx context.Context, resultID domain.AttemptKey) ([]domain.AnswerRecord, error) {
	var rows []answerRow
	err := s.db.NewSelect().Model(&rows).
		Where("result_id = ?", string(resultID)).
		OrderExpr("question_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get answers: %w", err)
	}

	records := make([]domain.AnswerRecord, len(rows))
	for i, row := range rows {
		records[i] = row.toDomain()
	}
	return records, nil
}

func (s *ResultStore) TopResults(ctx context.Context, quizID int64, limit int) ([]domain.ResultEntry, error) {
	var rows []resultRow
	err := s.db.NewSelect().Model(&rows).
		Where("quiz_id = ?", quizID).
		OrderExpr("points ASC, user_id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get top results: %w", err)
	}

	entries := make([]domain.ResultEntry, len(rows))
	for i, row := range rows {
		entries[i] = domain.ResultEntry{UserID: row.UserID, Points: row.Points}
	}
	return entries, nil
}

// AverageTimes reports the average recorded time per question over correct
// answers only; questions nobody solved yet come back with a NULL average.
func (s *ResultStore) AverageTimes(ctx context.Context, quizID int64) ([]domain.QuestionAverage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT questions.id, questions.text, avgs.avg_time
		FROM questions
		LEFT JOIN (
			SELECT question_id, AVG(time_spent) AS avg_time
			FROM answers
			WHERE quiz_id = ? AND ok = 1
			GROUP BY question_id
		) AS avgs
		ON questions.id = avgs.question_id
		WHERE questions.quiz_id = ?
		ORDER BY questions.id ASC`, quizID, quizID)
	if err != nil {
		return nil, fmt.Errorf("query average times: %w", err)
	}
	defer rows.Close()

	averages := make([]domain.QuestionAverage, 0)
	for rows.Next() {
		var average domain.QuestionAverage
		if err := rows.Scan(&average.QuestionID, &average.Text, &average.AvgTime); err != nil {
			return nil, fmt.Errorf("scan average: %w", err)
		}
		averages = append(averages, average)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read averages: %w", err)
	}
	return averages, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}
