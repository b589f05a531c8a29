package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-attempt-service/internal/domain"
)

// Catalog is the read-only question catalog backed by Postgres.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := c.pool.QueryRow(ctx,
		`SELECT id, title, intro FROM quizzes WHERE id = $1`, quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.Intro)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

// Questions returns a quiz's questions ordered by ascending id; this ordering
// is the display order and the positional contract for submissions. The
// answer column is selected only when includeAnswers is set, so it cannot
// leak into a pre-submission read.
func (c *Catalog) Questions(ctx context.Context, quizID int64, includeAnswers bool) ([]domain.Question, error) {
	query := `SELECT id, text, penalty FROM questions WHERE quiz_id = $1 ORDER BY id ASC`
	if includeAnswers {
		query = `SELECT id, text, penalty, answer FROM questions WHERE quiz_id = $1 ORDER BY id ASC`
	}

	rows, err := c.pool.Query(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		question := domain.Question{QuizID: quizID}
		if includeAnswers {
			var answer int64
			if err := rows.Scan(&question.ID, &question.Text, &question.Penalty, &answer); err != nil {
				return nil, fmt.Errorf("scan question: %w", err)
			}
			question.Answer = &answer
		} else {
			if err := rows.Scan(&question.ID, &question.Text, &question.Penalty); err != nil {
				return nil, fmt.Errorf("scan question: %w", err)
			}
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return questions, nil
}

// ListQuizzes returns every quiz with the user's points joined in where an
// attempt exists.
func (c *Catalog) ListQuizzes(ctx context.Context, userID int64) ([]domain.QuizSummary, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT quizzes.id, quizzes.title, quizzes.intro, results.points
		FROM quizzes
		LEFT JOIN results
		ON quizzes.id = results.quiz_id AND results.user_id = $1
		ORDER BY quizzes.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.QuizSummary, 0)
	for rows.Next() {
		var summary domain.QuizSummary
		if err := rows.Scan(&summary.ID, &summary.Title, &summary.Intro, &summary.Points); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read quizzes: %w", err)
	}
	return summaries, nil
}
