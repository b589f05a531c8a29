package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-attempt-service/internal/domain"
)

// Seeder bulk-loads quiz definitions at provisioning time. Each quiz gets its
// own transaction: a failed definition never corrupts an already committed
// one, and committed quizzes are not rolled back on a later failure. Failures
// are collected and returned joined.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

func (s *Seeder) Load(ctx context.Context, defs []domain.QuizDefinition) error {
	var errs []error
	for _, def := range defs {
		if err := s.loadOne(ctx, def); err != nil {
			errs = append(errs, fmt.Errorf("load quiz %q: %w", def.Title, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Seeder) loadOne(ctx context.Context, def domain.QuizDefinition) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		quiz := quizRow{ID: def.ID, Title: def.Title, Intro: def.Intro}
		if _, err := tx.NewInsert().Model(&quiz).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}

		// Insert one by one: sequential serial assignment makes input order
		// the display order (ascending ids).
		for _, qd := range def.Questions {
			question := questionRow{
				Text:    qd.Text,
				Answer:  qd.Answer,
				Penalty: qd.Penalty,
				QuizID:  quiz.ID,
			}
			if _, err := tx.NewInsert().Model(&question).Exec(ctx); err != nil {
				return fmt.Errorf("insert question %q: %w", qd.Text, err)
			}
		}

		// Explicit quiz ids bypass the serial sequence; bump it so later
		// store-assigned ids cannot collide.
		if def.ID != 0 {
			if _, err := tx.ExecContext(ctx,
				`SELECT setval(pg_get_serial_sequence('quizzes', 'id'), (SELECT MAX(id) FROM quizzes))`); err != nil {
				return fmt.Errorf("bump quiz sequence: %w", err)
			}
		}
		return nil
	})
}
