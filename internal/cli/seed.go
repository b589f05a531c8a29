package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	infrapg "quiz-attempt-service/internal/infra/postgres"
)

// NewSeedCmd loads quiz definitions into the database. With no --file it
// loads the built-in default catalog.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the quiz catalog into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with quiz definitions (defaults to the built-in catalog)")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	defs := defaultCatalog()
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		defs = nil
		if err := json.Unmarshal(data, &defs); err != nil {
			return fmt.Errorf("parse %s: %w", file, err)
		}
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	if err := infrapg.NewSeeder(db).Load(ctx, defs); err != nil {
		return err
	}
	log.Printf("seeded %d quizzes", len(defs))
	return nil
}

// defaultCatalog is the stock quiz set loaded when no definitions file is given.
func defaultCatalog() []domain.QuizDefinition {
	return []domain.QuizDefinition{
		{
			ID:    1,
			Title: "Very important quiz",
			Intro: "This is truly the most difficult quiz of all",
			Questions: []domain.QuestionDefinition{
				{Text: "How many degrees has an over-educated circle?", Answer: 360, Penalty: 1000},
				{Text: "Why was six afraid of seven?", Answer: 789, Penalty: 1000},
				{Text: "At how many degrees you should put a cake in the oven?", Answer: 0, Penalty: 1000},
			},
		},
		{
			ID:    2,
			Title: "Addition",
			Intro: "This is an easy quiz: add numbers as fast as you can!",
			Questions: []domain.QuestionDefinition{
				{Text: "2 + 2 = ?", Answer: 4, Penalty: 5},
				{Text: "4 + 3 = ?", Answer: 7, Penalty: 10},
				{Text: "5 + 1 = ?", Answer: 6, Penalty: 2},
			},
		},
		{
			ID:    3,
			Title: "Subtraction",
			Intro: "Can you solve this?",
			Questions: []domain.QuestionDefinition{
				{Text: "3 - 3 = ?", Answer: 0, Penalty: 1},
				{Text: "14 - 1 = ?", Answer: 13, Penalty: 10},
				{Text: "20 - 9 = ?", Answer: 11, Penalty: 2},
				{Text: "3 - 2 = ?", Answer: 1, Penalty: 1},
				{Text: "14 - 1 = ?", Answer: 13, Penalty: 10},
				{Text: "20 - 9 = ?", Answer: 11, Penalty: 2},
			},
		},
		{
			ID:    4,
			Title: "Multiplication I",
			Intro: "You need to answer all questions!",
			Questions: []domain.QuestionDefinition{
				{Text: "3 ⋅ 3 = ?", Answer: 9, Penalty: 1},
				{Text: "14 ⋅ 1 = ?", Answer: 14, Penalty: 10},
				{Text: "20 ⋅ 9 = ?", Answer: 180, Penalty: 5},
				{Text: "1 ⋅ 9 = ?", Answer: 9, Penalty: 10},
			},
		},
		{
			ID:    5,
			Title: "Multiplication II",
			Intro: "Second multiplication quiz.",
			Questions: []domain.QuestionDefinition{
				{Text: "3 ⋅ 3 = ?", Answer: 9, Penalty: 1},
				{Text: "14 ⋅ 1 = ?", Answer: 14, Penalty: 10},
				{Text: "20 ⋅ 9 = ?", Answer: 180, Penalty: 5},
				{Text: "1 ⋅ 9 = ?", Answer: 9, Penalty: 10},
			},
		},
		{
			ID:    6,
			Title: "Multiplication III",
			Intro: "Third multiplication quiz!",
			Questions: []domain.QuestionDefinition{
				{Text: "1 ⋅ 3 = ?", Answer: 3, Penalty: 1},
				{Text: "14 ⋅ 1 = ?", Answer: 14, Penalty: 10},
				{Text: "20 ⋅ 9 = ?", Answer: 180, Penalty: 5},
				{Text: "1 ⋅ 9 = ?", Answer: 9, Penalty: 10},
			},
		},
		{
			ID:    7,
			Title: "Large numbers",
			Intro: "Add them up!",
			Questions: []domain.QuestionDefinition{
				{Text: "234 + 123", Answer: 357, Penalty: 5},
				{Text: "9900 + 10", Answer: 9910, Penalty: 5},
			},
		},
	}
}
