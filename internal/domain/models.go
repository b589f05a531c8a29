package domain

import "fmt"

// AttemptKey identifies the single allowed attempt for a (user, quiz) pair.
// The key is derived deterministically, so a duplicate submission collides on
// the results primary key without needing a prior lookup.
type AttemptKey string

// AttemptKeyFor derives the attempt key for a user and quiz.
func AttemptKeyFor(userID, quizID int64) AttemptKey {
	return AttemptKey(fmt.Sprintf("%d:%d", userID, quizID))
}

// Quiz is the catalog entry shown before starting an attempt.
type Quiz struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Intro string `json:"intro"`
}

// Question belongs to exactly one quiz; ascending id is the display order and
// the alignment key for submitted answer arrays.
type Question struct {
	ID      int64  `json:"id"`
	QuizID  int64  `json:"quizId,omitempty"`
	Text    string `json:"text"`
	Penalty int64  `json:"penalty"`
	// Answer is populated only on the server-side scoring path and must never
	// be serialized to a client before submission.
	Answer *int64 `json:"answer,omitempty"`
}

// QuizSummary is a quiz list row with the calling user's points, if any.
type QuizSummary struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Intro  string `json:"intro"`
	Points *int64 `json:"points,omitempty"`
}

// AnswerStat is one submitted answer with the client-reported time spent.
// Submissions are positional: index i must correspond to the i-th canonical
// question of the quiz.
type AnswerStat struct {
	QuestionID int64 `json:"questionId"`
	Answer     int64 `json:"answer"`
	TimeSpent  int64 `json:"timeSpent"`
}

// Result is one scored attempt. Points accumulate elapsed seconds plus
// penalties, so lower is better. A result is final once written.
type Result struct {
	ID     AttemptKey `json:"id"`
	QuizID int64      `json:"quizId"`
	UserID int64      `json:"userId"`
	Points int64      `json:"points"`
}

// AnswerRecord is the per-question outcome of an attempt. CorrectAnswer is
// set only when the submitted answer was wrong.
type AnswerRecord struct {
	ID            int64      `json:"id,omitempty"`
	ResultID      AttemptKey `json:"resultId,omitempty"`
	QuestionID    int64      `json:"questionId"`
	QuizID        int64      `json:"quizId,omitempty"`
	TimeSpent     int64      `json:"timeSpent"`
	Answer        int64      `json:"answer"`
	Correct       bool       `json:"correct"`
	CorrectAnswer *int64     `json:"correctAnswer,omitempty"`
}

// ScoredAttempt is the output of the scoring engine: total points plus one
// outcome record per question, not yet bound to a result id.
type ScoredAttempt struct {
	Points  int64
	Answers []AnswerRecord
}

// ResultEntry is a leaderboard row; best results order by ascending points.
type ResultEntry struct {
	UserID int64 `json:"userId"`
	Points int64 `json:"points"`
}

// QuestionAverage is the average time spent on a question across correct
// answers; AvgTime is nil when nobody answered it correctly yet.
type QuestionAverage struct {
	QuestionID int64    `json:"questionId"`
	Text       string   `json:"text"`
	AvgTime    *float64 `json:"avgTime,omitempty"`
}

// QuestionDefinition is one seed question in catalog input order.
type QuestionDefinition struct {
	Text    string `json:"text"`
	Answer  int64  `json:"answer"`
	Penalty int64  `json:"penalty"`
}

// QuizDefinition is the seeding input for one quiz. A zero ID lets the store
// assign one; question input order becomes display order.
type QuizDefinition struct {
	ID        int64                `json:"id,omitempty"`
	Title     string               `json:"title"`
	Intro     string               `json:"intro"`
	Questions []QuestionDefinition `json:"content"`
}
