package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz id does not exist in the catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrResultNotFound is returned when no result exists for a (user, quiz) pair.
	ErrResultNotFound = errors.New("result not found")
	// ErrAlreadyAttempted is the advisory guard outcome: the user already has
	// a recorded attempt for this quiz.
	ErrAlreadyAttempted = errors.New("user already attempted this quiz")
	// ErrDuplicateAttempt is the authoritative write-time outcome: another
	// submission won the race on the same attempt key. Retrying is pointless.
	ErrDuplicateAttempt = errors.New("attempt already recorded")
	// ErrLengthMismatch means the submitted answer count differs from the
	// canonical question count; nothing is scored.
	ErrLengthMismatch = errors.New("submission length does not match question count")
	// ErrAlignmentMismatch means a submitted answer's question id does not
	// match the canonical question at the same position.
	ErrAlignmentMismatch = errors.New("submission order does not match question order")
	// ErrMissingAnswer means a canonical question was handed to the scorer
	// without its answer populated.
	ErrMissingAnswer = errors.New("canonical question is missing its answer")
	// ErrQuizNotStarted means a submission arrived for a quiz this process
	// never handed out, so no server-side elapsed time is available.
	ErrQuizNotStarted = errors.New("quiz was not started")
)
