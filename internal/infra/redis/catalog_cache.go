package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-attempt-service/internal/domain"
)

// CatalogSource is the backing catalog a cache miss falls through to.
type CatalogSource interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	Questions(ctx context.Context, quizID int64, includeAnswers bool) ([]domain.Question, error)
	ListQuizzes(ctx context.Context, userID int64) ([]domain.QuizSummary, error)
}

// CatalogCache caches quiz metadata and the canonical question list in Redis
// as JSON values:
//
//	SET quiz:{quizID}:meta      {Quiz JSON}
//	SET quiz:{quizID}:questions {[]Question JSON, answers included}
//
// The canonical form is cached server-side only; pre-submission reads strip
// the answers after decoding. Quizzes are immutable outside re-seeding, so a
// TTL (with jitter) is only there to bound staleness after a re-seed.
type CatalogCache struct {
	client *redis.Client
	source CatalogSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogCache(client *redis.Client, source CatalogSource, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	key := c.metaKey(quizID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err == nil {
			return quiz, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var quiz domain.Quiz
			if err := json.Unmarshal(raw, &quiz); err == nil {
				return quiz, nil
			}
		}

		quiz, err := c.source.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		c.store(ctx, key, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *CatalogCache) Questions(ctx context.Context, quizID int64, includeAnswers bool) ([]domain.Question, error) {
	key := c.questionsKey(quizID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var questions []domain.Question
		if err := json.Unmarshal(raw, &questions); err == nil {
			return sanitize(questions, includeAnswers), nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var questions []domain.Question
			if err := json.Unmarshal(raw, &questions); err == nil {
				return questions, nil
			}
		}

		questions, err := c.source.Questions(ctx, quizID, true)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, questions)
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return sanitize(result.([]domain.Question), includeAnswers), nil
}

// ListQuizzes is user-specific (joined points), so it always passes through.
func (c *CatalogCache) ListQuizzes(ctx context.Context, userID int64) ([]domain.QuizSummary, error) {
	return c.source.ListQuizzes(ctx, userID)
}

// store writes through best effort; a failed cache write only costs the next
// reader a reload.
func (c *CatalogCache) store(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
}

func (c *CatalogCache) metaKey(quizID int64) string {
	return fmt.Sprintf("quiz:%d:meta", quizID)
}

func (c *CatalogCache) questionsKey(quizID int64) string {
	return fmt.Sprintf("quiz:%d:questions", quizID)
}

// sanitize copies the canonical questions, dropping answers unless requested.
func sanitize(canonical []domain.Question, includeAnswers bool) []domain.Question {
	questions := make([]domain.Question, len(canonical))
	copy(questions, canonical)
	if !includeAnswers {
		for i := range questions {
			questions[i].Answer = nil
		}
	}
	return questions
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
