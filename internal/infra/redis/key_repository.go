package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-link-service/internal/domain"
)

// KeyLoader fetches answer keys from a backing source (files, Postgres).
type KeyLoader interface {
	Load(ctx context.Context, quizID string) (domain.AnswerKey, error)
}

// KeyRepository caches the full answer key as JSON under quiz:key:{quizID}
// and falls back to the loader on a miss. Keys are immutable once published,
// so serving a cached copy is always safe; the TTL only bounds staleness for
// republished quizzes.
type KeyRepository struct {
	client *redis.Client
	loader KeyLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewKeyRepository(client *redis.Client, loader KeyLoader, ttl time.Duration) *KeyRepository {
	return &KeyRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *KeyRepository) Load(ctx context.Context, quizID string) (domain.AnswerKey, error) {
	cacheKey := r.cacheKey(quizID)

	if key, ok := r.cached(ctx, cacheKey); ok {
		return key, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if key, ok := r.cached(ctx, cacheKey); ok {
			return key, nil
		}

		key, err := r.loader.Load(ctx, quizID)
		if err != nil {
			return domain.AnswerKey{}, err
		}

		if data, err := json.Marshal(key); err == nil {
			// best-effort cache fill
			_ = r.client.Set(ctx, cacheKey, data, r.ttlWithJitter()).Err()
		}
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

func (r *KeyRepository) cached(ctx context.Context, cacheKey string) (domain.AnswerKey, bool) {
	data, err := r.client.Get(ctx, cacheKey).Bytes()
	if err != nil || len(data) == 0 {
		return domain.AnswerKey{}, false
	}
	var key domain.AnswerKey
	if err := json.Unmarshal(data, &key); err != nil {
		return domain.AnswerKey{}, false
	}
	return key, true
}

func (r *KeyRepository) cacheKey(quizID string) string {
	return fmt.Sprintf("quiz:key:%s", quizID)
}

func (r *KeyRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
