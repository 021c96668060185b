package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-link-service/internal/domain"
)

// KeyLoader fetches answer keys from a backing source (files, Postgres).
type KeyLoader interface {
	Load(ctx context.Context, quizID string) (domain.AnswerKey, error)
}

// KeyRepository caches answer keys with TTL to avoid repeated source hits.
// Re-fetching is always safe; the cache is purely a read optimization.
type KeyRepository struct {
	loader KeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedKey
}

type cachedKey struct {
	key       domain.AnswerKey
	expiresAt time.Time
}

func NewKeyRepository(loader KeyLoader, ttl time.Duration) *KeyRepository {
	return &KeyRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedKey),
	}
}

func (r *KeyRepository) Load(ctx context.Context, quizID string) (domain.AnswerKey, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.key, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.key, nil
		}
		r.mu.RUnlock()

		key, err := r.loader.Load(ctx, quizID)
		if err != nil {
			return domain.AnswerKey{}, err
		}

		r.mu.Lock()
		r.cache[quizID] = cachedKey{
			key:       key,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

func (r *KeyRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticKeySource is a map-backed loader for tests and demos.
type StaticKeySource struct {
	keys map[string]domain.AnswerKey
}

func NewStaticKeySource(keys map[string]domain.AnswerKey) *StaticKeySource {
	return &StaticKeySource{keys: keys}
}

func (s *StaticKeySource) Load(_ context.Context, quizID string) (domain.AnswerKey, error) {
	if key, ok := s.keys[quizID]; ok {
		return key, nil
	}
	return domain.AnswerKey{}, domain.ErrQuizNotFound
}

// Replace swaps the stored key for a quiz. Used in tests that exercise
// snapshot-at-link-creation semantics.
func (s *StaticKeySource) Replace(quizID string, key domain.AnswerKey) {
	s.keys[quizID] = key
}
