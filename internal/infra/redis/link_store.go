package redis

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-link-service/internal/app"
	"quiz-link-service/internal/domain"
)

// LinkStore is a Redis-aware implementation of app.LinkRegistry.
// Notes:
//   - The atomic seat-critical-section stays on the in-process Link; Redis
//     mirrors each link's usage (hash per token) so operators and sibling
//     processes can read seat state.
//   - Mirror writes are best-effort: a Redis hiccup never blocks or fails a
//     submission.
//   - For true multi-instance seat accounting you'd replace the local
//     section with a Lua check-and-increment; a single writer per link is
//     assumed here.
type LinkStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	links  map[string]*app.Link
}

func NewLinkStore(client *redis.Client, ttl time.Duration) *LinkStore {
	return &LinkStore{
		client: client,
		ttl:    ttl,
		links:  make(map[string]*app.Link),
	}
}

func (s *LinkStore) Put(link *app.Link) {
	s.mu.Lock()
	s.links[link.Token()] = link
	s.mu.Unlock()

	s.mirror(link.Token(), link.QuizID(), link.Usage())
	link.SetOnChange(func(usage domain.LinkUsage) {
		// best-effort usage mirror
		_ = s.client.HSet(context.Background(), s.key(link.Token()), "used", usage.Used).Err()
	})
}

func (s *LinkStore) Get(token string) (*app.Link, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[token]
	return link, ok
}

func (s *LinkStore) mirror(token, quizID string, usage domain.LinkUsage) {
	ctx := context.Background()
	key := s.key(token)
	_ = s.client.HSet(ctx, key,
		"quiz_id", quizID,
		"capacity", strconv.Itoa(usage.Capacity),
		"used", strconv.Itoa(usage.Used),
	).Err()
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, key, s.ttl).Err()
	}
}

func (s *LinkStore) key(token string) string {
	return "quiz:link:" + token
}
