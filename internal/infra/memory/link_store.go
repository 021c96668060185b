package memory

import (
	"sync"

	"quiz-link-service/internal/app"
)

// LinkStore is an in-memory implementation of app.LinkRegistry. Links are
// never evicted: a full link stays readable for reporting.
type LinkStore struct {
	mu    sync.RWMutex
	links map[string]*app.Link
}

func NewLinkStore() *LinkStore {
	return &LinkStore{
		links: make(map[string]*app.Link),
	}
}

func (s *LinkStore) Put(link *app.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[link.Token()] = link
}

func (s *LinkStore) Get(token string) (*app.Link, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[token]
	return link, ok
}
