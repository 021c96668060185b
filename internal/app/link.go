package app

import (
	"sync"
	"time"

	"quiz-link-service/internal/domain"
)

// Link is the in-memory seat state for one shareable quiz link. The answer
// key is frozen into the link at creation time so every submission through
// the link grades against the same question set, even if the source key is
// edited later.
//
// All seat mutations happen inside one critical section per link: the
// capacity check, the duplicate-identity check, the increment and the set
// insert either all happen or none do. A link never transitions back from
// full; Used never decrements.
type Link struct {
	token     string
	quizID    string
	ownerID   string
	capacity  int
	key       domain.AnswerKey
	createdAt time.Time
	now       func() time.Time

	mu          sync.RWMutex
	used        int
	identities  map[string]struct{}
	subscribers map[chan domain.LinkUsage]struct{}
	onChange    func(domain.LinkUsage)
}

// NewLink builds a link with zero used seats. Fails only on a non-positive
// capacity.
func NewLink(token, quizID, ownerID string, capacity int, key domain.AnswerKey) (*Link, error) {
	return newLinkWithClock(token, quizID, ownerID, capacity, key, time.Now)
}

// NewLinkWithClock is test-only for deterministic timestamps.
func NewLinkWithClock(token, quizID, ownerID string, capacity int, key domain.AnswerKey, now func() time.Time) (*Link, error) {
	return newLinkWithClock(token, quizID, ownerID, capacity, key, now)
}

func newLinkWithClock(token, quizID, ownerID string, capacity int, key domain.AnswerKey, now func() time.Time) (*Link, error) {
	if capacity <= 0 {
		return nil, domain.ErrInvalidCapacity
	}
	return &Link{
		token:       token,
		quizID:      quizID,
		ownerID:     ownerID,
		capacity:    capacity,
		key:         key,
		createdAt:   now(),
		now:         now,
		identities:  make(map[string]struct{}),
		subscribers: make(map[chan domain.LinkUsage]struct{}),
	}, nil
}

func (l *Link) Token() string   { return l.token }
func (l *Link) QuizID() string  { return l.quizID }
func (l *Link) OwnerID() string { return l.ownerID }

// Key returns the answer key frozen at creation.
func (l *Link) Key() domain.AnswerKey { return l.key }

// Usage returns the current seat snapshot.
func (l *Link) Usage() domain.LinkUsage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.usageLocked()
}

// CheckAccess gates whether the quiz may still be fetched through this link.
// A full link returns its usage alongside ErrCapacityExceeded so callers can
// display the state.
func (l *Link) CheckAccess() (domain.LinkUsage, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	usage := l.usageLocked()
	if l.used >= l.capacity {
		return usage, domain.ErrCapacityExceeded
	}
	return usage, nil
}

// RecordSubmission consumes one seat for the given identity key. Exactly one
// of N concurrent calls for the last seat succeeds; a repeated identity fails
// with ErrDuplicateSubmission and leaves the used count untouched.
func (l *Link) RecordSubmission(identity string) (domain.LinkUsage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.identities[identity]; seen {
		return l.usageLocked(), domain.ErrDuplicateSubmission
	}
	if l.used >= l.capacity {
		return l.usageLocked(), domain.ErrCapacityExceeded
	}
	l.identities[identity] = struct{}{}
	l.used++

	usage := l.usageLocked()
	l.broadcastLocked(usage)
	if l.onChange != nil {
		l.onChange(usage)
	}
	return usage, nil
}

// SetOnChange installs a hook invoked inside the critical section after each
// successful submission. Used by stores that mirror usage externally.
func (l *Link) SetOnChange(fn func(domain.LinkUsage)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// Subscribe returns a channel fed with usage snapshots, starting with the
// current one. The cancel func must be called to avoid leaks.
func (l *Link) Subscribe() (<-chan domain.LinkUsage, func()) {
	ch := make(chan domain.LinkUsage, 8)

	l.mu.Lock()
	l.subscribers[ch] = struct{}{}
	initial := l.usageLocked()
	l.mu.Unlock()

	ch <- initial

	cancel := func() {
		l.mu.Lock()
		if _, ok := l.subscribers[ch]; ok {
			delete(l.subscribers, ch)
			close(ch)
		}
		l.mu.Unlock()
	}
	return ch, cancel
}

func (l *Link) usageLocked() domain.LinkUsage {
	return domain.LinkUsage{
		Token:     l.token,
		QuizID:    l.quizID,
		Used:      l.used,
		Capacity:  l.capacity,
		Remaining: l.capacity - l.used,
	}
}

func (l *Link) broadcastLocked(usage domain.LinkUsage) {
	for ch := range l.subscribers {
		select {
		case ch <- usage:
		default:
			// Drop the stale snapshot so a slow watcher never blocks a
			// submission.
			select {
			case <-ch:
			default:
			}
			ch <- usage
		}
	}
}
