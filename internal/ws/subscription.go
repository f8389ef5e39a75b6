package ws

import (
	"context"
	"iter"
	"sync"

	"github.com/tzheng846/studyWme/internal/models"
)

const subscriptionBuffer = 16

// Subscription is a cancellable feed of session snapshots. Per session, a
// snapshot whose Version is not newer than the last one offered is dropped,
// and when the consumer falls behind the oldest buffered snapshot gives way
// to the newest.
type Subscription struct {
	hub   *Hub
	topic string
	ch    chan models.Session

	mu       sync.Mutex
	closed   bool
	versions map[string]int64
	once     sync.Once
}

func newSubscription(hub *Hub, topic string) *Subscription {
	return &Subscription{
		hub:      hub,
		topic:    topic,
		ch:       make(chan models.Session, subscriptionBuffer),
		versions: make(map[string]int64),
	}
}

func (s *Subscription) Topic() string { return s.topic }

// C exposes the raw channel. It is closed by Close.
func (s *Subscription) C() <-chan models.Session { return s.ch }

// Offer queues a snapshot unless it is stale or the subscription is closed.
func (s *Subscription) Offer(session models.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if last, seen := s.versions[session.ID]; seen && session.Version <= last {
		return false
	}
	s.versions[session.ID] = session.Version

	select {
	case s.ch <- session:
		return true
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- session:
		return true
	default:
		return false
	}
}

// Snapshots yields snapshots until ctx is done, the consumer stops, or the
// subscription is closed.
func (s *Subscription) Snapshots(ctx context.Context) iter.Seq[models.Session] {
	return func(yield func(models.Session) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case session, ok := <-s.ch:
				if !ok || !yield(session) {
					return
				}
			}
		}
	}
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		close(s.ch)
	})
}
