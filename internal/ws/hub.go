package ws

import (
	"log"
	"sync"

	"github.com/tzheng846/studyWme/internal/models"
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	MessageSession = "session"
	MessageError   = "error"
)

// SessionTopic and UserTopic name the two kinds of feeds: one session, or
// every session a user belongs to.
func SessionTopic(sessionID string) string { return "session:" + sessionID }
func UserTopic(userID string) string { return "user:" + userID }

type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]bool
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*Subscription]bool),
	}
}

// Subscribe registers a new feed on topic. The caller owns it and must Close it.
func (h *Hub) Subscribe(topic string) *Subscription {
	sub := newSubscription(h, topic)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Subscription]bool)
	}
	h.topics[topic][sub] = true
	log.Printf("ws: subscribed to %s (total: %d)", topic, len(h.topics[topic]))
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, sub.topic)
		}
		log.Printf("ws: unsubscribed from %s", sub.topic)
	}
}

// Publish delivers a snapshot to the session's feed and to the feed of every
// member. alsoNotify names users who should hear about it even though they
// are no longer members, such as someone who just left.
func (h *Hub) Publish(session models.Session, alsoNotify ...string) {
	topics := make([]string, 0, len(session.Members)+len(alsoNotify)+1)
	topics = append(topics, SessionTopic(session.ID))
	for _, userID := range session.Members {
		topics = append(topics, UserTopic(userID))
	}
	for _, userID := range alsoNotify {
		topics = append(topics, UserTopic(userID))
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, topic := range topics {
		for sub := range h.topics[topic] {
			sub.Offer(session)
		}
	}
}

// Subscribers returns how many feeds are open on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
