package realtime

import (
	"context"
	"damoyeo/internal/database"
	"encoding/json"
	"log"
	"sync"

	"github.com/lib/pq"
)

func MessagesTopic(chatID string) string {
	return "messages:" + chatID
}

func RoomsTopic(userID string) string {
	return "rooms:" + userID
}

// roomChange is the payload of a chat_rooms notification.
type roomChange struct {
	ChatID string   `json:"chat_id"`
	Users  []string `json:"users"`
}

// Subscription receives a signal whenever its topic changes. Signals
// coalesce: a slow reader sees one pending signal, never a backlog, and is
// expected to reload the full state on each one.
type Subscription struct {
	topic  string
	C      chan struct{}
	broker *Broker
	once   sync.Once
}

func (s *Subscription) Topic() string {
	return s.topic
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.unsubscribe(s)
	})
}

// Broker fans database notifications out to topic subscribers.
type Broker struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		topics: make(map[string]map[*Subscription]struct{}),
	}
}

func (b *Broker) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		topic:  topic,
		C:      make(chan struct{}, 1),
		broker: b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.topics[topic]; !ok {
		b.topics[topic] = make(map[*Subscription]struct{})
	}
	b.topics[topic][sub] = struct{}{}

	return sub
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[sub.topic]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.topics, sub.topic)
	}
}

// Subscribers returns how many subscriptions the topic has.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

func (b *Broker) Publish(topic string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.topics[topic] {
		signal(sub)
	}
}

// PublishAll wakes every subscriber. Used after the listener reconnects,
// when notifications may have been lost.
func (b *Broker) PublishAll() {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, subs := range b.topics {
		for sub := range subs {
			signal(sub)
		}
	}
}

func signal(sub *Subscription) {
	select {
	case sub.C <- struct{}{}:
	default:
	}
}

// Dispatch routes one notification to the matching topics.
func (b *Broker) Dispatch(n *pq.Notification) {
	if n == nil {
		b.PublishAll()
		return
	}

	switch n.Channel {
	case database.ChannelChatMessages:
		b.Publish(MessagesTopic(n.Extra))
	case database.ChannelChatRooms:
		var change roomChange
		if err := json.Unmarshal([]byte(n.Extra), &change); err != nil {
			log.Printf("Некорректное уведомление %s: %v", n.Channel, err)
			return
		}
		for _, userID := range change.Users {
			b.Publish(RoomsTopic(userID))
		}
	default:
		log.Printf("Уведомление из неизвестного канала: %s", n.Channel)
	}
}

// Run dispatches notifications until ctx is done or the channel is closed.
func (b *Broker) Run(ctx context.Context, notifications <-chan *pq.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			b.Dispatch(n)
		}
	}
}
