package pubsub

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// historyLimit bounds the replay cache kept per topic.
const historyLimit = 64

// Broker a simple in-memory pub/sub system.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan []byte // topic -> list of subscriber channels
	cache       map[string][][]byte      // topic -> recent messages
}

type WsMessage struct {
	Stream string `json:"stream"`
	Data   string `json:"data"`
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string][]chan []byte),
		cache:       make(map[string][][]byte),
	}
}

// Subscribe subscribes to a topic. It first sends the cached messages to the
// new subscriber, then adds the subscriber to receive live messages.
func (b *Broker) Subscribe(topic string) (<-chan []byte, func()) {
	b.mu.Lock()

	ch := make(chan []byte, 128)

	history := make([][]byte, len(b.cache[topic]))
	copy(history, b.cache[topic])
	for _, msg := range history {
		ch <- msg
	}

	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			subscribers := b.subscribers[topic]
			for i, sub := range subscribers {
				if sub == ch {
					b.subscribers[topic] = append(subscribers[:i], subscribers[i+1:]...)
					close(ch)
					break
				}
			}
			zap.S().Debugf("unsubscribed from topic %s", topic)
		})
	}

	zap.S().Debugf("new subscription to topic %s, sent %d cached messages", topic, len(history))
	return ch, unsubscribe
}

// Publish publishes a message to all subscribers of a topic and caches it.
func (b *Broker) Publish(topic string, msg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cached := append(b.cache[topic], msg)
	if len(cached) > historyLimit {
		cached = cached[len(cached)-historyLimit:]
	}
	b.cache[topic] = cached

	// Non-blocking: a slow subscriber loses messages rather than stalling
	// the publisher.
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// CloseTopic closes all subscriber channels and clears the cache for a given topic.
func (b *Broker) CloseTopic(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[topic]; ok {
		for _, ch := range subscribers {
			close(ch)
		}
		delete(b.subscribers, topic)
	}
	delete(b.cache, topic)
	zap.S().Infof("closed pubsub topic %s and cleared cache", topic)
}

// Helper to format stream messages
func FormatMessage(streamType string, data string) []byte {
	msg := WsMessage{Stream: streamType, Data: data}
	bytes, err := json.Marshal(msg)
	if err != nil {
		return []byte(`{"stream": "error", "data": "json format error"}`)
	}
	return bytes
}
