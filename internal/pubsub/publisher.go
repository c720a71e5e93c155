package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	EventContestUpdated     = "contest.updated"
	EventLeaderboardUpdated = "leaderboard.updated"
	EventContestCompleted   = "contest.completed"
	EventQuestionAdded      = "question.added"
)

// Event is a best-effort notification about contest state.
type Event struct {
	Type      string      `json:"type"`
	ContestID string      `json:"contest_id"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewEvent(eventType, contestID string, data interface{}) Event {
	return Event{Type: eventType, ContestID: contestID, Data: data, Timestamp: time.Now()}
}

// ContestTopic is the broker topic carrying events of one contest.
func ContestTopic(contestID string) string {
	return "contest:" + contestID
}

// Publisher delivers events to live listeners. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Local publishes onto an in-process Broker, feeding websocket subscribers.
type Local struct {
	broker *Broker
}

func NewLocal(b *Broker) *Local {
	return &Local{broker: b}
}

func (l *Local) Publish(_ context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	topic := ContestTopic(e.ContestID)
	l.broker.Publish(topic, FormatMessage(e.Type, string(payload)))
	// A completed contest emits nothing further; release its listeners.
	if e.Type == EventContestCompleted {
		l.broker.CloseTopic(topic)
	}
	return nil
}
