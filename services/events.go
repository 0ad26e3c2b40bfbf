package services

import (
	"sync"
	"time"
)

// Event kinds published by the stores.
const (
	EventArticleInserted = "article_inserted"
	EventArticleUpdated  = "article_updated"
	EventLogInserted     = "log_inserted"
)

type Event struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// EventBus fans out store events to in-process subscribers. Slow subscribers
// drop events rather than blocking the pipeline.
type EventBus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]chan Event)}
}

func (b *EventBus) Publish(kind, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	event := Event{Kind: kind, Message: message, At: time.Now()}
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full, drop the event
		}
	}
}

// Subscribe registers a new subscriber. The returned subscription must be
// stopped to release it; its channel is closed on Stop.
func (b *EventBus) Subscribe(buffer int) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Event, buffer)
	b.subs[id] = ch

	return &Subscription{bus: b, id: id, C: ch}
}

type Subscription struct {
	bus  *EventBus
	id   int
	C    chan Event
	once sync.Once
}

// Stop unsubscribes and closes the channel. Safe to call more than once.
func (s *Subscription) Stop() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
		close(s.C)
	})
}
