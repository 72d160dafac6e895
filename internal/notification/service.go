package notification

import (
	"sync"
	"time"
)

// EventType names what happened to the ledger.
type EventType string

const (
	SyncStarted   EventType = "sync.started"
	SyncCompleted EventType = "sync.completed"
	SyncFailed    EventType = "sync.failed"
	ImportDone    EventType = "import.completed"
)

// Event is one entry in the feed.
type Event struct {
	Type             EventType `json:"type"`
	RunID            string    `json:"runId"`
	Source           string    `json:"source"`
	RecordsProcessed int       `json:"recordsProcessed"`
	Changed          bool      `json:"changed"`
	Error            string    `json:"error,omitempty"`
	At               time.Time `json:"at"`
}

// NotificationService keeps a bounded history of events and fans new ones
// out to subscribers. Slow subscribers miss events rather than block Publish.
type NotificationService struct {
	mu          sync.Mutex
	events      []Event
	limit       int
	subscribers map[int]chan Event
	nextID      int
}

func NewNotificationService(limit int) *NotificationService {
	if limit <= 0 {
		limit = 100
	}
	return &NotificationService{
		events:      make([]Event, 0, limit),
		limit:       limit,
		subscribers: make(map[int]chan Event),
	}
}

func (ns *NotificationService) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if len(ns.events) == ns.limit {
		copy(ns.events, ns.events[1:])
		ns.events = ns.events[:ns.limit-1]
	}
	ns.events = append(ns.events, e)

	for _, ch := range ns.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// Recent returns a copy of the history, oldest first.
func (ns *NotificationService) Recent() []Event {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	out := make([]Event, len(ns.events))
	copy(out, ns.events)
	return out
}

// Subscribe registers a listener. The returned cancel func closes the channel.
func (ns *NotificationService) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	ns.mu.Lock()
	id := ns.nextID
	ns.nextID++
	ns.subscribers[id] = ch
	ns.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			ns.mu.Lock()
			delete(ns.subscribers, id)
			ns.mu.Unlock()
			close(ch)
		})
	}
}

func (ns *NotificationService) Clear() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.events = ns.events[:0]
}
