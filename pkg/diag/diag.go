// Package diag implements the append-only diagnostics channel every
// engine component reports into. Consumers either drain the retained
// window or subscribe to a live feed.
package diag

import (
	"fmt"
	"sync"
	"time"
)

// Level classifies an event.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is one diagnostics record. Ordering is carried by Seq, which is
// unique and monotonically increasing across all producers.
type Event struct {
	Level   Level
	Message string
	Seq     uint64
	Time    time.Time
}

// DefaultCapacity bounds the retained window returned by Drain.
const DefaultCapacity = 1000

// Channel is a process-wide diagnostics sink. Appends are serialized by a
// single lock; subscribers receive events on buffered channels and are
// skipped (never waited on) when full, so no consumer can stall a producer.
type Channel struct {
	mu     sync.Mutex
	seq    uint64
	events []Event
	cap    int
	subs   map[int]chan Event
	nextID int
}

// NewChannel creates a channel retaining up to capacity events for Drain.
// Zero or negative capacity selects DefaultCapacity.
func NewChannel(capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Channel{
		cap:  capacity,
		subs: make(map[int]chan Event),
	}
}

// Append records an event and fans it out to live subscribers.
func (c *Channel) Append(level Level, message string) Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	ev := Event{Level: level, Message: message, Seq: c.seq, Time: time.Now()}

	c.events = append(c.events, ev)
	if len(c.events) > c.cap {
		c.events = c.events[len(c.events)-c.cap:]
	}

	for _, sub := range c.subs {
		select {
		case sub <- ev:
		default:
			// Subscriber lagging; drop rather than block the producer.
		}
	}
	return ev
}

// Infof appends an info-level event.
func (c *Channel) Infof(format string, args ...interface{}) {
	c.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf appends a warn-level event.
func (c *Channel) Warnf(format string, args ...interface{}) {
	c.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf appends an error-level event.
func (c *Channel) Errorf(format string, args ...interface{}) {
	c.Append(LevelError, fmt.Sprintf(format, args...))
}

// Drain returns the retained events in append order.
func (c *Channel) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Clear discards the retained window. Sequence numbers keep increasing.
func (c *Channel) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

// Subscribe returns a live feed of events appended after the call, plus a
// cancel function that closes the feed. The feed is not restartable.
func (c *Channel) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan Event, 256)
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}
