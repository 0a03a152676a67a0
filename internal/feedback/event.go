package feedback

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bassista/go_fuel/internal/logger"
)

// Level tells success notifications from error notifications.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Event is a one-shot outcome notification for a user-triggered mutation.
type Event struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Entity  string    `json:"entity"`
	Action  string    `json:"action"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(level Level, entity, action, message string) Event {
	return Event{
		ID:      uuid.NewString(),
		Level:   level,
		Entity:  entity,
		Action:  action,
		Message: message,
		At:      time.Now(),
	}
}

// Emitter is the only thing the CRUD controller knows about feedback.
type Emitter interface {
	Emit(Event)
}

// Bus fans events out to subscribers without ever blocking the emitter.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	buffer int
}

// NewBus creates a bus whose subscriber channels hold buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{subs: map[int]chan Event{}, buffer: buffer}
}

// Emit delivers e to every subscriber that has room; full subscribers miss it.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			logger.WithComponent("feedback").Warnf("subscriber %d is full, dropped %s event %s", id, e.Level, e.ID)
		}
	}
}

// Subscribe returns a channel of future events and a cancel func that closes it.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}
