package feedback

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bassista/go_fuel/internal/logger"
)

// Toast is a visible, auto-dismissing notification.
type Toast struct {
	Event
	ExpiresAt time.Time `json:"expires_at"`
}

// Toasts holds the notifications currently on screen.
type Toasts struct {
	mu       sync.Mutex
	items    []Toast
	duration time.Duration
	now      func() time.Time
}

// NewToasts creates a toast list where each toast lives for duration.
func NewToasts(duration time.Duration) *Toasts {
	return &Toasts{duration: duration, now: time.Now}
}

// Emit shows e as a toast. Toasts satisfies Emitter so it can sit directly behind the controller.
func (t *Toasts) Emit(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, Toast{Event: e, ExpiresAt: t.now().Add(t.duration)})
}

// SetDuration changes the lifetime of toasts emitted from now on.
func (t *Toasts) SetDuration(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.duration = d
}

// Active returns the toasts that have not expired, oldest first.
func (t *Toasts) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	out := make([]Toast, 0, len(t.items))
	for _, it := range t.items {
		if now.Before(it.ExpiresAt) {
			out = append(out, it)
		}
	}
	return out
}

// Dismiss removes a toast early. It returns false if the id is unknown.
func (t *Toasts) Dismiss(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.items)
	t.items = slices.DeleteFunc(t.items, func(it Toast) bool { return it.ID == id })
	return len(t.items) != n
}

// sweep drops expired toasts and returns how many were dropped.
func (t *Toasts) sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	n := len(t.items)
	t.items = slices.DeleteFunc(t.items, func(it Toast) bool { return !now.Before(it.ExpiresAt) })
	return n - len(t.items)
}

// StartSweeper periodically drops expired toasts until ctx is done.
// Returns a channel that is closed when the sweeper has stopped.
func StartSweeper(ctx context.Context, toasts *Toasts, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	logger.WithComponent("toasts").Debugf("starting toast sweeper with interval: %v", interval)
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("toasts").Debug("toast sweeper stopped")
				return
			case <-ticker.C:
				if n := toasts.sweep(); n > 0 {
					logger.WithComponent("toasts").Tracef("dismissed %d expired toasts", n)
				}
			}
		}
	}()
	return done
}

// Forward copies every event from a bus subscription into sink until ctx is done
// or the subscription is cancelled.
func Forward(ctx context.Context, events <-chan Event, sink Emitter) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				sink.Emit(e)
			}
		}
	}()
	return done
}
