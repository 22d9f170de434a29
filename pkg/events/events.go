package events

import (
	"context"
	"sync"
	"time"
)

// Type identifies the kind of change an Event describes.
type Type string

const (
	DeviceAdded   Type = "device.added"
	DeviceUpdated Type = "device.updated"
	DeviceRemoved Type = "device.removed"
	CableAdded    Type = "cable.added"
	CableRemoved  Type = "cable.removed"
	ProjectSaved  Type = "project.saved"
	ProjectLoaded Type = "project.loaded"
)

// Event is a single graph change notification.
type Event struct {
	Type      Type      `json:"type"`
	DeviceID  string    `json:"device_id,omitempty"`
	CableID   string    `json:"cable_id,omitempty"`
	Project   string    `json:"project,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Bus fans graph change events out to subscribers for real-time updates.
type Bus struct {
	subscribers map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
}

// Subscription receives every event published to the bus.
type Subscription struct {
	channel   chan Event
	bus       *Bus
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once // Ensures channel is only closed once
}

// New creates an event bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[*Subscription]bool),
		shutdown:    make(chan struct{}),
	}
}

// Subscribe registers a listener for all events. The subscription is
// removed automatically when ctx is cancelled. Returns nil after Close.
func (b *Bus) Subscribe(ctx context.Context) *Subscription {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil
	}
	b.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		channel: make(chan Event, 64), // Buffer for events
		bus:     b,
		ctx:     subCtx,
		cancel:  cancel,
	}

	b.mu.Lock()
	b.subscribers[sub] = true
	b.mu.Unlock()

	// Monitor context cancellation
	go func() {
		select {
		case <-subCtx.Done():
			sub.Cancel()
		case <-b.shutdown:
			sub.close()
		}
	}()

	return sub
}

// Publish delivers an event to all subscribers. A zero Timestamp is
// stamped with the current time. Subscribers with full buffers are
// skipped so a slow consumer never blocks the publisher.
func (b *Bus) Publish(ev Event) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.shutdownMu.Unlock()

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	// Snapshot subscribers under lock to avoid racing a concurrent
	// Cancel while iterating, then send outside the lock.
	b.mu.RLock()
	if len(b.subscribers) == 0 {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(b.subscribers))
	for sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.channel <- ev:
		default:
			// Channel full, skip (non-blocking)
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts the bus down and closes all subscription channels.
func (b *Bus) Close() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	b.shutdownMu.Unlock()

	close(b.shutdown)

	b.mu.Lock()
	for sub := range b.subscribers {
		sub.close()
		delete(b.subscribers, sub)
	}
	b.mu.Unlock()
}

// Events returns the subscription's receive channel. It is closed when
// the subscription is cancelled or the bus shuts down.
func (s *Subscription) Events() <-chan Event {
	return s.channel
}

// Cancel removes the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.cancel()

	s.bus.mu.Lock()
	delete(s.bus.subscribers, s)
	s.bus.mu.Unlock()

	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
