package editor

import (
	"sync"

	"go.uber.org/zap"
)

// Topic names an event on the bus.
type Topic string

const (
	// EventContentWillChange carries a [state.WillChangeEvent].
	EventContentWillChange Topic = "CONTENT_WILL_CHANGE"
	// EventContentChange carries a [state.ChangeEvent].
	EventContentChange Topic = "CONTENT_CHANGE"
	// EventMounted and EventUnmounted carry no payload.
	EventMounted   Topic = "MOUNTED"
	EventUnmounted Topic = "UNMOUNTED"
)

type Handler func(payload any)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously to the handlers of a topic in
// subscription order. A panicking handler is recovered and logged; the
// remaining handlers still run.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]subscription
	nextID   uint64
	logger   *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[Topic][]subscription),
		logger:   logger,
	}
}

// On subscribes handler to topic and returns a function removing it.
func (b *Bus) On(topic Topic, handler Handler) (off func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], subscription{id: id, handler: handler})

	return func() { b.off(topic, id) }
}

func (b *Bus) off(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[topic]
	for i, sub := range subs {
		if sub.id == id {
			b.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of handlers subscribed to topic.
func (b *Bus) Len(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}

func (b *Bus) Emit(topic Topic, payload any) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.call(topic, sub.handler, payload)
	}
}

func (b *Bus) call(topic Topic, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", zap.String("topic", string(topic)), zap.Any("panic", r))
		}
	}()
	handler(payload)
}
