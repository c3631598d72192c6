// Package events provides a small in-process publish/subscribe emitter.
// Topics are plain strings; listeners run synchronously on the emitting
// goroutine, outside the registry lock.
package events

import (
	"sync"

	"supervisor/internal/logging"
)

// Listener receives the value passed to Emit.
type Listener func(v any)

type Emitter struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	logger    logging.Logger
}

func NewEmitter(logger logging.Logger) *Emitter {
	return &Emitter{
		listeners: make(map[string][]Listener),
		logger:    logging.OrNop(logger),
	}
}

// On appends fn to the listener list for topic. Listeners added during an
// emission only observe subsequent emissions.
func (e *Emitter) On(topic string, fn Listener) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.listeners[topic] = append(e.listeners[topic], fn)
	e.mu.Unlock()
}

// Emit invokes every listener registered for topic with v. The listener list
// is snapshotted under the lock and invoked outside it; a panicking listener
// is logged and never takes down the emitter.
func (e *Emitter) Emit(topic string, v any) {
	e.mu.RLock()
	snapshot := make([]Listener, len(e.listeners[topic]))
	copy(snapshot, e.listeners[topic])
	e.mu.RUnlock()

	for _, fn := range snapshot {
		e.invoke(topic, fn, v)
	}
}

func (e *Emitter) invoke(topic string, fn Listener, v any) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("listener for %q panicked: %v", topic, r)
		}
	}()
	fn(v)
}
