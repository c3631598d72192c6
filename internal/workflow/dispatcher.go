package workflow

import (
	"sync"

	"supervisor/internal/logging"
	"supervisor/internal/metrics"
)

// HandlerFunc handles one dispatched event. Handlers never return errors;
// failures are surfaced to the Bridge by the handler itself.
type HandlerFunc func(ev *Event)

type dispatchKey struct {
	command string
	action  string
}

// Dispatcher routes events by (command, action). Handlers are registered at
// startup; an event with no match is logged and ignored.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[dispatchKey]HandlerFunc
	logger   logging.Logger
}

func NewDispatcher(logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[dispatchKey]HandlerFunc),
		logger:   logging.OrNop(logger),
	}
}

// Register binds fn to (command, action). command is "" for user input
// events.
func (d *Dispatcher) Register(command, action string, fn HandlerFunc) {
	d.mu.Lock()
	d.handlers[dispatchKey{command, action}] = fn
	d.mu.Unlock()
}

// Dispatch invokes the handler for ev and reports whether one was found.
func (d *Dispatcher) Dispatch(ev *Event) bool {
	key := dispatchKey{ev.Command, ev.Action}
	d.mu.RLock()
	fn := d.handlers[key]
	d.mu.RUnlock()

	if fn == nil {
		metrics.UnknownDispatch.Inc()
		d.logger.Warn("no handler for (%q, %q), ignoring", ev.Command, ev.Action)
		return false
	}
	metrics.EventsDispatched.Inc()
	fn(ev)
	return true
}
