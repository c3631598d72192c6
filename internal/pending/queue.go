// Package pending holds approval requests awaiting a user response. The
// queue is the only place a workflow blocks on human input.
package pending

import (
	"sync"

	"github.com/google/uuid"

	"supervisor/internal/events"
	"supervisor/internal/metrics"
	"supervisor/internal/transport"
)

// TopicPendingAdded is emitted with the new *Action on every Add.
const TopicPendingAdded = "pending_added"

// Known pending types, one per approval point in the git workflow.
const (
	TypeReadPyFiles    = "read_py_files"
	TypeGitEditRequest = "git_edit_request"
	TypeGitEditConfirm = "git_edit_confirm"
)

// Action is one queued approval request. Msg carries the reply that caused
// the prompt so the consuming handler can reconstruct context.
type Action struct {
	ID    string
	Type  string
	Msg   *transport.Reply
	TabID int
}

// Queue is a FIFO of approval requests. Add is safe under producer
// concurrency; Pop is called only from the controller loop.
type Queue struct {
	mu      sync.Mutex
	items   []*Action
	emitter *events.Emitter
	notify  chan struct{}
}

func NewQueue(emitter *events.Emitter) *Queue {
	return &Queue{
		emitter: emitter,
		notify:  make(chan struct{}, 1),
	}
}

// Add allocates an id, appends the action, and emits pending_added. It also
// signals Notify so the controller loop wakes up alongside user input.
func (q *Queue) Add(actionType string, msg *transport.Reply, tabID int) string {
	item := &Action{
		ID:    uuid.NewString(),
		Type:  actionType,
		Msg:   msg,
		TabID: tabID,
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	depth := len(q.items)
	q.mu.Unlock()

	metrics.PendingDepth.Set(float64(depth))
	select {
	case q.notify <- struct{}{}:
	default:
	}
	if q.emitter != nil {
		q.emitter.Emit(TopicPendingAdded, item)
	}
	return item.ID
}

// Pop removes and returns the oldest action, or nil when empty.
func (q *Queue) Pop() *Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	metrics.PendingDepth.Set(float64(len(q.items)))
	return item
}

func (q *Queue) HasPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) > 0
}

// Notify returns a signal channel that receives after an Add. It is level
// rather than edge triggered: one buffered token, so a waiter never misses
// an enqueue.
func (q *Queue) Notify() <-chan struct{} {
	return q.notify
}
