// Package workflow implements the per-tab state machine that turns executor
// replies and user input into the next action: clone, read files, create a
// venv, edit, run.
package workflow

import (
	"supervisor/internal/pending"
	"supervisor/internal/transport"
)

// Internal actions for user-originated events. Command is empty for these;
// the action alone disambiguates.
const (
	ActionUserInputNormal  = "user_input_normal"
	ActionUserInputPending = "user_input_pending"
)

// Event is the dispatch envelope: either an executor reply or a normalized
// user input.
type Event struct {
	Command string
	Action  string

	// Text is set for user input events.
	Text string
	// Pending is set when Text answers an approval prompt.
	Pending *pending.Action
	// Reply is set for executor replies.
	Reply *transport.Reply
}

// FromReply wraps an executor reply for dispatch.
func FromReply(r *transport.Reply) *Event {
	return &Event{
		Command: r.Command,
		Action:  r.Action,
		Reply:   r,
	}
}
