package workflow

import (
	"context"

	"supervisor/internal/bridge"
	"supervisor/internal/classify"
	"supervisor/internal/diffview"
	"supervisor/internal/llm"
	"supervisor/internal/logging"
	"supervisor/internal/pending"
	"supervisor/internal/prompts"
	"supervisor/internal/transport"
	"supervisor/internal/web"
)

// TaskSender delivers tasks to the executor.
type TaskSender interface {
	Send(task *transport.Task) error
}

// BridgeSender delivers messages to the UI. Enqueueing never blocks.
type BridgeSender interface {
	Send(v any)
}

// Approval prompts sent to the user at each gate.
const (
	promptIsCorrect   = "Is this correct?"
	promptEditRequest = "Would you like to make modifications, or proceed as is?"
	promptEditConfirm = "Shall we proceed with training using this modification?"
)

// Config carries the collaborators the handlers need.
type Config struct {
	LLM     llm.Client
	Prompts *prompts.Set
	Coder   TaskSender
	Bridge  BridgeSender
	Pending *pending.Queue
	Tabs    *Tabs
	Router  *classify.Router
	Intents *classify.IntentClassifier
	Fetcher *web.Fetcher
	Logger  logging.Logger
}

// Handlers holds the workflow state machine transitions. All handlers run on
// the controller loop (directly or via the emitter's single consumer), so
// tab state mutations are serialized.
type Handlers struct {
	ctx     context.Context
	llm     llm.Client
	prompts *prompts.Set
	coder   TaskSender
	bridge  BridgeSender
	pending *pending.Queue
	tabs    *Tabs
	router  *classify.Router
	intents *classify.IntentClassifier
	fetcher *web.Fetcher
	diff    *diffview.Generator
	logger  logging.Logger
}

func NewHandlers(ctx context.Context, cfg Config) *Handlers {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Handlers{
		ctx:     ctx,
		llm:     cfg.LLM,
		prompts: cfg.Prompts,
		coder:   cfg.Coder,
		bridge:  cfg.Bridge,
		pending: cfg.Pending,
		tabs:    cfg.Tabs,
		router:  cfg.Router,
		intents: cfg.Intents,
		fetcher: cfg.Fetcher,
		diff:    diffview.NewGenerator(false),
		logger:  logging.OrNop(cfg.Logger),
	}
}

// Register binds every workflow transition to the dispatcher.
func (h *Handlers) Register(d *Dispatcher) {
	d.Register("git", "clone_repo", h.handleCloneRepo)
	d.Register("git", "read_py_files", h.handleReadPyFiles)
	d.Register("git", "create_venv", h.handleCreateVenv)
	d.Register("git", "edit", h.handleEdit)
	d.Register("git", "run_in_venv", h.handleRunInVenv)
	d.Register("", ActionUserInputNormal, h.handleUserInputNormal)
	d.Register("", ActionUserInputPending, h.handleUserInputPending)
}

// tabFor resolves the workflow a reply belongs to: its echoed tabId first,
// the active tab as a fallback.
func (h *Handlers) tabFor(reply *transport.Reply) *State {
	if id, ok := reply.TabID(); ok {
		if tab := h.tabs.Get(id); tab != nil {
			return tab
		}
	}
	return h.tabs.Active()
}

// failed surfaces a failed reply to the Bridge and reports whether the
// workflow branch should terminate. No downstream task is issued after a
// failure and no retry is attempted.
func (h *Handlers) failed(reply *transport.Reply, tabID int) bool {
	if reply.Succeeded() {
		return false
	}
	stderr := reply.Stderr()
	if stderr == "" {
		stderr = "action " + reply.Action + " failed"
	}
	h.bridge.Send(bridge.Message{Type: bridge.TypeError, Text: stderr, TabID: tabID})
	h.logger.Warn("action %s failed: %s", reply.Action, stderr)
	return true
}

// sendTask issues a task to the executor, surfacing transport errors to the
// Bridge. A disconnected executor stalls the workflow; it resumes when the
// peer reconnects and the user retries.
func (h *Handlers) sendTask(task *transport.Task, tabID int) {
	task.Metadata["tabId"] = tabID
	if err := h.coder.Send(task); err != nil {
		h.logger.Error("send %s task: %v", task.Action, err)
		h.bridge.Send(bridge.Message{Type: bridge.TypeError, Text: "executor unavailable: " + err.Error(), TabID: tabID})
	}
}

func (h *Handlers) sendLog(text string, tabID int) {
	h.bridge.Send(bridge.Message{Type: bridge.TypeSupervisorLog, Text: text, TabID: tabID})
}
