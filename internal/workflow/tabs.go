package workflow

import (
	"sync"

	"supervisor/internal/transport"
)

const defaultExecuteFile = "train.py"

// State is the per-tab workflow state. Fields are mutated only by handlers
// running on the controller loop, so they need no locking of their own.
type State struct {
	ID          int
	LastGitURL  string
	LastDirName string
	// PyFiles is the last successful read_py_files reply; must be set
	// before an edit task can be generated.
	PyFiles *transport.Reply
	// ExecuteFile is the script run_in_venv targets.
	ExecuteFile string
}

// Tabs allocates and tracks workflow scopes. Tab ids are allocated by the
// controller as a monotonically increasing integer; the latest opened tab is
// the active one.
type Tabs struct {
	mu     sync.Mutex
	next   int
	active int
	byID   map[int]*State
}

func NewTabs() *Tabs {
	return &Tabs{byID: make(map[int]*State)}
}

// Open allocates the next tab id and makes it active.
func (t *Tabs) Open() *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	state := &State{ID: t.next, ExecuteFile: defaultExecuteFile}
	t.byID[state.ID] = state
	t.active = state.ID
	return state
}

// Get returns the tab with id, or nil.
func (t *Tabs) Get(id int) *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byID[id]
}

// Active returns the most recently opened tab still present, or nil.
func (t *Tabs) Active() *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byID[t.active]
}

// Close drops the tab, ending its workflow.
func (t *Tabs) Close(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byID, id)
}
