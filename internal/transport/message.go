package transport

// Task is the Controller→Executor command envelope. Target names the files
// or primary argument of the action and may be a string, a list of strings,
// or absent.
type Task struct {
	Command  string         `json:"command"`
	Action   string         `json:"action"`
	Target   any            `json:"target"`
	Metadata map[string]any `json:"metadata"`
}

// NewTask builds a Task, normalising a nil metadata map so handlers can
// always attach the tab id.
func NewTask(command, action string, target any, metadata map[string]any) *Task {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &Task{
		Command:  command,
		Action:   action,
		Target:   target,
		Metadata: metadata,
	}
}

// Reply is the Executor→Controller result envelope. Result is "success" or
// "fail"; Metadata carries stdout/stderr plus the echoed task inputs.
// Response is set locally when a reply becomes an approval prompt.
type Reply struct {
	Command  string         `json:"command"`
	Action   string         `json:"action"`
	Result   string         `json:"result"`
	Metadata map[string]any `json:"metadata"`
	Response string         `json:"response,omitempty"`
}

// Succeeded reports whether the executor completed the action.
func (r *Reply) Succeeded() bool {
	return r != nil && r.Result == "success"
}

// Stderr returns metadata.stderr as a string, or "" when absent.
func (r *Reply) Stderr() string {
	if r == nil || r.Metadata == nil {
		return ""
	}
	if s, ok := r.Metadata["stderr"].(string); ok {
		return s
	}
	return ""
}

// TabID extracts metadata.tabId. JSON numbers decode as float64, so both
// forms are accepted.
func (r *Reply) TabID() (int, bool) {
	if r == nil || r.Metadata == nil {
		return 0, false
	}
	switch v := r.Metadata["tabId"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// MetaString returns metadata[key] as a string, or "" when absent or not a
// string.
func (r *Reply) MetaString(key string) string {
	if r == nil || r.Metadata == nil {
		return ""
	}
	if s, ok := r.Metadata[key].(string); ok {
		return s
	}
	return ""
}
