package workflow

import (
	"fmt"
	"strings"

	"supervisor/internal/bridge"
	"supervisor/internal/pending"
	"supervisor/internal/prompts"
	"supervisor/internal/transport"
)

// handleCloneRepo runs after the executor finished a clone. The git URL and
// derived directory name are stored on the tab strictly before any dependent
// action is issued.
func (h *Handlers) handleCloneRepo(ev *Event) {
	reply := ev.Reply
	tab := h.tabFor(reply)
	if tab == nil {
		h.logger.Warn("clone_repo reply without a workflow, ignoring")
		return
	}
	if h.failed(reply, tab.ID) {
		return
	}

	gitURL := reply.MetaString("git_url")
	dirName := ExtractRepoName(gitURL)
	tab.LastGitURL = gitURL
	tab.LastDirName = dirName

	repo := dirName
	if stdout, ok := reply.Metadata["stdout"].(map[string]any); ok {
		if name, ok := stdout["repo"].(string); ok && name != "" {
			repo = name
		}
	}
	h.bridge.Send(bridge.Message{
		Type: bridge.TypeInfo,
		Text: fmt.Sprintf("clone_repo finished\nrepo: %s\nresult: %s\nlocation: %s",
			repo, reply.Result, reply.MetaString("dir_path")),
		TabID: tab.ID,
	})

	task := transport.NewTask("git", "read_py_files", nil, map[string]any{
		"dir_path": dirName,
	})
	h.sendTask(task, tab.ID)
}

// handleReadPyFiles stores the file listing, produces the experiment
// summary, and gates the workflow on the first approval.
func (h *Handlers) handleReadPyFiles(ev *Event) {
	reply := ev.Reply
	tab := h.tabFor(reply)
	if tab == nil {
		h.logger.Warn("read_py_files reply without a workflow, ignoring")
		return
	}
	if h.failed(reply, tab.ID) {
		return
	}

	reply.Response = promptIsCorrect
	tab.PyFiles = reply

	files := filesFromReply(reply)
	if len(files) == 0 {
		h.bridge.Send(bridge.Message{Type: bridge.TypeError, Text: "no Python files found in " + tab.LastDirName, TabID: tab.ID})
		return
	}

	systemSummary, userSummary, err := h.summarizeExperiment(files)
	if err != nil {
		h.logger.Error("summarize experiment: %v", err)
		systemSummary = "Summary unavailable: " + err.Error()
	}
	h.bridge.Send(bridge.Message{Type: bridge.TypeSummary, Text: systemSummary, TabID: tab.ID})
	if userSummary != "" {
		h.bridge.Send(bridge.Message{Type: bridge.TypeSummary, Text: userSummary, TabID: tab.ID})
	}

	// Enqueue never blocks; the controller loop sends the pending_request.
	h.pending.Add(pending.TypeReadPyFiles, reply, tab.ID)
}

// summarizeExperiment merges the files into one prompt and splits the answer
// on the [System Summary] / [User Summary] markers.
func (h *Handlers) summarizeExperiment(files []FileEntry) (systemSummary, userSummary string, err error) {
	raw, err := h.llm.RunWithPrompt(h.ctx, h.prompts.Get(prompts.SummarizeExperiment), mergeFiles(files), 256, true)
	if err != nil {
		return "", "", err
	}

	if idx := strings.Index(raw, "[User Summary]"); idx >= 0 {
		systemSummary = strings.TrimSpace(strings.ReplaceAll(raw[:idx], "[System Summary]", ""))
		userSummary = strings.TrimSpace(raw[idx+len("[User Summary]"):])
		return systemSummary, userSummary, nil
	}
	return strings.TrimSpace(raw), "", nil
}

// handleCreateVenv gates on the edit decision once the venv is ready.
func (h *Handlers) handleCreateVenv(ev *Event) {
	reply := ev.Reply
	tab := h.tabFor(reply)
	if tab == nil {
		h.logger.Warn("create_venv reply without a workflow, ignoring")
		return
	}
	if h.failed(reply, tab.ID) {
		return
	}

	reply.Response = promptEditRequest
	h.pending.Add(pending.TypeGitEditRequest, reply, tab.ID)
}

// handleEdit shows the proposed modification as a unified diff and gates on
// the final confirmation.
func (h *Handlers) handleEdit(ev *Event) {
	reply := ev.Reply
	tab := h.tabFor(reply)
	if tab == nil {
		h.logger.Warn("edit reply without a workflow, ignoring")
		return
	}
	if h.failed(reply, tab.ID) {
		return
	}

	oldContents := make(map[string]string)
	if tab.PyFiles != nil {
		for _, f := range filesFromReply(tab.PyFiles) {
			oldContents[f.Filename] = f.Content
		}
	}

	var dump []string
	for filename, content := range editedFiles(reply) {
		result := h.diff.Render(filename, oldContents[filename], content)
		dump = append(dump, fmt.Sprintf("%s (%s)\n%s", filename, result.Summary(), result.Unified))
	}
	h.bridge.Send(bridge.Message{Type: bridge.TypeDiff, Text: strings.Join(dump, "\n"), TabID: tab.ID})

	reply.Response = promptEditConfirm
	h.pending.Add(pending.TypeGitEditConfirm, reply, tab.ID)
}

// handleRunInVenv forwards the training outcome. This is the terminal step:
// stdout on success, stderr on failure.
func (h *Handlers) handleRunInVenv(ev *Event) {
	reply := ev.Reply
	tab := h.tabFor(reply)
	tabID := 0
	if tab != nil {
		tabID = tab.ID
	}

	if !reply.Succeeded() {
		stderr := reply.Stderr()
		if stderr == "" {
			stderr = "training failed"
		}
		h.bridge.Send(bridge.Message{Type: bridge.TypeError, Text: stderr, TabID: tabID})
		return
	}

	h.bridge.Send(bridge.Message{Type: bridge.TypeResult, Text: "Training complete!", TabID: tabID})
	if stdout, ok := reply.Metadata["stdout"]; ok {
		h.bridge.Send(bridge.Message{Type: bridge.TypeResult, Text: stdout, TabID: tabID})
	}
}
