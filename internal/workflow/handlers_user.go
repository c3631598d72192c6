package workflow

import (
	"fmt"

	"supervisor/internal/bridge"
	"supervisor/internal/classify"
	"supervisor/internal/pending"
	"supervisor/internal/prompts"
	"supervisor/internal/transport"
)

const readmePromptLimit = 2000

// handleUserInputNormal routes a fresh user request. A git or code command
// opens a new workflow tab; conversation goes straight back to the user.
func (h *Handlers) handleUserInputNormal(ev *Event) {
	command, persistent, err := h.router.Command(h.ctx, ev.Text)
	if err != nil {
		h.logger.Error("router: %v", err)
		h.bridge.Send(bridge.Message{Type: bridge.TypeError, Text: "language model unavailable"})
		return
	}

	switch command {
	case classify.CommandGit, classify.CommandCode:
		h.startGitWorkflow(ev.Text, persistent)

	case classify.CommandConversation:
		answer, err := h.llm.RunWithPrompt(h.ctx, h.prompts.Get(prompts.Conversation), ev.Text, 256, persistent)
		if err != nil {
			h.logger.Error("conversation: %v", err)
			h.bridge.Send(bridge.Message{Type: bridge.TypeError, Text: "language model unavailable"})
			return
		}
		h.bridge.Send(bridge.Message{Type: bridge.TypeMainInput, Text: answer})

	default:
		h.logger.Info("command %q has no workflow", command)
		h.sendLog(fmt.Sprintf("command %q is not supported yet", command), 0)
	}
}

// startGitWorkflow allocates a tab, summarizes the repository README when it
// can be fetched, and issues the clone.
func (h *Handlers) startGitWorkflow(text string, persistent bool) {
	url := ExtractURL(text)
	if url == "" {
		h.bridge.Send(bridge.Message{Type: bridge.TypeError, Text: "no repository URL found in request"})
		return
	}

	tab := h.tabs.Open()

	// README summary is best-effort; a fetch failure never blocks the clone.
	if readme, err := h.fetcher.ReadmeText(h.ctx, url); err == nil {
		body := readme
		if len(body) > readmePromptLimit {
			body = body[:readmePromptLimit]
		}
		if summary, err := h.llm.RunWithPrompt(h.ctx, h.prompts.Get(prompts.Git), body, 400, persistent); err == nil {
			h.bridge.Send(bridge.Message{Type: bridge.TypeInfo, Text: summary, TabID: tab.ID})
		} else {
			h.logger.Warn("readme summary: %v", err)
		}
	} else {
		h.logger.Info("readme fetch skipped: %v", err)
	}

	task := transport.NewTask("git", "clone_repo", nil, map[string]any{
		"git_url": url,
	})
	h.sendTask(task, tab.ID)
}

// handleUserInputPending consumes one approval. The answer's intent decides
// the transition; an unrecognized intent reads as negative.
func (h *Handlers) handleUserInputPending(ev *Event) {
	p := ev.Pending
	if p == nil {
		h.logger.Warn("pending input without a pending action, ignoring")
		return
	}
	tab := h.tabs.Get(p.TabID)
	if tab == nil {
		tab = h.tabs.Active()
	}
	if tab == nil {
		h.logger.Warn("pending %s for closed workflow %d, ignoring", p.Type, p.TabID)
		return
	}

	intent, err := h.intents.Intent(h.ctx, ev.Text, p.Msg.Response)
	if err != nil {
		h.logger.Error("intent classifier: %v", err)
		h.bridge.Send(bridge.Message{Type: bridge.TypeError, Text: "language model unavailable", TabID: tab.ID})
		return
	}
	h.sendLog("your intent: "+intent, tab.ID)

	switch p.Type {
	case pending.TypeReadPyFiles:
		h.resolveReadApproval(tab, intent)
	case pending.TypeGitEditRequest:
		h.resolveEditRequest(tab, p, intent, ev.Text)
	case pending.TypeGitEditConfirm:
		h.resolveEditConfirm(tab, p, intent)
	default:
		h.logger.Warn("unknown pending type %q", p.Type)
	}
}

func (h *Handlers) resolveReadApproval(tab *State, intent string) {
	if intent != classify.IntentPositive {
		h.bridge.Send(bridge.Message{Type: bridge.TypeInfo, Text: "It has been canceled.", TabID: tab.ID})
		h.tabs.Close(tab.ID)
		return
	}

	task := transport.NewTask("git", "create_venv", nil, map[string]any{
		"dir_path":     tab.LastDirName + "/",
		"requirements": "requirements.txt",
	})
	h.sendTask(task, tab.ID)
}

func (h *Handlers) resolveEditRequest(tab *State, p *pending.Action, intent, text string) {
	switch intent {
	case classify.IntentRevise:
		h.issueEditTask(tab, text)
	case classify.IntentPositive, classify.IntentDirect:
		h.issueRunTask(tab)
	default:
		h.bridge.Send(bridge.Message{Type: bridge.TypeInfo, Text: "It has been canceled.", TabID: tab.ID})
		h.tabs.Close(tab.ID)
	}
}

func (h *Handlers) resolveEditConfirm(tab *State, p *pending.Action, intent string) {
	switch intent {
	case classify.IntentPositive, classify.IntentDirect:
		h.issueRunTask(tab)
	case classify.IntentRevise:
		// Loop back to the modification question with the same context.
		reAsk := *p.Msg
		reAsk.Response = promptEditRequest
		h.pending.Add(pending.TypeGitEditRequest, &reAsk, tab.ID)
	default:
		h.bridge.Send(bridge.Message{Type: bridge.TypeInfo, Text: "Modification has been canceled.", TabID: tab.ID})
	}
}

// issueEditTask asks the model to rewrite files per the user's request and
// forwards the result to the executor. PyFiles must have been captured by a
// successful read_py_files first.
func (h *Handlers) issueEditTask(tab *State, userRequest string) {
	if tab.PyFiles == nil {
		h.bridge.Send(bridge.Message{Type: bridge.TypeError, Text: "no repository files loaded for this workflow", TabID: tab.ID})
		return
	}

	files := filesFromReply(tab.PyFiles)
	body := fmt.Sprintf("User request: %s\n\n%s", userRequest, mergeFiles(files))
	raw, err := h.llm.RunWithPrompt(h.ctx, h.prompts.Get(prompts.Edit), body, 2048, true)
	if err != nil {
		h.logger.Error("generate edit task: %v", err)
		h.bridge.Send(bridge.Message{Type: bridge.TypeError, Text: "language model unavailable", TabID: tab.ID})
		return
	}

	targets, contents, err := ParseEditOutput(raw)
	if err != nil {
		h.logger.Error("parse edit output: %v", err)
		h.bridge.Send(bridge.Message{Type: bridge.TypeError, Text: "could not parse proposed modification: " + err.Error(), TabID: tab.ID})
		return
	}

	metadata := make(map[string]any, len(contents)+1)
	for name, content := range contents {
		metadata[name] = content
	}
	h.sendTask(transport.NewTask("git", "edit", targets, metadata), tab.ID)
}

func (h *Handlers) issueRunTask(tab *State) {
	task := transport.NewTask("git", "run_in_venv", tab.ExecuteFile, map[string]any{
		"cwd":       tab.LastDirName + "/",
		"venv_path": tab.LastDirName + "/venv",
	})
	h.sendTask(task, tab.ID)
}
