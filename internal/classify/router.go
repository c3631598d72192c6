package classify

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"supervisor/internal/llm"
	"supervisor/internal/logging"
	"supervisor/internal/prompts"
)

// Commands the router can return.
const (
	CommandGit          = "git"
	CommandCode         = "code"
	CommandTrain        = "train"
	CommandConversation = "conversation"
)

var routerCandidates = []string{CommandGit, CommandCode, CommandTrain, CommandConversation}

const classifierMaxTokens = 8

// Router classifies a fresh user request into one command. Results are
// cached by input text: repeated identical requests skip the model call.
type Router struct {
	llm     llm.Client
	prompts *prompts.Set
	cache   *lru.Cache[string, string]
	logger  logging.Logger
}

func NewRouter(client llm.Client, set *prompts.Set, logger logging.Logger) *Router {
	cache, err := lru.New[string, string](256)
	if err != nil {
		// lru.New only errors on a non-positive size.
		cache = nil
	}
	return &Router{
		llm:     client,
		prompts: set,
		cache:   cache,
		logger:  logging.OrNop(logger),
	}
}

// Command returns the routed command and whether the LLM should retain the
// exchange in conversation memory (only for conversation).
func (r *Router) Command(ctx context.Context, text string) (command string, persistent bool, err error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(text); ok {
			return cached, cached == CommandConversation, nil
		}
	}

	messages := []llm.Message{
		{Role: "system", Content: r.prompts.Get(prompts.Classifier)},
		{Role: "user", Content: text},
	}
	raw, err := r.llm.Generate(ctx, messages, classifierMaxTokens)
	if err != nil {
		return "", false, err
	}

	command = CommandConversation
	if matched, ok := matchToken(raw, routerCandidates); ok {
		command = matched
	} else {
		r.logger.Debug("unrecognized router output %q, defaulting to conversation", raw)
	}
	if r.cache != nil {
		r.cache.Add(text, command)
	}
	return command, command == CommandConversation, nil
}
