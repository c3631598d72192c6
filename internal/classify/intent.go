package classify

import (
	"context"
	"fmt"

	"supervisor/internal/llm"
	"supervisor/internal/logging"
	"supervisor/internal/prompts"
)

// Intents the classifier can return.
const (
	IntentPositive = "positive"
	IntentNegative = "negative"
	IntentRevise   = "revise"
	IntentDirect   = "direct"
)

var intentCandidates = []string{IntentPositive, IntentNegative, IntentRevise, IntentDirect}

// IntentClassifier decides how a user answered an approval prompt. An
// unrecognized model output falls back to negative: the safe reading of an
// unclear answer is "do not proceed".
type IntentClassifier struct {
	llm     llm.Client
	prompts *prompts.Set
	logger  logging.Logger
}

func NewIntentClassifier(client llm.Client, set *prompts.Set, logger logging.Logger) *IntentClassifier {
	return &IntentClassifier{
		llm:     client,
		prompts: set,
		logger:  logging.OrNop(logger),
	}
}

// Intent classifies answer, optionally paired with the question that
// prompted it.
func (c *IntentClassifier) Intent(ctx context.Context, answer, question string) (string, error) {
	content := answer
	if question != "" {
		content = fmt.Sprintf("Q: %s\nA: %s", question, answer)
	}

	messages := []llm.Message{
		{Role: "system", Content: c.prompts.Get(prompts.IntentClassifier)},
		{Role: "user", Content: content},
	}
	raw, err := c.llm.Generate(ctx, messages, classifierMaxTokens)
	if err != nil {
		return "", err
	}

	if matched, ok := matchToken(raw, intentCandidates); ok {
		return matched, nil
	}
	c.logger.Debug("unrecognized intent output %q, defaulting to negative", raw)
	return IntentNegative, nil
}
