// Package prompts loads the system prompts used by the classifiers and the
// git workflow. A default set is embedded; a YAML file on disk overrides it.
package prompts

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Required prompt names.
const (
	Classifier          = "classifier"
	IntentClassifier    = "intent_classifier"
	Git                 = "git"
	SummarizeExperiment = "summarize_experiment"
	Edit                = "edit"
	Conversation        = "conversation"
)

var required = []string{
	Classifier, IntentClassifier, Git, SummarizeExperiment, Edit, Conversation,
}

// Set maps prompt names to system prompt text.
type Set struct {
	prompts map[string]string
}

// Load reads the prompts file at path, or the embedded defaults when path is
// empty. Loaded once at startup.
func Load(path string) (*Set, error) {
	raw := defaultPrompts
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompts file: %w", err)
		}
		raw = data
	}

	prompts := make(map[string]string)
	if err := yaml.Unmarshal(raw, &prompts); err != nil {
		return nil, fmt.Errorf("parse prompts file: %w", err)
	}
	for _, name := range required {
		if prompts[name] == "" {
			return nil, fmt.Errorf("prompts file missing %q", name)
		}
	}
	return &Set{prompts: prompts}, nil
}

// Get returns the prompt text for name, or "" when unknown.
func (s *Set) Get(name string) string {
	return s.prompts[name]
}
