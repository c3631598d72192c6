package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	set, err := Load("")
	require.NoError(t, err)

	for _, name := range required {
		assert.NotEmpty(t, set.Get(name), "embedded prompt %q", name)
	}
	assert.Empty(t, set.Get("no_such_prompt"))
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := `classifier: "route the request"
intent_classifier: "classify the answer"
git: "summarize the repo"
summarize_experiment: "summarize the experiment"
edit: "rewrite the files"
conversation: "chat"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	set, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "route the request", set.Get(Classifier))
	assert.Equal(t, "chat", set.Get(Conversation))
}

func TestLoadRejectsIncompleteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`classifier: "only one"`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
