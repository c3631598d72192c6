package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supervisor/internal/llm"
	"supervisor/internal/logging"
	"supervisor/internal/prompts"
)

func loadPrompts(t *testing.T) *prompts.Set {
	t.Helper()
	set, err := prompts.Load("")
	require.NoError(t, err)
	return set
}

func TestMatchTokenWholeWordOnly(t *testing.T) {
	cases := []struct {
		raw     string
		want    string
		matched bool
	}{
		{"git", "git", true},
		{"  GIT\n", "git", true},
		{"git.", "git", true},
		{"The command is: conversation", "conversation", true},
		{"not revising now", "", false},
		{"gitlab", "", false},
		{"", "", false},
		{"digits 123", "", false},
	}
	for _, tc := range cases {
		got, ok := matchToken(tc.raw, []string{"git", "code", "train", "conversation", "revise"})
		assert.Equal(t, tc.matched, ok, "raw=%q", tc.raw)
		if tc.matched {
			assert.Equal(t, tc.want, got, "raw=%q", tc.raw)
		}
	}
}

func TestRouterCommands(t *testing.T) {
	set := loadPrompts(t)
	mock := llm.NewMockClient("git", "conversation", "something else entirely")
	r := NewRouter(mock, set, logging.Nop())

	command, persistent, err := r.Command(context.Background(), "clone https://github.com/karpathy/nanoGPT")
	require.NoError(t, err)
	assert.Equal(t, CommandGit, command)
	assert.False(t, persistent)

	command, persistent, err = r.Command(context.Background(), "how are you today")
	require.NoError(t, err)
	assert.Equal(t, CommandConversation, command)
	assert.True(t, persistent)

	// Unrecognized output falls back to conversation.
	command, persistent, err = r.Command(context.Background(), "do a backflip")
	require.NoError(t, err)
	assert.Equal(t, CommandConversation, command)
	assert.True(t, persistent)
}

func TestRouterCachesByInputText(t *testing.T) {
	set := loadPrompts(t)
	mock := llm.NewMockClient("git")
	r := NewRouter(mock, set, logging.Nop())

	for i := 0; i < 3; i++ {
		command, _, err := r.Command(context.Background(), "clone the repo")
		require.NoError(t, err)
		assert.Equal(t, CommandGit, command)
	}
	assert.Len(t, mock.Calls(), 1, "repeated identical input must hit the cache")
}

func TestRouterCapsGeneration(t *testing.T) {
	set := loadPrompts(t)
	mock := llm.NewMockClient("git")
	r := NewRouter(mock, set, logging.Nop())

	_, _, err := r.Command(context.Background(), "clone it")
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 8, calls[0].MaxNewTokens)
}

func TestIntentClassifier(t *testing.T) {
	set := loadPrompts(t)
	mock := llm.NewMockClient("positive", "revise, please", "no idea what you mean")
	c := NewIntentClassifier(mock, set, logging.Nop())

	intent, err := c.Intent(context.Background(), "yes", "Is this correct?")
	require.NoError(t, err)
	assert.Equal(t, IntentPositive, intent)

	intent, err = c.Intent(context.Background(), "change the learning rate", "Modify?")
	require.NoError(t, err)
	assert.Equal(t, IntentRevise, intent)

	// Unrecognized output reads as negative.
	intent, err = c.Intent(context.Background(), "hmm", "Proceed?")
	require.NoError(t, err)
	assert.Equal(t, IntentNegative, intent)
}

func TestIntentIncludesQuestionContext(t *testing.T) {
	set := loadPrompts(t)
	mock := llm.NewMockClient("negative")
	c := NewIntentClassifier(mock, set, logging.Nop())

	_, err := c.Intent(context.Background(), "no thanks", "Is this correct?")
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Messages, 2)
	assert.Contains(t, calls[0].Messages[1].Content, "Q: Is this correct?")
	assert.Contains(t, calls[0].Messages[1].Content, "A: no thanks")
}
