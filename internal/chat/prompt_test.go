// ABOUTME: Tests for prompt assembly
// ABOUTME: Covers memory rendering and system directive placement

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowanlabs/rowan/internal/memory"
	"github.com/rowanlabs/rowan/internal/ollama"
)

func TestRenderMemories(t *testing.T) {
	t.Run("empty results render nothing", func(t *testing.T) {
		assert.Empty(t, renderMemories(nil))
		assert.Empty(t, renderMemories([]memory.SearchResult{}))
	})

	t.Run("results render role-tagged lines", func(t *testing.T) {
		prompt := renderMemories([]memory.SearchResult{
			{Role: "user", Content: "I have a cat named Jones"},
			{Role: "assistant", Content: "Jones sounds lovely"},
		})

		assert.Contains(t, prompt, "long-term memory")
		assert.Contains(t, prompt, "Relevant Past Memories:")
		assert.Contains(t, prompt, "[Past user]: I have a cat named Jones")
		assert.Contains(t, prompt, "[Past assistant]: Jones sounds lovely")
	})
}

func TestApplySystemPrompt(t *testing.T) {
	history := []ollama.ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}

	t.Run("empty prompt leaves messages untouched", func(t *testing.T) {
		out := applySystemPrompt(history, "")
		assert.Equal(t, history, out)
	})

	t.Run("prepends when no leading system message", func(t *testing.T) {
		out := applySystemPrompt(history, "directive")
		require.Len(t, out, 3)
		assert.Equal(t, ollama.ChatMessage{Role: "system", Content: "directive"}, out[0])
		assert.Equal(t, history[0], out[1])
	})

	t.Run("replaces an existing leading system message", func(t *testing.T) {
		withSystem := append([]ollama.ChatMessage{{Role: "system", Content: "old"}}, history...)
		out := applySystemPrompt(withSystem, "new")
		require.Len(t, out, 3)
		assert.Equal(t, "new", out[0].Content)
		assert.Equal(t, "hi", out[1].Content)
	})

	t.Run("does not touch a system message deeper in the history", func(t *testing.T) {
		mixed := []ollama.ChatMessage{
			{Role: "user", Content: "hi"},
			{Role: "system", Content: "mid-stream"},
		}
		out := applySystemPrompt(mixed, "directive")
		require.Len(t, out, 3)
		assert.Equal(t, "directive", out[0].Content)
		assert.Equal(t, "mid-stream", out[2].Content)
	})
}

func TestPrependSystem(t *testing.T) {
	out := prependSystem([]ollama.ChatMessage{
		{Role: "system", Content: "memories"},
		{Role: "user", Content: "hi"},
	}, forceEnglishPrompt)

	require.Len(t, out, 3)
	assert.Equal(t, forceEnglishPrompt, out[0].Content)
	assert.Equal(t, "memories", out[1].Content)
	assert.Equal(t, "hi", out[2].Content)
}
