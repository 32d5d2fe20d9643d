// ABOUTME: Prompt assembly for chat turns
// ABOUTME: Renders retrieved memories and orders system directives ahead of history

package chat

import (
	"fmt"
	"strings"

	"github.com/rowanlabs/rowan/internal/memory"
	"github.com/rowanlabs/rowan/internal/ollama"
)

// forceEnglishPrompt is prepended ahead of everything else when the resolved
// route forces the reply language.
const forceEnglishPrompt = "You are an assistant. Always reply in English."

// renderMemories formats retrieved past messages into the system prompt that
// carries long-term memory into the turn. Returns "" when there is nothing
// to inject.
func renderMemories(results []memory.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("[Past %s]: %s", r.Role, r.Content)
	}

	return "You are a helpful assistant with long-term memory.\n\n" +
		"Relevant Past Memories:\n" + strings.Join(lines, "\n") + "\n\n" +
		"Answer the user's question using these memories if relevant."
}

// applySystemPrompt installs systemPrompt as the sole leading system message.
// If the history window already starts with a system message it is replaced,
// not appended to. An empty prompt leaves the messages untouched.
func applySystemPrompt(messages []ollama.ChatMessage, systemPrompt string) []ollama.ChatMessage {
	if systemPrompt == "" {
		return messages
	}

	system := ollama.ChatMessage{Role: "system", Content: systemPrompt}

	if len(messages) > 0 && messages[0].Role == "system" {
		out := make([]ollama.ChatMessage, 0, len(messages))
		out = append(out, system)
		return append(out, messages[1:]...)
	}

	out := make([]ollama.ChatMessage, 0, len(messages)+1)
	out = append(out, system)
	return append(out, messages...)
}

// prependSystem inserts a system directive ahead of everything else.
func prependSystem(messages []ollama.ChatMessage, content string) []ollama.ChatMessage {
	out := make([]ollama.ChatMessage, 0, len(messages)+1)
	out = append(out, ollama.ChatMessage{Role: "system", Content: content})
	return append(out, messages...)
}
