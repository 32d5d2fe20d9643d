// ABOUTME: Static routing table from logical model names to Ollama invocation parameters
// ABOUTME: Resolution never fails - unknown names become literal Ollama model ids

package modelroute

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// DefaultMaxTokens is the token budget used for synthesized routes and
// table entries that don't set one.
const DefaultMaxTokens = 2048

// Route holds the backend invocation parameters for one logical model name.
type Route struct {
	Name         string `toml:"-"`
	OllamaModel  string `toml:"model"`
	MaxTokens    int    `toml:"max_tokens"`
	ForceEnglish bool   `toml:"force_english"`
}

// Table is an immutable mapping of logical model names to routes. It is
// built once at process start and never mutated, so it needs no locking.
type Table struct {
	routes map[string]Route
}

// Builtin returns the default routing table shipped with rowan.
func Builtin() *Table {
	return &Table{routes: map[string]Route{
		"tinyllama-1.1b":  {Name: "tinyllama-1.1b", OllamaModel: "tinyllama:1.1b", MaxTokens: 512},
		"qwen3-4b":        {Name: "qwen3-4b", OllamaModel: "qwen3:4b", MaxTokens: 2048},
		"deepseek-r1-8b":  {Name: "deepseek-r1-8b", OllamaModel: "deepseek-r1:8b", MaxTokens: 512, ForceEnglish: true},
		"gemma3-12b":      {Name: "gemma3-12b", OllamaModel: "gemma3:12b", MaxTokens: 2048},
		"llama3.2-latest": {Name: "llama3.2-latest", OllamaModel: "llama3.2:latest", MaxTokens: 2048},
		"llama3.2-1b":     {Name: "llama3.2-1b", OllamaModel: "llama3.2:1b", MaxTokens: 512},
	}}
}

// tableFile is the on-disk TOML shape: one [routes.<name>] section per entry.
type tableFile struct {
	Routes map[string]Route `toml:"routes"`
}

// LoadFile parses a TOML routing table from disk. Entries without a
// max_tokens get DefaultMaxTokens; entries without a model use the logical
// name as the Ollama model id.
func LoadFile(path string) (*Table, error) {
	var file tableFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("parsing route table %s: %w", path, err)
	}

	routes := make(map[string]Route, len(file.Routes))
	for name, r := range file.Routes {
		r.Name = name
		if r.OllamaModel == "" {
			r.OllamaModel = name
		}
		if r.MaxTokens <= 0 {
			r.MaxTokens = DefaultMaxTokens
		}
		routes[name] = r
	}

	return &Table{routes: routes}, nil
}

// Resolve maps a logical model name to its route. Resolution never fails:
// an unconfigured name is returned as a literal Ollama model id with the
// default token budget and no forced language.
func (t *Table) Resolve(name string) Route {
	if r, ok := t.routes[name]; ok {
		return r
	}
	return Route{
		Name:        name,
		OllamaModel: name,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Names returns the configured logical model names, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.routes))
	for name := range t.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
