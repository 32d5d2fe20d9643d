// ABOUTME: HTTP client for a locally hosted Ollama inference backend
// ABOUTME: Covers chat completion, embeddings, the tags probe, and model pulls

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// ChatMessage is one entry of a chat prompt.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are the sampling parameters sent with a chat call.
type Options struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

// ChatRequest is the Ollama /api/chat request body. Streaming is always
// disabled; callers block for the complete response.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  Options       `json:"options"`
}

type chatResponse struct {
	Message ChatMessage `json:"message"`
}

type embeddingsRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingsResponse struct {
	Embedding []float64 `json:"embedding"`
}

// TagModel describes one installed model as reported by /api/tags.
type TagModel struct {
	Name       string `json:"name"`
	Size       int64  `json:"size,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

type tagsResponse struct {
	Models []TagModel `json:"models"`
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// Client talks to an Ollama server over HTTP. Calls carry no enforced
// timeout of their own; deadline control is the caller's context.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the Ollama server at baseURL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger.With("component", "ollama"),
	}
}

// Chat sends a non-streaming chat completion request and returns the
// assistant's reply text.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	req.Stream = false

	var resp chatResponse
	if err := c.postJSON(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// Embed computes an embedding vector for the given prompt text.
func (c *Client) Embed(ctx context.Context, model, prompt string) ([]float64, error) {
	var resp embeddingsResponse
	if err := c.postJSON(ctx, "/api/embeddings", embeddingsRequest{Model: model, Prompt: prompt}, &resp); err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// Tags returns the models installed on the Ollama server.
func (c *Client) Tags(ctx context.Context) ([]TagModel, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("building tags request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling ollama tags: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama tags returned %s", httpResp.Status)
	}

	var resp tagsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding tags response: %w", err)
	}
	return resp.Models, nil
}

// HasModel reports whether any installed model name contains the given
// substring (Ollama tags carry version suffixes like ":latest").
func (c *Client) HasModel(ctx context.Context, name string) (bool, error) {
	models, err := c.Tags(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if strings.Contains(m.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// Pull asks the Ollama server to download a model. The server does the
// actual work; this call just waits for it to finish.
func (c *Client) Pull(ctx context.Context, name string) error {
	httpResp, err := c.post(ctx, "/api/pull", pullRequest{Name: name, Stream: false})
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return fmt.Errorf("ollama pull returned %s: %s", httpResp.Status, string(body))
	}

	c.logger.Info("model pull complete", "model", name)
	return nil
}

// post sends a JSON POST and returns the raw response.
func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling ollama %s: %w", path, err)
	}
	return httpResp, nil
}

// postJSON sends a JSON POST and decodes a JSON response into out.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	httpResp, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return fmt.Errorf("ollama %s returned %s: %s", path, httpResp.Status, string(respBody))
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding ollama %s response: %w", path, err)
	}
	return nil
}
