// ABOUTME: HTTP API tests using httptest against a real SQLite store
// ABOUTME: Covers login, auth enforcement, conversations, chat turns, and model endpoints

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowanlabs/rowan/internal/auth"
	"github.com/rowanlabs/rowan/internal/chat"
	"github.com/rowanlabs/rowan/internal/memory"
	"github.com/rowanlabs/rowan/internal/modelroute"
	"github.com/rowanlabs/rowan/internal/ollama"
	"github.com/rowanlabs/rowan/internal/store"
)

type fakeChatBackend struct {
	reply string
	err   error
}

func (f *fakeChatBackend) Chat(ctx context.Context, req ollama.ChatRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeModelManager struct {
	mu     sync.Mutex
	tags   []ollama.TagModel
	tagErr error
	pulled []string
}

func (f *fakeModelManager) Tags(ctx context.Context) ([]ollama.TagModel, error) {
	if f.tagErr != nil {
		return nil, f.tagErr
	}
	return f.tags, nil
}

func (f *fakeModelManager) Pull(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulled = append(f.pulled, name)
	return nil
}

func (f *fakeModelManager) pulledModels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pulled...)
}

type noopEnricher struct{}

func (noopEnricher) Enrich(messageID int64, text string) {}

func (noopEnricher) Query(ctx context.Context, text string) []float64 { return nil }

type apiFixture struct {
	ts      *httptest.Server
	store   *store.SQLiteStore
	backend *fakeChatBackend
	models  *fakeModelManager
	token   string
	userID  int64
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	hash, err := auth.HashPassword("Passw0rd!")
	require.NoError(t, err)
	user, err := s.CreateUser(ctx, "alice", hash)
	require.NoError(t, err)

	verifier := auth.NewJWTVerifier([]byte("0123456789abcdef0123456789abcdef"))
	token, err := verifier.Generate(user.ID, user.Username, time.Hour)
	require.NoError(t, err)

	backend := &fakeChatBackend{reply: "hello back"}
	models := &fakeModelManager{tags: []ollama.TagModel{{Name: "llama3.2:latest"}}}
	routes := modelroute.Builtin()

	chatSvc := chat.New(s, routes, backend, memory.NewSearcher(s), noopEnricher{}, "", nil)

	srv := New(Config{
		Store:    s,
		Chat:     chatSvc,
		Routes:   routes,
		Verifier: verifier,
		Models:   models,
		TokenTTL: time.Hour,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &apiFixture{ts: ts, store: s, backend: backend, models: models, token: token, userID: user.ID}
}

func (f *apiFixture) request(t *testing.T, method, path string, body any, authed bool) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.ts.URL+path, &buf)
	require.NoError(t, err)
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (f *apiFixture) createConversation(t *testing.T, title string) string {
	t.Helper()
	resp := f.request(t, http.MethodPost, "/api/conversations", map[string]string{"title": title}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.ID)
	return body.ID
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestLogin(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("valid credentials return a working token", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/auth/login", map[string]string{
			"username": "alice", "password": "Passw0rd!",
		}, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			User struct {
				ID       int64  `json:"id"`
				Username string `json:"username"`
			} `json:"user"`
			Token     string `json:"token"`
			ExpiresIn int64  `json:"expires_in"`
		}
		decodeBody(t, resp, &body)
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, int64(3600), body.ExpiresIn)
		assert.Equal(t, f.userID, body.User.ID)
		assert.Equal(t, "alice", body.User.Username)

		// The issued token works against the API
		req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/api/conversations", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+body.Token)
		authResp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer authResp.Body.Close()
		assert.Equal(t, http.StatusOK, authResp.StatusCode)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		wrongPw := f.request(t, http.MethodPost, "/auth/login", map[string]string{
			"username": "alice", "password": "wrong",
		}, false)
		noUser := f.request(t, http.MethodPost, "/auth/login", map[string]string{
			"username": "nobody", "password": "wrong",
		}, false)

		assert.Equal(t, http.StatusUnauthorized, wrongPw.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, noUser.StatusCode)

		var a, b map[string]string
		decodeBody(t, wrongPw, &a)
		decodeBody(t, noUser, &b)
		assert.Equal(t, a["error"], b["error"])
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/auth/login", map[string]string{"username": "alice"}, false)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{
		"/api/conversations",
		"/api/models/available",
	} {
		resp := f.request(t, http.MethodGet, path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
	}
}

func TestConversations(t *testing.T) {
	f := newAPIFixture(t)

	id := f.createConversation(t, "first chat")

	resp := f.request(t, http.MethodGet, "/api/conversations", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Conversations []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"conversations"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Conversations, 1)
	assert.Equal(t, id, body.Conversations[0].ID)
	assert.Equal(t, "first chat", body.Conversations[0].Title)
}

func TestListMessages(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	id := f.createConversation(t, "chat")
	_, err := f.store.AppendMessage(ctx, id, f.userID, store.RoleUser, "hi")
	require.NoError(t, err)
	_, err = f.store.AppendMessage(ctx, id, f.userID, store.RoleAssistant, "hello")
	require.NoError(t, err)

	t.Run("owner sees the full log in order", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/api/conversations/"+id+"/messages", nil, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "assistant", body.Messages[1].Role)
	})

	t.Run("limit keeps the most recent messages", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/api/conversations/"+id+"/messages?limit=1", nil, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "assistant", body.Messages[0].Role)
	})

	t.Run("invalid limit is 400", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/api/conversations/"+id+"/messages?limit=nope", nil, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown conversation is 404", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/api/conversations/nope/messages", nil, true)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("foreign conversation is the same 404", func(t *testing.T) {
		bobHash, err := auth.HashPassword("Passw0rd!")
		require.NoError(t, err)
		bob, err := f.store.CreateUser(ctx, "bob", bobHash)
		require.NoError(t, err)
		foreign, err := f.store.CreateConversation(ctx, bob.ID, "bob's chat")
		require.NoError(t, err)

		missing := f.request(t, http.MethodGet, "/api/conversations/nope/messages", nil, true)
		forbidden := f.request(t, http.MethodGet, "/api/conversations/"+foreign.ID+"/messages", nil, true)

		assert.Equal(t, http.StatusNotFound, forbidden.StatusCode)

		var a, b map[string]string
		decodeBody(t, missing, &a)
		decodeBody(t, forbidden, &b)
		assert.Equal(t, a["error"], b["error"])
	})
}

func TestChatTurn(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createConversation(t, "chat")

	resp := f.request(t, http.MethodPost, "/api/chat", map[string]string{
		"conversation_id": id,
		"message":         "hello there",
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ConversationID   string `json:"conversation_id"`
		Reply            string `json:"reply"`
		Model            string `json:"model"`
		MessagesAppended int    `json:"messages_appended"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, id, body.ConversationID)
	assert.Equal(t, "hello back", body.Reply)
	assert.Equal(t, "llama3.2-latest", body.Model)
	assert.Equal(t, 2, body.MessagesAppended)
}

func TestChatTurn_ErrorMapping(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createConversation(t, "chat")

	t.Run("missing message is 400", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/api/chat", map[string]string{
			"conversation_id": id,
		}, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown conversation is 404", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/api/chat", map[string]string{
			"conversation_id": "nope",
			"message":         "hi",
		}, true)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("backend failure is 502 with detail and keeps the user message", func(t *testing.T) {
		f.backend.err = errors.New("ollama down")
		defer func() { f.backend.err = nil }()

		resp := f.request(t, http.MethodPost, "/api/chat", map[string]string{
			"conversation_id": id,
			"message":         "hi",
		}, true)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

		// Generic error plus the underlying cause as detail
		var body struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "inference backend failed", body.Error)
		assert.Equal(t, "ollama down", body.Detail)

		messages, err := f.store.ListMessages(context.Background(), id, 0)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, store.RoleUser, messages[0].Role)
	})

	t.Run("invalid JSON is 400", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, f.ts.URL+"/api/chat", bytes.NewBufferString("{nope"))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+f.token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestModelsEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("available lists the route table", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/api/models/available", nil, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Models []struct {
				Name        string `json:"name"`
				OllamaModel string `json:"ollama_model"`
				MaxTokens   int    `json:"max_tokens"`
			} `json:"models"`
		}
		decodeBody(t, resp, &body)
		require.NotEmpty(t, body.Models)

		names := map[string]string{}
		for _, m := range body.Models {
			names[m.Name] = m.OllamaModel
		}
		assert.Equal(t, "llama3.2:latest", names["llama3.2-latest"])
	})

	t.Run("installed proxies backend tags", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/api/models/installed", nil, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Models []ollama.TagModel `json:"models"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Models, 1)
		assert.Equal(t, "llama3.2:latest", body.Models[0].Name)
	})

	t.Run("installed maps backend failure to 502", func(t *testing.T) {
		f.models.tagErr = errors.New("unreachable")
		defer func() { f.models.tagErr = nil }()

		resp := f.request(t, http.MethodGet, "/api/models/installed", nil, true)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("download resolves the logical name and pulls the Ollama tag", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/api/models/download", map[string]string{
			"model": "llama3.2-latest",
		}, true)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		require.Eventually(t, func() bool {
			for _, m := range f.models.pulledModels() {
				if m == "llama3.2:latest" {
					return true
				}
			}
			return false
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("download passes unrouted names through verbatim", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/api/models/download", map[string]string{
			"model": "mistral:7b",
		}, true)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		require.Eventually(t, func() bool {
			for _, m := range f.models.pulledModels() {
				if m == "mistral:7b" {
					return true
				}
			}
			return false
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("download without a model is 400", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/api/models/download", map[string]string{}, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestChatTurn_PersistsBothMessages(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createConversation(t, "chat")

	for i := 0; i < 2; i++ {
		resp := f.request(t, http.MethodPost, "/api/chat", map[string]string{
			"conversation_id": id,
			"message":         fmt.Sprintf("turn %d", i),
		}, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	messages, err := f.store.ListMessages(context.Background(), id, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}
