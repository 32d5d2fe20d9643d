// ABOUTME: HTTP handlers for auth, conversations, chat turns, and model management
// ABOUTME: Handlers validate input, delegate to collaborators, and shape JSON responses

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rowanlabs/rowan/internal/auth"
	"github.com/rowanlabs/rowan/internal/chat"
	"github.com/rowanlabs/rowan/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type loginResponse struct {
	User      loginUser `json:"user"`
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"` // seconds
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same response as a wrong password; don't reveal which
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error("looking up user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !auth.ComparePassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.verifier.Generate(user.ID, user.Username, s.tokenTTL)
	if err != nil {
		s.logger.Error("generating token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("user logged in", "username", user.Username)
	writeJSON(w, http.StatusOK, loginResponse{
		User:      loginUser{ID: user.ID, Username: user.Username},
		Token:     token,
		ExpiresIn: int64(s.tokenTTL / time.Second),
	})
}

type conversationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toConversationResponse(c *store.Conversation) conversationResponse {
	return conversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())

	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	conv, err := s.store.CreateConversation(r.Context(), identity.UserID, req.Title)
	if err != nil {
		s.logger.Error("creating conversation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toConversationResponse(conv))
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())

	convs, err := s.store.ListConversations(r.Context(), identity.UserID)
	if err != nil {
		s.logger.Error("listing conversations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]conversationResponse, len(convs))
	for i, c := range convs {
		out[i] = toConversationResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": out})
}

type messageResponse struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	conversationID := r.PathValue("id")

	conv, err := s.store.GetConversation(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		s.logger.Error("loading conversation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// A foreign conversation looks exactly like a missing one
	if conv.OwnerID != identity.UserID {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	// Most recent N, ascending. Default window is 50.
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	messages, err := s.store.ListMessages(r.Context(), conversationID, limit)
	if err != nil {
		s.logger.Error("listing messages", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]messageResponse, len(messages))
	for i, m := range messages {
		out[i] = messageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	Model          string `json:"model,omitempty"`
}

type chatResponse struct {
	ConversationID   string `json:"conversation_id"`
	Reply            string `json:"reply"`
	Model            string `json:"model"`
	MessagesAppended int    `json:"messages_appended"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.chat.Turn(r.Context(), identity.UserID, chat.TurnRequest{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		Model:          req.Model,
	})
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		ConversationID:   resp.ConversationID,
		Reply:            resp.Reply,
		Model:            resp.Model,
		MessagesAppended: resp.MessagesAppended,
	})
}

type availableModel struct {
	Name         string `json:"name"`
	OllamaModel  string `json:"ollama_model"`
	MaxTokens    int    `json:"max_tokens"`
	ForceEnglish bool   `json:"force_english,omitempty"`
}

func (s *Server) handleModelsAvailable(w http.ResponseWriter, r *http.Request) {
	names := s.routes.Names()
	out := make([]availableModel, len(names))
	for i, name := range names {
		route := s.routes.Resolve(name)
		out[i] = availableModel{
			Name:         route.Name,
			OllamaModel:  route.OllamaModel,
			MaxTokens:    route.MaxTokens,
			ForceEnglish: route.ForceEnglish,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": out})
}

func (s *Server) handleModelsInstalled(w http.ResponseWriter, r *http.Request) {
	tags, err := s.models.Tags(r.Context())
	if err != nil {
		s.logger.Error("listing installed models", "error", err)
		writeError(w, http.StatusBadGateway, "inference backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": tags})
}

func (s *Server) handleModelDownload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "model required")
		return
	}

	// The request names a logical model; the backend pull needs the
	// Ollama tag from its route.
	ollamaModel := s.routes.Resolve(req.Model).OllamaModel

	// Pulls take minutes; run detached and report progress via the logs.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		s.logger.Info("model download started", "model", req.Model, "ollama_model", ollamaModel)
		if err := s.models.Pull(ctx, ollamaModel); err != nil {
			s.logger.Error("model download failed", "model", req.Model, "error", err)
			return
		}
		s.logger.Info("model download completed", "model", req.Model)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "downloading",
		"model":  req.Model,
	})
}
