// ABOUTME: Chat turn orchestrator - persists messages, retrieves memories, calls the backend
// ABOUTME: The user message is recorded first and survives any later failure in the turn

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rowanlabs/rowan/internal/memory"
	"github.com/rowanlabs/rowan/internal/modelroute"
	"github.com/rowanlabs/rowan/internal/ollama"
	"github.com/rowanlabs/rowan/internal/store"
)

const (
	// historyWindow is how many recent messages form the base prompt context.
	historyWindow = 20

	// retrievalK is how many corpus entries the similarity search returns
	// before filtering.
	retrievalK = 5

	// similarityThreshold excludes weak matches from the memories block.
	// Results at or below this score are discarded.
	similarityThreshold = 0.5

	// temperature is the fixed sampling temperature for every turn.
	temperature = 0.7

	// fallbackModel is the ultimate default when neither the request nor
	// the configuration names a model.
	fallbackModel = "llama3.2-latest"
)

// TurnStore defines what the service needs from storage
type TurnStore interface {
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, ownerID int64, role, content string) (*store.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*store.Message, error)
	TouchConversation(ctx context.Context, id string) error
}

// Backend defines what the service needs from the inference backend
type Backend interface {
	Chat(ctx context.Context, req ollama.ChatRequest) (string, error)
}

// Retriever runs similarity queries over the embedding corpus
type Retriever interface {
	Search(ctx context.Context, query []float64, k int) ([]memory.SearchResult, error)
}

// Enricher provides best-effort embedding generation
type Enricher interface {
	Enrich(messageID int64, text string)
	Query(ctx context.Context, text string) []float64
}

// TurnRequest is one incoming chat turn.
type TurnRequest struct {
	ConversationID string
	Message        string
	Model          string // logical model name; empty means the configured default
}

// TurnResponse is the result of a completed turn.
type TurnResponse struct {
	ConversationID   string
	Reply            string
	Model            string // the resolved logical model name
	MessagesAppended int    // always 2 on success
}

// Service orchestrates chat turns: message persistence, memory enrichment
// and retrieval, prompt assembly, and the backend invocation.
type Service struct {
	store        TurnStore
	routes       *modelroute.Table
	backend      Backend
	retriever    Retriever
	enricher     Enricher
	defaultModel string
	logger       *slog.Logger
}

// New creates a chat Service. defaultModel may be empty, in which case the
// built-in fallback model is used for requests that don't name one.
func New(turnStore TurnStore, routes *modelroute.Table, backend Backend, retriever Retriever, enricher Enricher, defaultModel string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:        turnStore,
		routes:       routes,
		backend:      backend,
		retriever:    retriever,
		enricher:     enricher,
		defaultModel: defaultModel,
		logger:       logger.With("component", "chat"),
	}
}

// Turn runs one chat turn for the given verified owner.
//
// Key principle: record first, then act. The user message is persisted
// before the backend is called and stays persisted even if the backend
// fails. Embedding work is detached and best-effort throughout; only the
// backend call and the two message appends can fail the turn.
func (s *Service) Turn(ctx context.Context, ownerID int64, req TurnRequest) (*TurnResponse, error) {
	// 1. Validate input before any side effect
	if req.ConversationID == "" || req.Message == "" {
		return nil, fmt.Errorf("%w: conversation_id and message required", ErrValidation)
	}

	// 2. Ownership check. A foreign conversation produces the same error
	// as a missing one.
	conv, err := s.store.GetConversation(ctx, req.ConversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	if conv.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	// 3. Persist the user message. This write is not rolled back if the
	// rest of the turn fails.
	userMsg, err := s.store.AppendMessage(ctx, conv.ID, ownerID, store.RoleUser, req.Message)
	if err != nil {
		return nil, fmt.Errorf("%w: saving user message: %v", ErrPersistence, err)
	}

	// 4. Detached enrichment of the user message
	s.enricher.Enrich(userMsg.ID, req.Message)

	// 5. Load the recent history window (includes the message just saved)
	history, err := s.store.ListMessages(ctx, conv.ID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: loading history: %v", ErrPersistence, err)
	}

	messages := make([]ollama.ChatMessage, len(history))
	for i, msg := range history {
		messages[i] = ollama.ChatMessage{Role: msg.Role, Content: msg.Content}
	}

	// 6. Resolve routing: requested model, then configured default, then
	// the built-in fallback. Resolution itself never fails.
	modelName := req.Model
	if modelName == "" {
		modelName = s.defaultModel
	}
	if modelName == "" {
		modelName = fallbackModel
	}
	route := s.routes.Resolve(modelName)

	// 7-8. Retrieve long-term memories. A separate, synchronous query
	// embedding; nil means the subsystem is down and retrieval is skipped.
	memoriesPrompt := s.retrieveMemories(ctx, conv.ID, req.Message)

	// 9. Assemble directives: memories replace any leading system message,
	// and the language directive goes ahead of everything.
	messages = applySystemPrompt(messages, memoriesPrompt)
	if route.ForceEnglish {
		messages = prependSystem(messages, forceEnglishPrompt)
	}

	// 10. Invoke the backend, blocking for the complete response
	reply, err := s.backend.Chat(ctx, ollama.ChatRequest{
		Model:    route.OllamaModel,
		Messages: messages,
		Options: ollama.Options{
			NumPredict:  route.MaxTokens,
			Temperature: temperature,
		},
	})
	if err != nil {
		// 11. The user message stays in place; no assistant message is written
		s.logger.Error("backend invocation failed", "error", err, "conversation_id", conv.ID, "model", route.OllamaModel)
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	// 12. Persist the reply, enrich it, and advance the conversation clock
	assistantMsg, err := s.store.AppendMessage(ctx, conv.ID, ownerID, store.RoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("%w: saving assistant message: %v", ErrPersistence, err)
	}

	s.enricher.Enrich(assistantMsg.ID, reply)

	if err := s.store.TouchConversation(ctx, conv.ID); err != nil {
		return nil, fmt.Errorf("%w: touching conversation: %v", ErrPersistence, err)
	}

	s.logger.Debug("turn completed",
		"conversation_id", conv.ID,
		"model", modelName,
		"user_message_id", userMsg.ID,
		"assistant_message_id", assistantMsg.ID)

	return &TurnResponse{
		ConversationID:   conv.ID,
		Reply:            reply,
		Model:            modelName,
		MessagesAppended: 2,
	}, nil
}

// retrieveMemories computes a query embedding and searches the corpus for
// relevant past messages from other conversations. Every failure path here
// is swallowed: retrieval is an enhancement, never a turn-breaker.
func (s *Service) retrieveMemories(ctx context.Context, conversationID, message string) string {
	query := s.enricher.Query(ctx, message)
	if query == nil {
		return ""
	}

	results, err := s.retriever.Search(ctx, query, retrievalK)
	if err != nil {
		s.logger.Error("memory retrieval failed", "error", err, "conversation_id", conversationID)
		return ""
	}

	// No self-referential memory, and no weak matches
	relevant := results[:0]
	for _, r := range results {
		if r.ConversationID == conversationID || r.Similarity <= similarityThreshold {
			continue
		}
		relevant = append(relevant, r)
	}

	if len(relevant) > 0 {
		s.logger.Debug("injected memories", "count", len(relevant), "conversation_id", conversationID)
	}
	return renderMemories(relevant)
}
