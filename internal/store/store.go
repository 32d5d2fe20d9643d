// ABOUTME: Store interface and data types for rowan persistence
// ABOUTME: Defines User, Conversation, Message, StoredEmbedding and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateUser is returned when creating a user whose username is taken
var ErrDuplicateUser = errors.New("user already exists")

// ErrInvalidRole is returned when appending a message with an unknown role
var ErrInvalidRole = errors.New("invalid message role")

// Role constants for message authors
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ValidRole reports whether role is one of the three allowed values
func ValidRole(role string) bool {
	return role == RoleSystem || role == RoleUser || role == RoleAssistant
}

// User is a local account. Credentials are managed by the auth layer;
// the store only holds the bcrypt hash.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Conversation is an append-only message log owned by exactly one user.
// Ownership is immutable once set. UpdatedAt advances at the end of every
// successfully completed chat turn.
type Conversation struct {
	ID        string
	OwnerID   int64
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single entry in a conversation log. Messages are immutable
// once created and totally ordered by (created_at, id) within a conversation.
type Message struct {
	ID             int64
	ConversationID string
	OwnerID        int64
	Role           string // "system", "user", "assistant"
	Content        string
	CreatedAt      time.Time
}

// StoredEmbedding is one corpus entry for similarity search: the vector plus
// the message columns the retrieval layer needs for filtering and rendering.
type StoredEmbedding struct {
	MessageID      int64
	ConversationID string
	Role           string
	Content        string
	Vector         []float64
}

// Store defines the interface for user, conversation, message and
// embedding persistence.
type Store interface {
	// Users
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)

	// Conversations
	CreateConversation(ctx context.Context, ownerID int64, title string) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, ownerID int64) ([]*Conversation, error)
	TouchConversation(ctx context.Context, id string) error

	// Messages (append-only)
	AppendMessage(ctx context.Context, conversationID string, ownerID int64, role, content string) (*Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)

	// Embeddings (at most one per message, upsert semantics)
	UpsertEmbedding(ctx context.Context, messageID int64, vector []float64) error
	ListEmbeddings(ctx context.Context) ([]*StoredEmbedding, error)

	// Close releases any resources held by the store
	Close() error
}
