package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campushub/chat-service/internal/models"
)

var ErrNotFound = errors.New("not found")

// ConversationEntry is one row of the derived inbox view: the peer and the
// most recent direct message exchanged with them.
type ConversationEntry struct {
	PeerID      primitive.ObjectID `bson:"_id"`
	LastMessage models.Message     `bson:"lastMessage"`
}

// MessageRepository is the message store. Every mutation is a single atomic
// document update so invariants (one reaction per user, one read receipt per
// user) hold under concurrent writers.
type MessageRepository interface {
	Insert(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)

	// ListRoom and ListDirect return non-deleted messages in descending
	// creation order (ties broken by id), capped at limit, optionally only
	// messages with id strictly below before.
	ListRoom(ctx context.Context, roomID primitive.ObjectID, limit int64, before *primitive.ObjectID) ([]*models.Message, error)
	ListDirect(ctx context.Context, userID, peerID primitive.ObjectID, limit int64, before *primitive.ObjectID) ([]*models.Message, error)

	// SetReaction replaces any existing reaction by userID with emoji and
	// returns the updated message.
	SetReaction(ctx context.Context, msgID, userID primitive.ObjectID, emoji string) (*models.Message, error)

	// MarkRead records a read receipt for userID unless one exists already.
	MarkRead(ctx context.Context, msgID, userID primitive.ObjectID, at time.Time) (*models.Message, error)

	// Edit updates content and sets the edited flag, only if senderID owns
	// the message and it is not soft-deleted. ErrNotFound otherwise.
	Edit(ctx context.Context, msgID, senderID primitive.ObjectID, content string, at time.Time) (*models.Message, error)

	// SoftDelete flags the message deleted, only if senderID owns it.
	// Content is preserved for audit.
	SoftDelete(ctx context.Context, msgID, senderID primitive.ObjectID, at time.Time) (*models.Message, error)

	// Conversations groups all direct messages involving userID by the other
	// party, keeping the most recent message per peer, most recent first.
	Conversations(ctx context.Context, userID primitive.ObjectID) ([]ConversationEntry, error)
}
