package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageType string

const (
	MessageText  MessageType = "TEXT"
	MessageImage MessageType = "IMAGE"
	MessageVoice MessageType = "VOICE"
	MessageGIF   MessageType = "GIF"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageVoice, MessageGIF:
		return true
	}
	return false
}

// Reaction is a single user's reaction to a message. A message holds at most
// one reaction per user; adding a new one replaces the previous emoji.
type Reaction struct {
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	Emoji  string             `bson:"emoji" json:"emoji"`
}

type ReadReceipt struct {
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	ReadAt time.Time          `bson:"readAt" json:"readAt"`
}

// Message is the stored chat message document. Exactly one of RoomID and
// RecipientID is set: room broadcast or 1:1 direct message, never both.
// Deletion is soft; the document is never removed.
type Message struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RoomID        *primitive.ObjectID `bson:"roomId,omitempty" json:"roomId,omitempty"`
	RecipientID   *primitive.ObjectID `bson:"recipientId,omitempty" json:"recipientId,omitempty"`
	SenderID      primitive.ObjectID  `bson:"senderId" json:"senderId"`
	Content       string              `bson:"content" json:"content"`
	Type          MessageType         `bson:"type" json:"type"`
	AttachmentURL string              `bson:"attachmentUrl,omitempty" json:"attachmentUrl,omitempty"`
	ReplyTo       *primitive.ObjectID `bson:"replyTo,omitempty" json:"replyTo,omitempty"`
	Reactions     []Reaction          `bson:"reactions" json:"reactions"`
	ReadBy        []ReadReceipt       `bson:"readBy" json:"readBy"`
	IsEdited      bool                `bson:"isEdited" json:"isEdited"`
	IsDeleted     bool                `bson:"isDeleted" json:"isDeleted"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     *time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Direct reports whether the message is a 1:1 direct message.
func (m *Message) Direct() bool { return m.RecipientID != nil }

// ReactionFor returns the emoji the given user reacted with, if any.
func (m *Message) ReactionFor(userID primitive.ObjectID) (string, bool) {
	for _, r := range m.Reactions {
		if r.UserID == userID {
			return r.Emoji, true
		}
	}
	return "", false
}

// ReadByUser reports whether the user already has a read receipt.
func (m *Message) ReadByUser(userID primitive.ObjectID) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
