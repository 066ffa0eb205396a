package ws

import (
	"encoding/json"
	"time"

	"github.com/campushub/chat-service/internal/models"
)

// Inbound event names.
const (
	EvJoinRoom    = "joinRoom"
	EvLeaveRoom   = "leaveRoom"
	EvSendMessage = "sendMessage"
	EvTyping      = "typing"
	EvAddReaction = "addReaction"
	EvMarkAsRead  = "markAsRead"
	EvEditMessage = "editMessage"
	EvDeleteMsg   = "deleteMessage"
)

// Outbound event names.
const (
	EvUserStatus     = "userStatus"
	EvNewMessage     = "newMessage"
	EvPrivateMessage = "privateMessage"
	EvMessageUpdated = "messageUpdated"
	EvMessageDeleted = "messageDeleted"
	EvMessageRead    = "messageRead"
	EvTypingStatus   = "typingStatus"
	EvAck            = "ack"
)

// Envelope is the inbound wire frame. RequestID, when supplied, is echoed in
// the ack so clients can match failures to requests.
type Envelope struct {
	Event     string          `json:"event"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// OutEvent is the outbound wire frame.
type OutEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type sendMessagePayload struct {
	RoomID        string             `json:"roomId,omitempty"`
	RecipientID   string             `json:"recipientId,omitempty"`
	Content       string             `json:"content"`
	Type          models.MessageType `json:"type,omitempty"`
	AttachmentURL string             `json:"attachmentUrl,omitempty"`
	ReplyTo       string             `json:"replyTo,omitempty"`
}

type typingPayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type reactionPayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type markReadPayload struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId,omitempty"`
}

type editPayload struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type deletePayload struct {
	MessageID string `json:"messageId"`
}

type userStatusPayload struct {
	UserID   string     `json:"userId"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type messageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type messageReadPayload struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

type ackPayload struct {
	RequestID string `json:"requestId"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}
