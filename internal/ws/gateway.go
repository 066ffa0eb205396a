package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/campushub/chat-service/internal/directory"
	"github.com/campushub/chat-service/internal/events"
	"github.com/campushub/chat-service/internal/presence"
	"github.com/campushub/chat-service/internal/service"
)

// Gateway owns the realtime side: connection lifecycle, room membership,
// presence transitions, and broadcasting the results of chat mutations. All
// message state changes go through the chat service.
type Gateway struct {
	hub     *Hub
	chat    *service.ChatService
	tracker presence.Tracker
	users   directory.UserDirectory
	events  events.Publisher
	log     *zap.SugaredLogger
}

func NewGateway(hub *Hub, chat *service.ChatService, tracker presence.Tracker, users directory.UserDirectory, pub events.Publisher, log *zap.SugaredLogger) *Gateway {
	return &Gateway{hub: hub, chat: chat, tracker: tracker, users: users, events: pub, log: log}
}

// Handler runs one websocket session: handshake (userId query param),
// presence online, inbox room join, event loop, then presence offline.
func (g *Gateway) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		userID := conn.Query("userId")
		uid, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			_ = conn.Close()
			return
		}
		connID := uuid.NewString()
		c := NewClient(conn, userID, connID)

		g.hub.Register(c)
		g.hub.Join(c, InboxRoom(userID))
		g.connected(uid, userID, connID)
		g.log.Infow("session connected", "user", userID, "conn", connID)

		go c.writePump()
		g.readLoop(c)

		g.hub.Unregister(c)
		g.disconnected(uid, userID, connID)
		g.log.Infow("session disconnected", "user", userID, "conn", connID)
	}
}

func (g *Gateway) connected(uid primitive.ObjectID, userID, connID string) {
	ctx := context.Background()
	first, err := g.tracker.Connect(ctx, userID, connID)
	if err != nil {
		g.log.Warnw("presence connect", "user", userID, "err", err)
		return
	}
	if !first {
		return
	}
	if err := g.users.SetPresence(ctx, uid, true, nil); err != nil {
		g.log.Warnw("directory presence update", "user", userID, "err", err)
	}
	g.hub.BroadcastAll(EvUserStatus, userStatusPayload{UserID: userID, IsOnline: true})
	online := true
	g.publishPresence(ctx, userID, &online)
}

func (g *Gateway) disconnected(uid primitive.ObjectID, userID, connID string) {
	ctx := context.Background()
	last, err := g.tracker.Disconnect(ctx, userID, connID)
	if err != nil {
		g.log.Warnw("presence disconnect", "user", userID, "err", err)
		return
	}
	if !last {
		return
	}
	lastSeen := time.Now().UTC()
	if err := g.users.SetPresence(ctx, uid, false, &lastSeen); err != nil {
		g.log.Warnw("directory presence update", "user", userID, "err", err)
	}
	g.hub.BroadcastAll(EvUserStatus, userStatusPayload{UserID: userID, IsOnline: false, LastSeen: &lastSeen})
	offline := false
	g.publishPresence(ctx, userID, &offline)
}

func (g *Gateway) publishPresence(ctx context.Context, userID string, online *bool) {
	err := g.events.Publish(ctx, events.ChatEvent{Type: events.PresenceChanged, UserID: userID, Online: online})
	if err != nil {
		g.log.Warnw("publish presence event", "user", userID, "err", err)
	}
}

func (g *Gateway) readLoop(c *Client) {
	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			// Malformed frames are dropped, not fatal to the session.
			continue
		}
		g.dispatch(c, env)
	}
}

func (g *Gateway) dispatch(c *Client, env Envelope) {
	ctx := context.Background()
	switch env.Event {
	case EvJoinRoom:
		var p joinRoomPayload
		if decode(env.Data, &p) && p.RoomID != "" {
			g.hub.Join(c, ClubRoom(p.RoomID))
		}
	case EvLeaveRoom:
		var p joinRoomPayload
		if decode(env.Data, &p) && p.RoomID != "" {
			g.hub.Leave(c, ClubRoom(p.RoomID))
		}
	case EvSendMessage:
		g.handleSend(ctx, c, env)
	case EvTyping:
		var p typingPayload
		if decode(env.Data, &p) && p.RoomID != "" {
			p.UserID = c.UserID()
			g.hub.Broadcast(ClubRoom(p.RoomID), EvTypingStatus, p)
		}
	case EvAddReaction:
		g.handleReaction(ctx, c, env)
	case EvMarkAsRead:
		g.handleMarkRead(ctx, c, env)
	case EvEditMessage:
		g.handleEdit(ctx, c, env)
	case EvDeleteMsg:
		g.handleDelete(ctx, c, env)
	default:
		g.ack(c, env, errors.New("unknown event"))
	}
}

func (g *Gateway) handleSend(ctx context.Context, c *Client, env Envelope) {
	var p sendMessagePayload
	if !decode(env.Data, &p) {
		g.ack(c, env, service.ErrInvalidScope)
		return
	}
	msg, err := g.chat.CreateMessage(ctx, service.CreateMessageInput{
		RoomID:        p.RoomID,
		RecipientID:   p.RecipientID,
		SenderID:      c.UserID(),
		Content:       p.Content,
		Type:          p.Type,
		AttachmentURL: p.AttachmentURL,
		ReplyTo:       p.ReplyTo,
	})
	if err != nil {
		g.ack(c, env, err)
		return
	}
	if msg.Direct() {
		g.hub.Broadcast(InboxRoom(msg.RecipientID.Hex()), EvPrivateMessage, msg)
		g.hub.Broadcast(InboxRoom(msg.SenderID.Hex()), EvPrivateMessage, msg)
	} else {
		g.hub.Broadcast(ClubRoom(msg.RoomID.Hex()), EvNewMessage, msg)
	}
	g.ack(c, env, nil)
}

func (g *Gateway) handleReaction(ctx context.Context, c *Client, env Envelope) {
	var p reactionPayload
	if !decode(env.Data, &p) {
		g.ack(c, env, service.ErrInvalidID)
		return
	}
	msg, err := g.chat.AddReaction(ctx, p.MessageID, c.UserID(), p.Emoji)
	if err != nil {
		g.ack(c, env, err)
		return
	}
	g.broadcastToScope(msg, EvMessageUpdated, msg)
	g.ack(c, env, nil)
}

func (g *Gateway) handleMarkRead(ctx context.Context, c *Client, env Envelope) {
	var p markReadPayload
	if !decode(env.Data, &p) {
		g.ack(c, env, service.ErrInvalidID)
		return
	}
	msg, err := g.chat.MarkAsRead(ctx, p.MessageID, c.UserID())
	if err != nil {
		g.ack(c, env, err)
		return
	}
	if p.RoomID != "" {
		room := ClubRoom(p.RoomID)
		g.hub.Broadcast(room, EvMessageUpdated, msg)
		g.hub.Broadcast(room, EvMessageRead, messageReadPayload{MessageID: p.MessageID, UserID: c.UserID()})
	}
	g.ack(c, env, nil)
}

func (g *Gateway) handleEdit(ctx context.Context, c *Client, env Envelope) {
	var p editPayload
	if !decode(env.Data, &p) {
		g.ack(c, env, service.ErrInvalidID)
		return
	}
	msg, err := g.chat.EditMessage(ctx, p.MessageID, c.UserID(), p.Content)
	if err != nil {
		g.ack(c, env, err)
		return
	}
	g.broadcastToScope(msg, EvMessageUpdated, msg)
	g.ack(c, env, nil)
}

func (g *Gateway) handleDelete(ctx context.Context, c *Client, env Envelope) {
	var p deletePayload
	if !decode(env.Data, &p) {
		g.ack(c, env, service.ErrInvalidID)
		return
	}
	msg, err := g.chat.DeleteMessage(ctx, p.MessageID, c.UserID())
	if err != nil {
		g.ack(c, env, err)
		return
	}
	g.broadcastToScope(msg, EvMessageDeleted, messageDeletedPayload{MessageID: p.MessageID})
	g.ack(c, env, nil)
}

// broadcastToScope resolves the message's scope: a DM goes to exactly the
// two parties' inbox rooms, a room message to that room's group. Never both.
func (g *Gateway) broadcastToScope(msg *service.Message, event string, data any) {
	if msg.Direct() {
		g.hub.Broadcast(InboxRoom(msg.RecipientID.Hex()), event, data)
		g.hub.Broadcast(InboxRoom(msg.SenderID.Hex()), event, data)
		return
	}
	if msg.RoomID != nil {
		g.hub.Broadcast(ClubRoom(msg.RoomID.Hex()), event, data)
	}
}

// ack reports the outcome of a request back to its originating session when
// the client supplied a requestId. Failed mutations still suppress the
// broadcast; the ack is what tells the caller "ignored" from "in flight".
func (g *Gateway) ack(c *Client, env Envelope, err error) {
	if env.RequestID == "" {
		return
	}
	p := ackPayload{RequestID: env.RequestID, OK: err == nil}
	if err != nil {
		p.Error = ackReason(err)
	}
	c.Send(OutEvent{Event: EvAck, Data: p})
}

func ackReason(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "not_found"
	case errors.Is(err, service.ErrForbidden):
		return "forbidden"
	case errors.Is(err, service.ErrInvalidScope),
		errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrInvalidType),
		errors.Is(err, service.ErrEmptyContent):
		return "invalid"
	default:
		return "error"
	}
}

func decode(data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
