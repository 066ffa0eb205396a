package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/campushub/chat-service/internal/directory"
	"github.com/campushub/chat-service/internal/events"
	"github.com/campushub/chat-service/internal/models"
	"github.com/campushub/chat-service/internal/profanity"
	"github.com/campushub/chat-service/internal/repository"
)

const DefaultPageSize = 50

var (
	ErrNotFound     = errors.New("message not found")
	ErrForbidden    = errors.New("only the sender may modify a message")
	ErrInvalidScope = errors.New("exactly one of roomId and recipientId must be set")
	ErrInvalidID    = errors.New("invalid id")
	ErrInvalidType  = errors.New("unsupported message type")
	ErrEmptyContent = errors.New("content required for text messages")
)

// ChatService is the single source of truth for message mutations. The
// gateway and the REST handlers both go through it; it never broadcasts.
type ChatService struct {
	repo   repository.MessageRepository
	users  directory.UserDirectory
	filter *profanity.Filter
	events events.Publisher
	log    *zap.SugaredLogger
}

func NewChatService(repo repository.MessageRepository, users directory.UserDirectory, filter *profanity.Filter, pub events.Publisher, log *zap.SugaredLogger) *ChatService {
	return &ChatService{repo: repo, users: users, filter: filter, events: pub, log: log}
}

// Message is a stored message enriched with the sender's display fields and,
// when it replies to another message, a shallow preview of that message.
type Message struct {
	models.Message
	Sender       *directory.Profile `json:"sender,omitempty"`
	ReplyPreview *ReplyPreview      `json:"replyPreview,omitempty"`
}

type ReplyPreview struct {
	ID       string             `json:"id"`
	Content  string             `json:"content"`
	SenderID string             `json:"senderId"`
	Type     models.MessageType `json:"type"`
}

type CreateMessageInput struct {
	RoomID        string
	RecipientID   string
	SenderID      string
	Content       string
	Type          models.MessageType
	AttachmentURL string
	ReplyTo       string
}

func (s *ChatService) CreateMessage(ctx context.Context, in CreateMessageInput) (*Message, error) {
	if (in.RoomID == "") == (in.RecipientID == "") {
		return nil, ErrInvalidScope
	}
	if in.Type == "" {
		in.Type = models.MessageText
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}
	if in.Type == models.MessageText && in.Content == "" {
		return nil, ErrEmptyContent
	}

	senderID, err := primitive.ObjectIDFromHex(in.SenderID)
	if err != nil {
		return nil, ErrInvalidID
	}

	m := &models.Message{
		SenderID:      senderID,
		Type:          in.Type,
		AttachmentURL: in.AttachmentURL,
		CreatedAt:     time.Now().UTC(),
	}

	// Raw input is never stored for text messages, only the cleaned form.
	if in.Type == models.MessageText {
		m.Content = s.filter.Clean(in.Content)
	} else {
		m.Content = in.Content
	}

	if in.RoomID != "" {
		roomID, err := primitive.ObjectIDFromHex(in.RoomID)
		if err != nil {
			return nil, ErrInvalidID
		}
		m.RoomID = &roomID
	} else {
		recipientID, err := primitive.ObjectIDFromHex(in.RecipientID)
		if err != nil {
			return nil, ErrInvalidID
		}
		m.RecipientID = &recipientID
	}

	if in.ReplyTo != "" {
		replyTo, err := primitive.ObjectIDFromHex(in.ReplyTo)
		if err != nil {
			return nil, ErrInvalidID
		}
		if _, err := s.repo.GetByID(ctx, replyTo); err != nil {
			return nil, s.mapErr(err)
		}
		m.ReplyTo = &replyTo
	}

	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, events.MessageCreated, m)
	return s.enrich(ctx, m), nil
}

// GetRoomMessages pages backward through a room's history, newest first.
// Pass the oldest returned id as before to load the next older page.
func (s *ChatService) GetRoomMessages(ctx context.Context, roomID string, limit int64, before string) ([]*Message, error) {
	rid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, ErrInvalidID
	}
	cursor, err := parseCursor(before)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListRoom(ctx, rid, normalizeLimit(limit), cursor)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, msgs), nil
}

func (s *ChatService) GetDirectMessages(ctx context.Context, userID, peerID string, limit int64, before string) ([]*Message, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidID
	}
	pid, err := primitive.ObjectIDFromHex(peerID)
	if err != nil {
		return nil, ErrInvalidID
	}
	cursor, err := parseCursor(before)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListDirect(ctx, uid, pid, normalizeLimit(limit), cursor)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, msgs), nil
}

// GetMessage looks a message up by id regardless of its deleted flag.
func (s *ChatService) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	id, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, ErrInvalidID
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return s.enrich(ctx, m), nil
}

// AddReaction replaces any prior reaction by the user with the new emoji.
func (s *ChatService) AddReaction(ctx context.Context, messageID, userID, emoji string) (*Message, error) {
	mid, uid, err := parseIDPair(messageID, userID)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.SetReaction(ctx, mid, uid, emoji)
	if err != nil {
		return nil, s.mapErr(err)
	}
	s.publish(ctx, events.MessageUpdated, m)
	return s.enrich(ctx, m), nil
}

// MarkAsRead records a read receipt once per user; re-marking is a no-op.
func (s *ChatService) MarkAsRead(ctx context.Context, messageID, userID string) (*Message, error) {
	mid, uid, err := parseIDPair(messageID, userID)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.MarkRead(ctx, mid, uid, time.Now().UTC())
	if err != nil {
		return nil, s.mapErr(err)
	}
	s.publish(ctx, events.MessageUpdated, m)
	return s.enrich(ctx, m), nil
}

func (s *ChatService) EditMessage(ctx context.Context, messageID, userID, content string) (*Message, error) {
	mid, uid, err := parseIDPair(messageID, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, mid)
	if err != nil {
		return nil, s.mapErr(err)
	}
	if existing.IsDeleted {
		return nil, ErrNotFound
	}
	if existing.SenderID != uid {
		return nil, ErrForbidden
	}
	m, err := s.repo.Edit(ctx, mid, uid, s.filter.Clean(content), time.Now().UTC())
	if err != nil {
		return nil, s.mapErr(err)
	}
	s.publish(ctx, events.MessageUpdated, m)
	return s.enrich(ctx, m), nil
}

// DeleteMessage soft-deletes: the flag is set, content stays for audit.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, userID string) (*Message, error) {
	mid, uid, err := parseIDPair(messageID, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, mid)
	if err != nil {
		return nil, s.mapErr(err)
	}
	if existing.SenderID != uid {
		return nil, ErrForbidden
	}
	m, err := s.repo.SoftDelete(ctx, mid, uid, time.Now().UTC())
	if err != nil {
		return nil, s.mapErr(err)
	}
	s.publish(ctx, events.MessageDeleted, m)
	return s.enrich(ctx, m), nil
}

func (s *ChatService) mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *ChatService) publish(ctx context.Context, typ string, m *models.Message) {
	ev := events.ChatEvent{
		Type:      typ,
		MessageID: m.ID.Hex(),
		SenderID:  m.SenderID.Hex(),
	}
	if m.RoomID != nil {
		ev.RoomID = m.RoomID.Hex()
	}
	if m.RecipientID != nil {
		ev.RecipientID = m.RecipientID.Hex()
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warnw("publish chat event", "type", typ, "message", ev.MessageID, "err", err)
	}
}

func (s *ChatService) enrichAll(ctx context.Context, msgs []*models.Message) []*Message {
	out := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, s.enrich(ctx, m))
	}
	return out
}

// enrich attaches the sender profile and the reply preview. Enrichment is
// best-effort: a missing profile leaves the field nil rather than failing
// the whole request.
func (s *ChatService) enrich(ctx context.Context, m *models.Message) *Message {
	view := &Message{Message: *m}
	if p, err := s.users.Get(ctx, m.SenderID); err == nil {
		view.Sender = p
	}
	if m.ReplyTo != nil {
		if orig, err := s.repo.GetByID(ctx, *m.ReplyTo); err == nil {
			view.ReplyPreview = &ReplyPreview{
				ID:       orig.ID.Hex(),
				Content:  orig.Content,
				SenderID: orig.SenderID.Hex(),
				Type:     orig.Type,
			}
		}
	}
	return view
}

func normalizeLimit(limit int64) int64 {
	if limit <= 0 {
		return DefaultPageSize
	}
	return limit
}

func parseCursor(before string) (*primitive.ObjectID, error) {
	if before == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(before)
	if err != nil {
		return nil, ErrInvalidID
	}
	return &id, nil
}

func parseIDPair(messageID, userID string) (primitive.ObjectID, primitive.ObjectID, error) {
	mid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, ErrInvalidID
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, ErrInvalidID
	}
	return mid, uid, nil
}
