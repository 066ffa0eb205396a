package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campushub/chat-service/internal/directory"
	"github.com/campushub/chat-service/internal/models"
)

// ConversationSummary is one entry of a user's inbox: the peer and the most
// recent direct message exchanged with them. Derived per request, never
// stored.
type ConversationSummary struct {
	Partner     *directory.Profile `json:"partner"`
	LastMessage LastMessage        `json:"lastMessage"`
}

type LastMessage struct {
	ID        string               `json:"id"`
	Content   string               `json:"content"`
	Type      models.MessageType   `json:"type"`
	SenderID  string               `json:"senderId"`
	ReadBy    []models.ReadReceipt `json:"readBy"`
	CreatedAt time.Time            `json:"createdAt"`
}

// GetConversations groups the user's direct messages by peer, keeps the most
// recent message per peer and joins the peer's profile and presence, most
// recently active conversation first.
func (s *ChatService) GetConversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidID
	}
	entries, err := s.repo.Conversations(ctx, uid)
	if err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, 0, len(entries))
	for _, e := range entries {
		partner, err := s.users.Get(ctx, e.PeerID)
		if err != nil {
			// Peer left the platform; skip rather than fail the inbox.
			s.log.Debugw("conversation peer lookup", "peer", e.PeerID.Hex(), "err", err)
			continue
		}
		out = append(out, ConversationSummary{
			Partner: partner,
			LastMessage: LastMessage{
				ID:        e.LastMessage.ID.Hex(),
				Content:   e.LastMessage.Content,
				Type:      e.LastMessage.Type,
				SenderID:  e.LastMessage.SenderID.Hex(),
				ReadBy:    e.LastMessage.ReadBy,
				CreatedAt: e.LastMessage.CreatedAt,
			},
		})
	}
	return out, nil
}
