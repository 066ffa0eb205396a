package repository

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campushub/chat-service/internal/models"
)

// MemoryRepository is an in-process MessageRepository with the same ordering
// and update semantics as the Mongo implementation. Used by tests and local
// development without a database.
type MemoryRepository struct {
	mu   sync.RWMutex
	msgs []*models.Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(_ context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.Reactions == nil {
		m.Reactions = []models.Reaction{}
	}
	if m.ReadBy == nil {
		m.ReadBy = []models.ReadReceipt{}
	}
	cp := *m
	r.msgs = append(r.msgs, &cp)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.find(id)
	if m == nil {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MemoryRepository) ListRoom(_ context.Context, roomID primitive.ObjectID, limit int64, before *primitive.ObjectID) ([]*models.Message, error) {
	return r.list(func(m *models.Message) bool {
		return m.RoomID != nil && *m.RoomID == roomID
	}, limit, before), nil
}

func (r *MemoryRepository) ListDirect(_ context.Context, userID, peerID primitive.ObjectID, limit int64, before *primitive.ObjectID) ([]*models.Message, error) {
	return r.list(func(m *models.Message) bool {
		if m.RecipientID == nil {
			return false
		}
		return (m.SenderID == userID && *m.RecipientID == peerID) ||
			(m.SenderID == peerID && *m.RecipientID == userID)
	}, limit, before), nil
}

func (r *MemoryRepository) list(match func(*models.Message) bool, limit int64, before *primitive.ObjectID) []*models.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alloc := limit
	if alloc > int64(len(r.msgs)) {
		alloc = int64(len(r.msgs))
	}
	out := make([]*models.Message, 0, alloc)
	for _, m := range r.msgs {
		if m.IsDeleted || !match(m) {
			continue
		}
		if before != nil && !idLess(m.ID, *before) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return newerThan(out[i], out[j]) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out
}

func (r *MemoryRepository) SetReaction(_ context.Context, msgID, userID primitive.ObjectID, emoji string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.find(msgID)
	if m == nil {
		return nil, ErrNotFound
	}
	kept := m.Reactions[:0]
	for _, re := range m.Reactions {
		if re.UserID != userID {
			kept = append(kept, re)
		}
	}
	m.Reactions = append(kept, models.Reaction{UserID: userID, Emoji: emoji})
	now := time.Now().UTC()
	m.UpdatedAt = &now
	cp := *m
	return &cp, nil
}

func (r *MemoryRepository) MarkRead(_ context.Context, msgID, userID primitive.ObjectID, at time.Time) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.find(msgID)
	if m == nil {
		return nil, ErrNotFound
	}
	if !m.ReadByUser(userID) {
		m.ReadBy = append(m.ReadBy, models.ReadReceipt{UserID: userID, ReadAt: at})
	}
	cp := *m
	return &cp, nil
}

func (r *MemoryRepository) Edit(_ context.Context, msgID, senderID primitive.ObjectID, content string, at time.Time) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.find(msgID)
	if m == nil || m.SenderID != senderID || m.IsDeleted {
		return nil, ErrNotFound
	}
	m.Content = content
	m.IsEdited = true
	m.UpdatedAt = &at
	cp := *m
	return &cp, nil
}

func (r *MemoryRepository) SoftDelete(_ context.Context, msgID, senderID primitive.ObjectID, at time.Time) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.find(msgID)
	if m == nil || m.SenderID != senderID {
		return nil, ErrNotFound
	}
	m.IsDeleted = true
	m.UpdatedAt = &at
	cp := *m
	return &cp, nil
}

func (r *MemoryRepository) Conversations(_ context.Context, userID primitive.ObjectID) ([]ConversationEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[primitive.ObjectID]*models.Message)
	for _, m := range r.msgs {
		if m.RecipientID == nil {
			continue
		}
		var peer primitive.ObjectID
		switch {
		case m.SenderID == userID:
			peer = *m.RecipientID
		case *m.RecipientID == userID:
			peer = m.SenderID
		default:
			continue
		}
		if cur, ok := latest[peer]; !ok || newerThan(m, cur) {
			latest[peer] = m
		}
	}

	out := make([]ConversationEntry, 0, len(latest))
	for peer, m := range latest {
		out = append(out, ConversationEntry{PeerID: peer, LastMessage: *m})
	}
	sort.Slice(out, func(i, j int) bool {
		return newerThan(&out[i].LastMessage, &out[j].LastMessage)
	})
	return out, nil
}

func (r *MemoryRepository) find(id primitive.ObjectID) *models.Message {
	for _, m := range r.msgs {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// newerThan orders messages by creation time descending with id as the
// tiebreaker, matching the Mongo sort.
func newerThan(a, b *models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return idLess(b.ID, a.ID)
}

func idLess(a, b primitive.ObjectID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
