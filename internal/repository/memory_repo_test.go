package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campushub/chat-service/internal/models"
)

func newRoomMessage(t *testing.T, repo *MemoryRepository, roomID, senderID primitive.ObjectID, content string, at time.Time) *models.Message {
	t.Helper()
	m := &models.Message{
		RoomID:    &roomID,
		SenderID:  senderID,
		Content:   content,
		Type:      models.MessageText,
		CreatedAt: at,
	}
	if err := repo.Insert(context.Background(), m); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return m
}

func TestRoomPaginationNoOverlapNoGap(t *testing.T) {
	repo := NewMemoryRepository()
	roomID := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var all []*models.Message
	for i := 0; i < 120; i++ {
		all = append(all, newRoomMessage(t, repo, roomID, sender, "msg", base.Add(time.Duration(i)*time.Second)))
	}

	first, err := repo.ListRoom(context.Background(), roomID, 50, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(first))
	}
	if first[0].ID != all[119].ID {
		t.Errorf("expected newest message first")
	}

	oldest := first[len(first)-1].ID
	second, err := repo.ListRoom(context.Background(), roomID, 50, &oldest)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(second) != 50 {
		t.Fatalf("expected 50 older messages, got %d", len(second))
	}

	seen := make(map[primitive.ObjectID]bool)
	for _, m := range append(first, second...) {
		if seen[m.ID] {
			t.Fatalf("overlap: message %s returned twice", m.ID.Hex())
		}
		seen[m.ID] = true
	}
	// No gap: pages together are exactly the 100 newest.
	for _, m := range all[20:] {
		if !seen[m.ID] {
			t.Fatalf("gap: message %s missing from pages", m.ID.Hex())
		}
	}
}

func TestListToleratesOversizedLimit(t *testing.T) {
	repo := NewMemoryRepository()
	roomID := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		newRoomMessage(t, repo, roomID, sender, "msg", base.Add(time.Duration(i)*time.Second))
	}

	msgs, err := repo.ListRoom(context.Background(), roomID, math.MaxInt64, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected all 3 messages, got %d", len(msgs))
	}
}

func TestListExcludesDeletedButKeepsCursorValidity(t *testing.T) {
	repo := NewMemoryRepository()
	roomID := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m1 := newRoomMessage(t, repo, roomID, sender, "one", base)
	m2 := newRoomMessage(t, repo, roomID, sender, "two", base.Add(time.Second))
	m3 := newRoomMessage(t, repo, roomID, sender, "three", base.Add(2*time.Second))

	if _, err := repo.SoftDelete(context.Background(), m2.ID, sender, time.Now()); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	msgs, err := repo.ListRoom(context.Background(), roomID, 50, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != m3.ID || msgs[1].ID != m1.ID {
		t.Errorf("unexpected order after soft delete")
	}

	// The deleted message's id still works as a cursor bound.
	msgs, err = repo.ListRoom(context.Background(), roomID, 50, &m2.ID)
	if err != nil {
		t.Fatalf("list before deleted: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != m1.ID {
		t.Errorf("cursor through deleted message broken")
	}

	// Direct lookup still sees the document, flagged, content intact.
	got, err := repo.GetByID(context.Background(), m2.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if !got.IsDeleted || got.Content != "two" {
		t.Errorf("soft delete should preserve content, got %+v", got)
	}
}

func TestSetReactionReplacesPriorReaction(t *testing.T) {
	repo := NewMemoryRepository()
	roomID := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	reactor := primitive.NewObjectID()
	m := newRoomMessage(t, repo, roomID, sender, "hi", time.Now().UTC())

	if _, err := repo.SetReaction(context.Background(), m.ID, reactor, "😀"); err != nil {
		t.Fatalf("react: %v", err)
	}
	got, err := repo.SetReaction(context.Background(), m.ID, reactor, "😂")
	if err != nil {
		t.Fatalf("react again: %v", err)
	}
	if len(got.Reactions) != 1 {
		t.Fatalf("expected one reaction, got %d", len(got.Reactions))
	}
	if got.Reactions[0].Emoji != "😂" {
		t.Errorf("expected replacement emoji, got %q", got.Reactions[0].Emoji)
	}
}

func TestSetReactionKeepsOtherUsers(t *testing.T) {
	repo := NewMemoryRepository()
	roomID := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	m := newRoomMessage(t, repo, roomID, sender, "hi", time.Now().UTC())

	if _, err := repo.SetReaction(context.Background(), m.ID, u1, "👍"); err != nil {
		t.Fatal(err)
	}
	got, err := repo.SetReaction(context.Background(), m.ID, u2, "🔥")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Reactions) != 2 {
		t.Fatalf("expected two reactions, got %d", len(got.Reactions))
	}
	if emoji, ok := got.ReactionFor(u1); !ok || emoji != "👍" {
		t.Errorf("first user's reaction lost, got %q (%v)", emoji, ok)
	}
	if emoji, ok := got.ReactionFor(u2); !ok || emoji != "🔥" {
		t.Errorf("second user's reaction missing, got %q (%v)", emoji, ok)
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	roomID := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	reader := primitive.NewObjectID()
	m := newRoomMessage(t, repo, roomID, sender, "hi", time.Now().UTC())

	at := time.Now().UTC()
	if _, err := repo.MarkRead(context.Background(), m.ID, reader, at); err != nil {
		t.Fatal(err)
	}
	got, err := repo.MarkRead(context.Background(), m.ID, reader, at.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, r := range got.ReadBy {
		if r.UserID == reader {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one read receipt, got %d", count)
	}
}

func TestEditGuards(t *testing.T) {
	repo := NewMemoryRepository()
	roomID := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	other := primitive.NewObjectID()
	m := newRoomMessage(t, repo, roomID, sender, "original", time.Now().UTC())

	if _, err := repo.Edit(context.Background(), m.ID, other, "hacked", time.Now()); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for non-owner edit, got %v", err)
	}
	got, _ := repo.GetByID(context.Background(), m.ID)
	if got.Content != "original" || got.IsEdited {
		t.Errorf("message changed by unauthorized edit: %+v", got)
	}

	if _, err := repo.SoftDelete(context.Background(), m.ID, sender, time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Edit(context.Background(), m.ID, sender, "late", time.Now()); err != ErrNotFound {
		t.Errorf("expected ErrNotFound editing deleted message, got %v", err)
	}
}

func TestConversationsLatestPerPeer(t *testing.T) {
	repo := NewMemoryRepository()
	me := primitive.NewObjectID()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	dm := func(from, to primitive.ObjectID, content string, at time.Time) {
		t.Helper()
		m := &models.Message{RecipientID: &to, SenderID: from, Content: content, Type: models.MessageText, CreatedAt: at}
		if err := repo.Insert(context.Background(), m); err != nil {
			t.Fatal(err)
		}
	}

	dm(me, alice, "hi alice", base)
	dm(alice, me, "hi back", base.Add(time.Minute))
	dm(bob, me, "yo", base.Add(2*time.Minute))

	convs, err := repo.Conversations(context.Background(), me)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].PeerID != bob {
		t.Errorf("expected most recent conversation (bob) first")
	}
	if convs[1].PeerID != alice || convs[1].LastMessage.Content != "hi back" {
		t.Errorf("expected alice's latest message, got %+v", convs[1].LastMessage)
	}
}
