package ws

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/campushub/chat-service/internal/directory"
	"github.com/campushub/chat-service/internal/events"
	"github.com/campushub/chat-service/internal/presence"
	"github.com/campushub/chat-service/internal/profanity"
	"github.com/campushub/chat-service/internal/repository"
	"github.com/campushub/chat-service/internal/service"
)

type stubDirectory struct {
	profiles map[primitive.ObjectID]*directory.Profile
}

func (d *stubDirectory) Get(_ context.Context, id primitive.ObjectID) (*directory.Profile, error) {
	if p, ok := d.profiles[id]; ok {
		return p, nil
	}
	return nil, directory.ErrNotFound
}

func (d *stubDirectory) SetPresence(_ context.Context, id primitive.ObjectID, online bool, lastSeen *time.Time) error {
	if p, ok := d.profiles[id]; ok {
		p.IsOnline = online
		p.LastSeen = lastSeen
	}
	return nil
}

func newTestGateway(t *testing.T) (*Gateway, *stubDirectory) {
	t.Helper()
	dir := &stubDirectory{profiles: map[primitive.ObjectID]*directory.Profile{}}
	chat := service.NewChatService(
		repository.NewMemoryRepository(),
		dir,
		profanity.New("zorblat"),
		events.NopPublisher{},
		zap.NewNop().Sugar(),
	)
	hub := NewHub()
	return NewGateway(hub, chat, presence.NewMemoryTracker(), dir, events.NopPublisher{}, zap.NewNop().Sugar()), dir
}

func (d *stubDirectory) addUser(first string) string {
	id := primitive.NewObjectID()
	d.profiles[id] = &directory.Profile{ID: id, FirstName: first}
	return id.Hex()
}

func session(g *Gateway, userID, connID string) *Client {
	c := NewClient(nil, userID, connID)
	g.hub.Register(c)
	g.hub.Join(c, InboxRoom(userID))
	return c
}

func envelope(t *testing.T, event, requestID string, payload any) Envelope {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return Envelope{Event: event, RequestID: requestID, Data: b}
}

func TestSendMessageBroadcastsToRoomOnly(t *testing.T) {
	g, dir := newTestGateway(t)
	sender := dir.addUser("Amine")
	room := primitive.NewObjectID().Hex()
	otherRoom := primitive.NewObjectID().Hex()

	a := session(g, sender, "c1")
	b := session(g, dir.addUser("Sami"), "c2")
	outsider := session(g, dir.addUser("Nour"), "c3")
	g.hub.Join(a, ClubRoom(room))
	g.hub.Join(b, ClubRoom(room))
	g.hub.Join(outsider, ClubRoom(otherRoom))

	g.dispatch(a, envelope(t, EvSendMessage, "req-1", sendMessagePayload{
		RoomID:  room,
		Content: "hello zorblat",
	}))

	bEvents := drain(b)
	if len(bEvents) != 1 || bEvents[0].Event != EvNewMessage {
		t.Fatalf("room member expected one newMessage, got %v", bEvents)
	}
	msg, ok := bEvents[0].Data.(*service.Message)
	if !ok {
		t.Fatalf("unexpected payload type %T", bEvents[0].Data)
	}
	if strings.Contains(msg.Content, "zorblat") {
		t.Errorf("broadcast content must be the cleaned text, got %q", msg.Content)
	}

	if got := drain(outsider); len(got) != 0 {
		t.Errorf("unrelated room received the message: %v", got)
	}

	// Sender gets the room broadcast plus the ok ack.
	var sawAck bool
	for _, ev := range drain(a) {
		if ev.Event == EvAck {
			ack := ev.Data.(ackPayload)
			if !ack.OK || ack.RequestID != "req-1" {
				t.Errorf("bad ack: %+v", ack)
			}
			sawAck = true
		}
	}
	if !sawAck {
		t.Error("sender did not receive the ack")
	}
}

func TestDirectMessageReachesEverySessionOfBothParties(t *testing.T) {
	g, dir := newTestGateway(t)
	alice := dir.addUser("Alice")
	bob := dir.addUser("Bob")

	aPhone := session(g, alice, "a1")
	bPhone := session(g, bob, "b1")
	bLaptop := session(g, bob, "b2")

	g.dispatch(aPhone, envelope(t, EvSendMessage, "", sendMessagePayload{
		RecipientID: bob,
		Content:     "hi bob",
	}))

	for name, c := range map[string]*Client{"bob phone": bPhone, "bob laptop": bLaptop, "alice": aPhone} {
		got := drain(c)
		count := 0
		for _, ev := range got {
			if ev.Event == EvPrivateMessage {
				count++
			}
		}
		if count != 1 {
			t.Errorf("%s: expected exactly one privateMessage, got %d (%v)", name, count, got)
		}
	}
}

func TestInvalidScopeAcked(t *testing.T) {
	g, dir := newTestGateway(t)
	a := session(g, dir.addUser("A"), "c1")

	g.dispatch(a, envelope(t, EvSendMessage, "req-2", sendMessagePayload{Content: "no scope"}))

	got := drain(a)
	if len(got) != 1 || got[0].Event != EvAck {
		t.Fatalf("expected only an ack, got %v", got)
	}
	ack := got[0].Data.(ackPayload)
	if ack.OK || ack.Error != "invalid" {
		t.Errorf("expected invalid ack, got %+v", ack)
	}
}

func TestEditByNonSenderSuppressedWithAck(t *testing.T) {
	g, dir := newTestGateway(t)
	sender := dir.addUser("Sender")
	intruder := dir.addUser("Intruder")
	room := primitive.NewObjectID().Hex()

	sc := session(g, sender, "c1")
	ic := session(g, intruder, "c2")
	g.hub.Join(sc, ClubRoom(room))
	g.hub.Join(ic, ClubRoom(room))

	g.dispatch(sc, envelope(t, EvSendMessage, "", sendMessagePayload{RoomID: room, Content: "mine"}))
	sent := drain(sc)
	var msgID string
	for _, ev := range sent {
		if ev.Event == EvNewMessage {
			msgID = ev.Data.(*service.Message).ID.Hex()
		}
	}
	if msgID == "" {
		t.Fatal("message not broadcast to sender")
	}
	drain(ic)

	g.dispatch(ic, envelope(t, EvEditMessage, "req-3", editPayload{MessageID: msgID, Content: "hijacked"}))

	icEvents := drain(ic)
	if len(icEvents) != 1 || icEvents[0].Event != EvAck {
		t.Fatalf("expected only a failure ack, got %v", icEvents)
	}
	if ack := icEvents[0].Data.(ackPayload); ack.OK || ack.Error != "forbidden" {
		t.Errorf("expected forbidden ack, got %+v", ack)
	}
	if got := drain(sc); len(got) != 0 {
		t.Errorf("failed edit must not broadcast, got %v", got)
	}
}

func TestDeleteBroadcastsIDOnly(t *testing.T) {
	g, dir := newTestGateway(t)
	sender := dir.addUser("Sender")
	room := primitive.NewObjectID().Hex()

	sc := session(g, sender, "c1")
	peer := session(g, dir.addUser("Peer"), "c2")
	g.hub.Join(sc, ClubRoom(room))
	g.hub.Join(peer, ClubRoom(room))

	g.dispatch(sc, envelope(t, EvSendMessage, "", sendMessagePayload{RoomID: room, Content: "to be removed"}))
	var msgID string
	for _, ev := range drain(sc) {
		if ev.Event == EvNewMessage {
			msgID = ev.Data.(*service.Message).ID.Hex()
		}
	}
	drain(peer)

	g.dispatch(sc, envelope(t, EvDeleteMsg, "", deletePayload{MessageID: msgID}))

	got := drain(peer)
	if len(got) != 1 || got[0].Event != EvMessageDeleted {
		t.Fatalf("expected messageDeleted, got %v", got)
	}
	if p := got[0].Data.(messageDeletedPayload); p.MessageID != msgID {
		t.Errorf("expected deletion notice for %s, got %+v", msgID, p)
	}
}

func TestTypingEphemeralBroadcast(t *testing.T) {
	g, dir := newTestGateway(t)
	room := primitive.NewObjectID().Hex()
	a := session(g, dir.addUser("A"), "c1")
	b := session(g, dir.addUser("B"), "c2")
	g.hub.Join(a, ClubRoom(room))
	g.hub.Join(b, ClubRoom(room))

	g.dispatch(a, envelope(t, EvTyping, "", typingPayload{RoomID: room, IsTyping: true}))

	got := drain(b)
	if len(got) != 1 || got[0].Event != EvTypingStatus {
		t.Fatalf("expected typingStatus, got %v", got)
	}
	p := got[0].Data.(typingPayload)
	if p.UserID != a.UserID() || !p.IsTyping {
		t.Errorf("typing payload must carry the session's user, got %+v", p)
	}
}

func TestPresenceBroadcastOnFirstConnectAndLastDisconnect(t *testing.T) {
	g, dir := newTestGateway(t)
	user := dir.addUser("Yassine")
	uid, err := primitive.ObjectIDFromHex(user)
	if err != nil {
		t.Fatal(err)
	}
	watcher := session(g, dir.addUser("Watcher"), "w1")

	start := time.Now().UTC()
	g.connected(uid, user, "d1")

	got := drain(watcher)
	if len(got) != 1 || got[0].Event != EvUserStatus {
		t.Fatalf("expected one userStatus on first connect, got %v", got)
	}
	if p := got[0].Data.(userStatusPayload); p.UserID != user || !p.IsOnline {
		t.Errorf("expected online status for %s, got %+v", user, p)
	}
	if !dir.profiles[uid].IsOnline {
		t.Error("directory must record the user online")
	}

	g.connected(uid, user, "d2")
	if got := drain(watcher); len(got) != 0 {
		t.Errorf("second device must not re-broadcast, got %v", got)
	}

	g.disconnected(uid, user, "d1")
	if got := drain(watcher); len(got) != 0 {
		t.Errorf("disconnect with another device still open must not broadcast, got %v", got)
	}
	if !dir.profiles[uid].IsOnline {
		t.Error("user must stay online while a device remains connected")
	}

	g.disconnected(uid, user, "d2")
	got = drain(watcher)
	if len(got) != 1 || got[0].Event != EvUserStatus {
		t.Fatalf("expected one userStatus on last disconnect, got %v", got)
	}
	p := got[0].Data.(userStatusPayload)
	if p.UserID != user || p.IsOnline {
		t.Errorf("expected offline status, got %+v", p)
	}
	if p.LastSeen == nil || p.LastSeen.Before(start) {
		t.Errorf("lastSeen must not predate the connection, got %v", p.LastSeen)
	}
	if prof := dir.profiles[uid]; prof.IsOnline || prof.LastSeen == nil {
		t.Errorf("directory must record offline with lastSeen, got %+v", prof)
	}
}

func TestMarkAsReadBroadcastsToRoom(t *testing.T) {
	g, dir := newTestGateway(t)
	sender := dir.addUser("Sender")
	reader := dir.addUser("Reader")
	room := primitive.NewObjectID().Hex()

	sc := session(g, sender, "c1")
	rc := session(g, reader, "c2")
	g.hub.Join(sc, ClubRoom(room))
	g.hub.Join(rc, ClubRoom(room))

	g.dispatch(sc, envelope(t, EvSendMessage, "", sendMessagePayload{RoomID: room, Content: "read me"}))
	var msgID string
	for _, ev := range drain(sc) {
		if ev.Event == EvNewMessage {
			msgID = ev.Data.(*service.Message).ID.Hex()
		}
	}
	drain(rc)

	g.dispatch(rc, envelope(t, EvMarkAsRead, "", markReadPayload{MessageID: msgID, RoomID: room}))

	events := drain(sc)
	var sawUpdated, sawRead bool
	for _, ev := range events {
		switch ev.Event {
		case EvMessageUpdated:
			sawUpdated = true
		case EvMessageRead:
			p := ev.Data.(messageReadPayload)
			if p.MessageID != msgID || p.UserID != reader {
				t.Errorf("bad messageRead payload: %+v", p)
			}
			sawRead = true
		}
	}
	if !sawUpdated || !sawRead {
		t.Errorf("expected messageUpdated and messageRead, got %v", events)
	}
}
