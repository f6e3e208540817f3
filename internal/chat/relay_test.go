package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"hrdesk/internal/domain"
)

// flakyConn falla los primeros failPushes intentos de Push.
type flakyConn struct {
	stubConn
	failPushes int
	attempts   int
}

func (f *flakyConn) Push(payload []byte) error {
	f.mu.Lock()
	f.attempts++
	if f.failPushes > 0 {
		f.failPushes--
		f.mu.Unlock()
		return ErrSendBufferFull
	}
	f.mu.Unlock()
	return f.stubConn.Push(payload)
}

type mockChatStore struct {
	mu        sync.Mutex
	nextID    int64
	appendErr error
	appends   int
	messages  []domain.ChatMessage
}

func (m *mockChatStore) Append(_ context.Context, senderID, receiverID, body string) (domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends++
	if m.appendErr != nil {
		return domain.ChatMessage{}, m.appendErr
	}
	m.nextID++
	msg := domain.ChatMessage{
		ID:         m.nextID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *mockChatStore) History(_ context.Context, userA, userB string) ([]domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ChatMessage
	for _, msg := range m.messages {
		if (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA) {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func decodeEvents(t *testing.T, c *stubConn) []Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make([]Event, 0, len(c.pushes))
	for _, raw := range c.pushes {
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		events = append(events, evt)
	}
	return events
}

func newTestRelay(store *mockChatStore, maxBody int) (*Relay, *Registry) {
	reg := NewRegistry()
	return NewRelay(zap.NewNop(), reg, store, maxBody), reg
}

func TestRelaySendDeliversAndEchoes(t *testing.T) {
	store := &mockChatStore{}
	relay, reg := newTestRelay(store, 0)

	alice := &stubConn{userID: "alice"}
	bob := &stubConn{userID: "bob"}
	if err := reg.Register("alice", alice); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if err := reg.Register("bob", bob); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	msg, err := relay.Send(context.Background(), alice, "bob", "hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == 0 || msg.CreatedAt.IsZero() {
		t.Fatalf("expected assigned id and timestamp, got %+v", msg)
	}

	bobEvents := decodeEvents(t, bob)
	if len(bobEvents) != 1 || bobEvents[0].Type != EventMessageDelivered {
		t.Fatalf("expected one messageDelivered for bob, got %+v", bobEvents)
	}
	if bobEvents[0].Message == nil || bobEvents[0].Message.Body != "hi" {
		t.Fatalf("unexpected delivered payload: %+v", bobEvents[0].Message)
	}

	aliceEvents := decodeEvents(t, alice)
	if len(aliceEvents) != 1 || aliceEvents[0].Type != EventMessageSent {
		t.Fatalf("expected one messageSent echo for alice, got %+v", aliceEvents)
	}
	if aliceEvents[0].Message == nil || aliceEvents[0].Message.ID != msg.ID {
		t.Fatalf("echo should carry the persisted message")
	}
}

func TestRelaySendValidation(t *testing.T) {
	store := &mockChatStore{}
	relay, reg := newTestRelay(store, 16)
	alice := &stubConn{userID: "alice"}
	if err := reg.Register("alice", alice); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := relay.Send(context.Background(), alice, "bob", "   "); !errors.Is(err, ErrChatEmptyBody) {
		t.Fatalf("expected ErrChatEmptyBody, got %v", err)
	}
	if _, err := relay.Send(context.Background(), alice, "bob", strings.Repeat("x", 17)); !errors.Is(err, ErrChatBodyTooLarge) {
		t.Fatalf("expected ErrChatBodyTooLarge, got %v", err)
	}
	if _, err := relay.Send(context.Background(), alice, "  ", "hola"); !errors.Is(err, ErrChatInvalidRecipient) {
		t.Fatalf("expected ErrChatInvalidRecipient, got %v", err)
	}

	if store.appends != 0 {
		t.Fatalf("store should not be touched on validation failure, got %d appends", store.appends)
	}
	history, _ := store.History(context.Background(), "alice", "bob")
	if len(history) != 0 {
		t.Fatalf("rejected messages must not appear in history")
	}
}

func TestRelaySendUnauthorizedWithoutIdentity(t *testing.T) {
	relay, _ := newTestRelay(&mockChatStore{}, 0)

	if _, err := relay.Send(context.Background(), &stubConn{}, "bob", "hola"); !errors.Is(err, ErrChatUnauthorized) {
		t.Fatalf("expected ErrChatUnauthorized, got %v", err)
	}
	if _, err := relay.Send(context.Background(), nil, "bob", "hola"); !errors.Is(err, ErrChatUnauthorized) {
		t.Fatalf("expected ErrChatUnauthorized for nil conn, got %v", err)
	}
}

func TestRelaySendOfflineReceiverStillPersists(t *testing.T) {
	store := &mockChatStore{}
	relay, reg := newTestRelay(store, 0)
	alice := &stubConn{userID: "alice"}
	if err := reg.Register("alice", alice); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := relay.Send(context.Background(), alice, "bob", "hello"); err != nil {
		t.Fatalf("send to offline receiver should succeed: %v", err)
	}

	history, err := store.History(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Body != "hello" {
		t.Fatalf("expected catch-up message in history, got %+v", history)
	}
}

func TestRelaySendStoreFailureNotDelivered(t *testing.T) {
	store := &mockChatStore{appendErr: errors.New("db down")}
	relay, reg := newTestRelay(store, 0)
	alice := &stubConn{userID: "alice"}
	bob := &stubConn{userID: "bob"}
	if err := reg.Register("alice", alice); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if err := reg.Register("bob", bob); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	if _, err := relay.Send(context.Background(), alice, "bob", "hola"); !errors.Is(err, ErrChatStoreUnavailable) {
		t.Fatalf("expected ErrChatStoreUnavailable, got %v", err)
	}
	if bob.pushCount() != 0 {
		t.Fatalf("no push should happen when persistence fails")
	}
	if alice.pushCount() != 0 {
		t.Fatalf("no echo should happen when persistence fails")
	}
}

func TestRelaySendDropsDeadConnection(t *testing.T) {
	store := &mockChatStore{}
	relay, reg := newTestRelay(store, 0)

	alice := &stubConn{userID: "alice"}
	healthy := &stubConn{userID: "bob"}
	dead := &flakyConn{stubConn: stubConn{userID: "bob"}, failPushes: 10}
	if err := reg.Register("alice", alice); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if err := reg.Register("bob", healthy); err != nil {
		t.Fatalf("register healthy: %v", err)
	}
	if err := reg.Register("bob", dead); err != nil {
		t.Fatalf("register dead: %v", err)
	}

	if _, err := relay.Send(context.Background(), alice, "bob", "hola"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if healthy.pushCount() != 1 {
		t.Fatalf("healthy connection should receive the push, got %d", healthy.pushCount())
	}
	if dead.attempts != 2 {
		t.Fatalf("expected exactly one retry (2 attempts), got %d", dead.attempts)
	}
	if !dead.Closed() {
		t.Fatalf("dead connection should be closed")
	}
	if got := len(reg.ConnectionsFor("bob")); got != 1 {
		t.Fatalf("dead connection should leave the registry, got %d conns", got)
	}
}

func TestRelaySendNoPushAfterUnregister(t *testing.T) {
	store := &mockChatStore{}
	relay, reg := newTestRelay(store, 0)

	alice := &stubConn{userID: "alice"}
	bobConn := &stubConn{userID: "bob"}
	if err := reg.Register("alice", alice); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if err := reg.Register("bob", bobConn); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	if _, err := relay.Send(context.Background(), alice, "bob", "first"); err != nil {
		t.Fatalf("send first: %v", err)
	}
	reg.Unregister("bob", bobConn)
	if _, err := relay.Send(context.Background(), alice, "bob", "second"); err != nil {
		t.Fatalf("send second: %v", err)
	}

	events := decodeEvents(t, bobConn)
	if len(events) != 1 {
		t.Fatalf("expected exactly one push before unregister, got %d", len(events))
	}
	if events[0].Message == nil || events[0].Message.Body != "first" {
		t.Fatalf("unexpected push payload: %+v", events[0])
	}
}

func TestRelaySendSequentialOrderPreserved(t *testing.T) {
	store := &mockChatStore{}
	relay, reg := newTestRelay(store, 0)
	alice := &stubConn{userID: "alice"}
	if err := reg.Register("alice", alice); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, body := range []string{"a", "b"} {
		if _, err := relay.Send(context.Background(), alice, "bob", body); err != nil {
			t.Fatalf("send %q: %v", body, err)
		}
	}

	history, err := store.History(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Body != "a" || history[1].Body != "b" {
		t.Fatalf("expected [a b] in order, got %+v", history)
	}
	if history[0].ID >= history[1].ID {
		t.Fatalf("ids must be increasing, got %d then %d", history[0].ID, history[1].ID)
	}
}

func TestRelaySendMultiDeviceEcho(t *testing.T) {
	store := &mockChatStore{}
	relay, reg := newTestRelay(store, 0)

	phone := &stubConn{userID: "alice"}
	laptop := &stubConn{userID: "alice"}
	if err := reg.Register("alice", phone); err != nil {
		t.Fatalf("register phone: %v", err)
	}
	if err := reg.Register("alice", laptop); err != nil {
		t.Fatalf("register laptop: %v", err)
	}

	if _, err := relay.Send(context.Background(), phone, "bob", "hola"); err != nil {
		t.Fatalf("send: %v", err)
	}

	for name, c := range map[string]*stubConn{"phone": phone, "laptop": laptop} {
		events := decodeEvents(t, c)
		if len(events) != 1 || events[0].Type != EventMessageSent {
			t.Fatalf("%s should see the echo, got %+v", name, events)
		}
	}
}
