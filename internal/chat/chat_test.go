package chat

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"quickchat/internal/model"
)

// fakeConn is an in-memory ConnLike; ReadMessage blocks until Close.
type fakeConn struct {
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, io.EOF
}

func (f *fakeConn) WriteMessage(int, []byte) error { return nil }

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// drain decodes every frame queued on the client's send channel.
func drain(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case data := <-c.send:
			var env Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func lastOnlineSet(t *testing.T, c *Client) []string {
	t.Helper()
	var ids []string
	found := false
	for _, env := range drain(t, c) {
		if env.Event == EventOnlineUsers {
			found = true
			ids = nil
			if err := json.Unmarshal(env.Data, &ids); err != nil {
				t.Fatalf("bad online set: %v", err)
			}
		}
	}
	if !found {
		t.Fatal("no getOnlineUsers frame received")
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegistryOnlineSet(t *testing.T) {
	r := NewRegistry(testLogger())

	a := NewClient("a", newFakeConn())
	b := NewClient("b", newFakeConn())
	c := NewClient("c", newFakeConn())

	r.Register("a", a)
	r.Register("b", b)
	r.Register("c", c)
	r.Unregister("b", b)

	got := r.OnlineIDs()
	want := []string{"a", "c"}
	if !equalIDs(got, want) {
		t.Errorf("OnlineIDs = %v, want %v", got, want)
	}
	if r.IsOnline("b") {
		t.Error("b should be offline after unregister")
	}
	if !r.IsOnline("a") || !r.IsOnline("c") {
		t.Error("a and c should be online")
	}
}

func TestRegistryBroadcastOnMutation(t *testing.T) {
	r := NewRegistry(testLogger())

	a := NewClient("a", newFakeConn())
	r.Register("a", a)
	if ids := lastOnlineSet(t, a); !equalIDs(ids, []string{"a"}) {
		t.Errorf("after first register got %v, want [a]", ids)
	}

	b := NewClient("b", newFakeConn())
	r.Register("b", b)
	// Both connections learn the updated full set, no diffing.
	if ids := lastOnlineSet(t, a); !equalIDs(ids, []string{"a", "b"}) {
		t.Errorf("a saw %v, want [a b]", ids)
	}
	if ids := lastOnlineSet(t, b); !equalIDs(ids, []string{"a", "b"}) {
		t.Errorf("b saw %v, want [a b]", ids)
	}

	r.Unregister("b", b)
	if ids := lastOnlineSet(t, a); !equalIDs(ids, []string{"a"}) {
		t.Errorf("after unregister a saw %v, want [a]", ids)
	}
}

func TestRegistryDoubleConnectLastWins(t *testing.T) {
	r := NewRegistry(testLogger())

	first := NewClient("u", newFakeConn())
	second := NewClient("u", newFakeConn())

	r.Register("u", first)
	r.Register("u", second)

	got, ok := r.Get("u")
	if !ok || got != second {
		t.Fatal("second connection should own the presence entry")
	}

	// The stale disconnect of the evicted handle must not knock the
	// live connection offline.
	r.Unregister("u", first)
	if !r.IsOnline("u") {
		t.Fatal("stale unregister removed the live connection")
	}
	got, _ = r.Get("u")
	if got != second {
		t.Fatal("presence entry no longer bound to second handle")
	}

	r.Unregister("u", second)
	if r.IsOnline("u") {
		t.Fatal("u should be offline after matching unregister")
	}
}

func TestFanoutDirect(t *testing.T) {
	r := NewRegistry(testLogger())
	f := NewFanout(r, memberMap{}, testLogger())

	sender := NewClient("alice", newFakeConn())
	receiver := NewClient("bob", newFakeConn())
	r.Register("alice", sender)
	r.Register("bob", receiver)
	drain(t, sender)
	drain(t, receiver)

	msg := &model.Message{UUID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "hi"}
	f.DeliverDirect(msg)

	events := drain(t, receiver)
	if len(events) != 1 || events[0].Event != EventNewMessage {
		t.Fatalf("receiver got %v, want one newMessage", events)
	}
	var got model.Message
	if err := json.Unmarshal(events[0].Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.UUID != "m1" || got.Text != "hi" || got.Seen {
		t.Errorf("unexpected payload %+v", got)
	}

	if events := drain(t, sender); len(events) != 0 {
		t.Errorf("sender must not receive its own message, got %v", events)
	}
}

func TestFanoutDirectOfflineReceiver(t *testing.T) {
	r := NewRegistry(testLogger())
	f := NewFanout(r, memberMap{}, testLogger())

	sender := NewClient("alice", newFakeConn())
	r.Register("alice", sender)
	drain(t, sender)

	// Receiver offline: no push anywhere, the store is the durability.
	f.DeliverDirect(&model.Message{UUID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "hi"})

	if events := drain(t, sender); len(events) != 0 {
		t.Errorf("no push expected, got %v", events)
	}
}

type memberMap map[string][]string

func (m memberMap) MemberIDs(groupID string) ([]string, error) {
	return m[groupID], nil
}

func TestFanoutGroup(t *testing.T) {
	r := NewRegistry(testLogger())
	members := memberMap{"g1": {"alice", "bob", "carol"}}
	f := NewFanout(r, members, testLogger())

	alice := NewClient("alice", newFakeConn())
	bob := NewClient("bob", newFakeConn())
	dave := NewClient("dave", newFakeConn()) // online non-member
	r.Register("alice", alice)
	r.Register("bob", bob)
	r.Register("dave", dave)
	drain(t, alice)
	drain(t, bob)
	drain(t, dave)
	// carol is a member but offline.

	msg := &model.Message{UUID: "m2", SenderID: "alice", GroupID: "g1", Text: "hey all"}
	sender := &model.User{UUID: "alice", FullName: "Alice A", ProfilePic: "http://pic/alice"}
	f.DeliverGroup(msg, sender)

	events := drain(t, bob)
	if len(events) != 1 || events[0].Event != EventNewGroupMessage {
		t.Fatalf("bob got %v, want one newGroupMessage", events)
	}
	var payload GroupMessagePayload
	if err := json.Unmarshal(events[0].Data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.GroupID != "g1" || payload.Sender.FullName != "Alice A" || payload.Sender.ProfilePic != "http://pic/alice" {
		t.Errorf("unexpected payload %+v", payload)
	}

	if events := drain(t, alice); len(events) != 0 {
		t.Errorf("sender must not receive the group message, got %v", events)
	}
	if events := drain(t, dave); len(events) != 0 {
		t.Errorf("non-member must not receive the group message, got %v", events)
	}
}

func TestClientPushAfterClose(t *testing.T) {
	c := NewClient("u", newFakeConn())
	c.Close()
	if c.Push([]byte("x")) {
		t.Error("push to a closed client should report failure")
	}
}
