package session

import (
	"encoding/json"
	"testing"

	"quickchat/internal/chat"
	"quickchat/internal/model"
)

type recordingMarker struct {
	marked []string
}

func (m *recordingMarker) MarkSeen(id string) error {
	m.marked = append(m.marked, id)
	return nil
}

func dispatch(t *testing.T, d *Dispatcher, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	d.Dispatch(event, raw)
}

func TestOpenResetsCounter(t *testing.T) {
	s := New(nil)
	s.SeedUnseen(map[string]int{"peer": 5, "other": 2})

	s.SetActive(&Conversation{ID: "peer"})

	if n := s.Unseen("peer"); n != 0 {
		t.Errorf("unseen(peer) = %d, want 0", n)
	}
	if n := s.Unseen("other"); n != 2 {
		t.Errorf("unseen(other) = %d, want 2", n)
	}
}

func TestDirectWhileConversationOpen(t *testing.T) {
	marker := &recordingMarker{}
	s := New(marker)
	d := NewDispatcher()
	s.Attach(d)
	s.SetActive(&Conversation{ID: "peer"})

	dispatch(t, d, chat.EventNewMessage, &model.Message{
		UUID: "m1", SenderID: "peer", ReceiverID: "me", Text: "hi",
	})

	thread := s.Thread()
	if len(thread) != 1 {
		t.Fatalf("thread has %d messages, want 1", len(thread))
	}
	if !thread[0].Seen {
		t.Error("message appended to the open thread must be marked seen")
	}
	if len(marker.marked) != 1 || marker.marked[0] != "m1" {
		t.Errorf("marker recorded %v, want [m1]", marker.marked)
	}
	if n := s.Unseen("peer"); n != 0 {
		t.Errorf("unseen(peer) = %d, want 0", n)
	}
}

func TestDirectWhileConversationClosed(t *testing.T) {
	marker := &recordingMarker{}
	s := New(marker)
	d := NewDispatcher()
	s.Attach(d)
	s.SetActive(&Conversation{ID: "someone-else"})

	dispatch(t, d, chat.EventNewMessage, &model.Message{
		UUID: "m1", SenderID: "peer", ReceiverID: "me", Text: "hi",
	})
	dispatch(t, d, chat.EventNewMessage, &model.Message{
		UUID: "m2", SenderID: "peer", ReceiverID: "me", Text: "again",
	})

	if n := s.Unseen("peer"); n != 2 {
		t.Errorf("unseen(peer) = %d, want 2", n)
	}
	if len(s.Thread()) != 0 {
		t.Error("closed conversation must not append to the thread")
	}
	if len(marker.marked) != 0 {
		t.Errorf("seen must not be persisted for a closed conversation, marked %v", marker.marked)
	}
}

func TestGroupWhileOpenAndClosed(t *testing.T) {
	s := New(nil)
	d := NewDispatcher()
	s.Attach(d)
	s.SetActive(&Conversation{ID: "g1", Group: true})

	dispatch(t, d, chat.EventNewGroupMessage, &model.Message{
		UUID: "m1", SenderID: "peer", GroupID: "g1", Text: "in open group",
	})
	dispatch(t, d, chat.EventNewGroupMessage, &model.Message{
		UUID: "m2", SenderID: "peer", GroupID: "g2", Text: "in closed group",
	})

	if len(s.Thread()) != 1 {
		t.Errorf("thread has %d messages, want 1", len(s.Thread()))
	}
	if n := s.Unseen("g1"); n != 0 {
		t.Errorf("unseen(g1) = %d, want 0", n)
	}
	if n := s.Unseen("g2"); n != 1 {
		t.Errorf("unseen(g2) = %d, want 1", n)
	}
}

// A group id matching the open direct peer id must not be treated as
// the open conversation, and vice versa.
func TestKindMismatchCounts(t *testing.T) {
	s := New(nil)
	d := NewDispatcher()
	s.Attach(d)
	s.SetActive(&Conversation{ID: "x"}) // direct peer x open

	dispatch(t, d, chat.EventNewGroupMessage, &model.Message{
		UUID: "m1", SenderID: "peer", GroupID: "x", Text: "group x",
	})

	if n := s.Unseen("x"); n != 1 {
		t.Errorf("unseen(x) = %d, want 1: group x is not the open direct chat", n)
	}
}

func TestReattachNoDuplicateDelivery(t *testing.T) {
	s := New(nil)
	d := NewDispatcher()
	s.Attach(d)

	// Several conversation switches must leave exactly one listener
	// pair attached.
	s.SetActive(&Conversation{ID: "a"})
	s.SetActive(&Conversation{ID: "b"})
	s.SetActive(&Conversation{ID: "c"})

	dispatch(t, d, chat.EventNewMessage, &model.Message{
		UUID: "m1", SenderID: "peer", ReceiverID: "me", Text: "hi",
	})

	if n := s.Unseen("peer"); n != 1 {
		t.Errorf("unseen(peer) = %d, want 1 (duplicate listeners?)", n)
	}
}

// A listener attached while conversation A was open must not treat a
// message from A as open after the user switched to B.
func TestNoStaleCapture(t *testing.T) {
	marker := &recordingMarker{}
	s := New(marker)
	d := NewDispatcher()
	s.Attach(d)

	s.SetActive(&Conversation{ID: "a"})
	s.SetActive(&Conversation{ID: "b"})

	dispatch(t, d, chat.EventNewMessage, &model.Message{
		UUID: "m1", SenderID: "a", ReceiverID: "me", Text: "hi",
	})

	if n := s.Unseen("a"); n != 1 {
		t.Errorf("unseen(a) = %d, want 1: conversation a is no longer open", n)
	}
	if len(marker.marked) != 0 {
		t.Errorf("message must stay unseen, marked %v", marker.marked)
	}
}

func TestDetachStopsDelivery(t *testing.T) {
	s := New(nil)
	d := NewDispatcher()
	s.Attach(d)
	s.Detach()

	if s.Subscribed() {
		t.Error("session should be unsubscribed after detach")
	}

	dispatch(t, d, chat.EventNewMessage, &model.Message{
		UUID: "m1", SenderID: "peer", ReceiverID: "me", Text: "hi",
	})

	if n := s.Unseen("peer"); n != 0 {
		t.Errorf("unseen(peer) = %d, want 0 after detach", n)
	}
}

func TestDispatcherDisposer(t *testing.T) {
	d := NewDispatcher()

	calls := 0
	off := d.On("ev", func(json.RawMessage) { calls++ })

	d.Dispatch("ev", nil)
	off()
	off() // second call is harmless
	d.Dispatch("ev", nil)

	if calls != 1 {
		t.Errorf("listener ran %d times, want 1", calls)
	}
}
