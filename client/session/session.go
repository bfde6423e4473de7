package session

import (
	"encoding/json"
	"sync"

	"quickchat/internal/chat"
	"quickchat/internal/model"
)

// SeenMarker persists seen=true for a direct message, normally by
// calling PUT /api/messages/mark/:id on the server.
type SeenMarker interface {
	MarkSeen(messageID string) error
}

// Conversation identifies what the viewer currently has open: a peer
// for direct chats or a group.
type Conversation struct {
	ID    string
	Group bool
}

// Session is the per-client subscription lifecycle. It is either
// Unsubscribed (no dispatcher) or Subscribed with exactly one listener
// per event kind. Changing the active conversation detaches the old
// listener pair before attaching a new one, so a listener can never
// fire against a conversation other than the one captured when it was
// attached.
type Session struct {
	mu sync.Mutex

	marker SeenMarker

	dispatcher *Dispatcher
	active     *Conversation
	disposers  []func()

	unseen map[string]int
	thread []model.Message
}

func New(marker SeenMarker) *Session {
	return &Session{
		marker: marker,
		unseen: make(map[string]int),
	}
}

// SeedUnseen installs the server-precomputed sidebar counters,
// normally from GET /api/messages/users at session start.
func (s *Session) SeedUnseen(counts map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range counts {
		s.unseen[id] = n
	}
}

// Attach transitions Unsubscribed -> Subscribed on a live connection.
// Attaching while already subscribed re-attaches on the new dispatcher.
func (s *Session) Attach(d *Dispatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachLocked()
	s.dispatcher = d
	s.attachLocked()
}

// Detach transitions to Unsubscribed, dropping both listeners. Called
// on connection loss.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachLocked()
	s.dispatcher = nil
}

// SetActive opens a conversation: its unseen counter resets to zero
// and the listener pair is re-attached capturing the new conversation.
// A nil conv closes the current one.
func (s *Session) SetActive(conv *Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = conv
	s.thread = nil
	if conv != nil {
		delete(s.unseen, conv.ID)
	}
	if s.dispatcher != nil {
		s.detachLocked()
		s.attachLocked()
	}
}

// Unseen returns the counter for a conversation id.
func (s *Session) Unseen(convID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unseen[convID]
}

// Counters returns a copy of all unseen counters.
func (s *Session) Counters() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.unseen))
	for id, n := range s.unseen {
		out[id] = n
	}
	return out
}

// Thread returns the messages appended to the open conversation since
// it was opened.
func (s *Session) Thread() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.thread...)
}

// Subscribed reports whether a listener pair is currently attached.
func (s *Session) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatcher != nil
}

// attachLocked registers exactly one listener per event kind. Each
// closure captures the conversation active right now; SetActive always
// goes through detach/attach so no listener outlives its capture.
func (s *Session) attachLocked() {
	conv := s.active

	offDirect := s.dispatcher.On(chat.EventNewMessage, func(data json.RawMessage) {
		s.onDirect(conv, data)
	})
	offGroup := s.dispatcher.On(chat.EventNewGroupMessage, func(data json.RawMessage) {
		s.onGroup(conv, data)
	})
	s.disposers = []func(){offDirect, offGroup}
}

func (s *Session) detachLocked() {
	for _, off := range s.disposers {
		off()
	}
	s.disposers = nil
}

// onDirect applies the live-receipt rule: a message for the open
// conversation is appended and persisted as seen; anything else bumps
// the sender's counter.
func (s *Session) onDirect(conv *Conversation, data json.RawMessage) {
	var msg model.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	open := conv != nil && !conv.Group &&
		(msg.SenderID == conv.ID || msg.ReceiverID == conv.ID)

	if open {
		msg.Seen = true
		s.append(msg)
		if s.marker != nil && msg.UUID != "" {
			_ = s.marker.MarkSeen(msg.UUID)
		}
		return
	}
	s.bump(msg.ConversationID())
}

// onGroup mirrors onDirect for group broadcasts; group seen state is
// client-local only.
func (s *Session) onGroup(conv *Conversation, data json.RawMessage) {
	var msg model.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	if conv != nil && conv.Group && msg.GroupID == conv.ID {
		s.append(msg)
		return
	}
	s.bump(msg.ConversationID())
}

func (s *Session) append(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thread = append(s.thread, msg)
}

func (s *Session) bump(convID string) {
	if convID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unseen[convID]++
}
