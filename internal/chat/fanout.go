package chat

import (
	"log/slog"

	"quickchat/internal/model"
)

// MemberLister resolves a group id to its member identities. The
// message store's group layer satisfies it.
type MemberLister interface {
	MemberIDs(groupID string) ([]string, error)
}

// Fanout routes a freshly persisted message to the live connections of
// its recipients. It must only be called after the message is durable:
// a delivered-but-unpersisted message would vanish on the next fetch.
// Offline recipients get nothing here; they discover the message in
// the store.
type Fanout struct {
	registry *Registry
	members  MemberLister
	log      *slog.Logger
}

func NewFanout(registry *Registry, members MemberLister, log *slog.Logger) *Fanout {
	return &Fanout{
		registry: registry,
		members:  members,
		log:      log,
	}
}

// DeliverDirect pushes newMessage to the receiver iff online. The
// sender never receives its own message back.
func (f *Fanout) DeliverDirect(msg *model.Message) {
	if !msg.Direct() {
		return
	}
	c, ok := f.registry.Get(msg.ReceiverID)
	if !ok {
		return
	}
	data, err := Encode(EventNewMessage, msg)
	if err != nil {
		f.log.Error("encode direct message", "err", err)
		return
	}
	if !c.Push(data) {
		f.log.Warn("direct push dropped", "to", msg.ReceiverID, "msg", msg.UUID)
	}
}

// DeliverGroup pushes newGroupMessage to every online member except
// the sender, with the sender's profile resolved into the payload.
// Failures are non-fatal: the send already succeeded at the store.
func (f *Fanout) DeliverGroup(msg *model.Message, sender *model.User) {
	ids, err := f.members.MemberIDs(msg.GroupID)
	if err != nil {
		f.log.Error("resolve group members", "group", msg.GroupID, "err", err)
		return
	}

	payload := GroupMessagePayload{
		Message: *msg,
		Sender: SenderProfile{
			UUID:       sender.UUID,
			FullName:   sender.FullName,
			ProfilePic: sender.ProfilePic,
		},
	}
	data, err := Encode(EventNewGroupMessage, &payload)
	if err != nil {
		f.log.Error("encode group message", "err", err)
		return
	}

	for _, id := range ids {
		if id == msg.SenderID {
			continue
		}
		c, ok := f.registry.Get(id)
		if !ok {
			continue
		}
		if !c.Push(data) {
			f.log.Warn("group push dropped", "to", id, "msg", msg.UUID)
		}
	}
}
