package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"quickchat/internal/apperr"
	"quickchat/internal/auth"
	"quickchat/internal/chat"
	"quickchat/internal/media"
	"quickchat/internal/model"
	"quickchat/internal/store"
)

type MessageHandler struct {
	users    store.UserStore
	messages store.MessageStore
	fanout   *chat.Fanout
	uploader media.Uploader
}

func NewMessageHandler(users store.UserStore, messages store.MessageStore, fanout *chat.Fanout, uploader media.Uploader) *MessageHandler {
	return &MessageHandler{users: users, messages: messages, fanout: fanout, uploader: uploader}
}

// SidebarUsers GET /api/messages/users
// Lists every other user plus the precomputed unseen direct-message
// counts keyed by sender.
func (h *MessageHandler) SidebarUsers(c *fiber.Ctx) error {
	me := auth.UserFrom(c)

	users, err := h.users.ListOthers(me.UUID)
	if err != nil {
		return fail(c, err)
	}
	counts, err := h.messages.CountUnseen(me.UUID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "users": users, "unseenMessages": counts})
}

// Conversation GET /api/messages/:id
// Returns the direct history with the peer and bulk-marks every
// inbound unseen message from them as seen.
func (h *MessageHandler) Conversation(c *fiber.Ctx) error {
	me := auth.UserFrom(c)
	peerID := c.Params("id")
	if peerID == "" {
		return fail(c, apperr.Validation("peer id is required"))
	}

	msgs, err := h.messages.Conversation(me.UUID, peerID)
	if err != nil {
		return fail(c, err)
	}
	if err := h.messages.MarkConversationSeen(me.UUID, peerID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "messages": msgs})
}

// MarkSeen PUT /api/messages/mark/:id
func (h *MessageHandler) MarkSeen(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return fail(c, apperr.Validation("message id is required"))
	}
	if err := h.messages.MarkSeen(id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Send POST /api/messages/send/:id
// Persists first, then fans out; a recipient being offline never fails
// the send.
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	me := auth.UserFrom(c)
	receiverID := c.Params("id")

	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, apperr.Validation("malformed body"))
	}

	if _, err := h.users.GetByUUID(receiverID); err != nil {
		return fail(c, err)
	}

	imageURL := ""
	if req.Image != "" {
		url, err := h.uploader.Upload(req.Image)
		if err != nil {
			return fail(c, err)
		}
		imageURL = url
	}

	msg := &model.Message{
		UUID:       uuid.NewString(),
		SenderID:   me.UUID,
		ReceiverID: receiverID,
		Text:       req.Text,
		Image:      imageURL,
		CreatedAt:  time.Now(),
	}
	if err := h.messages.Create(msg); err != nil {
		return fail(c, err)
	}

	h.fanout.DeliverDirect(msg)

	return c.JSON(fiber.Map{"success": true, "newMessage": msg})
}
