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

type GroupHandler struct {
	groups   store.GroupStore
	messages store.MessageStore
	fanout   *chat.Fanout
	uploader media.Uploader
}

func NewGroupHandler(groups store.GroupStore, messages store.MessageStore, fanout *chat.Fanout, uploader media.Uploader) *GroupHandler {
	return &GroupHandler{groups: groups, messages: messages, fanout: fanout, uploader: uploader}
}

// adminGroup loads the group and rejects callers other than its admin.
func (h *GroupHandler) adminGroup(c *fiber.Ctx) (*model.Group, error) {
	group, err := h.groups.GetByUUID(c.Params("id"))
	if err != nil {
		return nil, err
	}
	if group.AdminID != auth.UserFrom(c).UUID {
		return nil, apperr.Forbidden("only the admin can do that")
	}
	return group, nil
}

// memberGroup loads the group and rejects non-members.
func (h *GroupHandler) memberGroup(c *fiber.Ctx) (*model.Group, error) {
	group, err := h.groups.GetByUUID(c.Params("id"))
	if err != nil {
		return nil, err
	}
	if !group.IsMember(auth.UserFrom(c).UUID) {
		return nil, apperr.Forbidden("not a member of this group")
	}
	return group, nil
}

// Create POST /api/group/create
func (h *GroupHandler) Create(c *fiber.Ctx) error {
	me := auth.UserFrom(c)
	var req struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, apperr.Validation("malformed body"))
	}
	if req.Name == "" {
		return fail(c, apperr.Validation("group name is required"))
	}

	group := &model.Group{
		UUID:      uuid.NewString(),
		Name:      req.Name,
		AdminID:   me.UUID,
		CreatedAt: time.Now(),
	}
	if err := h.groups.Create(group, req.Members); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "group": group})
}

// MyGroups GET /api/group/my-groups
func (h *GroupHandler) MyGroups(c *fiber.Ctx) error {
	groups, err := h.groups.ListForUser(auth.UserFrom(c).UUID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "groups": groups})
}

// Delete DELETE /api/group/:id (admin only)
func (h *GroupHandler) Delete(c *fiber.Ctx) error {
	group, err := h.adminGroup(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.groups.Delete(group.UUID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Rename PUT /api/group/rename/:id (admin only)
func (h *GroupHandler) Rename(c *fiber.Ctx) error {
	group, err := h.adminGroup(c)
	if err != nil {
		return fail(c, err)
	}
	var req struct {
		NewName string `json:"newName"`
	}
	if err := c.BodyParser(&req); err != nil || req.NewName == "" {
		return fail(c, apperr.Validation("new name is required"))
	}
	if err := h.groups.Rename(group.UUID, req.NewName); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// AddMembers PUT /api/group/add-members/:id (admin only)
func (h *GroupHandler) AddMembers(c *fiber.Ctx) error {
	group, err := h.adminGroup(c)
	if err != nil {
		return fail(c, err)
	}
	var req struct {
		NewMembers []string `json:"newMembers"`
	}
	if err := c.BodyParser(&req); err != nil || len(req.NewMembers) == 0 {
		return fail(c, apperr.Validation("newMembers is required"))
	}
	if err := h.groups.AddMembers(group.UUID, req.NewMembers); err != nil {
		return fail(c, err)
	}
	group, err = h.groups.GetByUUID(group.UUID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "group": group})
}

// RemoveMember PUT /api/group/remove-member/:id (admin only)
func (h *GroupHandler) RemoveMember(c *fiber.Ctx) error {
	group, err := h.adminGroup(c)
	if err != nil {
		return fail(c, err)
	}
	var req struct {
		MemberID string `json:"memberId"`
	}
	if err := c.BodyParser(&req); err != nil || req.MemberID == "" {
		return fail(c, apperr.Validation("memberId is required"))
	}
	if req.MemberID == group.AdminID {
		return fail(c, apperr.Forbidden("admin cannot be removed; transfer admin first"))
	}
	if err := h.groups.RemoveMember(group.UUID, req.MemberID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// TransferAdmin PUT /api/group/transfer-admin/:id (admin only; the new
// admin must already be a member).
func (h *GroupHandler) TransferAdmin(c *fiber.Ctx) error {
	group, err := h.adminGroup(c)
	if err != nil {
		return fail(c, err)
	}
	var req struct {
		NewAdminID string `json:"newAdminId"`
	}
	if err := c.BodyParser(&req); err != nil || req.NewAdminID == "" {
		return fail(c, apperr.Validation("newAdminId is required"))
	}
	if !group.IsMember(req.NewAdminID) {
		return fail(c, apperr.Validation("new admin must be a group member"))
	}
	if err := h.groups.TransferAdmin(group.UUID, req.NewAdminID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Leave PUT /api/group/leave/:id
// The admin cannot leave without transferring admin rights first.
func (h *GroupHandler) Leave(c *fiber.Ctx) error {
	me := auth.UserFrom(c)
	group, err := h.memberGroup(c)
	if err != nil {
		return fail(c, err)
	}
	if group.AdminID == me.UUID {
		return fail(c, apperr.Forbidden("admin cannot leave the group; transfer admin first"))
	}
	if err := h.groups.RemoveMember(group.UUID, me.UUID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Messages GET /api/group/messages/:id (members only)
func (h *GroupHandler) Messages(c *fiber.Ctx) error {
	group, err := h.memberGroup(c)
	if err != nil {
		return fail(c, err)
	}
	msgs, err := h.messages.GroupConversation(group.UUID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "messages": msgs})
}

// MarkSeen PUT /api/group/messages/mark/:id
// Group seen is a single global flag, kept from the source design.
func (h *GroupHandler) MarkSeen(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return fail(c, apperr.Validation("message id is required"))
	}
	if err := h.messages.MarkSeen(id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Send POST /api/group/send/:id (members only)
func (h *GroupHandler) Send(c *fiber.Ctx) error {
	me := auth.UserFrom(c)
	group, err := h.memberGroup(c)
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, apperr.Validation("malformed body"))
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
		UUID:      uuid.NewString(),
		SenderID:  me.UUID,
		GroupID:   group.UUID,
		Text:      req.Text,
		Image:     imageURL,
		CreatedAt: time.Now(),
	}
	if err := h.messages.Create(msg); err != nil {
		return fail(c, err)
	}

	h.fanout.DeliverGroup(msg, me)

	payload := chat.GroupMessagePayload{
		Message: *msg,
		Sender: chat.SenderProfile{
			UUID:       me.UUID,
			FullName:   me.FullName,
			ProfilePic: me.ProfilePic,
		},
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "newMessage": payload})
}
