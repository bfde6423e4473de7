package store

import (
	"errors"

	"gorm.io/gorm"

	"quickchat/internal/apperr"
	"quickchat/internal/model"
)

type MessageStore interface {
	Create(msg *model.Message) error
	GetByUUID(uuid string) (*model.Message, error)

	// Conversation returns the full direct history between two users,
	// oldest first.
	Conversation(userA, userB string) ([]*model.Message, error)
	GroupConversation(groupID string) ([]*model.Message, error)

	MarkSeen(uuid string) error
	// MarkConversationSeen flips every unseen inbound message from
	// peer to viewer, run when the viewer fetches the conversation.
	MarkConversationSeen(viewerID, peerID string) error

	// CountUnseen precomputes the sidebar counters: unseen direct
	// messages addressed to viewer, grouped by sender.
	CountUnseen(viewerID string) (map[string]int, error)
}

type SQLiteMessageStore struct {
	db *gorm.DB
}

func NewSQLiteMessageStore(db *gorm.DB) MessageStore {
	return &SQLiteMessageStore{db}
}

// Create validates the target invariant (exactly one of receiver or
// group) and persists the message.
func (s *SQLiteMessageStore) Create(msg *model.Message) error {
	if msg.SenderID == "" {
		return apperr.Validation("message sender is required")
	}
	if (msg.ReceiverID == "") == (msg.GroupID == "") {
		return apperr.Validation("message must target exactly one of receiver or group")
	}
	if msg.Text == "" && msg.Image == "" {
		return apperr.Validation("message needs text or an image")
	}
	if err := s.db.Create(msg).Error; err != nil {
		return apperr.Upstream("create message", err)
	}
	return nil
}

func (s *SQLiteMessageStore) GetByUUID(uuid string) (*model.Message, error) {
	var msg model.Message
	if err := s.db.Where("uuid = ?", uuid).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Upstream("get message", err)
	}
	return &msg, nil
}

func (s *SQLiteMessageStore) Conversation(userA, userB string) ([]*model.Message, error) {
	var msgs []*model.Message
	err := s.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, apperr.Upstream("load conversation", err)
	}
	return msgs, nil
}

func (s *SQLiteMessageStore) GroupConversation(groupID string) ([]*model.Message, error) {
	var msgs []*model.Message
	err := s.db.Where("group_id = ?", groupID).Order("created_at ASC").Find(&msgs).Error
	if err != nil {
		return nil, apperr.Upstream("load group conversation", err)
	}
	return msgs, nil
}

func (s *SQLiteMessageStore) MarkSeen(uuid string) error {
	res := s.db.Model(&model.Message{}).Where("uuid = ?", uuid).Update("seen", true)
	if res.Error != nil {
		return apperr.Upstream("mark seen", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

func (s *SQLiteMessageStore) MarkConversationSeen(viewerID, peerID string) error {
	err := s.db.Model(&model.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND seen = ?", peerID, viewerID, false).
		Update("seen", true).Error
	if err != nil {
		return apperr.Upstream("mark conversation seen", err)
	}
	return nil
}

func (s *SQLiteMessageStore) CountUnseen(viewerID string) (map[string]int, error) {
	type row struct {
		SenderID string
		N        int
	}
	var rows []row
	err := s.db.Model(&model.Message{}).
		Select("sender_id, COUNT(*) AS n").
		Where("receiver_id = ? AND seen = ?", viewerID, false).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Upstream("count unseen", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.SenderID] = r.N
	}
	return counts, nil
}
