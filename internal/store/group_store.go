package store

import (
	"errors"

	"gorm.io/gorm"

	"quickchat/internal/apperr"
	"quickchat/internal/model"
)

type GroupStore interface {
	Create(group *model.Group, memberIDs []string) error
	GetByUUID(uuid string) (*model.Group, error)
	ListForUser(userID string) ([]*model.Group, error)
	Delete(uuid string) error
	Rename(uuid, name string) error
	AddMembers(uuid string, memberIDs []string) error
	RemoveMember(uuid, memberID string) error
	TransferAdmin(uuid, newAdminID string) error

	// MemberIDs is the lookup the fanout engine uses; it avoids
	// loading full member profiles on the hot path.
	MemberIDs(uuid string) ([]string, error)
}

type SQLiteGroupStore struct {
	db *gorm.DB
}

func NewSQLiteGroupStore(db *gorm.DB) GroupStore {
	return &SQLiteGroupStore{db}
}

// Create persists the group and its membership. The admin is always
// included in the member set, deduplicated.
func (s *SQLiteGroupStore) Create(group *model.Group, memberIDs []string) error {
	seen := map[string]bool{group.AdminID: true}
	ids := []string{group.AdminID}
	for _, id := range memberIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	members, err := s.usersByUUID(ids)
	if err != nil {
		return err
	}
	if len(members) != len(ids) {
		return apperr.NotFound("one or more members not found")
	}
	group.Members = nil

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Model(group).Association("Members").Append(members)
	})
	if err != nil {
		return apperr.Upstream("create group", err)
	}
	group.Members = derefUsers(members)
	return nil
}

func (s *SQLiteGroupStore) GetByUUID(uuid string) (*model.Group, error) {
	var group model.Group
	err := s.db.Preload("Members").Where("uuid = ?", uuid).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("group not found")
		}
		return nil, apperr.Upstream("get group", err)
	}
	return &group, nil
}

func (s *SQLiteGroupStore) ListForUser(userID string) ([]*model.Group, error) {
	var groups []*model.Group
	err := s.db.Preload("Members").
		Joins("JOIN group_members gm ON gm.group_uuid = groups.uuid").
		Where("gm.user_uuid = ?", userID).
		Order("groups.created_at ASC").
		Find(&groups).Error
	if err != nil {
		return nil, apperr.Upstream("list groups", err)
	}
	return groups, nil
}

func (s *SQLiteGroupStore) Delete(uuid string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Group{UUID: uuid}).Association("Members").Clear(); err != nil {
			return err
		}
		return tx.Where("uuid = ?", uuid).Delete(&model.Group{}).Error
	})
	if err != nil {
		return apperr.Upstream("delete group", err)
	}
	return nil
}

func (s *SQLiteGroupStore) Rename(uuid, name string) error {
	res := s.db.Model(&model.Group{}).Where("uuid = ?", uuid).Update("name", name)
	if res.Error != nil {
		return apperr.Upstream("rename group", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("group not found")
	}
	return nil
}

func (s *SQLiteGroupStore) AddMembers(uuid string, memberIDs []string) error {
	users, err := s.usersByUUID(memberIDs)
	if err != nil {
		return err
	}
	if len(users) != len(memberIDs) {
		return apperr.NotFound("one or more members not found")
	}
	// Association Append skips pairs already present, so re-adding a
	// member is a no-op rather than a duplicate row.
	if err := s.db.Model(&model.Group{UUID: uuid}).Association("Members").Append(users); err != nil {
		return apperr.Upstream("add members", err)
	}
	return nil
}

func (s *SQLiteGroupStore) RemoveMember(uuid, memberID string) error {
	err := s.db.Model(&model.Group{UUID: uuid}).
		Association("Members").
		Delete(&model.User{UUID: memberID})
	if err != nil {
		return apperr.Upstream("remove member", err)
	}
	return nil
}

func (s *SQLiteGroupStore) TransferAdmin(uuid, newAdminID string) error {
	res := s.db.Model(&model.Group{}).Where("uuid = ?", uuid).Update("admin_id", newAdminID)
	if res.Error != nil {
		return apperr.Upstream("transfer admin", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("group not found")
	}
	return nil
}

func (s *SQLiteGroupStore) MemberIDs(uuid string) ([]string, error) {
	var ids []string
	err := s.db.Table("group_members").
		Where("group_uuid = ?", uuid).
		Pluck("user_uuid", &ids).Error
	if err != nil {
		return nil, apperr.Upstream("list member ids", err)
	}
	return ids, nil
}

func (s *SQLiteGroupStore) usersByUUID(ids []string) ([]*model.User, error) {
	var users []*model.User
	if err := s.db.Where("uuid IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperr.Upstream("load users", err)
	}
	return users, nil
}

func derefUsers(users []*model.User) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, *u)
	}
	return out
}
