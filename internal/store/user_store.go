package store

import (
	"errors"

	"gorm.io/gorm"

	"quickchat/internal/apperr"
	"quickchat/internal/model"
)

type UserStore interface {
	Create(user *model.User) error
	GetByUUID(uuid string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	ListOthers(uuid string) ([]*model.User, error)
	UpdateProfile(uuid, fullName, bio, profilePic string) (*model.User, error)
}

type SQLiteUserStore struct {
	db *gorm.DB
}

func NewSQLiteUserStore(db *gorm.DB) UserStore {
	return &SQLiteUserStore{db}
}

func (s *SQLiteUserStore) Create(user *model.User) error {
	if err := s.db.Create(user).Error; err != nil {
		return apperr.Upstream("create user", err)
	}
	return nil
}

func (s *SQLiteUserStore) GetByUUID(uuid string) (*model.User, error) {
	var user model.User
	if err := s.db.Where("uuid = ?", uuid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Upstream("get user", err)
	}
	return &user, nil
}

func (s *SQLiteUserStore) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Upstream("get user", err)
	}
	return &user, nil
}

// ListOthers returns every user except uuid, for the sidebar.
func (s *SQLiteUserStore) ListOthers(uuid string) ([]*model.User, error) {
	var users []*model.User
	if err := s.db.Where("uuid <> ?", uuid).Order("full_name ASC").Find(&users).Error; err != nil {
		return nil, apperr.Upstream("list users", err)
	}
	return users, nil
}

func (s *SQLiteUserStore) UpdateProfile(uuid, fullName, bio, profilePic string) (*model.User, error) {
	updates := map[string]any{"full_name": fullName, "bio": bio}
	if profilePic != "" {
		updates["profile_pic"] = profilePic
	}
	res := s.db.Model(&model.User{}).Where("uuid = ?", uuid).Updates(updates)
	if res.Error != nil {
		return nil, apperr.Upstream("update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("user not found")
	}
	return s.GetByUUID(uuid)
}
