package model

import (
	"time"
)

// User is an account. UUID is immutable once created; profile fields
// (FullName, Bio, ProfilePic) are mutable.
type User struct {
	UUID         string    `gorm:"primaryKey" json:"_id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"not null" json:"fullName"`
	Bio          string    `json:"bio"`
	ProfilePic   string    `json:"profilePic"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null;index" json:"createdAt"`
}

// Group has exactly one admin, who is always a member.
type Group struct {
	UUID      string    `gorm:"primaryKey" json:"_id"`
	Name      string    `gorm:"not null;index" json:"name"`
	AdminID   string    `gorm:"not null;index" json:"admin"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`

	Members []User `gorm:"many2many:group_members;" json:"members"`
}

// IsMember reports whether userID is in the loaded member set.
func (g *Group) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m.UUID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the loaded member identities.
func (g *Group) MemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UUID)
	}
	return ids
}

// Message targets exactly one of ReceiverID (direct) or GroupID
// (broadcast). Seen is meaningful for direct messages only; group
// messages keep the source's single global flag.
type Message struct {
	UUID       string    `gorm:"primaryKey" json:"_id"`
	SenderID   string    `gorm:"not null;index" json:"senderId"`
	ReceiverID string    `gorm:"index" json:"receiverId,omitempty"`
	GroupID    string    `gorm:"index" json:"groupId,omitempty"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Seen       bool      `gorm:"not null;default:false" json:"seen"`
	CreatedAt  time.Time `gorm:"not null;index" json:"createdAt"`
}

// Direct reports whether the message targets a single peer.
func (m *Message) Direct() bool { return m.ReceiverID != "" }

// ConversationID is the peer id for direct messages and the group id
// for broadcasts, as observed by a receiving client.
func (m *Message) ConversationID() string {
	if m.GroupID != "" {
		return m.GroupID
	}
	return m.SenderID
}
