package model

import (
	"time"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

type User struct {
	ID       uint       `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`
	Nickname string     `gorm:"type:varchar(64);not null" json:"nickname"`
	Status   UserStatus `gorm:"type:varchar(16);not null;default:'ACTIVE';index" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// User <-> DrawingTest
	DrawingTests []DrawingTest `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// User <-> ChatSession
	ChatSessions []ChatSession `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsActive() bool { return u != nil && u.Status == UserStatusActive }
