package models

import (
	"time"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string     `gorm:"size:254;index" json:"email"`
	Password     string     `gorm:"not null" json:"-"` // bcrypt hash
	IsStaff      bool       `gorm:"not null" json:"is_staff"`
	IsSuperuser  bool       `gorm:"not null" json:"is_superuser"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	Points       int        `gorm:"default:0" json:"points"` // 累计得分
	LastLogin    *time.Time `json:"last_login"`
	ResetToken   string     `gorm:"size:64;index" json:"-"` // 找回密码令牌
	ResetExpires *time.Time `json:"-"`
	Profile      *Profile   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"profile,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CanModerate 管理员可以编辑、删除他人内容
func (u *User) CanModerate() bool {
	return u != nil && (u.IsStaff || u.IsSuperuser)
}

// Owns reports whether the user is the referenced owner.
func (u *User) Owns(ownerID *uint) bool {
	return u != nil && ownerID != nil && *ownerID == u.ID
}

// Profile 用户资料，每个用户至多一份
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio       string    `gorm:"type:text" json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
