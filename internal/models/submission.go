package models

import (
	"time"
)

// Submission 用户提交的链接或文字帖，是主要的投票对象
type Submission struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:250;not null" json:"title"`
	Text          string     `gorm:"type:text" json:"text"`
	URL           string     `gorm:"size:200" json:"url"` // Optional
	UserID        *uint      `gorm:"index" json:"user_id"`
	User          *User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user,omitempty"`
	Points        int        `gorm:"not null;default:0;index" json:"points"` // upvotes - downvotes
	Healthy       bool       `gorm:"not null;index" json:"healthy"`
	ReportCount   int        `gorm:"not null;default:0" json:"report_count"`
	ModeratedAt   *time.Time `json:"moderated_at"`
	ModeratedByID *uint      `json:"moderated_by_id"`
	ModeratedBy   *User      `gorm:"foreignKey:ModeratedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	CommentCount int64 `gorm:"-" json:"comment_count"`
}

// Domain returns the host of the submitted URL for display next to the title.
func (s *Submission) Domain() string {
	return hostOf(s.URL)
}
