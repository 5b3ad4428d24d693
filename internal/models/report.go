package models

import (
	"time"
)

// Report 用户对提交的举报，每人每条提交限一次
type Report struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_report_user_submission" json:"user_id"` // Reporter
	User         User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	SubmissionID uint       `gorm:"not null;uniqueIndex:idx_report_user_submission;index" json:"submission_id"`
	Submission   Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Reason       string     `gorm:"size:200;not null" json:"reason"`
	CreatedAt    time.Time  `json:"created_at"`
}
