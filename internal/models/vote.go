package models

import (
	"time"
)

// 投票记录本身即代表投票；(user, item) 由唯一索引保证只有一条。
// 用户被删除后 user_id 置空，计数保持不变。

type SubmissionUpvote struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       *uint      `gorm:"uniqueIndex:idx_submission_upvote" json:"user_id"`
	User         *User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	SubmissionID uint       `gorm:"not null;uniqueIndex:idx_submission_upvote;index" json:"submission_id"`
	Submission   Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	SubmitDate   time.Time  `gorm:"autoCreateTime" json:"submit_date"`
}

type SubmissionDownvote struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       *uint      `gorm:"uniqueIndex:idx_submission_downvote" json:"user_id"`
	User         *User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	SubmissionID uint       `gorm:"not null;uniqueIndex:idx_submission_downvote;index" json:"submission_id"`
	Submission   Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	SubmitDate   time.Time  `gorm:"autoCreateTime" json:"submit_date"`
}

type CommentVote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"uniqueIndex:idx_comment_vote" json:"user_id"`
	User       *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CommentID  uint      `gorm:"not null;uniqueIndex:idx_comment_vote;index" json:"comment_id"`
	Comment    Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	SubmitDate time.Time `gorm:"autoCreateTime" json:"submit_date"`
}

// VoteDirection 投票方向
type VoteDirection int

const (
	VoteUp   VoteDirection = 1
	VoteDown VoteDirection = -1
)

func (d VoteDirection) String() string {
	if d == VoteDown {
		return "down"
	}
	return "up"
}
