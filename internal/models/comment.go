package models

import (
	"time"
)

// Comment 树形评论节点，挂在文章或提交上（两个外键恰好有一个非空）。
// Path 是物化路径，按 Path 排序即为深度优先的展示顺序。
type Comment struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	ArticleID    *uint       `gorm:"index" json:"article_id"`
	Article      *Article    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	SubmissionID *uint       `gorm:"index" json:"submission_id"`
	Submission   *Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID       *uint       `gorm:"index" json:"user_id"`
	User         *User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user,omitempty"`
	ParentID     *uint       `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Parent       *Comment    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Text         string      `gorm:"type:text;not null" json:"text"`
	Votes        int         `gorm:"not null;default:0" json:"votes"`
	Path         string      `gorm:"size:1024;not null;index" json:"path"`
	Depth        int         `gorm:"not null;default:0" json:"depth"`
	CreatedOn    time.Time   `gorm:"autoCreateTime;index" json:"created_on"`
	EditedOn     *time.Time  `json:"edited_on"`
	EditedByID   *uint       `json:"edited_by_id"`
	EditedBy     *User       `gorm:"foreignKey:EditedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	DeletedOn    *time.Time  `json:"deleted_on"`
	DeletedByID  *uint       `json:"deleted_by_id"`
	DeletedBy    *User       `gorm:"foreignKey:DeletedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}

func (c *Comment) IsDeleted() bool {
	return c.DeletedOn != nil
}

func (c *Comment) IsEdited() bool {
	return c.EditedOn != nil
}

func (c *Comment) IsEditable() bool {
	return !c.IsDeleted()
}

// Target 返回评论所属的内容
func (c *Comment) Target() Target {
	if c.SubmissionID != nil {
		return SubmissionTarget(*c.SubmissionID)
	}
	if c.ArticleID != nil {
		return ArticleTarget(*c.ArticleID)
	}
	return Target{}
}
