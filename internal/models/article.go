package models

import (
	"time"
)

const DefaultArticleAuthor = "Anonymous"

// Article 来自新闻站点的文章，创建后不再修改
type Article struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Subtitle     string    `gorm:"size:200" json:"subtitle"`
	Author       string    `gorm:"size:200;not null" json:"author"`
	PubDate      time.Time `gorm:"not null;index" json:"pub_date"`
	Text         string    `gorm:"type:text" json:"text"`
	ImageURL     string    `gorm:"size:400" json:"image_url"`
	ImageCaption string    `gorm:"size:200" json:"image_caption"`
	URL          string    `gorm:"size:500;not null" json:"url"`
	GUID         string    `gorm:"column:guid;size:500;index" json:"guid"` // RSS 唯一标识，用于去重
	NewsSiteID   uint      `gorm:"not null;index" json:"news_site_id"`
	NewsSite     NewsSite  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"news_site"`
	CreatedAt    time.Time `json:"created_at"`

	// 非数据库字段，用于查询时填充
	CommentCount int64 `gorm:"-" json:"comment_count"`
}
