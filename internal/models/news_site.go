package models

import (
	"time"
)

// NewsSite 新闻来源站点，文章通过其 RSS 地址抓取
type NewsSite struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:200;not null" json:"name"`
	URL         string     `gorm:"size:200;not null" json:"url"`
	RSSURL      string     `gorm:"column:rss_url;size:200;not null" json:"rss_url"`
	Logo        string     `gorm:"size:200" json:"logo"` // 图片地址
	Description string     `gorm:"size:500" json:"description"`
	LastFetchAt *time.Time `json:"last_fetch_at"` // 最后抓取时间
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	ArticleCount int64 `gorm:"-" json:"article_count"`
}
