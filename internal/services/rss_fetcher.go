package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"newsapp/internal/metrics"
	"newsapp/internal/models"
	"newsapp/internal/utils"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// RSSFetcher 抓取新闻站点的 RSS，把新条目保存为文章
type RSSFetcher struct {
	db      *gorm.DB
	parser  *gofeed.Parser
	content *ContentService
	crawler *CrawlerService // nil 表示不抓取全文
	log     zerolog.Logger
}

// NewRSSFetcher 创建 RSS 抓取服务实例
func NewRSSFetcher(db *gorm.DB, content *ContentService, crawler *CrawlerService, timeout time.Duration, log zerolog.Logger) *RSSFetcher {
	// 创建自定义 HTTP 客户端，设置超时
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}

	parser := gofeed.NewParser()
	parser.Client = httpClient
	parser.UserAgent = "newsapp/1.0 (+feed fetcher)"

	return &RSSFetcher{
		db:      db,
		parser:  parser,
		content: content,
		crawler: crawler,
		log:     log.With().Str("component", "rss").Logger(),
	}
}

// FetchSite 拉取单个站点的订阅源，返回新保存的文章数
func (f *RSSFetcher) FetchSite(ctx context.Context, site *models.NewsSite) (int, error) {
	ingested, err := f.fetchSite(ctx, site)
	metrics.ObserveFeedFetch(err, ingested)
	return ingested, err
}

func (f *RSSFetcher) fetchSite(ctx context.Context, site *models.NewsSite) (int, error) {
	feed, err := f.parser.ParseURLWithContext(site.RSSURL, ctx)
	if err != nil {
		return 0, fmt.Errorf("parse feed %s: %w", site.RSSURL, err)
	}

	log := f.log.With().Uint("site_id", site.ID).Str("site", site.Name).Logger()
	ingested := 0
	for _, item := range feed.Items {
		if err := ctx.Err(); err != nil {
			return ingested, err
		}
		guid := item.GUID
		if guid == "" {
			guid = item.Link // 没有 GUID 时用链接作为唯一标识
		}
		if guid == "" || item.Link == "" {
			continue
		}
		exists, err := f.content.HasArticle(site.ID, guid)
		if err != nil {
			return ingested, err
		}
		if exists {
			continue
		}

		in := f.articleInput(ctx, site, item, guid)
		if in.PubDate.After(f.content.now()) {
			log.Warn().Str("guid", guid).Time("pub_date", in.PubDate).Msg("Skipping feed item dated in the future")
			continue
		}
		if _, err := f.content.CreateArticle(in); err != nil {
			if errors.Is(err, ErrValidation) {
				log.Warn().Err(err).Str("guid", guid).Msg("Skipping invalid feed item")
				continue
			}
			return ingested, err
		}
		ingested++
	}

	now := f.content.now()
	if err := f.db.Model(&models.NewsSite{}).Where("id = ?", site.ID).Update("last_fetch_at", now).Error; err != nil {
		return ingested, err
	}
	site.LastFetchAt = &now
	log.Info().Int("ingested", ingested).Int("items", len(feed.Items)).Msg("Feed fetched")
	return ingested, nil
}

func (f *RSSFetcher) articleInput(ctx context.Context, site *models.NewsSite, item *gofeed.Item, guid string) ArticleInput {
	// 解析发布时间
	pubDate := f.content.now()
	if item.PublishedParsed != nil {
		pubDate = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		pubDate = *item.UpdatedParsed
	}

	// 优先使用 content:encoded，其次是 description
	text := item.Content
	subtitle := ""
	if text == "" {
		text = item.Description
	} else if item.Description != "" {
		subtitle = utils.PlainText(item.Description)
	}
	if strings.TrimSpace(text) == "" && f.crawler != nil {
		if page := f.crawler.FetchWithFallback(ctx, item.Link); page != nil {
			text = page.Content
		}
	}

	in := ArticleInput{
		NewsSiteID: site.ID,
		Title:      utils.PlainText(item.Title),
		Subtitle:   subtitle,
		PubDate:    pubDate,
		Text:       text,
		URL:        item.Link,
		GUID:       guid,
	}
	if item.Author != nil {
		in.Author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		in.Author = item.Authors[0].Name
	}
	if item.Image != nil && item.Image.URL != "" {
		in.ImageURL, in.ImageCaption = item.Image.URL, item.Image.Title
	} else {
		in.ImageURL, in.ImageCaption = utils.ExtractFirstImage(text)
	}
	return in
}

// RefreshAllSites 刷新所有站点，单个站点失败不影响其他站点
func (f *RSSFetcher) RefreshAllSites(ctx context.Context) {
	var sites []models.NewsSite
	if err := f.db.Find(&sites).Error; err != nil {
		f.log.Error().Err(err).Msg("Failed to load news sites")
		return
	}
	for i := range sites {
		if ctx.Err() != nil {
			return
		}
		if _, err := f.FetchSite(ctx, &sites[i]); err != nil {
			f.log.Error().Err(err).Str("site", sites[i].Name).Msg("Failed to refresh news site")
		}
	}
}

// StartScheduledFetch 启动定时拉取任务，ctx 取消后退出
func (f *RSSFetcher) StartScheduledFetch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		// 启动时立即执行一次
		f.log.Info().Dur("interval", interval).Msg("Starting scheduled feed fetch")
		f.RefreshAllSites(ctx)

		for {
			select {
			case <-ctx.Done():
				f.log.Info().Msg("Scheduled feed fetch stopped")
				return
			case <-ticker.C:
				f.RefreshAllSites(ctx)
			}
		}
	}()
}
