package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const maxPageBytes = 5 << 20

// CrawlerService 网页正文抓取，用于补全没有正文的 RSS 条目
type CrawlerService struct {
	client    *http.Client
	sanitizer *bluemonday.Policy
}

func NewCrawlerService(timeout time.Duration) *CrawlerService {
	return &CrawlerService{
		client: &http.Client{
			Timeout: timeout,
		},
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// ArticleContent 抓取结果
type ArticleContent struct {
	Content string // 已清洗的 HTML
}

// FetchArticleContent 使用 go-readability 提取正文，然后用 bluemonday 清洗
func (s *CrawlerService) FetchArticleContent(ctx context.Context, pageURL string) (*ArticleContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; newsapp/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: HTTP status %d", resp.StatusCode)
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), parsed)
	if err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}

	return &ArticleContent{
		Content: s.sanitizer.Sanitize(article.Content),
	}, nil
}

// FetchWithFallback 抓取失败时返回 nil 而不是错误
func (s *CrawlerService) FetchWithFallback(ctx context.Context, pageURL string) *ArticleContent {
	content, err := s.FetchArticleContent(ctx, pageURL)
	if err != nil {
		return nil
	}
	return content
}
