package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"newsapp/internal/cache"
	"newsapp/internal/metrics"
	"newsapp/internal/models"
	"newsapp/internal/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxTitleLen           = 250
	maxSubmissionURLLen   = 200
	maxArticleTitleLen    = 200
	maxArticleFieldLen    = 200
	maxArticleImageURLLen = 400
)

type ContentService struct {
	db       *gorm.DB
	now      Clock
	cache    cache.Store
	ttl      time.Duration
	pageSize int
}

func NewContentService(db *gorm.DB, store cache.Store, ttl time.Duration, pageSize int) *ContentService {
	return &ContentService{db: db, now: SystemClock, cache: store, ttl: ttl, pageSize: pageSize}
}

// NewsSiteInput 新建站点表单
type NewsSiteInput struct {
	Name        string
	URL         string
	RSSURL      string
	Logo        string
	Description string
}

func (s *ContentService) CreateNewsSite(actor *models.User, in NewsSiteInput) (*models.NewsSite, error) {
	if !actor.CanModerate() {
		return nil, ErrPermissionDenied
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalid("name", "This field is required.")
	}
	if utf8.RuneCountInString(in.Name) > 200 {
		return nil, invalid("name", "Ensure this value has at most 200 characters.")
	}
	if err := validateURL("url", in.URL, 200, true); err != nil {
		return nil, err
	}
	if err := validateURL("rss_url", in.RSSURL, 200, true); err != nil {
		return nil, err
	}

	site := models.NewsSite{
		Name:        in.Name,
		URL:         strings.TrimSpace(in.URL),
		RSSURL:      strings.TrimSpace(in.RSSURL),
		Logo:        strings.TrimSpace(in.Logo),
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.db.Create(&site).Error; err != nil {
		return nil, fmt.Errorf("create news site: %w", err)
	}
	return &site, nil
}

// ListNewsSites 全部站点及其文章数
func (s *ContentService) ListNewsSites() ([]models.NewsSite, error) {
	var sites []models.NewsSite
	if err := s.db.Order("name ASC, id ASC").Find(&sites).Error; err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return sites, nil
	}

	type row struct {
		NewsSiteID uint
		Count      int64
	}
	var rows []row
	err := s.db.Model(&models.Article{}).
		Select("news_site_id, COUNT(*) AS count").
		Group("news_site_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.NewsSiteID] = r.Count
	}
	for i := range sites {
		sites[i].ArticleCount = counts[sites[i].ID]
	}
	return sites, nil
}

func (s *ContentService) GetNewsSite(id uint) (*models.NewsSite, error) {
	var site models.NewsSite
	if err := s.db.First(&site, id).Error; err != nil {
		return nil, notFound("news site", err)
	}
	return &site, nil
}

// ArticleInput 文章字段，PubDate 不能晚于当前时间
type ArticleInput struct {
	NewsSiteID   uint
	Title        string
	Subtitle     string
	Author       string
	PubDate      time.Time
	Text         string
	ImageURL     string
	ImageCaption string
	URL          string
	GUID         string
}

// CreateArticle 校验并保存文章。文章创建后不可修改。
func (s *ContentService) CreateArticle(in ArticleInput) (*models.Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.Title == "":
		return nil, invalid("title", "This field is required.")
	case utf8.RuneCountInString(in.Title) > maxArticleTitleLen:
		in.Title = truncate(in.Title, maxArticleTitleLen)
	}
	if in.PubDate.IsZero() {
		return nil, invalid("pub_date", "This field is required.")
	}
	if in.PubDate.After(s.now()) {
		return nil, invalid("pub_date", "Date cannot be in the future")
	}
	if err := validateURL("url", in.URL, 500, true); err != nil {
		return nil, err
	}
	if in.ImageURL != "" && utf8.RuneCountInString(in.ImageURL) > maxArticleImageURLLen {
		in.ImageURL = ""
	}
	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = models.DefaultArticleAuthor
	}

	if _, err := s.GetNewsSite(in.NewsSiteID); err != nil {
		return nil, err
	}

	article := models.Article{
		NewsSiteID:   in.NewsSiteID,
		Title:        in.Title,
		Subtitle:     truncate(strings.TrimSpace(in.Subtitle), maxArticleFieldLen),
		Author:       truncate(author, maxArticleFieldLen),
		PubDate:      in.PubDate.UTC(),
		Text:         in.Text,
		ImageURL:     in.ImageURL,
		ImageCaption: truncate(in.ImageCaption, maxArticleFieldLen),
		URL:          strings.TrimSpace(in.URL),
		GUID:         in.GUID,
	}
	if err := s.db.Omit(clause.Associations).Create(&article).Error; err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	s.purge(cache.PrefixArticles)
	return &article, nil
}

// HasArticle 按站点与 GUID 判断文章是否已抓取
func (s *ContentService) HasArticle(siteID uint, guid string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Article{}).Where("news_site_id = ? AND guid = ?", siteID, guid).Count(&count).Error
	return count > 0, err
}

// ListArticles 按发布时间倒序分页
func (s *ContentService) ListArticles(number int) (*pagination.Page[models.Article], error) {
	key := fmt.Sprintf("%spage:%d:%d", cache.PrefixArticles, s.pageSize, number)
	var cached pagination.Page[models.Article]
	if ok, _ := s.cache.Get(context.Background(), key, &cached); ok {
		metrics.ObserveCache(true)
		return &cached, nil
	}
	metrics.ObserveCache(false)

	page, err := s.listArticles(s.db.Model(&models.Article{}), number)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(context.Background(), key, page, s.ttl)
	return page, nil
}

func (s *ContentService) ListSiteArticles(siteID uint, number int) (*pagination.Page[models.Article], error) {
	return s.listArticles(s.db.Model(&models.Article{}).Where("news_site_id = ?", siteID), number)
}

func (s *ContentService) listArticles(query *gorm.DB, number int) (*pagination.Page[models.Article], error) {
	query = query.Order("pub_date DESC, id DESC")
	page, err := pagination.Paginate[models.Article](query, number, s.pageSize, func(tx *gorm.DB) *gorm.DB {
		return tx.Preload("NewsSite")
	})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(page.Items))
	for i, a := range page.Items {
		ids[i] = a.ID
	}
	counts, err := s.CommentCounts(models.TargetArticle, ids)
	if err != nil {
		return nil, err
	}
	for i := range page.Items {
		page.Items[i].CommentCount = counts[page.Items[i].ID]
	}
	return page, nil
}

func (s *ContentService) GetArticle(id uint) (*models.Article, error) {
	var article models.Article
	if err := s.db.Preload("NewsSite").First(&article, id).Error; err != nil {
		return nil, notFound("article", err)
	}
	return &article, nil
}

// CreateSubmission 用户提交链接或文字帖
func (s *ContentService) CreateSubmission(actor *models.User, title, rawURL, text string) (*models.Submission, error) {
	if actor == nil || !actor.IsActive {
		return nil, ErrPermissionDenied
	}
	title = strings.TrimSpace(title)
	rawURL = strings.TrimSpace(rawURL)
	switch {
	case title == "":
		return nil, invalid("title", "This field is required.")
	case utf8.RuneCountInString(title) > maxTitleLen:
		return nil, invalid("title", fmt.Sprintf("Ensure this value has at most %d characters.", maxTitleLen))
	}
	if err := validateURL("url", rawURL, maxSubmissionURLLen, false); err != nil {
		return nil, err
	}

	submission := models.Submission{
		Title:     title,
		URL:       rawURL,
		Text:      strings.TrimSpace(text),
		UserID:    &actor.ID,
		Healthy:   true,
		CreatedAt: s.now(),
	}
	if err := s.db.Omit(clause.Associations).Create(&submission).Error; err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	s.purge(cache.PrefixSubmissions)
	return &submission, nil
}

func (s *ContentService) GetSubmission(id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.Preload("User").First(&submission, id).Error; err != nil {
		return nil, notFound("submission", err)
	}
	return &submission, nil
}

// DeleteSubmission 作者或管理员可删除；投票、评论和举报随之删除
func (s *ContentService) DeleteSubmission(actor *models.User, id uint) error {
	if actor == nil {
		return ErrPermissionDenied
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&submission, id).Error; err != nil {
			return notFound("submission", err)
		}
		if !actor.Owns(submission.UserID) && !actor.CanModerate() {
			return ErrPermissionDenied
		}

		comments := tx.Model(&models.Comment{}).Select("id").Where("submission_id = ?", id)
		if err := tx.Where("comment_id IN (?)", comments).Delete(&models.CommentVote{}).Error; err != nil {
			return err
		}
		for _, model := range []any{&models.SubmissionUpvote{}, &models.SubmissionDownvote{}, &models.Report{}, &models.Comment{}} {
			if err := tx.Where("submission_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&submission).Error
	})
	if err != nil {
		return err
	}
	s.purge(cache.PrefixSubmissions)
	return nil
}

// Item 评论目标的具体内容，二者恰有一个非空
type Item struct {
	Target     models.Target
	Article    *models.Article
	Submission *models.Submission
}

func (i *Item) Title() string {
	if i.Article != nil {
		return i.Article.Title
	}
	return i.Submission.Title
}

// GetItem resolves a comment target to its content.
func (s *ContentService) GetItem(target models.Target) (*Item, error) {
	switch target.Kind {
	case models.TargetArticle:
		article, err := s.GetArticle(target.ID)
		if err != nil {
			return nil, err
		}
		return &Item{Target: target, Article: article}, nil
	case models.TargetSubmission:
		submission, err := s.GetSubmission(target.ID)
		if err != nil {
			return nil, err
		}
		return &Item{Target: target, Submission: submission}, nil
	}
	return nil, invalid("target", fmt.Sprintf("unknown item type %q", target.Kind))
}

// CommentCounts 统计未删除评论数，用于列表展示
func (s *ContentService) CommentCounts(kind models.TargetKind, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	column := models.Target{Kind: kind}.Column()

	type row struct {
		ItemID uint
		Count  int64
	}
	var rows []row
	err := s.db.Model(&models.Comment{}).
		Select(column+" AS item_id, COUNT(*) AS count").
		Where(column+" IN ? AND deleted_on IS NULL", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ItemID] = r.Count
	}
	return counts, nil
}

func (s *ContentService) purge(prefix string) {
	_ = s.cache.DeletePrefix(context.Background(), prefix)
}

func validateURL(field, raw string, maxLen int, required bool) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return invalid(field, "This field is required.")
		}
		return nil
	}
	if utf8.RuneCountInString(raw) > maxLen {
		return invalid(field, fmt.Sprintf("Ensure this value has at most %d characters.", maxLen))
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid(field, "Enter a valid URL.")
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
