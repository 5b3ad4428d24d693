package services

import (
	"context"
	"fmt"
	"time"

	"newsapp/internal/cache"
	"newsapp/internal/metrics"
	"newsapp/internal/models"
	"newsapp/internal/pagination"

	"gorm.io/gorm"
)

// Window 排行时间窗口
type Window string

const (
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
	WindowAll   Window = "all"
	WindowNew   Window = "new"
)

var Windows = []Window{WindowDay, WindowWeek, WindowMonth, WindowYear, WindowAll}

func ParseWindow(s string) (Window, error) {
	switch w := Window(s); w {
	case WindowDay, WindowWeek, WindowMonth, WindowYear, WindowAll, WindowNew:
		return w, nil
	}
	return "", invalid("range", fmt.Sprintf("unknown range %q", s))
}

// Since returns the inclusive lower bound of the window ending at now.
// ok is false for windows without a lower bound.
func (w Window) Since(now time.Time) (since time.Time, ok bool) {
	switch w {
	case WindowDay:
		return now.AddDate(0, 0, -1), true
	case WindowWeek:
		return now.AddDate(0, 0, -7), true
	case WindowMonth:
		return now.AddDate(0, -1, 0), true
	case WindowYear:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// HealthFilter supplies the query scope that keeps only healthy submissions.
type HealthFilter interface {
	HealthyScope(tx *gorm.DB) *gorm.DB
}

type RankingService struct {
	db       *gorm.DB
	content  *ContentService
	health   HealthFilter
	cache    cache.Store
	ttl      time.Duration
	pageSize int
}

func NewRankingService(db *gorm.DB, content *ContentService, health HealthFilter, store cache.Store, ttl time.Duration, pageSize int) *RankingService {
	return &RankingService{db: db, content: content, health: health, cache: store, ttl: ttl, pageSize: pageSize}
}

// ListSubmissions 返回窗口内的提交：按得分、创建时间、ID 倒序；new 只按创建时间倒序
func (s *RankingService) ListSubmissions(window Window, healthyOnly bool, number int, now time.Time) (*pagination.Page[models.Submission], error) {
	if _, err := ParseWindow(string(window)); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s%s:%t:%d:%d", cache.PrefixSubmissions, window, healthyOnly, s.pageSize, number)
	var cached pagination.Page[models.Submission]
	if ok, _ := s.cache.Get(context.Background(), key, &cached); ok {
		metrics.ObserveCache(true)
		return &cached, nil
	}
	metrics.ObserveCache(false)

	query := s.db.Model(&models.Submission{}).Where("submissions.created_at <= ?", now)
	if healthyOnly {
		query = query.Scopes(s.health.HealthyScope)
	}
	if since, ok := window.Since(now); ok {
		query = query.Where("submissions.created_at >= ?", since)
	}
	if window == WindowNew {
		query = query.Order("submissions.created_at DESC, submissions.id DESC")
	} else {
		query = query.Order("submissions.points DESC, submissions.created_at DESC, submissions.id DESC")
	}

	page, err := s.page(query, number)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(context.Background(), key, page, s.ttl)
	return page, nil
}

// ListUserSubmissions 用户的全部提交，按创建时间倒序
func (s *RankingService) ListUserSubmissions(userID uint, number int) (*pagination.Page[models.Submission], error) {
	query := s.db.Model(&models.Submission{}).
		Where("submissions.user_id = ?", userID).
		Order("submissions.created_at DESC, submissions.id DESC")
	return s.page(query, number)
}

func (s *RankingService) page(query *gorm.DB, number int) (*pagination.Page[models.Submission], error) {
	page, err := pagination.Paginate[models.Submission](query, number, s.pageSize, func(tx *gorm.DB) *gorm.DB {
		return tx.Preload("User")
	})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(page.Items))
	for i, item := range page.Items {
		ids[i] = item.ID
	}
	counts, err := s.content.CommentCounts(models.TargetSubmission, ids)
	if err != nil {
		return nil, err
	}
	for i := range page.Items {
		page.Items[i].CommentCount = counts[page.Items[i].ID]
	}
	return page, nil
}
