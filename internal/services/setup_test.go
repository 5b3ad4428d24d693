package services

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"newsapp/internal/cache"
	"newsapp/internal/db"
	"newsapp/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// baseTime 测试使用的固定时间
var baseTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on&_busy_timeout=5000"
	conn, err := db.Open("sqlite", dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, username string, staff bool) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-hash",
		IsActive: true,
		IsStaff:  staff,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createSubmission(t *testing.T, conn *gorm.DB, author *models.User, title string, points int, created time.Time) *models.Submission {
	t.Helper()
	submission := &models.Submission{
		Title:     title,
		UserID:    &author.ID,
		Points:    points,
		Healthy:   true,
		CreatedAt: created,
	}
	if err := conn.Omit(clause.Associations).Create(submission).Error; err != nil {
		t.Fatalf("create submission %s: %v", title, err)
	}
	return submission
}

func createSite(t *testing.T, conn *gorm.DB, rssURL string) *models.NewsSite {
	t.Helper()
	site := &models.NewsSite{Name: "Example", URL: "https://example.com", RSSURL: rssURL}
	if err := conn.Create(site).Error; err != nil {
		t.Fatalf("create site: %v", err)
	}
	return site
}

func reload[T any](t *testing.T, conn *gorm.DB, id uint) *T {
	t.Helper()
	var v T
	if err := conn.First(&v, id).Error; err != nil {
		t.Fatalf("reload %T %d: %v", v, id, err)
	}
	return &v
}

func count(t *testing.T, conn *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}

// recordingMailer 记录发出的邮件，实现 Mailer 与 ReplyNotifier
type recordingMailer struct {
	mu      sync.Mutex
	resets  []string
	replies []string
}

func (m *recordingMailer) SendPasswordResetEmail(email, username, link string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, link)
}

func (m *recordingMailer) SendReplyNotification(email, replier, title, reply, original, link string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, fmt.Sprintf("%s|%s|%s", email, replier, link))
}

var nopCache cache.Store = cache.Nop{}

func ptr[T any](v T) *T {
	return &v
}

func uintString(v uint) string {
	return fmt.Sprintf("%d", v)
}
