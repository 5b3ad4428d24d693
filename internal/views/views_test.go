package views

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"newsapp/internal/handlers"
	"newsapp/internal/models"
	"newsapp/internal/pagination"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
)

const templatesDir = "../../web/templates"

func render(t *testing.T, name string, data gin.H) string {
	t.Helper()
	r, err := Load(templatesDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	w := httptest.NewRecorder()
	if err := r.Instance(name, data).Render(w); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return w.Body.String()
}

// registered reports whether name was added to r, whichever concrete
// renderer multitemplate.NewRenderer picked for the current gin mode.
func registered(r multitemplate.Renderer, name string) bool {
	switch m := r.(type) {
	case multitemplate.Render:
		_, ok := m[name]
		return ok
	case multitemplate.DynamicRender:
		_, ok := m[name]
		return ok
	}
	return false
}

func TestLoadRegistersAllTemplates(t *testing.T) {
	r, err := Load(templatesDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, name := range pages {
		if !registered(r, name) {
			t.Errorf("page %s not registered", name)
		}
	}
	for _, name := range partials {
		if !registered(r, "partials/"+name) {
			t.Errorf("partial %s not registered", name)
		}
	}
}

func TestLoadMissingDir(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("Load() on empty dir should fail")
	}
}

func TestRenderNewsPage(t *testing.T) {
	page := &pagination.Page[models.Article]{
		Items: []models.Article{{
			ID:       7,
			Title:    "Go 1.30 released",
			Author:   "gopher",
			PubDate:  time.Now().Add(-2 * time.Hour),
			NewsSite: models.NewsSite{Name: "Go Blog"},
		}},
		Number:   1,
		Size:     10,
		Total:    1,
		NumPages: 1,
	}
	body := render(t, "news.html", gin.H{
		"Title":       "News",
		"Page":        page,
		"BaseURL":     "/",
		"CurrentPath": "/",
	})
	for _, want := range []string{"<title>News | newsapp</title>", `href="/articles/7"`, "Go Blog", "2 hours ago", "Login"} {
		if !strings.Contains(body, want) {
			t.Errorf("news page missing %q", want)
		}
	}
	if strings.Contains(body, "Page 1 of 1") {
		t.Error("single page should not render pagination")
	}
}

func TestRenderCommentFragment(t *testing.T) {
	uid := uint(3)
	sid := uint(9)
	deleted := time.Now()
	user := &models.User{ID: uid, Username: "alice", IsActive: true}

	live := handlers.CommentRow{
		Comment:   &models.Comment{ID: 1, SubmissionID: &sid, UserID: &uid, User: user, Text: "**hello**", CreatedOn: time.Now()},
		CanModify: true,
	}
	body := render(t, "partials/comment.html", gin.H{"Comment": live, "CurrentUser": user})
	for _, want := range []string{`id="comment-1"`, "<strong>hello</strong>", `hx-post="/submissions/9/comments"`, `hx-delete="/comments/1"`} {
		if !strings.Contains(body, want) {
			t.Errorf("comment fragment missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<html") {
		t.Error("fragment should not include the layout")
	}

	gone := handlers.CommentRow{Comment: &models.Comment{ID: 2, SubmissionID: &sid, Text: "secret", CreatedOn: time.Now(), DeletedOn: &deleted}}
	body = render(t, "partials/comment.html", gin.H{"Comment": gone, "CurrentUser": user})
	if strings.Contains(body, "secret") || !strings.Contains(body, "[deleted]") {
		t.Errorf("deleted comment rendered wrong:\n%s", body)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{-time.Hour, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{40 * 24 * time.Hour, "1 month ago"},
		{800 * 24 * time.Hour, "2 years ago"},
	}
	for _, tt := range tests {
		if got := TimeAgo(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("TimeAgo(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}
