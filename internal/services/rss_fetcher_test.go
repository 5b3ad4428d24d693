package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsapp/internal/models"

	"github.com/rs/zerolog"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Example</title>
  <link>https://example.com</link>
  <description>Example feed</description>
  <item>
    <title>First &amp; best</title>
    <link>https://example.com/1</link>
    <guid>g1</guid>
    <pubDate>Sun, 15 Jun 2025 10:00:00 +0000</pubDate>
    <description>&lt;p&gt;Summary&lt;/p&gt;</description>
    <content:encoded><![CDATA[<p>Body <img src="https://example.com/i.png" alt="pic"></p>]]></content:encoded>
  </item>
  <item>
    <title>Future</title>
    <link>https://example.com/2</link>
    <guid>g2</guid>
    <pubDate>Mon, 16 Jun 2025 10:00:00 +0000</pubDate>
    <description>later</description>
  </item>
  <item>
    <title>No guid</title>
    <link>https://example.com/3</link>
    <pubDate>Sun, 15 Jun 2025 09:00:00 +0000</pubDate>
    <description>plain</description>
  </item>
</channel>
</rss>`

func TestFetchSite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	conn := newTestDB(t)
	content := NewContentService(conn, nopCache, time.Minute, 10)
	content.now = fixedClock(baseTime)
	fetcher := NewRSSFetcher(conn, content, nil, 5*time.Second, zerolog.Nop())
	site := createSite(t, conn, server.URL)

	n, err := fetcher.FetchSite(context.Background(), site)
	if err != nil {
		t.Fatalf("FetchSite: %v", err)
	}
	if n != 2 {
		t.Errorf("ingested %d, want 2 (future item skipped)", n)
	}
	if site.LastFetchAt == nil || !site.LastFetchAt.Equal(baseTime) {
		t.Errorf("last fetch = %v", site.LastFetchAt)
	}

	var first models.Article
	if err := conn.Where("guid = ?", "g1").First(&first).Error; err != nil {
		t.Fatal(err)
	}
	if first.Title != "First & best" || first.Subtitle != "Summary" {
		t.Errorf("first = %q / %q", first.Title, first.Subtitle)
	}
	if first.ImageURL != "https://example.com/i.png" || first.ImageCaption != "pic" {
		t.Errorf("image = %q %q", first.ImageURL, first.ImageCaption)
	}
	if first.Author != models.DefaultArticleAuthor {
		t.Errorf("author = %q", first.Author)
	}
	if n := count(t, conn, &models.Article{}, "guid = ?", "https://example.com/3"); n != 1 {
		t.Errorf("link used as guid: %d", n)
	}

	// 再次抓取不会重复入库
	n, err = fetcher.FetchSite(context.Background(), site)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second fetch ingested %d", n)
	}
}

func TestFetchSiteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	conn := newTestDB(t)
	content := NewContentService(conn, nopCache, time.Minute, 10)
	fetcher := NewRSSFetcher(conn, content, nil, 5*time.Second, zerolog.Nop())
	site := createSite(t, conn, server.URL)

	if _, err := fetcher.FetchSite(context.Background(), site); err == nil {
		t.Error("expected error for failing feed")
	}
	if site.LastFetchAt != nil {
		t.Error("last fetch updated on failure")
	}
	// 单个站点失败不会中断
	fetcher.RefreshAllSites(context.Background())
}
