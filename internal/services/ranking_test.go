package services

import (
	"errors"
	"testing"
	"time"

	"newsapp/internal/models"
)

func titles(items []models.Submission) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = s.Title
	}
	return out
}

func newRanking(t *testing.T, pageSize int) (*RankingService, *ModerationService, *models.User) {
	t.Helper()
	conn := newTestDB(t)
	author := createUser(t, conn, "author", false)
	content := NewContentService(conn, nopCache, time.Minute, pageSize)
	moderation := NewModerationService(conn, nopCache, 3)
	return NewRankingService(conn, content, moderation, nopCache, time.Minute, pageSize), moderation, author
}

func TestListSubmissionsWindowBounds(t *testing.T) {
	ranking, _, author := newRanking(t, 10)
	conn := ranking.db
	now := baseTime

	createSubmission(t, conn, author, "boundary", 1, now.AddDate(0, 0, -1))
	createSubmission(t, conn, author, "too old", 50, now.AddDate(0, 0, -1).Add(-time.Second))
	createSubmission(t, conn, author, "recent", 3, now.Add(-time.Hour))
	createSubmission(t, conn, author, "now", 0, now)
	createSubmission(t, conn, author, "future", 100, now.Add(time.Minute))

	page, err := ranking.ListSubmissions(WindowDay, true, 1, now)
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, titles(page.Items), "recent", "boundary", "now")

	page, err = ranking.ListSubmissions(WindowAll, true, 1, now)
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, titles(page.Items), "too old", "recent", "boundary", "now")

	page, err = ranking.ListSubmissions(WindowNew, true, 1, now)
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, titles(page.Items), "now", "recent", "boundary", "too old")
}

func TestListSubmissionsTieBreak(t *testing.T) {
	ranking, _, author := newRanking(t, 10)
	conn := ranking.db
	now := baseTime

	createSubmission(t, conn, author, "older", 5, now.Add(-2*time.Hour))
	createSubmission(t, conn, author, "newer", 5, now.Add(-time.Hour))
	createSubmission(t, conn, author, "same time low id", 2, now.Add(-3*time.Hour))
	createSubmission(t, conn, author, "same time high id", 2, now.Add(-3*time.Hour))

	page, err := ranking.ListSubmissions(WindowWeek, true, 1, now)
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, titles(page.Items), "newer", "older", "same time high id", "same time low id")
}

func TestListSubmissionsHealthyOnly(t *testing.T) {
	ranking, moderation, author := newRanking(t, 10)
	conn := ranking.db
	staff := createUser(t, conn, "staff", true)

	createSubmission(t, conn, author, "fine", 0, baseTime.Add(-time.Hour))
	bad := createSubmission(t, conn, author, "removed", 10, baseTime.Add(-time.Hour))
	if _, err := moderation.SetHealthy(staff, bad.ID, false); err != nil {
		t.Fatal(err)
	}

	page, err := ranking.ListSubmissions(WindowAll, true, 1, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, titles(page.Items), "fine")

	page, err = ranking.ListSubmissions(WindowAll, false, 1, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, titles(page.Items), "removed", "fine")
}

func TestListSubmissionsPaging(t *testing.T) {
	ranking, _, author := newRanking(t, 2)
	conn := ranking.db
	for i, title := range []string{"a", "b", "c", "d", "e"} {
		createSubmission(t, conn, author, title, 10-i, baseTime.Add(-time.Hour))
	}

	page, err := ranking.ListSubmissions(WindowAll, true, 2, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	if page.NumPages != 3 || page.Total != 5 || !page.HasNext() || !page.HasPrevious() {
		t.Errorf("page = %+v", page)
	}
	assertOrder(t, titles(page.Items), "c", "d")

	// 越界的页码返回最后一页
	for _, n := range []int{99, 0, -1} {
		page, err = ranking.ListSubmissions(WindowAll, true, n, baseTime)
		if err != nil {
			t.Fatal(err)
		}
		if page.Number != 3 {
			t.Errorf("page %d resolved to %d, want 3", n, page.Number)
		}
		assertOrder(t, titles(page.Items), "e")
	}
}

func TestListSubmissionsEmpty(t *testing.T) {
	ranking, _, _ := newRanking(t, 10)
	page, err := ranking.ListSubmissions(WindowDay, true, 5, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	if page.Number != 1 || page.NumPages != 1 || len(page.Items) != 0 {
		t.Errorf("empty page = %+v", page)
	}
}

func TestParseWindow(t *testing.T) {
	for _, w := range append(Windows, WindowNew) {
		if got, err := ParseWindow(string(w)); err != nil || got != w {
			t.Errorf("ParseWindow(%q) = %q, %v", w, got, err)
		}
	}
	if _, err := ParseWindow("fortnight"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown window err = %v", err)
	}
	since, ok := WindowMonth.Since(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	if !ok || !since.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month since = %v", since)
	}
	if _, ok := WindowAll.Since(baseTime); ok {
		t.Error("all window has a lower bound")
	}
}

func TestListUserSubmissions(t *testing.T) {
	ranking, moderation, author := newRanking(t, 10)
	conn := ranking.db
	other := createUser(t, conn, "other", false)

	createSubmission(t, conn, author, "older", 40, baseTime.Add(-48*time.Hour))
	hidden := createSubmission(t, conn, author, "hidden", 0, baseTime.Add(-time.Hour))
	createSubmission(t, conn, author, "latest", 1, baseTime)
	createSubmission(t, conn, other, "not mine", 99, baseTime)
	staff := createUser(t, conn, "staff", true)
	if _, err := moderation.SetHealthy(staff, hidden.ID, false); err != nil {
		t.Fatal(err)
	}

	page, err := ranking.ListUserSubmissions(author.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	// 按创建时间倒序，不按得分，也包含已下架的
	assertOrder(t, titles(page.Items), "latest", "hidden", "older")
}
