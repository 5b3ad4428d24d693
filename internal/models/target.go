package models

import (
	"fmt"
	"net/url"
	"strings"
)

// TargetKind 评论可以挂载的内容类型
type TargetKind string

const (
	TargetArticle    TargetKind = "article"
	TargetSubmission TargetKind = "submission"
)

// Target identifies the content item a comment thread belongs to.
type Target struct {
	Kind TargetKind
	ID   uint
}

func ArticleTarget(id uint) Target {
	return Target{Kind: TargetArticle, ID: id}
}

func SubmissionTarget(id uint) Target {
	return Target{Kind: TargetSubmission, ID: id}
}

// ParseTargetKind accepts the URL segment names used by the router.
func ParseTargetKind(s string) (TargetKind, bool) {
	switch strings.TrimSuffix(strings.ToLower(s), "s") {
	case "article":
		return TargetArticle, true
	case "submission":
		return TargetSubmission, true
	}
	return "", false
}

func (t Target) Valid() bool {
	return t.ID != 0 && (t.Kind == TargetArticle || t.Kind == TargetSubmission)
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// URL 内容详情页地址
func (t Target) URL() string {
	return fmt.Sprintf("/%ss/%d", t.Kind, t.ID)
}

// Column 评论表中对应的外键列
func (t Target) Column() string {
	if t.Kind == TargetArticle {
		return "article_id"
	}
	return "submission_id"
}

func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
