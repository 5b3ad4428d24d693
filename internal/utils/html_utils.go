package utils

import (
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent 为 HTML 中的图片增加安全和优化属性,并把单独成段的 YouTube 链接转换为嵌入式播放器
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	// 增强图片属性
	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(text, "http") || strings.Contains(text, " ") {
			return
		}
		if videoID := youTubeID(text); videoID != "" {
			s.ReplaceWithHtml(`<div class="video-container"><iframe src="https://www.youtube-nocookie.com/embed/` +
				template.HTMLEscapeString(videoID) +
				`" frameborder="0" allowfullscreen allow="accelerometer; clipboard-write; encrypted-media; picture-in-picture"></iframe></div>`)
		}
	})

	// goquery renders full document tags if missing, we just want the body content
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}

	return template.HTML(html)
}

func youTubeID(link string) string {
	switch {
	case strings.Contains(link, "youtube.com/watch?v="):
		parts := strings.SplitN(link, "v=", 2)
		return strings.Split(parts[1], "&")[0]
	case strings.Contains(link, "youtu.be/"):
		parts := strings.SplitN(link, "youtu.be/", 2)
		return strings.Split(parts[1], "?")[0]
	}
	return ""
}

// ExtractFirstImage 返回 HTML 中第一张图片的地址和 alt，用作文章配图
func ExtractFirstImage(htmlStr string) (src, alt string) {
	if !strings.Contains(htmlStr, "<img") {
		return "", ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return "", ""
	}
	img := doc.Find("img[src]").First()
	src, _ = img.Attr("src")
	alt, _ = img.Attr("alt")
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return "", ""
	}
	return src, strings.TrimSpace(alt)
}

// PlainText 去掉标签并合并空白
func PlainText(htmlStr string) string {
	if !strings.ContainsAny(htmlStr, "<&") {
		return strings.Join(strings.Fields(htmlStr), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return strings.Join(strings.Fields(htmlStr), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
