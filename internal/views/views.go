package views

import (
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"time"

	"newsapp/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

// 整页模板：layouts + components + partials + view
var pages = []string{
	"news.html",
	"article.html",
	"about.html",
	"sites.html",
	"site.html",
	"submissions.html",
	"submission.html",
	"submission_form.html",
	"login.html",
	"forgot.html",
	"reset.html",
	"user.html",
	"profile.html",
	"admin.html",
	"error.html",
}

// HTMX 片段，单独渲染时不带布局
var partials = []string{
	"article_list.html",
	"submission_list.html",
	"submission_item.html",
	"comments.html",
	"comment.html",
	"comment_form.html",
	"reports.html",
}

// Load 加载全部模板，名称与 handler 中使用的一致
func Load(templatesDir string) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(filepath.Join(templatesDir, "layouts", "*.html"))
	if err != nil {
		return nil, err
	}
	components, err := filepath.Glob(filepath.Join(templatesDir, "components", "*.html"))
	if err != nil {
		return nil, err
	}
	shared := make([]string, 0, len(partials))
	for _, name := range partials {
		shared = append(shared, filepath.Join(templatesDir, "partials", name))
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts found in %s", templatesDir)
	}

	funcs := FuncMap()
	for _, name := range pages {
		files := make([]string, 0, len(layouts)+len(components)+len(shared)+1)
		files = append(files, layouts...)
		files = append(files, components...)
		files = append(files, shared...)
		files = append(files, filepath.Join(templatesDir, "views", name))
		if err := add(r, name, funcs, files); err != nil {
			return nil, err
		}
	}
	for i, name := range partials {
		// 第一个文件是执行入口，其余提供被引用的 define
		files := []string{shared[i]}
		files = append(files, components...)
		for j, other := range shared {
			if j != i {
				files = append(files, other)
			}
		}
		if err := add(r, "partials/"+name, funcs, files); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func add(r multitemplate.Renderer, name string, funcs template.FuncMap, files []string) error {
	tmpl, err := template.New(filepath.Base(files[0])).Funcs(funcs).ParseFiles(files...)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}
	r.Add(name, tmpl)
	return nil
}

// FuncMap 模板函数
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t any) string {
			switch v := t.(type) {
			case time.Time:
				return TimeAgo(v, time.Now())
			case *time.Time:
				if v != nil {
					return TimeAgo(*v, time.Now())
				}
			}
			return ""
		},
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"markdown":  utils.RenderMarkdown,
		"sanitize":  utils.SanitizeHTML,
		"plainText": utils.PlainText,
		// 先清洗再增强，嵌入的播放器不会被过滤掉
		"enhance": func(s string) template.HTML {
			return utils.EnhanceHTMLContent(string(utils.SanitizeHTML(s)))
		},
		"urlquery": func(s string) string {
			return url.QueryEscape(s)
		},
		"level": func(points int) string {
			name, icon := utils.GetUserLevel(points)
			return icon + " " + name
		},
	}
}

// TimeAgo 相对时间，例如 "3 hours ago"
func TimeAgo(t, now time.Time) string {
	seconds := int(now.Sub(t).Seconds())
	if seconds < 0 {
		seconds = 0
	}

	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s ago", unit)
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return plural(seconds/60, "minute")
	case seconds < 86400:
		return plural(seconds/3600, "hour")
	case seconds < 2592000:
		return plural(seconds/86400, "day")
	case seconds < 31536000:
		return plural(seconds/2592000, "month")
	}
	return plural(seconds/31536000, "year")
}
