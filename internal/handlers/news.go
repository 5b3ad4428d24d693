package handlers

import (
	"net/http"

	"newsapp/internal/middleware"
	"newsapp/internal/models"
	"newsapp/internal/services"

	"github.com/gin-gonic/gin"
)

type NewsHandler struct {
	content  *services.ContentService
	comments *services.CommentService
	votes    *services.VoteService
}

func NewNewsHandler(content *services.ContentService, comments *services.CommentService, votes *services.VoteService) *NewsHandler {
	return &NewsHandler{content: content, comments: comments, votes: votes}
}

// List 首页：抓取的新闻按发布时间倒序
func (h *NewsHandler) List(c *gin.Context) {
	page, err := h.content.ListArticles(pageNumber(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RenderPage(c, http.StatusOK, "news.html", "partials/article_list.html", gin.H{
		"Title":   "News",
		"Page":    page,
		"BaseURL": c.Request.URL.Path,
	})
}

// Article 文章详情与评论
func (h *NewsHandler) Article(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	article, err := h.content.GetArticle(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	target := models.ArticleTarget(id)
	thread, err := commentThread(h.comments, h.votes, middleware.CurrentUser(c), target)
	if err != nil {
		HandleError(c, err)
		return
	}
	RenderPage(c, http.StatusOK, "article.html", "partials/comments.html", gin.H{
		"Title":    article.Title,
		"Article":  article,
		"Comments": thread,
		"Target":   target,
	})
}

func (h *NewsHandler) About(c *gin.Context) {
	Render(c, http.StatusOK, "about.html", gin.H{"Title": "About"})
}
