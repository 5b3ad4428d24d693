package handlers

import (
	"net/http"

	"newsapp/internal/services"

	"github.com/gin-gonic/gin"
)

type SiteHandler struct {
	content *services.ContentService
}

func NewSiteHandler(content *services.ContentService) *SiteHandler {
	return &SiteHandler{content: content}
}

// List 所有新闻站点
func (h *SiteHandler) List(c *gin.Context) {
	sites, err := h.content.ListNewsSites()
	if err != nil {
		HandleError(c, err)
		return
	}
	Render(c, http.StatusOK, "sites.html", gin.H{"Title": "Sources", "Sites": sites})
}

// Show 站点详情及其文章
func (h *SiteHandler) Show(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	site, err := h.content.GetNewsSite(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	page, err := h.content.ListSiteArticles(id, pageNumber(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RenderPage(c, http.StatusOK, "site.html", "partials/article_list.html", gin.H{
		"Title":   site.Name,
		"Site":    site,
		"Page":    page,
		"BaseURL": c.Request.URL.Path,
	})
}
