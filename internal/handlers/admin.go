package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"newsapp/internal/middleware"
	"newsapp/internal/services"

	"github.com/gin-gonic/gin"
)

const refreshTimeout = time.Minute

type AdminHandler struct {
	content    *services.ContentService
	moderation *services.ModerationService
	votes      *services.VoteService
	feeds      *services.RSSFetcher
}

func NewAdminHandler(content *services.ContentService, moderation *services.ModerationService, votes *services.VoteService, feeds *services.RSSFetcher) *AdminHandler {
	return &AdminHandler{content: content, moderation: moderation, votes: votes, feeds: feeds}
}

// Dashboard 待审核的提交与站点管理
func (h *AdminHandler) Dashboard(c *gin.Context) {
	h.render(c, http.StatusOK, gin.H{})
}

func (h *AdminHandler) render(c *gin.Context, code int, data gin.H) {
	user := middleware.CurrentUser(c)
	flagged, err := h.moderation.ListFlagged(user)
	if err != nil {
		HandleError(c, err)
		return
	}
	sites, err := h.content.ListNewsSites()
	if err != nil {
		HandleError(c, err)
		return
	}
	data["Title"] = "Moderation"
	data["Flagged"] = flagged
	data["Sites"] = sites
	Render(c, code, "admin.html", data)
}

// Moderate 通过或下架提交，表单字段 healthy=true|false
func (h *AdminHandler) Moderate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	healthy := c.PostForm("healthy") == "true"
	if _, err := h.moderation.SetHealthy(middleware.CurrentUser(c), id, healthy); err != nil {
		HandleError(c, err)
		return
	}
	Redirect(c, "/admin")
}

// Reports 某条提交的举报列表（HTMX 片段）
func (h *AdminHandler) Reports(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	reports, err := h.moderation.Reports(middleware.CurrentUser(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	Render(c, http.StatusOK, "partials/reports.html", gin.H{"Reports": reports})
}

// Recount 按投票记录重算得分
func (h *AdminHandler) Recount(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	points, err := h.votes.Recount(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if middleware.IsHTMX(c) {
		c.String(http.StatusOK, "%d", points)
		return
	}
	Redirect(c, "/admin")
}

// CreateSite 新增新闻站点
func (h *AdminHandler) CreateSite(c *gin.Context) {
	in := services.NewsSiteInput{
		Name:        c.PostForm("name"),
		URL:         c.PostForm("url"),
		RSSURL:      c.PostForm("rss_url"),
		Logo:        c.PostForm("logo"),
		Description: c.PostForm("description"),
	}
	site, err := h.content.CreateNewsSite(middleware.CurrentUser(c), in)
	if err != nil {
		if field, message, ok := formError(err); ok {
			h.render(c, http.StatusBadRequest, gin.H{"Error": message, "ErrorField": field, "SiteForm": in})
			return
		}
		HandleError(c, err)
		return
	}
	Redirect(c, fmt.Sprintf("/sites/%d", site.ID))
}

// RefreshSite 立即抓取站点的订阅源
func (h *AdminHandler) RefreshSite(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	site, err := h.content.GetNewsSite(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), refreshTimeout)
	defer cancel()
	count, err := h.feeds.FetchSite(ctx, site)
	if err != nil {
		middleware.Log(c).Warn().Err(err).Uint("site_id", id).Msg("Manual feed refresh failed")
		RenderError(c, http.StatusBadGateway, "Could not fetch the feed: "+err.Error())
		return
	}
	if middleware.IsHTMX(c) {
		c.String(http.StatusOK, "%d new articles", count)
		return
	}
	Redirect(c, fmt.Sprintf("/sites/%d", id))
}
