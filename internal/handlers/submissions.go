package handlers

import (
	"fmt"
	"net/http"
	"time"

	"newsapp/internal/middleware"
	"newsapp/internal/models"
	"newsapp/internal/services"

	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	content    *services.ContentService
	ranking    *services.RankingService
	votes      *services.VoteService
	comments   *services.CommentService
	moderation *services.ModerationService
}

func NewSubmissionHandler(content *services.ContentService, ranking *services.RankingService, votes *services.VoteService, comments *services.CommentService, moderation *services.ModerationService) *SubmissionHandler {
	return &SubmissionHandler{content: content, ranking: ranking, votes: votes, comments: comments, moderation: moderation}
}

// List 热门提交 /submissions?range=day|week|month|year|all
func (h *SubmissionHandler) List(c *gin.Context) {
	window, err := services.ParseWindow(c.DefaultQuery("range", string(services.WindowDay)))
	if err != nil || window == services.WindowNew {
		// 未知的范围不过滤时间
		window = services.WindowAll
	}
	h.list(c, window, "Top submissions")
}

// ListNew 最新提交 /submissions/new
func (h *SubmissionHandler) ListNew(c *gin.Context) {
	h.list(c, services.WindowNew, "New submissions")
}

func (h *SubmissionHandler) list(c *gin.Context, window services.Window, title string) {
	user := middleware.CurrentUser(c)
	page, err := h.ranking.ListSubmissions(window, true, pageNumber(c), time.Now().UTC())
	if err != nil {
		HandleError(c, err)
		return
	}
	rows, err := submissionRows(h.votes, user, page.Items)
	if err != nil {
		HandleError(c, err)
		return
	}
	RenderPage(c, http.StatusOK, "submissions.html", "partials/submission_list.html", gin.H{
		"Title":   title,
		"Page":    page,
		"Rows":    rows,
		"Range":   string(window),
		"Windows": services.Windows,
		"BaseURL": c.Request.URL.Path,
	})
}

// Detail 提交详情与评论
func (h *SubmissionHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	submission, err := h.content.GetSubmission(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if !submission.Healthy && !user.CanModerate() && !user.Owns(submission.UserID) {
		HandleError(c, fmt.Errorf("submission %d hidden: %w", id, services.ErrNotFound))
		return
	}
	rows, err := submissionRows(h.votes, user, []models.Submission{*submission})
	if err != nil {
		HandleError(c, err)
		return
	}
	target := models.SubmissionTarget(id)
	thread, err := commentThread(h.comments, h.votes, user, target)
	if err != nil {
		HandleError(c, err)
		return
	}
	count, err := h.content.CommentCounts(models.TargetSubmission, []uint{id})
	if err != nil {
		HandleError(c, err)
		return
	}
	rows[0].CommentCount = count[id]
	RenderPage(c, http.StatusOK, "submission.html", "partials/comments.html", gin.H{
		"Title":    submission.Title,
		"Row":      rows[0],
		"Comments": thread,
		"Target":   target,
	})
}

// ShowCreate 发布表单
func (h *SubmissionHandler) ShowCreate(c *gin.Context) {
	Render(c, http.StatusOK, "submission_form.html", gin.H{"Title": "Submit"})
}

// Create 提交表单，成功后跳转到详情页
func (h *SubmissionHandler) Create(c *gin.Context) {
	title := c.PostForm("title")
	link := c.PostForm("url")
	text := c.PostForm("text")

	submission, err := h.content.CreateSubmission(middleware.CurrentUser(c), title, link, text)
	if err != nil {
		if field, message, ok := formError(err); ok {
			Render(c, http.StatusBadRequest, "submission_form.html", gin.H{
				"Title":      "Submit",
				"Error":      message,
				"ErrorField": field,
				"Form":       gin.H{"Title": title, "URL": link, "Text": text},
			})
			return
		}
		HandleError(c, err)
		return
	}
	Redirect(c, models.SubmissionTarget(submission.ID).URL())
}

// Delete 删除提交
func (h *SubmissionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteSubmission(middleware.CurrentUser(c), id); err != nil {
		HandleError(c, err)
		return
	}
	Redirect(c, "/submissions/new")
}

// Report 举报提交
func (h *SubmissionHandler) Report(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	_, err := h.moderation.Report(middleware.CurrentUser(c), id, c.PostForm("reason"))
	if err != nil {
		HandleError(c, err)
		return
	}
	if middleware.IsHTMX(c) {
		c.String(http.StatusOK, "Reported. Thanks!")
		return
	}
	Redirect(c, backTo(c, models.SubmissionTarget(id).URL()))
}
