package handlers

import (
	"fmt"
	"net/http"

	"newsapp/internal/middleware"
	"newsapp/internal/models"
	"newsapp/internal/services"
	"newsapp/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
	votes    *services.VoteService
}

func NewCommentHandler(comments *services.CommentService, votes *services.VoteService) *CommentHandler {
	return &CommentHandler{comments: comments, votes: votes}
}

func commentAnchor(id uint) string {
	return fmt.Sprintf("#comment-%d", id)
}

// Add 返回指定内容类型的发表评论处理函数，parent 为空时为顶层评论
func (h *CommentHandler) Add(kind models.TargetKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		parentID, err := utils.ParseOptionalID(c.PostForm("parent"))
		if err != nil {
			RenderError(c, http.StatusBadRequest, "Invalid parent comment.")
			return
		}
		user := middleware.CurrentUser(c)
		target := models.Target{Kind: kind, ID: id}
		comment, err := h.comments.AddComment(user, target, parentID, c.PostForm("text"))
		if err != nil {
			HandleError(c, err)
			return
		}
		if !middleware.IsHTMX(c) {
			Redirect(c, target.URL()+commentAnchor(comment.ID))
			return
		}
		renderThread(c, h.comments, h.votes, user, target)
	}
}

// EditForm 行内编辑表单（HTMX 片段）
func (h *CommentHandler) EditForm(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	comment, err := h.comments.Get(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if !user.Owns(comment.UserID) && !user.CanModerate() {
		HandleError(c, services.ErrPermissionDenied)
		return
	}
	if comment.IsDeleted() {
		HandleError(c, services.ErrInvalidState)
		return
	}
	Render(c, http.StatusOK, "partials/comment_form.html", gin.H{"Comment": comment})
}

// Edit 保存编辑
func (h *CommentHandler) Edit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	comment, err := h.comments.EditComment(user, id, c.PostForm("text"))
	if err != nil {
		HandleError(c, err)
		return
	}
	h.respond(c, user, comment)
}

// Delete 软删除评论，回复保留
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	comment, err := h.comments.DeleteComment(user, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	h.respond(c, user, comment)
}

// respond HTMX 请求返回单条评论片段，否则跳回评论位置
func (h *CommentHandler) respond(c *gin.Context, user *models.User, comment *models.Comment) {
	if !middleware.IsHTMX(c) {
		Redirect(c, comment.Target().URL()+commentAnchor(comment.ID))
		return
	}
	fresh, err := h.comments.Get(comment.ID)
	if err != nil {
		HandleError(c, err)
		return
	}
	voted, err := h.votes.CommentStates(user.ID, []uint{fresh.ID})
	if err != nil {
		HandleError(c, err)
		return
	}
	row := CommentRow{
		Comment:   fresh,
		Voted:     voted[fresh.ID],
		CanModify: !fresh.IsDeleted() && (user.Owns(fresh.UserID) || user.CanModerate()),
	}
	Render(c, http.StatusOK, "partials/comment.html", gin.H{"Comment": row, "CurrentUser": user})
}

func renderThread(c *gin.Context, comments *services.CommentService, votes *services.VoteService, user *models.User, target models.Target) {
	thread, err := commentThread(comments, votes, user, target)
	if err != nil {
		HandleError(c, err)
		return
	}
	Render(c, http.StatusOK, "partials/comments.html", gin.H{"Comments": thread, "Target": target})
}
