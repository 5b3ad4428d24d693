package handlers

import (
	"net/http"

	"newsapp/internal/middleware"
	"newsapp/internal/models"
	"newsapp/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes    *services.VoteService
	content  *services.ContentService
	comments *services.CommentService
}

func NewVoteHandler(votes *services.VoteService, content *services.ContentService, comments *services.CommentService) *VoteHandler {
	return &VoteHandler{votes: votes, content: content, comments: comments}
}

// Upvote handles upvote logic, a second click withdraws the vote
func (h *VoteHandler) Upvote(c *gin.Context) {
	h.voteSubmission(c, models.VoteUp)
}

// Downvote 踩/反对
func (h *VoteHandler) Downvote(c *gin.Context) {
	h.voteSubmission(c, models.VoteDown)
}

func (h *VoteHandler) voteSubmission(c *gin.Context, dir models.VoteDirection) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	result, err := h.votes.ToggleSubmission(user, id, dir)
	if err != nil {
		HandleError(c, err)
		return
	}

	if !middleware.IsHTMX(c) {
		Redirect(c, backTo(c, models.SubmissionTarget(id).URL()))
		return
	}
	submission, err := h.content.GetSubmission(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	counts, err := h.content.CommentCounts(models.TargetSubmission, []uint{id})
	if err != nil {
		HandleError(c, err)
		return
	}
	submission.CommentCount = counts[id]
	row := SubmissionRow{
		Submission: submission,
		Vote:       result.State,
		CanDelete:  user.Owns(submission.UserID) || user.CanModerate(),
	}
	Render(c, http.StatusOK, "partials/submission_item.html", gin.H{"Row": row})
}

// VoteComment 评论点赞切换；票数变化会改变兄弟顺序，所以返回整棵评论树
func (h *VoteHandler) VoteComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if _, err := h.votes.ToggleComment(user, id); err != nil {
		HandleError(c, err)
		return
	}
	comment, err := h.comments.Get(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	target := comment.Target()
	if !middleware.IsHTMX(c) {
		Redirect(c, target.URL()+commentAnchor(id))
		return
	}
	renderThread(c, h.comments, h.votes, user, target)
}
