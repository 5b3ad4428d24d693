package handlers

import (
	"newsapp/internal/models"
	"newsapp/internal/services"
)

// SubmissionRow 列表中的一条提交及当前用户的投票状态
type SubmissionRow struct {
	*models.Submission
	Vote      models.VoteDirection
	CanDelete bool
}

func (r SubmissionRow) Upvoted() bool   { return r.Vote == models.VoteUp }
func (r SubmissionRow) Downvoted() bool { return r.Vote == models.VoteDown }

// CommentRow 评论树中的一条评论
type CommentRow struct {
	*models.Comment
	Voted     bool
	CanModify bool
}

// Indent 缩进宽度，过深的回复不再继续缩进
func (r CommentRow) Indent() int {
	depth := r.Depth
	if depth > 10 {
		depth = 10
	}
	return depth * 24
}

func submissionRows(votes *services.VoteService, user *models.User, items []models.Submission) ([]SubmissionRow, error) {
	rows := make([]SubmissionRow, len(items))
	ids := make([]uint, len(items))
	for i := range items {
		rows[i] = SubmissionRow{Submission: &items[i]}
		ids[i] = items[i].ID
	}
	if user == nil || len(items) == 0 {
		return rows, nil
	}
	states, err := votes.SubmissionStates(user.ID, ids)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Vote = states[rows[i].ID]
		rows[i].CanDelete = user.Owns(rows[i].UserID) || user.CanModerate()
	}
	return rows, nil
}

// commentThread 加载评论树并标记当前用户的点赞与编辑权限
func commentThread(comments *services.CommentService, votes *services.VoteService, user *models.User, target models.Target) ([]CommentRow, error) {
	tree, err := comments.Tree(target)
	if err != nil {
		return nil, err
	}
	rows := make([]CommentRow, len(tree))
	ids := make([]uint, len(tree))
	for i := range tree {
		rows[i] = CommentRow{Comment: &tree[i]}
		ids[i] = tree[i].ID
	}
	if user == nil || len(tree) == 0 {
		return rows, nil
	}
	voted, err := votes.CommentStates(user.ID, ids)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Voted = voted[rows[i].ID]
		rows[i].CanModify = !rows[i].IsDeleted() && (user.Owns(rows[i].UserID) || user.CanModerate())
	}
	return rows, nil
}
