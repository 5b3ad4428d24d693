package services

import (
	"context"
	"fmt"

	"newsapp/internal/cache"
	"newsapp/internal/metrics"
	"newsapp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionVote 投票切换后的状态
type SubmissionVote struct {
	SubmissionID uint
	Cast         bool                 // true: 本次为投票；false: 撤回或无变化
	State        models.VoteDirection // 当前用户的投票方向，0 表示未投票
	Points       int
}

type CommentVoteResult struct {
	CommentID uint
	Cast      bool
	Voted     bool
	Votes     int
}

type VoteService struct {
	db    *gorm.DB
	cache cache.Store
}

func NewVoteService(db *gorm.DB, store cache.Store) *VoteService {
	return &VoteService{db: db, cache: store}
}

// ToggleSubmission 切换用户在某方向上的投票：已投则撤回，未投则投票并撤掉反方向的票。
// 投票记录、提交得分和作者积分在同一个事务中更新。
func (s *VoteService) ToggleSubmission(actor *models.User, submissionID uint, dir models.VoteDirection) (*SubmissionVote, error) {
	result, err := s.toggleSubmission(actor, submissionID, dir)
	metrics.ObserveVote(string(models.TargetSubmission), result != nil && result.Cast, err)
	return result, err
}

func (s *VoteService) toggleSubmission(actor *models.User, submissionID uint, dir models.VoteDirection) (*SubmissionVote, error) {
	if actor == nil || !actor.IsActive {
		return nil, ErrPermissionDenied
	}
	if dir != models.VoteUp && dir != models.VoteDown {
		return nil, invalid("direction", "unknown vote direction")
	}

	result := &SubmissionVote{SubmissionID: submissionID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&submission, submissionID).Error; err != nil {
			return notFound("submission", err)
		}
		if !submission.Healthy {
			return fmt.Errorf("vote on removed submission: %w", ErrInvalidState)
		}

		same, opposite := voteModels(dir)
		delta := 0

		res := tx.Where("user_id = ? AND submission_id = ?", actor.ID, submissionID).Delete(same)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			delta -= int(dir)
		} else {
			res = tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(newSubmissionVote(dir, actor.ID, submissionID))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				result.Cast = true
				delta += int(dir)

				res = tx.Where("user_id = ? AND submission_id = ?", actor.ID, submissionID).Delete(opposite)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected > 0 {
					delta += int(dir)
				}
			}
		}

		if delta != 0 {
			err := tx.Model(&models.Submission{}).Where("id = ?", submissionID).
				UpdateColumn("points", gorm.Expr("points + ?", delta)).Error
			if err != nil {
				return err
			}
			if submission.UserID != nil && *submission.UserID != actor.ID {
				if err := addPoints(tx, *submission.UserID, delta, submissionAction(dir, result.Cast), RefSubmission, submissionID); err != nil {
					return err
				}
			}
		}

		var fresh models.Submission
		if err := tx.Select("id", "points").First(&fresh, submissionID).Error; err != nil {
			return err
		}
		result.Points = fresh.Points
		state, err := submissionVoteState(tx, actor.ID, []uint{submissionID})
		if err != nil {
			return err
		}
		result.State = state[submissionID]
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.DeletePrefix(context.Background(), cache.PrefixSubmissions)
	return result, nil
}

// ToggleComment 切换评论点赞，并按新票数重排兄弟节点
func (s *VoteService) ToggleComment(actor *models.User, commentID uint) (*CommentVoteResult, error) {
	result, err := s.toggleComment(actor, commentID)
	metrics.ObserveVote(RefComment, result != nil && result.Cast, err)
	return result, err
}

func (s *VoteService) toggleComment(actor *models.User, commentID uint) (*CommentVoteResult, error) {
	if actor == nil || !actor.IsActive {
		return nil, ErrPermissionDenied
	}

	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		return nil, notFound("comment", err)
	}
	target := comment.Target()

	result := &CommentVoteResult{CommentID: commentID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 加锁顺序：目标 → 父评论 → 评论，与新增评论一致
		if _, err := lockTarget(tx, target); err != nil {
			return err
		}
		var parent *models.Comment
		if comment.ParentID != nil {
			p, err := lockComment(tx, *comment.ParentID)
			if err != nil {
				return err
			}
			parent = p
		}
		locked, err := lockComment(tx, commentID)
		if err != nil {
			return err
		}
		if locked.IsDeleted() {
			return fmt.Errorf("vote on deleted comment: %w", ErrInvalidState)
		}

		delta := 0
		res := tx.Where("user_id = ? AND comment_id = ?", actor.ID, commentID).Delete(&models.CommentVote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			delta = -1
		} else {
			vote := models.CommentVote{UserID: &actor.ID, CommentID: commentID}
			res = tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&vote)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				delta = 1
				result.Cast = true
			}
		}

		if delta != 0 {
			err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
				UpdateColumn("votes", gorm.Expr("votes + ?", delta)).Error
			if err != nil {
				return err
			}
			if locked.UserID != nil && *locked.UserID != actor.ID {
				action := ActionCommentUpvoteRevoked
				if delta > 0 {
					action = ActionCommentUpvoted
				}
				if err := addPoints(tx, *locked.UserID, delta, action, RefComment, commentID); err != nil {
					return err
				}
			}
			if err := resequence(tx, target, parent); err != nil {
				return err
			}
		}

		var fresh models.Comment
		if err := tx.Select("id", "votes").First(&fresh, commentID).Error; err != nil {
			return err
		}
		result.Votes = fresh.Votes
		var count int64
		if err := tx.Model(&models.CommentVote{}).Where("user_id = ? AND comment_id = ?", actor.ID, commentID).Count(&count).Error; err != nil {
			return err
		}
		result.Voted = count > 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Recount 根据投票表重算提交得分，修复计数偏差
func (s *VoteService) Recount(submissionID uint) (int, error) {
	var points int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&submission, submissionID).Error; err != nil {
			return notFound("submission", err)
		}
		var ups, downs int64
		if err := tx.Model(&models.SubmissionUpvote{}).Where("submission_id = ?", submissionID).Count(&ups).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SubmissionDownvote{}).Where("submission_id = ?", submissionID).Count(&downs).Error; err != nil {
			return err
		}
		points = int(ups - downs)
		return tx.Model(&submission).UpdateColumn("points", points).Error
	})
	if err != nil {
		return 0, err
	}
	_ = s.cache.DeletePrefix(context.Background(), cache.PrefixSubmissions)
	return points, nil
}

// SubmissionStates 当前用户对一组提交的投票方向
func (s *VoteService) SubmissionStates(userID uint, ids []uint) (map[uint]models.VoteDirection, error) {
	return submissionVoteState(s.db, userID, ids)
}

// CommentStates 当前用户点过赞的评论
func (s *VoteService) CommentStates(userID uint, ids []uint) (map[uint]bool, error) {
	voted := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return voted, nil
	}
	var commentIDs []uint
	err := s.db.Model(&models.CommentVote{}).
		Where("user_id = ? AND comment_id IN ?", userID, ids).
		Pluck("comment_id", &commentIDs).Error
	if err != nil {
		return nil, err
	}
	for _, id := range commentIDs {
		voted[id] = true
	}
	return voted, nil
}

func submissionVoteState(tx *gorm.DB, userID uint, ids []uint) (map[uint]models.VoteDirection, error) {
	state := make(map[uint]models.VoteDirection, len(ids))
	if len(ids) == 0 {
		return state, nil
	}
	var up, down []uint
	if err := tx.Model(&models.SubmissionUpvote{}).Where("user_id = ? AND submission_id IN ?", userID, ids).Pluck("submission_id", &up).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.SubmissionDownvote{}).Where("user_id = ? AND submission_id IN ?", userID, ids).Pluck("submission_id", &down).Error; err != nil {
		return nil, err
	}
	for _, id := range up {
		state[id] = models.VoteUp
	}
	for _, id := range down {
		state[id] = models.VoteDown
	}
	return state, nil
}

func voteModels(dir models.VoteDirection) (same, opposite any) {
	if dir == models.VoteDown {
		return &models.SubmissionDownvote{}, &models.SubmissionUpvote{}
	}
	return &models.SubmissionUpvote{}, &models.SubmissionDownvote{}
}

func newSubmissionVote(dir models.VoteDirection, userID, submissionID uint) any {
	if dir == models.VoteDown {
		return &models.SubmissionDownvote{UserID: &userID, SubmissionID: submissionID}
	}
	return &models.SubmissionUpvote{UserID: &userID, SubmissionID: submissionID}
}

func submissionAction(dir models.VoteDirection, cast bool) string {
	switch {
	case dir == models.VoteUp && cast:
		return ActionSubmissionUpvoted
	case dir == models.VoteUp:
		return ActionSubmissionUpvoteRevoked
	case cast:
		return ActionSubmissionDownvoted
	}
	return ActionSubmissionDownRevoked
}
