package services

import (
	"newsapp/internal/models"

	"gorm.io/gorm"
)

// 积分动作常量
const (
	ActionSubmissionUpvoted       = "submission upvoted"
	ActionSubmissionUpvoteRevoked = "submission upvote withdrawn"
	ActionSubmissionDownvoted     = "submission downvoted"
	ActionSubmissionDownRevoked   = "submission downvote withdrawn"
	ActionCommentUpvoted          = "comment upvoted"
	ActionCommentUpvoteRevoked    = "comment upvote withdrawn"
)

const (
	RefSubmission = "submission"
	RefComment    = "comment"
)

// addPoints 在调用方的事务里记录积分明细并更新用户积分余额
func addPoints(tx *gorm.DB, userID uint, amount int, action, refKind string, refID uint) error {
	if amount == 0 {
		return nil
	}
	log := models.PointLog{
		UserID:  userID,
		Amount:  amount,
		Action:  action,
		RefKind: refKind,
		RefID:   refID,
	}
	if err := tx.Omit("User").Create(&log).Error; err != nil {
		return err
	}

	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", amount)).
		Error
}

// PointLogs 用户最近的积分明细
func PointLogs(conn *gorm.DB, userID uint, limit int) ([]models.PointLog, error) {
	var logs []models.PointLog
	err := conn.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// PointLogs 当前用户的积分明细
func (s *UserService) PointLogs(userID uint, limit int) ([]models.PointLog, error) {
	return PointLogs(s.db, userID, limit)
}
