package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"newsapp/internal/cache"
	"newsapp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultReportReason = "spam"

// ModerationService 举报与审核。举报数达到阈值后提交被标记为不健康，
// 管理员审核后的提交不再被举报自动下架。
type ModerationService struct {
	db        *gorm.DB
	now       Clock
	cache     cache.Store
	threshold int
}

func NewModerationService(db *gorm.DB, store cache.Store, threshold int) *ModerationService {
	return &ModerationService{db: db, now: SystemClock, cache: store, threshold: threshold}
}

// HealthyScope keeps submissions not flagged by moderation.
func (s *ModerationService) HealthyScope(tx *gorm.DB) *gorm.DB {
	return tx.Where("submissions.healthy = ?", true)
}

// Report 每个用户对同一提交只能举报一次
func (s *ModerationService) Report(actor *models.User, submissionID uint, reason string) (*models.Submission, error) {
	if actor == nil || !actor.IsActive {
		return nil, ErrPermissionDenied
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultReportReason
	}
	if utf8.RuneCountInString(reason) > 200 {
		return nil, invalid("reason", "Ensure this value has at most 200 characters.")
	}

	var submission models.Submission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&submission, submissionID).Error; err != nil {
			return notFound("submission", err)
		}
		report := models.Report{UserID: actor.ID, SubmissionID: submissionID, Reason: reason}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&report)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}

		updates := map[string]any{"report_count": gorm.Expr("report_count + ?", 1)}
		if submission.Healthy && submission.ModeratedAt == nil && submission.ReportCount+1 >= s.threshold {
			updates["healthy"] = false
		}
		if err := tx.Model(&submission).UpdateColumns(updates).Error; err != nil {
			return err
		}
		return tx.First(&submission, submissionID).Error
	})
	if err != nil {
		return nil, err
	}
	if !submission.Healthy {
		_ = s.cache.DeletePrefix(context.Background(), cache.PrefixSubmissions)
	}
	return &submission, nil
}

// SetHealthy 管理员通过（true）或下架（false）提交
func (s *ModerationService) SetHealthy(actor *models.User, submissionID uint, healthy bool) (*models.Submission, error) {
	if !actor.CanModerate() {
		return nil, ErrPermissionDenied
	}
	var submission models.Submission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&submission, submissionID).Error; err != nil {
			return notFound("submission", err)
		}
		now := s.now()
		err := tx.Model(&submission).UpdateColumns(map[string]any{
			"healthy":         healthy,
			"moderated_at":    now,
			"moderated_by_id": actor.ID,
		}).Error
		if err != nil {
			return err
		}
		submission.Healthy = healthy
		submission.ModeratedAt = &now
		submission.ModeratedByID = &actor.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.DeletePrefix(context.Background(), cache.PrefixSubmissions)
	return &submission, nil
}

// ListFlagged 被举报或已下架的提交，供管理员审核
func (s *ModerationService) ListFlagged(actor *models.User) ([]models.Submission, error) {
	if !actor.CanModerate() {
		return nil, ErrPermissionDenied
	}
	var submissions []models.Submission
	err := s.db.Preload("User").
		Where("report_count > 0 OR healthy = ?", false).
		Order("healthy ASC, report_count DESC, created_at DESC").
		Limit(100).
		Find(&submissions).Error
	return submissions, err
}

// Reports 某条提交收到的举报
func (s *ModerationService) Reports(actor *models.User, submissionID uint) ([]models.Report, error) {
	if !actor.CanModerate() {
		return nil, ErrPermissionDenied
	}
	var reports []models.Report
	err := s.db.Preload("User").Where("submission_id = ?", submissionID).Order("created_at ASC, id ASC").Find(&reports).Error
	return reports, err
}
