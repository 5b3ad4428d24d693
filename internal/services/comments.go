package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"newsapp/internal/cache"
	"newsapp/internal/metrics"
	"newsapp/internal/models"
	"newsapp/internal/tree"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCommentLen = 10000

// ReplyNotifier is told when someone replies to a comment. MailService implements it.
type ReplyNotifier interface {
	SendReplyNotification(email, replier, title, reply, original, link string)
}

type CommentService struct {
	db       *gorm.DB
	now      Clock
	cache    cache.Store
	notifier ReplyNotifier
}

func NewCommentService(db *gorm.DB, store cache.Store, notifier ReplyNotifier) *CommentService {
	return &CommentService{db: db, now: SystemClock, cache: store, notifier: notifier}
}

// AddComment 在内容或某条评论下回复，并重排父节点下的兄弟顺序
func (s *CommentService) AddComment(actor *models.User, target models.Target, parentID *uint, text string) (*models.Comment, error) {
	comment, err := s.addComment(actor, target, parentID, text)
	metrics.ObserveComment("add", err)
	return comment, err
}

func (s *CommentService) addComment(actor *models.User, target models.Target, parentID *uint, text string) (*models.Comment, error) {
	if actor == nil || !actor.IsActive {
		return nil, ErrPermissionDenied
	}
	if !target.Valid() {
		return nil, invalid("target", "unknown item")
	}
	text, err := cleanCommentText(text)
	if err != nil {
		return nil, err
	}

	var comment models.Comment
	var parent *models.Comment
	var title string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		t, err := lockTarget(tx, target)
		if err != nil {
			return err
		}
		title = t

		prefix := ""
		if parentID != nil {
			parent, err = lockComment(tx, *parentID)
			if err != nil {
				return err
			}
			if parent.Target() != target {
				return invalid("parent", "The parent comment belongs to another item.")
			}
			if parent.IsDeleted() {
				return fmt.Errorf("reply to deleted comment: %w", ErrInvalidState)
			}
			prefix = parent.Path
		}

		var siblings int64
		q := tx.Model(&models.Comment{}).Where(target.Column()+" = ?", target.ID)
		if parentID == nil {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", *parentID)
		}
		if err := q.Count(&siblings).Error; err != nil {
			return err
		}
		path, err := tree.Next(prefix, int(siblings))
		if err != nil {
			return err
		}

		comment = models.Comment{
			UserID:    &actor.ID,
			ParentID:  parentID,
			Text:      text,
			Path:      path,
			Depth:     tree.Depth(path),
			CreatedOn: s.now().Truncate(time.Microsecond),
		}
		if target.Kind == models.TargetArticle {
			comment.ArticleID = &target.ID
		} else {
			comment.SubmissionID = &target.ID
		}
		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}

		if err := resequence(tx, target, parent); err != nil {
			return err
		}
		return tx.First(&comment, comment.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.purge(target)
	s.notifyReply(actor, parent, &comment, target, title)
	return &comment, nil
}

// EditComment 作者或管理员可编辑；已删除的评论不可编辑
func (s *CommentService) EditComment(actor *models.User, commentID uint, text string) (*models.Comment, error) {
	comment, err := s.editComment(actor, commentID, text)
	metrics.ObserveComment("edit", err)
	return comment, err
}

func (s *CommentService) editComment(actor *models.User, commentID uint, text string) (*models.Comment, error) {
	comment, err := s.authorize(actor, commentID)
	if err != nil {
		return nil, err
	}
	text, err = cleanCommentText(text)
	if err != nil {
		return nil, err
	}

	now := s.now()
	res := s.db.Model(&models.Comment{}).
		Where("id = ? AND deleted_on IS NULL", commentID).
		UpdateColumns(map[string]any{
			"text":         text,
			"edited_on":    now,
			"edited_by_id": actor.ID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("edit deleted comment: %w", ErrInvalidState)
	}
	comment.Text = text
	comment.EditedOn = &now
	comment.EditedByID = &actor.ID
	return comment, nil
}

// DeleteComment 软删除：保留节点与回复，只记录删除时间和操作人
func (s *CommentService) DeleteComment(actor *models.User, commentID uint) (*models.Comment, error) {
	comment, err := s.deleteComment(actor, commentID)
	metrics.ObserveComment("delete", err)
	return comment, err
}

func (s *CommentService) deleteComment(actor *models.User, commentID uint) (*models.Comment, error) {
	comment, err := s.authorize(actor, commentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	res := s.db.Model(&models.Comment{}).
		Where("id = ? AND deleted_on IS NULL", commentID).
		UpdateColumns(map[string]any{
			"deleted_on":    now,
			"deleted_by_id": actor.ID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("delete deleted comment: %w", ErrInvalidState)
	}
	comment.DeletedOn = &now
	comment.DeletedByID = &actor.ID
	s.purge(comment.Target())
	return comment, nil
}

// Tree 返回内容下的全部评论，按物化路径排序（深度优先，兄弟按票数与时间）
func (s *CommentService) Tree(target models.Target) ([]models.Comment, error) {
	if !target.Valid() {
		return nil, invalid("target", "unknown item")
	}
	if err := targetExists(s.db, target); err != nil {
		return nil, err
	}
	var comments []models.Comment
	err := s.db.Preload("User").
		Where(target.Column()+" = ?", target.ID).
		Order("path ASC").
		Find(&comments).Error
	return comments, err
}

func (s *CommentService) Get(commentID uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.Preload("User").First(&comment, commentID).Error; err != nil {
		return nil, notFound("comment", err)
	}
	return &comment, nil
}

// authorize 加载评论并检查操作人是作者或管理员，已删除时返回 ErrInvalidState
func (s *CommentService) authorize(actor *models.User, commentID uint) (*models.Comment, error) {
	if actor == nil || !actor.IsActive {
		return nil, ErrPermissionDenied
	}
	comment, err := s.Get(commentID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(comment.UserID) && !actor.CanModerate() {
		return nil, ErrPermissionDenied
	}
	if comment.IsDeleted() {
		return nil, ErrInvalidState
	}
	return comment, nil
}

func (s *CommentService) purge(target models.Target) {
	prefix := cache.PrefixSubmissions
	if target.Kind == models.TargetArticle {
		prefix = cache.PrefixArticles
	}
	_ = s.cache.DeletePrefix(context.Background(), prefix)
}

func (s *CommentService) notifyReply(actor *models.User, parent, reply *models.Comment, target models.Target, title string) {
	if s.notifier == nil || parent == nil || parent.UserID == nil || *parent.UserID == actor.ID {
		return
	}
	var author models.User
	if err := s.db.First(&author, *parent.UserID).Error; err != nil || author.Email == "" {
		return
	}
	link := fmt.Sprintf("%s#comment-%d", target.URL(), reply.ID)
	s.notifier.SendReplyNotification(author.Email, actor.Username, title, reply.Text, parent.Text, link)
}

// lockTarget 锁定评论目标行并返回其标题；不健康的提交不能再评论或投票
func lockTarget(tx *gorm.DB, target models.Target) (string, error) {
	locking := clause.Locking{Strength: "UPDATE"}
	switch target.Kind {
	case models.TargetArticle:
		var article models.Article
		if err := tx.Clauses(locking).First(&article, target.ID).Error; err != nil {
			return "", notFound("article", err)
		}
		return article.Title, nil
	case models.TargetSubmission:
		var submission models.Submission
		if err := tx.Clauses(locking).First(&submission, target.ID).Error; err != nil {
			return "", notFound("submission", err)
		}
		if !submission.Healthy {
			return "", fmt.Errorf("submission removed by moderation: %w", ErrInvalidState)
		}
		return submission.Title, nil
	}
	return "", invalid("target", "unknown item")
}

func lockComment(tx *gorm.DB, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&comment, id).Error; err != nil {
		return nil, notFound("comment", err)
	}
	return &comment, nil
}

func targetExists(db *gorm.DB, target models.Target) error {
	var count int64
	var err error
	if target.Kind == models.TargetArticle {
		err = db.Model(&models.Article{}).Where("id = ?", target.ID).Count(&count).Error
	} else {
		err = db.Model(&models.Submission{}).Where("id = ?", target.ID).Count(&count).Error
	}
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%s: %w", target.Kind, ErrNotFound)
	}
	return nil
}

// resequence 重新计算 parent 下（nil 为整个讨论串）所有节点的路径，只写回变化的行。
// 调用方必须已持有目标行和 parent 行的锁。
func resequence(tx *gorm.DB, target models.Target, parent *models.Comment) error {
	var rows []models.Comment
	q := tx.Select("id", "parent_id", "votes", "created_on", "path").
		Where(target.Column()+" = ?", target.ID)
	var prefix string
	var parentID *uint
	if parent != nil {
		prefix = parent.Path
		parentID = &parent.ID
		q = q.Where("path LIKE ? AND id <> ?", prefix+"%", parent.ID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return err
	}

	nodes := make([]tree.Node, len(rows))
	for i, r := range rows {
		nodes[i] = tree.Node{ID: r.ID, ParentID: r.ParentID, Votes: r.Votes, CreatedOn: r.CreatedOn, Path: r.Path}
	}
	placements, err := tree.Sequence(prefix, parentID, nodes)
	if err != nil {
		return err
	}
	for _, p := range tree.Diff(nodes, placements) {
		err := tx.Model(&models.Comment{}).Where("id = ?", p.ID).
			UpdateColumns(map[string]any{"path": p.Path, "depth": p.Depth}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func cleanCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", invalid("text", "This field is required.")
	}
	if utf8.RuneCountInString(text) > maxCommentLen {
		return "", invalid("text", fmt.Sprintf("Ensure this value has at most %d characters.", maxCommentLen))
	}
	return text, nil
}
