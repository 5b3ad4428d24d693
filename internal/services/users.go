package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"newsapp/internal/cache"
	"newsapp/internal/models"
	"newsapp/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxUsernameLen     = 150
	minPasswordLen     = 8
	maxBioLen          = 2000
	resetTokenLifetime = time.Hour
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}@.+\-_]+$`)

// Mailer sends account mail. MailService implements it.
type Mailer interface {
	SendPasswordResetEmail(email, username, link string)
}

type UserService struct {
	db      *gorm.DB
	now     Clock
	mailer  Mailer
	siteURL string
	cache   cache.Store
}

func NewUserService(db *gorm.DB, mailer Mailer, siteURL string, store cache.Store) *UserService {
	return &UserService{db: db, now: SystemClock, mailer: mailer, siteURL: strings.TrimSuffix(siteURL, "/"), cache: store}
}

// Register 创建新用户，同时创建空的 Profile
func (s *UserService) Register(username, email, password, confirm string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, invalid("email", "Enter a valid email address.")
		}
	}
	if err := validatePassword(username, password, confirm); err != nil {
		return nil, err
	}

	var exists int64
	if err := s.db.Model(&models.User{}).Where("LOWER(username) = LOWER(?)", username).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, invalid("username", "A user with that username already exists.")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username: username,
		Email:    email,
		Password: hash,
		IsActive: true,
		Profile:  &models.Profile{},
	}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalid("username", "A user with that username already exists.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate 校验用户名密码并记录登录时间
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("", "Invalid username or password")
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, invalid("", "Invalid username or password")
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is inactive: %w", ErrPermissionDenied)
	}

	now := s.now()
	if err := s.db.Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		return nil, err
	}
	user.LastLogin = &now
	return &user, nil
}

func (s *UserService) Get(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Profile").First(&user, id).Error; err != nil {
		return nil, notFound("user", err)
	}
	return &user, nil
}

func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Profile").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound("user", err)
	}
	return &user, nil
}

// UpdateProfile 更新当前用户的个人简介，Profile 不存在时创建
func (s *UserService) UpdateProfile(actor *models.User, bio string) (*models.Profile, error) {
	if actor == nil || !actor.IsActive {
		return nil, ErrPermissionDenied
	}
	bio = strings.TrimSpace(bio)
	if utf8.RuneCountInString(bio) > maxBioLen {
		return nil, invalid("bio", fmt.Sprintf("Ensure this value has at most %d characters.", maxBioLen))
	}

	var profile models.Profile
	err := s.db.Where("user_id = ?", actor.ID).First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = models.Profile{UserID: actor.ID, Bio: bio}
		if err := s.db.Create(&profile).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := s.db.Model(&profile).Update("bio", bio).Error; err != nil {
			return nil, err
		}
		profile.Bio = bio
	}
	return &profile, nil
}

// Delete 删除用户。提交、投票、评论保留并把用户置空，积分与评论树不受影响。
func (s *UserService) Delete(actor *models.User, userID uint) error {
	if actor == nil || (actor.ID != userID && !actor.IsSuperuser) {
		return ErrPermissionDenied
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return notFound("user", err)
		}

		nullify := []struct {
			model  any
			column string
		}{
			{&models.Submission{}, "user_id"},
			{&models.Submission{}, "moderated_by_id"},
			{&models.SubmissionUpvote{}, "user_id"},
			{&models.SubmissionDownvote{}, "user_id"},
			{&models.CommentVote{}, "user_id"},
			{&models.Comment{}, "user_id"},
			{&models.Comment{}, "edited_by_id"},
			{&models.Comment{}, "deleted_by_id"},
		}
		for _, n := range nullify {
			if err := tx.Model(n.model).Where(n.column+" = ?", userID).UpdateColumn(n.column, nil).Error; err != nil {
				return err
			}
		}
		for _, model := range []any{&models.Report{}, &models.PointLog{}, &models.Profile{}} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return err
	}
	return s.cache.DeletePrefix(context.Background(), cache.PrefixSubmissions)
}

// RequestPasswordReset 生成重置令牌并发送邮件；邮箱不存在时静默返回
func (s *UserService) RequestPasswordReset(email string) error {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("email", "Enter a valid email address.")
	}

	var users []models.User
	if err := s.db.Where("LOWER(email) = LOWER(?) AND is_active = ?", email, true).Find(&users).Error; err != nil {
		return err
	}
	for _, user := range users {
		token := strings.ReplaceAll(uuid.NewString(), "-", "")
		expires := s.now().Add(resetTokenLifetime)
		err := s.db.Model(&user).Updates(map[string]any{
			"reset_token":   token,
			"reset_expires": expires,
		}).Error
		if err != nil {
			return err
		}
		if s.mailer != nil {
			s.mailer.SendPasswordResetEmail(user.Email, user.Username, s.siteURL+"/reset?token="+token)
		}
	}
	return nil
}

// ResetPassword 使用令牌设置新密码，令牌一次有效
func (s *UserService) ResetPassword(token, password, confirm string) (*models.User, error) {
	if token == "" {
		return nil, invalid("token", "The password reset link is invalid or has expired.")
	}
	var user models.User
	err := s.db.Where("reset_token = ? AND reset_expires > ?", token, s.now()).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("token", "The password reset link is invalid or has expired.")
		}
		return nil, err
	}
	if err := validatePassword(user.Username, password, confirm); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	err = s.db.Model(&user).Updates(map[string]any{
		"password":      hash,
		"reset_token":   "",
		"reset_expires": nil,
	}).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func validateUsername(username string) error {
	switch {
	case username == "":
		return invalid("username", "This field is required.")
	case utf8.RuneCountInString(username) > maxUsernameLen:
		return invalid("username", fmt.Sprintf("Ensure this value has at most %d characters.", maxUsernameLen))
	case !usernamePattern.MatchString(username):
		return invalid("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	return nil
}

func validatePassword(username, password, confirm string) error {
	if password != confirm {
		return invalid("password2", "The two password fields didn't match.")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return invalid("password1", fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLen))
	}
	if strings.Trim(password, "0123456789") == "" {
		return invalid("password1", "This password is entirely numeric.")
	}
	if strings.EqualFold(password, username) {
		return invalid("password1", "The password is too similar to the username.")
	}
	return nil
}
