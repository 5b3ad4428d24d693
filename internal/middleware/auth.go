package middleware

import (
	"net/http"
	"net/url"

	"newsapp/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// SessionUserKey 会话中保存用户 ID 的键
const SessionUserKey = "user_id"

// UserLoader 按 ID 加载用户，UserService 实现
type UserLoader interface {
	Get(id uint) (*models.User, error)
}

// LoadUser retrieves user from session and sets to context
func LoadUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID, ok := session.Get(SessionUserKey).(uint); ok {
			user, err := users.Get(userID)
			if err == nil && user.IsActive {
				c.Set(CheckUserKey, user)
			} else {
				// 用户已删除或被禁用，清掉失效的会话
				session.Delete(SessionUserKey)
				_ = session.Save()
			}
		}
		c.Next()
	}
}

// CurrentUser 返回当前登录用户，未登录为 nil
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			RedirectToLogin(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// StaffRequired 只允许管理员访问
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			RedirectToLogin(c)
			c.Abort()
			return
		}
		if !user.CanModerate() {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// RedirectToLogin 跳转到登录页并带上 next；HTMX 请求通过 HX-Redirect 由前端跳转
func RedirectToLogin(c *gin.Context) {
	next := c.Request.URL.RequestURI()
	if c.Request.Method != http.MethodGet {
		next = c.Request.Referer()
		if u, err := url.Parse(next); err == nil {
			next = u.RequestURI()
		}
	}
	target := "/login"
	if next != "" && next != "/" {
		target += "?next=" + url.QueryEscape(next)
	}
	if IsHTMX(c) {
		c.Header("HX-Redirect", target)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// actorOf 取得会话用户的 ID，用于限流等不需要完整用户的场景
func actorOf(c *gin.Context) (uint, bool) {
	if user := CurrentUser(c); user != nil {
		return user.ID, true
	}
	return 0, false
}
