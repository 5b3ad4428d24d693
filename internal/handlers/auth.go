package handlers

import (
	"errors"
	"net/http"

	"newsapp/internal/middleware"
	"newsapp/internal/services"
	"newsapp/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const captchaSessionKey = "captcha_answer"

type AuthHandler struct {
	users          *services.UserService
	captchaService *services.CaptchaService
}

func NewAuthHandler(users *services.UserService, captcha *services.CaptchaService) *AuthHandler {
	return &AuthHandler{users: users, captchaService: captcha}
}

// renderLogin 登录与注册在同一页面，每次渲染都换一道验证码
func (h *AuthHandler) renderLogin(c *gin.Context, code int, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	question, answer := h.captchaService.GenerateMathProblem()
	session := sessions.Default(c)
	session.Set(captchaSessionKey, answer)
	_ = session.Save()

	data["Title"] = "Login"
	data["Captcha"] = question
	data["Next"] = safeNext(c.DefaultQuery("next", c.PostForm("next")))
	Render(c, code, "login.html", data)
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.renderLogin(c, http.StatusOK, nil)
}

// Login 处理登录；表单带 register 字段时处理注册
func (h *AuthHandler) Login(c *gin.Context) {
	if c.PostForm("register") != "" {
		h.register(c)
		return
	}

	username := c.PostForm("username")
	user, err := h.users.Authenticate(username, c.PostForm("password"))
	if err != nil {
		if _, message, ok := formError(err); ok {
			h.renderLogin(c, http.StatusBadRequest, gin.H{"LoginError": message, "Username": username})
			return
		}
		if errors.Is(err, services.ErrPermissionDenied) {
			h.renderLogin(c, http.StatusForbidden, gin.H{"LoginError": "This account is inactive.", "Username": username})
			return
		}
		HandleError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		HandleError(c, err)
		return
	}
	middleware.Log(c).Info().Uint("user_id", user.ID).Msg("User logged in")
	Redirect(c, safeNext(c.PostForm("next")))
}

func (h *AuthHandler) register(c *gin.Context) {
	username := c.PostForm("username")
	email := c.PostForm("email")
	form := gin.H{"Username": username, "Email": email}

	// Validate Captcha
	session := sessions.Default(c)
	expected, ok := session.Get(captchaSessionKey).(int)
	session.Delete(captchaSessionKey)
	if !ok || utils.StringToInt(c.PostForm("captcha")) != expected {
		h.renderLogin(c, http.StatusBadRequest, gin.H{"RegisterError": "Wrong answer to the math question.", "RegisterField": "captcha", "Register": form})
		return
	}

	user, err := h.users.Register(username, email, c.PostForm("password1"), c.PostForm("password2"))
	if err != nil {
		if field, message, ok := formError(err); ok {
			h.renderLogin(c, http.StatusBadRequest, gin.H{"RegisterError": message, "RegisterField": field, "Register": form})
			return
		}
		HandleError(c, err)
		return
	}
	middleware.Log(c).Info().Uint("user_id", user.ID).Msg("User registered")
	h.renderLogin(c, http.StatusOK, gin.H{"Success": "Account created. You can log in now.", "Username": user.Username})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = session.Save()
	c.Redirect(http.StatusFound, "/")
}

// ShowForgot 找回密码页面
func (h *AuthHandler) ShowForgot(c *gin.Context) {
	Render(c, http.StatusOK, "forgot.html", gin.H{"Title": "Forgot password"})
}

// Forgot 无论邮箱是否存在都显示相同结果
func (h *AuthHandler) Forgot(c *gin.Context) {
	email := c.PostForm("email")
	if err := h.users.RequestPasswordReset(email); err != nil {
		if _, message, ok := formError(err); ok {
			Render(c, http.StatusBadRequest, "forgot.html", gin.H{"Title": "Forgot password", "Error": message, "Email": email})
			return
		}
		HandleError(c, err)
		return
	}
	Render(c, http.StatusOK, "forgot.html", gin.H{"Title": "Forgot password", "Sent": true})
}

func (h *AuthHandler) ShowReset(c *gin.Context) {
	Render(c, http.StatusOK, "reset.html", gin.H{"Title": "Reset password", "Token": c.Query("token")})
}

func (h *AuthHandler) Reset(c *gin.Context) {
	token := c.PostForm("token")
	if _, err := h.users.ResetPassword(token, c.PostForm("password1"), c.PostForm("password2")); err != nil {
		if field, message, ok := formError(err); ok {
			Render(c, http.StatusBadRequest, "reset.html", gin.H{"Title": "Reset password", "Token": token, "Error": message, "ErrorField": field})
			return
		}
		HandleError(c, err)
		return
	}
	h.renderLogin(c, http.StatusOK, gin.H{"Success": "Your password has been changed. You can log in now."})
}
