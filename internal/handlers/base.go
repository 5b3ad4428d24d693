package handlers

import (
	"errors"
	"net/http"
	"strings"

	"newsapp/internal/middleware"
	"newsapp/internal/pagination"
	"newsapp/internal/services"
	"newsapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path
	obj["IsHTMX"] = middleware.IsHTMX(c)

	c.HTML(code, name, obj)
}

// RenderPage 普通请求渲染整页，HTMX 请求只渲染片段
func RenderPage(c *gin.Context, code int, page, fragment string, obj gin.H) {
	if middleware.IsHTMX(c) && fragment != "" {
		Render(c, code, fragment, obj)
		return
	}
	Render(c, code, page, obj)
}

// HTMX Redirect helper
func HtmxRedirect(c *gin.Context, path string) {
	c.Header("HX-Redirect", path)
	c.Status(http.StatusOK) // HTMX handles the redirect on client side via header
}

// Redirect 表单提交后跳转，HTMX 请求改用 HX-Redirect
func Redirect(c *gin.Context, path string) {
	if middleware.IsHTMX(c) {
		HtmxRedirect(c, path)
		return
	}
	c.Redirect(http.StatusSeeOther, path)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	if middleware.IsHTMX(c) {
		c.String(code, message)
		return
	}
	Render(c, code, "error.html", gin.H{"Title": http.StatusText(code), "Error": message, "Status": code})
}

// HandleError 把服务层错误映射为 HTTP 响应
func HandleError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrPermissionDenied) && middleware.CurrentUser(c) == nil {
		middleware.RedirectToLogin(c)
		return
	}
	code, message := statusFor(err)
	if code == http.StatusInternalServerError {
		middleware.Log(c).Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		_ = c.Error(err)
	}
	RenderError(c, code, message)
}

func statusFor(err error) (int, string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "The submitted data is invalid."
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "The page you are looking for does not exist."
	case errors.Is(err, services.ErrPermissionDenied):
		return http.StatusForbidden, "You are not allowed to do that."
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict, "This item can no longer be changed."
	}
	return http.StatusInternalServerError, "Something went wrong. Please try again later."
}

// formError 取出表单字段错误，用于重新渲染表单
func formError(err error) (field, message string, ok bool) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Field, verr.Message, true
	}
	return "", "", false
}

// paramID 解析路径中的 ID，非法时直接返回 404
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		RenderError(c, http.StatusNotFound, "The page you are looking for does not exist.")
		return 0, false
	}
	return id, true
}

func pageNumber(c *gin.Context) int {
	return pagination.ParseNumber(c.Query("page"))
}

// safeNext 只允许站内相对路径，防止开放跳转
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// backTo 返回来源页面，来源不可用时返回 fallback
func backTo(c *gin.Context, fallback string) string {
	ref := c.Request.Referer()
	if ref == "" {
		return fallback
	}
	if i := strings.Index(ref, "://"); i >= 0 {
		rest := ref[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			ref = rest[j:]
		} else {
			ref = "/"
		}
	}
	if next := safeNext(ref); next != "/" || ref == "/" {
		return next
	}
	return fallback
}
