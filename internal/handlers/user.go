package handlers

import (
	"net/http"
	"time"

	"newsapp/internal/middleware"
	"newsapp/internal/services"
	"newsapp/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const pointLogLimit = 20

type UserHandler struct {
	users   *services.UserService
	ranking *services.RankingService
	votes   *services.VoteService
}

func NewUserHandler(users *services.UserService, ranking *services.RankingService, votes *services.VoteService) *UserHandler {
	return &UserHandler{users: users, ranking: ranking, votes: votes}
}

// Profile - 用户主页 /users/:username
func (h *UserHandler) Profile(c *gin.Context) {
	viewUser, err := h.users.GetByUsername(c.Param("username"))
	if err != nil {
		HandleError(c, err)
		return
	}

	// 计算用户等级和注册天数
	levelName, levelIcon := utils.GetUserLevel(viewUser.Points)
	data := gin.H{
		"Title":     viewUser.Username,
		"ViewUser":  viewUser,
		"LevelName": levelName,
		"LevelIcon": levelIcon,
		"DaysSince": utils.GetDaysSinceJoined(viewUser.CreatedAt, time.Now()),
	}
	// 积分明细只对本人可见
	if current := middleware.CurrentUser(c); current != nil && current.ID == viewUser.ID {
		logs, err := h.users.PointLogs(viewUser.ID, pointLogLimit)
		if err != nil {
			HandleError(c, err)
			return
		}
		data["PointLogs"] = logs
	}
	Render(c, http.StatusOK, "user.html", data)
}

// Submissions 用户发布的全部提交
func (h *UserHandler) Submissions(c *gin.Context) {
	viewUser, err := h.users.GetByUsername(c.Param("username"))
	if err != nil {
		HandleError(c, err)
		return
	}
	page, err := h.ranking.ListUserSubmissions(viewUser.ID, pageNumber(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	rows, err := submissionRows(h.votes, middleware.CurrentUser(c), page.Items)
	if err != nil {
		HandleError(c, err)
		return
	}
	RenderPage(c, http.StatusOK, "submissions.html", "partials/submission_list.html", gin.H{
		"Title":    "Submissions by " + viewUser.Username,
		"ViewUser": viewUser,
		"Page":     page,
		"Rows":     rows,
		"BaseURL":  c.Request.URL.Path,
	})
}

// ShowSettings 编辑个人简介
func (h *UserHandler) ShowSettings(c *gin.Context) {
	user, err := h.users.Get(middleware.CurrentUser(c).ID)
	if err != nil {
		HandleError(c, err)
		return
	}
	bio := ""
	if user.Profile != nil {
		bio = user.Profile.Bio
	}
	Render(c, http.StatusOK, "profile.html", gin.H{"Title": "Profile", "Bio": bio})
}

func (h *UserHandler) UpdateSettings(c *gin.Context) {
	user := middleware.CurrentUser(c)
	bio := c.PostForm("bio")
	if _, err := h.users.UpdateProfile(user, bio); err != nil {
		if _, message, ok := formError(err); ok {
			Render(c, http.StatusBadRequest, "profile.html", gin.H{"Title": "Profile", "Bio": bio, "Error": message})
			return
		}
		HandleError(c, err)
		return
	}
	Redirect(c, "/users/"+user.Username)
}

// DeleteAccount 注销账号，提交与评论保留为匿名
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.users.Delete(user, user.ID); err != nil {
		HandleError(c, err)
		return
	}
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	Redirect(c, "/")
}
