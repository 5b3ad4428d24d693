package utils

import (
	"time"
)

// GetUserLevel 根据积分返回用户等级
func GetUserLevel(points int) (name string, icon string) {
	switch {
	case points >= 1000:
		return "Veteran", "🏆"
	case points >= 201:
		return "Regular", "⭐"
	case points >= 51:
		return "Contributor", "🔥"
	case points >= 11:
		return "Member", "🌿"
	default:
		return "Newcomer", "🌱"
	}
}

// GetDaysSinceJoined 计算注册天数
func GetDaysSinceJoined(createdAt, now time.Time) int {
	if now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt).Hours() / 24)
}
