package admins

import (
	"net/http"
	"strings"
	"time"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

type DailyGrowth struct {
	Day   string `json:"day"`
	Count *int64 `json:"count"`
}

type TaskBreakdown struct {
	NotStarted int64 `json:"not_started"`
	InProgress int64 `json:"in_progress"`
	Submitted  int64 `json:"submitted"`
	Completed  int64 `json:"completed"`
	Rejected   int64 `json:"rejected"`
}

type DashboardStats struct {
	TotalUsers        int64         `json:"total_users"`
	ActiveUsers       int64         `json:"active_users"`
	GrowthUsers       []DailyGrowth `json:"growth_users"`
	TotalCommunities  int64         `json:"total_communities"`
	TotalTasks        int64         `json:"total_tasks"`
	Tasks             TaskBreakdown `json:"tasks"`
	TotalAssignments  int64         `json:"total_assignments"`
	PendingReviews    int64         `json:"pending_reviews"`
	PointsAwarded     int64         `json:"points_awarded"`
	NotificationsSent int64         `json:"notifications_sent"`
}

func GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	var stats DashboardStats
	db := database.DB

	stats.GrowthUsers = make([]DailyGrowth, 0)

	db.Model(&models.User{}).Count(&stats.TotalUsers)
	db.Model(&models.User{}).Where("status = ?", "Active").Count(&stats.ActiveUsers)

	// Users created per day over the last 7 days, grouped by day name
	growthMap := map[string]int64{}
	rows, err := db.Model(&models.User{}).
		Select("DATE_FORMAT(created_at, '%W') as day, COUNT(*) as count").
		Where("created_at >= NOW() - INTERVAL 7 DAY").
		Group("DATE_FORMAT(created_at, '%W')").
		Rows()
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var day string
			var count int64
			if scanErr := rows.Scan(&day, &count); scanErr == nil {
				growthMap[strings.TrimSpace(day)] = count
			}
		}
	}
	for i := 6; i >= 0; i-- {
		d := time.Now().AddDate(0, 0, -i)
		dayName := d.Format("Monday")
		if val, ok := growthMap[dayName]; ok {
			v := val
			stats.GrowthUsers = append(stats.GrowthUsers, DailyGrowth{Day: dayName, Count: &v})
		} else {
			stats.GrowthUsers = append(stats.GrowthUsers, DailyGrowth{Day: dayName, Count: nil})
		}
	}

	db.Model(&models.Community{}).Count(&stats.TotalCommunities)
	db.Model(&models.Task{}).Count(&stats.TotalTasks)
	db.Model(&models.Task{}).Where("status = ?", "not_started").Count(&stats.Tasks.NotStarted)
	db.Model(&models.Task{}).Where("status = ?", "in_progress").Count(&stats.Tasks.InProgress)
	db.Model(&models.Task{}).Where("status = ?", "submitted").Count(&stats.Tasks.Submitted)
	db.Model(&models.Task{}).Where("status = ?", "completed").Count(&stats.Tasks.Completed)
	db.Model(&models.Task{}).Where("status = ?", "rejected").Count(&stats.Tasks.Rejected)

	db.Model(&models.TaskAssignment{}).Count(&stats.TotalAssignments)
	db.Model(&models.TaskAssignment{}).Where("status = ?", "submitted").Count(&stats.PendingReviews)

	db.Model(&models.Contribution{}).Select("COALESCE(SUM(points),0)").Scan(&stats.PointsAwarded)
	db.Model(&models.Notification{}).Count(&stats.NotificationsSent)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    stats,
	})
}
