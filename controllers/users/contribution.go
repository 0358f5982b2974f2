package users

import (
	"net/http"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

// GET /users/contributions
func ContributionHistoryHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	db := database.DB
	page, limit, offset := pageParams(r)

	var total int64
	db.Model(&models.Contribution{}).Where("user_id = ?", uid).Count(&total)

	var contributions []models.Contribution
	if err := db.Where("user_id = ?", uid).Order("created_at DESC").Limit(limit).Offset(offset).Find(&contributions).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	resp := make([]map[string]interface{}, 0, len(contributions))
	for _, c := range contributions {
		entry := map[string]interface{}{
			"id":         c.ID,
			"points":     c.Points,
			"type":       c.Type,
			"created_at": c.CreatedAt,
		}
		if c.TaskID != nil {
			var task models.Task
			if err := db.Select("id, title, community_id").First(&task, *c.TaskID).Error; err == nil {
				entry["task"] = map[string]interface{}{
					"id":           task.ID,
					"title":        task.Title,
					"community_id": task.CommunityID,
				}
			}
		}
		resp = append(resp, entry)
	}

	var user models.User
	_ = db.First(&user, uid).Error

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"total_points":   user.Points,
			"current_streak": user.CurrentStreak,
			"history":        utils.Paginated{Items: resp, Total: total, Page: page, Limit: limit},
		},
	})
}
