package users

import (
	"net/http"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

// GET /communities/{id}/leaderboard
//
// Ranks active members by contribution points earned on tasks inside this
// community. The ledger is the source of truth so cross-community points on
// users.points do not leak in.
func LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	communityID := pathID(r, "id")
	if communityID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid community id"})
		return
	}

	db := database.DB
	var self models.Membership
	if err := db.Where("community_id = ? AND user_id = ? AND status = ?", communityID, uid, "Active").First(&self).Error; err != nil {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Not a member of this community"})
		return
	}

	type row struct {
		UserID uint  `json:"user_id"`
		Points int64 `json:"points"`
	}
	var rows []row
	err := db.Model(&models.Contribution{}).
		Select("contributions.user_id, COALESCE(SUM(contributions.points),0) AS points").
		Joins("JOIN tasks ON tasks.id = contributions.task_id").
		Where("tasks.community_id = ?", communityID).
		Group("contributions.user_id").
		Order("points DESC").
		Limit(50).
		Scan(&rows).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	resp := make([]map[string]interface{}, 0, len(rows))
	for i, rw := range rows {
		var user models.User
		if err := db.First(&user, rw.UserID).Error; err != nil {
			continue
		}
		resp = append(resp, map[string]interface{}{
			"rank":           i + 1,
			"user":           user.Summary(),
			"points":         rw.Points,
			"current_streak": user.CurrentStreak,
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: resp})
}
