package users

import (
	"net/http"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

// GET /users/me
func InfoHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	db := database.DB

	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	var memberships []models.Membership
	db.Where("user_id = ? AND status = ?", uid, "Active").Find(&memberships)

	communityIDs := make([]uint, 0, len(memberships))
	roleByCommunity := make(map[uint]string, len(memberships))
	for _, m := range memberships {
		communityIDs = append(communityIDs, m.CommunityID)
		roleByCommunity[m.CommunityID] = m.Role
	}
	var communities []models.Community
	if len(communityIDs) > 0 {
		db.Where("id IN ?", communityIDs).Find(&communities)
	}

	communityData := make([]map[string]interface{}, 0, len(communities))
	for _, c := range communities {
		communityData = append(communityData, map[string]interface{}{
			"id":   c.ID,
			"name": c.Name,
			"role": roleByCommunity[c.ID],
		})
	}

	var unread int64
	db.Model(&models.Notification{}).Where("user_id = ? AND `read` = ?", uid, false).Count(&unread)

	var totalCompleted int64
	db.Model(&models.TaskAssignment{}).Where("user_id = ? AND status = ?", uid, "completed").Count(&totalCompleted)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"user":                 user,
			"communities":          communityData,
			"unread_notifications": unread,
			"completed_tasks":      totalCompleted,
		},
	})
}
