package admins

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/events"
	"github.com/ysrbharadwaj/Loomio-sub001/lifecycle"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

// GET /admin/communities
func ListCommunities(w http.ResponseWriter, r *http.Request) {
	db := database.DB

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := db.Model(&models.Community{})
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	q.Count(&total)

	var communities []models.Community
	if err := q.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&communities).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	resp := make([]map[string]interface{}, 0, len(communities))
	for _, c := range communities {
		var memberCount, taskCount int64
		db.Model(&models.Membership{}).Where("community_id = ? AND status = ?", c.ID, "Active").Count(&memberCount)
		db.Model(&models.Task{}).Where("community_id = ?", c.ID).Count(&taskCount)
		resp = append(resp, map[string]interface{}{
			"id":           c.ID,
			"name":         c.Name,
			"description":  c.Description,
			"invite_code":  c.InviteCode,
			"created_by":   c.CreatedBy,
			"created_at":   c.CreatedAt,
			"member_count": memberCount,
			"task_count":   taskCount,
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    utils.Paginated{Items: resp, Total: total, Page: page, Limit: limit},
	})
}

// DELETE /admin/communities/{id}/tasks/{taskId}
//
// Platform admins can remove any task; the engine actor bypasses the
// community role check.
func DeleteCommunityTask(w http.ResponseWriter, r *http.Request) {
	adminID, _ := utils.GetUserID(r)
	taskID, err := strconv.ParseUint(mux.Vars(r)["taskId"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}

	eng := lifecycle.NewEngine(database.DB, events.Default)
	if err := eng.DeleteTask(uint(taskID), lifecycle.Actor{UserID: adminID, Platform: true}); err != nil {
		status := lifecycle.HTTPStatus(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "Server error"
		}
		utils.WriteJSON(w, status, utils.APIResponse{Success: false, Message: msg})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task deleted"})
}
