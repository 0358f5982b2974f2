package admins

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

// GET /admin/users
func ListUsers(w http.ResponseWriter, r *http.Request) {
	db := database.DB

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := db.Model(&models.User{})
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR email LIKE ?", like, like)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	q.Count(&total)

	var users []models.User
	if err := q.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    utils.Paginated{Items: users, Total: total, Page: page, Limit: limit},
	})
}

// GET /admin/users/{id}
func GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}
	db := database.DB

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	var memberships []models.Membership
	db.Where("user_id = ?", user.ID).Find(&memberships)

	var completed, rejected int64
	db.Model(&models.TaskAssignment{}).Where("user_id = ? AND status = ?", user.ID, "completed").Count(&completed)
	db.Model(&models.TaskAssignment{}).Where("user_id = ? AND status = ?", user.ID, "rejected").Count(&rejected)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"user":            user,
			"memberships":     memberships,
			"completed_tasks": completed,
			"rejected_tasks":  rejected,
		},
	})
}

type UpdateUserStatusRequest struct {
	Status string `json:"status"`
}

// PUT /admin/users/{id}/status
func UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}
	var req UpdateUserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}
	switch req.Status {
	case "Active", "Inactive", "Suspended":
	default:
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Status must be Active, Inactive or Suspended"})
		return
	}

	db := database.DB
	res := db.Model(&models.User{}).Where("id = ?", id).Update("status", req.Status)
	if res.Error != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	// force re-login when the account is disabled
	if req.Status != "Active" {
		_ = db.Model(&models.RefreshToken{}).Where("user_id = ?", id).Update("revoked", true).Error
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "User status updated"})
}
