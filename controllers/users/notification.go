package users

import (
	"net/http"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

// GET /users/notifications
func NotificationListHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	db := database.DB
	page, limit, offset := pageParams(r)

	q := db.Model(&models.Notification{}).Where("user_id = ?", uid)
	if r.URL.Query().Get("unread") == "true" {
		q = q.Where("`read` = ?", false)
	}
	var total int64
	q.Count(&total)

	var notifications []models.Notification
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    utils.Paginated{Items: notifications, Total: total, Page: page, Limit: limit},
	})
}

// PUT /users/notifications/{id}/read
func MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	notifID := pathID(r, "id")
	if notifID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid notification id"})
		return
	}

	res := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notifID, uid).
		Update("read", true)
	if res.Error != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Notification not found"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Marked as read"})
}

// PUT /users/notifications/read-all
func MarkAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", uid, false).
		Update("read", true).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "All notifications marked as read"})
}
